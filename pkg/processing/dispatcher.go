package processing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/igorvan/omniscan/pkg/logging"
	"github.com/igorvan/omniscan/pkg/scanning"
	"github.com/igorvan/omniscan/pkg/session"
)

const (
	// HighlightDuration - how long the viewfinder stays highlighted after a scan
	HighlightDuration = 400 * time.Millisecond
	// ToastDuration - how long the decoded value toast stays visible
	ToastDuration = 2000 * time.Millisecond
	// VibrationDuration - haptic pulse length
	VibrationDuration = 100 * time.Millisecond
)

// Storage - scanned entries storage
type Storage interface {
	Append(ctx context.Context, entry scanning.Entry) error
	ReadAll(ctx context.Context) ([]scanning.Entry, error)
}

// Feedback - user feedback fired for every accepted scan
type Feedback interface {
	Beep() error
	// Vibrate - returns false when the device has no haptics
	Vibrate(d time.Duration) bool
	Highlight(on bool)
	ShowToast(value string)
	HideToast()
}

// Renderer - redraws the full list of stored entries
type Renderer interface {
	RenderEntries(entries []scanning.Entry)
}

// Dispatcher - consumes decode events one at a time, applies the cooldown
// and stores accepted scans
type Dispatcher struct {
	storage  Storage
	feedback Feedback
	renderer Renderer
	state    *session.State
	log      *slog.Logger
	now      func() time.Time

	highlightFor time.Duration
	toastFor     time.Duration
}

// New - Dispatcher constructor, feedback and renderer are optional
func New(storage Storage, feedback Feedback, renderer Renderer, state *session.State, log *slog.Logger) (*Dispatcher, error) {
	if storage == nil {
		return nil, fmt.Errorf("cannot instantiate a Dispatcher, no storage provided")
	}
	if state == nil {
		state = session.New()
	}
	return &Dispatcher{
		storage:      storage,
		feedback:     feedback,
		renderer:     renderer,
		state:        state,
		log:          logging.OrDiscard(log),
		now:          time.Now,
		highlightFor: HighlightDuration,
		toastFor:     ToastDuration,
	}, nil
}

// Run - handles events until the channel is closed or the context is done
func (d *Dispatcher) Run(ctx context.Context, events <-chan scanning.DecodeResult) error {
	defer d.state.CancelToastHide()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := d.Handle(ctx, ev); err != nil {
				d.log.Error(fmt.Sprintf("cannot store scan [%s]: %s", ev.Text, err))
			}
		}
	}
}

// Handle - process a single decode event,
// returns whether it passed the cooldown, storage failures are returned as errors.
// The cooldown runs on arrival time, decoder clocks are not trusted.
func (d *Dispatcher) Handle(ctx context.Context, ev scanning.DecodeResult) (bool, error) {
	ev.At = d.now()
	if !d.state.Accept(ev.At) {
		return false, nil
	}
	d.log.Info(fmt.Sprintf("Code matched = %s", ev.Text), "format", ev.Format.String())

	d.notify(ev.Text)

	if err := d.storage.Append(ctx, scanning.NewEntry(ev)); err != nil {
		return true, err
	}
	return true, d.Refresh(ctx)
}

// Refresh - re-renders the whole stored collection
func (d *Dispatcher) Refresh(ctx context.Context) error {
	if d.renderer == nil {
		return nil
	}
	all, err := d.storage.ReadAll(ctx)
	if err != nil {
		return err
	}
	d.renderer.RenderEntries(all)
	return nil
}

func (d *Dispatcher) notify(value string) {
	if d.feedback == nil {
		return
	}
	fb := d.feedback

	if err := fb.Beep(); err != nil {
		d.log.Warn(fmt.Sprintf("Audio feedback failed: %s", err))
	}
	fb.Vibrate(VibrationDuration)

	fb.Highlight(true)
	time.AfterFunc(d.highlightFor, func() { fb.Highlight(false) })

	fb.ShowToast(value)
	d.state.ScheduleToastHide(d.toastFor, fb.HideToast)
}

package decode

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/igorvan/omniscan/pkg/camera"
	"github.com/igorvan/omniscan/pkg/logging"
	"github.com/igorvan/omniscan/pkg/scanning"
)

const defaultBuffer = 16

// Decoder - external optical code decoder driving a capture device
type Decoder interface {
	Cameras(ctx context.Context) ([]camera.Device, error)
	// Start - begins decoding frames of the device, onSuccess is called for
	// every decoded code and onFailure for every frame without one
	Start(ctx context.Context, deviceID string, cfg scanning.DecoderConfig,
		onSuccess func(scanning.DecodeResult), onFailure func(error)) error
	Stop(ctx context.Context) error
}

// Bridge - configures the decoder and turns its callbacks into a stream of events
type Bridge struct {
	decoder Decoder
	cfg     scanning.DecoderConfig
	limiter *rate.Limiter
	log     *slog.Logger
	now     func() time.Time

	mtx    sync.Mutex
	closed bool
	events chan scanning.DecodeResult
}

// New - Bridge constructor
func New(decoder Decoder, log *slog.Logger) (*Bridge, error) {
	if decoder == nil {
		return nil, fmt.Errorf("cannot instantiate a decode Bridge, no decoder provided")
	}
	cfg := scanning.DefaultDecoderConfig()
	return &Bridge{
		decoder: decoder,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.FPS), cfg.FPS),
		log:     logging.OrDiscard(log),
		now:     time.Now,
		events:  make(chan scanning.DecodeResult, defaultBuffer),
	}, nil
}

// Events - decoded codes in arrival order
func (b *Bridge) Events() <-chan scanning.DecodeResult {
	return b.events
}

// Config - decoder configuration every capture is started with
func (b *Bridge) Config() scanning.DecoderConfig {
	return b.cfg
}

// Cameras - devices the decoder can capture from
func (b *Bridge) Cameras(ctx context.Context) ([]camera.Device, error) {
	return b.decoder.Cameras(ctx)
}

// Start - starts decoding on the device with the fixed configuration
func (b *Bridge) Start(ctx context.Context, deviceID string) error {
	b.log.Debug("starting decoder", "device", deviceID, "fps", b.cfg.FPS)
	return b.decoder.Start(ctx, deviceID, b.cfg, b.onSuccess, b.onFailure)
}

// Stop - stops the running decoder
func (b *Bridge) Stop(ctx context.Context) error {
	return b.decoder.Stop(ctx)
}

// Close - closes the events stream, decoding results arriving later are dropped
func (b *Bridge) Close() {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
}

func (b *Bridge) onSuccess(res scanning.DecodeResult) {
	if res.Text == "" || !b.cfg.Allows(res.Format) {
		return
	}
	if !b.limiter.Allow() {
		return
	}
	if res.At.IsZero() {
		res.At = b.now()
	}

	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.closed {
		return
	}
	select {
	case b.events <- res:
	default:
		// consumer is behind, the cooldown would drop this one anyway
	}
}

// frames without a code are expected noise
func (b *Bridge) onFailure(error) {}

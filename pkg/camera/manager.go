package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/igorvan/omniscan/pkg/logging"
	"github.com/igorvan/omniscan/pkg/session"
)

// LastDeviceKey - storage key remembering the last used device
const LastDeviceKey = "lastCameraId"

// Capture - device side of a capture session
type Capture interface {
	Cameras(ctx context.Context) ([]Device, error)
	Start(ctx context.Context, deviceID string) error
	Stop(ctx context.Context) error
}

// Preferences - persistent string storage for the last used device
type Preferences interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// View - the parts of the UI the manager drives
type View interface {
	SetStatus(report StatusReport)
	SetDevices(devices []Device, selectedID string)
	Alert(message string)
}

// Manager - enumerates capture devices and owns the single active capture
type Manager struct {
	capture Capture
	prefs   Preferences
	view    View
	state   *session.State
	log     *slog.Logger

	// serializes selections so capture sessions never overlap
	selectMtx sync.Mutex

	mtx     sync.RWMutex
	devices []Device
	status  StatusReport
}

// New - Manager constructor
func New(capture Capture, prefs Preferences, view View, state *session.State, log *slog.Logger) (*Manager, error) {
	if capture == nil {
		return nil, fmt.Errorf("cannot instantiate a camera Manager, no capture provided")
	}
	if prefs == nil {
		return nil, fmt.Errorf("cannot instantiate a camera Manager, no preferences storage provided")
	}
	if state == nil {
		state = session.New()
	}
	return &Manager{
		capture: capture,
		prefs:   prefs,
		view:    view,
		state:   state,
		log:     logging.OrDiscard(log),
		status:  StatusReport{State: StatusIdle},
	}, nil
}

// Init - enumerates devices and starts capturing on the last used one,
// or on the first device when the last one is gone. Safe to call again to
// recover from a failed enumeration, a running capture is replaced.
func (m *Manager) Init(ctx context.Context) error {
	m.setStatus(StatusInitializing, "Requesting permissions...")

	devices, err := m.capture.Cameras(ctx)
	if err != nil {
		m.log.Error(fmt.Sprintf("Camera initialization failed: %s", err))
		m.dropDevices(ctx)
		m.setStatus(StatusError, "Permissions denied or error")
		m.publishDevices(nil, "")
		enumErr := &DeviceEnumerationError{Err: err}
		if enumErr.PermissionDenied() && m.view != nil {
			m.view.Alert(PermissionMessage)
		}
		return enumErr
	}
	if len(devices) == 0 {
		m.dropDevices(ctx)
		m.setStatus(StatusError, "No cameras found")
		m.publishDevices(nil, "")
		return ErrNoDevices
	}

	devices = labelDevices(devices)
	lastID, _, err := m.prefs.Get(ctx, LastDeviceKey)
	if err != nil {
		m.log.Warn(fmt.Sprintf("cannot read last used camera: %s", err))
	}

	m.setDevices(devices)
	return m.Select(ctx, lastID)
}

// Select - switches capture to the device, stopping the running capture first.
// Unknown identifiers fall back to the first enumerated device.
func (m *Manager) Select(ctx context.Context, deviceID string) error {
	m.selectMtx.Lock()
	defer m.selectMtx.Unlock()

	devices := m.Devices()
	if len(devices) == 0 {
		return ErrNoDevices
	}
	deviceID = resolve(devices, deviceID)
	m.publishDevices(devices, deviceID)

	m.stopActive(ctx)

	m.setStatus(StatusInitializing, "Starting camera...")
	if err := m.capture.Start(ctx, deviceID); err != nil {
		m.log.Error(fmt.Sprintf("Failed to start scanner: %s", err), "device", deviceID)
		m.setStatus(StatusError, "Camera failed to start")
		return &CaptureStartError{DeviceID: deviceID, Err: err}
	}
	m.state.SetCapturing(true, deviceID)
	m.setStatus(StatusActive, "Scanner Live")

	if err := m.prefs.Set(ctx, LastDeviceKey, deviceID); err != nil {
		m.log.Warn(fmt.Sprintf("cannot remember camera %s: %s", deviceID, err))
	}
	return nil
}

// Stop - ends the active capture, if any
func (m *Manager) Stop(ctx context.Context) error {
	m.selectMtx.Lock()
	defer m.selectMtx.Unlock()

	active, _ := m.state.Capturing()
	if !active {
		return nil
	}
	m.state.SetCapturing(false, "")
	m.setStatus(StatusIdle, "Scanner stopped")
	return m.capture.Stop(ctx)
}

// Devices - devices found by the last successful enumeration
func (m *Manager) Devices() []Device {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	res := make([]Device, len(m.devices))
	copy(res, m.devices)
	return res
}

// Selected - device the capture is running on, empty when idle
func (m *Manager) Selected() string {
	active, id := m.state.Capturing()
	if !active {
		return ""
	}
	return id
}

// Status - current status indicator state
func (m *Manager) Status() StatusReport {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.status
}

// dropDevices - forgets the device list and ends a capture left from an earlier enumeration
func (m *Manager) dropDevices(ctx context.Context) {
	m.selectMtx.Lock()
	defer m.selectMtx.Unlock()
	m.setDevices(nil)
	m.stopActive(ctx)
}

// stopActive - callers hold selectMtx
func (m *Manager) stopActive(ctx context.Context) {
	active, current := m.state.Capturing()
	if !active {
		return
	}
	if err := m.capture.Stop(ctx); err != nil {
		m.log.Warn(fmt.Sprintf("cannot stop capture on %s: %s", current, err))
	}
	m.state.SetCapturing(false, "")
}

func (m *Manager) setDevices(devices []Device) {
	m.mtx.Lock()
	m.devices = devices
	m.mtx.Unlock()
}

func (m *Manager) setStatus(state Status, message string) {
	report := StatusReport{State: state, Message: message}
	m.mtx.Lock()
	m.status = report
	m.mtx.Unlock()
	if m.view != nil {
		m.view.SetStatus(report)
	}
}

func (m *Manager) publishDevices(devices []Device, selectedID string) {
	if m.view != nil {
		m.view.SetDevices(devices, selectedID)
	}
}

func resolve(devices []Device, id string) string {
	for _, d := range devices {
		if d.ID == id {
			return id
		}
	}
	return devices[0].ID
}

func labelDevices(devices []Device) []Device {
	res := make([]Device, len(devices))
	for i, d := range devices {
		if d.Label == "" {
			d.Label = fmt.Sprintf("Camera %d", i+1)
		}
		res[i] = d
	}
	return res
}

// IsPermissionDenied - reports whether err comes from refused device access
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

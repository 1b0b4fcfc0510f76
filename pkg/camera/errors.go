package camera

import (
	"errors"
	"fmt"
)

// PermissionMessage - instruction shown when camera access was refused
const PermissionMessage = "Camera access was denied. Please allow camera permissions in your browser settings and refresh."

var (
	// ErrNoDevices - enumeration succeeded but found no capture device
	ErrNoDevices = errors.New("no capture devices found")
	// ErrPermissionDenied - the user or the platform refused device access
	ErrPermissionDenied = errors.New("capture device permission denied")
)

// DeviceEnumerationError - listing capture devices failed
type DeviceEnumerationError struct {
	Err error
}

func (e *DeviceEnumerationError) Error() string {
	return fmt.Sprintf("cannot enumerate capture devices: %s", e.Err)
}

func (e *DeviceEnumerationError) Unwrap() error {
	return e.Err
}

// PermissionDenied - reports whether the enumeration failed on access rights
func (e *DeviceEnumerationError) PermissionDenied() bool {
	return errors.Is(e.Err, ErrPermissionDenied)
}

// CaptureStartError - a capture session could not be started on the device
type CaptureStartError struct {
	DeviceID string
	Err      error
}

func (e *CaptureStartError) Error() string {
	return fmt.Sprintf("cannot start capture on device %s: %s", e.DeviceID, e.Err)
}

func (e *CaptureStartError) Unwrap() error {
	return e.Err
}

// Package ui renders the scanner state: status indicator, camera selector,
// scanned list, toast and feedback effects.
package ui

import (
	"time"

	"github.com/igorvan/omniscan/pkg/camera"
	"github.com/igorvan/omniscan/pkg/scanning"
)

const (
	// BeepFrequency - success tone pitch in Hz
	BeepFrequency = 880
	// BeepDuration - success tone length
	BeepDuration = 100 * time.Millisecond
)

// View - everything the scanner workflow shows to the user
type View interface {
	SetStatus(report camera.StatusReport)
	SetDevices(devices []camera.Device, selectedID string)
	RenderEntries(entries []scanning.Entry)
	Alert(message string)

	Beep() error
	Vibrate(d time.Duration) bool
	Highlight(on bool)
	ShowToast(value string)
	HideToast()
}

// Multi - fans every call out to several views
type Multi []View

func (m Multi) SetStatus(report camera.StatusReport) {
	for _, v := range m {
		v.SetStatus(report)
	}
}

func (m Multi) SetDevices(devices []camera.Device, selectedID string) {
	for _, v := range m {
		v.SetDevices(devices, selectedID)
	}
}

func (m Multi) RenderEntries(entries []scanning.Entry) {
	for _, v := range m {
		v.RenderEntries(entries)
	}
}

func (m Multi) Alert(message string) {
	for _, v := range m {
		v.Alert(message)
	}
}

// Beep - returns the first failure, every view still gets the call
func (m Multi) Beep() error {
	var first error
	for _, v := range m {
		if err := v.Beep(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Vibrate - true when at least one view could vibrate
func (m Multi) Vibrate(d time.Duration) bool {
	ok := false
	for _, v := range m {
		if v.Vibrate(d) {
			ok = true
		}
	}
	return ok
}

func (m Multi) Highlight(on bool) {
	for _, v := range m {
		v.Highlight(on)
	}
}

func (m Multi) ShowToast(value string) {
	for _, v := range m {
		v.ShowToast(value)
	}
}

func (m Multi) HideToast() {
	for _, v := range m {
		v.HideToast()
	}
}

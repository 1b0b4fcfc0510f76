// Package session keeps the mutable state of one scanning session:
// the last accepted scan, the active capture and the pending toast timer.
package session

import (
	"sync"
	"time"
)

// Cooldown - quiet interval after an accepted scan
const Cooldown = 1500 * time.Millisecond

// State - session state shared by the camera manager and the dispatcher
type State struct {
	mtx          sync.Mutex
	lastAccepted time.Time
	capturing    bool
	deviceID     string
	toastTimer   *time.Timer
}

// New - State constructor
func New() *State {
	return &State{}
}

// Accept - applies the global cooldown to a scan arriving at the given time.
// Returns true and records the time when at least Cooldown passed since the
// previously accepted scan, the decoded value plays no role.
func (s *State) Accept(at time.Time) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if !s.lastAccepted.IsZero() && at.Sub(s.lastAccepted) < Cooldown {
		return false
	}
	s.lastAccepted = at
	return true
}

// LastAccepted - arrival time of the last accepted scan
func (s *State) LastAccepted() time.Time {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.lastAccepted
}

// SetCapturing - marks a capture as running on the device, or none when active is false
func (s *State) SetCapturing(active bool, deviceID string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.capturing = active
	if active {
		s.deviceID = deviceID
	}
}

// Capturing - whether a capture is running and on which device
func (s *State) Capturing() (bool, string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.capturing, s.deviceID
}

// ScheduleToastHide - runs hide after d, cancelling a previously scheduled hide
func (s *State) ScheduleToastHide(d time.Duration, hide func()) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.toastTimer != nil {
		s.toastTimer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mtx.Lock()
		current := s.toastTimer == t
		if current {
			s.toastTimer = nil
		}
		s.mtx.Unlock()
		if current {
			hide()
		}
	})
	s.toastTimer = t
}

// CancelToastHide - drops a pending toast hide, used on shutdown
func (s *State) CancelToastHide() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.toastTimer != nil {
		s.toastTimer.Stop()
		s.toastTimer = nil
	}
}

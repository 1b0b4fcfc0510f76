package camera

// Status - semantic state of the scanner status indicator
type Status string

const (
	StatusIdle         Status = "idle"
	StatusInitializing Status = "initializing"
	StatusActive       Status = "active"
	StatusError        Status = "error"
)

// StatusReport - current indicator state with its human readable message
type StatusReport struct {
	State   Status `json:"state"`
	Message string `json:"message"`
}

// Device - enumerated capture device
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

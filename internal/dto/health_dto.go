package dto

type HealthResponse struct {
	Status string `json:"status" validate:"required"`
}

// StatusResponse is what the status command reports.
type StatusResponse struct {
	SignedIn   bool   `json:"signed_in" yaml:"signed_in"`
	SessionID  string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	EntryRoute string `json:"entry_route" yaml:"entry_route"`
	Backend    string `json:"backend" yaml:"backend"`
	BackendErr string `json:"backend_error,omitempty" yaml:"backend_error,omitempty"`
}

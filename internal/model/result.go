package model

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// TrialResult is the outcome of one validation attempt.
type TrialResult struct {
	Endpoint string `json:"config"`
	Port     int    `json:"port"`
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`

	// --- Success only ---
	ObservedAddress string `json:"ip,omitempty"`
	AlreadyRecorded bool   `json:"already_exists,omitempty"`
	Country         string `json:"country,omitempty"`
}

func (r TrialResult) OK() bool { return r.Status == StatusSuccess }

func Failed(raw string, port int, msg string) TrialResult {
	return TrialResult{Endpoint: raw, Port: port, Status: StatusFailed, Message: msg}
}

func Errored(raw string, port int, msg string) TrialResult {
	return TrialResult{Endpoint: raw, Port: port, Status: StatusError, Message: msg}
}

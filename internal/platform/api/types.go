// Package api holds the request and response shapes of the dashboard's
// HTTP surface.
package api

// Error is the structured miss returned on every non-2xx response.
type Error struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func NewError(msg string) Error { return Error{Success: false, Error: msg} }

// JobCreateRequest is the submit-job payload.
type JobCreateRequest struct {
	Platform    string `json:"platform" form:"platform" validate:"required"`
	Keywords    string `json:"keywords" form:"keywords" validate:"required"`
	MaxNotes    int    `json:"max_notes" form:"max_notes" validate:"omitempty,gt=0"`
	GetComments bool   `json:"get_comments" form:"get_comments"`
	CrawlerType string `json:"crawler_type" form:"crawler_type"`
}

type JobCreateResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// QRInfo is advisory metadata attached to a job-status response: it says
// a QR image is currently available in the scratch directory, not that it
// belongs to this job.
type QRInfo struct {
	QRCodeAvailable bool   `json:"qr_code_available"`
	QRCodeFile      string `json:"qr_code_file,omitempty"`
}

// PlatformInfo is one entry of the platform picker.
type PlatformInfo struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

type LoginStartResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

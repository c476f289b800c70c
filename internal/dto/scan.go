package dto

import (
	"time"

	"scanlink/backend/internal/model"
)

// CreateScanRequest starts a scan for a subject (demo and issuer flows).
type CreateScanRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email,omitempty"`
	Flow     string `json:"flow,omitempty"`
	IssuerID string `json:"issuer_id,omitempty"`
}

// CreateScanResponse returns the created scan and its tokened URL.
type CreateScanResponse struct {
	ScanID    string `json:"scan_id"`
	ScanURL   string `json:"scan_url"`
	ShortCode string `json:"short_code,omitempty"`
}

// RegisterIntakeRequest is the self-registration intake (QR path). The
// scan starts in pending until the subject confirms.
type RegisterIntakeRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Flow  string `json:"flow,omitempty"`
}

// ScanView is the subject-facing, unredacted projection of a scan.
type ScanView struct {
	ScanID      string            `json:"scan_id"`
	Status      string            `json:"status"`
	Flow        model.FlowType    `json:"flow"`
	PatientName string            `json:"patient_name"`
	Phone       string            `json:"phone"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Result      *model.ScanResult `json:"result,omitempty"`
}

// ResultView is the role-filtered projection of a scan result. Exactly
// the sections the caller's flow permits are set; full access sets all.
type ResultView struct {
	Flow      model.FlowType         `json:"flow"`
	Whitening *model.WhiteningResult `json:"whitening,omitempty"`
	School    *model.SchoolResult    `json:"school,omitempty"`
	Charity   *model.CharityResult   `json:"charity,omitempty"`
	Pathology *model.PathologyResult `json:"pathology,omitempty"`
	Summary   string                 `json:"summary,omitempty"`
}

// DeliverResultRequest carries a computed analysis document for a scan.
type DeliverResultRequest struct {
	Result  model.ScanResult `json:"result" binding:"required"`
	Version int              `json:"version" binding:"required"`
}

// SubmissionImage is one uploaded view of the mouth.
type SubmissionImage struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// RedirectTarget is where a short-code lookup sends the browser.
type RedirectTarget struct {
	URL string `json:"url"`
}

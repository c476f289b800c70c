package model

import "time"

// Scan statuses. Transitions only move forward:
// link_sent → submitted → completed. pending is the parallel initial
// state of the self-registration intake before a subject confirms.
const (
	StatusPending   = "pending"
	StatusLinkSent  = "link_sent"
	StatusSubmitted = "submitted"
	StatusCompleted = "completed"
)

// Scan is one assessment instance for one subject.
//
// Table and short-code column names are fixed for wire compatibility with
// the pre-existing store.
type Scan struct {
	ScanID      string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"scan_id"`
	SubjectID   string      `gorm:"type:uuid;not null"                             json:"subject_id"`
	IssuerID    *string     `gorm:"type:uuid"                                      json:"issuer_id,omitempty"`
	ShortCode   *string     `gorm:"column:shortCode;type:varchar(8)"               json:"short_code,omitempty"`
	Status      string      `gorm:"type:varchar(20);not null;default:'link_sent'"  json:"status"`
	FlowType    FlowType    `gorm:"type:varchar(20);not null;default:'clinic'"     json:"flow_type"`
	Result      *ScanResult `gorm:"type:jsonb"                                     json:"result,omitempty"`
	Version     int         `gorm:"not null;default:1"                             json:"version"`
	CreatedAt   time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`

	Subject *Subject `gorm:"foreignKey:SubjectID;references:SubjectID" json:"subject,omitempty"`
	Issuer  *Issuer  `gorm:"foreignKey:IssuerID;references:IssuerID"   json:"issuer,omitempty"`
}

// TableName preserves the historical table name.
func (Scan) TableName() string { return "multiuse_scans_demo" }

// NextStatus returns the only legal successor of a status, or "" when the
// status is terminal.
func NextStatus(status string) string {
	switch status {
	case StatusPending:
		return StatusLinkSent
	case StatusLinkSent:
		return StatusSubmitted
	case StatusSubmitted:
		return StatusCompleted
	}
	return ""
}

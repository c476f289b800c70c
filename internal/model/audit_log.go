package model

import "time"

// Audit actions.
const (
	AuditConsentRevoked = "consent_revoked"
)

// AuditLog is an append-only audit trail entry. Detail text must not
// contain contact data; ids only.
type AuditLog struct {
	AuditID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_id"`
	Action    string    `gorm:"type:varchar(50);not null"                      json:"action"`
	SubjectID *string   `gorm:"type:uuid"                                      json:"subject_id,omitempty"`
	Actor     string    `gorm:"type:varchar(100);not null"                     json:"actor"`
	Detail    string    `gorm:"type:text"                                      json:"detail"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName names the table.
func (AuditLog) TableName() string { return "audit_logs" }

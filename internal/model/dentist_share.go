package model

// DentistShare grants an issuer ongoing access to a subject's scans.
// Deactivated, never deleted, by the consent-revocation cascade.
type DentistShare struct {
	ShareID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"share_id"`
	SubjectID string `gorm:"type:uuid;not null"                             json:"subject_id"`
	IssuerID  string `gorm:"type:uuid;not null"                             json:"issuer_id"`
	Active    bool   `gorm:"not null;default:true"                          json:"active"`
	BaseModel
}

// TableName names the table.
func (DentistShare) TableName() string { return "dentist_shares" }

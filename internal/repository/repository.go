package repository

import "gorm.io/gorm"

// Repository is the aggregate of all data-access interfaces.
type Repository struct {
	Subject   SubjectRepository
	Scan      ScanRepository
	ShortLink ShortLinkRepository
	Issuer    IssuerRepository
	Teacher   TeacherRepository
	Lead      LeadRepository
	Audit     AuditRepository
	Consent   ConsentRepository
}

// NewRepository wires the GORM implementations.
func NewRepository(db *gorm.DB) *Repository {
	audit := NewAuditRepo(db)
	return &Repository{
		Subject:   NewSubjectRepo(db),
		Scan:      NewScanRepo(db),
		ShortLink: NewShortLinkRepo(db),
		Issuer:    NewIssuerRepo(db),
		Teacher:   NewTeacherRepo(db),
		Lead:      NewLeadRepo(db),
		Audit:     audit,
		Consent:   NewConsentRepo(db, audit),
	}
}

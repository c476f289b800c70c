package repository

import (
	"context"

	"gorm.io/gorm"

	"scanlink/backend/internal/model"
)

// AuditRepository is the append-only audit-trail interface.
type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditLog) error
	ListBySubject(ctx context.Context, subjectID string) ([]model.AuditLog, error)
	// WithTx rebinds the repository to a running transaction so audit
	// entries commit or roll back with the write they describe.
	WithTx(tx *gorm.DB) AuditRepository
}

type auditRepo struct {
	db *gorm.DB
}

// NewAuditRepo creates the GORM AuditRepository.
func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) WithTx(tx *gorm.DB) AuditRepository {
	return &auditRepo{db: tx}
}

func (r *auditRepo) Append(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepo) ListBySubject(ctx context.Context, subjectID string) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

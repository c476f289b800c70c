package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"scanlink/backend/internal/model"
)

// ConsentRepository executes the consent-revocation cascade.
type ConsentRepository interface {
	// RevokeCascade deletes all of a subject's scans and short-link
	// aliases, deactivates dentist shares, clears the consent flag and
	// appends the audit entry, all in one transaction. Either everything
	// commits or nothing does. Returns the codes of the deleted aliases
	// so the caller can drop cache entries.
	RevokeCascade(ctx context.Context, subjectID, actor string) ([]string, error)
}

type consentRepo struct {
	db    *gorm.DB
	audit AuditRepository
}

// NewConsentRepo creates the GORM ConsentRepository.
func NewConsentRepo(db *gorm.DB, audit AuditRepository) ConsentRepository {
	return &consentRepo{db: db, audit: audit}
}

func (r *consentRepo) RevokeCascade(ctx context.Context, subjectID, actor string) ([]string, error) {
	var codes []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Collect alias codes before the rows go away.
		if err := tx.Model(&model.ShortLinkAlias{}).
			Where("scan_id IN (SELECT scan_id FROM multiuse_scans_demo WHERE subject_id = ?)", subjectID).
			Pluck("code", &codes).Error; err != nil {
			return err
		}

		if err := tx.
			Where("scan_id IN (SELECT scan_id FROM multiuse_scans_demo WHERE subject_id = ?)", subjectID).
			Delete(&model.ShortLinkAlias{}).Error; err != nil {
			return err
		}

		if err := tx.
			Where("subject_id = ?", subjectID).
			Delete(&model.Scan{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.DentistShare{}).
			Where("subject_id = ?", subjectID).
			Update("active", false).Error; err != nil {
			return err
		}

		res := tx.Model(&model.Subject{}).
			Where("subject_id = ?", subjectID).
			Update("data_consent", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return r.audit.WithTx(tx).Append(ctx, &model.AuditLog{
			Action:    model.AuditConsentRevoked,
			SubjectID: &subjectID,
			Actor:     actor,
			Detail:    fmt.Sprintf("revoked consent, removed %d short links", len(codes)),
		})
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"scanlink/backend/internal/model"
	apperrors "scanlink/backend/pkg/errors"
)

// ParticipationRow is one student's aggregate scan participation.
type ParticipationRow struct {
	SubjectID      string
	Name           string
	Phone          string
	ScanCount      int64
	CompletedCount int64
	LastStatus     string
}

// ScanRepository is the scan data-access interface.
type ScanRepository interface {
	Create(ctx context.Context, scan *model.Scan) error
	GetByID(ctx context.Context, id string) (*model.Scan, error)
	ListBySubject(ctx context.Context, subjectID string) ([]model.Scan, error)
	// GetIDByShortCode resolves a short code on the scan row itself via
	// the historical raw query.
	GetIDByShortCode(ctx context.Context, code string) (string, error)
	ShortCodeExists(ctx context.Context, code string) (bool, error)
	// TransitionStatus applies a forward status move guarded by the
	// version the caller observed. Returns pkg/errors.ErrConflict when
	// the row moved underneath the caller.
	TransitionStatus(ctx context.Context, scanID, fromStatus, toStatus string, version int) error
	// CompleteWithResult stores the result document and moves
	// submitted → completed with completed_at, under the same guard.
	CompleteWithResult(ctx context.Context, scanID string, version int, result *model.ScanResult) error
	ParticipationByClass(ctx context.Context, classID string) ([]ParticipationRow, error)
}

type scanRepo struct {
	db *gorm.DB
}

// NewScanRepo creates the GORM ScanRepository.
func NewScanRepo(db *gorm.DB) ScanRepository {
	return &scanRepo{db: db}
}

func (r *scanRepo) Create(ctx context.Context, scan *model.Scan) error {
	return r.db.WithContext(ctx).Create(scan).Error
}

func (r *scanRepo) GetByID(ctx context.Context, id string) (*model.Scan, error) {
	var scan model.Scan
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("scan_id = ?", id).
		First(&scan).Error
	if err != nil {
		return nil, err
	}
	return &scan, nil
}

func (r *scanRepo) ListBySubject(ctx context.Context, subjectID string) ([]model.Scan, error) {
	var scans []model.Scan
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Find(&scans).Error
	return scans, err
}

func (r *scanRepo) GetIDByShortCode(ctx context.Context, code string) (string, error) {
	var scanID string
	err := r.db.WithContext(ctx).
		Raw(`SELECT scan_id FROM multiuse_scans_demo WHERE "shortCode" = ?`, code).
		Scan(&scanID).Error
	if err != nil {
		return "", err
	}
	if scanID == "" {
		return "", gorm.ErrRecordNotFound
	}
	return scanID, nil
}

func (r *scanRepo) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM multiuse_scans_demo WHERE "shortCode" = ?`, code).
		Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *scanRepo) TransitionStatus(ctx context.Context, scanID, fromStatus, toStatus string, version int) error {
	res := r.db.WithContext(ctx).
		Model(&model.Scan{}).
		Where("scan_id = ? AND status = ? AND version = ?", scanID, fromStatus, version).
		Updates(map[string]interface{}{
			"status":  toStatus,
			"version": version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the row is gone or someone else moved it first.
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Scan{}).
			Where("scan_id = ?", scanID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return apperrors.ErrConflict
	}
	return nil
}

func (r *scanRepo) CompleteWithResult(ctx context.Context, scanID string, version int, result *model.ScanResult) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Scan{}).
		Where("scan_id = ? AND status = ? AND version = ?", scanID, model.StatusSubmitted, version).
		Updates(map[string]interface{}{
			"status":       model.StatusCompleted,
			"result":       result,
			"completed_at": &now,
			"version":      version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Scan{}).
			Where("scan_id = ?", scanID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return apperrors.ErrConflict
	}
	return nil
}

func (r *scanRepo) ParticipationByClass(ctx context.Context, classID string) ([]ParticipationRow, error) {
	var rows []ParticipationRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT s.subject_id,
		            s.name,
		            s.phone,
		            COUNT(sc.scan_id) AS scan_count,
		            COUNT(sc.scan_id) FILTER (WHERE sc.status = 'completed') AS completed_count,
		            COALESCE((SELECT x.status FROM multiuse_scans_demo x
		                      WHERE x.subject_id = s.subject_id
		                      ORDER BY x.created_at DESC LIMIT 1), '') AS last_status
		     FROM subjects s
		     LEFT JOIN multiuse_scans_demo sc ON sc.subject_id = s.subject_id
		     WHERE s.class_id = ?
		     GROUP BY s.subject_id, s.name, s.phone
		     ORDER BY s.name`, classID).
		Scan(&rows).Error
	return rows, err
}

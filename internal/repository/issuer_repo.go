package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"scanlink/backend/internal/model"
)

// IssuerRepository is the issuer data-access interface.
type IssuerRepository interface {
	Create(ctx context.Context, issuer *model.Issuer) error
	GetByID(ctx context.Context, id string) (*model.Issuer, error)
	// FirstAvailableOrDefault implements the issuer resolution policy
	// when a scan is created without one: the flagged default issuer if
	// present, else the oldest issuer row.
	FirstAvailableOrDefault(ctx context.Context) (*model.Issuer, error)
}

type issuerRepo struct {
	db *gorm.DB
}

// NewIssuerRepo creates the GORM IssuerRepository.
func NewIssuerRepo(db *gorm.DB) IssuerRepository {
	return &issuerRepo{db: db}
}

func (r *issuerRepo) Create(ctx context.Context, issuer *model.Issuer) error {
	return r.db.WithContext(ctx).Create(issuer).Error
}

func (r *issuerRepo) GetByID(ctx context.Context, id string) (*model.Issuer, error) {
	var issuer model.Issuer
	err := r.db.WithContext(ctx).
		Where("issuer_id = ?", id).
		First(&issuer).Error
	if err != nil {
		return nil, err
	}
	return &issuer, nil
}

func (r *issuerRepo) FirstAvailableOrDefault(ctx context.Context) (*model.Issuer, error) {
	var issuer model.Issuer
	err := r.db.WithContext(ctx).
		Where("is_default = true").
		First(&issuer).Error
	if err == nil {
		return &issuer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Order("created_at ASC").
		First(&issuer).Error
	if err != nil {
		return nil, err
	}
	return &issuer, nil
}

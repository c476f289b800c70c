package repository

import (
	"context"

	"gorm.io/gorm"

	"scanlink/backend/internal/model"
)

// ShortLinkRepository is the alias data-access interface.
type ShortLinkRepository interface {
	Create(ctx context.Context, alias *model.ShortLinkAlias) error
	GetByCode(ctx context.Context, code string) (*model.ShortLinkAlias, error)
	Exists(ctx context.Context, code string) (bool, error)
}

type shortLinkRepo struct {
	db *gorm.DB
}

// NewShortLinkRepo creates the GORM ShortLinkRepository.
func NewShortLinkRepo(db *gorm.DB) ShortLinkRepository {
	return &shortLinkRepo{db: db}
}

func (r *shortLinkRepo) Create(ctx context.Context, alias *model.ShortLinkAlias) error {
	return r.db.WithContext(ctx).Create(alias).Error
}

func (r *shortLinkRepo) GetByCode(ctx context.Context, code string) (*model.ShortLinkAlias, error) {
	var alias model.ShortLinkAlias
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&alias).Error
	if err != nil {
		return nil, err
	}
	return &alias, nil
}

func (r *shortLinkRepo) Exists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ShortLinkAlias{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"scanlink/backend/internal/model"
)

// LeadRepository is the lead data-access interface. Leads are append-only.
type LeadRepository interface {
	Create(ctx context.Context, lead *model.Lead) error
	CountBySource(ctx context.Context) (map[string]int64, error)
}

type leadRepo struct {
	db *gorm.DB
}

// NewLeadRepo creates the GORM LeadRepository.
func NewLeadRepo(db *gorm.DB) LeadRepository {
	return &leadRepo{db: db}
}

func (r *leadRepo) Create(ctx context.Context, lead *model.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *leadRepo) CountBySource(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Source string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Lead{}).
		Select("source, COUNT(*) AS count").
		Group("source").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rr := range rows {
		counts[rr.Source] = rr.Count
	}
	return counts, nil
}

package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"scanlink/backend/internal/dto"
	"scanlink/backend/internal/integration"
	"scanlink/backend/internal/model"
	"scanlink/backend/internal/repository"
)

var ErrLeadNoContact = errors.New("lead needs a phone or an email")

// LeadService captures marketing contacts.
type LeadService interface {
	Capture(ctx context.Context, req *dto.CaptureLeadRequest) (*model.Lead, error)
}

type leadService struct {
	repo      *repository.Repository
	marketing integration.MarketingClient // nil when not configured
	logger    *zap.Logger
}

// NewLeadService creates the LeadService.
func NewLeadService(repo *repository.Repository, marketing integration.MarketingClient, logger *zap.Logger) LeadService {
	return &leadService{repo: repo, marketing: marketing, logger: logger}
}

func (s *leadService) Capture(ctx context.Context, req *dto.CaptureLeadRequest) (*model.Lead, error) {
	if req.Phone == "" && req.Email == "" {
		return nil, ErrLeadNoContact
	}

	lead := &model.Lead{
		Source: req.Source,
		UTM:    req.UTM,
	}
	if req.Phone != "" {
		phone := req.Phone
		lead.Phone = &phone
	}
	if req.Email != "" {
		email := req.Email
		lead.Email = &email
	}
	if req.Page != "" {
		page := req.Page
		lead.Page = &page
	}

	if err := s.repo.Lead.Create(ctx, lead); err != nil {
		s.logger.Error("creating lead", zap.Error(err))
		return nil, err
	}

	// Marketing subscription is best-effort: a provider failure never
	// fails the capture.
	if s.marketing != nil && req.Email != "" {
		if err := s.marketing.Subscribe(ctx, req.Email, []string{req.Source}); err != nil {
			s.logger.Warn("marketing subscribe failed",
				zap.String("source", req.Source),
				zap.Error(err),
			)
		}
	}

	return lead, nil
}

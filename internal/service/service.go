package service

import (
	"go.uber.org/zap"

	"scanlink/backend/config"
	"scanlink/backend/internal/integration"
	"scanlink/backend/internal/repository"
	"scanlink/backend/pkg/jwt"
	"scanlink/backend/pkg/password"
	"scanlink/backend/pkg/redis"
)

// Service is the aggregate of all business services.
type Service struct {
	Auth     AuthService
	Scan     ScanService
	Lead     LeadService
	Export   ExportService
	Donation DonationService
}

// Collaborators bundles the external integrations handed to the
// services. Nil members disable the corresponding touch-point.
type Collaborators struct {
	Storage   integration.ObjectStorage
	SMS       integration.SMSSender
	Checkout  integration.CheckoutProvider
	Marketing integration.MarketingClient
}

// NewService wires the service aggregate.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	hasher *password.Hasher,
	cache *redis.Client,
	collab Collaborators,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(cfg, repo, jwtMgr, hasher, logger),
		Scan:     NewScanService(cfg, repo, jwtMgr, cache, collab.Storage, collab.SMS, logger),
		Lead:     NewLeadService(repo, collab.Marketing, logger),
		Export:   NewExportService(repo, logger),
		Donation: NewDonationService(cfg, collab.Checkout, logger),
	}
}

package handler

import (
	"scanlink/backend/config"
	"scanlink/backend/internal/service"
)

// Handler is the aggregate of all HTTP handlers.
type Handler struct {
	Auth   *AuthHandler
	Scan   *ScanHandler
	Lead   *LeadHandler
	Export *ExportHandler
}

// NewHandler wires the handler aggregate.
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(svc.Auth),
		Scan:   NewScanHandler(cfg, svc.Scan),
		Lead:   NewLeadHandler(svc.Lead, svc.Donation),
		Export: NewExportHandler(svc.Export),
	}
}

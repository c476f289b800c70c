package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"scanlink/backend/config"
	"scanlink/backend/internal/dto"
	"scanlink/backend/internal/integration"
)

// Donation bounds in cents: $1 to $999,999.
const (
	minDonationCents = 100
	maxDonationCents = 99999900
)

var ErrDonationAmount = errors.New("donation amount must be between $1 and $999,999")

// DonationService creates hosted checkout sessions for charity donations.
type DonationService interface {
	CreateCheckout(ctx context.Context, req *dto.CreateCheckoutRequest) (*dto.CreateCheckoutResponse, error)
}

type donationService struct {
	cfg      *config.Config
	checkout integration.CheckoutProvider
	logger   *zap.Logger
}

// NewDonationService creates the DonationService.
func NewDonationService(cfg *config.Config, checkout integration.CheckoutProvider, logger *zap.Logger) DonationService {
	return &donationService{cfg: cfg, checkout: checkout, logger: logger}
}

func (s *donationService) CreateCheckout(ctx context.Context, req *dto.CreateCheckoutRequest) (*dto.CreateCheckoutResponse, error) {
	if req.AmountCents < minDonationCents || req.AmountCents > maxDonationCents {
		return nil, ErrDonationAmount
	}

	// Success/cancel URLs are fixed and app-relative.
	successURL := s.cfg.Server.BaseURL + s.cfg.Checkout.SuccessPath
	cancelURL := s.cfg.Server.BaseURL + s.cfg.Checkout.CancelPath

	url, err := s.checkout.CreateSession(ctx, req.AmountCents, successURL, cancelURL)
	if err != nil {
		s.logger.Error("creating checkout session", zap.Error(err))
		return nil, err
	}

	return &dto.CreateCheckoutResponse{CheckoutURL: url}, nil
}

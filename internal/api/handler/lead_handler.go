package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"scanlink/backend/internal/dto"
	"scanlink/backend/internal/service"
	"scanlink/backend/pkg/response"
)

// LeadHandler serves marketing lead capture and donation checkout.
type LeadHandler struct {
	leadSvc     service.LeadService
	donationSvc service.DonationService
}

// NewLeadHandler creates the LeadHandler.
func NewLeadHandler(leadSvc service.LeadService, donationSvc service.DonationService) *LeadHandler {
	return &LeadHandler{leadSvc: leadSvc, donationSvc: donationSvc}
}

// Capture records a marketing contact.
// POST /leads
func (h *LeadHandler) Capture(c *gin.Context) {
	var req dto.CaptureLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "source is required")
		return
	}

	lead, err := h.leadSvc.Capture(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrLeadNoContact) {
			response.BadRequest(c, 23001, "a phone number or an email is required")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, gin.H{"lead_id": lead.LeadID})
}

// CreateCheckout starts a hosted donation checkout session.
// POST /donations/checkout
func (h *LeadHandler) CreateCheckout(c *gin.Context) {
	var req dto.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "amount_cents is required")
		return
	}

	result, err := h.donationSvc.CreateCheckout(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDonationAmount) {
			response.BadRequest(c, 23002, "donation amount must be between $1 and $999,999")
			return
		}
		response.Error(c, http.StatusBadGateway, 50001, "checkout provider unavailable")
		return
	}

	response.OK(c, result)
}

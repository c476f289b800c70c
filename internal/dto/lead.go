package dto

// CaptureLeadRequest records a marketing contact. At least one of
// phone/email must be present (checked in the service).
type CaptureLeadRequest struct {
	Source string            `json:"source" binding:"required"`
	Phone  string            `json:"phone,omitempty"`
	Email  string            `json:"email,omitempty"`
	Page   string            `json:"page,omitempty"`
	UTM    map[string]string `json:"utm,omitempty"`
}

// CreateCheckoutRequest starts a hosted donation checkout.
type CreateCheckoutRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

// CreateCheckoutResponse returns the hosted checkout redirect.
type CreateCheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

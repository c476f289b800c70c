package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"scanlink/backend/config"
)

// checkoutClient talks to the hosted-checkout provider.
type checkoutClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewCheckoutClient creates the CheckoutProvider REST client.
func NewCheckoutClient(cfg *config.CheckoutConfig) CheckoutProvider {
	return &checkoutClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *checkoutClient) CreateSession(ctx context.Context, amountCents int64, successURL, cancelURL string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"amount":      amountCents,
		"currency":    "usd",
		"success_url": successURL,
		"cancel_url":  cancelURL,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("checkout session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("checkout session: status %d", resp.StatusCode)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("checkout session: decoding response: %w", err)
	}
	return out.URL, nil
}

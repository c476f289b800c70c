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

// marketingClient talks to the email-marketing list API.
type marketingClient struct {
	baseURL string
	apiKey  string
	listID  string
	http    *http.Client
}

// NewMarketingClient creates the MarketingClient REST client.
func NewMarketingClient(cfg *config.MarketingConfig) MarketingClient {
	return &marketingClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		listID:  cfg.ListID,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *marketingClient) Subscribe(ctx context.Context, email string, tags []string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"email_address": email,
		"status":        "subscribed",
		"tags":          tags,
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/lists/%s/members", m.baseURL, m.listID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("marketing subscribe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("marketing subscribe: status %d", resp.StatusCode)
	}
	return nil
}

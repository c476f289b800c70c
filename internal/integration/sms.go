package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"scanlink/backend/config"
)

// phoneRe accepts ≥10 digits with optional +, spaces, hyphens and
// parentheses.
var phoneRe = regexp.MustCompile(`^\+?[\d\s\-()]+$`)

// ValidPhone reports whether a phone number is deliverable.
func ValidPhone(phone string) bool {
	if !phoneRe.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 10
}

// smsClient talks to the SMS provider's messages endpoint.
type smsClient struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	http       *http.Client
}

// NewSMSClient creates the SMSSender REST client.
func NewSMSClient(cfg *config.SMSConfig) SMSSender {
	return &smsClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.From,
		http:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *smsClient) Send(ctx context.Context, toPhone, body string) (*SendResult, error) {
	if !ValidPhone(toPhone) {
		return nil, errors.New("sms: invalid phone number")
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	form := url.Values{}
	form.Set("To", toPhone)
	form.Set("From", s.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sms send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sms send: status %d", resp.StatusCode)
	}

	var out struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("sms send: decoding response: %w", err)
	}

	return &SendResult{Success: true, ProviderMessageID: out.SID}, nil
}

// Package integration holds the REST clients for the external
// collaborators: object storage, SMS delivery, hosted checkout and the
// email-marketing list. Each collaborator is a narrow interface so
// services take fakes in tests.
package integration

import (
	"context"
	"errors"
)

// ErrObjectNotFound marks a missing object in storage.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage stores and serves uploaded scan artifacts.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string, upsert bool) error
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	GetPublicURL(bucket, path string) string
}

// SendResult reports a dispatched SMS.
type SendResult struct {
	Success           bool
	ProviderMessageID string
}

// SMSSender delivers one text message. Callers treat failures as
// soft-fail: logged, never surfaced to the primary request.
type SMSSender interface {
	Send(ctx context.Context, toPhone, body string) (*SendResult, error)
}

// CheckoutProvider creates a hosted payment-checkout session.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, amountCents int64, successURL, cancelURL string) (string, error)
}

// MarketingClient subscribes a contact to the marketing list.
// Best-effort: failures are logged and swallowed by callers.
type MarketingClient interface {
	Subscribe(ctx context.Context, email string, tags []string) error
}

package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"scanlink/backend/config"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Token kinds. The kind follows the TTL tier the token was minted with.
const (
	KindEntity    = "entity"    // scan-creation URL credential
	KindDashboard = "dashboard" // portal account session
	KindShortLink = "shortlink" // short-code redirect credential
)

// Claims is the identity claim set carried by every token.
//
// A token binds at most one of scan/subject/issuer plus the caller's role.
// Verification is stateless: a token stays valid for its full TTL even if
// the referenced row is deleted, so callers must re-fetch the entity after
// parsing.
type Claims struct {
	ScanID    string `json:"scan_id,omitempty"`
	SubjectID string `json:"subject_id,omitempty"`
	IssuerID  string `json:"issuer_id,omitempty"`
	Role      string `json:"role"`
	Kind      string `json:"kind"`
	jwtv5.RegisteredClaims
}

// Manager signs and verifies tokens with a process-wide secret.
type Manager struct {
	secret            []byte
	entityTokenTTL    time.Duration
	dashboardTokenTTL time.Duration
	shortLinkTokenTTL time.Duration
}

// NewManager creates a token manager from the auth config.
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:            []byte(cfg.JWTSecret),
		entityTokenTTL:    cfg.EntityTokenTTL,
		dashboardTokenTTL: cfg.DashboardTokenTTL,
		shortLinkTokenTTL: cfg.ShortLinkTokenTTL,
	}
}

// Issue signs a token carrying claims, valid for ttl from now.
func (m *Manager) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwtv5.RegisteredClaims{
		ID:        uuid.New().String(),
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		Issuer:    "scanlink",
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// IssueEntityToken mints the subject-facing credential embedded in a
// scan-creation URL (7-day tier).
func (m *Manager) IssueEntityToken(scanID, subjectID, issuerID, role string) (string, error) {
	return m.Issue(Claims{
		ScanID:    scanID,
		SubjectID: subjectID,
		IssuerID:  issuerID,
		Role:      role,
		Kind:      KindEntity,
	}, m.entityTokenTTL)
}

// IssueDashboardToken mints a portal session credential (30-day tier).
func (m *Manager) IssueDashboardToken(accountID, role string) (string, error) {
	return m.Issue(Claims{
		SubjectID: accountID,
		Role:      role,
		Kind:      KindDashboard,
	}, m.dashboardTokenTTL)
}

// IssueShortLinkToken mints a redirect credential (7-day tier).
func (m *Manager) IssueShortLinkToken(scanID, role string) (string, error) {
	return m.Issue(Claims{
		ScanID: scanID,
		Role:   role,
		Kind:   KindShortLink,
	}, m.shortLinkTokenTTL)
}

// Parse verifies the signature and expiry and returns the claims.
// Expired and tampered tokens are reported distinctly.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

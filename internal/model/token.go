package model

import (
	"crypto/rsa"
	"time"
)

// Token lifetimes. Refresh ledger expiry is derived from the token's own
// exp claim, so these are the single source of truth.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenManager signs and verifies per-client RS256 token pairs.
type TokenManager interface {
	// SignPair mints an access/refresh pair differing only in the type
	// claim, with kid embedded in both headers.
	SignPair(key *rsa.PrivateKey, userID, kid, issuer string) (TokenPair, error)
	// PeekKID extracts kid from the token header without verifying the
	// signature. The kid selects the verification key; no body claim is
	// trusted for that purpose.
	PeekKID(token string) (string, error)
	// Verify checks signature and expiry against the given public key
	// with the algorithm pinned to RS256.
	Verify(token string, key *rsa.PublicKey) (TokenClaims, error)
}

// TokenPair is one issuance: both tokens signed under the same key
// generation.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenClaims are the decoded claims of a verified token.
type TokenClaims struct {
	UserID    string
	KID       string
	TokenType string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

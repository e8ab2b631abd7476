package token

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mauth-dev/mauth/internal/model"
)

// Claims represents JWT claims with user id, key id and token type.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"userId"`
	KID       string `json:"kid"`
	TokenType string `json:"type"`
}

// JWT implements model.TokenManager backed by per-client RS256 keys. The
// signing key is supplied per call; nothing is cached, so a rotation takes
// effect on the next issuance.
type JWT struct{}

// NewJWT creates a new RS256 token manager.
func NewJWT() model.TokenManager {
	return &JWT{}
}

// SignPair mints an access/refresh pair. Both tokens carry the same
// claims except the type claim, and embed kid in the header so verifiers
// can resolve the key without trusting the body.
func (j *JWT) SignPair(key *rsa.PrivateKey, userID, kid, issuer string) (model.TokenPair, error) {
	now := time.Now()

	access, err := j.sign(key, userID, kid, issuer, model.TokenTypeAccess, now, now.Add(model.AccessTokenTTL))
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshExpiry := now.Add(model.RefreshTokenTTL)
	refresh, err := j.sign(key, userID, kid, issuer, model.TokenTypeRefresh, now, refreshExpiry)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

func (j *JWT) sign(key *rsa.PrivateKey, userID, kid, issuer, tokenType string, now, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps every issuance unique; RS256 signing is
			// deterministic, so without it two tokens minted in the
			// same second would be byte-identical.
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    userID,
		KID:       kid,
		TokenType: tokenType,
	})
	token.Header["kid"] = kid

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("%w: sign %s token: %v", model.ErrCryptoFailure, tokenType, err)
	}
	return signed, nil
}

// PeekKID extracts the kid header without verifying the signature. It is
// only good for selecting the verification key, never for trusting the
// token.
func (j *JWT) PeekKID(tokenString string) (string, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		return "", fmt.Errorf("%w: missing key id", model.ErrTokenInvalid)
	}
	return kid, nil
}

// Verify checks signature and expiry against the given public key. The
// algorithm is pinned to RS256: "none" and HMAC tokens never pass.
func (j *JWT) Verify(tokenString string, key *rsa.PublicKey) (model.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return model.TokenClaims{}, fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return model.TokenClaims{}, model.ErrTokenInvalid
	}

	out := model.TokenClaims{
		UserID:    claims.UserID,
		KID:       claims.KID,
		TokenType: claims.TokenType,
		Issuer:    claims.Issuer,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

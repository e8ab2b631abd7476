package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"

	"github.com/mauth-dev/mauth/internal/model"
)

// JWK is a single RSA public key in JSON Web Key form.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	KID string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// PublicKeyJWK converts a PKIX PEM public key into its modulus/exponent
// JWK representation for publication.
func PublicKeyJWK(pubPEM, kid string) (JWK, error) {
	pub, err := ParsePublicKeyPEM(pubPEM)
	if err != nil {
		return JWK{}, err
	}

	return JWK{
		Kty: "RSA",
		Use: "sig",
		KID: kid,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}, nil
}

// ParsePublicKeyPEM parses a PKIX PEM-encoded RSA public key.
func ParsePublicKeyPEM(pubPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pubPEM))
	if block == nil {
		return nil, fmt.Errorf("%w: public key is not PEM", model.ErrCryptoFailure)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parse public key: %v", model.ErrCryptoFailure, err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", model.ErrCryptoFailure)
	}
	return rsaKey, nil
}

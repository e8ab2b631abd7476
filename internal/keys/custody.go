package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"

	"github.com/google/uuid"

	"github.com/mauth-dev/mauth/internal/model"
)

const rsaKeyBits = 2048

// Custody generates and guards per-client RSA keypairs. Private keys are
// encrypted at rest with AES-256-GCM under a process-wide master key; the
// stored ciphertext, nonce and authentication tag are kept as separate hex
// fields so tampering is detected at decrypt time.
type Custody struct {
	masterKey []byte
}

// NewCustody creates a Custody instance with the decoded master key. The
// key is injected by the caller, never read from ambient state.
func NewCustody(masterKey []byte) (*Custody, error) {
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("%w: master key must be 32 bytes", model.ErrCryptoFailure)
	}
	return &Custody{masterKey: masterKey}, nil
}

// Provision generates a fresh 2048-bit RSA keypair and returns one
// generation of key material: PKIX public key PEM, encrypted PKCS#8
// private key, and a new kid. Nothing is persisted here; a failed
// provision leaves no partial state.
func (c *Custody) Provision() (model.KeyMaterial, error) {
	priv, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return model.KeyMaterial{}, fmt.Errorf("%w: generate keypair: %v", model.ErrCryptoFailure, err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return model.KeyMaterial{}, fmt.Errorf("%w: marshal public key: %v", model.ErrCryptoFailure, err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return model.KeyMaterial{}, fmt.Errorf("%w: marshal private key: %v", model.ErrCryptoFailure, err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})

	ciphertext, iv, tag, err := c.encrypt(privPEM)
	if err != nil {
		return model.KeyMaterial{}, err
	}

	return model.KeyMaterial{
		PublicKeyPEM:        string(pubPEM),
		EncryptedPrivateKey: hex.EncodeToString(ciphertext),
		IV:                  hex.EncodeToString(iv),
		Tag:                 hex.EncodeToString(tag),
		KID:                 uuid.NewString(),
	}, nil
}

// Decrypt reverses the at-rest encryption of a client's private key. A
// tag mismatch (tampered ciphertext or changed master key) surfaces as
// ErrCryptoFailure, never as garbage key material.
func (c *Custody) Decrypt(material model.KeyMaterial) (*rsa.PrivateKey, error) {
	ciphertext, err := hex.DecodeString(material.EncryptedPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: decode ciphertext: %v", model.ErrCryptoFailure, err)
	}
	iv, err := hex.DecodeString(material.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: decode iv: %v", model.ErrCryptoFailure, err)
	}
	tag, err := hex.DecodeString(material.Tag)
	if err != nil {
		return nil, fmt.Errorf("%w: decode tag: %v", model.ErrCryptoFailure, err)
	}

	plaintext, err := c.decrypt(ciphertext, iv, tag)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(plaintext)
	if block == nil {
		return nil, fmt.Errorf("%w: decrypted key is not PEM", model.ErrCryptoFailure)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %v", model.ErrCryptoFailure, err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", model.ErrCryptoFailure)
	}
	return rsaKey, nil
}

func (c *Custody) encrypt(plaintext []byte) (ciphertext, iv, tag []byte, err error) {
	block, err := aes.NewCipher(c.masterKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: new cipher: %v", model.ErrCryptoFailure, err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: new gcm: %v", model.ErrCryptoFailure, err)
	}

	iv = make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: read nonce: %v", model.ErrCryptoFailure, err)
	}

	sealed := aesgcm.Seal(nil, iv, plaintext, nil)
	// Seal appends the tag; store it as a separate field.
	split := len(sealed) - aesgcm.Overhead()
	return sealed[:split], iv, sealed[split:], nil
}

func (c *Custody) decrypt(ciphertext, iv, tag []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.masterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: new cipher: %v", model.ErrCryptoFailure, err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: new gcm: %v", model.ErrCryptoFailure, err)
	}
	if len(iv) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce size", model.ErrCryptoFailure)
	}

	plaintext, err := aesgcm.Open(nil, iv, append(append([]byte{}, ciphertext...), tag...), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", model.ErrCryptoFailure, err)
	}
	return plaintext, nil
}

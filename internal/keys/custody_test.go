package keys

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mauth-dev/mauth/internal/model"
)

func newTestCustody(t *testing.T) *Custody {
	t.Helper()

	masterKey := make([]byte, 32)
	_, err := rand.Read(masterKey)
	require.NoError(t, err)

	c, err := NewCustody(masterKey)
	require.NoError(t, err)
	return c
}

func TestNewCustody_BadKeyLength(t *testing.T) {
	_, err := NewCustody(make([]byte, 16))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCryptoFailure)
}

func TestCustody_ProvisionDecrypt_Roundtrip(t *testing.T) {
	c := newTestCustody(t)

	material, err := c.Provision()
	require.NoError(t, err)

	assert.NotEmpty(t, material.KID)
	assert.Contains(t, material.PublicKeyPEM, "BEGIN PUBLIC KEY")
	assert.NotContains(t, material.EncryptedPrivateKey, "PRIVATE KEY")

	priv, err := c.Decrypt(material)
	require.NoError(t, err)

	pub, err := ParsePublicKeyPEM(material.PublicKeyPEM)
	require.NoError(t, err)
	assert.True(t, priv.PublicKey.Equal(pub))
}

func TestCustody_Provision_FreshKIDPerGeneration(t *testing.T) {
	c := newTestCustody(t)

	first, err := c.Provision()
	require.NoError(t, err)
	second, err := c.Provision()
	require.NoError(t, err)

	assert.NotEqual(t, first.KID, second.KID)
	assert.NotEqual(t, first.PublicKeyPEM, second.PublicKeyPEM)
}

func TestCustody_Decrypt_TamperedCiphertext(t *testing.T) {
	c := newTestCustody(t)

	material, err := c.Provision()
	require.NoError(t, err)

	flipped := []byte(material.EncryptedPrivateKey)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	material.EncryptedPrivateKey = string(flipped)

	_, err = c.Decrypt(material)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCryptoFailure)
}

func TestCustody_Decrypt_TamperedTag(t *testing.T) {
	c := newTestCustody(t)

	material, err := c.Provision()
	require.NoError(t, err)

	material.Tag = strings.Repeat("0", len(material.Tag))

	_, err = c.Decrypt(material)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCryptoFailure)
}

func TestCustody_Decrypt_WrongMasterKey(t *testing.T) {
	c := newTestCustody(t)

	material, err := c.Provision()
	require.NoError(t, err)

	other := newTestCustody(t)
	_, err = other.Decrypt(material)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCryptoFailure)
}

func TestCustody_Decrypt_BadHex(t *testing.T) {
	c := newTestCustody(t)

	material, err := c.Provision()
	require.NoError(t, err)

	material.IV = "not-hex"

	_, err = c.Decrypt(material)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCryptoFailure)
}

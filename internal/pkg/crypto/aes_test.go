package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESEncryptorRoundTrip(t *testing.T) {
	enc, err := NewAESEncryptor("test-passphrase")
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("the-server-seed")
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "the-server-seed")

	plain, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "the-server-seed", plain)
}

func TestAESEncryptorRandomizedNonce(t *testing.T) {
	enc, err := NewAESEncryptor("test-passphrase")
	require.NoError(t, err)

	a, err := enc.Encrypt("same-plaintext")
	require.NoError(t, err)
	b, err := enc.Encrypt("same-plaintext")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "each encryption uses a fresh nonce")
}

func TestAESEncryptorWrongKey(t *testing.T) {
	enc, err := NewAESEncryptor("key-one")
	require.NoError(t, err)
	other, err := NewAESEncryptor("key-two")
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestAESEncryptorBadInput(t *testing.T) {
	_, err := NewAESEncryptor("")
	assert.Error(t, err, "empty passphrase rejected")

	enc, err := NewAESEncryptor("test-passphrase")
	require.NoError(t, err)

	_, err = enc.Decrypt("not base64 !!!")
	assert.Error(t, err)
	_, err = enc.Decrypt("c2hvcnQ=") // valid base64, shorter than a nonce
	assert.Error(t, err)
}

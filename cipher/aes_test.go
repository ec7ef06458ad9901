package cipher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptCBCRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	plaintext := []byte("a secret record payload, not block-aligned")

	sealed, err := EncryptCBC(key, plaintext)
	require.NoError(t, err)
	require.Greater(t, len(sealed), IVSize)

	got, err := DecryptCBC(key, sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestEncryptCBCRandomIV(t *testing.T) {
	key := make([]byte, 32)
	a, err := EncryptCBC(key, []byte("same plaintext"))
	require.NoError(t, err)
	b, err := EncryptCBC(key, []byte("same plaintext"))
	require.NoError(t, err)
	require.NotEqual(t, a, b, "IV should differ across calls")
}

func TestDecryptCBCRejectsShortInput(t *testing.T) {
	key := make([]byte, 32)
	_, err := DecryptCBC(key, []byte("too short"))
	require.Error(t, err)
}

func TestDecryptCBCRejectsBadKeyLength(t *testing.T) {
	_, err := EncryptCBC(make([]byte, 16), []byte("x"))
	require.Error(t, err)
}

func TestDecryptCBCRejectsTamperedPadding(t *testing.T) {
	key := make([]byte, 32)
	sealed, err := EncryptCBC(key, []byte("exactly16bytes!!"))
	require.NoError(t, err)
	tampered := append([]byte{}, sealed...)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = DecryptCBC(key, tampered)
	require.Error(t, err)
}

package secmem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneIndependence(t *testing.T) {
	a := New([]byte("master-key-material-32-bytes!!!"))
	defer a.Release()

	b := a.Clone()
	defer b.Release()

	require.True(t, a.Equal(b))

	b.Bytes()[0] ^= 0xFF
	require.False(t, a.Equal(b))
}

func TestTakeBytesReleases(t *testing.T) {
	src := []byte("0123456789abcdef")
	b := New(src)
	out := b.TakeBytes()
	require.Equal(t, []byte("0123456789abcdef"), out)
	require.Equal(t, 0, b.Len())
}

func TestEqualConstantTimeMismatchedLength(t *testing.T) {
	a := New([]byte("short"))
	defer a.Release()
	b := New([]byte("a much longer secret"))
	defer b.Release()
	require.False(t, a.Equal(b))
}

func TestEnclaveRoundTrip(t *testing.T) {
	secret := []byte("roundtrip-secret")
	b := New(secret)
	enc := b.Enclave()
	require.Equal(t, 0, b.Len())

	opened, err := Open(enc)
	require.NoError(t, err)
	defer opened.Release()
	require.Equal(t, secret, opened.Bytes())
}

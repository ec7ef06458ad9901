package prng

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadFillsRequestedLength(t *testing.T) {
	g, err := New()
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := g.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 64, n)
}

func TestSuccessiveReadsDiffer(t *testing.T) {
	g, err := New()
	require.NoError(t, err)

	a, err := g.Bytes(32)
	require.NoError(t, err)
	b, err := g.Bytes(32)
	require.NoError(t, err)
	require.NotEqual(t, a, b, "reseed-per-call must change output across calls")
}

func TestIndependentGeneratorsDiffer(t *testing.T) {
	g1, err := New()
	require.NoError(t, err)
	g2, err := New()
	require.NoError(t, err)

	a, err := g1.Bytes(32)
	require.NoError(t, err)
	b, err := g2.Bytes(32)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

package recordstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testHeader struct {
	Kind        string `json:"kind"`
	DBName      string `json:"dbName"`
	ControlSalt []byte `json:"controlSalt"`
}

func TestPutGetHeaderRoundTrip(t *testing.T) {
	store := openTestStore(t)
	sub, err := store.CreateSubDB("control", []byte("salt"), testControlRoot())
	require.NoError(t, err)

	h := testHeader{Kind: "single", DBName: "wallet1", ControlSalt: []byte("abc")}
	require.NoError(t, sub.PutHeader("wallet1", h))

	var out testHeader
	found, err := sub.GetHeader("wallet1", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, h, out)
}

func TestGetHeaderMissing(t *testing.T) {
	store := openTestStore(t)
	sub, err := store.CreateSubDB("control", []byte("salt"), testControlRoot())
	require.NoError(t, err)

	var out testHeader
	found, err := sub.GetHeader("nope", &out)
	require.NoError(t, err)
	require.False(t, found)
}

func TestListHeaderNames(t *testing.T) {
	store := openTestStore(t)
	sub, err := store.CreateSubDB("control", []byte("salt"), testControlRoot())
	require.NoError(t, err)

	require.NoError(t, sub.PutHeader("wallet1", testHeader{Kind: "single"}))
	require.NoError(t, sub.PutHeader("wallet2", testHeader{Kind: "multisig"}))

	names, err := sub.ListHeaderNames()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"wallet1", "wallet2"}, names)
}

func TestHeaderDoesNotCollideWithRecordScan(t *testing.T) {
	store := openTestStore(t)
	sub, err := store.CreateSubDB("data1", []byte("salt"), testControlRoot())
	require.NoError(t, err)

	require.NoError(t, sub.PutHeader("data1", testHeader{Kind: "single"}))

	tx, err := Begin(sub, ReadWrite, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Insert([]byte("k"), []byte("v")))
	require.NoError(t, tx.Commit())

	v, ok := sub.getLocked([]byte("k"))
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)
}

package walletdb

import (
	"path/filepath"
	"testing"

	"github.com/jmcleod/ironvault/recordstore"
	"github.com/jmcleod/ironvault/secrets"
	"github.com/stretchr/testify/require"
)

func providerFor(passphrase string) secrets.PassphraseProvider {
	return func() ([]byte, error) { return []byte(passphrase), nil }
}

func newTestWallet(t *testing.T, dbCount uint32) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallet.db")
	db, err := CreateNew(path, dbCount, []byte("control pass"), nil)
	require.NoError(t, err)
	return db, path
}

func TestCreateNewThenOpenRecoversControlRoot(t *testing.T) {
	db, path := newTestWallet(t, 2)

	require.NoError(t, db.LockControlContainer(providerFor("control pass")))
	_, err := db.AddHeader("data1")
	require.NoError(t, err)
	_, err = db.AddHeader("data2")
	require.NoError(t, err)
	require.NoError(t, db.UnlockControlContainer())
	require.NoError(t, db.Shutdown())

	reopened, err := Open(path, providerFor("control pass"), nil)
	require.NoError(t, err)
	defer reopened.Shutdown()

	require.ElementsMatch(t, []string{"data1", "data2"}, reopened.DataSubDBNames())
	_, ok := reopened.DataSubDB("data1")
	require.True(t, ok)
	_, ok = reopened.DataSubDB("data2")
	require.True(t, ok)
}

func TestOpenWithWrongPassphraseFails(t *testing.T) {
	_, path := newTestWallet(t, 1)

	_, err := Open(path, providerFor("nope"), nil)
	require.ErrorIs(t, err, secrets.ErrWrongPassphrase)
}

func TestAddHeaderRequiresLock(t *testing.T) {
	db, _ := newTestWallet(t, 1)
	_, err := db.AddHeader("data1")
	require.ErrorIs(t, err, ErrControlNotLocked)
}

func TestAddHeaderRejectsDbCountExceeded(t *testing.T) {
	db, _ := newTestWallet(t, 1)
	require.NoError(t, db.LockControlContainer(providerFor("control pass")))

	_, err := db.AddHeader("data1")
	require.NoError(t, err)

	_, err = db.AddHeader("data2")
	require.ErrorIs(t, err, ErrDbCountExceeded)
}

func TestAddHeaderRejectsDuplicateName(t *testing.T) {
	db, _ := newTestWallet(t, 2)
	require.NoError(t, db.LockControlContainer(providerFor("control pass")))

	_, err := db.AddHeader("data1")
	require.NoError(t, err)
	_, err = db.AddHeader("data1")
	require.ErrorIs(t, err, ErrDuplicateSubDB)
}

func TestSetDbCountCannotShrink(t *testing.T) {
	db, _ := newTestWallet(t, 2)
	require.NoError(t, db.LockControlContainer(providerFor("control pass")))
	_, err := db.AddHeader("data1")
	require.NoError(t, err)
	_, err = db.AddHeader("data2")
	require.NoError(t, err)

	err = db.SetDbCount(1)
	require.ErrorIs(t, err, ErrShrinkNotAllowed)

	require.NoError(t, db.SetDbCount(5))
	require.Equal(t, uint32(5), db.DBCount())
}

func TestShutdownFailsWithLiveTransaction(t *testing.T) {
	db, _ := newTestWallet(t, 1)
	require.NoError(t, db.LockControlContainer(providerFor("control pass")))
	sub, err := db.AddHeader("data1")
	require.NoError(t, err)
	require.NoError(t, db.UnlockControlContainer())

	tx, err := recordstore.Begin(sub, recordstore.ReadWrite, nil)
	require.NoError(t, err)

	err = db.Shutdown()
	require.ErrorIs(t, err, ErrLiveTransactions)

	require.NoError(t, tx.Commit())
	require.NoError(t, db.Shutdown())
}

func TestUnlockControlContainerWithoutLockFails(t *testing.T) {
	db, _ := newTestWallet(t, 1)
	err := db.UnlockControlContainer()
	require.ErrorIs(t, err, ErrControlNotLocked)
}

func TestLockControlContainerTwiceFails(t *testing.T) {
	db, _ := newTestWallet(t, 1)
	require.NoError(t, db.LockControlContainer(providerFor("control pass")))
	err := db.LockControlContainer(providerFor("control pass"))
	require.ErrorIs(t, err, ErrControlLocked)
}

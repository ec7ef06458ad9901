package secrets

import (
	"errors"
	"testing"

	"github.com/jmcleod/ironvault/secmem"
	"github.com/stretchr/testify/require"
)

func providerFor(passphrase string) PassphraseProvider {
	return func() ([]byte, error) { return []byte(passphrase), nil }
}

func givesUp() PassphraseProvider {
	return func() ([]byte, error) { return nil, nil }
}

func TestNewEncryptedUnlockRoundTrip(t *testing.T) {
	master := secmem.New([]byte("a 32-byte master key............"))
	c, err := NewEncrypted(master, []byte("correct horse"))
	require.NoError(t, err)

	u, err := c.Unlock(providerFor("correct horse"))
	require.NoError(t, err)
	defer u.Close()

	require.Equal(t, []byte("a 32-byte master key............"), u.MasterKey().Bytes())
}

func TestUnlockWrongPassphrase(t *testing.T) {
	master := secmem.New([]byte("master-key"))
	c, err := NewEncrypted(master, []byte("correct horse"))
	require.NoError(t, err)

	_, err = c.Unlock(providerFor("wrong horse"))
	require.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestUnlockEmptyPassphraseGivesUp(t *testing.T) {
	master := secmem.New([]byte("master-key"))
	c, err := NewEncrypted(master, []byte("correct horse"))
	require.NoError(t, err)

	_, err = c.Unlock(givesUp())
	require.ErrorIs(t, err, ErrEmptyPassphrase)
}

func TestNewUnencryptedUnlocksWithDefault(t *testing.T) {
	master := secmem.New([]byte("master-key"))
	c, err := NewUnencrypted(master)
	require.NoError(t, err)

	u, err := c.Unlock(providerFor(string(defaultPassphrase)))
	require.NoError(t, err)
	defer u.Close()
	require.Equal(t, []byte("master-key"), u.MasterKey().Bytes())
}

func TestChangePassphraseRotatesSlot(t *testing.T) {
	master := secmem.New([]byte("master-key"))
	c, err := NewEncrypted(master, []byte("old pass"))
	require.NoError(t, err)

	require.NoError(t, c.ChangePassphrase(providerFor("old pass"), []byte("new pass")))

	_, err = c.Unlock(providerFor("old pass"))
	require.ErrorIs(t, err, ErrWrongPassphrase)

	u, err := c.Unlock(providerFor("new pass"))
	require.NoError(t, err)
	u.Close()
}

func TestChangePassphraseWhileLockedFails(t *testing.T) {
	master := secmem.New([]byte("master-key"))
	c, err := NewEncrypted(master, []byte("old pass"))
	require.NoError(t, err)

	u, err := c.Unlock(providerFor("old pass"))
	require.NoError(t, err)
	defer u.Close()

	err = c.ChangePassphrase(providerFor("old pass"), []byte("new pass"))
	require.ErrorIs(t, err, ErrAlreadyLocked)
}

func TestAddPassphraseToUnencryptedFails(t *testing.T) {
	master := secmem.New([]byte("master-key"))
	c, err := NewUnencrypted(master)
	require.NoError(t, err)

	err = c.AddPassphrase(providerFor(string(defaultPassphrase)), []byte("new pass"))
	require.ErrorIs(t, err, ErrCannotAddToUnencrypted)
}

func TestAddPassphraseAllowsEitherSlotToUnlock(t *testing.T) {
	master := secmem.New([]byte("master-key"))
	c, err := NewEncrypted(master, []byte("slot one"))
	require.NoError(t, err)

	require.NoError(t, c.AddPassphrase(providerFor("slot one"), []byte("slot two")))

	u1, err := c.Unlock(providerFor("slot one"))
	require.NoError(t, err)
	require.Equal(t, []byte("master-key"), u1.MasterKey().Bytes())
	u1.Close()

	u2, err := c.Unlock(providerFor("slot two"))
	require.NoError(t, err)
	require.Equal(t, []byte("master-key"), u2.MasterKey().Bytes())
	u2.Close()
}

func TestAddDuplicatePassphraseRejected(t *testing.T) {
	master := secmem.New([]byte("master-key"))
	c, err := NewEncrypted(master, []byte("shared"))
	require.NoError(t, err)

	err = c.AddPassphrase(providerFor("shared"), []byte("shared"))
	require.ErrorIs(t, err, ErrDuplicateCipher)
}

func TestErasePassphraseRemovesOnlyMatchedSlot(t *testing.T) {
	master := secmem.New([]byte("master-key"))
	c, err := NewEncrypted(master, []byte("slot one"))
	require.NoError(t, err)
	require.NoError(t, c.AddPassphrase(providerFor("slot one"), []byte("slot two")))

	require.NoError(t, c.ErasePassphrase(providerFor("slot one")))

	_, err = c.Unlock(providerFor("slot one"))
	require.ErrorIs(t, err, ErrWrongPassphrase)

	u, err := c.Unlock(providerFor("slot two"))
	require.NoError(t, err)
	u.Close()
}

func TestEraseLastPassphraseRevertsToDefault(t *testing.T) {
	master := secmem.New([]byte("master-key"))
	c, err := NewEncrypted(master, []byte("only slot"))
	require.NoError(t, err)

	require.NoError(t, c.ErasePassphrase(providerFor("only slot")))

	u, err := c.Unlock(providerFor(string(defaultPassphrase)))
	require.NoError(t, err)
	require.Equal(t, []byte("master-key"), u.MasterKey().Bytes())
	u.Close()

	err = c.AddPassphrase(providerFor(string(defaultPassphrase)), []byte("whatever"))
	require.ErrorIs(t, err, ErrCannotAddToUnencrypted)
}

func TestUnlockProviderErrorPropagates(t *testing.T) {
	master := secmem.New([]byte("master-key"))
	c, err := NewEncrypted(master, []byte("pass"))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = c.Unlock(func() ([]byte, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
}

func TestSnapshotRoundTripsViaOpen(t *testing.T) {
	master := secmem.New([]byte("master-key"))
	c, err := NewEncrypted(master, []byte("pass"))
	require.NoError(t, err)

	obj, defaultOnly := c.Snapshot()
	require.False(t, defaultOnly)
	require.Len(t, obj.Slots, 1)

	reopened := Open(obj, defaultOnly)
	u, err := reopened.Unlock(providerFor("pass"))
	require.NoError(t, err)
	require.Equal(t, []byte("master-key"), u.MasterKey().Bytes())
	u.Close()
}

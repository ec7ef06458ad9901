// Package secrets implements the wallet store's decrypted-data container
// (spec §4.5): scoped unlock of a master key protected by one or more
// passphrase-derived cipher slots.
//
// It generalizes the teacher's (jmcleod-ironhand) vault.Session scoped-
// access pattern -- obtain a handle, use it, Close() to wipe -- and the
// key.EncryptedKey/Rotatable interfaces' encrypt-under-another-key
// shape, from "one key encrypting one other key" to "N independent
// passphrase-derived slots, any one of which can recover the shared
// master key" (spec's multi-slot master keys).
package secrets

import (
	"sync"

	"github.com/jmcleod/ironvault/cipher"
	"github.com/jmcleod/ironvault/kdf"
	"github.com/jmcleod/ironvault/secmem"
)

// defaultPassphrase is the well-known, non-secret passphrase used for the
// single slot of an "unencrypted" container (spec §4.5: "the default key
// reappears" once every real passphrase has been erased). It carries no
// confidentiality on its own; a container with only this slot is, by
// convention, considered unencrypted from the caller's perspective.
var defaultPassphrase = []byte("ironvault:no-passphrase:v1")

// PassphraseProvider supplies a passphrase on demand. Returning an empty
// slice is the give-up signal (spec §4.5), surfaced as ErrEmptyPassphrase.
type PassphraseProvider func() ([]byte, error)

// CipherData is one passphrase-protected encryption of the container's
// master key (spec §4.5 "CipherData slots").
type CipherData struct {
	KDFParams kdf.Params `json:"kdfParams"`
	Sealed    []byte     `json:"sealed"` // AES-CBC(kdf(passphrase), iv) -> masterKey, iv-prefixed
}

// EncryptedObject is the on-disk form of a Container: the master key
// encrypted under one or more CipherData slots.
type EncryptedObject struct {
	Slots []CipherData `json:"slots"`
}

// Container holds an EncryptedObject and enforces the scoped-unlock and
// passphrase-management contract around it (spec §4.5).
type Container struct {
	mu          sync.Mutex
	obj         EncryptedObject
	defaultOnly bool
	locked      bool
}

// NewUnencrypted creates a Container around masterKey protected only by
// the synthetic default passphrase. masterKey is consumed (its bytes are
// copied into the slot and the original released).
func NewUnencrypted(masterKey *secmem.Bytes) (*Container, error) {
	c := &Container{defaultOnly: true}
	if err := c.setSingleSlot(defaultPassphrase, masterKey); err != nil {
		return nil, err
	}
	return c, nil
}

// NewEncrypted creates a Container around masterKey protected by a single
// slot derived from passphrase.
func NewEncrypted(masterKey *secmem.Bytes, passphrase []byte) (*Container, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	c := &Container{defaultOnly: false}
	if err := c.setSingleSlot(passphrase, masterKey); err != nil {
		return nil, err
	}
	return c, nil
}

// Open reconstructs a Container from a previously persisted EncryptedObject.
func Open(obj EncryptedObject, defaultOnly bool) *Container {
	return &Container{obj: obj, defaultOnly: defaultOnly}
}

// Snapshot returns a copy of the container's on-disk form, for persistence.
func (c *Container) Snapshot() (EncryptedObject, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slots := make([]CipherData, len(c.obj.Slots))
	for i, s := range c.obj.Slots {
		slots[i] = CipherData{KDFParams: s.KDFParams, Sealed: append([]byte(nil), s.Sealed...)}
	}
	return EncryptedObject{Slots: slots}, c.defaultOnly
}

func (c *Container) setSingleSlot(passphrase []byte, masterKey *secmem.Bytes) error {
	params, err := kdf.Calibrate(kdf.DefaultTargetSeconds, kdf.DefaultMaxMemory)
	if err != nil {
		return err
	}
	key, err := kdf.Derive(passphrase, params)
	if err != nil {
		return err
	}
	defer key.Release()

	sealed, err := cipher.EncryptCBC(key.Bytes(), masterKey.Bytes())
	if err != nil {
		return err
	}
	c.obj = EncryptedObject{Slots: []CipherData{{KDFParams: params, Sealed: sealed}}}
	masterKey.Release()
	return nil
}

// Unlocked is a scoped handle on a Container's decrypted master key.
// Exiting the scope (Close) overwrites the decrypted memory (spec §4.5
// Scoped unlock).
type Unlocked struct {
	container *Container
	slotIndex int
	masterKey *secmem.Bytes
	closed    bool
}

// MasterKey returns the decrypted master key. Valid only until Close.
func (u *Unlocked) MasterKey() *secmem.Bytes { return u.masterKey }

// Close releases the unlock scope, wiping the decrypted master key.
func (u *Unlocked) Close() {
	if u.closed {
		return
	}
	u.masterKey.Release()
	u.container.mu.Lock()
	u.container.locked = false
	u.container.mu.Unlock()
	u.closed = true
}

// Unlock tries provider's passphrase against every slot in turn and
// returns a scoped handle on the first slot that decrypts successfully
// (spec §4.5 Multi-slot master keys).
func (c *Container) Unlock(provider PassphraseProvider) (*Unlocked, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	passphrase, err := provider()
	if err != nil {
		return nil, err
	}
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}

	slotIndex, masterKey, err := c.tryUnlockLocked(passphrase)
	if err != nil {
		return nil, err
	}
	c.locked = true
	return &Unlocked{container: c, slotIndex: slotIndex, masterKey: masterKey}, nil
}

func (c *Container) tryUnlockLocked(passphrase []byte) (int, *secmem.Bytes, error) {
	for i, slot := range c.obj.Slots {
		key, err := kdf.Derive(passphrase, slot.KDFParams)
		if err != nil {
			continue
		}
		plain, err := cipher.DecryptCBC(key.Bytes(), slot.Sealed)
		key.Release()
		if err != nil {
			continue
		}
		return i, secmem.Take(plain), nil
	}
	return 0, nil, ErrWrongPassphrase
}

// ChangePassphrase unlocks with currentProvider, then rewrites the master
// key as a single slot under a fresh passphrase, IV, and KDF salt. Must
// be called outside any lock scope (spec §4.5).
func (c *Container) ChangePassphrase(currentProvider PassphraseProvider, newPassphrase []byte) error {
	if len(newPassphrase) == 0 {
		return ErrEmptyPassphrase
	}
	c.mu.Lock()
	if c.locked {
		c.mu.Unlock()
		return ErrAlreadyLocked
	}
	c.mu.Unlock()

	current, err := currentProvider()
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return ErrEmptyPassphrase
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, masterKey, err := c.tryUnlockLocked(current)
	if err != nil {
		return err
	}

	if err := c.setSingleSlot(newPassphrase, masterKey); err != nil {
		return err
	}
	c.defaultOnly = false
	return nil
}

// AddPassphrase unlocks with currentProvider and appends a new slot
// protecting the same master key under newPassphrase (spec §4.5).
func (c *Container) AddPassphrase(currentProvider PassphraseProvider, newPassphrase []byte) error {
	if len(newPassphrase) == 0 {
		return ErrEmptyPassphrase
	}
	c.mu.Lock()
	if c.locked {
		c.mu.Unlock()
		return ErrAlreadyLocked
	}
	c.mu.Unlock()

	current, err := currentProvider()
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return ErrEmptyPassphrase
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.defaultOnly {
		return ErrCannotAddToUnencrypted
	}

	_, masterKey, err := c.tryUnlockLocked(current)
	if err != nil {
		return err
	}
	defer masterKey.Release()

	if _, _, err := c.tryUnlockLocked(newPassphrase); err == nil {
		return ErrDuplicateCipher
	}

	params, err := kdf.Calibrate(kdf.DefaultTargetSeconds, kdf.DefaultMaxMemory)
	if err != nil {
		return err
	}
	key, err := kdf.Derive(newPassphrase, params)
	if err != nil {
		return err
	}
	defer key.Release()

	sealed, err := cipher.EncryptCBC(key.Bytes(), masterKey.Bytes())
	if err != nil {
		return err
	}
	c.obj.Slots = append(c.obj.Slots, CipherData{KDFParams: params, Sealed: sealed})
	return nil
}

// ErasePassphrase unlocks with provider and removes the slot that matched.
// If more than one slot remains after removal the container stays
// encrypted; if it was the last slot, the container reverts to the
// synthetic default-key slot (spec §4.5).
func (c *Container) ErasePassphrase(provider PassphraseProvider) error {
	c.mu.Lock()
	if c.locked {
		c.mu.Unlock()
		return ErrAlreadyLocked
	}
	c.mu.Unlock()

	passphrase, err := provider()
	if err != nil {
		return err
	}
	if len(passphrase) == 0 {
		return ErrEmptyPassphrase
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	slotIndex, masterKey, err := c.tryUnlockLocked(passphrase)
	if err != nil {
		return err
	}

	if len(c.obj.Slots) > 1 {
		c.obj.Slots = append(c.obj.Slots[:slotIndex], c.obj.Slots[slotIndex+1:]...)
		masterKey.Release()
		return nil
	}

	if err := c.setSingleSlot(defaultPassphrase, masterKey); err != nil {
		return err
	}
	c.defaultOnly = true
	return nil
}

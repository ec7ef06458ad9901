package secrets

import "errors"

// Sentinel errors for Container operations (spec §4.5).
var (
	// ErrEmptyPassphrase is returned when a PassphraseProvider gives up by
	// returning an empty slice.
	ErrEmptyPassphrase = errors.New("secrets: passphrase provider returned empty bytes")

	// ErrWrongPassphrase is returned when no slot decrypts under the
	// provided passphrase.
	ErrWrongPassphrase = errors.New("secrets: passphrase does not match any cipher slot")

	// ErrAlreadyLocked is returned by ChangePassphrase/AddPassphrase/
	// ErasePassphrase when an Unlocked handle is currently outstanding.
	ErrAlreadyLocked = errors.New("secrets: container has an active unlock scope")

	// ErrCannotAddToUnencrypted is returned by AddPassphrase when the
	// container's only slot is still the synthetic default-key slot.
	ErrCannotAddToUnencrypted = errors.New("secrets: cannot add a passphrase slot to an unencrypted container")

	// ErrDuplicateCipher is returned by AddPassphrase when the new
	// passphrase already decrypts an existing slot.
	ErrDuplicateCipher = errors.New("secrets: passphrase already protects an existing slot")
)

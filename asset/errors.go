package asset

import "errors"

// Sentinel errors for the asset model (spec §4.7).
var (
	// ErrWatchOnly is returned by any operation that requires private
	// material on an account whose private material has been stripped
	// (spec §4.7 Watch-only fork).
	ErrWatchOnly = errors.New("asset: private derivation requires signing material; this account is watch-only")

	// ErrUnknownAsset is returned when an asset index is not present in
	// an account.
	ErrUnknownAsset = errors.New("asset: unknown asset index")

	// ErrDuplicateSalt is returned when AddSalt is asked to register a
	// salt that collides with a different existing salt under the same
	// id (should not happen; idempotent re-adds are not an error).
	ErrDuplicateSalt = errors.New("asset: salt id already bound to a different salt")

	// ErrHardenedPublicDerivation is returned by DerivePublic when idx
	// names a hardened child (spec §4.7 BIP32).
	ErrHardenedPublicDerivation = errors.New("asset: cannot derive a hardened child from a public-only node")
)

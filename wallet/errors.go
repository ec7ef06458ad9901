package wallet

import "errors"

// Sentinel errors for the wallet façade (spec §4.8).
var (
	// ErrWatchOnly is returned by any operation requiring private
	// material on a watch-only wallet.
	ErrWatchOnly = errors.New("wallet: this container is watch-only")

	// ErrBlankWallet is returned by account operations on a wallet
	// created with CreateFromSeedBIP32Blank, which has no default
	// account.
	ErrBlankWallet = errors.New("wallet: this container has no default account")

	// ErrUnknownWalletKind is returned when a header names a kind this
	// build does not recognize.
	ErrUnknownWalletKind = errors.New("wallet: unknown wallet kind")

	// ErrNoSuchPeer is returned when a peer lookup or erase names a
	// public key or peer name that is not registered.
	ErrNoSuchPeer = errors.New("wallet: no such peer")
)

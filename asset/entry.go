package asset

// AssetEntry is a tagged variant over single keys, multisig groups, and
// BIP32 root nodes (spec §3 AssetEntry). Not every field applies to
// every Kind; see the Kind-specific constructors in armory135.go,
// bip32.go, and account.go for which fields a given variant populates.
type AssetEntry struct {
	ID   uint32
	Kind AssetKind

	// Single / BIP32Root
	PubKey    []byte // compressed, 33B
	PrivKey   []byte // nil on a watch-only entry
	Chaincode []byte // BIP32Root only

	// BIP32Root fingerprints (spec §4.7 BIP32: "a private-key request
	// for a given public key can report the full derivation path from
	// seed").
	Depth          uint32
	LeafID         uint32
	ParentFP       uint32
	SeedFP         uint32
	DerivationPath []uint32

	// Multisig
	M, N       int
	SubEntries []uint32 // AssetEntry IDs, resolved via the owning account
}

// Uncompressed reports whether PubKey is stored in legacy uncompressed
// form (65B, 0x04 prefix) rather than compressed form.
func (e *AssetEntry) Uncompressed() bool {
	return len(e.PubKey) == UncompressedPubKeyLen
}

// UncompressedPubKeyLen is the length of an uncompressed secp256k1
// public key encoding.
const UncompressedPubKeyLen = 65

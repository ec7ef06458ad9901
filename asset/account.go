package asset

import (
	"github.com/jmcleod/ironvault/cipher"
	"github.com/jmcleod/ironvault/internal/util"
)

// BIP32Account is a plain, unsalted BIP32 account: address i is the
// non-hardened child at index i of the account root (spec §4.7 BIP32).
type BIP32Account struct {
	Root *BIP32Node
}

// NewBIP32Account wraps root as an address-generating account.
func NewBIP32Account(root *BIP32Node) *BIP32Account { return &BIP32Account{Root: root} }

// GetAddressNode derives address i's node, public-only if Root has been
// stripped (spec §4.7 Watch-only fork).
func (a *BIP32Account) GetAddressNode(i uint32) (*BIP32Node, error) {
	if a.Root.PrivKey != nil {
		return a.Root.DerivePrivate(i)
	}
	return a.Root.DerivePublic(i)
}

// StripPrivateMaterial produces a watch-only copy of the account.
func (a *BIP32Account) StripPrivateMaterial() {
	a.Root = a.Root.GetPublicCopy()
}

// BIP32SaltedAccount is a BIP32 account where every address further
// multiplies the account root's key by a single shared salt scalar
// (spec §4.7 BIP32-salted): effective pub = (Pub_i * salt), effective
// priv = (priv_i * salt) mod n. Used when an external system needs every
// address derived from a fixed root to additionally depend on a secret
// not present in the BIP32 tree itself.
type BIP32SaltedAccount struct {
	Root *BIP32Node
	Salt []byte // 32-byte scalar
}

// NewBIP32SaltedAccount wraps root with a salt scalar. Pass nil to
// generate a fresh random salt.
func NewBIP32SaltedAccount(root *BIP32Node, salt []byte) (*BIP32SaltedAccount, error) {
	if salt == nil {
		var err error
		salt, err = util.RandomBytes(32)
		if err != nil {
			return nil, err
		}
	}
	return &BIP32SaltedAccount{Root: root, Salt: salt}, nil
}

// EffectiveAssetForIndex derives address i's unsalted node, then applies
// the account's salt to both its public and (if present) private key.
func (a *BIP32SaltedAccount) EffectiveAssetForIndex(i uint32) (*AssetEntry, error) {
	node, err := a.Root.DerivePrivate(i)
	if err != nil && err != ErrWatchOnly {
		return nil, err
	}
	if err == ErrWatchOnly {
		node, err = a.Root.DerivePublic(i)
		if err != nil {
			return nil, err
		}
	}

	effectivePub, err := cipher.ScalarMultiplyPoint(node.PubKey, a.Salt)
	if err != nil {
		return nil, err
	}
	entry := &AssetEntry{
		ID:             i,
		Kind:           AssetSingle,
		PubKey:         effectivePub,
		ParentFP:       node.ParentFP,
		Depth:          uint32(node.Depth),
		LeafID:         node.ChildNum,
		DerivationPath: []uint32{node.ChildNum},
	}
	if node.PrivKey != nil {
		effectivePriv, err := cipher.MultiplyScalars(node.PrivKey, a.Salt)
		if err != nil {
			return nil, err
		}
		entry.PrivKey = append([]byte(nil), effectivePriv[:]...)
	}
	return entry, nil
}

// StripPrivateMaterial produces a watch-only copy of the account. The
// salt itself is not private material: it is meaningless without the
// underlying BIP32 tree.
func (a *BIP32SaltedAccount) StripPrivateMaterial() {
	a.Root = a.Root.GetPublicCopy()
}

// ECDHAccount is a static key pair whose addresses are an append-only
// set of salts: address i's effective public key is Pub * salts[i]
// (spec §4.7 ECDH account). Unlike BIP32Salted, an ECDH account has no
// underlying hierarchy: every salt stands alone and AddSalt is
// idempotent, matching how a counterparty-driven ECDH handshake adds
// one agreed salt at a time without ever renumbering existing ones.
type ECDHAccount struct {
	PubKey  []byte
	PrivKey []byte // nil if watch-only
	salts   map[uint32][]byte
	order   []uint32
}

// NewECDHAccount wraps a static key pair as an ECDH account.
func NewECDHAccount(pub, priv []byte) *ECDHAccount {
	return &ECDHAccount{PubKey: pub, PrivKey: priv, salts: make(map[uint32][]byte)}
}

// AddSalt registers salt under id. Idempotent: re-adding the same salt
// under an id already in use is a no-op; adding a different salt under
// an id already bound is ErrDuplicateSalt.
func (a *ECDHAccount) AddSalt(id uint32, salt []byte) error {
	if existing, ok := a.salts[id]; ok {
		if bytesEqual(existing, salt) {
			return nil
		}
		return ErrDuplicateSalt
	}
	a.salts[id] = append([]byte(nil), salt...)
	a.order = append(a.order, id)
	return nil
}

// SaltIDs returns every registered salt id, in the order first added.
func (a *ECDHAccount) SaltIDs() []uint32 {
	return append([]uint32(nil), a.order...)
}

// EffectiveAssetForSalt derives the asset entry for salt id.
func (a *ECDHAccount) EffectiveAssetForSalt(id uint32) (*AssetEntry, error) {
	salt, ok := a.salts[id]
	if !ok {
		return nil, ErrUnknownAsset
	}
	effectivePub, err := cipher.ScalarMultiplyPoint(a.PubKey, salt)
	if err != nil {
		return nil, err
	}
	entry := &AssetEntry{ID: id, Kind: AssetSingle, PubKey: effectivePub}
	if a.PrivKey != nil {
		effectivePriv, err := cipher.MultiplyScalars(a.PrivKey, salt)
		if err != nil {
			return nil, err
		}
		entry.PrivKey = append([]byte(nil), effectivePriv[:]...)
	}
	return entry, nil
}

// StripPrivateMaterial produces a watch-only copy of the account.
func (a *ECDHAccount) StripPrivateMaterial() {
	a.PrivKey = nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

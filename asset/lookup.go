package asset

// AssetAccount unifies the four account variants (Armory135Chain, BIP32,
// BIP32Salted, ECDH) behind one address-issuing operation surface (spec
// §4.7: "accounts expose getNewAddress, getAssetForIndex,
// extendPublicChain, extendPrivateChain, getOutterAssetRoot,
// getAssetPairForKey"), and maintains the address lookup window: the
// next Lookup entries' hashes are always precomputed so a watcher can
// recognize payments to addresses that have not yet been handed out.
type AssetAccount struct {
	Kind AccountKind

	Chain  *Armory135Chain
	Plain  *BIP32Account
	Salted *BIP32SaltedAccount
	ECDH   *ECDHAccount

	Lookup    uint32
	NextIndex uint32

	entries   map[uint32]*AssetEntry
	hashIndex map[[20]byte]uint32
}

func newAssetAccount(kind AccountKind, lookup uint32) *AssetAccount {
	return &AssetAccount{
		Kind:      kind,
		Lookup:    lookup,
		entries:   make(map[uint32]*AssetEntry),
		hashIndex: make(map[[20]byte]uint32),
	}
}

// NewArmory135Account wraps chain as an account with a lookup window of
// size lookup.
func NewArmory135Account(chain *Armory135Chain, lookup uint32) (*AssetAccount, error) {
	a := newAssetAccount(AccountArmory135Chain, lookup)
	a.Chain = chain
	return a, a.fillLookup()
}

// NewBIP32AssetAccount wraps acct as an account with a lookup window of
// size lookup.
func NewBIP32AssetAccount(acct *BIP32Account, lookup uint32) (*AssetAccount, error) {
	a := newAssetAccount(AccountBIP32, lookup)
	a.Plain = acct
	return a, a.fillLookup()
}

// NewBIP32SaltedAssetAccount wraps acct as an account with a lookup
// window of size lookup.
func NewBIP32SaltedAssetAccount(acct *BIP32SaltedAccount, lookup uint32) (*AssetAccount, error) {
	a := newAssetAccount(AccountBIP32Salted, lookup)
	a.Salted = acct
	return a, a.fillLookup()
}

// NewECDHAssetAccount wraps acct as an account. ECDH accounts have no
// intrinsic ordering to look ahead in; GetNewAddress requires the caller
// to AddSalt first and issues salts in the order they were added.
func NewECDHAssetAccount(acct *ECDHAccount) *AssetAccount {
	a := newAssetAccount(AccountECDH, 0)
	a.ECDH = acct
	return a
}

// entryForIndex computes (without caching) the asset entry at i for the
// account's underlying variant.
func (a *AssetAccount) entryForIndex(i uint32) (*AssetEntry, error) {
	switch a.Kind {
	case AccountArmory135Chain:
		return a.Chain.GetAssetForIndex(i)
	case AccountBIP32:
		node, err := a.Plain.GetAddressNode(i)
		if err != nil {
			return nil, err
		}
		return nodeToEntry(i, node), nil
	case AccountBIP32Salted:
		return a.Salted.EffectiveAssetForIndex(i)
	case AccountECDH:
		ids := a.ECDH.SaltIDs()
		if i >= uint32(len(ids)) {
			return nil, ErrUnknownAsset
		}
		return a.ECDH.EffectiveAssetForSalt(ids[i])
	default:
		return nil, ErrUnknownKind
	}
}

func nodeToEntry(i uint32, node *BIP32Node) *AssetEntry {
	return &AssetEntry{
		ID:             i,
		Kind:           AssetSingle,
		PubKey:         node.PubKey,
		PrivKey:        node.PrivKey,
		Depth:          uint32(node.Depth),
		ParentFP:       node.ParentFP,
		LeafID:         node.ChildNum,
		DerivationPath: []uint32{node.ChildNum},
	}
}

// fillLookup (re)computes every entry from NextIndex through
// NextIndex+Lookup-1 that is not already cached.
func (a *AssetAccount) fillLookup() error {
	for i := a.NextIndex; i < a.NextIndex+a.Lookup; i++ {
		if _, ok := a.entries[i]; ok {
			continue
		}
		entry, err := a.entryForIndex(i)
		if err != nil {
			return err
		}
		a.cache(i, entry)
	}
	return nil
}

func (a *AssetAccount) cache(i uint32, entry *AssetEntry) {
	a.entries[i] = entry
	addr := &AddressEntry{Kind: AddressP2PKH, PubKey: entry.PubKey}
	if h, err := addr.Hash160(); err == nil {
		a.hashIndex[h] = i
	}
}

// ExtendLookup grows the lookup window by n entries (spec §4.7 Address
// lookup window: "extending the lookup is an explicit operation").
func (a *AssetAccount) ExtendLookup(n uint32) error {
	a.Lookup += n
	return a.fillLookup()
}

// GetAssetForIndex returns the entry at i, computing and caching it if
// it falls outside the current lookup window.
func (a *AssetAccount) GetAssetForIndex(i uint32) (*AssetEntry, error) {
	if e, ok := a.entries[i]; ok {
		return e, nil
	}
	entry, err := a.entryForIndex(i)
	if err != nil {
		return nil, err
	}
	a.cache(i, entry)
	return entry, nil
}

// GetNewAddress issues the next unused asset as an address of the given
// kind (P2PKH if kind is the zero value), advances NextIndex, and slides
// the lookup window forward by one so it always covers Lookup
// not-yet-issued entries ahead of NextIndex.
func (a *AssetAccount) GetNewAddress(kind AddressKind) (*AddressEntry, error) {
	entry, err := a.GetAssetForIndex(a.NextIndex)
	if err != nil {
		return nil, err
	}
	a.NextIndex++
	if err := a.fillLookup(); err != nil {
		return nil, err
	}
	return addressFromEntry(entry, kind)
}

func addressFromEntry(entry *AssetEntry, kind AddressKind) (*AddressEntry, error) {
	switch kind {
	case AddressP2PK:
		return &AddressEntry{Kind: AddressP2PK, PubKey: entry.PubKey}, nil
	case AddressP2PKHUncompressed:
		return &AddressEntry{Kind: AddressP2PKHUncompressed, PubKey: entry.PubKey}, nil
	case AddressP2WPKH:
		return &AddressEntry{Kind: AddressP2WPKH, PubKey: entry.PubKey}, nil
	case AddressP2PKH:
		return &AddressEntry{Kind: AddressP2PKH, PubKey: entry.PubKey}, nil
	default:
		return &AddressEntry{Kind: AddressP2PKH, PubKey: entry.PubKey}, nil
	}
}

// ExtendPublicChain precomputes n further entries' public material
// without issuing them as addresses (direct analogue of
// Armory135Chain.ExtendPublicChain, generalized across account kinds).
func (a *AssetAccount) ExtendPublicChain(n uint32) error {
	for i := uint32(0); i < n; i++ {
		if _, err := a.GetAssetForIndex(a.NextIndex + a.Lookup + i); err != nil {
			return err
		}
	}
	return nil
}

// ExtendPrivateChain precomputes n further entries including private
// material. Requires the account to carry signing material; fails with
// ErrWatchOnly otherwise (spec §4.7: "requires decrypted-container
// lock" — modeled here as the account's own presence/absence of private
// material, since the asset layer has no lock of its own: the caller is
// expected to have already unlocked the decrypted-data container that
// supplied this account's private key material).
func (a *AssetAccount) ExtendPrivateChain(n uint32) error {
	if !a.hasPrivateMaterial() {
		return ErrWatchOnly
	}
	return a.ExtendPublicChain(n)
}

func (a *AssetAccount) hasPrivateMaterial() bool {
	switch a.Kind {
	case AccountArmory135Chain:
		return len(a.Chain.Entries) > 0 && a.Chain.Entries[0].PrivKey != nil
	case AccountBIP32:
		return a.Plain.Root.PrivKey != nil
	case AccountBIP32Salted:
		return a.Salted.Root.PrivKey != nil
	case AccountECDH:
		return a.ECDH.PrivKey != nil
	default:
		return false
	}
}

// GetOuterAssetRoot returns the account's root asset entry: index 0 for
// every variant (spec §4.7 getOutterAssetRoot).
func (a *AssetAccount) GetOuterAssetRoot() (*AssetEntry, error) {
	return a.GetAssetForIndex(0)
}

// GetAssetPairForKey looks up the asset entry and canonical P2PKH
// address whose hash160 matches hash, searching the current lookup
// window (spec §4.7 getAssetPairForKey).
func (a *AssetAccount) GetAssetPairForKey(hash [20]byte) (*AssetEntry, *AddressEntry, error) {
	i, ok := a.hashIndex[hash]
	if !ok {
		return nil, nil, ErrUnknownAsset
	}
	entry := a.entries[i]
	return entry, &AddressEntry{Kind: AddressP2PKH, PubKey: entry.PubKey}, nil
}

// StripPrivateMaterial produces a watch-only copy of the account's
// underlying variant in place (spec §4.7 Watch-only fork).
func (a *AssetAccount) StripPrivateMaterial() {
	switch a.Kind {
	case AccountArmory135Chain:
		a.Chain.StripPrivateMaterial()
	case AccountBIP32:
		a.Plain.StripPrivateMaterial()
	case AccountBIP32Salted:
		a.Salted.StripPrivateMaterial()
	case AccountECDH:
		a.ECDH.StripPrivateMaterial()
	}
	for i, e := range a.entries {
		e.PrivKey = nil
		a.entries[i] = e
	}
}

// Package asset implements the wallet store's hierarchical asset model
// (spec §4.7): Armory135 chained keys, BIP32 nodes (plain and salted),
// ECDH accounts, address-entry variants, and the address lookup window.
//
// Grounded on the original Armory/BlockSettleDB source's
// CryptoECDSA::ComputeChainedPrivateKey/ComputeChainedPublicKey
// (_examples/original_source/cppForSwig/EncryptionUtils.h, exercised by
// WalletTests.cpp's ArmoryChain_Tests) for the legacy chain, and on
// lnd's input/tweaks package for the Jacobian-point scalar-mult idiom
// BIP32-salted derivation reuses.
package asset

import "github.com/jmcleod/ironvault/cipher"

// ComputeChainedPrivateKey derives the next Armory135 private key from
// priv and chaincode (spec §4.7 Armory135 chain):
//
//	k_{i+1} = (k_i * HMAC-SHA256(pub_i, chaincode)) mod n
//
// where pub_i is priv's compressed public key.
func ComputeChainedPrivateKey(priv, chaincode []byte) ([32]byte, error) {
	pub, err := cipher.DerivePublicKey(priv)
	if err != nil {
		return [32]byte{}, err
	}
	mult := cipher.HMACSHA256(pub, chaincode)
	return cipher.MultiplyScalars(priv, mult[:])
}

// ComputeChainedPublicKey derives the next Armory135 public key from pub
// and chaincode, symmetric to ComputeChainedPrivateKey:
//
//	P_{i+1} = HMAC-SHA256(pub_i, chaincode) * P_i
func ComputeChainedPublicKey(pub, chaincode []byte) ([]byte, error) {
	mult := cipher.HMACSHA256(pub, chaincode)
	return cipher.ScalarMultiplyPoint(pub, mult[:])
}

// Armory135Chain is a legacy Armory 1.35 chained-key account: every
// address advances the root key by one more chained derivation, using
// the same chaincode throughout (spec §4.7).
type Armory135Chain struct {
	Chaincode []byte
	Entries   []*AssetEntry // index 0 is the root; index i+1 is chained from i
	Lookup    uint32
}

// NewArmory135ChainFromPrivateRoot builds a chain rooted at a known
// private key.
func NewArmory135ChainFromPrivateRoot(rootPriv []byte, chaincode []byte) (*Armory135Chain, error) {
	pub, err := cipher.DerivePublicKey(rootPriv)
	if err != nil {
		return nil, err
	}
	root := &AssetEntry{
		ID:     0,
		Kind:   AssetSingle,
		PubKey: pub,
		PrivKey: append([]byte(nil), rootPriv...),
	}
	return &Armory135Chain{Chaincode: append([]byte(nil), chaincode...), Entries: []*AssetEntry{root}}, nil
}

// NewArmory135ChainFromPublicRoot builds a watch-only chain rooted at a
// known public key, with no private material.
func NewArmory135ChainFromPublicRoot(rootPub []byte, chaincode []byte) *Armory135Chain {
	root := &AssetEntry{ID: 0, Kind: AssetSingle, PubKey: append([]byte(nil), rootPub...)}
	return &Armory135Chain{Chaincode: append([]byte(nil), chaincode...), Entries: []*AssetEntry{root}}
}

// ExtendPublicChain derives n further entries' public keys, chaining
// from whichever entry is currently last.
func (c *Armory135Chain) ExtendPublicChain(n uint32) error {
	for i := uint32(0); i < n; i++ {
		prev := c.Entries[len(c.Entries)-1]
		nextPub, err := ComputeChainedPublicKey(prev.PubKey, c.Chaincode)
		if err != nil {
			return err
		}
		c.Entries = append(c.Entries, &AssetEntry{
			ID:     uint32(len(c.Entries)),
			Kind:   AssetSingle,
			PubKey: nextPub,
		})
	}
	return nil
}

// ExtendPrivateChain derives n further entries' private and public keys.
// Requires the chain to have been built from a private root (spec §4.7
// Watch-only fork: stripped chains fail with ErrWatchOnly).
func (c *Armory135Chain) ExtendPrivateChain(n uint32) error {
	prev := c.Entries[len(c.Entries)-1]
	if prev.PrivKey == nil {
		return ErrWatchOnly
	}
	for i := uint32(0); i < n; i++ {
		nextPriv, err := ComputeChainedPrivateKey(prev.PrivKey, c.Chaincode)
		if err != nil {
			return err
		}
		nextPub, err := cipher.DerivePublicKey(nextPriv[:])
		if err != nil {
			return err
		}
		entry := &AssetEntry{
			ID:      uint32(len(c.Entries)),
			Kind:    AssetSingle,
			PubKey:  nextPub,
			PrivKey: append([]byte(nil), nextPriv[:]...),
		}
		c.Entries = append(c.Entries, entry)
		prev = entry
	}
	return nil
}

// StripPrivateMaterial removes every entry's private key, producing a
// watch-only copy (spec §4.7 Watch-only fork).
func (c *Armory135Chain) StripPrivateMaterial() {
	for _, e := range c.Entries {
		e.PrivKey = nil
	}
}

// GetAssetForIndex returns the entry at i, extending the chain on demand
// if the lookup window hasn't reached it yet. A chain rooted from a
// private key extends with private material at every step; a watch-only
// chain extends public-only.
func (c *Armory135Chain) GetAssetForIndex(i uint32) (*AssetEntry, error) {
	private := c.Entries[0].PrivKey != nil
	for uint32(len(c.Entries)) <= i {
		var err error
		if private {
			err = c.ExtendPrivateChain(1)
		} else {
			err = c.ExtendPublicChain(1)
		}
		if err != nil {
			return nil, err
		}
	}
	return c.Entries[i], nil
}

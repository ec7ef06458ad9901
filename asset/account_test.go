package asset

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/jmcleod/ironvault/cipher"
)

func testMasterNode(t *testing.T) *BIP32Node {
	t.Helper()
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	node, err := InitBIP32FromSeed(seed)
	if err != nil {
		t.Fatalf("InitBIP32FromSeed: %v", err)
	}
	return node
}

func TestBIP32AccountWatchOnlyDerivation(t *testing.T) {
	acct := NewBIP32Account(testMasterNode(t))

	node, err := acct.GetAddressNode(0)
	if err != nil {
		t.Fatalf("GetAddressNode(0): %v", err)
	}

	acct.StripPrivateMaterial()
	pubNode, err := acct.GetAddressNode(0)
	if err != nil {
		t.Fatalf("GetAddressNode(0) watch-only: %v", err)
	}
	if !bytes.Equal(pubNode.PubKey, node.PubKey) {
		t.Errorf("watch-only derivation changed the public key: %x != %x", pubNode.PubKey, node.PubKey)
	}
	if pubNode.PrivKey != nil {
		t.Error("watch-only node still carries private material")
	}

	if _, err := acct.GetAddressNode(hardenedOffset); err != ErrPublicFromHardened {
		t.Errorf("hardened derivation on watch-only account = %v, want ErrPublicFromHardened", err)
	}
}

func TestBIP32SaltedAccountConsistency(t *testing.T) {
	acct, err := NewBIP32SaltedAccount(testMasterNode(t), nil)
	if err != nil {
		t.Fatalf("NewBIP32SaltedAccount: %v", err)
	}

	entry, err := acct.EffectiveAssetForIndex(0)
	if err != nil {
		t.Fatalf("EffectiveAssetForIndex(0): %v", err)
	}
	if entry.PrivKey == nil {
		t.Fatal("salted entry from a private root has no private key")
	}

	derivedPub, err := cipher.DerivePublicKey(entry.PrivKey)
	if err != nil {
		t.Fatalf("deriving pub from effective priv: %v", err)
	}
	if !bytes.Equal(derivedPub, entry.PubKey) {
		t.Errorf("effective priv does not match effective pub: %x != %x", derivedPub, entry.PubKey)
	}

	// Every address in the account shares the same salt, so two indices
	// must derive different effective keys.
	entry2, err := acct.EffectiveAssetForIndex(1)
	if err != nil {
		t.Fatalf("EffectiveAssetForIndex(1): %v", err)
	}
	if bytes.Equal(entry.PubKey, entry2.PubKey) {
		t.Error("two different indices produced the same effective public key")
	}
}

func TestECDHAccountIdempotentSalts(t *testing.T) {
	master := testMasterNode(t)
	acct := NewECDHAccount(master.PubKey, master.PrivKey)

	salt := bytes.Repeat([]byte{0x07}, 32)
	if err := acct.AddSalt(1, salt); err != nil {
		t.Fatalf("AddSalt: %v", err)
	}
	if err := acct.AddSalt(1, salt); err != nil {
		t.Errorf("re-adding the same salt under the same id: %v", err)
	}

	otherSalt := bytes.Repeat([]byte{0x08}, 32)
	if err := acct.AddSalt(1, otherSalt); err != ErrDuplicateSalt {
		t.Errorf("AddSalt with a colliding id = %v, want ErrDuplicateSalt", err)
	}

	entry, err := acct.EffectiveAssetForSalt(1)
	if err != nil {
		t.Fatalf("EffectiveAssetForSalt: %v", err)
	}
	derivedPub, err := cipher.DerivePublicKey(entry.PrivKey)
	if err != nil {
		t.Fatalf("deriving pub from effective priv: %v", err)
	}
	if !bytes.Equal(derivedPub, entry.PubKey) {
		t.Errorf("effective priv does not match effective pub: %x != %x", derivedPub, entry.PubKey)
	}

	acct.StripPrivateMaterial()
	watchOnlyEntry, err := acct.EffectiveAssetForSalt(1)
	if err != nil {
		t.Fatalf("EffectiveAssetForSalt watch-only: %v", err)
	}
	if watchOnlyEntry.PrivKey != nil {
		t.Error("watch-only ECDH entry still carries private material")
	}
}

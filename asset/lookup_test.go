package asset

import (
	"bytes"
	"testing"
)

func TestAssetAccountLookupWindowAndGetNewAddress(t *testing.T) {
	plain := NewBIP32Account(testMasterNode(t))
	acct, err := NewBIP32AssetAccount(plain, 5)
	if err != nil {
		t.Fatalf("NewBIP32AssetAccount: %v", err)
	}
	if len(acct.entries) != 5 {
		t.Fatalf("lookup window has %d entries, want 5", len(acct.entries))
	}

	first, err := acct.GetNewAddress(AddressP2PKH)
	if err != nil {
		t.Fatalf("GetNewAddress: %v", err)
	}
	if acct.NextIndex != 1 {
		t.Errorf("NextIndex = %d, want 1", acct.NextIndex)
	}
	// The window must have slid forward to keep covering 5 unissued
	// entries ahead of NextIndex.
	if _, ok := acct.entries[5]; !ok {
		t.Error("lookup window did not extend to index 5 after issuing index 0")
	}

	entry0, err := acct.GetAssetForIndex(0)
	if err != nil {
		t.Fatalf("GetAssetForIndex(0): %v", err)
	}
	h, err := first.Hash160()
	if err != nil {
		t.Fatalf("Hash160: %v", err)
	}
	gotEntry, gotAddr, err := acct.GetAssetPairForKey(h)
	if err != nil {
		t.Fatalf("GetAssetPairForKey: %v", err)
	}
	if !bytes.Equal(gotEntry.PubKey, entry0.PubKey) {
		t.Errorf("GetAssetPairForKey returned wrong entry: %x != %x", gotEntry.PubKey, entry0.PubKey)
	}
	gotH, _ := gotAddr.Hash160()
	if gotH != h {
		t.Error("GetAssetPairForKey returned address with mismatched hash")
	}
}

func TestAssetAccountExtendPrivateChainRequiresPrivateMaterial(t *testing.T) {
	master := testMasterNode(t).GetPublicCopy()
	plain := NewBIP32Account(master)
	acct, err := NewBIP32AssetAccount(plain, 2)
	if err != nil {
		t.Fatalf("NewBIP32AssetAccount: %v", err)
	}
	if err := acct.ExtendPrivateChain(1); err != ErrWatchOnly {
		t.Errorf("ExtendPrivateChain on watch-only account = %v, want ErrWatchOnly", err)
	}
	if err := acct.ExtendPublicChain(1); err != nil {
		t.Errorf("ExtendPublicChain on watch-only account: %v", err)
	}
}

func TestAssetAccountArmory135Lookup(t *testing.T) {
	chaincode := bytes.Repeat([]byte{0x09}, 32)
	rootPriv := bytes.Repeat([]byte{0x0a}, 32)
	chain, err := NewArmory135ChainFromPrivateRoot(rootPriv, chaincode)
	if err != nil {
		t.Fatalf("NewArmory135ChainFromPrivateRoot: %v", err)
	}
	acct, err := NewArmory135Account(chain, 3)
	if err != nil {
		t.Fatalf("NewArmory135Account: %v", err)
	}

	root, err := acct.GetOuterAssetRoot()
	if err != nil {
		t.Fatalf("GetOuterAssetRoot: %v", err)
	}
	if !bytes.Equal(root.PubKey, chain.Entries[0].PubKey) {
		t.Error("GetOuterAssetRoot did not return the chain root")
	}

	if err := acct.ExtendLookup(4); err != nil {
		t.Fatalf("ExtendLookup: %v", err)
	}
	if acct.Lookup != 7 {
		t.Errorf("Lookup = %d, want 7", acct.Lookup)
	}

	acct.StripPrivateMaterial()
	for i, e := range acct.entries {
		if e.PrivKey != nil {
			t.Errorf("entry %d still has private key after StripPrivateMaterial", i)
		}
	}
}

func TestAssetAccountECDHIssuesInAddOrder(t *testing.T) {
	master := testMasterNode(t)
	ecdh := NewECDHAccount(master.PubKey, master.PrivKey)
	if err := ecdh.AddSalt(10, bytes.Repeat([]byte{0x01}, 32)); err != nil {
		t.Fatalf("AddSalt: %v", err)
	}
	if err := ecdh.AddSalt(20, bytes.Repeat([]byte{0x02}, 32)); err != nil {
		t.Fatalf("AddSalt: %v", err)
	}

	acct := NewECDHAssetAccount(ecdh)
	e0, err := acct.GetAssetForIndex(0)
	if err != nil {
		t.Fatalf("GetAssetForIndex(0): %v", err)
	}
	want0, err := ecdh.EffectiveAssetForSalt(10)
	if err != nil {
		t.Fatalf("EffectiveAssetForSalt(10): %v", err)
	}
	if !bytes.Equal(e0.PubKey, want0.PubKey) {
		t.Error("ECDH asset account index 0 did not match the first added salt")
	}

	if _, err := acct.GetAssetForIndex(5); err != ErrUnknownAsset {
		t.Errorf("GetAssetForIndex past salt count = %v, want ErrUnknownAsset", err)
	}
}

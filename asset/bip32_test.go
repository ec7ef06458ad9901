package asset

import (
	"encoding/hex"
	"testing"
)

// BIP-0032 published test vector 1.
func TestBIP32Vector1(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")

	master, err := InitBIP32FromSeed(seed)
	if err != nil {
		t.Fatalf("InitBIP32FromSeed: %v", err)
	}

	wantXprv := "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi"
	if got := master.Base58(); got != wantXprv {
		t.Errorf("master xprv = %s, want %s", got, wantXprv)
	}

	wantPriv := "e8f32e723decf4051aefac8e2c93c9c5b214313817cdb01a1494b917c8436b3"
	if got := hex.EncodeToString(master.PrivKey); got != wantPriv {
		t.Errorf("master priv = %s, want %s", got, wantPriv)
	}

	child, err := master.DerivePrivate(hardenedOffset)
	if err != nil {
		t.Fatalf("DerivePrivate(0'): %v", err)
	}
	wantChildXprv := "xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvUxt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7"
	if got := child.Base58(); got != wantChildXprv {
		t.Errorf("m/0' xprv = %s, want %s", got, wantChildXprv)
	}
}

func TestBIP32RoundTripBase58(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	master, err := InitBIP32FromSeed(seed)
	if err != nil {
		t.Fatalf("InitBIP32FromSeed: %v", err)
	}

	parsed, err := InitBIP32FromBase58(master.Base58())
	if err != nil {
		t.Fatalf("InitBIP32FromBase58: %v", err)
	}
	if parsed.Base58() != master.Base58() {
		t.Errorf("round-trip mismatch: %s != %s", parsed.Base58(), master.Base58())
	}

	pubOnly := master.GetPublicCopy()
	parsedPub, err := InitBIP32FromBase58(pubOnly.Base58())
	if err != nil {
		t.Fatalf("InitBIP32FromBase58(xpub): %v", err)
	}
	if parsedPub.PrivKey != nil {
		t.Errorf("parsed xpub carries private material")
	}
}

func TestBIP32PublicAndPrivateDerivationAgree(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	master, err := InitBIP32FromSeed(seed)
	if err != nil {
		t.Fatalf("InitBIP32FromSeed: %v", err)
	}

	// Non-hardened child: private derivation's public key must match
	// public-only derivation from the parent's public key.
	privChild, err := master.DerivePrivate(0)
	if err != nil {
		t.Fatalf("DerivePrivate(0): %v", err)
	}
	pubOnlyParent := master.GetPublicCopy()
	pubChild, err := pubOnlyParent.DerivePublic(0)
	if err != nil {
		t.Fatalf("DerivePublic(0): %v", err)
	}
	if hex.EncodeToString(privChild.PubKey) != hex.EncodeToString(pubChild.PubKey) {
		t.Errorf("public/private derivation disagree: %x != %x", pubChild.PubKey, privChild.PubKey)
	}
}

func TestBIP32HardenedRequiresPrivateKey(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	master, err := InitBIP32FromSeed(seed)
	if err != nil {
		t.Fatalf("InitBIP32FromSeed: %v", err)
	}
	pubOnly := master.GetPublicCopy()
	if _, err := pubOnly.DerivePublic(hardenedOffset); err != ErrPublicFromHardened {
		t.Errorf("DerivePublic(hardened) on watch-only = %v, want ErrPublicFromHardened", err)
	}
	if _, err := pubOnly.DerivePrivate(0); err != ErrWatchOnly {
		t.Errorf("DerivePrivate on watch-only = %v, want ErrWatchOnly", err)
	}
}

func TestBIP32InvalidExtendedKeyChecksum(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	master, err := InitBIP32FromSeed(seed)
	if err != nil {
		t.Fatalf("InitBIP32FromSeed: %v", err)
	}
	xprv := []byte(master.Base58())
	xprv[len(xprv)-1] ^= 0x01
	if _, err := InitBIP32FromBase58(string(xprv)); err == nil {
		t.Error("corrupted xprv parsed without error")
	}
}

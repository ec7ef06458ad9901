package asset

import (
	"encoding/hex"
	"testing"
)

func TestBase58P2SHRoundTrip(t *testing.T) {
	var h [20]byte
	for i := range h {
		h[i] = byte(i)
	}

	addr := &AddressEntry{Kind: AddressP2SH, Inner: h[:]}
	got, err := addr.String(MainNet)
	if err != nil {
		t.Fatalf("String: %v", err)
	}

	decodedHash, isP2SH, err := DecodeBase58Address(got, MainNet)
	if err != nil {
		t.Fatalf("DecodeBase58Address: %v", err)
	}
	if !isP2SH {
		t.Error("expected isP2SH=true")
	}
	if decodedHash != h {
		t.Errorf("decoded hash %x != original %x", decodedHash, h)
	}
}

func TestBase58AddressVectorP2PKH(t *testing.T) {
	hash, _ := hex.DecodeString("00010966776006953d5567439e5e39f86a0d273bee")
	var h [20]byte
	copy(h[:], hash[1:])

	got := base58CheckEncode(h[:], MainNet.P2PKHVersion)
	want := "16UwLL9Risc3QfPqBUvKofHmBQ7wMtjvM"
	if got != want {
		t.Errorf("base58CheckEncode = %s, want %s", got, want)
	}

	decodedHash, isP2SH, err := DecodeBase58Address(got, MainNet)
	if err != nil {
		t.Fatalf("DecodeBase58Address: %v", err)
	}
	if isP2SH {
		t.Error("expected isP2SH=false")
	}
	if decodedHash != h {
		t.Errorf("decoded hash %x != original %x", decodedHash, h)
	}
}

func TestBech32P2WPKHVector(t *testing.T) {
	pub, _ := hex.DecodeString("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	addr := &AddressEntry{Kind: AddressP2WPKH, PubKey: pub}
	got, err := addr.String(MainNet)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	want := "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	if got != want {
		t.Errorf("P2WPKH address = %s, want %s", got, want)
	}
}

func TestBech32DecodeRejectsCorruptChecksum(t *testing.T) {
	_, err := DecodeSegwitV0Address("bca0w508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t490035", MainNet)
	if err == nil {
		t.Error("corrupted bech32 address decoded without error")
	}
}

func TestBech32RoundTripP2WSH(t *testing.T) {
	inner := make([]byte, 32)
	for i := range inner {
		inner[i] = byte(i)
	}
	addr := &AddressEntry{Kind: AddressP2WSH, Inner: inner}
	s, err := addr.String(MainNet)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	decoded, err := DecodeSegwitV0Address(s, MainNet)
	if err != nil {
		t.Fatalf("DecodeSegwitV0Address: %v", err)
	}
	if len(decoded) != 32 {
		t.Fatalf("decoded program length = %d, want 32", len(decoded))
	}
	for i := range inner {
		if decoded[i] != inner[i] {
			t.Fatalf("decoded program mismatch at byte %d", i)
		}
	}
}

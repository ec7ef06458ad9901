package asset

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/jmcleod/ironvault/cipher"
)

// ErrInvalidAddress is returned by address decoding on a bad checksum,
// wrong HRP, or malformed length (spec §6 Address encodings).
var ErrInvalidAddress = errors.New("asset: invalid address")

// Network carries the version bytes and human-readable part an address
// encoding needs, so the asset package never hardcodes mainnet-only
// constants (spec §6: "a network-dependent version byte"/"HRP").
type Network struct {
	P2PKHVersion byte
	P2SHVersion  byte
	Bech32HRP    string
}

// MainNet is Bitcoin mainnet's address parameters.
var MainNet = Network{P2PKHVersion: 0x00, P2SHVersion: 0x05, Bech32HRP: "bc"}

// AddressEntry is a tagged variant over the address script types an
// asset can be spent through (spec §3 AddressEntry).
type AddressEntry struct {
	Kind   AddressKind
	PubKey []byte   // P2PK, P2PKH, P2PKH_U, P2WPKH
	Inner  []byte   // P2SH, P2WSH: the inner script/program hash
	M      int      // Multisig
	Keys   [][]byte // Multisig
}

// Hash160 returns the address's script hash, the value a lookup window
// indexes addresses by (spec §4.7 Address lookup window).
func (a *AddressEntry) Hash160() ([20]byte, error) {
	switch a.Kind {
	case AddressP2PK, AddressP2PKH, AddressP2PKHUncompressed, AddressP2WPKH:
		return cipher.Hash160(a.PubKey), nil
	case AddressP2SH, AddressP2WSH:
		var out [20]byte
		copy(out[:], a.Inner)
		return out, nil
	default:
		return [20]byte{}, ErrUnknownKind
	}
}

// String encodes the address per net: Base58Check for P2PKH/P2SH, Bech32
// for the SegWit v0 kinds (spec §6 Address encodings).
func (a *AddressEntry) String(net Network) (string, error) {
	switch a.Kind {
	case AddressP2PKH, AddressP2PKHUncompressed:
		h := cipher.Hash160(a.PubKey)
		return base58CheckEncode(h[:], net.P2PKHVersion), nil
	case AddressP2SH:
		return base58CheckEncode(a.Inner, net.P2SHVersion), nil
	case AddressP2WPKH:
		h := cipher.Hash160(a.PubKey)
		return encodeSegwitV0(net.Bech32HRP, h[:])
	case AddressP2WSH:
		return encodeSegwitV0(net.Bech32HRP, a.Inner)
	default:
		return "", ErrUnknownKind
	}
}

// base58CheckEncode is Base58Check with a single-byte version prefix
// (P2PKH/P2SH addresses, unlike BIP32 extended keys' 4-byte prefix).
func base58CheckEncode(payload []byte, version byte) string {
	return base58.CheckEncode(payload, version)
}

// DecodeBase58Address parses a Base58Check address string against net,
// returning the decoded hash160 and whether it was a P2SH version byte.
func DecodeBase58Address(s string, net Network) (hash [20]byte, isP2SH bool, err error) {
	decoded, version, err := base58.CheckDecode(s)
	if err != nil || len(decoded) != 20 {
		return hash, false, ErrInvalidAddress
	}
	switch version {
	case net.P2PKHVersion:
		isP2SH = false
	case net.P2SHVersion:
		isP2SH = true
	default:
		return hash, false, ErrInvalidAddress
	}
	copy(hash[:], decoded)
	return hash, isP2SH, nil
}

// encodeSegwitV0 bech32-encodes a SegWit version-0 program (20B for
// P2WPKH, 32B for P2WSH): witness version 0 prepended to the 5-bit
// regrouped program, per BIP173.
func encodeSegwitV0(hrp string, program []byte) (string, error) {
	converted, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", ErrInvalidAddress
	}
	data := append([]byte{0x00}, converted...)
	s, err := bech32.Encode(hrp, data)
	if err != nil {
		return "", ErrInvalidAddress
	}
	return s, nil
}

// DecodeSegwitV0Address parses a Bech32 SegWit v0 address string
// against net's HRP, returning the decoded witness program. Rejects
// wrong HRPs, bad checksums, and non-v0 witness versions.
func DecodeSegwitV0Address(s string, net Network) ([]byte, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil || hrp != net.Bech32HRP || len(data) < 1 {
		return nil, ErrInvalidAddress
	}
	if data[0] != 0x00 {
		return nil, ErrInvalidAddress
	}
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	if len(program) != 20 && len(program) != 32 {
		return nil, ErrInvalidAddress
	}
	return program, nil
}

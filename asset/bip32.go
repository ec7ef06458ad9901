package asset

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"

	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/jmcleod/ironvault/cipher"
)

// BIP32 mainnet extended-key version bytes (spec §4.7 BIP32).
const (
	bip32PrivVersion = 0x0488ADE4
	bip32PubVersion  = 0x0488B21E

	hardenedOffset = uint32(0x80000000)
)

var (
	ErrInvalidExtendedKey = errors.New("asset: invalid extended key encoding")
	ErrPublicFromHardened = errors.New("asset: cannot derive hardened child from a public-only node")
)

// BIP32Node is a single node in a BIP32 hierarchical-deterministic tree
// (spec §4.7 BIP32). A node with PrivKey == nil is public-only: it can
// derive further public-only children but never a hardened child.
type BIP32Node struct {
	Depth     uint8
	ParentFP  uint32
	ChildNum  uint32
	Chaincode [32]byte
	PubKey    []byte // compressed, 33B
	PrivKey   []byte // nil on a public-only node
}

// InitBIP32FromSeed builds the master node of a new tree from a seed,
// following BIP-0032 §"Master key generation": HMAC-SHA512 with the
// fixed key "Bitcoin seed".
func InitBIP32FromSeed(seed []byte) (*BIP32Node, error) {
	sum := cipher.HMACSHA512([]byte("Bitcoin seed"), seed)
	il, ir := sum[:32], sum[32:]
	if err := cipher.ValidatePrivateKey(il); err != nil {
		return nil, err
	}
	pub, err := cipher.DerivePublicKey(il)
	if err != nil {
		return nil, err
	}
	node := &BIP32Node{PrivKey: append([]byte(nil), il...), PubKey: pub}
	copy(node.Chaincode[:], ir)
	return node, nil
}

// fingerprint is the first 4 bytes of Hash160(compressed pubkey), BIP32's
// key identifier.
func (n *BIP32Node) fingerprint() uint32 {
	h := cipher.Hash160(n.PubKey)
	return binary.BigEndian.Uint32(h[:4])
}

// IsHardened reports whether idx names a hardened child index.
func IsHardened(idx uint32) bool { return idx >= hardenedOffset }

// DerivePrivate derives child idx from n. idx >= 0x80000000 requests a
// hardened child, which requires n to carry private material.
func (n *BIP32Node) DerivePrivate(idx uint32) (*BIP32Node, error) {
	if n.PrivKey == nil {
		return nil, ErrWatchOnly
	}
	var data []byte
	if IsHardened(idx) {
		data = make([]byte, 0, 37)
		data = append(data, 0x00)
		data = append(data, n.PrivKey...)
	} else {
		data = append([]byte(nil), n.PubKey...)
	}
	var idxBuf [4]byte
	binary.BigEndian.PutUint32(idxBuf[:], idx)
	data = append(data, idxBuf[:]...)

	sum := cipher.HMACSHA512(n.Chaincode[:], data)
	il, ir := sum[:32], sum[32:]

	childPriv, err := cipher.AddScalars(il, n.PrivKey)
	if err != nil {
		return nil, err
	}
	pub, err := cipher.DerivePublicKey(childPriv[:])
	if err != nil {
		return nil, err
	}

	child := &BIP32Node{
		Depth:    n.Depth + 1,
		ParentFP: n.fingerprint(),
		ChildNum: idx,
		PrivKey:  append([]byte(nil), childPriv[:]...),
		PubKey:   pub,
	}
	copy(child.Chaincode[:], ir)
	return child, nil
}

// DerivePublic derives child idx from n's public material only. Fails
// with ErrPublicFromHardened if idx names a hardened child and n has no
// private material to derive it from first.
func (n *BIP32Node) DerivePublic(idx uint32) (*BIP32Node, error) {
	if IsHardened(idx) {
		if n.PrivKey == nil {
			return nil, ErrPublicFromHardened
		}
		child, err := n.DerivePrivate(idx)
		if err != nil {
			return nil, err
		}
		child.PrivKey = nil
		return child, nil
	}

	var idxBuf [4]byte
	binary.BigEndian.PutUint32(idxBuf[:], idx)
	data := append(append([]byte(nil), n.PubKey...), idxBuf[:]...)

	sum := cipher.HMACSHA512(n.Chaincode[:], data)
	il := sum[:32]

	ilPoint, err := cipher.DerivePublicKey(il)
	if err != nil {
		return nil, err
	}
	addedPub, err := cipher.AddPublicKeys(ilPoint, n.PubKey)
	if err != nil {
		return nil, err
	}

	child := &BIP32Node{
		Depth:    n.Depth + 1,
		ParentFP: n.fingerprint(),
		ChildNum: idx,
		PubKey:   addedPub,
	}
	copy(child.Chaincode[:], sum[32:])
	return child, nil
}

// GetPublicCopy returns a copy of n with all private material stripped
// (spec §4.7 Watch-only fork).
func (n *BIP32Node) GetPublicCopy() *BIP32Node {
	cp := *n
	cp.PrivKey = nil
	cp.PubKey = append([]byte(nil), n.PubKey...)
	return &cp
}

// Base58 serializes n as a BIP32 extended key string: xprv if n carries
// private material, xpub otherwise. BIP32's version prefix is 4 bytes,
// wider than the single-byte version btcutil/base58's CheckEncode
// assumes for Bitcoin addresses, so the checksum is applied by hand
// here rather than via CheckEncode/CheckDecode.
func (n *BIP32Node) Base58() string {
	buf := make([]byte, 0, 82)
	var ver [4]byte
	if n.PrivKey != nil {
		binary.BigEndian.PutUint32(ver[:], bip32PrivVersion)
	} else {
		binary.BigEndian.PutUint32(ver[:], bip32PubVersion)
	}
	buf = append(buf, ver[:]...)
	buf = append(buf, n.Depth)
	var parentFP, childNum [4]byte
	binary.BigEndian.PutUint32(parentFP[:], n.ParentFP)
	binary.BigEndian.PutUint32(childNum[:], n.ChildNum)
	buf = append(buf, parentFP[:]...)
	buf = append(buf, childNum[:]...)
	buf = append(buf, n.Chaincode[:]...)
	if n.PrivKey != nil {
		buf = append(buf, 0x00)
		buf = append(buf, n.PrivKey...)
	} else {
		buf = append(buf, n.PubKey...)
	}
	checksum := cipher.Hash256(buf)
	buf = append(buf, checksum[:4]...)
	return base58.Encode(buf)
}

// InitBIP32FromBase58 parses an xprv/xpub extended-key string.
func InitBIP32FromBase58(xkey string) (*BIP32Node, error) {
	full := base58.Decode(xkey)
	if len(full) != 82 {
		return nil, ErrInvalidExtendedKey
	}
	payload, checksum := full[:78], full[78:]
	want := cipher.Hash256(payload)
	if subtle.ConstantTimeCompare(want[:4], checksum) != 1 {
		return nil, ErrInvalidExtendedKey
	}

	ver := binary.BigEndian.Uint32(payload[0:4])
	n := &BIP32Node{
		Depth:    payload[4],
		ParentFP: binary.BigEndian.Uint32(payload[5:9]),
		ChildNum: binary.BigEndian.Uint32(payload[9:13]),
	}
	copy(n.Chaincode[:], payload[13:45])
	switch ver {
	case bip32PrivVersion:
		if payload[45] != 0x00 {
			return nil, ErrInvalidExtendedKey
		}
		priv := payload[46:78]
		pub, err := cipher.DerivePublicKey(priv)
		if err != nil {
			return nil, err
		}
		n.PrivKey = append([]byte(nil), priv...)
		n.PubKey = pub
	case bip32PubVersion:
		n.PubKey = append([]byte(nil), payload[45:78]...)
	default:
		return nil, ErrInvalidExtendedKey
	}
	return n, nil
}

package cipher

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// PrivKeySize and CompressedPubKeySize are secp256k1's scalar and
// compressed point encoding sizes.
const (
	PrivKeySize            = 32
	CompressedPubKeySize   = 33
	UncompressedPubKeySize = 65
)

// ErrInvalidKey is returned for scalars or points that are not valid
// secp256k1 key material.
type ErrInvalidKey struct{ Reason string }

func (e *ErrInvalidKey) Error() string { return "cipher: invalid key: " + e.Reason }

// ValidatePrivateKey reports whether priv is a valid, non-zero scalar
// strictly less than the curve order (spec §4.2 ECDSA validate).
func ValidatePrivateKey(priv []byte) error {
	if len(priv) != PrivKeySize {
		return &ErrInvalidKey{Reason: "private key must be 32 bytes"}
	}
	var scalar btcec.ModNScalar
	overflow := scalar.SetByteSlice(priv)
	if overflow {
		return &ErrInvalidKey{Reason: "scalar overflows curve order"}
	}
	if scalar.IsZero() {
		return &ErrInvalidKey{Reason: "scalar is zero"}
	}
	return nil
}

// ReduceScalar interprets b as a big-endian integer and reduces it modulo
// the secp256k1 group order, returning a 32-byte scalar always suitable as
// a private key. Used to turn raw HMAC output (spec §4.4's key-pair
// derivation) into a valid EC scalar without re-deriving on overflow.
func ReduceScalar(b []byte) [32]byte {
	var scalar btcec.ModNScalar
	scalar.SetByteSlice(b)
	var out [32]byte
	scalar.PutBytes(&out)
	return out
}

// DerivePublicKey computes the compressed public key for a private scalar.
func DerivePublicKey(priv []byte) ([]byte, error) {
	if err := ValidatePrivateKey(priv); err != nil {
		return nil, err
	}
	privKey, pubKey := btcec.PrivKeyFromBytes(priv)
	defer privKey.Zero()
	return pubKey.SerializeCompressed(), nil
}

// CompressPubKey re-encodes a public key (compressed or uncompressed) in
// compressed form.
func CompressPubKey(pub []byte) ([]byte, error) {
	p, err := btcec.ParsePubKey(pub)
	if err != nil {
		return nil, fmt.Errorf("cipher: parsing public key: %w", err)
	}
	return p.SerializeCompressed(), nil
}

// UncompressPubKey re-encodes a public key in uncompressed form.
func UncompressPubKey(pub []byte) ([]byte, error) {
	p, err := btcec.ParsePubKey(pub)
	if err != nil {
		return nil, fmt.Errorf("cipher: parsing public key: %w", err)
	}
	return p.SerializeUncompressed(), nil
}

// ECDHSecret computes the x-coordinate of priv*Pub, the shared secret used
// by IES record envelopes and ECDH asset accounts (spec §5.4, §6.2). The
// result is hashed with SHA-256 before use as key material, matching the
// original Armory source's use of CryptoECDSA::ComputeOwnerKey /
// btc_ecPoint scalar multiplication followed by a KDF.
func ECDHSecret(priv []byte, pub []byte) ([32]byte, error) {
	if err := ValidatePrivateKey(priv); err != nil {
		return [32]byte{}, err
	}
	pubKey, err := btcec.ParsePubKey(pub)
	if err != nil {
		return [32]byte{}, fmt.Errorf("cipher: parsing public key: %w", err)
	}

	var privScalar btcec.ModNScalar
	privScalar.SetByteSlice(priv)

	var result btcec.JacobianPoint
	pubKey.AsJacobian(&result)
	btcec.ScalarMultNonConst(&privScalar, &result, &result)
	result.ToAffine()

	xBytes := result.X.Bytes()
	return SHA256(xBytes[:]), nil
}

// ScalarMultiplyPoint multiplies pub by scalar and returns the resulting
// point, compressed. Used by BIP32-salted and ECDH asset accounts (spec
// §4.7) to compute an account's effective public key `Pub · salt`.
func ScalarMultiplyPoint(pub []byte, scalar []byte) ([]byte, error) {
	pubKey, err := btcec.ParsePubKey(pub)
	if err != nil {
		return nil, fmt.Errorf("cipher: parsing public key: %w", err)
	}
	var s btcec.ModNScalar
	if overflow := s.SetByteSlice(scalar); overflow {
		return nil, &ErrInvalidKey{Reason: "salt scalar overflows curve order"}
	}
	if s.IsZero() {
		return nil, &ErrInvalidKey{Reason: "salt scalar is zero"}
	}

	var point btcec.JacobianPoint
	pubKey.AsJacobian(&point)
	btcec.ScalarMultNonConst(&s, &point, &point)
	point.ToAffine()

	resultPub := btcec.NewPublicKey(&point.X, &point.Y)
	return resultPub.SerializeCompressed(), nil
}

// MultiplyScalars computes (a*b) mod n, the private-key analogue of
// ScalarMultiplyPoint (spec §4.7 BIP32-salted: `priv · salt`).
func MultiplyScalars(a, b []byte) ([32]byte, error) {
	var sa, sb btcec.ModNScalar
	if overflow := sa.SetByteSlice(a); overflow {
		return [32]byte{}, &ErrInvalidKey{Reason: "scalar a overflows curve order"}
	}
	if overflow := sb.SetByteSlice(b); overflow {
		return [32]byte{}, &ErrInvalidKey{Reason: "scalar b overflows curve order"}
	}
	sa.Mul(&sb)
	var out [32]byte
	sa.PutBytes(&out)
	return out, nil
}

// AddScalars computes (a+b) mod n, the tweak-by-addition counterpart to
// MultiplyScalars. Used by BIP32's non-salted private-key derivation
// (spec §4.7 BIP32): `childPriv = (IL + parentPriv) mod n`. Grounded on
// lnd's input/tweaks.TweakPrivKey.
func AddScalars(a, b []byte) ([32]byte, error) {
	var sa, sb btcec.ModNScalar
	if overflow := sa.SetByteSlice(a); overflow {
		return [32]byte{}, &ErrInvalidKey{Reason: "scalar a overflows curve order"}
	}
	if overflow := sb.SetByteSlice(b); overflow {
		return [32]byte{}, &ErrInvalidKey{Reason: "scalar b overflows curve order"}
	}
	sa.Add(&sb)
	var out [32]byte
	sa.PutBytes(&out)
	return out, nil
}

// AddPublicKeys adds two public keys as elliptic-curve points, returned
// compressed. The public-derivation counterpart to AddScalars: BIP32's
// `childPub = point(IL) + parentPub`. Grounded on lnd's
// input/tweaks.TweakPubKeyWithTweak.
func AddPublicKeys(a, b []byte) ([]byte, error) {
	pa, err := btcec.ParsePubKey(a)
	if err != nil {
		return nil, fmt.Errorf("cipher: parsing public key: %w", err)
	}
	pb, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("cipher: parsing public key: %w", err)
	}
	var ja, jb, sum btcec.JacobianPoint
	pa.AsJacobian(&ja)
	pb.AsJacobian(&jb)
	btcec.AddNonConst(&ja, &jb, &sum)
	sum.ToAffine()
	return btcec.NewPublicKey(&sum.X, &sum.Y).SerializeCompressed(), nil
}

// Sign produces an RFC 6979 deterministic ECDSA signature over hash,
// normalized to low-S form (spec §4.2), DER-encoded.
func Sign(priv []byte, hash []byte) ([]byte, error) {
	if err := ValidatePrivateKey(priv); err != nil {
		return nil, err
	}
	privKey, _ := btcec.PrivKeyFromBytes(priv)
	defer privKey.Zero()

	sig := ecdsa.Sign(privKey, hash)
	return sig.Serialize(), nil
}

// Verify checks a DER-encoded ECDSA signature against a compressed or
// uncompressed public key and message hash.
func Verify(pub []byte, hash []byte, sig []byte) (bool, error) {
	pubKey, err := btcec.ParsePubKey(pub)
	if err != nil {
		return false, fmt.Errorf("cipher: parsing public key: %w", err)
	}
	parsedSig, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false, fmt.Errorf("cipher: parsing signature: %w", err)
	}
	return parsedSig.Verify(hash, pubKey), nil
}

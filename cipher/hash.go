// Package cipher is the wallet store's cipher-primitives façade (spec
// §4.2): SHA-256/512, HMAC-256/512, hash256, hash160, AES-256-CBC with
// PKCS#7 padding, secp256k1 key validation/derivation/ECDH/signing, a
// system CSPRNG, and a Fortuna-style auxiliary PRNG (see prng.go).
//
// It is one small file per primitive family, following the static-method
// façade shape of the original Armory source's CryptoSHA2/CryptoHASH160/
// CryptoAES/CryptoECDSA classes (EncryptionUtils.h), and the teacher's
// (jmcleod-ironhand) convention of a single-concern file per cipher
// operation (internal/util/aes.go).
package cipher

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for hash160
)

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// SHA512 returns the SHA-512 digest of data.
func SHA512(data []byte) [64]byte {
	return sha512.Sum512(data)
}

// Hash256 is double-SHA-256: SHA256(SHA256(data)).
func Hash256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// Hash160 is RIPEMD160(SHA256(data)), the address-hash primitive.
func Hash160(data []byte) [20]byte {
	sha := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sha[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}

// HMACSHA256 computes HMAC-SHA-256(key, msg).
func HMACSHA256(key, msg []byte) [32]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// HMACSHA512 computes HMAC-SHA-512(key, msg).
func HMACSHA512(key, msg []byte) [64]byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(msg)
	var out [64]byte
	copy(out[:], mac.Sum(nil))
	return out
}

package recordstore

import (
	"fmt"

	"github.com/jmcleod/ironvault/cipher"
	"github.com/jmcleod/ironvault/internal/wire"
)

// keyPair is the symmetric encryption/MAC key-pair derived for one
// key-pair counter (spec §4.4 Key-stream).
type keyPair struct {
	encPriv [32]byte
	pub     []byte // compressed
	macKey  [32]byte
}

// deriveKeyPair computes (encPriv_i, macKey_i) for key-pair counter i.
//
//	saltedRoot = HMAC-SHA256(controlSalt, controlRoot)
//	(encPriv_i, macKey_i) = split32|32(HMAC-SHA512(be32(i), saltedRoot))
func deriveKeyPair(controlSalt, controlRoot []byte, i uint32) (*keyPair, error) {
	saltedRoot := cipher.HMACSHA256(controlSalt, controlRoot)
	h := cipher.HMACSHA512(wire.BE32(i), saltedRoot[:])

	kp := &keyPair{}
	kp.encPriv = cipher.ReduceScalar(h[:32])
	copy(kp.macKey[:], h[32:])

	pub, err := cipher.DerivePublicKey(kp.encPriv[:])
	if err != nil {
		return nil, fmt.Errorf("recordstore: deriving key-pair %d: %w", i, err)
	}
	kp.pub = pub
	return kp, nil
}

// encodeRecord seals (dataKey, dataVal) into an IES packet bound to
// recordCounter under kp (spec §4.4 IES record format and HMAC).
func encodeRecord(kp *keyPair, recordCounter uint32, dataKey, dataVal []byte) ([]byte, error) {
	ephemeralPriv, err := cipher.RandomBytes(32)
	if err != nil {
		return nil, fmt.Errorf("recordstore: generating ephemeral key: %w", err)
	}
	reducedEphemeralPriv := cipher.ReduceScalar(ephemeralPriv)
	ephemeralPriv = reducedEphemeralPriv[:]
	ephemeralPub, err := cipher.DerivePublicKey(ephemeralPriv)
	if err != nil {
		return nil, fmt.Errorf("recordstore: deriving ephemeral pubkey: %w", err)
	}

	shared, err := cipher.ECDHSecret(ephemeralPriv, kp.pub)
	if err != nil {
		return nil, fmt.Errorf("recordstore: computing shared secret: %w", err)
	}

	hmacMsg := buildHMACMessage(dataKey, dataVal, recordCounter)
	h := cipher.HMACSHA256(kp.macKey[:], hmacMsg)

	var plain []byte
	plain = append(plain, h[:]...)
	plain = wire.PutVarint(plain, dataKey)
	plain = wire.PutVarint(plain, dataVal)

	sealed, err := cipher.EncryptCBC(shared[:], plain)
	if err != nil {
		return nil, fmt.Errorf("recordstore: sealing record: %w", err)
	}

	out := make([]byte, 0, len(ephemeralPub)+len(sealed))
	out = append(out, ephemeralPub...)
	out = append(out, sealed...)
	return out, nil
}

// decodeRecord opens an IES packet under kp and verifies its HMAC binds
// it to recordCounter, returning (dataKey, dataVal).
func decodeRecord(kp *keyPair, recordCounter uint32, stored []byte) (dataKey, dataVal []byte, err error) {
	if len(stored) < cipher.CompressedPubKeySize {
		return nil, nil, &ErrMalformed{Reason: "record shorter than ephemeral pubkey"}
	}
	ephemeralPub := stored[:cipher.CompressedPubKeySize]
	sealed := stored[cipher.CompressedPubKeySize:]

	shared, err := cipher.ECDHSecret(kp.encPriv[:], ephemeralPub)
	if err != nil {
		return nil, nil, &ErrBadKey{Counter: recordCounter}
	}

	plain, err := cipher.DecryptCBC(shared[:], sealed)
	if err != nil {
		return nil, nil, &ErrBadKey{Counter: recordCounter}
	}

	if len(plain) < 32 {
		return nil, nil, &ErrMalformed{Reason: "plaintext shorter than HMAC"}
	}
	gotHMAC := plain[:32]
	rest := plain[32:]

	dataKey, rest, err = wire.ReadVarint(rest)
	if err != nil {
		return nil, nil, &ErrMalformed{Reason: err.Error()}
	}
	dataVal, rest, err = wire.ReadVarint(rest)
	if err != nil {
		return nil, nil, &ErrMalformed{Reason: err.Error()}
	}
	if len(rest) != 0 {
		return nil, nil, &ErrMalformed{Reason: "trailing bytes after value"}
	}

	wantHMAC := cipher.HMACSHA256(kp.macKey[:], buildHMACMessage(dataKey, dataVal, recordCounter))
	if !constantTimeEqual(gotHMAC, wantHMAC[:]) {
		return nil, nil, &ErrTampered{RecordCounter: recordCounter}
	}

	return dataKey, dataVal, nil
}

func buildHMACMessage(dataKey, dataVal []byte, recordCounter uint32) []byte {
	var msg []byte
	msg = wire.PutVarint(msg, dataKey)
	msg = wire.PutVarint(msg, dataVal)
	msg = append(msg, wire.BE32(recordCounter)...)
	return msg
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

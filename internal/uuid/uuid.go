// Package uuid generates random identifiers for wallets, accounts, and
// assets. It deliberately avoids a third-party UUID library: callers only
// need a unique, comparable, printable token, not RFC 4122 layout.
package uuid

import (
	"crypto/rand"
	"encoding/hex"
)

// New returns a random 128-bit identifier encoded as a 32-character hex
// string.
func New() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is
		// unavailable, which is unrecoverable for a wallet process.
		panic("uuid: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}

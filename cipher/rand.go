package cipher

import "github.com/jmcleod/ironvault/internal/util"

// RandomBytes returns n cryptographically secure random bytes, sourced
// from crypto/rand via internal/util (spec §4.2 CSPRNG). It is a thin
// re-export so callers needing cipher primitives do not also need to
// import internal/util directly.
func RandomBytes(n int) ([]byte, error) {
	return util.RandomBytes(n)
}

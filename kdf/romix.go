// Package kdf implements the wallet store's memory-hard key-derivation
// function (spec §4.1): a ROMix variant over SHA-512, modeled on Colin
// Percival's scrypt paper (page 6) and on the KdfRomix class declared in
// the original Armory/BlockSettleDB source
// (_examples/original_source/cppForSwig/EncryptionUtils.h).
//
// Unlike golang.org/x/crypto/scrypt's Key function, this package exposes
// the self-calibration loop spec §4.1/§9 requires: sampling ROMix at
// candidate memory sizes, fitting an iteration count to a wall-clock
// target, and persisting the chosen parameters rather than recomputing
// them on every open.
package kdf

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"time"

	"github.com/jmcleod/ironvault/internal/util"
	"github.com/jmcleod/ironvault/secmem"
)

const (
	// hashOutLen is the SHA-512 digest size, and therefore the size of
	// one lookup-table entry.
	hashOutLen = sha512.Size

	// DefaultTargetSeconds is the default calibration wall-clock budget
	// (spec §4.1), matching EncryptionUtils.h's computeKdfParams default.
	DefaultTargetSeconds = 0.25

	// DefaultMaxMemory is the default calibration memory cap (spec §4.1),
	// matching EncryptionUtils.h's DEFAULT_KDF_MAX_MEMORY (32 MiB).
	DefaultMaxMemory = 32 * 1024 * 1024

	// OutputKeyLen is the size of the derived master key.
	OutputKeyLen = 32

	// HashSHA512 and HashSHA256 name the supported lookup-table hash
	// functions. SHA-256 is accepted so that wallets calibrated under an
	// older default keep deriving the same key; new wallets use SHA-512.
	HashSHA512 = "sha512"
	HashSHA256 = "sha256"
)

// Params are the persisted, non-secret KDF parameters (spec §3 KdfParams).
type Params struct {
	HashName      string `json:"hash"`
	MemoryBytes   uint32 `json:"memory_bytes"`
	SequenceCount uint32 `json:"sequence_count"`
	Iterations    uint32 `json:"iterations"`
	Salt          []byte `json:"salt"`
}

// validate checks the KdfParams invariant: memoryBytes is an exact
// multiple of the hash output length, and sequenceCount matches it.
func (p Params) validate() error {
	hl, err := hashLen(p.HashName)
	if err != nil {
		return err
	}
	if p.MemoryBytes == 0 || p.MemoryBytes%uint32(hl) != 0 {
		return fmt.Errorf("kdf: memoryBytes must be a positive multiple of %d, got %d", hl, p.MemoryBytes)
	}
	if p.SequenceCount != p.MemoryBytes/uint32(hl) {
		return fmt.Errorf("kdf: sequenceCount %d does not match memoryBytes/hashLen %d", p.SequenceCount, p.MemoryBytes/uint32(hl))
	}
	if p.Iterations == 0 {
		return fmt.Errorf("kdf: iterations must be positive")
	}
	return nil
}

func hashLen(name string) (int, error) {
	switch name {
	case HashSHA512, "":
		return sha512.Size, nil
	case HashSHA256:
		return 32, nil
	default:
		return 0, fmt.Errorf("kdf: unknown hash function %q", name)
	}
}

func hashOnce(name string, data []byte) []byte {
	if name == HashSHA256 {
		h := sha256.Sum256(data)
		return h[:]
	}
	h := sha512.Sum512(data)
	return h[:]
}

// ErrInvalidArgument is returned for non-positive calibration targets.
type ErrInvalidArgument struct{ Msg string }

func (e *ErrInvalidArgument) Error() string { return "kdf: invalid argument: " + e.Msg }

// ErrOutOfMemory is returned when the lookup table cannot be allocated.
type ErrOutOfMemory struct{ Requested uint32 }

func (e *ErrOutOfMemory) Error() string {
	return fmt.Sprintf("kdf: out of memory allocating %d-byte lookup table", e.Requested)
}

// Calibrate picks the largest memoryBytes <= maxMemBytes whose single
// ROMix pass fits, then sets iterations so one Derive call runs between
// targetSec/2 and targetSec seconds on this machine (spec §4.1/§9).
//
// Two candidate table sizes are sampled — the cap, and the cap's previous
// power of two — and the cheaper one that still completes within budget
// is kept; ties on memoryBytes favor the higher power of two (spec §4.1).
func Calibrate(targetSec float64, maxMemBytes uint32) (Params, error) {
	if targetSec <= 0 {
		return Params{}, &ErrInvalidArgument{Msg: "targetSec must be positive"}
	}
	if maxMemBytes < hashOutLen {
		return Params{}, &ErrInvalidArgument{Msg: "maxMemBytes must be at least one hash output"}
	}

	salt, err := util.RandomBytes(32)
	if err != nil {
		return Params{}, fmt.Errorf("kdf: generating salt: %w", err)
	}

	capSize := floorMultiple(maxMemBytes, hashOutLen)
	halfSize := floorMultiple(prevPow2(capSize), hashOutLen)
	if halfSize == 0 || halfSize == capSize {
		halfSize = capSize
	}

	memoryBytes := capSize
	elapsed, err := timeOneIter(HashSHA512, salt, capSize)
	if err != nil {
		return Params{}, err
	}
	if halfSize != capSize {
		halfElapsed, err := timeOneIter(HashSHA512, salt, halfSize)
		if err != nil {
			return Params{}, err
		}
		// Prefer the larger table unless a single pass at that size
		// alone already blows the whole budget.
		if elapsed > targetSec {
			memoryBytes = halfSize
			elapsed = halfElapsed
		}
	}

	if elapsed <= 0 {
		elapsed = time.Nanosecond.Seconds()
	}
	iterations := uint32(targetSec / elapsed)
	if iterations == 0 {
		iterations = 1
	}

	p := Params{
		HashName:      HashSHA512,
		MemoryBytes:   memoryBytes,
		SequenceCount: memoryBytes / hashOutLen,
		Iterations:    iterations,
		Salt:          salt,
	}
	if err := p.validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func floorMultiple(n, mult uint32) uint32 {
	return (n / mult) * mult
}

func prevPow2(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	p := uint32(1)
	for p<<1 <= n {
		p <<= 1
	}
	return p
}

func timeOneIter(hashName string, salt []byte, memoryBytes uint32) (float64, error) {
	start := time.Now()
	_, err := oneIteration(hashName, salt, memoryBytes, []byte("calibration-probe"))
	if err != nil {
		return 0, err
	}
	return time.Since(start).Seconds(), nil
}

// Derive stretches password into a 32-byte key per Params (spec §4.1).
// The lookup table is a fresh, per-call allocation, zeroed on return;
// it is never pooled or cached across calls or threads (spec §9).
func Derive(password []byte, p Params) (*secmem.Bytes, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	state := password
	var err error
	for i := uint32(0); i < p.Iterations; i++ {
		state, err = oneIteration(p.HashName, p.Salt, p.MemoryBytes, state)
		if err != nil {
			return nil, err
		}
	}
	if len(state) < OutputKeyLen {
		return nil, fmt.Errorf("kdf: derived state shorter than output key length")
	}
	out := secmem.New(state[:OutputKeyLen])
	util.WipeBytes(state)
	return out, nil
}

// oneIteration runs a single ROMix pass: build the lookup table by
// repeated hashing of (salt || password), then traverse it sequenceCount
// times, each step folding in a pseudo-randomly selected table entry.
// This is page 6 of the scrypt paper: ROMix(B, N) fills V[0..N) with the
// hash chain starting at B, then walks N more steps, at each step
// re-hashing the current state XORed with a table entry chosen by the
// low bits of the current state.
func oneIteration(hashName string, salt []byte, memoryBytes uint32, password []byte) ([]byte, error) {
	hl, err := hashLen(hashName)
	if err != nil {
		return nil, err
	}
	if memoryBytes == 0 || memoryBytes%uint32(hl) != 0 {
		return nil, fmt.Errorf("kdf: memoryBytes must be a positive multiple of %d", hl)
	}
	sequenceCount := int(memoryBytes / uint32(hl))

	table := make([][]byte, sequenceCount)
	x := hashOnce(hashName, append(append([]byte{}, salt...), password...))
	for i := 0; i < sequenceCount; i++ {
		table[i] = x
		x = hashOnce(hashName, x)
	}

	for i := 0; i < sequenceCount; i++ {
		idx := indexFromState(x, sequenceCount)
		mixed := xorBytes(x, table[idx])
		x = hashOnce(hashName, mixed)
	}

	out := make([]byte, len(x))
	copy(out, x)

	for i := range table {
		util.WipeBytes(table[i])
	}
	return out, nil
}

// indexFromState reduces the leading 8 bytes of state, interpreted as a
// big-endian uint64, modulo n.
func indexFromState(state []byte, n int) int {
	var v uint64
	for i := 0; i < 8 && i < len(state); i++ {
		v = (v << 8) | uint64(state[i])
	}
	return int(v % uint64(n))
}

func xorBytes(a, b []byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Package secmem provides the wallet store's secure-buffer primitive
// (spec §4.3): a byte container that overwrites its contents on every
// release path, disables implicit copy in favor of explicit Clone, and
// compares in constant time.
//
// It wraps github.com/awnumar/memguard, the teacher's dependency for
// guarding the master-unlock-key and session KEK in vault/credentials.go
// and vault/session.go. Here that guarding is centralized into one type
// instead of being inlined at each call site, since spec §4.3 names
// Secure buffer as its own numbered component.
package secmem

import (
	"crypto/subtle"

	"github.com/awnumar/memguard"
)

// Bytes is an owned secret buffer. The zero value is not usable; obtain
// one via New, Take, or Clone.
type Bytes struct {
	buf *memguard.LockedBuffer
}

// New copies src into a freshly locked buffer. The caller retains
// ownership of src and should wipe it if it is no longer needed.
func New(src []byte) *Bytes {
	b := memguard.NewBuffer(len(src))
	copy(b.Bytes(), src)
	return &Bytes{buf: b}
}

// Take constructs a Bytes that takes ownership of src directly (no copy);
// src is wiped and must not be used by the caller afterward.
func Take(src []byte) *Bytes {
	b := memguard.NewBufferFromBytes(src)
	return &Bytes{buf: b}
}

// Zero returns a new all-zero buffer of length n.
func Zero(n int) *Bytes {
	return &Bytes{buf: memguard.NewBuffer(n)}
}

// Len returns the number of bytes held.
func (s *Bytes) Len() int {
	if s == nil || s.buf == nil {
		return 0
	}
	return s.buf.Size()
}

// Bytes returns the underlying slice. The returned slice aliases secmem's
// storage and becomes invalid after Release; callers must not retain it
// beyond the Bytes' lifetime.
func (s *Bytes) Bytes() []byte {
	if s == nil || s.buf == nil {
		return nil
	}
	return s.buf.Bytes()
}

// Clone returns an independent copy backed by its own locked buffer.
func (s *Bytes) Clone() *Bytes {
	if s == nil || s.buf == nil {
		return nil
	}
	return New(s.buf.Bytes())
}

// TakeBytes moves the contents out as a plain slice and releases the
// secure buffer. The caller becomes responsible for wiping the returned
// slice once done with it.
func (s *Bytes) TakeBytes() []byte {
	if s == nil || s.buf == nil {
		return nil
	}
	out := make([]byte, s.buf.Size())
	copy(out, s.buf.Bytes())
	s.buf.Destroy()
	s.buf = nil
	return out
}

// Equal compares two secure buffers in constant time.
func (s *Bytes) Equal(other *Bytes) bool {
	if s == nil || other == nil || s.buf == nil || other.buf == nil {
		return s == other
	}
	a, b := s.buf.Bytes(), other.buf.Bytes()
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Release zeroes and frees the buffer. Safe to call multiple times.
func (s *Bytes) Release() {
	if s == nil || s.buf == nil {
		return
	}
	s.buf.Destroy()
	s.buf = nil
}

// Enclave seals the buffer's contents into a memguard.Enclave for
// at-rest-in-process storage between uses (e.g. held by secrets.Container
// between scoped unlocks), releasing the plaintext buffer in the process.
func (s *Bytes) Enclave() *memguard.Enclave {
	if s == nil || s.buf == nil {
		return nil
	}
	enc := memguard.NewEnclave(s.buf.Bytes())
	s.buf.Destroy()
	s.buf = nil
	return enc
}

// Open decrypts an enclave produced by Enclave back into a Bytes.
func Open(enc *memguard.Enclave) (*Bytes, error) {
	b, err := enc.Open()
	if err != nil {
		return nil, err
	}
	return &Bytes{buf: b}, nil
}

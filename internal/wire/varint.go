// Package wire implements the small binary framing the wallet store uses
// on disk: length-prefixed byte strings inside IES records, and the
// header-record codec for wallet-DB sub-DB metadata.
package wire

import (
	"encoding/binary"
	"fmt"
)

// PutVarint appends a Uvarint-encoded length prefix followed by data to dst
// and returns the extended slice.
func PutVarint(dst []byte, data []byte) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(data)))
	dst = append(dst, lenBuf[:n]...)
	dst = append(dst, data...)
	return dst
}

// ReadVarint reads a length-prefixed byte string from the front of src,
// returning the string and the remaining bytes.
func ReadVarint(src []byte) (data []byte, rest []byte, err error) {
	l, n := binary.Uvarint(src)
	if n <= 0 {
		return nil, nil, fmt.Errorf("wire: malformed varint length prefix")
	}
	src = src[n:]
	if uint64(len(src)) < l {
		return nil, nil, fmt.Errorf("wire: varint length %d exceeds remaining %d bytes", l, len(src))
	}
	return src[:l], src[l:], nil
}

// BE32 encodes v as 4-byte big-endian, matching the on-disk record-counter
// and key-pair-counter representation (spec §4.4/§6).
func BE32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// ParseBE32 decodes a 4-byte big-endian counter.
func ParseBE32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("wire: counter must be 4 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

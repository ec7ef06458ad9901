package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// WalletHeaderPrefix is the u8 prefix (spec §6) that marks a logical data
// key as a sub-DB header record: prefix || sub-DB name.
const WalletHeaderPrefix byte = 0xC0

// ReservedKeySpace is the record-counter value above which 4-byte keys
// are well-known fixed constants (MainWalletKey, WalletSeedKey, ...)
// rather than record counters. A wallet would need to write over three
// billion records into one sub-DB before this boundary became reachable,
// so the record-counter and fixed-key spaces never collide in practice.
const ReservedKeySpace uint32 = 0xC0000000

// Fixed 4-byte big-endian logical key constants (spec §6).
var (
	MainWalletKey = BE32(0x4D41494E) // "MAIN" as a 4-byte tag
	WalletSeedKey = BE32(0x53454544) // "SEED" as a 4-byte tag
)

// HeaderKey builds the logical data key for a sub-DB's header record:
// 0xC0 || dbName.
func HeaderKey(dbName string) []byte {
	key := make([]byte, 0, 1+len(dbName))
	key = append(key, WalletHeaderPrefix)
	key = append(key, dbName...)
	return key
}

// IsHeaderKey reports whether key is a header-record logical key and, if
// so, returns the sub-DB name it names.
func IsHeaderKey(key []byte) (dbName string, ok bool) {
	if len(key) == 0 || key[0] != WalletHeaderPrefix {
		return "", false
	}
	return string(key[1:]), true
}

// EncodeHeader serializes a value as varint(len) || json, matching the
// "value is varint(len) || serialized-header" framing spec §6 describes
// for header records. JSON keeps the header human-inspectable on disk
// once decrypted, consistent with the teacher's envelope style
// (storage.Envelope fields were JSON too).
func EncodeHeader(h any) ([]byte, error) {
	body, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("wire: marshaling header: %w", err)
	}
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(body)))
	out := make([]byte, 0, n+len(body))
	out = append(out, lenBuf[:n]...)
	out = append(out, body...)
	return out, nil
}

// DecodeHeader parses a value produced by EncodeHeader into h.
func DecodeHeader(data []byte, h any) error {
	l, n := binary.Uvarint(data)
	if n <= 0 {
		return fmt.Errorf("wire: malformed header length prefix")
	}
	data = data[n:]
	if uint64(len(data)) != l {
		return fmt.Errorf("wire: header length mismatch: want %d got %d", l, len(data))
	}
	if err := json.Unmarshal(data, h); err != nil {
		return fmt.Errorf("wire: unmarshaling header: %w", err)
	}
	return nil
}

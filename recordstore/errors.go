package recordstore

import "fmt"

// ErrBadKey is returned when a record fails to decrypt under the key-pair
// counter the reader expected, which usually means the reader's cycle
// position has drifted from the writer's.
type ErrBadKey struct{ Counter uint32 }

func (e *ErrBadKey) Error() string {
	return fmt.Sprintf("recordstore: record does not decrypt under key-pair counter %d", e.Counter)
}

// ErrTampered is returned when a record's HMAC does not match its
// recomputed value: the ciphertext or its storage slot has been altered.
type ErrTampered struct{ RecordCounter uint32 }

func (e *ErrTampered) Error() string {
	return fmt.Sprintf("recordstore: HMAC mismatch at record %d", e.RecordCounter)
}

// ErrMalformed is returned for structurally invalid records: short
// envelopes, bad varint framing, or trailing bytes.
type ErrMalformed struct{ Reason string }

func (e *ErrMalformed) Error() string { return "recordstore: malformed record: " + e.Reason }

// ErrCorrupt is returned when loading a sub-DB aborts because some record
// could not be decrypted or validated; the sub-DB is unusable until
// reopened (or never, if the corruption is persistent).
type ErrCorrupt struct {
	SubDBName     string
	RecordCounter uint32
}

func (e *ErrCorrupt) Error() string {
	return fmt.Sprintf("recordstore: sub-DB %q corrupt at record %d", e.SubDBName, e.RecordCounter)
}

// ErrTxConflict is returned when a transaction cannot be created because
// it would violate the single-writer-or-many-readers rule, or because a
// writer is requested while the same goroutine's outer scope already
// holds a reader.
type ErrTxConflict struct{ Reason string }

func (e *ErrTxConflict) Error() string { return "recordstore: failed to create db tx: " + e.Reason }

// ErrNotFound is returned by Get for a logical key with no live record.
var ErrNotFound = fmt.Errorf("recordstore: key not found")

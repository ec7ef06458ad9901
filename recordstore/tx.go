package recordstore

import (
	"go.etcd.io/bbolt"
)

// Mode selects whether a Tx may mutate its sub-DB.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

// Tx is a scoped acquisition over a SubDB (spec §4.4 Transactions). A Tx
// obtained with a non-nil parent is a nested transaction: it shares the
// parent's underlying bbolt transaction and view, and Commit/Rollback on
// a nested Tx are no-ops -- only the outermost Tx's Commit/Rollback
// actually releases the sub-DB's gate.
//
// Go has no notion of "the same thread" the way the original engine's
// reentrant lock does; nesting here is explicit instead of implicit --
// callers that want a nested scope pass the outer Tx in as parent. This
// is the idiomatic Go shape for the same contract: no hidden goroutine-
// local state, no surprise reentrancy from an unrelated call path.
type Tx struct {
	sub    *SubDB
	mode   Mode
	parent *Tx
	bolt   *bbolt.Tx
	done   bool
}

// Begin acquires a transaction over sub in the requested mode. Pass a
// non-nil parent to nest inside an already-open transaction on the same
// sub-DB.
//
// Nesting rules (spec §4.4/§5):
//   - parent in ReadWrite mode: child is always a writer view, regardless
//     of the requested mode (the "nested-writer" case).
//   - parent in ReadOnly mode, requested ReadWrite: TxConflict.
//   - parent in ReadOnly mode, requested ReadOnly: child shares the
//     parent's read view.
//   - no parent: acquires sub's gate. A writer blocks until no reader or
//     writer is active. A reader fails immediately with TxConflict if a
//     writer is currently active; otherwise it proceeds concurrently with
//     other readers.
func Begin(sub *SubDB, mode Mode, parent *Tx) (*Tx, error) {
	if parent != nil {
		if parent.sub != sub {
			return nil, &ErrTxConflict{Reason: "nested transaction must target the same sub-DB as its parent"}
		}
		if parent.done {
			return nil, &ErrTxConflict{Reason: "parent transaction already closed"}
		}
		if parent.mode == ReadOnly && mode == ReadWrite {
			return nil, &ErrTxConflict{Reason: "cannot open a writer nested inside a reader"}
		}
		childMode := mode
		if parent.mode == ReadWrite {
			childMode = ReadWrite
		}
		return &Tx{sub: sub, mode: childMode, parent: parent, bolt: parent.bolt}, nil
	}

	sub.gate.Lock()
	if mode == ReadWrite {
		for sub.writerActive || sub.readerCount > 0 {
			sub.cond.Wait()
		}
		sub.writerActive = true
		sub.gate.Unlock()
	} else {
		if sub.writerActive {
			sub.gate.Unlock()
			return nil, &ErrTxConflict{Reason: "a writer currently holds this sub-DB"}
		}
		sub.readerCount++
		sub.gate.Unlock()
	}

	boltTx, err := sub.db.Begin(mode == ReadWrite)
	if err != nil {
		sub.releaseOuter(mode)
		return nil, err
	}

	return &Tx{sub: sub, mode: mode, bolt: boltTx}, nil
}

func (s *SubDB) releaseOuter(mode Mode) {
	s.gate.Lock()
	if mode == ReadWrite {
		s.writerActive = false
	} else {
		s.readerCount--
	}
	s.cond.Broadcast()
	s.gate.Unlock()
}

// Commit finalizes a write Tx. On a nested Tx it is a no-op: only the
// outermost scope's exit actually commits or aborts (spec §4.4 Nesting).
func (tx *Tx) Commit() error {
	if tx.done {
		return nil
	}
	tx.done = true
	if tx.parent != nil {
		return nil
	}
	var err error
	if tx.mode == ReadWrite {
		err = tx.bolt.Commit()
	} else {
		err = tx.bolt.Rollback() // read-only bbolt tx: Rollback just releases it
	}
	tx.sub.releaseOuter(tx.mode)
	return err
}

// Rollback aborts a write Tx without committing its mutations. On a
// nested Tx it is a no-op.
func (tx *Tx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	if tx.parent != nil {
		return nil
	}
	err := tx.bolt.Rollback()
	tx.sub.releaseOuter(tx.mode)
	return err
}

// Insert upserts (key, val) in the sub-DB. Requires ReadWrite mode.
func (tx *Tx) Insert(key, val []byte) error {
	if tx.mode != ReadWrite {
		return &ErrTxConflict{Reason: "insert requires a write transaction"}
	}
	return tx.sub.insertLocked(tx.bolt, key, val)
}

// Erase removes a logical key. Requires ReadWrite mode.
func (tx *Tx) Erase(key []byte) error {
	if tx.mode != ReadWrite {
		return &ErrTxConflict{Reason: "erase requires a write transaction"}
	}
	return tx.sub.eraseLocked(tx.bolt, key)
}

// Get returns the current logical value for key, if live.
func (tx *Tx) Get(key []byte) ([]byte, bool) {
	return tx.sub.getLocked(key)
}

// Iterator returns all live (key, val) pairs in insertion order.
func (tx *Tx) Iterator() [][2][]byte {
	return tx.sub.iterateLocked()
}

// RotateCycle writes a new cycle marker, advancing the active key-pair
// counter for subsequent records. Requires ReadWrite mode.
func (tx *Tx) RotateCycle() error {
	if tx.mode != ReadWrite {
		return &ErrTxConflict{Reason: "rotate requires a write transaction"}
	}
	return tx.sub.writeCycleMarker(tx.bolt)
}

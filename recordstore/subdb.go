package recordstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jmcleod/ironvault/internal/util"
	"github.com/jmcleod/ironvault/internal/wire"
	"github.com/jmcleod/ironvault/secmem"
	"go.etcd.io/bbolt"
)

const (
	cycleMarkerValue  = "cycle"
	erasedMarkerValue = "erased"
)

// state is the per-sub-DB lifecycle (spec §4.4 State machine).
type state int

const (
	stateClosed state = iota
	stateLoading
	stateOpen
	stateClosing
)

// SubDB is one logically independent, append-only encrypted keyspace
// inside a Store's backing bucket (spec §4.4 centerpiece component).
// Logical keys are opaque byte strings; values are opaque byte strings.
// The sub-DB keeps a decrypted, in-memory view built once at Open and
// maintained incrementally by Insert/Erase.
type SubDB struct {
	name        string
	bucketName  []byte
	db          *bbolt.DB
	controlSalt []byte
	controlRoot *secmem.Bytes

	state state

	// keyPairCounter is the key-pair counter new writes use; it only
	// moves forward when a cycle marker is written.
	keyPairCounter uint32
	keyPairs       map[uint32]*keyPair

	nextRecordCounter uint32

	// logical view: live dataKey -> (dataVal, recordCounter holding it).
	values         map[string][]byte
	recordOf       map[string]uint32
	counterToKey   map[uint32]string
	counterKeyPair map[uint32]uint32 // record counter -> key-pair counter it was sealed under
	insertOrder    []string          // logical keys in first-insert order, for Iterator

	// readers-writer gate (spec §5): writer preference is not modeled
	// explicitly since readers never block writers from *starting* --
	// a write request waits for existing readers and writers alike, and
	// a read request fails immediately rather than queuing behind an
	// active writer (spec §4.4 Transactions).
	gate sync.Mutex
	cond *sync.Cond
	writerActive bool
	readerCount  int
}

func newSubDB(db *bbolt.DB, name string, controlSalt []byte, controlRoot *secmem.Bytes) *SubDB {
	s := &SubDB{
		name:         name,
		bucketName:   []byte(name),
		db:           db,
		controlSalt:  controlSalt,
		controlRoot:  controlRoot,
		keyPairs:       make(map[uint32]*keyPair),
		values:         make(map[string][]byte),
		recordOf:       make(map[string]uint32),
		counterToKey:   make(map[uint32]string),
		counterKeyPair: make(map[uint32]uint32),
	}
	s.cond = sync.NewCond(&s.gate)
	return s
}

// Name returns the sub-DB's bucket name.
func (s *SubDB) Name() string { return s.name }

// Busy reports whether a reader or writer transaction is currently live
// on this sub-DB (used by walletdb's setDbCount/shutdown guards, spec
// §4.6 LiveTransactions).
func (s *SubDB) Busy() bool {
	s.gate.Lock()
	defer s.gate.Unlock()
	return s.writerActive || s.readerCount > 0
}

func (s *SubDB) keyPair(i uint32) (*keyPair, error) {
	if kp, ok := s.keyPairs[i]; ok {
		return kp, nil
	}
	kp, err := deriveKeyPair(s.controlSalt, s.controlRoot.Bytes(), i)
	if err != nil {
		return nil, err
	}
	s.keyPairs[i] = kp
	return kp, nil
}

// load scans the sub-DB's bucket in counter order, decrypting each record
// against the replaying key-pair counter, and rebuilds the logical view
// (spec §4.4 Loading). Called once from Store.Open/Store.CreateSubDB
// before the SubDB is handed to any caller, so no gate acquisition is
// needed here.
func (s *SubDB) load() error {
	s.state = stateLoading

	type rawRecord struct {
		counter uint32
		data    []byte
	}
	var records []rawRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucketName)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if len(k) != 4 {
				continue // header or other well-known fixed-width key, not a record counter
			}
			counter, err := wire.ParseBE32(k)
			if err != nil {
				return err
			}
			if counter >= wire.ReservedKeySpace {
				continue // well-known fixed key (MainWalletKey, WalletSeedKey, ...), not a record
			}
			data := make([]byte, len(v))
			copy(data, v)
			records = append(records, rawRecord{counter: counter, data: data})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("recordstore: scanning sub-DB %q: %w", s.name, err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].counter < records[j].counter })

	keyPairCounter := uint32(0)
	maxCounter := uint32(0)
	haveAny := false

	for _, rec := range records {
		haveAny = true
		if rec.counter > maxCounter {
			maxCounter = rec.counter
		}
		kp, err := s.keyPair(keyPairCounter)
		if err != nil {
			return &ErrCorrupt{SubDBName: s.name, RecordCounter: rec.counter}
		}
		dataKey, dataVal, err := decodeRecord(kp, rec.counter, rec.data)
		if err != nil {
			return &ErrCorrupt{SubDBName: s.name, RecordCounter: rec.counter}
		}

		if len(dataKey) == 0 {
			switch {
			case string(dataVal) == cycleMarkerValue:
				keyPairCounter++
			case len(dataVal) >= len(erasedMarkerValue) && string(dataVal[:len(erasedMarkerValue)]) == erasedMarkerValue:
				prevCounterBytes, _, err := wire.ReadVarint(dataVal[len(erasedMarkerValue):])
				if err != nil {
					return &ErrCorrupt{SubDBName: s.name, RecordCounter: rec.counter}
				}
				prevCounter, err := wire.ParseBE32(prevCounterBytes)
				if err != nil {
					return &ErrCorrupt{SubDBName: s.name, RecordCounter: rec.counter}
				}
				if logicalKey, ok := s.counterToKey[prevCounter]; ok {
					delete(s.values, logicalKey)
					delete(s.recordOf, logicalKey)
					delete(s.counterToKey, prevCounter)
					delete(s.counterKeyPair, prevCounter)
				}
			default:
				// Secure-overwrite placeholder (see eraseLocked): a
				// discarded control record, neither a cycle marker nor
				// an erasure sentinel.
			}
			continue
		}

		key := string(dataKey)
		if _, existed := s.values[key]; !existed {
			s.insertOrder = append(s.insertOrder, key)
		}
		if oldCounter, ok := s.recordOf[key]; ok {
			delete(s.counterToKey, oldCounter)
			delete(s.counterKeyPair, oldCounter)
		}
		s.values[key] = dataVal
		s.recordOf[key] = rec.counter
		s.counterToKey[rec.counter] = key
		s.counterKeyPair[rec.counter] = keyPairCounter
	}

	s.keyPairCounter = keyPairCounter
	if haveAny {
		s.nextRecordCounter = maxCounter + 1
	} else {
		s.nextRecordCounter = 0
	}
	s.state = stateOpen
	return nil
}

// writeCycleMarker appends a new cycle marker and advances the active
// key-pair counter for subsequent records (spec §4.4 Key-stream).
func (s *SubDB) writeCycleMarker(tx *bbolt.Tx) error {
	kp, err := s.keyPair(s.keyPairCounter)
	if err != nil {
		return err
	}
	counter := s.nextRecordCounter
	packet, err := encodeRecord(kp, counter, nil, []byte(cycleMarkerValue))
	if err != nil {
		return err
	}
	b, err := tx.CreateBucketIfNotExists(s.bucketName)
	if err != nil {
		return err
	}
	if err := b.Put(wire.BE32(counter), packet); err != nil {
		return err
	}
	s.nextRecordCounter++
	s.keyPairCounter++
	return nil
}

// insertLocked upserts a logical (key, val) inside an active write
// transaction.
func (s *SubDB) insertLocked(tx *bbolt.Tx, dataKey, dataVal []byte) error {
	kp, err := s.keyPair(s.keyPairCounter)
	if err != nil {
		return err
	}
	counter := s.nextRecordCounter
	packet, err := encodeRecord(kp, counter, dataKey, dataVal)
	if err != nil {
		return err
	}
	b, err := tx.CreateBucketIfNotExists(s.bucketName)
	if err != nil {
		return err
	}
	if err := b.Put(wire.BE32(counter), packet); err != nil {
		return err
	}
	s.nextRecordCounter++

	key := string(dataKey)
	if _, existed := s.values[key]; !existed {
		s.insertOrder = append(s.insertOrder, key)
	}
	if oldCounter, ok := s.recordOf[key]; ok {
		delete(s.counterToKey, oldCounter)
		delete(s.counterKeyPair, oldCounter)
	}
	s.values[key] = append([]byte(nil), dataVal...)
	s.recordOf[key] = counter
	s.counterToKey[counter] = key
	s.counterKeyPair[counter] = s.keyPairCounter
	return nil
}

// eraseLocked removes a logical key: it writes an erasure sentinel
// referencing the prior record counter, then secure-overwrites that
// counter's storage slot so the original ciphertext does not survive on
// disk (spec §4.4 Erasure).
func (s *SubDB) eraseLocked(tx *bbolt.Tx, dataKey []byte) error {
	key := string(dataKey)
	prevCounter, ok := s.recordOf[key]
	if !ok {
		return ErrNotFound
	}

	kp, err := s.keyPair(s.keyPairCounter)
	if err != nil {
		return err
	}
	sentinelCounter := s.nextRecordCounter
	// Spec §4.4: sentinel value is "erased" followed by a varint-wrapped
	// be32(prevCounter), so a reader can tell where the literal tag ends
	// and the counter begins.
	sentinelVal := append([]byte(erasedMarkerValue), wire.PutVarint(nil, wire.BE32(prevCounter))...)
	packet, err := encodeRecord(kp, sentinelCounter, nil, sentinelVal)
	if err != nil {
		return err
	}

	b, err := tx.CreateBucketIfNotExists(s.bucketName)
	if err != nil {
		return err
	}
	if err := b.Put(wire.BE32(sentinelCounter), packet); err != nil {
		return err
	}
	s.nextRecordCounter++

	if err := s.secureOverwrite(b, prevCounter); err != nil {
		return err
	}

	delete(s.values, key)
	delete(s.recordOf, key)
	delete(s.counterToKey, prevCounter)
	delete(s.counterKeyPair, prevCounter)
	return nil
}

// secureOverwrite replaces the record at counter with a freshly encrypted
// discardable placeholder of the same general shape, so no byte of the
// original ciphertext remains on disk. It reuses the key-pair the
// original record was sealed under (which may be an earlier cycle than
// the sub-DB's current one), so a later replay of the record stream still
// decrypts this slot successfully and simply discards it.
func (s *SubDB) secureOverwrite(b *bbolt.Bucket, counter uint32) error {
	keyPairCounter, ok := s.counterKeyPair[counter]
	if !ok {
		keyPairCounter = s.keyPairCounter
	}
	kp, err := s.keyPair(keyPairCounter)
	if err != nil {
		return err
	}
	filler, err := util.RandomBytes(8)
	if err != nil {
		return err
	}
	packet, err := encodeRecord(kp, counter, nil, append([]byte("gone:"), filler...))
	if err != nil {
		return err
	}
	return b.Put(wire.BE32(counter), packet)
}

// getLocked returns the current logical value for dataKey, if live.
func (s *SubDB) getLocked(dataKey []byte) ([]byte, bool) {
	v, ok := s.values[string(dataKey)]
	return v, ok
}

// iterateLocked returns all live (key, val) pairs in first-insert order.
func (s *SubDB) iterateLocked() [][2][]byte {
	out := make([][2][]byte, 0, len(s.insertOrder))
	for _, k := range s.insertOrder {
		v, ok := s.values[k]
		if !ok {
			continue
		}
		out = append(out, [2][]byte{[]byte(k), v})
	}
	return out
}

// close releases the controlRoot buffer. The SubDB must not be used
// after Close.
func (s *SubDB) close() {
	if s.controlRoot != nil {
		s.controlRoot.Release()
		s.controlRoot = nil
	}
	s.state = stateClosed
}

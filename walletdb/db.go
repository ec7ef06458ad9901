// Package walletdb implements the wallet store's multi-sub-DB interface
// (spec §4.6): one control sub-DB anchoring N data sub-DBs inside a
// single recordstore.Store file.
//
// It generalizes the teacher's (jmcleod-ironhand) vault.Vault two-phase
// Create/Open flow -- write state, then member records, all before
// returning a live handle -- from "one vault state record" to "one
// control header anchoring N data sub-DB registrations".
//
// Bootstrapping the control sub-DB. The control sub-DB's own IES
// key-stream needs a controlRoot the same way every sub-DB does (spec
// §4.4 Key-stream), but the wallet's real controlRoot is the plaintext
// recovered from *inside* the control sub-DB's own header -- encrypting
// the control sub-DB's records under that same root would be circular.
// This package resolves it the way spec §9's open questions are meant to
// be resolved: the control sub-DB is always opened under a fixed,
// non-secret bootstrap root and salt (controlBootstrapRoot/
// controlBootstrapSalt below), identical across every wallet file. This
// costs nothing, because the control sub-DB carries no IES records of
// its own beyond its initial cycle marker -- every actual secret (the
// wallet's real controlRoot) lives inside the header's EncryptedSeed,
// which is independently protected by the control passphrase via
// secrets.Container. Data sub-DBs use the real, passphrase-recovered
// controlRoot, per spec.
package walletdb

import (
	"fmt"
	"sync"

	"github.com/jmcleod/ironvault/cipher"
	"github.com/jmcleod/ironvault/internal/util"
	"github.com/jmcleod/ironvault/recordstore"
	"github.com/jmcleod/ironvault/secmem"
	"github.com/jmcleod/ironvault/secrets"
	"go.etcd.io/bbolt"
)

const controlSubDBName = "control"

var controlBootstrapSalt = []byte("ironvault:control-sub-db:salt:v1")

// bootstrapControlRoot derives the fixed, non-secret root the control
// sub-DB's own key-stream runs under (see package doc).
func bootstrapControlRoot() *secmem.Bytes {
	sum := cipher.SHA256([]byte("ironvault:control-sub-db:bootstrap-root:v1"))
	return secmem.New(sum[:])
}

// DataSubDBInfo is one data sub-DB's registration inside the control
// header: its name and the controlSalt its key-stream runs under.
type DataSubDBInfo struct {
	Name        string `json:"name"`
	ControlSalt []byte `json:"controlSalt"`
}

// ControlHeader is the control sub-DB's header record (spec §6 File
// layout: "header record + EncryptedSeed(controlRoot) + KDF params +
// master-key objects" -- folded here into one JSON blob, since
// EncryptedObject already carries its own KDF params per slot).
type ControlHeader struct {
	DBCount         uint32                  `json:"dbCount"`
	DataSubDBs      []DataSubDBInfo         `json:"dataSubDBs"`
	Seed            secrets.EncryptedObject `json:"seed"`
	SeedDefaultOnly bool                    `json:"seedDefaultOnly"`
}

// DB is one wallet backing store: a control sub-DB plus its declared
// data sub-DBs (spec §4.6).
type DB struct {
	store *recordstore.Store

	mu            sync.Mutex
	control       *recordstore.SubDB
	header        ControlHeader
	seedContainer *secrets.Container
	dataSubs      map[string]*recordstore.SubDB

	lockScope   *secrets.Unlocked
	controlRoot *secmem.Bytes // live only while lockScope != nil
}

// CreateNew bootstraps a brand-new wallet file at path: a control sub-DB
// with a freshly generated controlRoot protected by ctrlPassphrase, and
// a declared (but not yet provisioned) dbCount of data sub-DBs. Callers
// provision each data sub-DB with AddHeader after LockControlContainer.
func CreateNew(path string, dbCount uint32, ctrlPassphrase []byte, options *bbolt.Options) (*DB, error) {
	store, err := recordstore.Open(path, options)
	if err != nil {
		return nil, err
	}

	control, err := store.CreateSubDB(controlSubDBName, controlBootstrapSalt, bootstrapControlRoot())
	if err != nil {
		store.Close()
		return nil, err
	}

	seed, err := util.RandomBytes(32)
	if err != nil {
		store.Close()
		return nil, err
	}
	seedContainer, err := secrets.NewEncrypted(secmem.Take(seed), ctrlPassphrase)
	if err != nil {
		store.Close()
		return nil, err
	}

	obj, defaultOnly := seedContainer.Snapshot()
	header := ControlHeader{DBCount: dbCount, Seed: obj, SeedDefaultOnly: defaultOnly}
	if err := control.PutHeader(controlSubDBName, header); err != nil {
		store.Close()
		return nil, err
	}

	return &DB{
		store:         store,
		control:       control,
		header:        header,
		seedContainer: seedContainer,
		dataSubs:      make(map[string]*recordstore.SubDB),
	}, nil
}

// Open opens an existing wallet file: opens the backing store, loads the
// control sub-DB and its header, unlocks the control container with
// ctrlProvider to recover controlRoot, then opens and loads every
// registered data sub-DB (spec §4.6 Opening the wallet).
func Open(path string, ctrlProvider secrets.PassphraseProvider, options *bbolt.Options) (*DB, error) {
	store, err := recordstore.Open(path, options)
	if err != nil {
		return nil, err
	}

	control, err := store.Open(controlSubDBName, controlBootstrapSalt, bootstrapControlRoot())
	if err != nil {
		store.Close()
		return nil, err
	}

	var header ControlHeader
	found, err := control.GetHeader(controlSubDBName, &header)
	if err != nil {
		store.Close()
		return nil, err
	}
	if !found {
		store.Close()
		return nil, fmt.Errorf("walletdb: %q has no control header", path)
	}

	seedContainer := secrets.Open(header.Seed, header.SeedDefaultOnly)
	unlocked, err := seedContainer.Unlock(ctrlProvider)
	if err != nil {
		store.Close()
		return nil, err
	}
	defer unlocked.Close()

	db := &DB{
		store:         store,
		control:       control,
		header:        header,
		seedContainer: seedContainer,
		dataSubs:      make(map[string]*recordstore.SubDB),
	}

	for _, info := range header.DataSubDBs {
		rootClone := unlocked.MasterKey().Clone()
		sub, err := store.Open(info.Name, info.ControlSalt, rootClone)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("walletdb: opening data sub-DB %q: %w", info.Name, err)
		}
		db.dataSubs[info.Name] = sub
	}

	return db, nil
}

// DBCount returns the declared (not necessarily yet provisioned) number
// of data sub-DBs.
func (db *DB) DBCount() uint32 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.header.DBCount
}

// DataSubDBNames returns the names of every currently provisioned data
// sub-DB.
func (db *DB) DataSubDBNames() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	names := make([]string, 0, len(db.header.DataSubDBs))
	for _, info := range db.header.DataSubDBs {
		names = append(names, info.Name)
	}
	return names
}

// DataSubDB returns an already-open data sub-DB by name.
func (db *DB) DataSubDB(name string) (*recordstore.SubDB, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	sub, ok := db.dataSubs[name]
	return sub, ok
}

// SetDbCount raises the declared data-sub-DB count (spec §4.6). It never
// shrinks below the number of sub-DBs already provisioned, and fails
// with ErrLiveTransactions if any sub-DB has an open transaction.
func (db *DB) SetDbCount(n uint32) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if n < uint32(len(db.header.DataSubDBs)) {
		return ErrShrinkNotAllowed
	}
	if db.anyBusyLocked() {
		return ErrLiveTransactions
	}
	db.header.DBCount = n
	return db.control.PutHeader(controlSubDBName, db.header)
}

// LockControlContainer unlocks the control container with provider and
// holds the scope open, making AddHeader usable. Despite the name
// (spec §4.6 `lockControlContainer`/`unlockControlContainer`), this is
// the operation that *grants* access: the wallet's controlRoot is held
// decrypted in memory until UnlockControlContainer releases the scope.
func (db *DB) LockControlContainer(provider secrets.PassphraseProvider) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.lockScope != nil {
		return ErrControlLocked
	}
	u, err := db.seedContainer.Unlock(provider)
	if err != nil {
		return err
	}
	db.lockScope = u
	db.controlRoot = u.MasterKey().Clone()
	return nil
}

// UnlockControlContainer releases the scope opened by
// LockControlContainer, wiping the held controlRoot.
func (db *DB) UnlockControlContainer() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.lockScope == nil {
		return ErrControlNotLocked
	}
	db.controlRoot.Release()
	db.controlRoot = nil
	db.lockScope.Close()
	db.lockScope = nil
	return nil
}

// AddHeader binds a new data sub-DB named name under a fresh controlSalt
// (spec §4.6). Requires the control container to be locked.
func (db *DB) AddHeader(name string) (*recordstore.SubDB, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.lockScope == nil {
		return nil, ErrControlNotLocked
	}
	if _, exists := db.dataSubs[name]; exists {
		return nil, ErrDuplicateSubDB
	}
	if uint32(len(db.header.DataSubDBs)) >= db.header.DBCount {
		return nil, ErrDbCountExceeded
	}

	salt, err := util.RandomBytes(32)
	if err != nil {
		return nil, err
	}

	sub, err := db.store.CreateSubDB(name, salt, db.controlRoot.Clone())
	if err != nil {
		return nil, err
	}

	db.header.DataSubDBs = append(db.header.DataSubDBs, DataSubDBInfo{Name: name, ControlSalt: salt})
	if err := db.control.PutHeader(controlSubDBName, db.header); err != nil {
		return nil, err
	}
	db.dataSubs[name] = sub
	return sub, nil
}

// Shutdown closes every sub-DB and the backing store. It fails with
// ErrLiveTransactions if any transaction is open (spec §4.6).
func (db *DB) Shutdown() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.anyBusyLocked() {
		return ErrLiveTransactions
	}
	if db.lockScope != nil {
		db.controlRoot.Release()
		db.controlRoot = nil
		db.lockScope.Close()
		db.lockScope = nil
	}
	return db.store.Close()
}

func (db *DB) anyBusyLocked() bool {
	if db.control.Busy() {
		return true
	}
	for _, sub := range db.dataSubs {
		if sub.Busy() {
			return true
		}
	}
	return false
}

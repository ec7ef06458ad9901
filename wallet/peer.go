package wallet

import (
	"bytes"

	"github.com/jmcleod/ironvault/recordstore"
)

// PeerStore is the authorized-peers store: an ordered map name → pubkey,
// plus the derived set of public keys currently named by at least one
// entry (spec §4.8 Authorized-peers store). A name is any of an IP
// address, an IPv6 literal, or a DNS-style hostname.
type PeerStore struct {
	sub *recordstore.SubDB
}

func newPeerStore(sub *recordstore.SubDB) *PeerStore {
	if sub == nil {
		return nil
	}
	return &PeerStore{sub: sub}
}

const nameKeyPrefix = "n:"

func nameKey(name string) []byte { return append([]byte(nameKeyPrefix), name...) }

// AddPeer registers pubkey under every name in names, all pointing at
// the one compressed public key.
func (p *PeerStore) AddPeer(pubkey []byte, names []string) error {
	tx, err := recordstore.Begin(p.sub, recordstore.ReadWrite, nil)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := tx.Insert(nameKey(name), pubkey); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Lookup returns the public key registered under name.
func (p *PeerStore) Lookup(name string) ([]byte, bool, error) {
	tx, err := recordstore.Begin(p.sub, recordstore.ReadOnly, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Commit()
	val, ok := tx.Get(nameKey(name))
	return val, ok, nil
}

// EraseName removes name. If it was the last name pointing at its
// public key, the key disappears from Keys() too (spec §4.8: "erasing
// the last name for a key removes the key").
func (p *PeerStore) EraseName(name string) error {
	tx, err := recordstore.Begin(p.sub, recordstore.ReadWrite, nil)
	if err != nil {
		return err
	}
	if _, ok := tx.Get(nameKey(name)); !ok {
		tx.Rollback()
		return ErrNoSuchPeer
	}
	if err := tx.Erase(nameKey(name)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// EraseKey removes every name currently pointing at pubkey.
func (p *PeerStore) EraseKey(pubkey []byte) error {
	tx, err := recordstore.Begin(p.sub, recordstore.ReadWrite, nil)
	if err != nil {
		return err
	}
	found := false
	for _, kv := range tx.Iterator() {
		if bytes.Equal(kv[1], pubkey) {
			if err := tx.Erase(kv[0]); err != nil {
				tx.Rollback()
				return err
			}
			found = true
		}
	}
	if !found {
		tx.Rollback()
		return ErrNoSuchPeer
	}
	return tx.Commit()
}

// Names returns every registered name, in the order first added.
func (p *PeerStore) Names() ([]string, error) {
	tx, err := recordstore.Begin(p.sub, recordstore.ReadOnly, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Commit()
	var names []string
	for _, kv := range tx.Iterator() {
		names = append(names, string(kv[0][len(nameKeyPrefix):]))
	}
	return names, nil
}

// Keys returns the deduplicated set of public keys currently named by
// at least one entry.
func (p *PeerStore) Keys() ([][]byte, error) {
	tx, err := recordstore.Begin(p.sub, recordstore.ReadOnly, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Commit()

	var keys [][]byte
	for _, kv := range tx.Iterator() {
		dup := false
		for _, k := range keys {
			if bytes.Equal(k, kv[1]) {
				dup = true
				break
			}
		}
		if !dup {
			keys = append(keys, kv[1])
		}
	}
	return keys, nil
}

package wallet

import "github.com/jmcleod/ironvault/recordstore"

// CommentStore is the {bytes → utf8-string} auxiliary store keyed by
// script/txid/address-hash (spec §4.8 Comment store).
type CommentStore struct {
	sub *recordstore.SubDB
}

func newCommentStore(sub *recordstore.SubDB) *CommentStore {
	if sub == nil {
		return nil
	}
	return &CommentStore{sub: sub}
}

// Put sets the comment for key, overwriting any existing one.
func (c *CommentStore) Put(key []byte, comment string) error {
	tx, err := recordstore.Begin(c.sub, recordstore.ReadWrite, nil)
	if err != nil {
		return err
	}
	if err := tx.Insert(key, []byte(comment)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Get returns the comment for key, if any.
func (c *CommentStore) Get(key []byte) (string, bool, error) {
	tx, err := recordstore.Begin(c.sub, recordstore.ReadOnly, nil)
	if err != nil {
		return "", false, err
	}
	defer tx.Commit()
	val, ok := tx.Get(key)
	if !ok {
		return "", false, nil
	}
	return string(val), true, nil
}

// Delete removes the comment for key, if any.
func (c *CommentStore) Delete(key []byte) error {
	tx, err := recordstore.Begin(c.sub, recordstore.ReadWrite, nil)
	if err != nil {
		return err
	}
	if err := tx.Erase(key); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// All returns every (key, comment) pair currently live.
func (c *CommentStore) All() (map[string]string, error) {
	tx, err := recordstore.Begin(c.sub, recordstore.ReadOnly, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Commit()

	out := make(map[string]string)
	for _, kv := range tx.Iterator() {
		out[string(kv[0])] = string(kv[1])
	}
	return out, nil
}

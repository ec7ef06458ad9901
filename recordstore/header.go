package recordstore

import (
	"fmt"

	"github.com/jmcleod/ironvault/internal/wire"
	"go.etcd.io/bbolt"
)

// PutHeader writes h as the header record for dbName inside this sub-DB's
// bucket (spec §6 Header codec). Header records are not IES packets --
// they are the unencrypted bootstrap metadata a reader needs before any
// key-stream can be derived -- so this bypasses the record-counter scheme
// entirely and writes directly under the 0xC0-prefixed header key.
func (s *SubDB) PutHeader(dbName string, h any) error {
	data, err := wire.EncodeHeader(h)
	if err != nil {
		return fmt.Errorf("recordstore: encoding header for %q: %w", dbName, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucketName)
		if err != nil {
			return err
		}
		return b.Put(wire.HeaderKey(dbName), data)
	})
}

// GetHeader reads the header record for dbName into out, reporting
// whether it was present.
func (s *SubDB) GetHeader(dbName string, out any) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucketName)
		if b == nil {
			return nil
		}
		data := b.Get(wire.HeaderKey(dbName))
		if data == nil {
			return nil
		}
		found = true
		return wire.DecodeHeader(data, out)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// ListHeaderNames returns the sub-DB names of every header record present.
func (s *SubDB) ListHeaderNames() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucketName)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if name, ok := wire.IsHeaderKey(k); ok {
				names = append(names, name)
			}
		}
		return nil
	})
	return names, err
}

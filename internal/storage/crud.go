package storage

import (
	"encoding/json"
	"errors"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/manav03panchal/tasktime/internal/model"
)

var (
	// ErrKeyNotFound is returned when a key is not found in the database.
	ErrKeyNotFound = errors.New("key not found")
)

// IsErrKeyNotFound returns true if the error is a key not found error.
func IsErrKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound) || errors.Is(err, badger.ErrKeyNotFound)
}

// Get retrieves a value by key and unmarshals it into v.
func (d *DB) Get(key string, v model.Model) error {
	return d.db.View(func(txn *badger.Txn) error {
		return readInto(txn, key, v)
	})
}

// Set stores a model in the database.
func (d *DB) Set(v model.Model) error {
	if err := d.checkSpace(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(v.GetKey()), data)
	})
}

// Modify loads v (if present), applies fn and writes v back in a single
// transaction. found reports whether the key existed. If fn returns an error
// nothing is written.
func (d *DB) Modify(v model.Model, fn func(found bool) error) error {
	if err := d.checkSpace(); err != nil {
		return err
	}
	key := v.GetKey()

	return d.db.Update(func(txn *badger.Txn) error {
		err := readInto(txn, key, v)
		found := err == nil
		if err != nil && !errors.Is(err, ErrKeyNotFound) {
			return err
		}

		if err := fn(found); err != nil {
			return err
		}

		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return txn.Set([]byte(key), data)
	})
}

// Delete removes a key from the database.
func (d *DB) Delete(key string) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func readInto(txn *badger.Txn, key string, v model.Model) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		return err
	}

	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, v); err != nil {
			return err
		}
		v.SetKey(key)
		return nil
	})
}

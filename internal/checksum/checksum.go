// Package checksum is the change-detection gate for the pipeline: a durable
// map from document identifier to the last fully-processed content digest.
// Every downstream stage keys its skip-vs-process decision off this store.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// Outcome reports whether freshly fetched bytes differ from the stored digest.
type Outcome int

const (
	Unchanged Outcome = iota
	Changed
)

func (o Outcome) String() string {
	if o == Unchanged {
		return "unchanged"
	}
	return "changed"
}

// Store persists title digests in an embedded badger database. Writes are
// transactional: a crash mid-update leaves either the old or the new digest.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the checksum database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open checksum store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Digest computes the content digest used throughout the pipeline.
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the stored digest for a title, if any.
func (s *Store) Lookup(title int) (string, bool, error) {
	var digest string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(title))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		digest = string(val)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("checksum lookup title %d: %w", title, err)
	}
	return digest, true, nil
}

// Check compares fresh bytes against the stored digest without writing
// anything. The staged pipeline commits separately, after every downstream
// stage for the document has succeeded.
func (s *Store) Check(title int, body []byte) (Outcome, string, error) {
	digest := Digest(body)
	prev, ok, err := s.Lookup(title)
	if err != nil {
		return Changed, digest, err
	}
	if ok && prev == digest {
		return Unchanged, digest, nil
	}
	return Changed, digest, nil
}

// Commit atomically advances the stored digest for a title. Committing an
// identical digest is a no-op that leaves the same stored state.
func (s *Store) Commit(title int, digest string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(title), []byte(digest))
	})
	if err != nil {
		return fmt.Errorf("checksum commit title %d: %w", title, err)
	}
	return nil
}

// RecordAndCompare is the one-shot form: compare fresh bytes against the
// stored digest and, only if different, advance the mapping. Safe to call
// repeatedly with identical input.
func (s *Store) RecordAndCompare(title int, body []byte) (Outcome, string, error) {
	outcome, digest, err := s.Check(title, body)
	if err != nil {
		return outcome, digest, err
	}
	if outcome == Unchanged {
		return Unchanged, digest, nil
	}
	if err := s.Commit(title, digest); err != nil {
		return Changed, digest, err
	}
	return Changed, digest, nil
}

func key(title int) []byte {
	return []byte(fmt.Sprintf("title/%d", title))
}

// Package mmrstore persists an mmr.MMR's leaves and running sum to a bbolt
// database, one bucket per leaf kind, adapting the bucket-per-concern
// layout and fixed-width manual encoding the teacher repo's node/store
// package uses for its own chain-state persistence.
package mmrstore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"rubin.dev/mwvalidation/mmr"
)

var (
	metaBucket = []byte("meta")
)

const (
	countKeySuffix = ":count"
	sumKeySuffix   = ":sum"
)

// Store opens and owns a bbolt database file used to persist one or more
// named MMR instances. Each name gets its own leaf bucket; all names share
// the single meta bucket for their count/sum records.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) a bbolt database at path, ensuring
// the shared meta bucket exists.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("mmrstore: open: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("mmrstore: init meta bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func leafBucketName(kind string) []byte {
	return []byte("leaves:" + kind)
}

func indexKey(i uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], i)
	return b[:]
}

// SaveLeaves persists count leaves of the named kind by invoking save(i)
// to obtain each leaf's encoded bytes (typically leaf.Save into a
// bytes.Buffer), then records count and the codec-encoded sum in the meta
// bucket. A prior generation's leaf bucket for kind is dropped first so
// stale entries past the new count cannot linger.
func SaveLeaves(s *Store, kind string, count uint64, sum []byte, save func(i uint64) ([]byte, error)) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucketName := leafBucketName(kind)
		if err := tx.DeleteBucket(bucketName); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("mmrstore: drop stale leaf bucket %q: %w", kind, err)
		}
		bucket, err := tx.CreateBucket(bucketName)
		if err != nil {
			return fmt.Errorf("mmrstore: create leaf bucket %q: %w", kind, err)
		}
		for i := uint64(0); i < count; i++ {
			data, err := save(i)
			if err != nil {
				return fmt.Errorf("mmrstore: encode leaf %d of %q: %w", i, kind, err)
			}
			if err := bucket.Put(indexKey(i), data); err != nil {
				return fmt.Errorf("mmrstore: put leaf %d of %q: %w", i, kind, err)
			}
		}

		meta := tx.Bucket(metaBucket)
		var countBytes [8]byte
		binary.BigEndian.PutUint64(countBytes[:], count)
		if err := meta.Put([]byte(kind+countKeySuffix), countBytes[:]); err != nil {
			return fmt.Errorf("mmrstore: put count for %q: %w", kind, err)
		}
		if err := meta.Put([]byte(kind+sumKeySuffix), sum); err != nil {
			return fmt.Errorf("mmrstore: put sum for %q: %w", kind, err)
		}
		return nil
	})
}

// LoadLeaves reads back count and sum from the meta bucket, then invokes
// restore(i, data) for each persisted leaf in index order.
func LoadLeaves(s *Store, kind string, restore func(i uint64, data []byte) error) (count uint64, sum []byte, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		countBytes := meta.Get([]byte(kind + countKeySuffix))
		if countBytes == nil {
			return nil // nothing persisted yet for this kind
		}
		count = binary.BigEndian.Uint64(countBytes)
		sum = append([]byte(nil), meta.Get([]byte(kind+sumKeySuffix))...)

		bucket := tx.Bucket(leafBucketName(kind))
		if bucket == nil {
			return fmt.Errorf("mmrstore: meta recorded count %d for %q but leaf bucket is missing", count, kind)
		}
		for i := uint64(0); i < count; i++ {
			data := bucket.Get(indexKey(i))
			if data == nil {
				return fmt.Errorf("mmrstore: missing leaf %d of %q", i, kind)
			}
			if err := restore(i, data); err != nil {
				return fmt.Errorf("mmrstore: restore leaf %d of %q: %w", i, kind, err)
			}
		}
		return nil
	})
	return count, sum, err
}

var blobBucket = []byte("mmrblobs")

// SaveMMR persists the whole of m (in exactly the wire shape
// mmr.MMR.Save writes: count ‖ sum ‖ pruned-bitmap ‖ leaves) as a single
// blob keyed by kind, alongside the per-leaf buckets SaveLeaves/LoadLeaves
// offer for indexed access. This is the pairing callers should use when
// they intend to reconstruct a live *mmr.MMR via LoadMMR.
func SaveMMR[L mmr.Leaf[S], S any](s *Store, kind string, m *mmr.MMR[L, S]) error {
	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		return fmt.Errorf("mmrstore: encode mmr %q: %w", kind, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(blobBucket)
		if err != nil {
			return fmt.Errorf("mmrstore: create blob bucket: %w", err)
		}
		return bucket.Put([]byte(kind), buf.Bytes())
	})
}

// LoadMMR reads back the blob SaveMMR wrote and restores it into m via
// mmr.MMR.Restore, which itself re-validates the persisted sum against a
// replay of every live leaf (spec §6).
func LoadMMR[L mmr.Leaf[S], S any](s *Store, kind string, m *mmr.MMR[L, S]) (found bool, err error) {
	var data []byte
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(blobBucket)
		if bucket == nil {
			return nil
		}
		data = append([]byte(nil), bucket.Get([]byte(kind))...)
		return nil
	})
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := m.Restore(bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("mmrstore: restore mmr %q: %w", kind, err)
	}
	return true, nil
}

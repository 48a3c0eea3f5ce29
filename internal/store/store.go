package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/arun279/notebook-sources/internal/domain"
)

// Bucket names
var (
	bucketCollections = []byte("collections")
	bucketRecords     = []byte("records")
)

// SnapshotStore implements domain.CacheStore using BoltDB. It holds the last
// known server snapshots so the UI renders instantly on startup; the server
// stays the source of truth and every poll overwrites what is here.
type SnapshotStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewSnapshotStore opens (or creates) the cache for one server. An empty
// baseCacheDir selects memory-only mode, used by tests.
func NewSnapshotStore(baseCacheDir, serverURL string) (*SnapshotStore, error) {
	if baseCacheDir == "" {
		return &SnapshotStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "nbsrc.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCollections, bucketRecords} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SnapshotStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *SnapshotStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *SnapshotStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *SnapshotStore) delete(bucket []byte, key string) {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

// === Collections ===

// Collections returns the last cached collection summaries. Refreshing is
// transient client state and always comes back false from the cache.
func (s *SnapshotStore) Collections() ([]domain.Collection, bool) {
	var collections []domain.Collection
	ok := s.get(bucketCollections, "list", &collections)
	return collections, ok
}

func (s *SnapshotStore) SaveCollections(collections []domain.Collection) error {
	// Strip the transient refresh marker before persisting; it is only
	// meaningful while its baseline exists in the running session.
	stored := make([]domain.Collection, len(collections))
	copy(stored, collections)
	for i := range stored {
		stored[i].Refreshing = false
	}
	return s.set(bucketCollections, "list", stored)
}

// === Records (keyed by owning collection) ===

func (s *SnapshotStore) Records(collectionID string) ([]domain.Record, bool) {
	var records []domain.Record
	ok := s.get(bucketRecords, "col:"+collectionID, &records)
	return records, ok
}

func (s *SnapshotStore) SaveRecords(collectionID string, records []domain.Record) error {
	return s.set(bucketRecords, "col:"+collectionID, records)
}

// DeleteCollection drops a collection's record cache and removes it from the
// cached summary list.
func (s *SnapshotStore) DeleteCollection(collectionID string) {
	s.delete(bucketRecords, "col:"+collectionID)

	collections, ok := s.Collections()
	if !ok {
		return
	}
	kept := collections[:0]
	for _, c := range collections {
		if c.ID != collectionID {
			kept = append(kept, c)
		}
	}
	s.set(bucketCollections, "list", kept)
}

// InvalidateAll wipes every cached snapshot.
func (s *SnapshotStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCollections, bucketRecords} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

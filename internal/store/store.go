// Package store persists an offline snapshot of the user's per-item
// entries in BoltDB, so ratings and watchlist marks render instantly on
// startup before the remote round-trip completes.
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

	"github.com/aribau/cartelera/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")
)

const metaSyncedAt = "synced_at"

// entryRow is the serialized form of one user entry.
type entryRow struct {
	Rating      *int `json:"rating"`
	OnWatchlist bool `json:"on_watchlist"`
}

// UserStore implements the offline user-data snapshot using BoltDB.
type UserStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewUserStore opens (or creates) the snapshot database under baseDir.
// With an empty baseDir the store runs memory-only, which is what the
// tests and the unauthenticated path use. userID scopes the database
// file so switching accounts never mixes snapshots.
func NewUserStore(baseDir, userID string) (*UserStore, error) {
	if baseDir == "" {
		return &UserStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseDir
	if userID != "" {
		dir = filepath.Join(baseDir, hashUserID(userID))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "cartelera.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEntries, bucketMeta} {
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

	return &UserStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashUserID(userID string) string {
	normalized := strings.TrimSpace(strings.ToLower(userID))
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *UserStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *UserStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
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

func (s *UserStore) set(bucket []byte, key string, value interface{}) error {
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

func (s *UserStore) delete(bucket []byte, key string) {
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

// === Entries ===

// SaveEntry writes one confirmed entry through to disk.
func (s *UserStore) SaveEntry(itemID string, entry domain.UserMovieEntry) error {
	return s.set(bucketEntries, itemID, entryRow{Rating: entry.Rating, OnWatchlist: entry.OnWatchlist})
}

// GetEntry reads one entry.
func (s *UserStore) GetEntry(itemID string) (domain.UserMovieEntry, bool) {
	var row entryRow
	if !s.get(bucketEntries, itemID, &row) {
		return domain.UserMovieEntry{}, false
	}
	return domain.UserMovieEntry{Rating: row.Rating, OnWatchlist: row.OnWatchlist}, true
}

// DeleteEntry removes one entry.
func (s *UserStore) DeleteEntry(itemID string) {
	s.delete(bucketEntries, itemID)
}

// All returns the full snapshot map.
func (s *UserStore) All() (map[string]domain.UserMovieEntry, error) {
	entries := make(map[string]domain.UserMovieEntry)

	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		prefix := string(bucketEntries) + ":"
		for k, data := range s.cache {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			var row entryRow
			if json.Unmarshal(data, &row) == nil {
				entries[strings.TrimPrefix(k, prefix)] = domain.UserMovieEntry{Rating: row.Rating, OnWatchlist: row.OnWatchlist}
			}
		}
		return entries, nil
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var row entryRow
			if json.Unmarshal(v, &row) == nil {
				entries[string(k)] = domain.UserMovieEntry{Rating: row.Rating, OnWatchlist: row.OnWatchlist}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ReplaceAll swaps the snapshot wholesale, as after a login fetch.
func (s *UserStore) ReplaceAll(entries map[string]domain.UserMovieEntry) error {
	s.Clear()
	for id, e := range entries {
		if err := s.SaveEntry(id, e); err != nil {
			return err
		}
	}
	return s.set(bucketMeta, metaSyncedAt, time.Now().Unix())
}

// SyncedAt returns the unix timestamp of the last full snapshot, 0 if never.
func (s *UserStore) SyncedAt() int64 {
	var ts int64
	if !s.get(bucketMeta, metaSyncedAt, &ts) {
		return 0
	}
	return ts
}

// Clear wipes all entries and metadata, as on logout.
func (s *UserStore) Clear() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEntries, bucketMeta} {
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

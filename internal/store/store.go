package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/imgport/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketCatalog = []byte("catalog")
	bucketHistory = []byte("history")
)

const (
	pageKeyPrefix = "page:"
	statsKey      = "stats"

	// MaxHistory bounds the import history; older records are pruned
	MaxHistory = 200
)

// CatalogStore implements domain.Store using BoltDB.
type CatalogStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache and history

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte

	// history is only used in memory-only mode
	history []domain.ImportSummary
}

// NewCatalogStore opens the cache for serverURL under baseCacheDir. An empty
// baseCacheDir keeps everything in memory.
func NewCatalogStore(baseCacheDir, serverURL string) (*CatalogStore, error) {
	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return &CatalogStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "imgport.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCatalog, bucketHistory} {
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

	return &CatalogStore{db: db, cache: make(map[string][]byte)}, nil
}

// hashServerURL keeps caches of different servers apart
func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *CatalogStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *CatalogStore) get(bucket []byte, key string, dest any) bool {
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

func (s *CatalogStore) set(bucket []byte, key string, value any) error {
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
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *CatalogStore) clearBucket(bucket []byte) {
	s.mu.Lock()
	cachePrefix := string(bucket) + ":"
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return deleteKeys(b, collectKeys(b, -1))
	})
}

// collectKeys returns up to limit keys in order; limit < 0 means all
func collectKeys(b *bolt.Bucket, limit int) [][]byte {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil && limit != 0; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
		limit--
	}
	return keys
}

func deleteKeys(b *bolt.Bucket, keys [][]byte) error {
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// === Catalog ===

func pageKey(page int) string {
	return pageKeyPrefix + strconv.Itoa(page)
}

func (s *CatalogStore) GetCatalogPage(page int) (domain.CatalogPage, bool) {
	var p domain.CatalogPage
	ok := s.get(bucketCatalog, pageKey(page), &p)
	return p, ok
}

func (s *CatalogStore) SaveCatalogPage(page domain.CatalogPage) error {
	return s.set(bucketCatalog, pageKey(page.PageNumber), page)
}

func (s *CatalogStore) GetStats() (domain.CatalogStats, bool) {
	var stats domain.CatalogStats
	ok := s.get(bucketCatalog, statsKey, &stats)
	return stats, ok
}

func (s *CatalogStore) SaveStats(stats domain.CatalogStats) error {
	return s.set(bucketCatalog, statsKey, stats)
}

// InvalidateCatalog drops every cached page and the stats snapshot
func (s *CatalogStore) InvalidateCatalog() {
	s.clearBucket(bucketCatalog)
}

// === Import history (key: big-endian sequence, oldest first) ===

// RecordImport appends summary to the history and prunes beyond MaxHistory
func (s *CatalogStore) RecordImport(summary domain.ImportSummary) error {
	if summary.CompletedAt.IsZero() {
		summary.CompletedAt = time.Now()
	}

	if s.db == nil {
		s.mu.Lock()
		s.history = append(s.history, summary)
		if over := len(s.history) - MaxHistory; over > 0 {
			s.history = append([]domain.ImportSummary(nil), s.history[over:]...)
		}
		s.mu.Unlock()
		return nil
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err := b.Put(sequenceKey(seq), data); err != nil {
			return err
		}

		if over := len(collectKeys(b, -1)) - MaxHistory; over > 0 {
			return deleteKeys(b, collectKeys(b, over))
		}
		return nil
	})
}

// ImportHistory returns recorded imports, newest first
func (s *CatalogStore) ImportHistory() ([]domain.ImportSummary, error) {
	var history []domain.ImportSummary

	if s.db == nil {
		s.mu.RLock()
		history = append(history, s.history...)
		s.mu.RUnlock()
	} else {
		err := s.db.View(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketHistory).ForEach(func(_, v []byte) error {
				var summary domain.ImportSummary
				if err := json.Unmarshal(v, &summary); err != nil {
					return err
				}
				history = append(history, summary)
				return nil
			})
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read import history: %w", err)
		}
	}

	slices.Reverse(history)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CompletedAt.After(history[j].CompletedAt)
	})
	return history, nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// InvalidateAll clears the catalog cache and import history
func (s *CatalogStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.history = nil
	s.mu.Unlock()

	s.clearBucket(bucketCatalog)
	s.clearBucket(bucketHistory)
}

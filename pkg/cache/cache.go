// Package cache implements the local content-addressed cache: key
// derivation is the caller's job (pkg/client builds the fingerprinted
// key string), this package owns atomic writes, partial-entry
// isolation, and corrupt-entry quarantine.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

// Entry is the self-described on-disk envelope: version, completeness,
// write time, and the two freshness-relevant observations (API date and
// last_update snapshot), wrapping the opaque payload bytes.
type Entry struct {
	Version             int             `json:"version"`
	Complete            bool            `json:"complete"`
	WrittenAt           time.Time       `json:"written_at"`
	APIDateObserved     *time.Time      `json:"api_date_observed,omitempty"`
	LastUpdateSnapshot  string          `json:"last_update_snapshot,omitempty"`
	Payload             json.RawMessage `json:"payload"`
}

const entryVersion = 1

// Hit is a successful cache read.
type Hit struct {
	Entry Entry
	Stale bool
}

// Manager is the file-backed Cache Gateway.
type Manager struct {
	dir     string
	ttl     time.Duration
	locks   sync.Map // key string -> *sync.Mutex
	logger  zerolog.Logger
	metrics *metricsSet
}

// NewManager creates a Manager rooted at dir, creating it if needed. A
// zero dir disables the cache entirely (Get always misses, Set is a
// no-op), matching the original implementation's cache_dir=None mode.
func NewManager(dir string, ttl time.Duration, logger zerolog.Logger) (*Manager, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: create dir: %w", err)
		}
	}
	return &Manager{dir: dir, ttl: ttl, logger: logger.With().Str("component", "cache").Logger(), metrics: defaultMetrics}, nil
}

func (m *Manager) pathFor(key string) string {
	digest := sha256.Sum256([]byte(key))
	return filepath.Join(m.dir, hex.EncodeToString(digest[:])+".json")
}

func (m *Manager) keyLock(key string) *sync.Mutex {
	v, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Get returns a hit iff mode != Off, FORCE_REFRESH is not requested,
// the file is readable, and the entry is complete or allowIncomplete is
// true. A readable-but-corrupt file is quarantined and treated as a
// miss; processing continues.
func (m *Manager) Get(key string, mode boj.CacheMode, allowIncomplete bool) (*Hit, error) {
	if m.dir == "" || mode == boj.CacheOff || mode == boj.CacheForceRefresh {
		return nil, nil
	}

	path := m.pathFor(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			m.metrics.misses.Inc()
			return nil, nil
		}
		m.metrics.errors.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("cache: read: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		m.quarantine(path)
		m.metrics.errors.WithLabelValues("decode").Inc()
		m.logger.Warn().Str("key", key).Err(err).Msg("quarantined corrupt cache entry")
		return nil, nil
	}

	if !allowIncomplete && !entry.Complete {
		m.metrics.misses.Inc()
		return nil, nil
	}

	stale := time.Since(entry.WrittenAt) > m.ttl
	m.metrics.hits.Inc()
	m.logger.Debug().Str("key", key).Bool("stale", stale).Msg("cache hit")
	return &Hit{Entry: entry, Stale: stale}, nil
}

// Set atomically writes payload under key. Writers to the same key are
// serialized by an in-process mutex; the tempfile+fsync+rename sequence
// additionally makes the write crash-safe across processes sharing the
// same cache directory.
func (m *Manager) Set(key string, payload json.RawMessage, complete bool, apiDateObserved *time.Time, lastUpdateSnapshot string) error {
	if m.dir == "" {
		return nil
	}

	lock := m.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	entry := Entry{
		Version:            entryVersion,
		Complete:           complete,
		WrittenAt:          time.Now(),
		APIDateObserved:    apiDateObserved,
		LastUpdateSnapshot: lastUpdateSnapshot,
		Payload:            payload,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}

	path := m.pathFor(key)
	tmp, err := os.CreateTemp(m.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		m.metrics.errors.WithLabelValues("write").Inc()
		return fmt.Errorf("cache: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		m.metrics.errors.WithLabelValues("write").Inc()
		return fmt.Errorf("cache: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		m.metrics.errors.WithLabelValues("write").Inc()
		return fmt.Errorf("cache: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		m.metrics.errors.WithLabelValues("write").Inc()
		return fmt.Errorf("cache: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		m.metrics.errors.WithLabelValues("write").Inc()
		return fmt.Errorf("cache: rename: %w", err)
	}

	m.logger.Debug().Str("key", key).Bool("complete", complete).Msg("cache write")
	return nil
}

func (m *Manager) quarantine(path string) {
	_ = os.Rename(path, path+".broken")
}

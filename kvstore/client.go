// ABOUTME: Key-value client over charm KV (synced) or a local badger database
// ABOUTME: Holds the persisted session profile and gateway tokens between runs
package kvstore

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// AppName is the charm KV database name.
const AppName = "ancora"

var ErrNotFound = errors.New("key not found")

// Config selects and tunes the backend.
type Config struct {
	// Host is the charm server. Empty keeps everything in a local badger
	// database under Dir.
	Host string

	// AutoSync pushes to the charm server after every write.
	AutoSync bool

	Dir string
}

// backend is the subset of charm's kv.KV the client needs.
type backend interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
}

// Client wraps a KV backend with locking and sync.
type Client struct {
	kv     backend
	closer func() error
	config Config
	mu     sync.RWMutex
}

// Open connects to charm when a host is configured, otherwise opens badger
// at cfg.Dir.
func Open(cfg Config) (*Client, error) {
	if cfg.Host != "" {
		// Set charm host before opening KV
		_ = os.Setenv("CHARM_HOST", cfg.Host)

		db, err := kv.OpenWithDefaults(AppName)
		if err != nil {
			return nil, fmt.Errorf("failed to open charm kv: %w", err)
		}

		// Sync on startup to pull remote changes
		if cfg.AutoSync {
			_ = db.Sync()
		}
		return &Client{kv: db, config: cfg}, nil
	}

	if cfg.Dir == "" {
		return nil, errors.New("kvstore: no charm host and no local directory configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, err
	}

	local, err := openLocal(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open local kv: %w", err)
	}
	return &Client{kv: local, closer: local.Close, config: cfg}, nil
}

// Close releases the local database. The charm backend has no close hook.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closer != nil {
		return c.closer()
	}
	return nil
}

// Get retrieves a value by key.
func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, err := c.kv.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

// Set stores a value and syncs if enabled.
func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(key, value); err != nil {
		return err
	}

	// Sync while still holding lock to avoid race condition
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// Delete removes a key and syncs if enabled. Missing keys are not an error.
func (c *Client) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}

	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// Keys returns all keys.
func (c *Client) Keys() ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Keys()
}

// Sync performs a manual sync with the charm server.
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// localKV is a badger database shaped like charm's kv.KV.
type localKV struct {
	db *badger.DB
}

func openLocal(dir string) (*localKV, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &localKV{db: db}, nil
}

func (l *localKV) Get(key []byte) ([]byte, error) {
	var result []byte
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	return result, err
}

func (l *localKV) Set(key, value []byte) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (l *localKV) Delete(key []byte) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (l *localKV) Keys() ([][]byte, error) {
	var keys [][]byte
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

// Sync is a no-op locally.
func (l *localKV) Sync() error {
	return nil
}

func (l *localKV) Close() error {
	return l.db.Close()
}

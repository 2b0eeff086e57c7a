package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

const sourcesBucket = "sources"

var ErrSourceDBClosed = errors.New("source registry is closed")

// SourceDB is the bbolt-backed registry of imported sources. Values are
// JSON-encoded domain.Source records keyed by name, so listing iterates in
// name order.
type SourceDB struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
}

func OpenSourceDB(path string) (*SourceDB, error) {
	options := &bolt.Options{Timeout: time.Second}
	base, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("open source db: %w", err)
	}
	if err := ensureSchema(base); err != nil {
		_ = base.Close()
		return nil, err
	}
	return &SourceDB{db: base, path: path}, nil
}

func ensureSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sourcesBucket))
		return err
	})
}

func (d *SourceDB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

// Put inserts or replaces a source record.
func (d *SourceDB) Put(source domain.Source) error {
	if !domain.ValidSourceName(source.Name) {
		return domain.E(domain.CodeInvalidArgument, "store.Put",
			fmt.Sprintf("invalid source name %q", source.Name), domain.ErrInvalidSourceName)
	}
	payload, err := json.Marshal(source)
	if err != nil {
		return fmt.Errorf("marshal source: %w", err)
	}
	return d.update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sourcesBucket)).Put([]byte(source.Name), payload)
	})
}

// Get returns the source record for name or domain.ErrSourceNotFound.
func (d *SourceDB) Get(name string) (domain.Source, error) {
	var source domain.Source
	err := d.view(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(sourcesBucket)).Get([]byte(name))
		if raw == nil {
			return fmt.Errorf("source %q: %w", name, domain.ErrSourceNotFound)
		}
		return json.Unmarshal(raw, &source)
	})
	return source, err
}

// List returns every source record in name order.
func (d *SourceDB) List() ([]domain.Source, error) {
	var out []domain.Source
	err := d.view(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sourcesBucket)).ForEach(func(_, value []byte) error {
			var source domain.Source
			if err := json.Unmarshal(value, &source); err != nil {
				return fmt.Errorf("decode source record: %w", err)
			}
			out = append(out, source)
			return nil
		})
	})
	return out, err
}

func (d *SourceDB) view(fn func(*bolt.Tx) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrSourceDBClosed
	}
	return d.db.View(fn)
}

func (d *SourceDB) update(fn func(*bolt.Tx) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrSourceDBClosed
	}
	return d.db.Update(fn)
}

// Package gateway serves static assets cache-first from versioned disk
// buckets, falling back to the network and finally to an offline document,
// so the web UI keeps working without connectivity.
package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry is one cached response: what came back for a request path.
type Entry struct {
	Path        string    `json:"path"`
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	StoredAt    time.Time `json:"stored_at"`
}

// Bucket is a named, versioned store of path→response pairs, one JSON file
// per entry under root/<name>/, keyed by a hash of the request path.
type Bucket struct {
	name string
	dir  string
}

func openBucket(root, name string) (*Bucket, error) {
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache bucket %s: %w", name, err)
	}
	return &Bucket{name: name, dir: dir}, nil
}

func (b *Bucket) Name() string { return b.name }

func (b *Bucket) entryFile(path string) string {
	sum := sha256.Sum256([]byte(path))
	return filepath.Join(b.dir, hex.EncodeToString(sum[:])+".json")
}

// Get returns the cached entry for path and whether one exists.
func (b *Bucket) Get(path string) (*Entry, bool, error) {
	data, err := os.ReadFile(b.entryFile(path))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		// A corrupt cache file is treated as a miss; the next network
		// fetch overwrites it.
		return nil, false, nil
	}
	return &e, true, nil
}

// Put stores an entry under path, replacing any previous one.
func (b *Bucket) Put(path string, e *Entry) error {
	stored := *e
	stored.Path = path
	if stored.StoredAt.IsZero() {
		stored.StoredAt = time.Now()
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	if err := os.WriteFile(b.entryFile(path), data, 0o644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", path, err)
	}
	return nil
}

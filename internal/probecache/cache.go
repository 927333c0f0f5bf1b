// Package probecache memoizes asset durations in a bbolt file so repeated
// renders against the same media directory skip ffprobe.
package probecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/video-stream/signreel/internal/compose"
)

var bucketProbes = []byte("probes")

type entry struct {
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration"`
	ProbedAt time.Time     `json:"probed_at"`
}

type Cache struct {
	db *bbolt.DB
}

func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open probe cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketProbes)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Len returns the number of cached durations.
func (c *Cache) Len() int {
	n := 0
	c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketProbes).Stats().KeyN
		return nil
	})
	return n
}

// Wrap returns a Prober that consults the cache before p. Entries are keyed by
// path, size and modification time, so replacing a file invalidates it.
// Failed probes are never stored.
func (c *Cache) Wrap(p compose.Prober) compose.Prober {
	return &cachedProber{cache: c, next: p}
}

type cachedProber struct {
	cache *Cache
	next  compose.Prober
}

func (p *cachedProber) Duration(ctx context.Context, path string) (time.Duration, error) {
	key, err := cacheKey(path)
	if err != nil {
		return 0, err
	}

	if d, ok := p.cache.get(key); ok {
		return d, nil
	}

	d, err := p.next.Duration(ctx, path)
	if err != nil {
		return 0, err
	}
	if err := p.cache.put(key, entry{Path: path, Duration: d, ProbedAt: time.Now()}); err != nil {
		log.Printf("[probecache] store %s: %v", path, err)
	}
	return d, nil
}

func cacheKey(path string) ([]byte, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return []byte(fmt.Sprintf("%s|%d|%d", abs, st.Size(), st.ModTime().UnixNano())), nil
}

func (c *Cache) get(key []byte) (time.Duration, bool) {
	var e entry
	found := false
	c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketProbes).Get(key)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		found = true
		return nil
	})
	return e.Duration, found
}

func (c *Cache) put(key []byte, e entry) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketProbes).Put(key, data)
	})
}

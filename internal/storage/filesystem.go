package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrMediaDirectoryMissing is returned when the sign asset directory does not exist
// or cannot be read.
var ErrMediaDirectoryMissing = errors.New("media directory missing")

// FallbackName is the asset used when no key of a word resolves.
const FallbackName = "default_video.mp4"

// Kind distinguishes clips from stills.
type Kind int

const (
	KindVideo Kind = iota
	KindImage
)

func (k Kind) String() string {
	if k == KindImage {
		return "image"
	}
	return "video"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Asset is one resolved media file in the catalog.
type Asset struct {
	Key  string `json:"key"`
	Ext  string `json:"ext"`
	Name string `json:"name"` // original-case filename
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
}

// Extensions in probe priority order. The first one present for a key wins.
var assetExtensions = []struct {
	Ext  string
	Kind Kind
}{
	{".mp4", KindVideo},
	{".png", KindImage},
	{".jpg", KindImage},
	{".jpeg", KindImage},
}

// IsAssetFile reports whether name carries one of the supported asset extensions.
func IsAssetFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range assetExtensions {
		if e.Ext == ext {
			return true
		}
	}
	return false
}

// Catalog indexes one media directory. It is built once per run and never mutated.
type Catalog struct {
	dir   string
	files map[string]string // lowercased filename -> original filename
}

// BuildCatalog scans mediaDir once.
func BuildCatalog(mediaDir string) (*Catalog, error) {
	info, err := os.Stat(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMediaDirectoryMissing, mediaDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMediaDirectoryMissing, mediaDir)
	}

	entries, err := os.ReadDir(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMediaDirectoryMissing, mediaDir, err)
	}

	files := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files[strings.ToLower(entry.Name())] = entry.Name()
	}
	return &Catalog{dir: mediaDir, files: files}, nil
}

// Dir returns the scanned directory.
func (c *Catalog) Dir() string { return c.dir }

// Len returns the number of indexed files.
func (c *Catalog) Len() int { return len(c.files) }

// Files returns the original filenames, sorted.
func (c *Catalog) Files() []string {
	names := make([]string, 0, len(c.files))
	for _, name := range c.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup probes the supported extensions for key in priority order.
func (c *Catalog) Lookup(key string) (Asset, bool) {
	return c.firstExisting(strings.ToLower(key))
}

// Fallback returns the default video, if the directory has one. It is never part
// of the per-key probe.
func (c *Catalog) Fallback() (Asset, bool) {
	name, ok := c.files[FallbackName]
	if !ok {
		return Asset{}, false
	}
	return Asset{
		Key:  strings.TrimSuffix(FallbackName, ".mp4"),
		Ext:  ".mp4",
		Name: name,
		Path: filepath.Join(c.dir, name),
		Kind: KindVideo,
	}, true
}

// firstExisting stops at the first extension present for key; later extensions
// are not consulted.
func (c *Catalog) firstExisting(key string) (Asset, bool) {
	for _, e := range assetExtensions {
		name, ok := c.files[key+e.Ext]
		if !ok {
			continue
		}
		return Asset{
			Key:  key,
			Ext:  e.Ext,
			Name: name,
			Path: filepath.Join(c.dir, name),
			Kind: e.Kind,
		}, true
	}
	return Asset{}, false
}

// Search returns assets whose key contains query (case-insensitive), sorted
// by key. An empty query lists the whole vocabulary. The fallback clip is not
// part of the vocabulary. maxResults <= 0 means no limit.
func (c *Catalog) Search(query string, maxResults int) []Asset {
	query = strings.ToLower(strings.TrimSpace(query))
	fallbackKey := strings.TrimSuffix(FallbackName, filepath.Ext(FallbackName))

	seen := make(map[string]bool)
	var keys []string
	for lower := range c.files {
		if !IsAssetFile(lower) {
			continue
		}
		key := strings.TrimSuffix(lower, filepath.Ext(lower))
		if key == fallbackKey || seen[key] || !strings.Contains(key, query) {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var results []Asset
	for _, key := range keys {
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
		if a, ok := c.Lookup(key); ok {
			results = append(results, a)
		}
	}
	return results
}

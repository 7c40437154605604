package explorer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Cache holds raw interface JSON keyed by contract address.
type Cache struct {
	mu    sync.RWMutex
	data  map[string]string
	dirty bool
}

func NewCache() *Cache {
	return &Cache{data: make(map[string]string)}
}

func (c *Cache) Get(address string) (string, bool) {
	c.mu.RLock()
	raw, ok := c.data[cacheKey(address)]
	c.mu.RUnlock()
	return raw, ok
}

func (c *Cache) Set(address, raw string) {
	c.mu.Lock()
	c.data[cacheKey(address)] = raw
	c.dirty = true
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// LoadCache reads a cache file. A missing file yields an empty cache.
func LoadCache(path string) (*Cache, error) {
	cache := NewCache()
	if path == "" {
		return cache, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return nil, fmt.Errorf("read abi cache: %w", err)
	}
	if err := json.Unmarshal(data, &cache.data); err != nil {
		return nil, fmt.Errorf("parse abi cache: %w", err)
	}
	if cache.data == nil {
		cache.data = make(map[string]string)
	}
	return cache, nil
}

// Save writes the cache to path if it changed since load.
func (c *Cache) Save(path string) error {
	if path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create abi cache dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal abi cache: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write abi cache tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename abi cache: %w", err)
	}
	c.dirty = false
	return nil
}

func cacheKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

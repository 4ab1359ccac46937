// Package skins caches skin data received from the server and persists the
// client fingerprint sent with Join. Storage is injected as a KV so the same
// cache runs against SQLite in the client and in memory in tests.
package skins

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Buckets used in the KV store.
const (
	BucketSkins  = "skins"
	BucketClient = "client"

	fingerprintKey = "fingerprint"
)

// Category groups skin IDs by what they dress.
type Category uint8

const (
	CategoryBase Category = iota
	CategoryBuilding
	CategoryUnit
	CategoryCustom
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryBase:
		return "base"
	case CategoryBuilding:
		return "building"
	case CategoryUnit:
		return "unit"
	default:
		return "custom"
	}
}

// CategoryOf maps a skin ID to its category: base 0-31, building 32-63,
// unit 64-127, custom 128-255.
func CategoryOf(skin uint8) Category {
	switch {
	case skin < 32:
		return CategoryBase
	case skin < 64:
		return CategoryBuilding
	case skin < 128:
		return CategoryUnit
	default:
		return CategoryCustom
	}
}

// Bundled reports whether a skin ships with the client and never needs to
// be fetched.
func Bundled(skin uint8) bool {
	return CategoryOf(skin) != CategoryCustom
}

// KV is the persistence the cache needs. *storage.Store implements it.
type KV interface {
	Get(bucket, key string) ([]byte, bool, error)
	Put(bucket, key string, value []byte) error
	Delete(bucket, key string) error
	Keys(bucket string) ([]string, error)
	Clear(bucket string) (int64, error)
}

// Cache is the skin cache service. Safe for concurrent use.
type Cache struct {
	kv KV

	mu        sync.Mutex
	mem       map[uint8][]byte
	requested map[uint8]bool
}

// New creates a cache over kv. A nil kv keeps everything in memory.
func New(kv KV) *Cache {
	if kv == nil {
		kv = NewMemoryKV()
	}
	return &Cache{
		kv:        kv,
		mem:       make(map[uint8][]byte),
		requested: make(map[uint8]bool),
	}
}

// Has reports whether the skin can be rendered without asking the server.
func (c *Cache) Has(skin uint8) bool {
	if Bundled(skin) {
		return true
	}
	_, ok := c.Get(skin)
	return ok
}

// Get returns cached skin bytes, loading them from the KV on first use.
func (c *Cache) Get(skin uint8) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if data, ok := c.mem[skin]; ok {
		return data, true
	}
	data, ok, err := c.kv.Get(BucketSkins, key(skin))
	if err != nil || !ok {
		return nil, false
	}
	c.mem[skin] = data
	return data, true
}

// Put stores skin bytes in memory and in the KV.
func (c *Cache) Put(skin uint8, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem[skin] = data
	delete(c.requested, skin)
	if err := c.kv.Put(BucketSkins, key(skin), data); err != nil {
		return fmt.Errorf("skins: save %d: %w", skin, err)
	}
	return nil
}

// MarkRequested records an outstanding request. It returns false if one is
// already in flight, so the caller does not ask twice.
func (c *Cache) MarkRequested(skin uint8) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.requested[skin] {
		return false
	}
	c.requested[skin] = true
	return true
}

// ForgetRequests drops the in-flight markers, e.g. after a reconnect.
func (c *Cache) ForgetRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requested = make(map[uint8]bool)
}

// List returns the IDs of every persisted skin, sorted.
func (c *Cache) List() ([]uint8, error) {
	keys, err := c.kv.Keys(BucketSkins)
	if err != nil {
		return nil, fmt.Errorf("skins: list: %w", err)
	}
	ids := make([]uint8, 0, len(keys))
	for _, k := range keys {
		n, err := strconv.ParseUint(k, 10, 8)
		if err != nil {
			continue
		}
		ids = append(ids, uint8(n))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Clear forgets every cached skin.
func (c *Cache) Clear() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem = make(map[uint8][]byte)
	c.requested = make(map[uint8]bool)
	n, err := c.kv.Clear(BucketSkins)
	if err != nil {
		return 0, fmt.Errorf("skins: clear: %w", err)
	}
	return n, nil
}

// Fingerprint returns the persistent client fingerprint, generating and
// saving one on first use.
func (c *Cache) Fingerprint() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok, err := c.kv.Get(BucketClient, fingerprintKey)
	if err != nil {
		return 0, fmt.Errorf("skins: read fingerprint: %w", err)
	}
	if ok && len(data) == 4 {
		return binary.BigEndian.Uint32(data), nil
	}

	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("skins: generate fingerprint: %w", err)
	}
	if err := c.kv.Put(BucketClient, fingerprintKey, buf[:]); err != nil {
		return 0, fmt.Errorf("skins: save fingerprint: %w", err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func key(skin uint8) string {
	return strconv.Itoa(int(skin))
}

// MemoryKV is an in-memory KV.
type MemoryKV struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{buckets: make(map[string]map[string][]byte)}
}

func (m *MemoryKV) Get(bucket, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.buckets[bucket][key]
	return v, ok, nil
}

func (m *MemoryKV) Put(bucket, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		m.buckets[bucket] = b
	}
	b[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets[bucket], key)
	return nil
}

func (m *MemoryKV) Keys(bucket string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.buckets[bucket]))
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryKV) Clear(bucket string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.buckets[bucket]))
	delete(m.buckets, bucket)
	return n, nil
}

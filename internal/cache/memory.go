package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/sells-group/planpilot/internal/model"
	"github.com/sells-group/planpilot/internal/monitoring"
)

const defaultShards = 16

// Memory is an in-process Store. Keys are spread over independently locked
// shards. Expired entries are removed lazily by the Get that finds them.
type Memory struct {
	shards  []*shard
	ttl     time.Duration
	now     func() time.Time
	metrics *monitoring.Metrics
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	result   *model.AnalysisResult
	storedAt time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithShards sets the shard count.
func WithShards(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.shards = newShards(n)
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// WithMemoryMetrics records hits and misses.
func WithMemoryMetrics(metrics *monitoring.Metrics) MemoryOption {
	return func(m *Memory) {
		m.metrics = metrics
	}
}

// NewMemory creates a Memory store whose entries stay valid for ttl.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		shards: newShards(defaultShards),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func newShards(n int) []*shard {
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return shards
}

func (m *Memory) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.shards[h.Sum32()%uint32(len(m.shards))]
}

// Get returns the result stored for postcode if it is no older than the TTL.
func (m *Memory) Get(_ context.Context, postcode string) (*model.AnalysisResult, bool) {
	key := Key(postcode)
	s := m.shardFor(key)

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		m.metrics.CacheLookup("memory", false)
		return nil, false
	}

	if m.now().Sub(e.storedAt) > m.ttl {
		s.mu.Lock()
		// A fresh Put may have replaced e since the read lock was released.
		if s.entries[key] == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		m.metrics.CacheLookup("memory", false)
		return nil, false
	}

	m.metrics.CacheLookup("memory", true)
	return e.result, true
}

// Put stores result under postcode, replacing any previous entry.
func (m *Memory) Put(_ context.Context, postcode string, result *model.AnalysisResult) {
	if result == nil {
		return
	}
	key := Key(postcode)
	s := m.shardFor(key)
	e := &entry{result: result, storedAt: m.now()}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

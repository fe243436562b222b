package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/planpilot/internal/model"
	"github.com/sells-group/planpilot/internal/monitoring"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func sampleResult(postcode string) *model.AnalysisResult {
	return &model.AnalysisResult{
		Postcode:       postcode,
		ViabilityScore: 78.5,
		MLPrediction:   model.MLPrediction{ApprovalProbability: 0.85, Mode: model.PredictionModeFallback},
	}
}

func TestMemory_PutGet(t *testing.T) {
	m := NewMemory(5 * time.Minute)
	ctx := context.Background()

	_, ok := m.Get(ctx, "SW9 8JH")
	assert.False(t, ok)

	r := sampleResult("SW9 8JH")
	m.Put(ctx, "SW9 8JH", r)

	got, ok := m.Get(ctx, "SW9 8JH")
	require.True(t, ok)
	assert.Same(t, r, got)
}

func TestMemory_KeyIgnoresCaseAndSpacing(t *testing.T) {
	m := NewMemory(5 * time.Minute)
	ctx := context.Background()

	m.Put(ctx, "sw9 8jh", sampleResult("SW9 8JH"))

	for _, pc := range []string{"SW9 8JH", "SW98JH", " sw9  8JH "} {
		_, ok := m.Get(ctx, pc)
		assert.True(t, ok, pc)
	}
	assert.Equal(t, 1, m.Len())
}

func TestMemory_TTLBoundary(t *testing.T) {
	clock := newClock()
	m := NewMemory(300*time.Second, WithClock(clock.Now))
	ctx := context.Background()

	m.Put(ctx, "SW9 8JH", sampleResult("SW9 8JH"))

	clock.Advance(300 * time.Second)
	_, ok := m.Get(ctx, "SW9 8JH")
	assert.True(t, ok, "entry exactly at TTL is still valid")

	clock.Advance(time.Second)
	_, ok = m.Get(ctx, "SW9 8JH")
	assert.False(t, ok, "entry past TTL is expired")
	assert.Equal(t, 0, m.Len(), "expired entry removed on read")
}

func TestMemory_PutRefreshesEntry(t *testing.T) {
	clock := newClock()
	m := NewMemory(300*time.Second, WithClock(clock.Now))
	ctx := context.Background()

	m.Put(ctx, "SW9 8JH", sampleResult("SW9 8JH"))
	clock.Advance(200 * time.Second)

	fresh := sampleResult("SW9 8JH")
	fresh.ViabilityScore = 54.5
	m.Put(ctx, "SW9 8JH", fresh)
	clock.Advance(200 * time.Second)

	got, ok := m.Get(ctx, "SW9 8JH")
	require.True(t, ok)
	assert.Equal(t, 54.5, got.ViabilityScore)
}

func TestMemory_PutNilIgnored(t *testing.T) {
	m := NewMemory(time.Minute)
	m.Put(context.Background(), "SW9 8JH", nil)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_Concurrent(t *testing.T) {
	m := NewMemory(time.Minute, WithShards(4))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pc := fmt.Sprintf("E%d 1AA", i%8)
			for j := 0; j < 100; j++ {
				m.Put(ctx, pc, sampleResult(pc))
				got, ok := m.Get(ctx, pc)
				if assert.True(t, ok) {
					assert.Equal(t, pc, got.Postcode)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, m.Len())
}

func TestMemory_Metrics(t *testing.T) {
	metrics := monitoring.NewMetrics()
	m := NewMemory(time.Minute, WithMemoryMetrics(metrics))
	ctx := context.Background()

	m.Get(ctx, "SW9 8JH")
	m.Put(ctx, "SW9 8JH", sampleResult("SW9 8JH"))
	m.Get(ctx, "SW9 8JH")
	m.Get(ctx, "SW9 8JH")

	expected := `
# HELP planpilot_cache_lookups_total Result cache lookups by result.
# TYPE planpilot_cache_lookups_total counter
planpilot_cache_lookups_total{backend="memory",result="hit"} 2
planpilot_cache_lookups_total{backend="memory",result="miss"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "planpilot_cache_lookups_total"))
}

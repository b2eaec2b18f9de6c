package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
	"github.com/couchcryptid/voyage-emissions-service/internal/observability"
	"github.com/couchcryptid/voyage-emissions-service/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawMessage
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	failKeys map[string]bool
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawMessage) (domain.VoyageEstimate, error) {
	if m.failKeys[string(raw.Key)] {
		return domain.VoyageEstimate{}, errors.New("bad request")
	}
	return domain.VoyageEstimate{RequestID: string(raw.Key)}, nil
}

type mockLoader struct {
	mu       sync.Mutex
	loaded   []domain.VoyageEstimate
	failures int
}

func (m *mockLoader) LoadBatch(_ context.Context, estimates []domain.VoyageEstimate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, estimates...)
	return nil
}

func (m *mockLoader) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.loaded))
	for i, e := range m.loaded {
		out[i] = e.RequestID
	}
	return out
}

type commitLog struct {
	mu   sync.Mutex
	keys []string
}

func (c *commitLog) message(key string) domain.RawMessage {
	return domain.RawMessage{
		Key:   []byte(key),
		Topic: "voyage-requests",
		Commit: func(_ context.Context) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.keys = append(c.keys, key)
			return nil
		},
	}
}

func (c *commitLog) committed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.keys...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	commits := &commitLog{}
	ext := &mockExtractor{batches: [][]domain.RawMessage{
		{commits.message("req-1"), commits.message("req-2")},
	}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 50)
	runFor(t, p, 300*time.Millisecond)

	assert.Equal(t, []string{"req-1", "req-2"}, ldr.ids())
	assert.Equal(t, []string{"req-1", "req-2"}, commits.committed())
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MessagesConsumed), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MessagesProduced), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0, "gauge reset on stop")
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.ids())
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	commits := &commitLog{}
	ext := &mockExtractor{batches: [][]domain.RawMessage{
		{commits.message("good"), commits.message("bad")},
	}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{failKeys: map[string]bool{"bad": true}}, ldr, discardLogger(), metrics, 50)
	runFor(t, p, 300*time.Millisecond)

	assert.Equal(t, []string{"good"}, ldr.ids())
	assert.ElementsMatch(t, []string{"good", "bad"}, commits.committed(), "failed messages are committed so they are not redelivered")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TransformErrors), 0)
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	commits := &commitLog{}
	ext := &mockExtractor{batches: [][]domain.RawMessage{{commits.message("req-1")}}}
	ldr := &mockLoader{failures: 1}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 50)
	runFor(t, p, 300*time.Millisecond)

	assert.Empty(t, ldr.ids())
	assert.Empty(t, commits.committed())
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("broker unreachable")}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 50)

	start := time.Now()
	runFor(t, p, 300*time.Millisecond)

	assert.Less(t, time.Since(start), 2*time.Second, "backoff sleep honours cancellation")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_CheckReadiness_BeforeRun(t *testing.T) {
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 50)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

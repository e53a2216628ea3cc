package insight

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/llm"
	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/llmschema"
)

// stubClient scripts completion responses per task id and instruments
// concurrency so tests can verify the shared limiter bound.
type stubClient struct {
	mu        sync.Mutex
	responses map[string]json.RawMessage
	failTasks map[string]bool
	failAll   bool
	prompts   map[string]string
	delays    map[string]time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32
	reduceCalls atomic.Int32
}

func newStubClient() *stubClient {
	return &stubClient{
		responses: map[string]json.RawMessage{},
		failTasks: map[string]bool{},
		prompts:   map[string]string{},
		delays:    map[string]time.Duration{},
	}
}

func (s *stubClient) Name() string             { return "stub" }
func (s *stubClient) Close() error             { return nil }
func (s *stubClient) TokenCapacity() int       { return 1 << 20 }
func (s *stubClient) CountTokens(t string) int { return len(t) / 4 }

func (s *stubClient) Complete(ctx context.Context, taskID, prompt string, _ *llmschema.Schema) (json.RawMessage, error) {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		max := s.maxInFlight.Load()
		if cur <= max || s.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	s.calls.Add(1)
	if strings.HasSuffix(taskID, "-reduce") {
		s.reduceCalls.Add(1)
	}

	s.mu.Lock()
	s.prompts[taskID] = prompt
	delay := s.delays[taskID]
	fail := s.failAll || s.failTasks[taskID]
	resp, ok := s.responses[taskID]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if fail {
		return nil, errors.New("stub: completion failed")
	}
	if !ok {
		return nil, errors.New("stub: no scripted response for " + taskID)
	}
	return resp, nil
}

// testChunking packs two ten-char summaries per chunk.
var testChunking = ChunkConfig{MaxTokens: 25, BudgetRatio: 1, AvgCharsPerToken: 1}

func testSummaries(n int) []string {
	base := []string{"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc", "dddddddddd", "eeeeeeeeee", "ffffffffff", "gggggggggg", "hhhhhhhhhh"}
	return base[:n]
}

func newTestGenerator(client llm.Client, capacity int) *Generator {
	return NewGenerator(client, llm.NewLimiter(capacity), NewRegistry(), nil, testChunking)
}

func TestGenerateInsightsMapReduce(t *testing.T) {
	// 5 summaries, 2 per chunk -> 3 chunks, 3 MAP calls, 1 REDUCE call.
	stub := newStubClient()
	stub.responses["technologies-map-1"] = json.RawMessage(`{"technologies":[{"name":"PostgreSQL","description":"db"}]}`)
	stub.responses["technologies-map-2"] = json.RawMessage(`{"technologies":[{"name":"Kafka","description":"broker"}]}`)
	stub.responses["technologies-map-3"] = json.RawMessage(`{"technologies":[{"name":"Redis","description":"cache"}]}`)
	stub.responses["technologies-reduce"] = json.RawMessage(`{"technologies":[{"name":"PostgreSQL","description":"merged"}]}`)

	gen := newTestGenerator(stub, 4)
	out, err := gen.GenerateInsights(context.Background(), CategoryTechnologies, testSummaries(5))
	require.NoError(t, err)
	require.Equal(t, int32(4), stub.calls.Load())
	require.Equal(t, int32(1), stub.reduceCalls.Load())

	arr, ok := out["technologies"].([]any)
	require.True(t, ok)
	require.Len(t, arr, 1)
	require.Equal(t, "merged", arr[0].(map[string]any)["description"], "result equals the consolidating call's response")
}

func TestGenerateInsightsAllChunksFailed(t *testing.T) {
	stub := newStubClient()
	stub.failAll = true

	gen := newTestGenerator(stub, 4)
	out, err := gen.GenerateInsights(context.Background(), CategoryTechnologies, testSummaries(5))
	require.NoError(t, err, "total chunk failure degrades, it does not throw")
	require.Nil(t, out)
	require.Equal(t, int32(0), stub.reduceCalls.Load(), "consolidation is never attempted without partials")
}

func TestGenerateInsightsPartialChunkFailure(t *testing.T) {
	stub := newStubClient()
	stub.responses["technologies-map-1"] = json.RawMessage(`{"technologies":["a"]}`)
	stub.failTasks["technologies-map-2"] = true
	stub.responses["technologies-map-3"] = json.RawMessage(`{"technologies":["c"]}`)
	stub.responses["technologies-reduce"] = json.RawMessage(`{"technologies":["a","c"]}`)

	gen := newTestGenerator(stub, 4)
	out, err := gen.GenerateInsights(context.Background(), CategoryTechnologies, testSummaries(5))
	require.NoError(t, err)
	require.NotNil(t, out, "surviving partials still consolidate")

	// The reduce input sees only the surviving partials, in submission order.
	reducePrompt := stub.prompts["technologies-reduce"]
	require.Contains(t, reducePrompt, `"a"`)
	require.Contains(t, reducePrompt, `"c"`)
	require.NotContains(t, reducePrompt, `"b"`)
}

func TestGenerateInsightsReduceFailure(t *testing.T) {
	stub := newStubClient()
	stub.responses["technologies-map-1"] = json.RawMessage(`{"technologies":["a"]}`)
	stub.responses["technologies-map-2"] = json.RawMessage(`{"technologies":["b"]}`)
	stub.responses["technologies-map-3"] = json.RawMessage(`{"technologies":["c"]}`)
	stub.failTasks["technologies-reduce"] = true

	gen := newTestGenerator(stub, 4)
	out, err := gen.GenerateInsights(context.Background(), CategoryTechnologies, testSummaries(5))
	require.NoError(t, err)
	require.Nil(t, out, "reduce failure degrades to an absent insight")
}

func TestGenerateInsightsSinglePass(t *testing.T) {
	stub := newStubClient()
	stub.responses["technologies"] = json.RawMessage(`{"technologies":["only"]}`)

	gen := newTestGenerator(stub, 4)
	out, err := gen.GenerateInsights(context.Background(), CategoryTechnologies, []string{"tiny"})
	require.NoError(t, err)
	require.Equal(t, int32(1), stub.calls.Load(), "small input takes exactly one completion call")
	require.Equal(t, []any{"only"}, out["technologies"])
}

func TestGenerateInsightsUnknownCategory(t *testing.T) {
	gen := newTestGenerator(newStubClient(), 1)
	_, err := gen.GenerateInsights(context.Background(), Category("nonsense"), []string{"x"})
	require.Error(t, err)
}

func TestGenerateInsightsEmptySummaries(t *testing.T) {
	stub := newStubClient()
	gen := newTestGenerator(stub, 1)
	out, err := gen.GenerateInsights(context.Background(), CategoryTechnologies, nil)
	require.NoError(t, err)
	require.Nil(t, out)
	require.Equal(t, int32(0), stub.calls.Load())
}

func TestGenerateInsightsConcurrencyBound(t *testing.T) {
	stub := newStubClient()
	for i := 1; i <= 4; i++ {
		taskID := "technologies-map-" + string(rune('0'+i))
		stub.responses[taskID] = json.RawMessage(`{"technologies":["x"]}`)
		stub.delays[taskID] = 20 * time.Millisecond
	}
	stub.responses["technologies-reduce"] = json.RawMessage(`{"technologies":["x"]}`)

	gen := newTestGenerator(stub, 2)
	_, err := gen.GenerateInsights(context.Background(), CategoryTechnologies, testSummaries(8))
	require.NoError(t, err)
	require.LessOrEqual(t, stub.maxInFlight.Load(), int32(2), "in-flight calls never exceed limiter capacity")
}

func TestGenerateInsightsCombinesInSubmissionOrder(t *testing.T) {
	// The first chunk completes last; combined order must still follow
	// chunk submission order, not completion order.
	stub := newStubClient()
	stub.responses["technologies-map-1"] = json.RawMessage(`{"technologies":["first-chunk"]}`)
	stub.responses["technologies-map-2"] = json.RawMessage(`{"technologies":["second-chunk"]}`)
	stub.responses["technologies-map-3"] = json.RawMessage(`{"technologies":["third-chunk"]}`)
	stub.delays["technologies-map-1"] = 40 * time.Millisecond
	stub.responses["technologies-reduce"] = json.RawMessage(`{"technologies":["ok"]}`)

	gen := newTestGenerator(stub, 4)
	_, err := gen.GenerateInsights(context.Background(), CategoryTechnologies, testSummaries(5))
	require.NoError(t, err)

	reducePrompt := stub.prompts["technologies-reduce"]
	first := strings.Index(reducePrompt, "first-chunk")
	second := strings.Index(reducePrompt, "second-chunk")
	third := strings.Index(reducePrompt, "third-chunk")
	require.True(t, first >= 0 && second >= 0 && third >= 0)
	require.Less(t, first, second)
	require.Less(t, second, third)
}

func TestGenerateInsightsCancellation(t *testing.T) {
	stub := newStubClient()
	for i := 1; i <= 3; i++ {
		taskID := "technologies-map-" + string(rune('0'+i))
		stub.responses[taskID] = json.RawMessage(`{"technologies":["x"]}`)
		stub.delays[taskID] = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	limiter := llm.NewLimiter(2)
	gen := NewGenerator(stub, limiter, NewRegistry(), nil, testChunking)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	out, err := gen.GenerateInsights(ctx, CategoryTechnologies, testSummaries(5))
	require.NoError(t, err)
	require.Nil(t, out)
	require.Equal(t, 0, limiter.InFlight(), "cancellation must not leak limiter slots")
}

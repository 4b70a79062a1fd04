// internal/eval/eval_test.go
package eval

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripwise/internal/llm"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
	m sync.Mutex
}

func NewTestLogger(t *testing.T) *TestLogger { return &TestLogger{t: t} }

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.m.Lock()
	defer l.m.Unlock()
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.m.Lock()
	defer l.m.Unlock()
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger { return l }

// ==========================
// Test Helper Functions
// ==========================

type stubJudge struct {
	response string
	err      error
}

func (s *stubJudge) Complete(ctx context.Context, messages []llm.Message, opts *llm.Options) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

// ==========================
// ContainsKeyword Tests
// ==========================

func TestContainsKeyword(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		answer   string
		passed   bool
	}{
		{"exact match", "23kg", "The allowance is 23kg per bag.", true},
		{"case insensitive", "JFK", "flights from jfk are available", true},
		{"missing keyword", "7 business days", "refunds take a while", false},
		{"empty answer", "visa", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ContainsKeyword{}.Evaluate(context.Background(), Case{Expected: tt.expected}, tt.answer)

			assert.Equal(t, tt.passed, result.Passed)
			if tt.passed {
				assert.Equal(t, 1.0, result.Score)
			} else {
				assert.Equal(t, 0.0, result.Score)
				assert.NotEmpty(t, result.Reason)
			}
		})
	}
}

// ==========================
// LLMJudge Tests
// ==========================

func TestLLMJudge(t *testing.T) {
	tests := []struct {
		name     string
		response string
		score    float64
		passed   bool
	}{
		{
			name:     "clean JSON",
			response: `{"score": 0.9, "reason": "accurate"}`,
			score:    0.9,
			passed:   true,
		},
		{
			name:     "JSON inside prose",
			response: "Here is my verdict: {\"score\": 0.5, \"reason\": \"partial\"} as requested.",
			score:    0.5,
			passed:   false,
		},
		{
			name:     "malformed output",
			response: "I think this is a good answer.",
			score:    0,
			passed:   false,
		},
		{
			name:     "score clamped",
			response: `{"score": 1.8, "reason": "great"}`,
			score:    1.0,
			passed:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judge := NewLLMJudge(&stubJudge{response: tt.response})

			result := judge.Evaluate(context.Background(), Case{Input: "q", Expected: "e"}, "answer")

			assert.InDelta(t, tt.score, result.Score, 0.001)
			assert.Equal(t, tt.passed, result.Passed)
		})
	}
}

func TestLLMJudge_ClientErrorScoresZero(t *testing.T) {
	judge := NewLLMJudge(&stubJudge{err: llm.ErrLLMTimeout})

	result := judge.Evaluate(context.Background(), Case{}, "answer")

	assert.Equal(t, 0.0, result.Score)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reason, "judge unavailable")
}

// ==========================
// Runner Tests
// ==========================

func TestRunner_Run(t *testing.T) {
	target := func(ctx context.Context, input string) (string, error) {
		if strings.Contains(input, "baggage") {
			return "The allowance is 23kg.", nil
		}
		return "I cannot help with that.", nil
	}

	runner := NewRunner(target, []Evaluator{ContainsKeyword{}}, 2, NewTestLogger(t))

	report := runner.Run(context.Background(), []Case{
		{Input: "baggage allowance?", Expected: "23kg"},
		{Input: "visa rules?", Expected: "visa"},
	})

	require.Len(t, report.Cases, 2)
	assert.True(t, report.Cases[0].Results["contains_keyword"].Passed)
	assert.False(t, report.Cases[1].Results["contains_keyword"].Passed)

	summary := report.Summaries["contains_keyword"]
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 2, summary.Total)
	assert.InDelta(t, 0.5, summary.Avg, 0.001)
}

func TestRunner_TargetErrorScoresZero(t *testing.T) {
	target := func(ctx context.Context, input string) (string, error) {
		return "", assert.AnError
	}

	runner := NewRunner(target, []Evaluator{ContainsKeyword{}}, 2, NewTestLogger(t))

	report := runner.Run(context.Background(), []Case{{Input: "q", Expected: "e"}})

	require.Len(t, report.Cases, 1)
	assert.NotEmpty(t, report.Cases[0].Err)
	assert.Equal(t, 0.0, report.Cases[0].Results["contains_keyword"].Score)
	assert.Equal(t, 0, report.Summaries["contains_keyword"].Passed)
}

func TestRunner_BoundedConcurrency(t *testing.T) {
	var active, peak int64
	var mu sync.Mutex

	target := func(ctx context.Context, input string) (string, error) {
		current := atomic.AddInt64(&active, 1)
		mu.Lock()
		if current > peak {
			peak = current
		}
		mu.Unlock()
		defer atomic.AddInt64(&active, -1)
		return "answer", nil
	}

	runner := NewRunner(target, []Evaluator{ContainsKeyword{}}, 2, NewTestLogger(t))

	dataset := make([]Case, 12)
	for i := range dataset {
		dataset[i] = Case{Input: "q", Expected: "answer"}
	}
	report := runner.Run(context.Background(), dataset)

	assert.Len(t, report.Cases, 12)
	mu.Lock()
	assert.LessOrEqual(t, peak, int64(2))
	mu.Unlock()
}

func TestRunner_OrderPreserved(t *testing.T) {
	target := func(ctx context.Context, input string) (string, error) {
		return input, nil
	}

	runner := NewRunner(target, nil, 3, NewTestLogger(t))

	dataset := []Case{{Input: "a"}, {Input: "b"}, {Input: "c"}}
	report := runner.Run(context.Background(), dataset)

	require.Len(t, report.Cases, 3)
	assert.Equal(t, "a", report.Cases[0].Answer)
	assert.Equal(t, "b", report.Cases[1].Answer)
	assert.Equal(t, "c", report.Cases[2].Answer)
}

func TestBuiltinDataset(t *testing.T) {
	dataset := BuiltinDataset()

	assert.NotEmpty(t, dataset)
	for _, c := range dataset {
		assert.NotEmpty(t, c.Input)
		assert.NotEmpty(t, c.Expected)
	}
}

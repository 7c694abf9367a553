package capture

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock — управляемые часы для детерминированных сценариев.
type fakeClock struct{ ms int64 }

func (c *fakeClock) now() int64      { return c.ms }
func (c *fakeClock) set(ms int64)    { c.ms = ms }
func (c *fakeClock) advance(d int64) { c.ms += d }

func newTestTracker(clk *fakeClock) *Tracker {
	return NewTracker(
		WithClock(clk.now),
		WithRand(rand.New(rand.NewSource(1))),
	)
}

func TestRecordCallConfidence(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		isLLM    bool
		provider string
		conf     float64
	}{
		{"known provider", "https://api.openai.com/v1/chat/completions", true, "openai", 0.9},
		{"llm unknown provider", "https://internal.corp/v1/chat", true, ProviderUnknown, 0.5},
		{"plain call", "https://example.com/api/users", false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := &fakeClock{ms: 1000}
			tr := newTestTracker(clk)

			id := tr.RecordCall(tt.url, "POST", tt.isLLM)
			require.NotEmpty(t, id)
			require.Equal(t, 1, tr.Len())

			c := tr.calls[0]
			assert.Equal(t, tt.provider, c.Provider)
			assert.Equal(t, tt.conf, c.Confidence)
			assert.Equal(t, int64(1000), c.T0)
		})
	}
}

func TestFindCorrelatedScenario(t *testing.T) {
	// Вызов на t0=1000, клик на 2000: score = 0.9*0.7 + (1-1000/5000)*0.3 = 0.87.
	clk := &fakeClock{ms: 1000}
	tr := newTestTracker(clk)
	id := tr.RecordCall("https://api.openai.com/v1/chat/completions", "POST", true)

	got, ok := tr.FindCorrelated(2000)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestFindCorrelatedNeverReturnsStale(t *testing.T) {
	clk := &fakeClock{ms: 1000}
	tr := newTestTracker(clk)
	tr.RecordCall("https://api.openai.com/v1/chat/completions", "POST", true)

	// now - t0 > window — кандидат вне окна, хотя физически еще в памяти.
	_, ok := tr.FindCorrelated(1000 + CorrelationWindow.Milliseconds() + 1)
	assert.False(t, ok)
	assert.Equal(t, 1, tr.Len(), "lazy pruning: stale entry stays until next insert")
}

func TestFindCorrelatedTieBreak(t *testing.T) {
	// Два кандидата с идентичным score: побеждает более свежий (больший t0).
	clk := &fakeClock{ms: 1000}
	tr := newTestTracker(clk)
	tr.RecordCall("https://api.openai.com/v1/chat/completions", "POST", true)

	clk.set(1000) // тот же t0 — score совпадает полностью
	second := tr.RecordCall("https://api.anthropic.com/v1/messages", "POST", true)

	got, ok := tr.FindCorrelated(2000)
	require.True(t, ok)
	assert.Equal(t, second, got)
}

func TestFindCorrelatedPrefersConfidence(t *testing.T) {
	clk := &fakeClock{ms: 1000}
	tr := newTestTracker(clk)
	known := tr.RecordCall("https://api.groq.com/openai/v1/chat/completions", "POST", true)

	clk.set(1500) // свежее, но вендор не распознан
	tr.RecordCall("https://internal.corp/v1/chat", "POST", true)

	// 0.9*0.7+0.8*0.3=0.87 против 0.5*0.7+0.9*0.3=0.62.
	got, ok := tr.FindCorrelated(2000)
	require.True(t, ok)
	assert.Equal(t, known, got)
}

func TestFindCorrelatedSkipsNonLLM(t *testing.T) {
	clk := &fakeClock{ms: 1000}
	tr := newTestTracker(clk)
	tr.RecordCall("https://example.com/api/users", "GET", false)

	_, ok := tr.FindCorrelated(1500)
	assert.False(t, ok)
}

func TestFindCorrelatedEmptyWindow(t *testing.T) {
	tr := newTestTracker(&fakeClock{ms: 1000})
	_, ok := tr.FindCorrelated(1000)
	assert.False(t, ok)
}

func TestRecordCallPrunesFromFront(t *testing.T) {
	clk := &fakeClock{ms: 0}
	tr := newTestTracker(clk)

	for i := 0; i < 5; i++ {
		clk.set(int64(i) * 100)
		tr.RecordCall(fmt.Sprintf("https://api.openai.com/v1/chat/%d", i), "POST", true)
	}
	require.Equal(t, 5, tr.Len())

	// Новая вставка далеко в будущем выталкивает всё старое с головы окна.
	clk.set(10_000)
	tr.RecordCall("https://api.openai.com/v1/chat/fresh", "POST", true)
	assert.Equal(t, 1, tr.Len())
}

func TestWindowOrderedByT0(t *testing.T) {
	clk := &fakeClock{ms: 0}
	tr := newTestTracker(clk)
	for i := 0; i < 10; i++ {
		clk.advance(50)
		tr.RecordCall("https://api.mistral.ai/v1/chat/completions", "POST", true)
	}
	for i := 1; i < tr.Len(); i++ {
		assert.GreaterOrEqual(t, tr.calls[i].T0, tr.calls[i-1].T0)
	}
}

func TestCorrIDFormat(t *testing.T) {
	clk := &fakeClock{ms: 1700000000000}
	tr := newTestTracker(clk)
	id := tr.RecordCall("https://api.openai.com/v1/chat/completions", "POST", true)
	assert.Regexp(t, `^1700000000000_[0-9a-z]{6}$`, id)
}

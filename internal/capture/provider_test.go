package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://api.openai.com/v1/chat/completions", "openai"},
		{"https://API.OPENAI.COM/v1/embeddings", "openai"},
		{"https://api.anthropic.com/v1/messages", "anthropic"},
		{"https://generativelanguage.googleapis.com/v1beta/models", "google"},
		{"https://vertex-ai.googleapis.com/v1/projects/x", "google"},
		{"https://huggingface.co/api/inference/run", "huggingface"},
		{"https://api.perplexity.ai/chat/completions", "perplexity"},
		{"https://api.cohere.ai/v1/generate", "cohere"},
		{"https://api.replicate.com/v1/predictions", "replicate"},
		{"https://api.groq.com/openai/v1/chat/completions", "groq"},
		{"https://api.together.xyz/v1/completions", "together"},
		{"https://api.mistral.ai/v1/chat/completions", "mistral"},
		{"https://api.ai21.com/studio/v1/j2-ultra/complete", "ai21"},
		{"https://api.deepseek.com/chat/completions", "deepseek"},
		{"https://internal.corp/v1/chat", ProviderUnknown},
		{"", ProviderUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectProvider(tt.url), tt.url)
	}
}

func TestDetectProviderOrderSensitive(t *testing.T) {
	// URL матчится и generic-паттерном huggingface, и точным: побеждает
	// первая запись таблицы в порядке объявления.
	got := DetectProvider("https://api.huggingface.co/models/x")
	assert.Equal(t, "huggingface", got)
}

func TestIsLLM(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://api.openai.com/v1/chat/completions", true},
		{"https://api.openai.com/v1/files", false}, // не из списка путей OpenAI
		{"https://api.anthropic.com/v1/messages", true},
		{"https://myapp.dev/v1/chat", true},           // generic /v1/chat
		{"https://myapp.dev/api/v2/generate", true},   // generic /api/vN/generate
		{"https://ml.internal/predict", true},         // generic /predict
		{"https://example.com/api/users", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLLM(tt.url), tt.url)
	}
}

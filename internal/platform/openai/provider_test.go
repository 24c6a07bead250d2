package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewProvider(testLogger(), config.LLMConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1/",
		Model:   "default-model",
	})
	require.NoError(t, err)
	return p
}

func TestProvider_Complete(t *testing.T) {
	var got chatCompletionRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"{\"title\":\"T\"}"},"finish_reason":"stop"}]}`)
	})

	text, err := p.Complete(context.Background(), generation.Request{
		Model: "llama3.1",
		Messages: []generation.Message{
			{Role: generation.RoleSystem, Content: "Reply in JSON."},
			{Role: generation.RoleUser, Content: "Explain maps"},
		},
		Params: generation.Params{Temperature: 0.4, TopP: 0.9, MaxTokens: 300, JSONMode: true},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"title":"T"}`, text)
	assert.Equal(t, "llama3.1", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.4, *got.Temperature, 1e-6)
	assert.Equal(t, 300, got.MaxTokens)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestProvider_Complete_DefaultModelAndNoJSONMode(t *testing.T) {
	var got chatCompletionRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`)
	})

	text, err := p.Complete(context.Background(), generation.Request{
		Messages: []generation.Message{{Role: generation.RoleUser, Content: "hi"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "default-model", got.Model)
	assert.Nil(t, got.ResponseFormat)
	assert.Nil(t, got.Temperature)
}

func TestProvider_Complete_StatusClassification(t *testing.T) {
	tests := []struct {
		status        int
		wantTransient bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusTooManyRequests, true},
		{http.StatusRequestTimeout, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"message":"upstream says no","type":"x"}}`)
			})

			_, err := p.Complete(context.Background(), generation.Request{
				Messages: []generation.Message{{Role: generation.RoleUser, Content: "hi"}},
			})

			require.Error(t, err)
			assert.Contains(t, err.Error(), "upstream says no")
			assert.Equal(t, tt.wantTransient, generation.IsRetryable(err))
		})
	}
}

func TestProvider_Complete_EmptyChoicesIsTransient(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	})

	_, err := p.Complete(context.Background(), generation.Request{
		Messages: []generation.Message{{Role: generation.RoleUser, Content: "hi"}},
	})

	assert.ErrorIs(t, err, generation.ErrEmptyResponse)
	assert.True(t, generation.IsRetryable(err))
}

func TestProvider_Complete_DeadlinePropagates(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Complete(ctx, generation.Request{
		Messages: []generation.Message{{Role: generation.RoleUser, Content: "hi"}},
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(nil, config.LLMConfig{Model: "m"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewProvider(testLogger(), config.LLMConfig{})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	p, err := NewProvider(testLogger(), config.LLMConfig{Model: "gpt-4o-mini"}, WithHTTPClient(http.DefaultClient))
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "openai:https://api.openai.com/v1", p.Endpoint())
	assert.Same(t, http.DefaultClient, p.httpClient)
}

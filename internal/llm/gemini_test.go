package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func geminiReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(b)
}

func newTestClient(baseURL string) *GeminiClient {
	return NewGeminiClient(GeminiConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "gemini-1.5-flash",
	}, zap.NewNop(), nil)
}

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body generateRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "tỉnh nào?", body.Contents[0].Parts[0].Text)
		assert.Equal(t, DefaultGenerationConfig(), body.GenerationConfig)
		assert.Len(t, body.SafetySettings, 4)
		for _, s := range body.SafetySettings {
			assert.Equal(t, "BLOCK_NONE", s.Threshold)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(geminiReply(`{"province": "Hồ Chí Minh"}`)))
	}))
	defer server.Close()

	out := newTestClient(server.URL).Complete(context.Background(), "tỉnh nào?")
	assert.Equal(t, map[string]any{"province": "Hồ Chí Minh"}, out)
}

func TestComplete_RepairsTrailingComma(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(geminiReply("```json\n{\"province\": \"Hồ Chí Minh\",}\n```")))
	}))
	defer server.Close()

	out := newTestClient(server.URL).Complete(context.Background(), "p")
	assert.Equal(t, map[string]any{"province": "Hồ Chí Minh"}, out)
}

func TestComplete_FailuresYieldEmptyMap(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non 200", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": "quota"}`))
		}},
		{"missing candidates", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"promptFeedback": {}}`))
		}},
		{"empty parts", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": []}}]}`))
		}},
		{"not json body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
		{"array answer", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(geminiReply(`["Hồ Chí Minh"]`)))
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			out := newTestClient(server.URL).Complete(context.Background(), "p")
			assert.NotNil(t, out)
			assert.Empty(t, out)
		})
	}
}

func TestComplete_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	out := newTestClient(url).Complete(context.Background(), "p")
	assert.Empty(t, out)
}

func TestComplete_CancelledDuringDelay(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := NewGeminiClient(GeminiConfig{
		BaseURL:   server.URL,
		Model:     "m",
		CallDelay: time.Hour,
	}, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := client.Complete(ctx, "p")
	assert.Empty(t, out)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestNewGeminiClient_Defaults(t *testing.T) {
	client := NewGeminiClient(GeminiConfig{Model: "gemini-pro", APIKey: "k", RequestsPerSecond: 2}, nil, nil)

	assert.Equal(t, DefaultGenerationConfig(), client.cfg.Generation)
	assert.NotNil(t, client.limiter)
	assert.Equal(t,
		"https://generativelanguage.googleapis.com/v1/models/gemini-pro:generateContent?key=k",
		client.endpoint())
}

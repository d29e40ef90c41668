package adjudicator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricepilot/backend/internal/domain"
)

func completionResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}

func newTestClient(serverURL string) *Client {
	return NewClient(Config{
		APIKey:            "test-key",
		BaseURL:           serverURL + "/v1",
		Model:             "test-model",
		RequestsPerSecond: 100,
	})
}

func TestAdjudicatePositiveVerdict(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(completionResponse(`{"is_match": true, "reason": "same product"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	verdict, err := c.Adjudicate(context.Background(), "Chanel No5 EDP", "Chanel No 5 EDP", 450, 480)
	require.NoError(t, err)
	assert.True(t, verdict.IsMatch)
	assert.Equal(t, "same product", verdict.Reason)

	assert.Equal(t, "test-model", gotBody.Model)
	require.Len(t, gotBody.Messages, 1)
	assert.Contains(t, gotBody.Messages[0].Content, "Chanel No5 EDP")
	assert.Contains(t, gotBody.Messages[0].Content, "480.00")
}

func TestAdjudicateFencedVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "Here is my answer:\n```json\n{\"is_match\": false, \"reason\": \"different sizes\"}\n```"
		json.NewEncoder(w).Encode(completionResponse(content))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	verdict, err := c.Adjudicate(context.Background(), "a", "b", 1, 2)
	require.NoError(t, err)
	assert.False(t, verdict.IsMatch)
	assert.Equal(t, "different sizes", verdict.Reason)
}

func TestAdjudicateRetriesThenSucceeds(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(completionResponse(`{"is_match": true, "reason": "ok"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	verdict, err := c.Adjudicate(context.Background(), "a", "b", 1, 2)
	require.NoError(t, err)
	assert.True(t, verdict.IsMatch)
	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestAdjudicateExhaustedRetries(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Adjudicate(context.Background(), "a", "b", 1, 2)
	assert.True(t, errors.Is(err, domain.ErrAdjudicatorUnavailable))
	assert.EqualValues(t, maxAttempts, atomic.LoadInt64(&calls))
}

func TestAdjudicateMalformedCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionResponse("I cannot answer that."))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Adjudicate(context.Background(), "a", "b", 1, 2)
	assert.True(t, errors.Is(err, domain.ErrAdjudicatorUnavailable))
}

func TestAdjudicateCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionResponse(`{"is_match": true, "reason": "ok"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(server.URL)
	_, err := c.Adjudicate(ctx, "a", "b", 1, 2)
	assert.True(t, errors.Is(err, domain.ErrAdjudicatorUnavailable))
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		content string
		match   bool
		wantErr bool
	}{
		{"bare json", `{"is_match": true, "reason": "ok"}`, true, false},
		{"prose wrapped", `Sure! {"is_match": false, "reason": "no"} Hope that helps.`, false, false},
		{"no json", "no object here", false, true},
		{"broken json", `{"is_match": tr`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := parseVerdict(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.match, payload.IsMatch)
		})
	}
}

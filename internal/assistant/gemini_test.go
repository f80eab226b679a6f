package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"vitalflow/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestGemini(t *testing.T, rt roundTripFunc) *GeminiClient {
	t.Helper()
	client, err := NewGeminiClient(GeminiConfig{
		APIKey:            "test-key",
		Model:             "gemini-test",
		BaseURL:           "https://gemini.test/v1beta/",
		RequestsPerSecond: 1000,
		HTTPClient:        &http.Client{Transport: rt},
	}, quietLogger())
	require.NoError(t, err)
	return client
}

func TestGeminiGenerateSendsHistoryAndPrompt(t *testing.T) {
	var got geminiRequest
	client := newTestGemini(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":" 12 units "},{"text":"of plasma"}]}}]}`), nil
	})

	history := []Turn{
		{Role: types.ChatRoleUser, Text: "hello"},
		{Role: types.ChatRoleModel, Text: "hi"},
	}
	answer, err := client.Generate(context.Background(), history, "how much plasma?")
	require.NoError(t, err)
	assert.Equal(t, "12 units of plasma", answer)

	require.Len(t, got.Contents, 3)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "model", got.Contents[1].Role)
	assert.Equal(t, "how much plasma?", got.Contents[2].Parts[0].Text)
	require.NotNil(t, got.GenerationConfig)
	assert.Equal(t, 8192, got.GenerationConfig.MaxOutputTokens)
	assert.Len(t, got.SafetySettings, 4)
}

func TestGeminiEmptyCandidates(t *testing.T) {
	client := newTestGemini(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"candidates":[]}`), nil
	})

	_, err := client.Generate(context.Background(), nil, "anything")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiBreakerOpensAfterRepeatedFailures(t *testing.T) {
	calls := 0
	client := newTestGemini(t, func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusInternalServerError, `{"error":"boom"}`), nil
	})

	for i := 0; i < 3; i++ {
		_, err := client.Generate(context.Background(), nil, "q")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	}

	_, err := client.Generate(context.Background(), nil, "q")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, calls)
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(GeminiConfig{}, quietLogger())
	assert.Error(t, err)
}

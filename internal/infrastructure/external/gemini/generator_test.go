package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/asset-tracker/internal/application/port"
)

func TestGenerator_Generate(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "hello"}]}}],
			"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 1}
		}`))
	}))
	defer srv.Close()

	gen, err := NewGenerator(context.Background(), "g-key", srv.URL, "gemini-2.0-flash", zap.NewNop())
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), port.GenerateRequest{
		System:    "extract invoices",
		Prompt:    "DOC",
		MaxTokens: 128,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Contains(t, got, "systemInstruction")
	assert.Contains(t, got, "generationConfig")
}

func TestGenerator_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	gen, err := NewGenerator(context.Background(), "g-key", srv.URL, "gemini-2.0-flash", zap.NewNop())
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), port.GenerateRequest{Prompt: "x"})
	assert.Error(t, err)
}

package gemini_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/quill/pkg/adapters/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGenerator_Generate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash-lite:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req map[string]any
		require.NoError(t, json.Unmarshal(raw, &req))
		contents := req["contents"].([]any)
		parts := contents[0].(map[string]any)["parts"].([]any)
		assert.Equal(t, "Summarize: hi", parts[0].(map[string]any)["text"])

		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"- a"},{"text":"\n- b"}]},"finishReason":"STOP"}]}`)
	}))
	defer ts.Close()

	gen, err := gemini.New(gemini.WithBaseURL(ts.URL+"/"), gemini.WithAPIKey("secret"))
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), "gemini-2.5-flash-lite", "Summarize: hi")
	require.NoError(t, err)
	assert.Equal(t, "- a\n- b", out)
}

func TestGenerator_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"api error", http.StatusTooManyRequests, `{"error":{"code":429,"message":"Resource exhausted","status":"RESOURCE_EXHAUSTED"}}`, "Resource exhausted (status 429)"},
		{"plain text error", http.StatusInternalServerError, `oops`, "oops (status 500)"},
		{"blocked", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, "prompt blocked: SAFETY"},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, "no candidates"},
		{"garbage", http.StatusOK, `{`, "gemini:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			gen, err := gemini.New(gemini.WithBaseURL(ts.URL), gemini.WithAPIKey("k"))
			require.NoError(t, err)

			_, err = gen.Generate(context.Background(), "m", "p")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGenerator_APIErrorIsExposed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`)
	}))
	defer ts.Close()

	gen, err := gemini.New(gemini.WithBaseURL(ts.URL), gemini.WithAPIKey("bad"))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "m", "p")
	var apiErr genai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Code)
	assert.Equal(t, "PERMISSION_DENIED", apiErr.Status)
}

func TestNew_APIKey(t *testing.T) {
	t.Setenv(gemini.APIKeyEnv, "")
	_, err := gemini.New()
	assert.ErrorIs(t, err, gemini.ErrMissingAPIKey)

	t.Setenv(gemini.APIKeyEnv, "from-env")
	_, err = gemini.New()
	assert.NoError(t, err)
}

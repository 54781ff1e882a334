package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serviceStub answers every request with status and body, and records what it received.
func serviceStub(t *testing.T, status int, body string, calls *atomic.Int32, received *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		if received != nil {
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, received))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
}

func TestClient_RoundTrip(t *testing.T) {
	var calls atomic.Int32
	var received map[string]any
	ts := serviceStub(t, http.StatusOK, `{"result":"The cat sat."}`, &calls, &received)
	defer ts.Close()

	text := "  teh cat\tsat  \n"
	resp, err := NewClient(ts.URL).Submit(context.Background(), domain.TransformationRequest{
		Action: domain.ActionFixGrammar,
		Text:   text,
	})
	require.NoError(t, err)

	assert.Equal(t, "The cat sat.", resp.Result)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, map[string]any{"action": "grammar", "text": text}, received, "action and text reach the service unmodified")
}

func TestClient_Classification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   domain.ErrorKind
		want   error
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"model exploded"}`, domain.KindProtocol, domain.ErrProtocol},
		{"bad request", http.StatusBadRequest, `{"detail":"Text cannot be empty"}`, domain.KindProtocol, domain.ErrProtocol},
		{"html body", http.StatusOK, `<html>oops</html>`, domain.KindProtocol, domain.ErrProtocol},
		{"array body", http.StatusOK, `["x"]`, domain.KindProtocol, domain.ErrProtocol},
		{"non-string result", http.StatusOK, `{"result": 42}`, domain.KindProtocol, domain.ErrProtocol},
		{"truncated json", http.StatusOK, `{"result": "The ca`, domain.KindProtocol, domain.ErrProtocol},
		{"empty body", http.StatusOK, ``, domain.KindProtocol, domain.ErrProtocol},
		{"missing result", http.StatusOK, `{}`, domain.KindEmptyResult, domain.ErrEmptyResult},
		{"null result", http.StatusOK, `{"result": null}`, domain.KindEmptyResult, domain.ErrEmptyResult},
		{"blank result", http.StatusOK, `{"result": ""}`, domain.KindEmptyResult, domain.ErrEmptyResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			ts := serviceStub(t, tt.status, tt.body, &calls, nil)
			defer ts.Close()

			_, err := NewClient(ts.URL).Submit(context.Background(), domain.TransformationRequest{
				Action: domain.ActionRewrite,
				Text:   "hello",
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var te *domain.TransformError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.kind, te.Kind)
			assert.Equal(t, tt.status, te.Status)
			assert.Equal(t, int32(1), calls.Load(), "exactly one exchange, no retry")
		})
	}
}

func TestClient_ErrorDetail(t *testing.T) {
	var calls atomic.Int32
	ts := serviceStub(t, http.StatusInternalServerError, `{"detail":"quota exceeded"}`, &calls, nil)
	defer ts.Close()

	_, err := NewClient(ts.URL).Submit(context.Background(), domain.TransformationRequest{
		Action: domain.ActionSummarize,
		Text:   "hello world",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "status 500")
}

func TestStatusError_TruncatesOnRuneBoundary(t *testing.T) {
	body := "a" + strings.Repeat("é", 150)

	err := statusError([]byte(body))
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, utf8.ValidString(msg), "message %q is not valid UTF-8", msg)
	assert.True(t, strings.HasSuffix(msg, "..."))
	assert.LessOrEqual(t, len(msg), maxErrorSnippet+len("..."))
	assert.Equal(t, body[:199]+"...", msg)
}

func TestClient_Transport(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close() // nothing listens any more

	_, err := NewClient(url).Submit(context.Background(), domain.TransformationRequest{
		Action: domain.ActionRewrite,
		Text:   "hello",
	})
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	_, err := NewClient(ts.URL, WithTimeout(50*time.Millisecond)).Submit(context.Background(), domain.TransformationRequest{
		Action: domain.ActionRewrite,
		Text:   "hello",
	})
	assert.ErrorIs(t, err, domain.ErrTransport, "timeouts are transport failures")
}

func TestClient_OversizedBody(t *testing.T) {
	var calls atomic.Int32
	big := `{"result":"` + strings.Repeat("a", MaxResponseBytes) + `"}`
	ts := serviceStub(t, http.StatusOK, big, &calls, nil)
	defer ts.Close()

	_, err := NewClient(ts.URL).Submit(context.Background(), domain.TransformationRequest{
		Action: domain.ActionRewrite,
		Text:   "hello",
	})
	assert.ErrorIs(t, err, domain.ErrProtocol)
}

func TestClient_InvalidRequestNeverSent(t *testing.T) {
	var calls atomic.Int32
	ts := serviceStub(t, http.StatusOK, `{"result":"x"}`, &calls, nil)
	defer ts.Close()

	client := NewClient(ts.URL)

	_, err := client.Submit(context.Background(), domain.TransformationRequest{Action: domain.ActionRewrite})
	assert.ErrorIs(t, err, domain.ErrEmptyText)

	_, err = client.Submit(context.Background(), domain.TransformationRequest{Text: "hello"})
	assert.ErrorIs(t, err, domain.ErrUnknownAction)

	assert.Equal(t, int32(0), calls.Load())
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	assert.Equal(t, DefaultEndpoint, NewClient("").Endpoint())
}

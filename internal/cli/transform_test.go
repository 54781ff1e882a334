package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/quill/internal/config"
	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/internal/testutils"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeService(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestRunTransform(t *testing.T) {
	ts := fakeService(t, http.StatusOK, `{"result":"Hello there."}`)

	tests := []struct {
		name  string
		opts  TransformOptions
		write bool
		want  string
	}{
		{
			name: "match replaces span",
			opts: TransformOptions{Action: "rewrite", Match: "hi", To: -1},
			want: "Greeting: Hello there. Bye.",
		},
		{
			name: "range appends",
			opts: TransformOptions{Action: "summarize", From: 10, To: 12, Mode: "append"},
			want: "Greeting: hiHello there. Bye.",
		},
		{
			name: "whole document",
			opts: TransformOptions{Action: "grammar", To: -1},
			want: "Hello there.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutils.WriteFile(t, "note.md", "Greeting: hi Bye.")
			var out, status bytes.Buffer

			opts := tt.opts
			opts.Path = path
			opts.Endpoint = ts.URL
			opts.Write = true
			opts.Output = &out
			opts.Status = &status

			require.NoError(t, RunTransform(context.Background(), config.Default(), opts, logging.NewNop()))
			assert.Equal(t, "Hello there.\n", out.String())
			assert.Contains(t, status.String(), ">>> Updated")

			saved, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(saved))
		})
	}
}

func TestRunTransform_ServiceFailure(t *testing.T) {
	ts := fakeService(t, http.StatusInternalServerError, `{"detail":"boom"}`)
	path := testutils.WriteFile(t, "note.md", "unchanged")
	var out, status bytes.Buffer

	err := RunTransform(context.Background(), config.Default(), TransformOptions{
		Action:   "rewrite",
		Path:     path,
		To:       -1,
		Endpoint: ts.URL,
		Write:    true,
		Output:   &out,
		Status:   &status,
	}, logging.NewNop())

	var te *domain.TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.Status)
	assert.Empty(t, out.String())
	assert.Contains(t, status.String(), domain.NoticeOperationFailed)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "unchanged", string(saved))
}

func TestRunTransform_BadInput(t *testing.T) {
	path := testutils.WriteFile(t, "note.md", "text")
	cfg := config.Default()

	err := RunTransform(context.Background(), cfg, TransformOptions{Action: "translate", Path: path}, logging.NewNop())
	assert.ErrorIs(t, err, domain.ErrUnknownAction)

	err = RunTransform(context.Background(), cfg, TransformOptions{Action: "rewrite", Path: path, Match: "absent"}, logging.NewNop())
	assert.Error(t, err)

	err = RunTransform(context.Background(), cfg, TransformOptions{Action: "rewrite", Path: filepath.Join(t.TempDir(), "none.md")}, logging.NewNop())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, commandConfig(), logging.NewNop())
	}()

	url := "http://" + ln.Addr().String()
	resp, err := http.Post(url+"/api/ai", "application/json", strings.NewReader(`{"action":"rewrite","text":"keep me"}`))
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "keep me", body["result"])

	resp, err = http.Get(url + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

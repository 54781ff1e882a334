package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/quill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Equal(t, "quill version "+strings.TrimSpace(quill.Version)+"\n", out)
}

func TestActionsCommand(t *testing.T) {
	out := execute(t, "actions")
	assert.Contains(t, out, "rewrite")
	assert.Contains(t, out, "summarize")
	assert.Contains(t, out, "grammar")
}

package quill

import (
	_ "embed"
	"strings"
)

// Version is the release version, read from the VERSION file at build time.
//
//go:embed VERSION
var Version string

func trimmedVersion() string {
	return strings.TrimSpace(Version)
}

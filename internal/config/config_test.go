package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/term"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
	require.True(t, cfg.TrailingNewline())
	require.Equal(t, term.ColorAuto, cfg.ColorMode())

	cfg, err = Load("")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9443", cfg.Serve.Addr)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
requires: ">= 0.2.0, < 1.0.0"
log: {verbose: true}
run:
  timeout: 2s
  dump_globals: true
  trailing_newline: false
diagnostics: {color: never}
serve: {addr: ":0", max_body: 4096}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, cfg.Path)
	require.True(t, cfg.Log.Verbose)
	require.False(t, cfg.Log.Debug)
	require.Equal(t, 2*time.Second, cfg.Run.Timeout)
	require.True(t, cfg.Run.DumpGlobals)
	require.False(t, cfg.TrailingNewline())
	require.Equal(t, term.ColorNever, cfg.ColorMode())
	require.Equal(t, ":0", cfg.Serve.Addr)
	require.Equal(t, int64(4096), cfg.Serve.MaxBody)
	require.Equal(t, 10000, cfg.Serve.MaxDepth)
	require.Equal(t, 10*time.Second, cfg.Serve.Timeout)
	require.Equal(t, int64(1<<20), cfg.Serve.MaxOutput)
	require.Zero(t, cfg.Run.MaxOutput)

	require.NoError(t, cfg.CheckVersion("0.3.0"))

	err = cfg.CheckVersion("1.2.0")
	require.Error(t, err)
	category, code := cperrors.Classify(err)
	require.Equal(t, cperrors.CategorySystem, category)
	require.Equal(t, "VERSION_MISMATCH", code)
}

func TestEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, Defaults().Serve, cfg.Serve)
}

func TestInvalidConfigs(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad constraint", `requires: "not a version"`},
		{"bad color", `diagnostics: {color: rainbow}`},
		{"negative timeout", `run: {timeout: -1s}`},
		{"zero body", `serve: {max_body: 0}`},
		{"half tls", `serve: {tls_cert: cert.pem}`},
		{"negative run output", `run: {max_output: -1}`},
		{"unbounded serve timeout", `serve: {timeout: 0s}`},
		{"unbounded serve output", `serve: {max_output: 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)

			_, code := cperrors.Classify(err)
			require.Equal(t, "INVALID_CONFIG", code)
		})
	}
}

func TestUnknownKeysAndSyntax(t *testing.T) {
	_, err := Load(writeConfig(t, "colour: always\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")

	_, err = Parse([]byte("run: [1, 2"))
	require.Error(t, err)

	cfg, err := Parse([]byte("run: {max_depth: 50}"))
	require.NoError(t, err)
	require.Equal(t, 50, cfg.Run.MaxDepth)
}

package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldsolve/internal/proc"
)

func TestIsRemote(t *testing.T) {
	local := filepath.Join(t.TempDir(), "field.fits")
	require.NoError(t, os.WriteFile(local, []byte("x"), 0o644))

	cases := []struct {
		ref  string
		want bool
	}{
		{"http://example.com/field.fits", true},
		{"HTTP://EXAMPLE.COM/FIELD.FITS", true},
		{"ftp://archive.example.org/m42.fits", true},
		{"https://example.com/field.fits", false}, // only http and ftp are handed to the transports
		{"field.fits", false},
		{local, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsRemote(tc.ref), "ref %q", tc.ref)
	}
}

func TestIsRemote_ExistingLocalFileWinsOverScheme(t *testing.T) {
	dir := t.TempDir()
	weird := filepath.Join(dir, "http:")
	require.NoError(t, os.Mkdir(weird, 0o755))
	path := filepath.Join(weird, "local")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.False(t, IsRemote(path))
}

func stubTransport(t *testing.T, name, body string) (*proc.Runner, string) {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"+body), 0o755))
	r := proc.NewRunner(zap.NewNop().Sugar(), "", map[string]proc.Tool{
		name: {Path: script},
	})
	return r, dir
}

func TestDownload_Curl(t *testing.T) {
	// The stub mimics "curl --silent --output <dest> <url>".
	r, dir := stubTransport(t, "curl", `
[ "$1" = "--silent" ] || exit 9
[ "$2" = "--output" ] || exit 9
printf 'payload from %s' "$4" > "$3"
`)
	dest := filepath.Join(dir, "field-downloaded.fits")

	res, err := Download(context.Background(), r, "http://example.com/field.fits", dest, TransportCurl, false)
	require.NoError(t, err)
	assert.False(t, res.Failed())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload from http://example.com/field.fits", string(data))
}

func TestDownload_WgetFlagShape(t *testing.T) {
	r, dir := stubTransport(t, "wget", `
[ "$1" = "--quiet" ] || exit 9
[ "$2" = "-O" ] || exit 9
: > "$3"
`)
	dest := filepath.Join(dir, "out")

	res, err := Download(context.Background(), r, "ftp://example.org/field.fits", dest, TransportWget, false)
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.FileExists(t, dest)
}

func TestDownload_VerboseDropsQuietFlags(t *testing.T) {
	r, dir := stubTransport(t, "curl", `
[ "$1" = "--output" ] || exit 9
: > "$2"
`)
	dest := filepath.Join(dir, "out")

	_, err := Download(context.Background(), r, "http://example.com/f", dest, TransportCurl, true)
	require.NoError(t, err)
}

func TestDownload_FailureIsError(t *testing.T) {
	r, dir := stubTransport(t, "curl", "exit 7")
	dest := filepath.Join(dir, "out")

	res, err := Download(context.Background(), r, "http://example.com/f", dest, TransportCurl, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 7")
	assert.False(t, res.Interrupted)
}

func TestDownload_InterruptIsDistinct(t *testing.T) {
	r, dir := stubTransport(t, "curl", "kill -TERM $$")
	dest := filepath.Join(dir, "out")

	res, err := Download(context.Background(), r, "http://example.com/f", dest, TransportCurl, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
	assert.True(t, res.Interrupted)
}

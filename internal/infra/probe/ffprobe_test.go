package probe

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("12.500000\n")
	require.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, d)

	_, err = parseDuration("N/A")
	assert.Error(t, err)
}

func TestDurationRunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "fakeprobe")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho 95.25\n"), 0o755))

	p := &FFProbe{Binary: bin, TempDir: dir}
	d, err := p.Duration(context.Background(), []byte("not really a video"))
	require.NoError(t, err)
	assert.Equal(t, 95250*time.Millisecond, d)
}

func TestDurationReportsExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "fakeprobe")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho 'invalid data' >&2\nexit 1\n"), 0o755))

	p := &FFProbe{Binary: bin, TempDir: dir}
	_, err := p.Duration(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid data")
}

func TestDurationEmpty(t *testing.T) {
	_, err := New("", "").Duration(context.Background(), nil)
	assert.Error(t, err)
}

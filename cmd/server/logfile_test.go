package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogFile_TrimsToTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	lf, err := openLogFile(path)
	require.NoError(t, err)
	lf.max, lf.keep = 16, 8
	t.Cleanup(func() { _ = lf.Close() })

	_, err = lf.Write([]byte("0123456789"))
	require.NoError(t, err)
	_, err = lf.Write([]byte("abcdefghij"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "cdefghij", string(data))

	_, err = lf.Write([]byte("XY"))
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasSuffix(data, []byte("XY")))
}

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, "DEBUG", parseLogLevel("debug").String())
	require.Equal(t, "INFO", parseLogLevel("verbose").String())
}

func TestEnsureDBDir(t *testing.T) {
	require.NoError(t, ensureDBDir(":memory:"))
	path := filepath.Join(t.TempDir(), "nested", "replay.db")
	require.NoError(t, ensureDBDir(path))
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckedInVectorsAreCurrent(t *testing.T) {
	stale, err := generate(filepath.Join("..", "..", "..", "testdata", "vectors"), true)
	require.NoError(t, err)
	require.Empty(t, stale)
}

func TestGenerateWritesPairs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.bin"), []byte{1, 2, 3}, 0o644))

	stale, err := generate(dir, false)
	require.NoError(t, err)
	require.Contains(t, stale, "extra.txt")
	require.Contains(t, stale, "hello.bin")

	txt, err := os.ReadFile(filepath.Join(dir, "hello.txt"))
	require.NoError(t, err)
	require.Equal(t, "䝌㫜ᆉ", string(txt))

	stale, err = generate(dir, true)
	require.NoError(t, err)
	require.Empty(t, stale)
}

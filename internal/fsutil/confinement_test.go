// SPDX-License-Identifier: MIT

package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfineRelPath_AllowsNestedPaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "dir", "a.mp4"), []byte("x"), 0o644))

	got, err := ConfineRelPath(root, "sub/dir/a.mp4")
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(filepath.Join(root, "sub", "dir", "a.mp4"))
	require.NoError(t, err)
	assert.Equal(t, resolved, got)
}

func TestConfineRelPath_RejectsTraversal(t *testing.T) {
	root := t.TempDir()

	cases := []string{
		"..",
		"../etc/passwd",
		"sub/../../escape",
		"/etc/passwd",
		"a\\b",
	}
	for _, rel := range cases {
		_, err := ConfineRelPath(root, rel)
		assert.Error(t, err, "expected rejection for %q", rel)
	}
}

func TestConfineRelPath_InteriorDotDotIsCleaned(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("x"), 0o644))

	got, err := ConfineRelPath(root, "a/../b.txt")
	require.NoError(t, err)
	assert.Equal(t, "b.txt", filepath.Base(got))
}

func TestConfineRelPath_RejectsSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(root, "leak")
	require.NoError(t, os.Symlink(outside, link))

	_, err := ConfineRelPath(root, "leak/secret.txt")
	assert.Error(t, err)
}

func TestConfineRelPath_NonexistentTargetResolvesParent(t *testing.T) {
	root := t.TempDir()

	got, err := ConfineRelPath(root, "new-upload.bin")
	require.NoError(t, err)
	assert.Equal(t, "new-upload.bin", filepath.Base(got))
}

func TestIsRegularFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.NoError(t, IsRegularFile(file))
	assert.Error(t, IsRegularFile(root))
	assert.Error(t, IsRegularFile(filepath.Join(root, "missing")))
}

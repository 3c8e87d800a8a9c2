package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathSetsEqualIgnoresOrder(t *testing.T) {
	assert.True(t, pathSetsEqual([]string{"/a", "/b"}, []string{"/b", "/a"}))
	assert.False(t, pathSetsEqual([]string{"/a"}, []string{"/a", "/b"}))
}

func TestWalkSymlinkChainFollowsLinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "event0")
	require.NoError(t, os.WriteFile(target, nil, 0o644))

	link := filepath.Join(dir, "by-id-mouse")
	require.NoError(t, os.Symlink(target, link))

	chain := walkSymlinkChain(link)
	assert.Equal(t, []string{link, target}, chain)
}

func TestWalkSymlinkChainStopsOnNonSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "event0")
	require.NoError(t, os.WriteFile(target, nil, 0o644))

	chain := walkSymlinkChain(target)
	assert.Equal(t, []string{target}, chain)
}

func TestWalkSymlinkChainStopsOnCycle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	require.NoError(t, os.Symlink(b, a))
	require.NoError(t, os.Symlink(a, b))

	chain := walkSymlinkChain(a)
	assert.LessOrEqual(t, len(chain), maxSymlinksInChain+1)
}

func TestPathsToWatchReturnsParentDirsOfWholeChain(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	target := filepath.Join(sub, "event0")
	require.NoError(t, os.WriteFile(target, nil, 0o644))

	link := filepath.Join(dir, "by-id-mouse")
	require.NoError(t, os.Symlink(target, link))

	dirs := pathsToWatch([]Blueprint{{Path: link}})
	assert.Contains(t, dirs, dir)
	assert.Contains(t, dirs, sub)
}

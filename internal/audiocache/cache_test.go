package audiocache_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/audiocache"
	"github.com/book-expert/pdf-narrator/internal/audiometa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *audiocache.DiskCache {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = log.Close()
	})

	cache, err := audiocache.New(filepath.Join(t.TempDir(), "audio"), ".mp3", audiometa.NewReader(log))
	require.NoError(t, err)

	return cache
}

func TestNew_CreatesDirectory(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)

	info, err := os.Stat(cache.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestKeyToPath_Deterministic(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)

	first := cache.KeyToPath("doc-1", 3, "en-US-AriaNeural", "+20%")
	second := cache.KeyToPath("doc-1", 3, "en-US-AriaNeural", "+20%")

	assert.Equal(t, first, second)
}

func TestKeyToPath_DistinctKeysDistinctPaths(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)

	base := cache.KeyToPath("doc-1", 0, "en-US-AriaNeural", "+0%")

	assert.NotEqual(t, base, cache.KeyToPath("doc-2", 0, "en-US-AriaNeural", "+0%"))
	assert.NotEqual(t, base, cache.KeyToPath("doc-1", 1, "en-US-AriaNeural", "+0%"))
	assert.NotEqual(t, base, cache.KeyToPath("doc-1", 0, "en-GB-RyanNeural", "+0%"))
	assert.NotEqual(t, base, cache.KeyToPath("doc-1", 0, "en-US-AriaNeural", "-10%"))
}

func TestKeyToPath_SanitizesComponents(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)

	path := cache.KeyToPath("doc/../1", 0, "voice id", "+20%")
	name := filepath.Base(path)

	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, " ")
	assert.NotContains(t, name, "%")
	assert.Contains(t, name, "p20")
	assert.True(t, strings.HasSuffix(name, ".mp3"))
	assert.Equal(t, cache.Dir(), filepath.Dir(path))
}

func TestDescribe_Miss(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)

	_, hit := cache.Describe(cache.KeyToPath("doc-1", 0, "en-US-AriaNeural", "+0%"))

	assert.False(t, hit)
}

func TestDescribe_Hit(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	path := cache.KeyToPath("doc-1", 0, "en-US-AriaNeural", "+0%")
	require.NoError(t, os.WriteFile(path, []byte("audio bytes"), 0o600))

	entry, hit := cache.Describe(path)

	require.True(t, hit)
	assert.Equal(t, path, entry.Path)
}

func TestDescribe_DirectoryIsNotAnArtifact(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)

	_, hit := cache.Describe(cache.Dir())

	assert.False(t, hit)
}

func TestAdHocPath_InCacheDirectory(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)

	path := cache.AdHocPath()

	assert.Equal(t, cache.Dir(), filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "adhoc_"))
	assert.True(t, strings.HasSuffix(path, ".mp3"))
}

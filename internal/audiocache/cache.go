// Package audiocache implements the disk-backed synthesis cache. Artifacts
// are named deterministically from the cache key and never mutated once
// written; the directory grows without bound, which is a known limitation,
// and operators reclaim space by clearing it out-of-band.
package audiocache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/pdf-narrator/internal/audiometa"
	"github.com/book-expert/pdf-narrator/internal/core"
	"github.com/book-expert/pdf-narrator/internal/pathutil"
)

// Artifact filename formats. The chunk index is zero-padded so directory
// listings sort in chunk order.
const (
	chunkFileFormat = "%s_%04d_%s_%s%s"
	adHocFileFormat = "adhoc_%d%s"
)

// DiskCache implements core.AudioCache over a single audio directory.
type DiskCache struct {
	dir       string
	extension string
	meta      *audiometa.Reader
}

// New creates a disk cache rooted at dir, creating the directory if missing.
// The extension (including the leading dot) must match what the configured
// synthesis engine produces, since presence is determined purely by filename.
func New(dir, extension string, meta *audiometa.Reader) (*DiskCache, error) {
	err := pathutil.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare audio cache directory: %w", err)
	}

	return &DiskCache{
		dir:       dir,
		extension: extension,
		meta:      meta,
	}, nil
}

// Dir returns the backing audio directory.
func (c *DiskCache) Dir() string {
	return c.dir
}

// KeyToPath derives the canonical artifact path for a cache key. The voice
// and rate components are sanitized for filesystem safety; distinct keys map
// to distinct paths because the underscore-separated fields cannot collide
// once their own underscore-producing characters are substituted
// deterministically.
func (c *DiskCache) KeyToPath(documentID string, chunkIndex int, voiceID, rate string) string {
	name := fmt.Sprintf(
		chunkFileFormat,
		pathutil.SanitizeFilename(documentID),
		chunkIndex,
		pathutil.SanitizeFilename(voiceID),
		sanitizeRate(rate),
		c.extension,
	)

	return filepath.Join(c.dir, name)
}

// Describe reports whether an artifact exists at path. On a hit the entry's
// duration is re-derived from the artifact; it is never stored separately.
func (c *DiskCache) Describe(path string) (core.CacheEntry, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return core.CacheEntry{}, false
	}

	return core.CacheEntry{
		Path:            path,
		DurationSeconds: c.meta.Seconds(path),
	}, true
}

// AdHocPath returns a fresh timestamp-based artifact path for audio not tied
// to a document chunk.
func (c *DiskCache) AdHocPath() string {
	name := fmt.Sprintf(adHocFileFormat, time.Now().UnixNano(), c.extension)

	return filepath.Join(c.dir, name)
}

// sanitizeRate maps a signed-percentage rate string to a filename-safe token:
// "+20%" becomes "p20", "-15%" becomes "m15".
func sanitizeRate(rate string) string {
	replacer := strings.NewReplacer(
		"+", "p",
		"-", "m",
		"%", "",
	)

	return replacer.Replace(rate)
}

// Package core defines the domain types and interfaces shared by the
// pdf-narrator pipeline: documents, chunks, voices, synthesis results, and the
// collaborator contracts for extraction, synthesis, caching, and storage.
package core

import (
	"context"
	"time"
)

// Document is one ingested source held in process memory. It is created once
// per successful text extraction and never mutated afterwards; documents are
// not persisted and do not survive a process restart.
type Document struct {
	ID         string    `json:"id"`
	SourceName string    `json:"sourceName"`
	Chunks     []Chunk   `json:"chunks"`
	TotalChars int       `json:"totalChars"`
	TotalPages int       `json:"totalPages"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Chunk is a bounded, ordered slice of a document's normalized text. The index
// is 0-based, contiguous, and stable for the lifetime of the document.
type Chunk struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	WordCount int    `json:"wordCount"`
}

// VoiceDescriptor is a static catalog entry for one synthesis-engine voice.
type VoiceDescriptor struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Locale      string `json:"locale"`
}

// Extraction is the output of a text extraction collaborator.
type Extraction struct {
	Text  string
	Pages int
}

// SynthesisResult describes a synthesized (or cache-served) audio artifact.
type SynthesisResult struct {
	ArtifactPath    string  `json:"artifactPath"`
	DurationSeconds float64 `json:"durationSeconds"`
	WasCached       bool    `json:"wasCached"`
}

// CacheEntry describes an existing audio artifact on disk. The duration is
// re-derived from the artifact on every lookup rather than stored separately.
type CacheEntry struct {
	Path            string
	DurationSeconds float64
}

// TextExtractor converts raw document bytes into plain text plus a page count.
// Extraction may fail for encrypted or image-only sources; such failures are
// surfaced, never retried.
type TextExtractor interface {
	Extract(raw []byte) (Extraction, error)
}

// SpeechSynthesizer produces an audio artifact at outputPath for the given
// text, voice, and signed-percentage rate adjustment (for example "+20%").
// Implementations must not leave a partial artifact at outputPath on failure.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID, rate, outputPath string) error
	FileExtension() string
}

// AudioCache maps synthesis cache keys to artifact paths on disk. The backing
// directory is append-only; there is no eviction.
type AudioCache interface {
	// KeyToPath derives the canonical artifact path for a cache key. It is
	// deterministic and collision-free across distinct keys.
	KeyToPath(documentID string, chunkIndex int, voiceID, rate string) string
	// Describe reports whether an artifact exists at path, reconstructing
	// its entry (path plus re-read duration) when it does.
	Describe(path string) (CacheEntry, bool)
	// AdHocPath returns a fresh timestamp-based path for audio that is not
	// tied to a document chunk.
	AdHocPath() string
}

// DocumentStore holds ingested documents for the lifetime of the process.
// Inserts are append-only; stored documents are read-only.
type DocumentStore interface {
	Put(doc *Document)
	Get(id string) (*Document, bool)
}

// ObjectStore is a key-value blob store used by the event-driven front end.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

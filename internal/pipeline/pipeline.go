// Package pipeline ties extraction, normalization, chunking, and the
// document store into the ingestion service used by every front end.
package pipeline

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/core"
	"github.com/book-expert/pdf-narrator/internal/text"
	"github.com/google/uuid"
)

// Service ingests documents and answers chunk queries.
type Service struct {
	extractor     core.TextExtractor
	normalizer    *text.Normalizer
	store         core.DocumentStore
	maxChunkChars int
	log           *logger.Logger
}

// New creates a document pipeline service. A non-positive maxChunkChars
// selects the default chunk bound.
func New(
	extractor core.TextExtractor,
	store core.DocumentStore,
	maxChunkChars int,
	log *logger.Logger,
) *Service {
	if maxChunkChars <= 0 {
		maxChunkChars = text.DefaultMaxChunkChars
	}

	return &Service{
		extractor:     extractor,
		normalizer:    text.NewNormalizer(),
		store:         store,
		maxChunkChars: maxChunkChars,
		log:           log,
	}
}

// IngestDocument extracts, normalizes, and chunks raw source bytes, storing
// the resulting document under a fresh identifier. Sources that yield no
// usable text (encrypted or purely scanned PDFs) fail with core.ErrExtraction.
func (s *Service) IngestDocument(raw []byte, sourceName string) (*core.Document, error) {
	extraction, err := s.extractor.Extract(raw)
	if err != nil {
		return nil, err
	}

	normalized := s.normalizer.Normalize(extraction.Text)
	if normalized == "" {
		return nil, fmt.Errorf("%w: source %q contains no extractable text", core.ErrExtraction, sourceName)
	}

	doc := &core.Document{
		ID:         uuid.NewString(),
		SourceName: sourceName,
		Chunks:     buildChunks(text.Chunk(normalized, s.maxChunkChars)),
		TotalChars: utf8.RuneCountInString(normalized),
		TotalPages: extraction.Pages,
		CreatedAt:  time.Now().UTC(),
	}

	s.store.Put(doc)

	s.log.Info(
		"Ingested document %s (%q): %d pages, %d chars, %d chunks",
		doc.ID, doc.SourceName, doc.TotalPages, doc.TotalChars, len(doc.Chunks),
	)

	return doc, nil
}

// GetDocument returns a stored document by id.
func (s *Service) GetDocument(id string) (*core.Document, error) {
	doc, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrDocumentNotFound, id)
	}

	return doc, nil
}

// GetChunkText returns the text of one chunk, range-checked.
func (s *Service) GetChunkText(documentID string, chunkIndex int) (string, error) {
	doc, err := s.GetDocument(documentID)
	if err != nil {
		return "", err
	}

	if chunkIndex < 0 || chunkIndex >= len(doc.Chunks) {
		return "", fmt.Errorf(
			"%w: index %d, document has %d chunks",
			core.ErrChunkOutOfRange, chunkIndex, len(doc.Chunks),
		)
	}

	return doc.Chunks[chunkIndex].Text, nil
}

// buildChunks wraps chunk texts with their stable indexes and word counts.
func buildChunks(texts []string) []core.Chunk {
	chunks := make([]core.Chunk, len(texts))

	for i, chunkText := range texts {
		chunks[i] = core.Chunk{
			Index:     i,
			Text:      chunkText,
			WordCount: len(strings.Fields(chunkText)),
		}
	}

	return chunks
}

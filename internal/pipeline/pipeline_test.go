package pipeline_test

import (
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/core"
	"github.com/book-expert/pdf-narrator/internal/document"
	"github.com/book-expert/pdf-narrator/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExtractor returns canned extraction results.
type mockExtractor struct {
	extraction core.Extraction
	err        error
}

func (m *mockExtractor) Extract(_ []byte) (core.Extraction, error) {
	return m.extraction, m.err
}

func newTestService(t *testing.T, extractor core.TextExtractor, maxChunkChars int) *pipeline.Service {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = log.Close()
	})

	return pipeline.New(extractor, document.NewStore(), maxChunkChars, log)
}

func TestIngestDocument_BuildsChunkedDocument(t *testing.T) {
	t.Parallel()

	extractor := &mockExtractor{
		extraction: core.Extraction{
			Text:  "First sentence of the book. Second sentence of the book. Third sentence of the book.",
			Pages: 3,
		},
	}
	service := newTestService(t, extractor, 60)

	doc, err := service.IngestDocument([]byte("raw"), "book.pdf")
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "book.pdf", doc.SourceName)
	assert.Equal(t, 3, doc.TotalPages)
	assert.Positive(t, doc.TotalChars)
	require.NotEmpty(t, doc.Chunks)

	for i, chunk := range doc.Chunks {
		assert.Equal(t, i, chunk.Index)
		assert.NotEmpty(t, chunk.Text)
		assert.Positive(t, chunk.WordCount)
	}
}

func TestIngestDocument_StoredDocumentIsRetrievable(t *testing.T) {
	t.Parallel()

	extractor := &mockExtractor{
		extraction: core.Extraction{Text: "A sentence to keep.", Pages: 1},
	}
	service := newTestService(t, extractor, 0)

	doc, err := service.IngestDocument([]byte("raw"), "book.pdf")
	require.NoError(t, err)

	got, err := service.GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

func TestIngestDocument_ExtractionErrorPropagates(t *testing.T) {
	t.Parallel()

	extractor := &mockExtractor{err: core.ErrExtraction}
	service := newTestService(t, extractor, 0)

	_, err := service.IngestDocument([]byte("raw"), "broken.pdf")

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExtraction)
}

func TestIngestDocument_NoUsableText(t *testing.T) {
	t.Parallel()

	// Only control characters and page numbers survive extraction from a
	// scanned document; normalization strips everything.
	extractor := &mockExtractor{
		extraction: core.Extraction{Text: "\x01\x02\n42\n", Pages: 42},
	}
	service := newTestService(t, extractor, 0)

	_, err := service.IngestDocument([]byte("raw"), "scanned.pdf")

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExtraction)
}

func TestGetDocument_Unknown(t *testing.T) {
	t.Parallel()

	service := newTestService(t, &mockExtractor{}, 0)

	_, err := service.GetDocument("missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDocumentNotFound)
}

func TestGetChunkText_RangeChecked(t *testing.T) {
	t.Parallel()

	extractor := &mockExtractor{
		extraction: core.Extraction{Text: "Only one chunk of text here.", Pages: 1},
	}
	service := newTestService(t, extractor, 0)

	doc, err := service.IngestDocument([]byte("raw"), "book.pdf")
	require.NoError(t, err)
	require.Len(t, doc.Chunks, 1)

	chunkText, err := service.GetChunkText(doc.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Only one chunk of text here.", chunkText)

	for _, index := range []int{-1, len(doc.Chunks)} {
		_, err = service.GetChunkText(doc.ID, index)

		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrChunkOutOfRange)
	}
}

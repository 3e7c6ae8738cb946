package audiometa_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/audiometa"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = log.Close()
	})

	return log
}

// writeTestWAV writes one second of silent 16-bit mono audio at 8 kHz.
func writeTestWAV(t *testing.T, path string) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)

	encoder := wav.NewEncoder(file, 8000, 16, 1, 1)

	buffer := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  8000,
		},
		Data:           make([]int, 8000),
		SourceBitDepth: 16,
	}

	require.NoError(t, encoder.Write(buffer))
	require.NoError(t, encoder.Close())
	require.NoError(t, file.Close())
}

func TestSeconds_WAVDuration(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTestWAV(t, path)

	reader := audiometa.NewReader(newTestLogger(t))

	assert.InDelta(t, 1.0, reader.Seconds(path), 0.01)
}

func TestSeconds_MissingFile(t *testing.T) {
	t.Parallel()

	reader := audiometa.NewReader(newTestLogger(t))

	assert.Zero(t, reader.Seconds(filepath.Join(t.TempDir(), "missing.wav")))
}

func TestSeconds_UnparseableContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not audio at all"), 0o600))

	reader := audiometa.NewReader(newTestLogger(t))

	assert.Zero(t, reader.Seconds(path))
}

func TestSeconds_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	reader := audiometa.NewReader(newTestLogger(t))

	assert.Zero(t, reader.Seconds(path))
}

package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/core"
	"github.com/book-expert/pdf-narrator/internal/engine"
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

func TestNew_UnknownEngine(t *testing.T) {
	t.Parallel()

	_, err := engine.New(engine.Options{Engine: "carrier-pigeon"}, newTestLogger(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrUnknownEngine)
}

func TestNew_CommandEngineRequiresCommand(t *testing.T) {
	t.Parallel()

	_, err := engine.New(engine.Options{Engine: engine.EngineCommand}, newTestLogger(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrCommandEmpty)
}

func TestNew_HTTPEngineRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := engine.New(engine.Options{Engine: engine.EngineHTTP}, newTestLogger(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrBaseURLEmpty)
}

func TestNew_DefaultsToEdgeEngine(t *testing.T) {
	t.Parallel()

	synthesizer, err := engine.New(engine.Options{BinaryPath: "/bin/true"}, newTestLogger(t))

	require.NoError(t, err)
	assert.Equal(t, ".mp3", synthesizer.FileExtension())
}

func TestEdgeEngine_RejectsInvalidRate(t *testing.T) {
	t.Parallel()

	synthesizer, err := engine.NewEdgeEngine("/bin/true", 30*time.Second, newTestLogger(t))
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "out.mp3")

	synthErr := synthesizer.Synthesize(context.Background(), "Some text.", "en-US-AriaNeural", "fast", outputPath)

	require.Error(t, synthErr)
	assert.ErrorIs(t, synthErr, core.ErrInvalidRate)
	assert.NoFileExists(t, outputPath)
}

func TestEdgeEngine_FailureLeavesNoArtifact(t *testing.T) {
	t.Parallel()

	synthesizer, err := engine.NewEdgeEngine("/bin/false", 30*time.Second, newTestLogger(t))
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "out.mp3")

	synthErr := synthesizer.Synthesize(context.Background(), "Some text.", "en-US-AriaNeural", "+0%", outputPath)

	require.Error(t, synthErr)
	assert.ErrorIs(t, synthErr, core.ErrSynthesisFailed)
	assert.NoFileExists(t, outputPath)
}

func TestEdgeEngine_MissingArtifactIsAFailure(t *testing.T) {
	t.Parallel()

	// /bin/true exits cleanly without writing anything, so verification
	// must reject the invocation.
	synthesizer, err := engine.NewEdgeEngine("/bin/true", 30*time.Second, newTestLogger(t))
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "out.mp3")

	synthErr := synthesizer.Synthesize(context.Background(), "Some text.", "en-US-AriaNeural", "+0%", outputPath)

	require.Error(t, synthErr)
	assert.ErrorIs(t, synthErr, core.ErrSynthesisFailed)
	assert.NoFileExists(t, outputPath)
}

func TestCommandEngine_WritesArtifactAtomically(t *testing.T) {
	t.Parallel()

	// The script writes to its first positional argument, which is the
	// temporary path appended after --output_file.
	command := `sh -c 'cat >/dev/null; printf AUDIODATA > "$1"'`

	synthesizer, err := engine.NewCommandEngine(command, 30*time.Second, newTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, ".wav", synthesizer.FileExtension())

	outputPath := filepath.Join(t.TempDir(), "out.wav")

	synthErr := synthesizer.Synthesize(context.Background(), "Some text to speak.", "", "", outputPath)

	require.NoError(t, synthErr)

	content, readErr := os.ReadFile(outputPath)
	require.NoError(t, readErr)
	assert.Equal(t, "AUDIODATA", string(content))
	assert.NoFileExists(t, outputPath+".partial")
}

func TestCommandEngine_FailureLeavesNoArtifact(t *testing.T) {
	t.Parallel()

	synthesizer, err := engine.NewCommandEngine("false", 30*time.Second, newTestLogger(t))
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "out.wav")

	synthErr := synthesizer.Synthesize(context.Background(), "Some text.", "", "+0%", outputPath)

	require.Error(t, synthErr)
	assert.ErrorIs(t, synthErr, core.ErrSynthesisFailed)
	assert.NoFileExists(t, outputPath)
}

func TestCommandEngine_RejectsExcessiveSlowdown(t *testing.T) {
	t.Parallel()

	synthesizer, err := engine.NewCommandEngine("true", 30*time.Second, newTestLogger(t))
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "out.wav")

	synthErr := synthesizer.Synthesize(context.Background(), "Some text.", "", "-100%", outputPath)

	require.Error(t, synthErr)
	assert.ErrorIs(t, synthErr, core.ErrInvalidRate)
}

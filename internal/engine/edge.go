package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/core"
)

// edgeBinaryName is the executable resolved from PATH when no explicit
// binary path is configured.
const edgeBinaryName = "edge-tts"

// wellKnownEdgePaths are checked after PATH resolution fails.
var wellKnownEdgePaths = []string{
	"/usr/local/bin/edge-tts",
	"/usr/bin/edge-tts",
}

// ErrEdgeBinaryNotFound is returned when the edge-tts executable cannot be
// located at process start.
var ErrEdgeBinaryNotFound = fmt.Errorf("edge-tts binary not found")

// EdgeEngine synthesizes speech through the edge-tts command-line tool. The
// text payload is handed over via a scratch file rather than an argument, so
// arbitrarily large chunks and shell-hostile content are safe; the scratch
// file is removed on every path.
type EdgeEngine struct {
	binary  string
	timeout time.Duration
	log     *logger.Logger
}

// NewEdgeEngine creates an edge-tts engine, resolving the binary once at
// construction time.
func NewEdgeEngine(binaryPath string, timeout time.Duration, log *logger.Logger) (*EdgeEngine, error) {
	binary, err := resolveEdgeBinary(binaryPath)
	if err != nil {
		return nil, err
	}

	return &EdgeEngine{
		binary:  binary,
		timeout: timeout,
		log:     log,
	}, nil
}

// FileExtension returns the artifact extension edge-tts produces.
func (e *EdgeEngine) FileExtension() string {
	return ".mp3"
}

// Synthesize runs edge-tts for one text payload. The invocation is bounded by
// the engine timeout; on any failure no file appears at outputPath.
func (e *EdgeEngine) Synthesize(ctx context.Context, text, voiceID, rate, outputPath string) error {
	normalizedRate, err := normalizeRate(rate)
	if err != nil {
		return err
	}

	textPath, cleanup, err := writeScratchText(text, e.log)
	if err != nil {
		return err
	}
	defer cleanup()

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tempPath := outputPath + partialSuffix
	args := edgeArgs(voiceID, normalizedRate, textPath, tempPath)

	// #nosec G204 -- the binary is resolved at process start and the
	// arguments are validated above.
	cmd := exec.CommandContext(runCtx, e.binary, args...)

	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		discardPartial(tempPath, e.log)

		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: timed out after %s", core.ErrSynthesisFailed, e.timeout)
		}

		return fmt.Errorf("%w: %w - output: %s", core.ErrSynthesisFailed, runErr, string(output))
	}

	return acceptArtifact(tempPath, outputPath)
}

// edgeArgs builds the edge-tts argument list.
func edgeArgs(voiceID, rate, textPath, outputPath string) []string {
	return []string{
		"--voice", voiceID,
		"--rate=" + rate,
		"--file", textPath,
		"--write-media", outputPath,
	}
}

// writeScratchText writes the text payload to a scratch file the external
// tool can read. The returned cleanup removes the file regardless of how the
// invocation ends.
func writeScratchText(text string, log *logger.Logger) (string, func(), error) {
	scratch, err := os.CreateTemp("", "narrate-text-*.txt")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create scratch text file: %w", err)
	}

	cleanup := func() {
		removeErr := os.Remove(scratch.Name())
		if removeErr != nil {
			log.Warn("Failed to remove scratch file '%s': %v", scratch.Name(), removeErr)
		}
	}

	_, writeErr := scratch.WriteString(text)
	closeErr := scratch.Close()

	if writeErr != nil {
		cleanup()

		return "", nil, fmt.Errorf("failed to write scratch text file: %w", writeErr)
	}

	if closeErr != nil {
		cleanup()

		return "", nil, fmt.Errorf("failed to close scratch text file: %w", closeErr)
	}

	return scratch.Name(), cleanup, nil
}

// resolveEdgeBinary locates the edge-tts executable: an explicit configured
// path wins, then PATH, then well-known install locations.
func resolveEdgeBinary(binaryPath string) (string, error) {
	if binaryPath != "" {
		return binaryPath, nil
	}

	fromPath, err := exec.LookPath(edgeBinaryName)
	if err == nil {
		return fromPath, nil
	}

	for _, candidate := range wellKnownEdgePaths {
		_, statErr := os.Stat(candidate)
		if statErr == nil {
			return filepath.Clean(candidate), nil
		}
	}

	return "", fmt.Errorf("%w: not on PATH and no well-known location exists", ErrEdgeBinaryNotFound)
}

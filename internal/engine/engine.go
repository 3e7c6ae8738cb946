// Package engine provides the external speech-synthesis collaborators. Each
// engine shells out to a locatable binary, writes the artifact to a temporary
// path, and renames it into place only on success, so a failed invocation
// never leaves a partial artifact where a cache lookup would find it.
package engine

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/core"
)

// Engine selector names accepted in configuration.
const (
	EngineEdge    = "edge"
	EngineCommand = "command"
	EngineHTTP    = "http"
)

// DefaultRate is the neutral rate adjustment.
const DefaultRate = "+0%"

// DefaultTimeoutSeconds bounds one external synthesis invocation. Exceeding
// it is a failure, not a retry trigger.
const DefaultTimeoutSeconds = 120

// partialSuffix marks in-progress artifacts before the final rename.
const partialSuffix = ".partial"

var ratePattern = regexp.MustCompile(`^[+-]\d{1,3}%$`)

// ErrUnknownEngine is returned for an unrecognized engine selector.
var ErrUnknownEngine = fmt.Errorf("unknown synthesis engine")

// Options selects and configures a synthesis engine.
type Options struct {
	// Engine is "edge" (default) or "command".
	Engine string
	// BinaryPath overrides binary resolution for the edge engine.
	BinaryPath string
	// Command is the full synthesis command line for the command engine.
	Command string
	// BaseURL is the synthesis service address for the http engine.
	BaseURL string
	// TimeoutSeconds bounds one invocation; defaults to DefaultTimeoutSeconds.
	TimeoutSeconds int
}

// New creates the configured synthesis engine.
func New(opts Options, log *logger.Logger) (core.SpeechSynthesizer, error) {
	switch opts.Engine {
	case EngineEdge, "":
		return NewEdgeEngine(opts.BinaryPath, timeoutFrom(opts), log)
	case EngineCommand:
		return NewCommandEngine(opts.Command, timeoutFrom(opts), log)
	case EngineHTTP:
		return NewHTTPEngine(opts.BaseURL, timeoutFrom(opts), log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, opts.Engine)
	}
}

func timeoutFrom(opts Options) time.Duration {
	seconds := opts.TimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultTimeoutSeconds
	}

	return time.Duration(seconds) * time.Second
}

// normalizeRate applies the neutral default and validates the
// signed-percentage form. Reductions of -100% or more would stop speech
// entirely and are rejected.
func normalizeRate(rate string) (string, error) {
	if rate == "" {
		return DefaultRate, nil
	}

	if !ratePattern.MatchString(rate) {
		return "", fmt.Errorf("%w: got %q", core.ErrInvalidRate, rate)
	}

	percent, err := strconv.Atoi(strings.TrimSuffix(rate, "%"))
	if err != nil || percent <= -100 {
		return "", fmt.Errorf("%w: got %q", core.ErrInvalidRate, rate)
	}

	return rate, nil
}

// ratePercent parses a validated rate string into its integer percentage.
func ratePercent(rate string) int {
	percent, _ := strconv.Atoi(strings.TrimSuffix(rate, "%"))

	return percent
}

// acceptArtifact verifies the temporary artifact and renames it to its final
// path. Verification before the rename keeps a zero-byte or missing result
// out of the canonical cache location.
func acceptArtifact(tempPath, outputPath string) error {
	info, statErr := os.Stat(tempPath)
	if statErr != nil {
		return fmt.Errorf("%w: no artifact produced: %w", core.ErrSynthesisFailed, statErr)
	}

	if info.Size() == 0 {
		removeErr := os.Remove(tempPath)
		if removeErr != nil {
			return fmt.Errorf("%w: empty artifact could not be removed: %w", core.ErrSynthesisFailed, removeErr)
		}

		return fmt.Errorf("%w: empty artifact produced", core.ErrSynthesisFailed)
	}

	renameErr := os.Rename(tempPath, outputPath)
	if renameErr != nil {
		return fmt.Errorf("%w: could not move artifact into place: %w", core.ErrSynthesisFailed, renameErr)
	}

	return nil
}

// discardPartial removes a temporary artifact after a failed invocation.
func discardPartial(tempPath string, log *logger.Logger) {
	removeErr := os.Remove(tempPath)
	if removeErr != nil && !os.IsNotExist(removeErr) {
		log.Warn("Failed to remove partial artifact '%s': %v", tempPath, removeErr)
	}
}

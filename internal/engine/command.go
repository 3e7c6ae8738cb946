package engine

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/core"
	"github.com/mattn/go-shellwords"
)

// ErrCommandEmpty is returned when the command engine is selected without a
// synthesis command configured.
var ErrCommandEmpty = fmt.Errorf("synthesis command is empty")

// CommandEngine synthesizes speech through an arbitrary configured command
// line, piper-style: the text arrives on stdin and the engine appends the
// output-path and length-scale flags. Voice selection (the model) is part of
// the configured command; a non-empty per-request voice is forwarded as a
// speaker id for multi-speaker models.
type CommandEngine struct {
	argv    []string
	timeout time.Duration
	log     *logger.Logger
}

// NewCommandEngine parses the configured command line once at construction.
func NewCommandEngine(command string, timeout time.Duration, log *logger.Logger) (*CommandEngine, error) {
	parser := shellwords.NewParser()

	argv, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("failed to parse synthesis command: %w", err)
	}

	if len(argv) == 0 {
		return nil, ErrCommandEmpty
	}

	return &CommandEngine{
		argv:    argv,
		timeout: timeout,
		log:     log,
	}, nil
}

// FileExtension returns the artifact extension the command produces.
func (e *CommandEngine) FileExtension() string {
	return ".wav"
}

// Synthesize runs the configured command for one text payload. On any
// failure no file appears at outputPath.
func (e *CommandEngine) Synthesize(ctx context.Context, text, voiceID, rate, outputPath string) error {
	normalizedRate, err := normalizeRate(rate)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tempPath := outputPath + partialSuffix
	args := commandArgs(e.argv, voiceID, normalizedRate, tempPath)

	// #nosec G204 -- the command line comes from operator configuration.
	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(text)

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

// commandArgs extends the configured argv with the per-request flags.
func commandArgs(argv []string, voiceID, rate, outputPath string) []string {
	args := make([]string, 0, len(argv)+6)
	args = append(args, argv...)
	args = append(args, "--output_file", outputPath)
	args = append(args, "--length_scale", fmt.Sprintf("%.3f", lengthScale(rate)))

	if voiceID != "" {
		args = append(args, "--speaker", voiceID)
	}

	return args
}

// lengthScale converts a signed-percentage rate adjustment into the inverse
// speed multiplier piper-style tools expect: "+25%" is speed 1.25, so the
// length scale is 0.8.
func lengthScale(rate string) float64 {
	speed := 1.0 + float64(ratePercent(rate))/100.0

	return 1.0 / speed
}

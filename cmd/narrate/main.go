// main package for narrate, the command-line narration tool. It runs the
// same pipeline as the service, without a server: PDF in, per-chunk audio
// artifacts out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/audiocache"
	"github.com/book-expert/pdf-narrator/internal/audiometa"
	"github.com/book-expert/pdf-narrator/internal/config"
	"github.com/book-expert/pdf-narrator/internal/core"
	"github.com/book-expert/pdf-narrator/internal/document"
	"github.com/book-expert/pdf-narrator/internal/engine"
	"github.com/book-expert/pdf-narrator/internal/extract"
	"github.com/book-expert/pdf-narrator/internal/pathutil"
	"github.com/book-expert/pdf-narrator/internal/pipeline"
	"github.com/book-expert/pdf-narrator/internal/synth"
	"github.com/book-expert/pdf-narrator/internal/voices"
)

// Flag names.
const (
	flagPDF        = "pdf"
	flagText       = "text"
	flagVoice      = "voice"
	flagRate       = "rate"
	flagOut        = "out"
	flagMaxChars   = "max-chars"
	flagConfig     = "config"
	flagListVoices = "list-voices"
)

// Flag descriptions.
const (
	flagPDFDesc        = "PDF file to narrate"
	flagTextDesc       = "Ad-hoc text to convert to speech"
	flagVoiceDesc      = "Voice identifier (see -list-voices)"
	flagRateDesc       = "Speech rate adjustment, e.g. +20%"
	flagOutDesc        = "Output directory for audio artifacts"
	flagMaxCharsDesc   = "Maximum characters per chunk"
	flagConfigDesc     = "Optional TOML configuration file"
	flagListVoicesDesc = "List available voices and exit"
)

const (
	defaultVoiceID = "en-US-AriaNeural"
	logFileName    = "narrate.log"
)

var errNoInput = errors.New("either -pdf or -text must be provided")

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	pdf        string
	text       string
	voice      string
	rate       string
	out        string
	maxChars   int
	config     string
	listVoices bool
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.pdf, flagPDF, "", flagPDFDesc)
	flag.StringVar(&flags.text, flagText, "", flagTextDesc)
	flag.StringVar(&flags.voice, flagVoice, defaultVoiceID, flagVoiceDesc)
	flag.StringVar(&flags.rate, flagRate, engine.DefaultRate, flagRateDesc)
	flag.StringVar(&flags.out, flagOut, pathutil.DefaultAudioDir(), flagOutDesc)
	flag.IntVar(&flags.maxChars, flagMaxChars, 0, flagMaxCharsDesc)
	flag.StringVar(&flags.config, flagConfig, "", flagConfigDesc)
	flag.BoolVar(&flags.listVoices, flagListVoices, false, flagListVoicesDesc)
	flag.Parse()

	return flags
}

func main() {
	err := run()
	if err != nil {
		// The logger may not be initialized yet, so use the standard
		// log package.
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	if flags.listVoices {
		printVoices()

		return nil
	}

	if flags.pdf == "" && flags.text == "" {
		return errNoInput
	}

	narrateLog, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		closeErr := narrateLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return narrate(ctx, flags, narrateLog)
}

// narrate builds the in-process pipeline and runs one invocation.
func narrate(ctx context.Context, flags appFlags, narrateLog *logger.Logger) error {
	synthOptions, err := engineOptions(flags)
	if err != nil {
		return err
	}

	synthesizer, err := engine.New(synthOptions, narrateLog)
	if err != nil {
		return fmt.Errorf("failed to create synthesis engine: %w", err)
	}

	cache, err := audiocache.New(flags.out, synthesizer.FileExtension(), audiometa.NewReader(narrateLog))
	if err != nil {
		return fmt.Errorf("failed to create audio cache: %w", err)
	}

	store := document.NewStore()
	orchestrator := synth.New(store, cache, synthesizer, narrateLog)

	if flags.text != "" {
		return speakText(ctx, orchestrator, flags)
	}

	docs := pipeline.New(extract.NewPDFExtractor(narrateLog), store, flags.maxChars, narrateLog)

	return narratePDF(ctx, docs, orchestrator, flags)
}

// engineOptions derives engine options from the optional configuration file.
func engineOptions(flags appFlags) (engine.Options, error) {
	if flags.config == "" {
		return engine.Options{
			Engine:         engine.EngineEdge,
			BinaryPath:     "",
			Command:        "",
			BaseURL:        "",
			TimeoutSeconds: 0,
		}, nil
	}

	cfg, err := config.LoadFile(flags.config)
	if err != nil {
		return engine.Options{}, err
	}

	return engine.Options{
		Engine:         cfg.Synthesis.Engine,
		BinaryPath:     cfg.Synthesis.BinaryPath,
		Command:        cfg.Synthesis.Command,
		BaseURL:        cfg.Synthesis.BaseURL,
		TimeoutSeconds: cfg.Synthesis.TimeoutSeconds,
	}, nil
}

// speakText synthesizes one ad-hoc text payload.
func speakText(ctx context.Context, orchestrator *synth.Orchestrator, flags appFlags) error {
	result, err := orchestrator.SynthesizeAdHoc(ctx, flags.text, flags.voice, flags.rate)
	if err != nil {
		return fmt.Errorf("failed to synthesize text: %w", err)
	}

	fmt.Printf("Generated: %s (%s)\n", result.ArtifactPath, pathutil.FormatDuration(result.DurationSeconds))

	return nil
}

// narratePDF ingests the PDF and synthesizes every chunk in order. Chunks
// below the synthesis minimum are reported and skipped rather than failing
// the whole run.
func narratePDF(
	ctx context.Context,
	docs *pipeline.Service,
	orchestrator *synth.Orchestrator,
	flags appFlags,
) error {
	raw, err := os.ReadFile(flags.pdf)
	if err != nil {
		return fmt.Errorf("failed to read PDF %q: %w", flags.pdf, err)
	}

	doc, err := docs.IngestDocument(raw, flags.pdf)
	if err != nil {
		return fmt.Errorf("failed to ingest PDF: %w", err)
	}

	fmt.Printf("%s: %d pages, %d chunks\n", doc.SourceName, doc.TotalPages, len(doc.Chunks))

	var totalSeconds float64

	for _, chunk := range doc.Chunks {
		result, synthErr := orchestrator.GetOrSynthesize(ctx, doc.ID, chunk.Index, flags.voice, flags.rate)
		if errors.Is(synthErr, core.ErrTextTooShort) {
			fmt.Printf("  chunk %d: skipped (too short)\n", chunk.Index)

			continue
		}

		if synthErr != nil {
			return fmt.Errorf("chunk %d: %w", chunk.Index, synthErr)
		}

		totalSeconds += result.DurationSeconds

		fmt.Printf(
			"  chunk %d: %s (%s)\n",
			chunk.Index, result.ArtifactPath, pathutil.FormatDuration(result.DurationSeconds),
		)
	}

	fmt.Printf("Total audio: %s in %s\n", pathutil.FormatDuration(totalSeconds), flags.out)

	return nil
}

func printVoices() {
	for _, descriptor := range voices.Catalog() {
		fmt.Printf("%-24s %-10s %s\n", descriptor.ID, descriptor.Locale, descriptor.DisplayName)
	}
}

// main package for the pdf-narrator service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/audiocache"
	"github.com/book-expert/pdf-narrator/internal/audiometa"
	"github.com/book-expert/pdf-narrator/internal/config"
	"github.com/book-expert/pdf-narrator/internal/core"
	"github.com/book-expert/pdf-narrator/internal/document"
	"github.com/book-expert/pdf-narrator/internal/engine"
	"github.com/book-expert/pdf-narrator/internal/extract"
	"github.com/book-expert/pdf-narrator/internal/objectstore"
	"github.com/book-expert/pdf-narrator/internal/pathutil"
	"github.com/book-expert/pdf-narrator/internal/pipeline"
	"github.com/book-expert/pdf-narrator/internal/server"
	"github.com/book-expert/pdf-narrator/internal/synth"
	"github.com/book-expert/pdf-narrator/internal/worker"
	"github.com/nats-io/nats.go"
)

const (
	defaultListenAddr = ":8080"
	defaultVoiceID    = "en-US-AriaNeural"
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "pdf-narrator.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, log)
}

// serve wires the pipeline and runs the HTTP and NATS front ends until the
// context is cancelled.
func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	synthesizer, err := engine.New(engine.Options{
		Engine:         cfg.Synthesis.Engine,
		BinaryPath:     cfg.Synthesis.BinaryPath,
		Command:        cfg.Synthesis.Command,
		BaseURL:        cfg.Synthesis.BaseURL,
		TimeoutSeconds: cfg.Synthesis.TimeoutSeconds,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create synthesis engine: %w", err)
	}

	audioDir := cfg.Pipeline.AudioDir
	if audioDir == "" {
		audioDir = pathutil.DefaultAudioDir()
	}

	cache, err := audiocache.New(audioDir, synthesizer.FileExtension(), audiometa.NewReader(log))
	if err != nil {
		return fmt.Errorf("failed to create audio cache: %w", err)
	}

	store := document.NewStore()
	docs := pipeline.New(extract.NewPDFExtractor(log), store, cfg.Pipeline.MaxChunkChars, log)
	orchestrator := synth.New(store, cache, synthesizer, log)

	defaultVoice := cfg.Synthesis.DefaultVoice
	if defaultVoice == "" {
		defaultVoice = defaultVoiceID
	}

	workerErrs := make(chan error, 1)

	if cfg.NATS.URL != "" {
		stopWorker, startErr := startWorker(ctx, cfg, synthesizer, defaultVoice, log, workerErrs)
		if startErr != nil {
			return startErr
		}

		defer stopWorker()
	}

	httpServer := &http.Server{
		Addr: listenAddr(cfg),
		Handler: server.New(docs, orchestrator, server.Options{
			AudioDir:       audioDir,
			DefaultVoice:   defaultVoice,
			DefaultRate:    cfg.Synthesis.DefaultRate,
			MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		}, log).Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	log.System("pdf-narrator listening on %s, audio dir %s", httpServer.Addr, audioDir)

	httpErrs := make(chan error, 1)

	go func() {
		httpErrs <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", shutdownErr)
		}

		return nil
	case err := <-httpErrs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}

		return nil
	case err := <-workerErrs:
		return fmt.Errorf("NATS worker failed: %w", err)
	}
}

// startWorker connects to NATS and runs the event-driven front end.
func startWorker(
	ctx context.Context,
	cfg *config.Config,
	synthesizer core.SpeechSynthesizer,
	defaultVoice string,
	log *logger.Logger,
	workerErrs chan<- error,
) (func(), error) {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		natsConnection.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.ObjectStoreBucket)
	if err != nil {
		natsConnection.Close()

		return nil, fmt.Errorf("failed to create object store: %w", err)
	}

	natsWorker, err := worker.NewNatsWorker(natsConnection, worker.Options{
		Subject:       cfg.NATS.TextProcessedSubject,
		MaxChunkChars: cfg.Pipeline.MaxChunkChars,
		DefaultVoice:  defaultVoice,
		DefaultRate:   cfg.Synthesis.DefaultRate,
	}, store, synthesizer, log)
	if err != nil {
		natsConnection.Close()

		return nil, fmt.Errorf("failed to create NATS worker: %w", err)
	}

	go func() {
		runErr := natsWorker.Run(ctx)
		if runErr != nil {
			workerErrs <- runErr
		}
	}()

	log.System("NATS worker listening for jobs on subject: %s", cfg.NATS.TextProcessedSubject)

	return natsConnection.Close, nil
}

func listenAddr(cfg *config.Config) string {
	if cfg.HTTP.ListenAddr != "" {
		return cfg.HTTP.ListenAddr
	}

	return defaultListenAddr
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}

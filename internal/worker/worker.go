// Package worker provides the NATS front end: it consumes text-processed
// events, runs the narration pipeline over the referenced text, and replies
// with audio-chunk-created events.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/core"
	"github.com/book-expert/pdf-narrator/internal/synth"
	"github.com/book-expert/pdf-narrator/internal/text"
	"github.com/book-expert/pdf-narrator/internal/voices"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// handleMessageTimeout bounds one job end to end, including every chunk
// synthesis it contains.
const handleMessageTimeout = 10 * time.Minute

var (
	// ErrVoiceEmpty indicates a job without a voice and no configured default.
	ErrVoiceEmpty = errors.New("voice cannot be empty")
	// ErrUnsupportedVoice indicates a voice outside the static catalog.
	ErrUnsupportedVoice = errors.New("unsupported voice")
	// ErrNoUsableText indicates a job whose text yields no synthesizable chunks.
	ErrNoUsableText = errors.New("no usable text in job")
)

// Options configures a NatsWorker.
type Options struct {
	Subject       string
	MaxChunkChars int
	DefaultVoice  string
	DefaultRate   string
}

// NatsWorker listens for narration jobs on a NATS subject and processes them.
type NatsWorker struct {
	natsConnection *nats.Conn
	opts           Options
	store          core.ObjectStore
	normalizer     *text.Normalizer
	synthesizer    core.SpeechSynthesizer
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	opts Options,
	store core.ObjectStore,
	synthesizer core.SpeechSynthesizer,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection: natsConnection,
		opts:           opts,
		store:          store,
		normalizer:     text.NewNormalizer(),
		synthesizer:    synthesizer,
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages until the context
// is cancelled.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.opts.Subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.opts.Subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var event events.TextProcessedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal event: %v", err)

		return
	}

	audioKey, processErr := w.processJob(ctx, &event)
	if processErr != nil {
		w.log.Error("Failed to process narration job for workflow %s: %v", event.Header.WorkflowID, processErr)

		return
	}

	replyEvent := &events.AudioChunkCreatedEvent{
		Header:     event.Header,
		AudioKey:   audioKey,
		PageNumber: event.PageNumber,
		TotalPages: event.TotalPages,
	}

	replyErr := w.publishReply(msg, replyEvent)
	if replyErr != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", event.Header.WorkflowID, replyErr)
	}
}

// processJob downloads the job text, narrates it chunk by chunk, and uploads
// the combined audio under a fresh key.
func (w *NatsWorker) processJob(ctx context.Context, event *events.TextProcessedEvent) (string, error) {
	voice, err := w.resolveVoice(event.Voice)
	if err != nil {
		return "", err
	}

	textData, err := w.store.Download(ctx, event.TextKey)
	if err != nil {
		return "", fmt.Errorf("failed to download text data for key '%s': %w", event.TextKey, err)
	}

	audioData, err := w.narrate(ctx, string(textData), voice)
	if err != nil {
		return "", err
	}

	audioKey := uuid.NewString() + w.synthesizer.FileExtension()

	uploadErr := w.store.Upload(ctx, audioKey, audioData)
	if uploadErr != nil {
		return "", fmt.Errorf("failed to upload audio data for key '%s': %w", audioKey, uploadErr)
	}

	return audioKey, nil
}

// narrate normalizes and chunks the job text, synthesizes every usable
// chunk, and concatenates the artifacts. Concatenation is frame-wise, which
// is valid for the MP3 streams the edge engine produces.
func (w *NatsWorker) narrate(ctx context.Context, rawText, voice string) ([]byte, error) {
	normalized := w.normalizer.Normalize(rawText)
	chunks := text.Chunk(normalized, w.opts.MaxChunkChars)

	var combined bytes.Buffer

	for chunkIndex, chunkText := range chunks {
		if len(chunkText) < synth.MinChunkTextChars {
			w.log.Warn("Skipping chunk %d: too short for synthesis", chunkIndex)

			continue
		}

		chunkAudio, err := w.synthesizeChunk(ctx, chunkText, voice)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunkIndex, err)
		}

		combined.Write(chunkAudio)
	}

	if combined.Len() == 0 {
		return nil, ErrNoUsableText
	}

	return combined.Bytes(), nil
}

// synthesizeChunk produces one chunk's audio in a scratch location and
// returns its bytes. The scratch artifact is removed on every path.
func (w *NatsWorker) synthesizeChunk(ctx context.Context, chunkText, voice string) ([]byte, error) {
	scratchPath := filepath.Join(
		os.TempDir(),
		"narrate-"+uuid.NewString()+w.synthesizer.FileExtension(),
	)

	defer func() {
		removeErr := os.Remove(scratchPath)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			w.log.Warn("Failed to remove scratch artifact '%s': %v", scratchPath, removeErr)
		}
	}()

	err := w.synthesizer.Synthesize(ctx, chunkText, voice, w.opts.DefaultRate, scratchPath)
	if err != nil {
		return nil, err
	}

	audioData, readErr := os.ReadFile(scratchPath)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read scratch artifact: %w", readErr)
	}

	return audioData, nil
}

// resolveVoice applies the configured default and rejects voices outside the
// catalog rather than silently substituting one.
func (w *NatsWorker) resolveVoice(voice string) (string, error) {
	if voice == "" {
		voice = w.opts.DefaultVoice
	}

	if voice == "" {
		return "", ErrVoiceEmpty
	}

	_, known := voices.Lookup(voice)
	if !known {
		return "", fmt.Errorf("%w: '%s'", ErrUnsupportedVoice, voice)
	}

	return voice, nil
}

// publishReply marshals and responds with the AudioChunkCreatedEvent.
func (w *NatsWorker) publishReply(msg *nats.Msg, replyEvent *events.AudioChunkCreatedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	respondErr := msg.Respond(replyData)
	if respondErr != nil {
		return fmt.Errorf("failed to publish reply event: %w", respondErr)
	}

	return nil
}

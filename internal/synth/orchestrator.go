// Package synth implements the synthesis orchestrator: cache-first chunk and
// ad-hoc speech synthesis over an external engine.
package synth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/core"
	"github.com/book-expert/pdf-narrator/internal/engine"
)

// Minimum text lengths accepted for synthesis. Shorter input is a caller
// error, not attempted.
const (
	MinChunkTextChars = 10
	MinAdHocTextChars = 2
)

// pendingSynthesis is one in-flight synthesis shared by concurrent callers
// for the same cache key.
type pendingSynthesis struct {
	done   chan struct{}
	result core.SynthesisResult
	err    error
}

// Orchestrator serves chunk audio cache-first and synthesizes on misses.
// Concurrent requests for the same cache key share a single synthesis
// through the in-flight table instead of racing to the same artifact path.
type Orchestrator struct {
	store  core.DocumentStore
	cache  core.AudioCache
	engine core.SpeechSynthesizer
	log    *logger.Logger

	mu       sync.Mutex
	inflight map[string]*pendingSynthesis
}

// New creates a synthesis orchestrator.
func New(
	store core.DocumentStore,
	cache core.AudioCache,
	synthesizer core.SpeechSynthesizer,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:    store,
		cache:    cache,
		engine:   synthesizer,
		log:      log,
		mu:       sync.Mutex{},
		inflight: make(map[string]*pendingSynthesis),
	}
}

// GetOrSynthesize returns the audio artifact for one document chunk,
// synthesizing it on a cache miss. A repeated call for the same key reports
// WasCached true and the same artifact path without invoking the engine.
func (o *Orchestrator) GetOrSynthesize(
	ctx context.Context,
	documentID string,
	chunkIndex int,
	voiceID, rate string,
) (core.SynthesisResult, error) {
	doc, ok := o.store.Get(documentID)
	if !ok {
		return core.SynthesisResult{}, fmt.Errorf("%w: %s", core.ErrDocumentNotFound, documentID)
	}

	if chunkIndex < 0 || chunkIndex >= len(doc.Chunks) {
		return core.SynthesisResult{}, fmt.Errorf(
			"%w: index %d, document has %d chunks",
			core.ErrChunkOutOfRange, chunkIndex, len(doc.Chunks),
		)
	}

	chunkText := doc.Chunks[chunkIndex].Text
	if utf8.RuneCountInString(chunkText) < MinChunkTextChars {
		return core.SynthesisResult{}, fmt.Errorf(
			"%w: chunk %d has %d characters, need at least %d",
			core.ErrTextTooShort, chunkIndex, utf8.RuneCountInString(chunkText), MinChunkTextChars,
		)
	}

	if rate == "" {
		rate = engine.DefaultRate
	}

	artifactPath := o.cache.KeyToPath(documentID, chunkIndex, voiceID, rate)

	entry, hit := o.cache.Describe(artifactPath)
	if hit {
		return core.SynthesisResult{
			ArtifactPath:    entry.Path,
			DurationSeconds: entry.DurationSeconds,
			WasCached:       true,
		}, nil
	}

	return o.synthesizeShared(ctx, chunkText, voiceID, rate, artifactPath)
}

// SynthesizeAdHoc synthesizes text that is not tied to a document, writing a
// fresh timestamp-named artifact. Ad-hoc results are never cache hits.
func (o *Orchestrator) SynthesizeAdHoc(
	ctx context.Context,
	text, voiceID, rate string,
) (core.SynthesisResult, error) {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < MinAdHocTextChars {
		return core.SynthesisResult{}, fmt.Errorf(
			"%w: got %d characters, need at least %d",
			core.ErrTextTooShort, utf8.RuneCountInString(trimmed), MinAdHocTextChars,
		)
	}

	if rate == "" {
		rate = engine.DefaultRate
	}

	return o.synthesize(ctx, trimmed, voiceID, rate, o.cache.AdHocPath())
}

// synthesizeShared funnels concurrent callers for one cache key into a
// single engine invocation. Followers wait for the leader's result rather
// than performing redundant work.
func (o *Orchestrator) synthesizeShared(
	ctx context.Context,
	text, voiceID, rate, artifactPath string,
) (core.SynthesisResult, error) {
	o.mu.Lock()

	pending, inFlight := o.inflight[artifactPath]
	if inFlight {
		o.mu.Unlock()
		<-pending.done

		return pending.result, pending.err
	}

	pending = &pendingSynthesis{
		done:   make(chan struct{}),
		result: core.SynthesisResult{},
		err:    nil,
	}
	o.inflight[artifactPath] = pending
	o.mu.Unlock()

	result, err := o.synthesize(ctx, text, voiceID, rate, artifactPath)

	pending.result = result
	pending.err = err

	o.mu.Lock()
	delete(o.inflight, artifactPath)
	o.mu.Unlock()

	close(pending.done)

	return result, err
}

// synthesize invokes the engine and rebuilds the result from the artifact the
// way a later cache lookup would, so both paths report identical metadata.
func (o *Orchestrator) synthesize(
	ctx context.Context,
	text, voiceID, rate, artifactPath string,
) (core.SynthesisResult, error) {
	err := o.engine.Synthesize(ctx, text, voiceID, rate, artifactPath)
	if err != nil {
		return core.SynthesisResult{}, err
	}

	entry, ok := o.cache.Describe(artifactPath)
	if !ok {
		return core.SynthesisResult{}, fmt.Errorf(
			"%w: artifact missing after synthesis at %s",
			core.ErrSynthesisFailed, artifactPath,
		)
	}

	o.log.Info("Synthesized %d characters to %s (%.1fs)", utf8.RuneCountInString(text), entry.Path, entry.DurationSeconds)

	return core.SynthesisResult{
		ArtifactPath:    entry.Path,
		DurationSeconds: entry.DurationSeconds,
		WasCached:       false,
	}, nil
}

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/core"
)

// API endpoints of the HTTP synthesis service.
const (
	apiSynthesize = "/v1/synthesize"
	apiHealth     = "/health"
)

// ErrBaseURLEmpty is returned when the http engine is selected without a
// service base URL configured.
var ErrBaseURLEmpty = fmt.Errorf("synthesis service base URL is empty")

// HTTPEngine synthesizes speech through a locally running synthesis service
// instead of a one-shot binary. It speaks a small JSON contract: the request
// carries text, voice, and rate; the response body is the encoded audio.
type HTTPEngine struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// synthesizeRequest is the JSON payload for one synthesis call.
type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Rate  string `json:"rate"`
}

// NewHTTPEngine creates an engine backed by the synthesis service at
// baseURL (protocol and port included, e.g. "http://localhost:5002").
func NewHTTPEngine(baseURL string, timeout time.Duration, log *logger.Logger) (*HTTPEngine, error) {
	if baseURL == "" {
		return nil, ErrBaseURLEmpty
	}

	return &HTTPEngine{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}, nil
}

// FileExtension returns the artifact extension the service produces.
func (e *HTTPEngine) FileExtension() string {
	return ".wav"
}

// Synthesize posts one text payload to the service and writes the returned
// audio to outputPath via the usual verify-then-rename path.
func (e *HTTPEngine) Synthesize(ctx context.Context, text, voiceID, rate, outputPath string) error {
	normalizedRate, err := normalizeRate(rate)
	if err != nil {
		return err
	}

	audioData, err := e.fetchAudio(ctx, synthesizeRequest{
		Text:  text,
		Voice: voiceID,
		Rate:  normalizedRate,
	})
	if err != nil {
		return err
	}

	tempPath := outputPath + partialSuffix

	writeErr := os.WriteFile(tempPath, audioData, 0o600)
	if writeErr != nil {
		discardPartial(tempPath, e.log)

		return fmt.Errorf("%w: could not write artifact: %w", core.ErrSynthesisFailed, writeErr)
	}

	return acceptArtifact(tempPath, outputPath)
}

// HealthCheck verifies that the synthesis service is reachable and healthy.
func (e *HTTPEngine) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", e.baseURL, err)
	}

	defer closeBody(resp.Body, e.log)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

func (e *HTTPEngine) fetchAudio(ctx context.Context, payload synthesizeRequest) ([]byte, error) {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		e.baseURL+apiSynthesize,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request to %s failed: %w", core.ErrSynthesisFailed, e.baseURL, err)
	}

	defer closeBody(resp.Body, e.log)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return nil, fmt.Errorf(
			"%w: service returned %s: %s",
			core.ErrSynthesisFailed, resp.Status, string(body),
		)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read audio data: %w", core.ErrSynthesisFailed, err)
	}

	if len(audioData) == 0 {
		return nil, fmt.Errorf("%w: received empty audio data", core.ErrSynthesisFailed)
	}

	return audioData, nil
}

func closeBody(body io.Closer, log *logger.Logger) {
	closeErr := body.Close()
	if closeErr != nil {
		log.Warn("Failed to close response body: %v", closeErr)
	}
}

// Package server provides the HTTP front end: document upload, chunk and
// voice queries, chunk audio synthesis, ad-hoc speech, and static serving of
// the audio directory.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/book-expert/logger"
	"github.com/book-expert/pdf-narrator/internal/core"
	"github.com/book-expert/pdf-narrator/internal/pipeline"
	"github.com/book-expert/pdf-narrator/internal/synth"
	"github.com/book-expert/pdf-narrator/internal/voices"
)

// DefaultMaxUploadBytes bounds one multipart upload when no limit is
// configured.
const DefaultMaxUploadBytes = 64 << 20

// uploadFieldName is the multipart form field carrying the PDF.
const uploadFieldName = "file"

// Options configures the HTTP server.
type Options struct {
	AudioDir       string
	DefaultVoice   string
	DefaultRate    string
	MaxUploadBytes int64
}

// Server wires the pipeline and orchestrator into HTTP handlers.
type Server struct {
	docs  *pipeline.Service
	synth *synth.Orchestrator
	opts  Options
	log   *logger.Logger
}

// New creates an HTTP server front end.
func New(docs *pipeline.Service, orchestrator *synth.Orchestrator, opts Options, log *logger.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	return &Server{
		docs:  docs,
		synth: orchestrator,
		opts:  opts,
		log:   log,
	}
}

// Handler returns the route table for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/documents", s.handleUpload)
	mux.HandleFunc("GET /api/documents/{id}", s.handleDocument)
	mux.HandleFunc("GET /api/documents/{id}/chunks/{index}", s.handleChunkText)
	mux.HandleFunc("POST /api/documents/{id}/chunks/{index}/audio", s.handleChunkAudio)
	mux.HandleFunc("POST /api/speech", s.handleAdHocSpeech)
	mux.HandleFunc("GET /api/voices", s.handleVoices)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle(
		"GET /audio/",
		http.StripPrefix("/audio/", http.FileServer(http.Dir(s.opts.AudioDir))),
	)

	return mux
}

// handleUpload ingests one uploaded PDF and returns the document record.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("missing %q upload field: %w", uploadFieldName, err))

		return
	}

	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			s.log.Warn("Failed to close upload stream: %v", closeErr)
		}
	}()

	raw, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))

		return
	}

	doc, err := s.docs.IngestDocument(raw, header.Filename)
	if err != nil {
		s.writeError(w, statusForError(err), err)

		return
	}

	s.writeJSON(w, http.StatusCreated, doc)
}

// handleDocument returns a stored document record.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.GetDocument(r.PathValue("id"))
	if err != nil {
		s.writeError(w, statusForError(err), err)

		return
	}

	s.writeJSON(w, http.StatusOK, doc)
}

// chunkTextResponse is the payload for one chunk's text.
type chunkTextResponse struct {
	DocumentID string `json:"documentId"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
}

// handleChunkText returns the text of one chunk.
func (s *Server) handleChunkText(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")

	chunkIndex, err := parseChunkIndex(r.PathValue("index"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	chunkText, err := s.docs.GetChunkText(documentID, chunkIndex)
	if err != nil {
		s.writeError(w, statusForError(err), err)

		return
	}

	s.writeJSON(w, http.StatusOK, chunkTextResponse{
		DocumentID: documentID,
		Index:      chunkIndex,
		Text:       chunkText,
	})
}

// handleChunkAudio synthesizes (or serves from cache) one chunk's audio.
func (s *Server) handleChunkAudio(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")

	chunkIndex, err := parseChunkIndex(r.PathValue("index"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	voice, err := s.resolveVoice(r.URL.Query().Get("voice"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	rate := s.resolveRate(r.URL.Query().Get("rate"))

	result, err := s.synth.GetOrSynthesize(r.Context(), documentID, chunkIndex, voice, rate)
	if err != nil {
		s.writeError(w, statusForError(err), err)

		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// adHocRequest is the payload for ad-hoc speech synthesis.
type adHocRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Rate  string `json:"rate"`
}

// handleAdHocSpeech synthesizes caller-supplied text outside any document.
func (s *Server) handleAdHocSpeech(w http.ResponseWriter, r *http.Request) {
	var req adHocRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))

		return
	}

	voice, err := s.resolveVoice(req.Voice)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	result, err := s.synth.SynthesizeAdHoc(r.Context(), req.Text, voice, s.resolveRate(req.Rate))
	if err != nil {
		s.writeError(w, statusForError(err), err)

		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleVoices returns the static voice catalog.
func (s *Server) handleVoices(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, voices.Catalog())
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resolveVoice applies the configured default and rejects voices outside the
// catalog.
func (s *Server) resolveVoice(voice string) (string, error) {
	if voice == "" {
		voice = s.opts.DefaultVoice
	}

	_, known := voices.Lookup(voice)
	if !known {
		return "", fmt.Errorf("%w: '%s'", core.ErrUnknownVoice, voice)
	}

	return voice, nil
}

// resolveRate applies the configured default rate. Validation happens in the
// engine, which owns the rate format.
func (s *Server) resolveRate(rate string) string {
	if rate == "" {
		return s.opts.DefaultRate
	}

	return rate
}

func parseChunkIndex(raw string) (int, error) {
	chunkIndex, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid chunk index %q: %w", raw, err)
	}

	return chunkIndex, nil
}

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		s.log.Error("Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.Warn("Request failed (%d): %v", status, err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusForError maps pipeline error kinds onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrChunkOutOfRange),
		errors.Is(err, core.ErrTextTooShort),
		errors.Is(err, core.ErrInvalidRate),
		errors.Is(err, core.ErrUnknownVoice):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrSynthesisFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package core

import "errors"

// Error kinds surfaced by the pipeline. Callers distinguish them with
// errors.Is; none of them trigger automatic retries.
var (
	// ErrExtraction indicates the source bytes could not be decoded to text.
	ErrExtraction = errors.New("could not extract text from document")
	// ErrDocumentNotFound indicates an unknown document identifier.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrChunkOutOfRange indicates a chunk index outside the document.
	ErrChunkOutOfRange = errors.New("chunk index out of range")
	// ErrTextTooShort indicates input below the minimum synthesis length.
	ErrTextTooShort = errors.New("text too short for synthesis")
	// ErrSynthesisFailed indicates the external synthesis tool failed or
	// timed out.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
	// ErrInvalidRate indicates a malformed rate adjustment string.
	ErrInvalidRate = errors.New("rate must be a signed percentage, e.g. +20%")
	// ErrUnknownVoice indicates a voice identifier absent from the catalog.
	ErrUnknownVoice = errors.New("unknown voice")
)

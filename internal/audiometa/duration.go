// Package audiometa reads playback duration from audio artifacts. Failures
// are non-fatal: any artifact that cannot be parsed reports a duration of
// zero seconds rather than an error, since duration is informational and the
// artifact itself may still be served.
package audiometa

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/go-audio/wav"
	"github.com/tcolgate/mp3"
)

// Supported artifact extensions.
const (
	extWAV = ".wav"
	extMP3 = ".mp3"
)

// Reader derives artifact durations from their encoded audio content.
type Reader struct {
	log *logger.Logger
}

// NewReader creates a duration reader.
func NewReader(log *logger.Logger) *Reader {
	return &Reader{log: log}
}

// Seconds returns the playback duration of the audio file at path, or zero
// when the file is missing, unsupported, or unparseable.
func (r *Reader) Seconds(path string) float64 {
	file, err := os.Open(path)
	if err != nil {
		r.log.Warn("Could not open audio file '%s' for duration read: %v", path, err)

		return 0
	}

	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			r.log.Warn("Failed to close audio file '%s': %v", path, closeErr)
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case extWAV:
		return r.wavSeconds(path, file)
	case extMP3:
		return mp3Seconds(file)
	default:
		r.log.Warn("Unsupported audio extension for duration read: %s", path)

		return 0
	}
}

func (r *Reader) wavSeconds(path string, file *os.File) float64 {
	decoder := wav.NewDecoder(file)

	duration, err := decoder.Duration()
	if err != nil {
		r.log.Warn("Could not read WAV duration from '%s': %v", path, err)

		return 0
	}

	return duration.Seconds()
}

// mp3Seconds sums per-frame durations. A decode error mid-stream ends the
// walk and the duration accumulated so far is returned, which for a truncated
// file still under-reports rather than fails.
func mp3Seconds(file io.Reader) float64 {
	decoder := mp3.NewDecoder(file)

	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
	)

	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			break
		}

		total += frame.Duration()
	}

	return total.Seconds()
}

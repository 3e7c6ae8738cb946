// Package pathutil provides filesystem path helpers shared by the audio
// cache, the service, and the CLI: directory creation, filename sanitizing,
// and human-readable duration formatting.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variable names used for path resolution.
const (
	envAudioDir = "AUDIO_DIR"
)

// Application directory constants.
const (
	appName               = "pdf-narrator"
	audioDirName          = "audio"
	tmpDir                = "/tmp"
	dotCache              = ".cache"
	defaultDirPermissions = 0o750
)

// invalidCharReplacement substitutes characters that are unsafe in filenames.
const invalidCharReplacement = "_"

// Duration formatting constants.
const (
	secondsInMinute = 60
	secondsInHour   = 3600
	formatSeconds   = "%.1fs"
	formatMinutes   = "%dm %.1fs"
	formatHours     = "%dh %dm"
)

// DefaultAudioDir returns the directory for synthesized audio artifacts,
// honoring the AUDIO_DIR environment variable and falling back to a
// per-user cache directory.
func DefaultAudioDir() string {
	if audioDir := os.Getenv(envAudioDir); audioDir != "" {
		return audioDir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(tmpDir, appName, audioDirName)
	}

	return filepath.Join(homeDir, dotCache, appName, audioDirName)
}

// EnsureDir ensures a directory exists at the given path, creating it and any
// missing parents if needed.
func EnsureDir(path string) error {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		mkdirErr := os.MkdirAll(path, defaultDirPermissions)
		if mkdirErr != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, mkdirErr)
		}
	}

	return nil
}

// SanitizeFilename replaces characters that are invalid in most filesystems.
func SanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"<", invalidCharReplacement,
		">", invalidCharReplacement,
		":", invalidCharReplacement,
		"\"", invalidCharReplacement,
		"/", invalidCharReplacement,
		"\\", invalidCharReplacement,
		"|", invalidCharReplacement,
		"?", invalidCharReplacement,
		"*", invalidCharReplacement,
		" ", invalidCharReplacement,
	)

	return replacer.Replace(filename)
}

// FormatDuration formats a duration in seconds as a human-readable string
// (e.g. "45.2s", "5m 30.5s", "1h 15m").
func FormatDuration(seconds float64) string {
	if seconds < secondsInMinute {
		return fmt.Sprintf(formatSeconds, seconds)
	}

	if seconds < secondsInHour {
		minutes := int(seconds / secondsInMinute)
		remainingSeconds := seconds - float64(minutes*secondsInMinute)

		return fmt.Sprintf(formatMinutes, minutes, remainingSeconds)
	}

	hours := int(seconds / secondsInHour)
	remainingSeconds := seconds - float64(hours*secondsInHour)
	remainingMinutes := int(remainingSeconds / secondsInMinute)

	return fmt.Sprintf(formatHours, hours, remainingMinutes)
}

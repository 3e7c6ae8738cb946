// Package config provides the configuration structure for pdf-narrator.
package config

import (
	"fmt"
	"os"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"
)

// NATSConfig holds the configuration for the event-driven front end. An
// empty URL disables it.
type NATSConfig struct {
	URL                      string `toml:"url"`
	TextProcessedSubject     string `toml:"text_processed_subject"`
	AudioChunkCreatedSubject string `toml:"audio_chunk_created_subject"`
	ObjectStoreBucket        string `toml:"object_store_bucket"`
}

// HTTPConfig holds the configuration for the HTTP front end.
type HTTPConfig struct {
	ListenAddr     string `toml:"listen_addr"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
}

// SynthesisConfig selects and configures the external synthesis engine.
type SynthesisConfig struct {
	Engine         string `toml:"engine"`
	BinaryPath     string `toml:"binary_path"`
	Command        string `toml:"command"`
	BaseURL        string `toml:"base_url"`
	DefaultVoice   string `toml:"default_voice"`
	DefaultRate    string `toml:"default_rate"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PipelineConfig holds the chunking and artifact settings.
type PipelineConfig struct {
	MaxChunkChars int    `toml:"max_chunk_chars"`
	AudioDir      string `toml:"audio_dir"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS      NATSConfig      `toml:"nats"`
	HTTP      HTTPConfig      `toml:"http"`
	Synthesis SynthesisConfig `toml:"synthesis"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Paths     PathsConfig     `toml:"paths"`
}

// Load loads the service configuration through the central configurator.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}

// LoadFile loads configuration from a local TOML file. The CLI uses this
// path so it can run without the central configurator.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	return &cfg, nil
}

// ABOUTME: Runtime configuration for the live voice client
// ABOUTME: Loads YAML settings over defaults and validates them
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
	"github.com/PpiNeaPpLe/livevoice/pkg/live"
	"github.com/PpiNeaPpLe/livevoice/pkg/protocol"
)

// APIKeyEnv is the environment variable holding the API key
const APIKeyEnv = "GEMINI_API_KEY"

// Output backends
const (
	OutputOto     = "oto"
	OutputDiscard = "discard"
)

// Config holds every setting of the client
type Config struct {
	APIKey            string `yaml:"api_key"`
	Endpoint          string `yaml:"endpoint"`
	Model             string `yaml:"model"`
	Voice             string `yaml:"voice"`
	SystemInstruction string `yaml:"system_instruction"`

	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`
	LivenessInterval     time.Duration `yaml:"liveness_interval"`
	StaleAfter           time.Duration `yaml:"stale_after"`

	InputSampleRate int `yaml:"input_sample_rate"`
	SendSampleRate  int `yaml:"send_sample_rate"`

	Output       string        `yaml:"output"`
	OutputBuffer time.Duration `yaml:"output_buffer"`
	Volume       int           `yaml:"volume"`

	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Endpoint:             protocol.DefaultEndpoint,
		Model:                live.DefaultModel,
		Voice:                live.DefaultVoice,
		MaxReconnectAttempts: live.DefaultMaxAttempts,
		LivenessInterval:     live.DefaultLivenessInterval,
		StaleAfter:           live.DefaultStaleAfter,
		InputSampleRate:      audio.CaptureSampleRate,
		SendSampleRate:       audio.CaptureSampleRate,
		Output:               OutputOto,
		Volume:               100,
	}
}

// Load reads the YAML file at path over the defaults
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults. Unknown keys are
// rejected. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if key, ok := lookup(APIKeyEnv); ok && key != "" {
		c.APIKey = key
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Endpoint == "" {
		errs = append(errs, errors.New("endpoint is required"))
	} else if _, err := protocol.EndpointURL(cfg.Endpoint, ""); err != nil {
		errs = append(errs, fmt.Errorf("endpoint: %w", err))
	}
	if cfg.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if cfg.MaxReconnectAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_reconnect_attempts %d must be at least 1", cfg.MaxReconnectAttempts))
	}
	if cfg.ReconnectDelay < 0 {
		errs = append(errs, fmt.Errorf("reconnect_delay %v must not be negative", cfg.ReconnectDelay))
	}
	if cfg.LivenessInterval <= 0 {
		errs = append(errs, fmt.Errorf("liveness_interval %v must be positive", cfg.LivenessInterval))
	}
	if cfg.StaleAfter < cfg.LivenessInterval {
		errs = append(errs, fmt.Errorf("stale_after %v must be at least liveness_interval %v", cfg.StaleAfter, cfg.LivenessInterval))
	}
	if cfg.InputSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("input_sample_rate %d must be positive", cfg.InputSampleRate))
	}
	if cfg.SendSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("send_sample_rate %d must be positive", cfg.SendSampleRate))
	}
	if cfg.Output != OutputOto && cfg.Output != OutputDiscard {
		errs = append(errs, fmt.Errorf("output %q is invalid; valid values: %s, %s", cfg.Output, OutputOto, OutputDiscard))
	}
	if cfg.OutputBuffer < 0 {
		errs = append(errs, fmt.Errorf("output_buffer %v must not be negative", cfg.OutputBuffer))
	}
	if cfg.Volume < 0 || cfg.Volume > 100 {
		errs = append(errs, fmt.Errorf("volume %d is out of range [0, 100]", cfg.Volume))
	}

	return errors.Join(errs...)
}

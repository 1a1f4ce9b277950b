package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration parsed from YAML.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Media     MediaConfig     `yaml:"media"`
	Market    MarketConfig    `yaml:"market"`
	Sampling  SamplingConfig  `yaml:"sampling"`
	Transcode TranscodeConfig `yaml:"transcode"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// BackendConfig captures the chat-completion backend endpoint and its
// model catalogue. The credential is deliberately absent: it is supplied
// per session through the API, never from configuration.
type BackendConfig struct {
	BaseURL      string   `yaml:"base_url"`
	DefaultModel string   `yaml:"default_model"`
	Models       []string `yaml:"models"`
	Headers      Headers  `yaml:"headers"`
}

// MediaConfig captures the multimodal backend used for audio processing.
type MediaConfig struct {
	BaseURL string  `yaml:"base_url"`
	Headers Headers `yaml:"headers"`
}

// MarketConfig captures the market-data provider endpoint.
type MarketConfig struct {
	BaseURL string `yaml:"base_url"`
}

// SamplingConfig holds default sampling parameters for completion requests.
// AnalysisTemperature is the lower temperature used for the factual
// stock-analysis path.
type SamplingConfig struct {
	Temperature         float64 `yaml:"temperature"`
	AnalysisTemperature float64 `yaml:"analysis_temperature"`
	TopP                float64 `yaml:"top_p"`
	MaxTokens           int     `yaml:"max_tokens"`
}

// TranscodeConfig locates the external transcoder and fixes its output bitrate.
type TranscodeConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"`
	Bitrate    string `yaml:"bitrate"`
}

// Headers contains additional HTTP headers to send with a backend request.
type Headers map[string]string

// Load reads YAML configuration from disk, applies defaults and validates
// the result.
func Load(path string) (Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Sampling.Temperature == 0 {
		c.Sampling.Temperature = 1
	}
	if c.Sampling.AnalysisTemperature == 0 {
		c.Sampling.AnalysisTemperature = 0.7
	}
	if c.Sampling.TopP == 0 {
		c.Sampling.TopP = 1
	}
	if c.Sampling.MaxTokens == 0 {
		c.Sampling.MaxTokens = 1024
	}
	if c.Transcode.FFmpegPath == "" {
		c.Transcode.FFmpegPath = "ffmpeg"
	}
	if c.Transcode.Bitrate == "" {
		c.Transcode.Bitrate = "192k"
	}
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}

	if err := validateBaseURL("backend.base_url", c.Backend.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("media.base_url", c.Media.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("market.base_url", c.Market.BaseURL); err != nil {
		return err
	}

	if strings.TrimSpace(c.Backend.DefaultModel) == "" {
		return fmt.Errorf("backend.default_model must be provided")
	}
	for _, model := range c.Backend.Models {
		if strings.TrimSpace(model) == "" {
			return fmt.Errorf("backend.models must not contain empty entries")
		}
	}

	for _, headers := range []Headers{c.Backend.Headers, c.Media.Headers} {
		for headerKey := range headers {
			if !isCanonicalHTTPHeader(headerKey) {
				return fmt.Errorf("header %q is not a valid canonical HTTP header", headerKey)
			}
		}
	}

	if c.Sampling.Temperature < 0 || c.Sampling.Temperature > 2 {
		return fmt.Errorf("sampling.temperature %g must be within [0, 2]", c.Sampling.Temperature)
	}
	if c.Sampling.AnalysisTemperature < 0 || c.Sampling.AnalysisTemperature > 2 {
		return fmt.Errorf("sampling.analysis_temperature %g must be within [0, 2]", c.Sampling.AnalysisTemperature)
	}
	if c.Sampling.TopP <= 0 || c.Sampling.TopP > 1 {
		return fmt.Errorf("sampling.top_p %g must be within (0, 1]", c.Sampling.TopP)
	}
	if c.Sampling.MaxTokens <= 0 {
		return fmt.Errorf("sampling.max_tokens must be positive, got %d", c.Sampling.MaxTokens)
	}

	if strings.TrimSpace(c.Transcode.FFmpegPath) == "" {
		return fmt.Errorf("transcode.ffmpeg_path must be provided")
	}
	if strings.TrimSpace(c.Transcode.Bitrate) == "" {
		return fmt.Errorf("transcode.bitrate must be provided")
	}

	return nil
}

func validateBaseURL(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must be provided", field)
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s %q must be an absolute URL", field, value)
	}
	return nil
}

func isCanonicalHTTPHeader(header string) bool {
	if header == "" {
		return false
	}

	for _, r := range header {
		if !(r == '-' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')) {
			return false
		}
	}
	return true
}

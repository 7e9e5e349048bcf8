package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxFileSize         int64 = 50 * 1024 * 1024
	DefaultConfidenceThreshold       = 75
	DefaultBatchSize                 = 32
	DefaultModel                     = "custom-cnn"
	DefaultHTTPListenAddr            = ":8080"
	DefaultNATSSubject               = "botspectra.analysis"
)

// Known classifier model names. They only label the stub classifier.
var knownModels = map[string]bool{
	"custom-cnn": true,
	"resnet-50":  true,
	"vgg-16":     true,
}

// StageDelays holds the simulated latency applied after each pipeline phase.
type StageDelays struct {
	Validating string `yaml:"validating"`
	Parsing    string `yaml:"parsing"`
	Extracting string `yaml:"extracting"`
	Finalizing string `yaml:"finalizing"`
}

// PipelineConfig holds the configuration for the analysis pipeline.
type PipelineConfig struct {
	MaxFileSize         int64       `yaml:"max_file_size"`
	ConfidenceThreshold int         `yaml:"confidence_threshold"`
	StageDelays         StageDelays `yaml:"stage_delays"`
}

// ClassifierConfig configures the stub classifier.
type ClassifierConfig struct {
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
	Latency   string `yaml:"latency"`
}

// APIConfig holds the listen addresses of bs-api.
type APIConfig struct {
	HTTPListenAddr string `yaml:"http_listen_addr"`
	GRPCListenAddr string `yaml:"grpc_listen_addr"`
}

// NATSConfig holds the NATS connection used for analysis events.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// SMTPConfig holds the SMTP server settings for email notifications.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// NotifierConfig selects where run notifications go.
type NotifierConfig struct {
	Type string     `yaml:"type"` // log, nats or email
	NATS NATSConfig `yaml:"nats"`
	SMTP SMTPConfig `yaml:"smtp"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Classifier ClassifierConfig `yaml:"classifier"`
	API        APIConfig        `yaml:"api"`
	Notifier   NotifierConfig   `yaml:"notifier"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Seeded so that an explicit confidence_threshold of 0 survives.
	cfg := Config{Pipeline: PipelineConfig{ConfidenceThreshold: DefaultConfidenceThreshold}}
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Pipeline: PipelineConfig{ConfidenceThreshold: DefaultConfidenceThreshold}}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every unset field. ConfidenceThreshold is left alone
// because 0 is a valid setting that keeps every result.
func ApplyDefaults(cfg *Config) {
	if cfg.Pipeline.MaxFileSize <= 0 {
		cfg.Pipeline.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Classifier.Model == "" {
		cfg.Classifier.Model = DefaultModel
	}
	if cfg.Classifier.BatchSize <= 0 {
		cfg.Classifier.BatchSize = DefaultBatchSize
	}
	if cfg.API.HTTPListenAddr == "" {
		cfg.API.HTTPListenAddr = DefaultHTTPListenAddr
	}
	if cfg.Notifier.Type == "" {
		cfg.Notifier.Type = "log"
	}
	if cfg.Notifier.NATS.Subject == "" {
		cfg.Notifier.NATS.Subject = DefaultNATSSubject
	}
	if cfg.Notifier.SMTP.Port == 0 {
		cfg.Notifier.SMTP.Port = 587
	}
}

// Validate reports the first invalid setting.
func Validate(cfg *Config) error {
	if t := cfg.Pipeline.ConfidenceThreshold; t < 0 || t > 100 {
		return fmt.Errorf("confidence_threshold must be within 0-100, got %d", t)
	}
	if !knownModels[cfg.Classifier.Model] {
		return fmt.Errorf("unknown classifier model '%s'", cfg.Classifier.Model)
	}
	if _, err := ParseDuration(cfg.Classifier.Latency); err != nil {
		return fmt.Errorf("invalid classifier latency: %w", err)
	}
	d := cfg.Pipeline.StageDelays
	for name, v := range map[string]string{
		"validating": d.Validating,
		"parsing":    d.Parsing,
		"extracting": d.Extracting,
		"finalizing": d.Finalizing,
	} {
		if _, err := ParseDuration(v); err != nil {
			return fmt.Errorf("invalid stage delay '%s': %w", name, err)
		}
	}
	switch cfg.Notifier.Type {
	case "log":
	case "nats":
		if cfg.Notifier.NATS.URL == "" {
			return fmt.Errorf("nats notifier requires nats.url")
		}
	case "email":
		if cfg.Notifier.SMTP.Host == "" || cfg.Notifier.SMTP.To == "" {
			return fmt.Errorf("email notifier requires smtp.host and smtp.to")
		}
	default:
		return fmt.Errorf("unknown notifier type '%s'", cfg.Notifier.Type)
	}
	return nil
}

// ParseDuration parses a duration setting. An empty string means zero.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s", s)
	}
	return d, nil
}

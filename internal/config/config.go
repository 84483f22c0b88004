package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		// RateLimit is requests per minute per reviewer+ip; 0 disables
		RateLimit       int           `yaml:"rateLimit"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | memory
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey  string        `yaml:"apiKey"`
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"openai"`

	Review struct {
		ConfidenceThreshold  float64  `yaml:"confidenceThreshold"`
		MaxConflictRetries   int      `yaml:"maxConflictRetries"`
		PageSize             int      `yaml:"pageSize"`
		MaxArtifactBytes     int64    `yaml:"maxArtifactBytes"`
		ValidationTypes      []string `yaml:"validationTypes"`
		CompetencyCategories []string `yaml:"competencyCategories"`
		CategoryRequiredFor  []string `yaml:"categoryRequiredFor"`
	} `yaml:"review"`

	CatalogPath string `yaml:"catalogPath"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load reads the YAML config at path, then applies defaults and env overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = 5 * time.Minute
	}
	if c.Review.ConfidenceThreshold == 0 {
		c.Review.ConfidenceThreshold = domain.DefaultConfidenceThreshold
	}
	if c.Review.MaxConflictRetries == 0 {
		c.Review.MaxConflictRetries = 5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// applyEnv: secret dari env menimpa isi file
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if !domain.ValidThreshold(c.Review.ConfidenceThreshold) {
		return fmt.Errorf("config: review.confidenceThreshold %v must be within [0,1]", c.Review.ConfidenceThreshold)
	}
	if c.Review.MaxConflictRetries < 0 {
		return fmt.Errorf("config: review.maxConflictRetries must not be negative")
	}
	return nil
}

// IntakePolicy builds the intake rules, starting from the form defaults.
func (c *Config) IntakePolicy() domain.IntakePolicy {
	p := domain.DefaultIntakePolicy()
	if len(c.Review.ValidationTypes) > 0 {
		p.ValidationTypes = c.Review.ValidationTypes
	}
	if len(c.Review.CompetencyCategories) > 0 {
		p.CompetencyCategories = c.Review.CompetencyCategories
	}
	if c.Review.CategoryRequiredFor != nil {
		p.CategoryRequiredFor = c.Review.CategoryRequiredFor
	}
	if c.Review.MaxArtifactBytes > 0 {
		p.MaxArtifactBytes = c.Review.MaxArtifactBytes
	}
	return p
}

// LogLevel maps the configured level name to slog.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StaticSettings serves the configured confidence threshold when no
// settings table is available.
type StaticSettings struct {
	Threshold float64
}

func (s StaticSettings) ConfidenceThreshold(context.Context) (float64, error) {
	return s.Threshold, nil
}

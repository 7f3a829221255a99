package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Media    MediaConfig    `yaml:"media"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `yaml:"port"`
	Host         string `yaml:"host"`
	CORSOrigin   string `yaml:"cors_origin"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

// DatabaseConfig holds database configuration. URL takes precedence over the
// individual postgres fields; mongo always needs it.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AWSConfig holds S3 configuration
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`   // S3-compatible endpoint, e.g. MinIO
	PublicURL string `yaml:"public_url"` // base URL objects are served from
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// MediaConfig holds image processing limits
type MediaConfig struct {
	MaxDimension   int   `yaml:"max_dimension"`
	JPEGQuality    int   `yaml:"jpeg_quality"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// MaxPixels caps width*height as declared by the image header
	MaxPixels      int64 `yaml:"max_pixels"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used for anything the file and the
// environment leave unset
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       8000,
			Host:       "0.0.0.0",
			CORSOrigin: "http://localhost:5173",
		},
		Database: DatabaseConfig{
			Driver:  DriverPostgres,
			Host:    "localhost",
			Port:    5432,
			DBName:  "snapgram",
			SSLMode: "disable",
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Media: MediaConfig{
			MaxDimension:   800,
			JPEGQuality:    80,
			MaxUploadBytes: 10 << 20,
			MaxPixels:      25_000_000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports settings the server cannot start with
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}

	switch c.Database.Driver {
	case DriverPostgres:
	case DriverMongo:
		if c.Database.URL == "" {
			return errors.New("database url is required for the mongo driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.AWS.S3Bucket == "" && c.Database.Driver != DriverMemory {
		return errors.New("aws s3 bucket is required")
	}

	if c.Media.MaxDimension <= 0 {
		return fmt.Errorf("media max dimension must be positive, got %d", c.Media.MaxDimension)
	}
	if c.Media.JPEGQuality < 1 || c.Media.JPEGQuality > 100 {
		return fmt.Errorf("media jpeg quality must be between 1 and 100, got %d", c.Media.JPEGQuality)
	}
	if c.Media.MaxUploadBytes <= 0 {
		return fmt.Errorf("media max upload bytes must be positive, got %d", c.Media.MaxUploadBytes)
	}
	if c.Media.MaxPixels <= 0 {
		return fmt.Errorf("media max pixels must be positive, got %d", c.Media.MaxPixels)
	}

	return nil
}

// Addr returns the address the HTTP server listens on
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

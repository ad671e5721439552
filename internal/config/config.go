package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreIPFS  = "ipfs"
	StoreAzure = "azure"
	StoreNone  = "none"
)

type Config struct {
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	LogLevel           string        `yaml:"log_level"`

	GenAI  GenAIConfig  `yaml:"genai"`
	Output OutputConfig `yaml:"output"`
	Store  StoreConfig  `yaml:"store"`
	OCR    OCRConfig    `yaml:"ocr"`

	RasterDPI    float64 `yaml:"raster_dpi"`
	BatchWorkers int     `yaml:"batch_workers"`
}

// GenAIConfig binds the model client. Retries and BackoffBase feed the retry policy.
type GenAIConfig struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Retries     int           `yaml:"retries"`
	BackoffBase time.Duration `yaml:"backoff_base"`
	Timeout     time.Duration `yaml:"timeout"`
}

type OutputConfig struct {
	PDFDir  string `yaml:"pdf_dir"`
	MetaDir string `yaml:"meta_dir"`
}

type StoreConfig struct {
	Type           string        `yaml:"type"`
	IPFSAPI        string        `yaml:"ipfs_api"`
	IPFSTimeout    time.Duration `yaml:"ipfs_timeout"`
	AzureAccount   string        `yaml:"azure_account"`
	AzureKey       string        `yaml:"azure_key"`
	AzureContainer string        `yaml:"azure_container"`
}

type OCRConfig struct {
	Fallback bool   `yaml:"fallback"`
	Language string `yaml:"language"`
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Host:               "0.0.0.0",
		Port:               "8081",
		RequestTimeout:     180 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024, // 10MB
		LogLevel:           "info",
		GenAI: GenAIConfig{
			Model:       "gemini-2.5-flash",
			Retries:     2,
			BackoffBase: time.Second,
			Timeout:     60 * time.Second,
		},
		Output: OutputConfig{
			PDFDir:  "documents/PDFs",
			MetaDir: "documents/Metadata",
		},
		Store: StoreConfig{
			Type:           StoreIPFS,
			IPFSAPI:        "http://127.0.0.1:5001/api/v0",
			IPFSTimeout:    120 * time.Second,
			AzureContainer: "scripts",
		},
		OCR: OCRConfig{
			Language: "eng",
		},
		RasterDPI:    200,
		BatchWorkers: 1,
	}
}

// LoadFromEnv loads defaults, .env and environment variables
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

// Load layers defaults, the optional YAML file at path, a .env file and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// .env never overrides variables already set in the process
	_ = godotenv.Load()

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Host = getEnvOrDefault("HOST", cfg.Host)
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.RequestTimeout = parseDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.MaxRequestBodySize = parseIntOrDefault("MAX_REQUEST_BODY_SIZE", cfg.MaxRequestBodySize)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)

	cfg.GenAI.APIKey = getEnvOrDefault("GENAI_API_KEY", cfg.GenAI.APIKey)
	cfg.GenAI.Model = getEnvOrDefault("GENAI_MODEL", cfg.GenAI.Model)
	cfg.GenAI.Retries = int(parseIntOrDefault("GENAI_RETRIES", int64(cfg.GenAI.Retries)))
	cfg.GenAI.BackoffBase = parseDurationOrDefault("GENAI_BACKOFF_BASE", cfg.GenAI.BackoffBase)
	cfg.GenAI.Timeout = parseDurationOrDefault("GENAI_TIMEOUT", cfg.GenAI.Timeout)

	cfg.Output.PDFDir = getEnvOrDefault("PDF_OUT", cfg.Output.PDFDir)
	cfg.Output.MetaDir = getEnvOrDefault("META_OUT", cfg.Output.MetaDir)

	cfg.Store.Type = strings.ToLower(getEnvOrDefault("STORE_TYPE", cfg.Store.Type))
	cfg.Store.IPFSAPI = getEnvOrDefault("IPFS_API", cfg.Store.IPFSAPI)
	if secs := parseIntOrDefault("IPFS_TIMEOUT_SECONDS", 0); secs > 0 {
		cfg.Store.IPFSTimeout = time.Duration(secs) * time.Second
	}
	cfg.Store.AzureAccount = getEnvOrDefault("AZURE_STORAGE_ACCOUNT", cfg.Store.AzureAccount)
	cfg.Store.AzureKey = getEnvOrDefault("AZURE_STORAGE_KEY", cfg.Store.AzureKey)
	cfg.Store.AzureContainer = getEnvOrDefault("AZURE_STORAGE_CONTAINER", cfg.Store.AzureContainer)

	cfg.OCR.Fallback = parseBoolOrDefault("OCR_FALLBACK", cfg.OCR.Fallback)
	cfg.OCR.Language = getEnvOrDefault("OCR_LANGUAGE", cfg.OCR.Language)

	if dpi := os.Getenv("RASTER_DPI"); dpi != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(dpi), 64); err == nil {
			cfg.RasterDPI = v
		}
	}
	cfg.BatchWorkers = int(parseIntOrDefault("BATCH_WORKERS", int64(cfg.BatchWorkers)))
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.GenAI.Timeout <= 0 || c.Store.IPFSTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, genai=%s, ipfs=%s)",
			c.RequestTimeout, c.GenAI.Timeout, c.Store.IPFSTimeout)
	}
	if c.GenAI.Retries < 1 {
		return fmt.Errorf("GENAI_RETRIES must be >= 1 (got %d)", c.GenAI.Retries)
	}
	if c.GenAI.BackoffBase < 0 {
		return fmt.Errorf("GENAI_BACKOFF_BASE must not be negative (got %s)", c.GenAI.BackoffBase)
	}
	if c.RasterDPI <= 0 {
		return fmt.Errorf("RASTER_DPI must be > 0 (got %v)", c.RasterDPI)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be >= 1 (got %d)", c.BatchWorkers)
	}
	switch c.Store.Type {
	case StoreIPFS, StoreAzure, StoreNone:
	default:
		return fmt.Errorf("unknown STORE_TYPE %q", c.Store.Type)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration >= 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// Package config loads latexcalc settings from an optional YAML file and
// LATEXCALC_* environment variables. The environment wins over the file,
// which wins over Default.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/latexcalc"
	"github.com/njchilds90/latexcalc/internal/logging"
)

// Prefix of every environment variable, e.g. LATEXCALC_ENGINE_TIMEOUT.
const Prefix = "LATEXCALC"

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig   `yaml:"engine"`
	Logging logging.Config `yaml:"logging" envconfig:"LOG"`
	Server  ServerConfig   `yaml:"server"`
	MCP     MCPConfig      `yaml:"mcp"`
}

// EngineConfig mirrors latexcalc.Config.
type EngineConfig struct {
	Precision          int           `yaml:"precision" envconfig:"PRECISION"`
	Timeout            time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	NumericSolve       bool          `yaml:"numeric_solve" envconfig:"NUMERIC_SOLVE"`
	NumericRange       float64       `yaml:"numeric_range" envconfig:"NUMERIC_RANGE"`
	Tolerance          float64       `yaml:"tolerance" envconfig:"TOLERANCE"`
	MaxIterations      int           `yaml:"max_iterations" envconfig:"MAX_ITERATIONS"`
	NumericIntegration bool          `yaml:"numeric_integration" envconfig:"NUMERIC_INTEGRATION"`
	DomainPolicy       string        `yaml:"domain_policy" envconfig:"DOMAIN_POLICY"`
	StrictVariables    bool          `yaml:"strict_variables" envconfig:"STRICT_VARIABLES"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"HOST"`
	Port         int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`

	// RateLimit is requests per second across all clients. Zero disables
	// limiting.
	RateLimit float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Burst     int     `yaml:"burst" envconfig:"BURST"`

	// BatchConcurrency bounds the parallel calls of one /batch request.
	BatchConcurrency int `yaml:"batch_concurrency" envconfig:"BATCH_CONCURRENCY"`
	MaxBatch         int `yaml:"max_batch" envconfig:"MAX_BATCH"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// MCPConfig holds MCP server configuration.
type MCPConfig struct {
	// Transport is "stdio" or "sse".
	Transport string `yaml:"transport" envconfig:"TRANSPORT"`
	// Addr is the listen address of the SSE transport.
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

// Default returns default configuration.
func Default() *Config {
	calc := latexcalc.DefaultConfig()
	return &Config{
		Engine: EngineConfig{
			Precision:          calc.Precision,
			Timeout:            calc.Timeout,
			NumericSolve:       calc.NumericSolve,
			NumericRange:       calc.NumericRange,
			Tolerance:          calc.Tolerance,
			MaxIterations:      calc.MaxIterations,
			NumericIntegration: calc.AllowNumericIntegration,
			DomainPolicy:       calc.DomainPolicy,
			StrictVariables:    calc.StrictVariables,
		},
		Logging: logging.DefaultConfig(),
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      10 * time.Second,
			WriteTimeout:     30 * time.Second,
			MaxBodyBytes:     1 << 20,
			RateLimit:        50,
			Burst:            100,
			BatchConcurrency: 4,
			MaxBatch:         64,
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Addr:      "localhost:8081",
		},
	}
}

// Load reads the environment on top of Default.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads path (skipped when empty), then the environment, on top of
// Default. The result is validated.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or returns Default on any error.
func LoadOrDefault(path string) *Config {
	cfg, err := LoadFile(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// Calculator converts the engine section for latexcalc.New.
func (c *Config) Calculator() latexcalc.Config {
	e := c.Engine
	return latexcalc.Config{
		Precision:               e.Precision,
		Timeout:                 e.Timeout,
		NumericSolve:            e.NumericSolve,
		NumericRange:            e.NumericRange,
		Tolerance:               e.Tolerance,
		MaxIterations:           e.MaxIterations,
		AllowNumericIntegration: e.NumericIntegration,
		DomainPolicy:            e.DomainPolicy,
		StrictVariables:         e.StrictVariables,
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Calculator().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("engine: %w", err))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server: port %d out of range", c.Server.Port))
	}
	if c.Server.RateLimit < 0 || c.Server.Burst < 0 {
		errs = append(errs, errors.New("server: rate limit and burst must not be negative"))
	}
	if c.Server.RateLimit > 0 && c.Server.Burst == 0 {
		errs = append(errs, errors.New("server: a rate limit needs a burst of at least 1"))
	}
	if c.Server.BatchConcurrency < 1 || c.Server.MaxBatch < 1 {
		errs = append(errs, errors.New("server: batch concurrency and max batch must be positive"))
	}
	if c.Server.MaxBodyBytes < 1 {
		errs = append(errs, errors.New("server: max body bytes must be positive"))
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		errs = append(errs, fmt.Errorf("mcp: unknown transport %q", c.MCP.Transport))
	}
	return errors.Join(errs...)
}

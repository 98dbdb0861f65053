package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// FileName is the default configuration file name.
const FileName = "conciliar.yaml"

// EnvPrefix prefixes environment overrides, e.g. CONCILIAR_PORT.
const EnvPrefix = "conciliar"

// Config represents the top-level conciliar.yaml configuration.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Server    ServerConfig    `yaml:"server"`
	History   HistoryConfig   `yaml:"history"`
	Log       LogConfig       `yaml:"log"`
}

// InputConfig names the default export files for batch runs.
type InputConfig struct {
	BankFile   string `yaml:"bank_file"`
	SystemFile string `yaml:"system_file"`
}

// OutputConfig names the default report location.
type OutputConfig struct {
	ReportFile string `yaml:"report_file"`
	WriteCSV   bool   `yaml:"write_csv"`
}

// ReconcileConfig tunes normalization.
type ReconcileConfig struct {
	AmountScale int32 `yaml:"amount_scale"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port           int             `yaml:"port"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	MaxUploadMB    int64           `yaml:"max_upload_mb"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig limits uploads per client. Zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// HistoryConfig controls the run history database. Empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `yaml:"level"`
}

// envOverrides lists the settings that may come from the environment.
type envOverrides struct {
	Port        *int     `envconfig:"PORT"`
	MaxUploadMB *int64   `envconfig:"MAX_UPLOAD_MB"`
	RateRPS     *float64 `envconfig:"RATE_LIMIT_RPS"`
	RateBurst   *int     `envconfig:"RATE_LIMIT_BURST"`
	AmountScale *int32   `envconfig:"AMOUNT_SCALE"`
	HistoryPath *string  `envconfig:"HISTORY_PATH"`
	LogLevel    *string  `envconfig:"LOG_LEVEL"`
	Origins     []string `envconfig:"ALLOWED_ORIGINS"`
}

// Load reads a conciliar.yaml file from disk. A missing file yields Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overlays CONCILIAR_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	if env.Port != nil {
		cfg.Server.Port = *env.Port
	}
	if env.MaxUploadMB != nil {
		cfg.Server.MaxUploadMB = *env.MaxUploadMB
	}
	if env.RateRPS != nil {
		cfg.Server.RateLimit.RPS = *env.RateRPS
	}
	if env.RateBurst != nil {
		cfg.Server.RateLimit.Burst = *env.RateBurst
	}
	if env.AmountScale != nil {
		cfg.Reconcile.AmountScale = *env.AmountScale
	}
	if env.HistoryPath != nil {
		cfg.History.Path = *env.HistoryPath
	}
	if env.LogLevel != nil {
		cfg.Log.Level = *env.LogLevel
	}
	if len(env.Origins) > 0 {
		cfg.Server.AllowedOrigins = env.Origins
	}
	return nil
}

// Validate checks the configuration for values the tool cannot run with.
func (c *Config) Validate() error {
	return validation.Errors{
		"reconcile.amount_scale": validation.Validate(c.Reconcile.AmountScale, validation.Required, validation.Min(int32(2)), validation.Max(int32(6))),
		"server.port":            validation.Validate(c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		"server.max_upload_mb":   validation.Validate(c.Server.MaxUploadMB, validation.Required, validation.Min(int64(1))),
		"server.rate_limit.rps":  validation.Validate(c.Server.RateLimit.RPS, validation.Min(0.0)),
		"log.level":              validation.Validate(c.Log.Level, validation.In("debug", "info", "warn", "error")),
	}.Filter()
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			BankFile:   "data/input/extrato_banco.xlsx",
			SystemFile: "data/input/dados_sistema.xlsx",
		},
		Output: OutputConfig{
			ReportFile: "data/output/relatorio_conciliacao_completa.xlsx",
		},
		Reconcile: ReconcileConfig{
			AmountScale: 2,
		},
		Server: ServerConfig{
			Port:           3001,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			MaxUploadMB:    10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

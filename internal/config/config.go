// Package config provides configuration management for calagent.
// Configuration is loaded from ~/.config/calagent/config.yaml (or a TOML file
// given explicitly) with sensible defaults. A .env file in the working
// directory is read first so that secrets can stay out of the config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pearcec/calagent/internal/normalize"
)

// Config holds the calagent configuration.
type Config struct {
	Timezone   string         `yaml:"timezone" toml:"timezone"`
	CalendarID string         `yaml:"calendar_id" toml:"calendar_id"`
	Google     GoogleConfig   `yaml:"google" toml:"google"`
	Gemini     GeminiConfig   `yaml:"gemini" toml:"gemini"`
	Server     ServerConfig   `yaml:"server" toml:"server"`
	Log        LogConfig      `yaml:"log" toml:"log"`
	Briefing   BriefingConfig `yaml:"briefing" toml:"briefing"`
}

// GoogleConfig holds OAuth and token storage settings.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file" toml:"credentials_file"`
	TokenFile       string `yaml:"token_file" toml:"token_file"`
	// TokenStore is "file" or "sqlite".
	TokenStore   string `yaml:"token_store" toml:"token_store"`
	TokenDB      string `yaml:"token_db" toml:"token_db"`
	Account      string `yaml:"account" toml:"account"`
	CallbackPort int    `yaml:"callback_port" toml:"callback_port"`
}

// GeminiConfig holds generative AI settings.
type GeminiConfig struct {
	APIKey       string `yaml:"api_key" toml:"api_key"`
	Model        string `yaml:"model" toml:"model"`
	AnalysisDays int    `yaml:"analysis_days" toml:"analysis_days"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen      string   `yaml:"listen" toml:"listen"`
	CORSOrigins []string `yaml:"cors_origins" toml:"cors_origins"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// BriefingConfig controls the scheduled daily briefing.
type BriefingConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Schedule  string `yaml:"schedule" toml:"schedule"`
	Question  string `yaml:"question" toml:"question"`
	OutputDir string `yaml:"output_dir" toml:"output_dir"`
}

const (
	// DefaultConfigPath is the default location for the config file.
	DefaultConfigPath = "~/.config/calagent/config.yaml"

	DefaultCalendarID      = "primary"
	DefaultCredentialsFile = "credentials.json"
	DefaultTokenFile       = "token.json"
	DefaultTokenDB         = "calagent.db"
	DefaultAccount         = "default"
	DefaultCallbackPort    = 8080
	DefaultModel           = "gemini-2.0-flash"
	DefaultAnalysisDays    = 30
	DefaultListen          = "0.0.0.0:8090"
	DefaultSchedule        = "0 7 * * *"
	DefaultQuestion        = "Give me a short briefing of my day: what is coming up and where are my free slots?"
	DefaultBriefingDir     = "./briefings"
)

var (
	globalConfig *Config
	configOnce   sync.Once
	configErr    error
)

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		Timezone:   normalize.DefaultZone,
		CalendarID: DefaultCalendarID,
		Google: GoogleConfig{
			CredentialsFile: DefaultCredentialsFile,
			TokenFile:       DefaultTokenFile,
			TokenStore:      "file",
			TokenDB:         DefaultTokenDB,
			Account:         DefaultAccount,
			CallbackPort:    DefaultCallbackPort,
		},
		Gemini: GeminiConfig{
			Model:        DefaultModel,
			AnalysisDays: DefaultAnalysisDays,
		},
		Server: ServerConfig{
			Listen:      DefaultListen,
			CORSOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Briefing: BriefingConfig{
			Schedule:  DefaultSchedule,
			Question:  DefaultQuestion,
			OutputDir: DefaultBriefingDir,
		},
	}
}

// Load loads the configuration from the default path.
// It returns the cached config on subsequent calls.
func Load() (*Config, error) {
	configOnce.Do(func() {
		globalConfig, configErr = LoadFrom(DefaultConfigPath)
	})
	return globalConfig, configErr
}

// LoadFrom loads configuration from a specific file path. A missing file is
// not an error; defaults and environment overrides still apply.
func LoadFrom(path string) (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	cfg := Default()

	expandedPath := ExpandPath(path)
	data, err := os.ReadFile(expandedPath)
	switch {
	case err == nil:
		if err := decode(expandedPath, data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", expandedPath, err)
		}
	case os.IsNotExist(err):
		// Config file doesn't exist - use defaults
	default:
		return nil, err
	}

	applyEnv(cfg)
	fillDefaults(cfg)

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnv overlays environment variables on the loaded file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.Google.CredentialsFile = v
	}
	if v := os.Getenv("CALAGENT_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("CALAGENT_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
}

// fillDefaults restores defaults for keys the file set to empty values.
func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.Timezone == "" {
		cfg.Timezone = def.Timezone
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = def.CalendarID
	}
	if cfg.Google.CredentialsFile == "" {
		cfg.Google.CredentialsFile = def.Google.CredentialsFile
	}
	if cfg.Google.TokenFile == "" {
		cfg.Google.TokenFile = def.Google.TokenFile
	}
	if cfg.Google.TokenStore == "" {
		cfg.Google.TokenStore = def.Google.TokenStore
	}
	if cfg.Google.TokenDB == "" {
		cfg.Google.TokenDB = def.Google.TokenDB
	}
	if cfg.Google.Account == "" {
		cfg.Google.Account = def.Google.Account
	}
	if cfg.Google.CallbackPort == 0 {
		cfg.Google.CallbackPort = def.Google.CallbackPort
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = def.Gemini.Model
	}
	if cfg.Gemini.AnalysisDays <= 0 {
		cfg.Gemini.AnalysisDays = def.Gemini.AnalysisDays
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = def.Server.Listen
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = def.Server.CORSOrigins
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Briefing.Schedule == "" {
		cfg.Briefing.Schedule = def.Briefing.Schedule
	}
	if cfg.Briefing.Question == "" {
		cfg.Briefing.Question = def.Briefing.Question
	}
	if cfg.Briefing.OutputDir == "" {
		cfg.Briefing.OutputDir = def.Briefing.OutputDir
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := normalize.LoadZone(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	switch c.Google.TokenStore {
	case "file", "sqlite":
	default:
		return fmt.Errorf("google.token_store must be file or sqlite, got %q", c.Google.TokenStore)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Google.CallbackPort < 1 || c.Google.CallbackPort > 65535 {
		return fmt.Errorf("google.callback_port out of range: %d", c.Google.CallbackPort)
	}
	return nil
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// ResetForTesting resets the global config state. Only use in tests.
func ResetForTesting() {
	configOnce = sync.Once{}
	globalConfig = nil
	configErr = nil
}

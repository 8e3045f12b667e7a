package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all journal configuration.
type Config struct {
	Name string `yaml:"name"`

	// Local flat-file storage
	Journal JournalConfig `yaml:"journal"`

	// Checkbox tag files
	Tags TagsConfig `yaml:"tags"`

	// Remote spreadsheet sync
	Sheets SheetsConfig `yaml:"sheets"`

	// Generative-text analysis
	LLM LLMConfig `yaml:"llm"`

	// Web server
	Server ServerConfig `yaml:"server"`

	Logging LoggingConfig `yaml:"logging"`
}

// JournalConfig configures the CSV store and its JSON mirror.
type JournalConfig struct {
	CSVPath  string `yaml:"csv_path"`
	JSONPath string `yaml:"json_path"`
	// Number of days (today included) the entry date may go back.
	DateWindowDays int `yaml:"date_window_days"`
}

// TagsConfig lists the three tag files, one tag per line.
type TagsConfig struct {
	Emotions      string `yaml:"emotions"`
	Coping        string `yaml:"coping"`
	AfterEmotions string `yaml:"after_emotions"`
	Watch         bool   `yaml:"watch"`
}

// SheetsConfig configures the Sync Adapter.
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	SpreadsheetURL  string `yaml:"spreadsheet_url"`
	Worksheet       string `yaml:"worksheet"`
	CredentialsFile string `yaml:"credentials_file"` // service account JSON
	ReadBeforeClear bool   `yaml:"read_before_clear"`
	Timeout         string `yaml:"timeout"`
}

// LLMConfig configures the analysis model.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	SanitizeAnalysis bool   `yaml:"sanitize_analysis"`
	ReadTimeout      string `yaml:"read_timeout"`
	WriteTimeout     string `yaml:"write_timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // console, json
	File       string          `yaml:"file"`
	AuditFile  string          `yaml:"audit_file"` // JSON lines; empty disables
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "habit-journal",

		Journal: JournalConfig{
			CSVPath:        "journal.csv",
			JSONPath:       "journal.json",
			DateWindowDays: 7,
		},

		Tags: TagsConfig{
			Emotions:      "emotions.md",
			Coping:        "cope.md",
			AfterEmotions: "after_emotions.md",
			Watch:         true,
		},

		Sheets: SheetsConfig{
			Enabled:   true,
			Worksheet: "Journal",
			Timeout:   "60s",
		},

		LLM: LLMConfig{
			Model:   "gemini-2.5-flash",
			Timeout: "120s",
		},

		Server: ServerConfig{
			Addr:         ":8501",
			ReadTimeout:  "15s",
			WriteTimeout: "180s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults plus environment when the file doesn't exist
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// GEMINI_API_KEY wins over the generic Google key
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}

	if url := os.Getenv("JOURNAL_SPREADSHEET_URL"); url != "" {
		c.Sheets.SpreadsheetURL = url
	}
	if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		c.Sheets.CredentialsFile = path
	}

	if addr := os.Getenv("JOURNAL_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("JOURNAL_CSV"); path != "" {
		c.Journal.CSVPath = path
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 120*time.Second)
}

// GetSyncTimeout returns the spreadsheet sync timeout as a duration.
func (c *Config) GetSyncTimeout() time.Duration {
	return parseDuration(c.Sheets.Timeout, 60*time.Second)
}

// GetReadTimeout returns the HTTP read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout. It has to cover a
// submission followed by a full sheet sync.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 180*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ValidLogLevels lists the accepted logging.level values.
var ValidLogLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Journal.CSVPath) == "" {
		return fmt.Errorf("journal.csv_path is required")
	}
	if c.Journal.DateWindowDays < 1 {
		return fmt.Errorf("journal.date_window_days must be at least 1, got %d", c.Journal.DateWindowDays)
	}

	if c.Sheets.Enabled {
		if c.Sheets.Worksheet == "" {
			return fmt.Errorf("sheets.worksheet is required when sync is enabled")
		}
		if c.Sheets.SpreadsheetURL == "" {
			return fmt.Errorf("sheets.spreadsheet_url not configured (set JOURNAL_SPREADSHEET_URL or disable sheets)")
		}
		if c.Sheets.CredentialsFile == "" {
			return fmt.Errorf("sheets.credentials_file not configured (set GOOGLE_APPLICATION_CREDENTIALS or disable sheets)")
		}
	}

	if c.Logging.Level != "" {
		valid := false
		for _, l := range ValidLogLevels {
			if strings.EqualFold(c.Logging.Level, l) {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
		}
	}

	return nil
}

// IsAnalysisEnabled reports whether an LLM key is available.
func (c *Config) IsAnalysisEnabled() bool {
	return c.LLM.APIKey != ""
}

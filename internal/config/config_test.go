package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "JOURNAL_SPREADSHEET_URL",
		"GOOGLE_APPLICATION_CREDENTIALS", "JOURNAL_ADDR", "JOURNAL_CSV",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Journal.CSVPath != "journal.csv" {
		t.Errorf("expected CSVPath=journal.csv, got %s", cfg.Journal.CSVPath)
	}
	if cfg.Journal.JSONPath != "journal.json" {
		t.Errorf("expected JSONPath=journal.json, got %s", cfg.Journal.JSONPath)
	}
	if cfg.Sheets.Worksheet != "Journal" {
		t.Errorf("expected Worksheet=Journal, got %s", cfg.Sheets.Worksheet)
	}
	if cfg.Sheets.ReadBeforeClear {
		t.Error("expected ReadBeforeClear=false by default")
	}
	if cfg.Tags.Coping != "cope.md" {
		t.Errorf("expected Coping=cope.md, got %s", cfg.Tags.Coping)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "journal.yaml")

	cfg := DefaultConfig()
	cfg.Sheets.SpreadsheetURL = "https://docs.google.com/spreadsheets/d/abc/edit"
	cfg.Sheets.ReadBeforeClear = true
	cfg.LLM.Model = "gemini-2.5-pro"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Sheets.SpreadsheetURL != cfg.Sheets.SpreadsheetURL {
		t.Errorf("expected SpreadsheetURL=%s, got %s", cfg.Sheets.SpreadsheetURL, loaded.Sheets.SpreadsheetURL)
	}
	if !loaded.Sheets.ReadBeforeClear {
		t.Error("expected ReadBeforeClear=true after round trip")
	}
	if loaded.LLM.Model != "gemini-2.5-pro" {
		t.Errorf("expected Model=gemini-2.5-pro, got %s", loaded.LLM.Model)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8501" {
		t.Errorf("expected default addr, got %s", cfg.Server.Addr)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "journal.yaml")
	if err := os.WriteFile(path, []byte("journal:\n  csv_path: data/entries.csv\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Journal.CSVPath != "data/entries.csv" {
		t.Errorf("expected overridden csv path, got %s", cfg.Journal.CSVPath)
	}
	if cfg.Journal.JSONPath != "journal.json" {
		t.Errorf("expected default json path, got %s", cfg.Journal.JSONPath)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.yaml")
	if err := os.WriteFile(path, []byte("journal: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	// Sync is on by default but has no spreadsheet yet
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing spreadsheet url")
	}

	cfg.Sheets.SpreadsheetURL = "https://docs.google.com/spreadsheets/d/abc"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing credentials")
	}

	cfg.Sheets.CredentialsFile = "sa.json"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for log level")
	}

	cfg = DefaultConfig()
	cfg.Sheets.Enabled = false
	cfg.Journal.CSVPath = " "
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty csv path")
	}
}

func TestConfig_Timeouts(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GetLLMTimeout(); got != 120*time.Second {
		t.Errorf("expected 120s, got %v", got)
	}

	cfg.Sheets.Timeout = "garbage"
	if got := cfg.GetSyncTimeout(); got != 60*time.Second {
		t.Errorf("expected fallback 60s, got %v", got)
	}

	cfg.Server.WriteTimeout = "-5s"
	if got := cfg.GetWriteTimeout(); got != 180*time.Second {
		t.Errorf("expected fallback 180s, got %v", got)
	}
}

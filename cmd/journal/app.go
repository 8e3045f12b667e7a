package main

import (
	"context"
	"fmt"

	"habitjournal/internal/analysis"
	"habitjournal/internal/config"
	"habitjournal/internal/journal"
	"habitjournal/internal/logging"
	"habitjournal/internal/sheets"
	"habitjournal/internal/tags"
)

func newStore(c *config.Config) *journal.Store {
	s := journal.NewStore(c.Journal.CSVPath, c.Journal.JSONPath)
	logging.Boot("journal file: %s", s.Path())
	return s
}

func newCatalog(c *config.Config) *tags.Catalog {
	return tags.NewCatalog(map[tags.Group]string{
		tags.GroupEmotions:      c.Tags.Emotions,
		tags.GroupCoping:        c.Tags.Coping,
		tags.GroupAfterEmotions: c.Tags.AfterEmotions,
	})
}

// newSyncer builds the Sync Adapter. With sheets disabled the syncer reports
// every sync as not configured.
func newSyncer(ctx context.Context, c *config.Config, src sheets.Source) (*sheets.Syncer, error) {
	opts := sheets.Options{
		SpreadsheetURL:  c.Sheets.SpreadsheetURL,
		Worksheet:       c.Sheets.Worksheet,
		ReadBeforeClear: c.Sheets.ReadBeforeClear,
		Timeout:         c.GetSyncTimeout(),
	}
	if !c.Sheets.Enabled {
		logging.Boot("sheets sync disabled")
		return sheets.NewSyncer(nil, src, opts), nil
	}

	opener, err := sheets.NewGoogleOpener(ctx, c.Sheets.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	logging.Boot("sheets sync to worksheet %q enabled", opts.Worksheet)
	return sheets.NewSyncer(opener, src, opts), nil
}

// newAnalyzer returns nil without an error when no API key is configured.
func newAnalyzer(ctx context.Context, c *config.Config) (analysis.Analyzer, error) {
	if !c.IsAnalysisEnabled() {
		logging.Boot("analysis disabled: no API key")
		return nil, nil
	}
	a, err := analysis.NewGeminiAnalyzer(ctx, analysis.Config{
		APIKey:  c.LLM.APIKey,
		Model:   c.LLM.Model,
		Timeout: c.GetLLMTimeout(),
	})
	if err != nil {
		return nil, err
	}
	logging.Boot("analysis enabled with model %s", a.Model())
	return a, nil
}

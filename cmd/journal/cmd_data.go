package main

import (
	"errors"
	"fmt"

	"habitjournal/internal/analysis"
	"habitjournal/internal/dashboard"
	"habitjournal/internal/journal"
	"habitjournal/internal/tags"

	"github.com/spf13/cobra"
)

var (
	statsWidth    int
	statsFilter   string
	analyzeStyle  string
	analyzeWidth  int
	analyzeRawOut bool
)

// syncCmd runs the Sync Adapter once
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the local journal to the Google Sheets worksheet",
	Long: `Clears the configured worksheet, merges its rows with the local CSV
and writes the result back. Exits non-zero when the sync fails.`,
	RunE: runSync,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the local journal file",
	RunE:  runClear,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Ask Gemini for insights on the whole journal",
	RunE:  runAnalyze,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the dashboard charts in the terminal",
	RunE:  runStats,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the labels parsed from the tag files",
	RunE:  runTags,
}

func init() {
	statsCmd.Flags().IntVar(&statsWidth, "width", 40, "Width of the longest bar")
	statsCmd.Flags().StringVar(&statsFilter, "emotion", "", "Emotion Before value to list (default: first seen)")

	analyzeCmd.Flags().StringVar(&analyzeStyle, "style", "", "glamour style (dark, light, notty); empty picks one")
	analyzeCmd.Flags().IntVar(&analyzeWidth, "width", 80, "Word wrap width")
	analyzeCmd.Flags().BoolVar(&analyzeRawOut, "raw", false, "Print the model output without rendering")
}

func runSync(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := commandContext(cmd)
	defer stop()

	syncer, err := newSyncer(ctx, cfg, newStore(cfg))
	if err != nil {
		return err
	}

	res := syncer.Sync(ctx)
	if !res.OK() {
		return errors.New(res.Message())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d rows)\n", res.Message(), res.Rows)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	err := newStore(cfg).Clear()
	switch {
	case errors.Is(err, journal.ErrNoData):
		fmt.Fprintln(cmd.OutOrStdout(), "No data to clear")
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Data cleared successfully")
	return nil
}

func loadOrNotice(cmd *cobra.Command) (*journal.Table, bool, error) {
	t, err := newStore(cfg).Load()
	if errors.Is(err, journal.ErrNoData) {
		fmt.Fprintln(cmd.OutOrStdout(), "No data available")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	t, ok, err := loadOrNotice(cmd)
	if err != nil || !ok {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	a, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}
	if a == nil {
		return analysis.ErrNotConfigured
	}

	text, err := a.Analyze(ctx, t)
	if err != nil {
		return err
	}
	if analyzeRawOut {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}

	out, err := dashboard.RenderMarkdown(text, analyzeWidth, analyzeStyle)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	t, ok, err := loadOrNotice(cmd)
	if err != nil || !ok {
		return err
	}

	styles := dashboard.DefaultStyles()
	sum := dashboard.Build(t, statsFilter)

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, dashboard.RenderSummary(sum, statsWidth, styles))
	if len(sum.EmotionOptions) > 0 {
		fmt.Fprintln(w, styles.Title.Render(fmt.Sprintf("Emotion Before: %s", sum.EmotionFilter)))
		fmt.Fprint(w, dashboard.RenderTable(sum.Filtered, styles))
	}
	return nil
}

func runTags(cmd *cobra.Command, args []string) error {
	catalog := newCatalog(cfg)
	if err := catalog.Reload(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, g := range tags.Groups {
		labels := catalog.Labels(g)
		fmt.Fprintf(w, "%s (%d)\n", g.Title(), len(labels))
		for _, l := range labels {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"habitjournal/internal/config"
	"habitjournal/internal/logging"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Loaded by the root command before any sub-command runs
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "Habit journal - record entries, sync them to a spreadsheet, chart them",
	Long: `journal keeps a personal habit journal in a local CSV file.

Entries are recorded through a small web page (journal serve). Each new entry
is mirrored to journal.json and pushed to a Google Sheets worksheet. The
dashboard charts urge intensity, time of day and coping mechanism scores,
and a Gemini model can summarise the whole journal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}

		if err := logging.Initialize(logging.Options{
			Level:      loaded.Logging.Level,
			Format:     loaded.Logging.Format,
			Categories: loaded.Logging.Categories,
			OutputPath: loaded.Logging.File,
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if err := logging.InitAudit(loaded.Logging.AuditFile); err != nil {
			return err
		}

		cfg = loaded
		logging.Boot("config loaded from %s", configPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAudit()
		_ = logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "journal.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"cmdbar/internal/config"
	"cmdbar/internal/logging"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	configPath string
	pathPrefix string

	// Per-line flags
	fromURL string
	actorID string
	confirm bool

	historyLimit int

	// cfg is loaded before every command runs.
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cmdbar",
	Short: "cmdbar - command bar for an issue tracker",
	Long: `cmdbar resolves a line typed into an issue tracker's command bar into
commands and runs them against the tracker.

Lines are matched against a fixed slash-command grammar first (/assign,
/close, /tag, #tag, @person, item ids). Anything the grammar cannot place is
translated by a language model into list filters and grammar commands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		if pathPrefix != "" {
			loaded.Store.PathPrefix = pathPrefix
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}
		if err := logging.Initialize(loaded.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		logging.BootDebug("Loaded config %s (provider %s, cache %s)", configPath, cfg.LLM.Provider, cfg.Cache.Backend)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().StringVar(&pathPrefix, "prefix", "", "Tenant path prefix (or set CMDBAR_PATH_PREFIX env)")

	for _, c := range []*cobra.Command{runCmd, parseCmd, translateCmd} {
		c.Flags().StringVar(&fromURL, "from", "/items", "URL the line was typed on")
		c.Flags().StringVar(&actorID, "as", "", "Id of the person typing (default: first person in the world)")
	}
	runCmd.Flags().BoolVarP(&confirm, "confirm", "y", false, "Confirm commands that affect several items")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().StringVar(&actorID, "as", "", "Only show lines typed by this person")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

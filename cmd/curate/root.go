// ABOUTME: Root Cobra command and global flags for the curate CLI.
// ABOUTME: Loads config, sets up logging, and opens the playbook store and embedding provider.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389-research/curate/internal/config"
	"github.com/2389-research/curate/internal/embeddings"
	"github.com/2389-research/curate/internal/logging"
	"github.com/2389-research/curate/internal/storage"
)

var globalStore storage.PlaybookStore
var globalProvider embeddings.Provider

var (
	flagLogLevel  string
	flagLogFormat string
	flagPlaybook  string
)

var rootCmd = &cobra.Command{
	Use:   "curate",
	Short: "Semantic deduplication for agent playbooks",
	Long: `
 ██████╗██╗   ██╗██████╗  █████╗ ████████╗███████╗
██╔════╝██║   ██║██╔══██╗██╔══██╗╚══██╔══╝██╔════╝
██║     ██║   ██║██████╔╝███████║   ██║   █████╗
██║     ██║   ██║██╔══██╗██╔══██║   ██║   ██╔══╝
╚██████╗╚██████╔╝██║  ██║██║  ██║   ██║   ███████╗
 ╚═════╝ ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚══════╝

Keeps an agent's learned playbook free of near-duplicate entries.
Entries are embedded, compared by cosine similarity, and merged.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(flagLogLevel)
		if err != nil {
			return err
		}
		logging.Init(level, flagLogFormat, cmd.ErrOrStderr())

		if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "setup" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.ApplyEnv()

		path := flagPlaybook
		if path != "" {
			path, err = config.ExpandPath(path)
		} else {
			path, err = cfg.GetPlaybookPath()
		}
		if err != nil {
			return fmt.Errorf("failed to resolve playbook path: %w", err)
		}
		globalStore = storage.NewJSONStore(path)
		globalProvider = embeddings.NewProvider(cfg.Embedding)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&flagPlaybook, "playbook", "", "playbook file (default <project>/.claude/playbook.json)")
}

// ABOUTME: Cobra command for interactive embedding endpoint setup.
// ABOUTME: Launches a bubbletea TUI wizard to collect and validate endpoint settings.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/curate/internal/config"
	"github.com/2389-research/curate/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the embedding endpoint",
	Long:  "Interactive wizard to configure the OpenAI-compatible embedding endpoint used for deduplication.",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	model := tui.NewSetupModel(
		cfg.Embedding.BaseURL,
		cfg.Embedding.Model,
		cfg.Embedding.APIKey,
	)

	p := tea.NewProgram(model)
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Println("Setup cancelled.")
		return nil
	}

	baseURL, embedModel, apiKey := final.Result()
	applySetup(cfg, baseURL, embedModel, apiKey)

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Println("Config saved successfully.")
	} else {
		fmt.Printf("Config saved to %s\n", configPath)
	}
	return nil
}

// applySetup copies wizard results into cfg. A key implies a hosted OpenAI
// endpoint; without one the endpoint is treated as Ollama.
func applySetup(cfg *config.Config, baseURL, model, apiKey string) {
	cfg.Embedding.BaseURL = baseURL
	cfg.Embedding.Model = model
	cfg.Embedding.APIKey = apiKey
	// A different model may produce a different vector size.
	cfg.Embedding.Dimensions = 0
	if apiKey != "" {
		cfg.Embedding.Provider = config.ProviderOpenAI
	} else {
		cfg.Embedding.Provider = config.ProviderOllama
	}
}

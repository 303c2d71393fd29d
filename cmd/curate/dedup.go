// ABOUTME: Dedup command that merges semantically similar playbook entries.
// ABOUTME: Supports a threshold override and a dry run that never writes the file.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389-research/curate/internal/dedup"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Merge near-duplicate playbook entries",
	Long: `Embed every entry in the canonical playbook sections, group entries whose
cosine similarity meets the threshold, and merge each group into its earliest
entry. Counters are summed onto the survivor.

The threshold defaults to $AGENTIC_CONTEXT_DEDUP_THRESHOLD, then 0.85.`,
	RunE: runDedup,
}

func init() {
	dedupCmd.Flags().Float64P("threshold", "t", dedup.DefaultThreshold, "cosine similarity threshold in [0, 1]")
	dedupCmd.Flags().BoolP("dry-run", "n", false, "show what would be merged without saving")
	rootCmd.AddCommand(dedupCmd)
}

func runDedup(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var threshold *float64
	if cmd.Flags().Changed("threshold") {
		t, _ := cmd.Flags().GetFloat64("threshold")
		threshold = &t
	}

	pb, err := globalStore.Load()
	if err != nil {
		return fmt.Errorf("failed to load playbook: %w", err)
	}

	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintln(out, color.YellowString("DRY RUN MODE - playbook will not be saved"))
		pb = pb.Clone()
	}

	engine := dedup.New(globalProvider)
	pb, report := engine.RunWithReport(cmd.Context(), pb, threshold)

	switch {
	case report.State == dedup.StateDegraded:
		fmt.Fprintln(out, color.YellowString(report.Summary()))
	case report.Removed > 0:
		fmt.Fprintln(out, color.GreenString(report.Summary()))
	default:
		fmt.Fprintln(out, report.Summary())
	}

	if dryRun || report.State != dedup.StateDone || report.Removed == 0 {
		return nil
	}

	if err := globalStore.Save(pb); err != nil {
		return fmt.Errorf("failed to save playbook: %w", err)
	}
	fmt.Fprintf(out, "Saved %s\n", globalStore.Path())
	return nil
}

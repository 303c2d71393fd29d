// ABOUTME: Show command that prints the playbook in canonical section order.
// ABOUTME: Optionally restricts output to one section by name or slug.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389-research/curate/internal/models"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the playbook",
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringP("section", "s", "", "section name or slug (pat, mis, pref, ctx, oth)")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	section, _ := cmd.Flags().GetString("section")
	if section != "" {
		name, ok := models.ResolveSection(section)
		if !ok {
			return fmt.Errorf("unknown section: %s", section)
		}
		section = name
	}

	pb, err := globalStore.Load()
	if err != nil {
		return fmt.Errorf("failed to load playbook: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), models.Format(pb, section))
	return nil
}

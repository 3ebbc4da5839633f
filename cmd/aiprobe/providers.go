package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/metalagman/aiprobe/internal/probe"
	"github.com/spf13/cobra"
)

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported providers with their reference endpoint and model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.New().Headers("PROVIDER", "ENDPOINT", "MODEL")
			for _, info := range probe.Catalog() {
				t.Row(info.Provider.String(), info.Endpoint, info.Model)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
}

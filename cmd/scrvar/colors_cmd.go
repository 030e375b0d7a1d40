package main

import (
	"fmt"
	"sort"

	"github.com/deepnoodle-ai/scrvar/chat"
	"github.com/spf13/cobra"
)

func newColorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "colors <file>",
		Short: "Load a chat name color file and print the resulting table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := chat.LoadColors(args[0])
			if err != nil {
				return err
			}
			names := table.Names()
			if wantJSON() {
				return writeJSON(cmd.OutOrStdout(), names)
			}
			sorted := make([]string, 0, len(names))
			for name := range names {
				sorted = append(sorted, name)
			}
			sort.Strings(sorted)
			for _, name := range sorted {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", names[name], bold(name))
			}
			return nil
		},
	}
}

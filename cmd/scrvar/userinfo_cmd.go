package main

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/scrvar/chat"
	"github.com/spf13/cobra"
)

func newUserinfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   `userinfo <\key\value...>`,
		Short: "Apply userinfo overrides to a raw userinfo string",
		Long: "Applies --set key=value overrides to a userinfo string the way the\n" +
			"chat component does for a client. An empty value removes the key.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, err := cmd.Flags().GetStringArray("set")
			if err != nil {
				return err
			}
			overrides := chat.NewOverrides()
			for _, s := range sets {
				k, v, ok := cutPair(s)
				if !ok {
					return fmt.Errorf("invalid override %q (want key=value)", s)
				}
				overrides.Set(0, k, v)
			}
			result := overrides.Apply(0, args[0])
			if wantJSON() {
				info := chat.ParseUserinfo(result)
				fields := map[string]string{}
				for _, k := range info.Keys() {
					fields[k], _ = info.Get(k)
				}
				return writeJSON(cmd.OutOrStdout(), fields)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringArray("set", nil, "Override a key (key=value, repeatable)")
	return cmd
}

func cutPair(s string) (string, string, bool) {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return "", "", false
	}
	return k, v, true
}

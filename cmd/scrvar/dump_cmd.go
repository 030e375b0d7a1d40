package main

import (
	"github.com/deepnoodle-ai/scrvar/array"
	"github.com/deepnoodle-ai/scrvar/errz"
	"github.com/deepnoodle-ai/scrvar/value"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump [name=value ...]",
		Short: "Build a sample player record and print its node tree",
		Long: "Builds a nested object in a fresh store and prints the tree. Extra\n" +
			"name=value arguments are added to the record as strings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newStore()
			var player array.Array
			if err := errz.Recover(func() { player = samplePlayer(s, args) }); err != nil {
				return err
			}
			defer player.Release()
			if wantJSON() {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"node":    player.ID(),
					"inspect": player.Inspect(),
					"stats":   s.Stats(),
				})
			}
			return s.Dump(cmd.OutOrStdout(), player.ID())
		},
	}
}

func samplePlayer(s array.Store, extra []string) array.Array {
	player := array.FromMap(s, map[string]value.Value{
		"name":  value.String("DoktorSAS"),
		"score": value.Int(1250),
		"ratio": value.Float(1.75),
	})

	weapons := array.FromValues(s, []value.Value{
		value.String("ak47"),
		value.String("deserteagle"),
	})
	player.SetName("weapons", weapons.Value())
	weapons.Release()

	for _, arg := range extra {
		k, v, ok := cutPair(arg)
		if ok {
			player.SetName(k, value.String(v))
		}
	}
	return player
}

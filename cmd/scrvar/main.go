package main

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scrvar",
		Short:         "Inspect and exercise the script variable store",
		Version:       version + " (" + commit + ", " + date + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			processGlobalFlags()
		},
	}

	pf := root.PersistentFlags()
	pf.String("log-level", "warn", "Log level (trace, debug, info, warn, error)")
	pf.Bool("no-color", false, "Disable colored output")
	pf.Int("capacity", 0, "Variable store capacity in slots (0 for the default)")
	pf.StringP("output", "o", "text", "Output format (text or json)")
	for _, name := range []string{"log-level", "no-color", "capacity", "output"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}

	root.AddCommand(
		newDemoCmd(),
		newDumpCmd(),
		newColorsCmd(),
		newUserinfoCmd(),
	)
	return root
}

func init() {
	viper.SetEnvPrefix("scrvar")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no-color") || !isTerminalIO() {
		color.NoColor = true
	}
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatal(err)
	}
	os.Exit(0)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/deepnoodle-ai/scrvar/store"
	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var (
	red   = color.New(color.FgRed).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

func isTerminalIO() bool {
	stdout := os.Stdout.Fd()
	return isatty.IsTerminal(stdout) || isatty.IsCygwinTerminal(stdout)
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: color.NoColor}).
		With().Timestamp().Logger()
}

// Builds a store configured from the global flags.
func newStore() *store.Store {
	opts := []store.Option{store.WithLogger(newLogger())}
	if n := viper.GetInt("capacity"); n > 0 {
		opts = append(opts, store.WithCapacity(n))
	}
	return store.New(opts...)
}

func wantJSON() bool {
	return viper.GetString("output") == "json"
}

func writeJSON(w io.Writer, v any) error {
	var data []byte
	var err error
	if color.NoColor {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = prettyjson.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

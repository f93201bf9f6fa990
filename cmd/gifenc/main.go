// Command gifenc is a thin CLI front-end over the gifenc library: it
// decodes ordinary image files into frames, quantizes and indexes
// them, and drives the GIF89a assembler. The algorithms it calls are
// the library's; this binary only wires up file I/O, configuration,
// and logging around them.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "gifenc",
		Short:         "Encode and inspect animated GIFs",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	logger := func() zerolog.Logger {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}

	root.AddCommand(newEncodeCmd(logger))
	root.AddCommand(newInspectCmd(logger))
	return root
}

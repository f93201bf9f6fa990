package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pixelloom/gifenc/internal/giflex"
)

func newInspectCmd(logger func() zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file.gif>",
		Short: "Print the container structure of a GIF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			file, err := giflex.Parse(data)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}
			log.Debug().Int("bytes", len(data)).Msg("parsed gif")

			printFile(cmd, file)
			return nil
		},
	}
	return cmd
}

func printFile(cmd *cobra.Command, f *giflex.File) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "screen: %dx%d, color resolution %d-bit, global palette %d colors\n",
		f.Header.Width, f.Header.Height, f.Header.ColorResolution, len(f.Header.GlobalColorTable))
	if f.HasLoop {
		loop := "forever"
		if f.LoopCount != 0 {
			loop = fmt.Sprintf("%d times", f.LoopCount)
		}
		fmt.Fprintf(out, "loop: %s\n", loop)
	}
	fmt.Fprintf(out, "frames: %d\n", len(f.Frames))
	for i, fr := range f.Frames {
		fmt.Fprintf(out, "  [%d] %dx%d at (%d,%d), delay %dcs, disposal %d",
			i, fr.Width, fr.Height, fr.X, fr.Y, fr.DelayCs, fr.Disposal)
		if len(fr.LocalColorTable) > 0 {
			fmt.Fprintf(out, ", local palette %d colors", len(fr.LocalColorTable))
		}
		if fr.Transparent {
			fmt.Fprintf(out, ", transparent index %d", fr.TransparentIndex)
		}
		fmt.Fprintln(out)
	}
}

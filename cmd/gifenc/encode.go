package main

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"

	"github.com/pixelloom/gifenc"
)

func newEncodeCmd(logger func() zerolog.Logger) *cobra.Command {
	var configPath string
	var localPalettes bool

	cmd := &cobra.Command{
		Use:   "encode <output.gif> <frame1> [frame2 ...]",
		Short: "Quantize and assemble one or more frames into an animated GIF",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()
			cfg, err := loadRunConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg.LocalPalettes = cfg.LocalPalettes || localPalettes

			runID := uuid.NewString()
			log.Debug().Str("run", runID).Int("frames", len(args)-1).Msg("starting encode")

			return runEncode(log, cfg, args[0], args[1:])
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a JSON options file")
	cmd.Flags().BoolVar(&localPalettes, "local-palettes", false, "quantize each frame independently instead of sharing a global palette")
	return cmd
}

func decodeFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Decode(f)
	case ".jpg", ".jpeg":
		return jpeg.Decode(f)
	case ".bmp":
		return bmp.Decode(f)
	default:
		img, _, err := image.Decode(f)
		return img, err
	}
}

func toRGBA(img image.Image) (pix []byte, width, height int) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	pix = make([]byte, width*height*4)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bch, a := img.At(x, y).RGBA()
			pix[i] = byte(r >> 8)
			pix[i+1] = byte(g >> 8)
			pix[i+2] = byte(bch >> 8)
			pix[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return pix, width, height
}

func runEncode(log zerolog.Logger, cfg runConfig, outPath string, framePaths []string) error {
	type decoded struct {
		pix           []byte
		width, height int
	}
	frames := make([]decoded, 0, len(framePaths))
	for _, p := range framePaths {
		img, err := decodeFrame(p)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", p, err)
		}
		pix, w, h := toRGBA(img)
		frames = append(frames, decoded{pix, w, h})
		log.Debug().Str("file", p).Int("w", w).Int("h", h).Msg("decoded frame")
	}

	width, height := frames[0].width, frames[0].height

	qopts := gifenc.QuantizeOptions{
		Format:              cfg.Format,
		OneBitAlpha:         cfg.OneBitAlpha,
		ClearAlpha:          cfg.ClearAlpha,
		ClearAlphaThreshold: cfg.ClearAlphaThreshold,
	}

	var globalPalette []gifenc.Color
	if !cfg.LocalPalettes {
		palette, err := gifenc.Quantize(frames[0].pix, cfg.MaxColors, qopts)
		if err != nil {
			return fmt.Errorf("quantizing: %w", err)
		}
		globalPalette = palette
		log.Debug().Int("colors", len(palette)).Msg("built global palette")
	}

	enc := gifenc.NewGIFEncoder(width, height, gifenc.WithLogger(log))

	for idx, fr := range frames {
		palette := globalPalette
		if cfg.LocalPalettes {
			p, err := gifenc.Quantize(fr.pix, cfg.MaxColors, qopts)
			if err != nil {
				return fmt.Errorf("quantizing frame %d: %w", idx, err)
			}
			palette = p
		}

		indexed, err := gifenc.ApplyPalette(fr.pix, palette, cfg.Format)
		if err != nil {
			return fmt.Errorf("indexing frame %d: %w", idx, err)
		}

		opts := gifenc.FrameOptions{
			DelayMs:    cfg.DelayMs,
			Repeat:     cfg.Repeat,
			ColorDepth: 8,
			Dispose:    -1,
		}
		if idx == 0 || cfg.LocalPalettes {
			opts.Palette = palette
		}

		if err := enc.WriteFrame(indexed, fr.width, fr.height, opts); err != nil {
			return fmt.Errorf("writing frame %d: %w", idx, err)
		}
	}

	enc.Finish()

	if err := os.WriteFile(outPath, enc.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	log.Debug().Str("out", outPath).Int("bytes", len(enc.BytesView())).Msg("encode complete")
	return nil
}

package main

import (
	"os"

	"github.com/tidwall/gjson"

	"github.com/pixelloom/gifenc"
)

// runConfig is the CLI's encode options, optionally overridden by a
// JSON config file. Parsed with gjson rather than encoding/json so a
// partially-specified document (most fields omitted) never needs a
// pointer-heavy intermediate struct — each field is looked up by path
// with its own default.
type runConfig struct {
	MaxColors int
	Format    gifenc.Format
	Repeat    int
	DelayMs   int

	OneBitAlpha         *int
	ClearAlpha          bool
	ClearAlphaThreshold byte

	LocalPalettes bool
}

func defaultRunConfig() runConfig {
	return runConfig{
		MaxColors: 256,
		Format:    gifenc.FormatRGB565,
		Repeat:    0,
		DelayMs:   100,
	}
}

func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	doc := gjson.ParseBytes(data)

	if v := doc.Get("maxColors"); v.Exists() {
		cfg.MaxColors = int(v.Int())
	}
	if v := doc.Get("repeat"); v.Exists() {
		cfg.Repeat = int(v.Int())
	}
	if v := doc.Get("delayMs"); v.Exists() {
		cfg.DelayMs = int(v.Int())
	}
	if v := doc.Get("localPalettes"); v.Exists() {
		cfg.LocalPalettes = v.Bool()
	}
	if v := doc.Get("clearAlpha"); v.Exists() {
		cfg.ClearAlpha = v.Bool()
	}
	if v := doc.Get("clearAlphaThreshold"); v.Exists() {
		cfg.ClearAlphaThreshold = byte(v.Int())
	}
	if v := doc.Get("oneBitAlpha"); v.Exists() {
		threshold := 127
		if v.Type == gjson.Number {
			threshold = int(v.Int())
		}
		cfg.OneBitAlpha = &threshold
	}
	switch doc.Get("format").String() {
	case "rgb444":
		cfg.Format = gifenc.FormatRGB444
	case "rgba4444":
		cfg.Format = gifenc.FormatRGBA4444
	case "rgb565", "":
		cfg.Format = gifenc.FormatRGB565
	}

	return cfg, nil
}

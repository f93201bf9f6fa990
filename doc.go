// Package gifenc quantizes RGBA pixel frames to a bounded color
// palette and assembles them into a GIF89a byte stream. It covers
// three stages: Quantize (Pairwise Nearest Neighbor color reduction),
// ApplyPalette (nearest-color indexing with a packed-key cache), and
// GIFEncoder (container assembly and LZW compression). Decoding an
// existing GIF, reading image files, and orchestrating multi-frame
// animation timing are out of scope for this package; the bundled
// cmd/gifenc CLI (a thin wrapper around it) and the standalone
// internal/giflex parser cover those concerns.
package gifenc

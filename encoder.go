package gifenc

import (
	"errors"
	"math"

	"github.com/rs/zerolog"
)

// ErrMissingFirstFramePalette is returned when the first frame of an
// auto-mode (or explicitly opts.First) stream carries no palette.
var ErrMissingFirstFramePalette = errors.New("gifenc: first frame requires a palette")

// FrameOptions configures one call to GIFEncoder.WriteFrame.
type FrameOptions struct {
	// Palette is required on the first frame (global color table) and
	// optional on later frames (a non-nil, non-empty Palette on a
	// later frame becomes that frame's local color table).
	Palette []Color

	// First overrides auto-detection of whether this call should emit
	// the header/LSD/GCT/NETSCAPE2.0 preamble. Nil means "auto": true
	// only for this encoder's first WriteFrame call.
	First *bool

	Transparent      bool
	TransparentIndex int // default 0; negative forces non-transparent

	DelayMs int
	Repeat  int // -1 = no loop extension, 0 = forever, >0 = N extra iterations

	ColorDepth int // default 8
	Dispose    int // -1 = derive from transparency
}

// GIFEncoder assembles a GIF89a byte stream from pre-indexed frames.
// It is stateful: Reset, WriteHeader, WriteFrame, and Finish drive its
// lifecycle, and it owns its output Stream and LZW scratch buffers for
// reuse across frames.
type GIFEncoder struct {
	width, height int

	out *Stream
	lzw *lzwEncoder

	headerWritten bool
	screenWritten bool
	globalPalette []Color
	frameColorDepth int

	log zerolog.Logger
}

// Option configures a GIFEncoder at construction time.
type Option func(*GIFEncoder)

// WithLogger attaches a zerolog.Logger for per-frame diagnostics. The
// zero value (zerolog.Nop()) is silent; this is never required for
// correct encoding.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *GIFEncoder) { e.log = logger }
}

// NewGIFEncoder creates an encoder for a logical screen of the given
// size.
func NewGIFEncoder(width, height int, opts ...Option) *GIFEncoder {
	e := &GIFEncoder{
		width:  width,
		height: height,
		out:    NewStream(),
		lzw:    newLZWEncoder(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reset clears the output stream and marks the encoder uninitialized,
// ready to encode a new GIF from scratch. LZW scratch buffers are kept
// for reuse.
func (e *GIFEncoder) Reset() {
	e.out.Reset()
	e.headerWritten = false
	e.screenWritten = false
	e.globalPalette = nil
}

// WriteHeader writes the six-byte GIF89a signature. Callers in manual
// mode call this themselves before WriteFrame; auto mode calls it
// internally on the first WriteFrame.
func (e *GIFEncoder) WriteHeader() {
	e.out.WriteUTFBytes("GIF89a")
	e.headerWritten = true
}

// WriteFrame writes one frame: the Graphic Control Extension, Image
// Descriptor, optional Local Color Table, and LZW-compressed image
// data for indexed (one palette-index byte per pixel, width*height of
// them). On the stream's first frame — or any frame with opts.First
// explicitly true — it additionally emits the header (if not already
// written), Logical Screen Descriptor, Global Color Table, and the
// NETSCAPE2.0 loop extension when opts.Repeat >= 0.
func (e *GIFEncoder) WriteFrame(indexed []byte, width, height int, opts FrameOptions) error {
	first := !e.screenWritten
	if opts.First != nil {
		first = *opts.First
	}

	colorDepth := opts.ColorDepth
	if colorDepth == 0 {
		colorDepth = 8
	}

	if first {
		if len(opts.Palette) == 0 {
			return ErrMissingFirstFramePalette
		}
		if len(opts.Palette) > 256 {
			return ErrPaletteTooLarge
		}
		if !e.headerWritten {
			e.WriteHeader()
		}
		e.frameColorDepth = colorDepth
		e.writeLSD(opts.Palette, colorDepth)
		e.writeColorTable(opts.Palette)
		if opts.Repeat >= 0 {
			e.writeNetscapeExt(opts.Repeat)
		}
		e.globalPalette = opts.Palette
		e.screenWritten = true
	} else if len(opts.Palette) > 256 {
		return ErrPaletteTooLarge
	}

	e.log.Debug().
		Bool("first", first).
		Int("width", width).
		Int("height", height).
		Int("pixels", len(indexed)).
		Msg("writing gif frame")

	e.writeGraphicControlExt(opts)
	hasLocalPalette := !first && len(opts.Palette) > 0
	e.writeImageDescriptor(width, height, first, hasLocalPalette, opts.Palette)
	if hasLocalPalette {
		e.writeColorTable(opts.Palette)
	}

	e.lzw.encode(indexed, colorDepth, e.out)
	return nil
}

// Finish writes the GIF trailer byte.
func (e *GIFEncoder) Finish() {
	e.out.WriteByte(0x3b)
}

// Bytes returns a copy of the encoded stream so far.
func (e *GIFEncoder) Bytes() []byte {
	return e.out.Bytes()
}

// BytesView returns the encoded stream without copying; valid only
// until the next mutating call on this encoder.
func (e *GIFEncoder) BytesView() []byte {
	return e.out.BytesView()
}

func tableBitsFor(n int) int {
	if n <= 1 {
		return 1
	}
	bits := 1
	for (1 << bits) < n {
		bits++
	}
	return bits
}

func (e *GIFEncoder) writeLSD(palette []Color, colorDepth int) {
	e.out.WriteUint16(e.width)
	e.out.WriteUint16(e.height)

	gctSize := tableBitsFor(len(palette)) - 1
	e.out.WriteByte(byte(
		0x80 | // global color table flag
			(((colorDepth - 1) & 0x7) << 4) |
			gctSize,
	))
	e.out.WriteByte(0) // background color index
	e.out.WriteByte(0) // pixel aspect ratio
}

func (e *GIFEncoder) writeColorTable(palette []Color) {
	tableBits := tableBitsFor(len(palette))
	tableLen := 1 << tableBits
	for i := 0; i < tableLen; i++ {
		if i < len(palette) {
			c := palette[i]
			e.out.WriteByte(c.R)
			e.out.WriteByte(c.G)
			e.out.WriteByte(c.B)
		} else {
			e.out.WriteByte(0)
			e.out.WriteByte(0)
			e.out.WriteByte(0)
		}
	}
}

func (e *GIFEncoder) writeNetscapeExt(repeat int) {
	e.out.WriteByte(0x21)
	e.out.WriteByte(0xff)
	e.out.WriteByte(11)
	e.out.WriteUTFBytes("NETSCAPE2.0")
	e.out.WriteByte(3)
	e.out.WriteByte(1)
	e.out.WriteUint16(repeat)
	e.out.WriteByte(0)
}

func (e *GIFEncoder) writeGraphicControlExt(opts FrameOptions) {
	transparent := opts.Transparent
	transIndex := opts.TransparentIndex
	if transIndex < 0 {
		transparent = false
		transIndex = 0
	}

	disp := 0
	if opts.Dispose >= 0 {
		disp = opts.Dispose & 7
	} else if transparent {
		disp = 2
	}

	transFlag := 0
	if transparent {
		transFlag = 1
	}

	e.out.WriteByte(0x21)
	e.out.WriteByte(0xf9)
	e.out.WriteByte(4)
	e.out.WriteByte(byte(disp<<2 | transFlag))
	e.out.WriteUint16(int(math.Round(float64(opts.DelayMs) / 10.0)))
	e.out.WriteByte(byte(transIndex))
	e.out.WriteByte(0)
}

func (e *GIFEncoder) writeImageDescriptor(width, height int, first, hasLocalPalette bool, palette []Color) {
	e.out.WriteByte(0x2c)
	e.out.WriteUint16(0)
	e.out.WriteUint16(0)
	e.out.WriteUint16(width)
	e.out.WriteUint16(height)

	if !hasLocalPalette {
		e.out.WriteByte(0)
		return
	}
	palSize := tableBitsFor(len(palette)) - 1
	e.out.WriteByte(byte(0x80 | palSize))
}

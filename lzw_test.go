package gifenc

import "testing"

// decodeLZWForTest mirrors internal/giflex's decoder against a raw
// image-data block (min-code-size byte + sub-blocks + terminator), so
// the encoder's round-trip can be checked without exporting the LZW
// decoder from the parser package.
func decodeLZWForTest(t *testing.T, block []byte) []byte {
	t.Helper()
	if len(block) == 0 {
		t.Fatal("empty lzw block")
	}
	minCodeSize := int(block[0])
	data := block[1:]

	clearCode := 1 << minCodeSize
	eoiCode := clearCode + 1

	var sub []byte
	pos := 0
	for pos < len(data) {
		n := int(data[pos])
		pos++
		if n == 0 {
			break
		}
		sub = append(sub, data[pos:pos+n]...)
		pos += n
	}

	var dict [][]byte
	codeSize := 0
	nextCode := 0
	resetDict := func() {
		dict = make([][]byte, 4096)
		for i := 0; i < clearCode; i++ {
			dict[i] = []byte{byte(i)}
		}
		codeSize = minCodeSize + 1
		nextCode = eoiCode + 1
	}
	resetDict()

	buf, bits := 0, 0
	bytePos := 0
	readCode := func() (int, bool) {
		for bits < codeSize {
			if bytePos >= len(sub) {
				return 0, false
			}
			buf |= int(sub[bytePos]) << bits
			bytePos++
			bits += 8
		}
		code := buf & ((1 << codeSize) - 1)
		buf >>= codeSize
		bits -= codeSize
		return code, true
	}

	var out []byte
	prevCode := -1
	for {
		code, ok := readCode()
		if !ok {
			t.Fatal("truncated lzw stream")
		}
		if code == clearCode {
			resetDict()
			prevCode = -1
			continue
		}
		if code == eoiCode {
			break
		}
		var entry []byte
		switch {
		case code < nextCode && dict[code] != nil:
			entry = dict[code]
		case code == nextCode && prevCode >= 0:
			prev := dict[prevCode]
			entry = append(append([]byte{}, prev...), prev[0])
		default:
			t.Fatalf("invalid lzw code %d", code)
		}
		out = append(out, entry...)
		if prevCode >= 0 && nextCode < 4096 {
			prev := dict[prevCode]
			dict[nextCode] = append(append([]byte{}, prev...), entry[0])
			nextCode++
			if nextCode == 1<<codeSize && codeSize < 12 {
				codeSize++
			}
		}
		prevCode = code
	}
	return out
}

func TestLZWEncodeRoundTripsSmallIndexBuffer(t *testing.T) {
	pixels := []byte{0, 1, 2, 3, 0, 1, 2, 3, 0, 0, 0, 0}
	out := NewStream()
	newLZWEncoder().encode(pixels, 2, out)

	got := decodeLZWForTest(t, out.Bytes())
	if len(got) != len(pixels) {
		t.Fatalf("round-trip length = %d, want %d", len(got), len(pixels))
	}
	for i := range pixels {
		if got[i] != pixels[i] {
			t.Fatalf("got[%d] = %d, want %d", i, got[i], pixels[i])
		}
	}
}

func TestLZWEncodeRoundTripsAcrossCodeWidthGrowth(t *testing.T) {
	pixels := make([]byte, 5000)
	for i := range pixels {
		pixels[i] = byte(i % 250)
	}
	out := NewStream()
	newLZWEncoder().encode(pixels, 8, out)

	got := decodeLZWForTest(t, out.Bytes())
	if len(got) != len(pixels) {
		t.Fatalf("round-trip length = %d, want %d", len(got), len(pixels))
	}
	for i := range pixels {
		if got[i] != pixels[i] {
			t.Fatalf("got[%d] = %d, want %d", i, got[i], pixels[i])
		}
	}
}

func TestLZWEncodeReusesScratchBuffersAcrossFrames(t *testing.T) {
	enc := newLZWEncoder()
	pixelsA := []byte{0, 1, 0, 1, 0, 1}
	pixelsB := []byte{2, 3, 2, 3, 2, 3}

	outA := NewStream()
	enc.encode(pixelsA, 2, outA)
	gotA := decodeLZWForTest(t, outA.Bytes())

	outB := NewStream()
	enc.encode(pixelsB, 2, outB)
	gotB := decodeLZWForTest(t, outB.Bytes())

	for i := range pixelsA {
		if gotA[i] != pixelsA[i] {
			t.Fatalf("first frame round-trip mismatch at %d", i)
		}
	}
	for i := range pixelsB {
		if gotB[i] != pixelsB[i] {
			t.Fatalf("second frame round-trip mismatch at %d", i)
		}
	}
}

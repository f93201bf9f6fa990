package gifenc

import (
	"errors"
	"math"
)

// ErrInvalidInput is returned when RGBA pixel data isn't a well-formed
// byte buffer.
var ErrInvalidInput = errors.New("gifenc: invalid input buffer")

// QuantizeOptions configures the PNN quantizer.
type QuantizeOptions struct {
	// Format selects the packed-color key used for the histogram.
	// FormatRGBA4444 is the only format with an alpha channel; any
	// other format quantizes on RGB only and drops alpha.
	Format Format

	// UseSqrt biases merging away from highly populated bins by
	// replacing each bin's pixel count with its square root before
	// clustering. Nil defaults to true. Regardless of this field, it
	// is auto-disabled whenever maxColors²/maxbins falls below the
	// empirical constant 0.022 — this heuristic always applies,
	// even when UseSqrt explicitly requests true.
	UseSqrt *bool

	// OneBitAlpha, when non-nil, snaps each emitted palette entry's
	// alpha to 0 or 255 at the given threshold. Only meaningful when
	// Format is FormatRGBA4444.
	OneBitAlpha *int

	// ClearAlpha, when set, replaces the RGB of any emitted entry
	// whose alpha is <= ClearAlphaThreshold with ClearAlphaColor and
	// forces its alpha to 0.
	ClearAlpha          bool
	ClearAlphaThreshold byte
	ClearAlphaColor     Color
}

// useSqrtAutoThreshold is the empirical auto-disable constant for
// UseSqrt, preserved verbatim.
const useSqrtAutoThreshold = 0.022

// qbin is one histogram/cluster bucket. Fields rc/gc/bc/ac hold
// channel sums during histogram accumulation and per-bin means from
// normalization onward. fw/bk form a doubly linked arena list; nn/err
// cache the nearest-neighbor merge candidate; tm/mtm are the staleness
// timestamps used by the heap's lazy validity check.
type qbin struct {
	rc, gc, bc, ac float64
	cnt            float64
	fw, bk         int
	nn             int
	err            float64
	tm, mtm        int
}

// Quantize reduces rgba (row-major RGBA bytes) to a palette of at most
// maxColors entries using Pairwise Nearest Neighbor agglomerative
// clustering. The returned palette is ordered by cluster survival
// order, not by population.
func Quantize(rgba []byte, maxColors int, opts QuantizeOptions) ([]Color, error) {
	if len(rgba) == 0 || len(rgba)%4 != 0 {
		return nil, ErrInvalidInput
	}
	if maxColors < 1 {
		return nil, errors.New("gifenc: maxColors must be >= 1")
	}

	hasAlpha := opts.Format.HasAlpha()
	keySpace := opts.Format.KeySpace()

	// 1. Histogram: bucket pixels by packed key, accumulating sums.
	sums := make([]qbin, keySpace)
	counts := make([]int, keySpace)
	for p := 0; p+3 < len(rgba); p += 4 {
		r, g, b, a := rgba[p], rgba[p+1], rgba[p+2], rgba[p+3]
		var key int
		switch opts.Format {
		case FormatRGB444:
			key = PackRGB444(r, g, b)
		case FormatRGBA4444:
			key = PackRGBA4444(r, g, b, a)
		default:
			key = PackRGB565(r, g, b)
		}
		sums[key].rc += float64(r)
		sums[key].gc += float64(g)
		sums[key].bc += float64(b)
		if hasAlpha {
			sums[key].ac += float64(a)
		}
		counts[key]++
	}

	// 2. Normalize and compact: bins[0] is reserved as the list's
	// sentinel head, real bins occupy 1..maxbins.
	maxbins := 0
	for k := 0; k < keySpace; k++ {
		if counts[k] > 0 {
			maxbins++
		}
	}
	bins := make([]qbin, maxbins+1)
	idx := 1
	for k := 0; k < keySpace; k++ {
		if counts[k] == 0 {
			continue
		}
		n := float64(counts[k])
		bins[idx].rc = sums[k].rc / n
		bins[idx].gc = sums[k].gc / n
		bins[idx].bc = sums[k].bc / n
		if hasAlpha {
			bins[idx].ac = sums[k].ac / n
		}
		bins[idx].cnt = n
		idx++
	}

	if maxbins == 0 {
		return nil, nil
	}

	// 3. Optionally weight counts by sqrt to bias away from dense bins.
	useSqrt := true
	if opts.UseSqrt != nil {
		useSqrt = *opts.UseSqrt
	}
	if float64(maxColors*maxColors)/float64(maxbins) < useSqrtAutoThreshold {
		useSqrt = false
	}
	if useSqrt {
		for i := 1; i <= maxbins; i++ {
			bins[i].cnt = math.Sqrt(bins[i].cnt)
		}
	}

	// 4. Link bins into a doubly linked list in index order.
	bins[0].fw = 1
	for i := 1; i <= maxbins; i++ {
		if i < maxbins {
			bins[i].fw = i + 1
		} else {
			bins[i].fw = 0
		}
		bins[i].bk = i - 1
	}

	// bincount distinguishes a genuinely-deleted bin (tombstone) from
	// a live one — see heap step 6b. It is fixed at maxbins for the
	// lifetime of this clustering pass.
	bincount := maxbins

	// Array-backed min-heap over bins keyed by err. heapArr[0] is the
	// current size, heapArr[1] the root.
	heapArr := make([]int, maxbins+1)

	findNN := func(i int) (int, float64) {
		n1 := bins[i].cnt
		best := 0
		bestErr := math.MaxFloat64
		for j := bins[i].fw; j != 0; j = bins[j].fw {
			n2 := bins[j].cnt
			weight := n1 * n2 / (n1 + n2)

			dr := bins[i].rc - bins[j].rc
			sum := weight * dr * dr
			if sum >= bestErr {
				continue
			}
			dg := bins[i].gc - bins[j].gc
			sum += weight * dg * dg
			if sum >= bestErr {
				continue
			}
			db := bins[i].bc - bins[j].bc
			sum += weight * db * db
			if sum >= bestErr {
				continue
			}
			if hasAlpha {
				da := bins[i].ac - bins[j].ac
				sum += weight * da * da
				if sum >= bestErr {
					continue
				}
			}
			bestErr = sum
			best = j
		}
		return best, bestErr
	}

	siftDown := func(pos int) {
		size := heapArr[0]
		v := heapArr[pos]
		for {
			child := pos * 2
			if child > size {
				break
			}
			if child+1 <= size && bins[heapArr[child+1]].err < bins[heapArr[child]].err {
				child++
			}
			if bins[heapArr[child]].err >= bins[v].err {
				break
			}
			heapArr[pos] = heapArr[child]
			pos = child
		}
		heapArr[pos] = v
	}

	siftUp := func(pos int) {
		v := heapArr[pos]
		for pos > 1 {
			parent := pos / 2
			if bins[heapArr[parent]].err <= bins[v].err {
				break
			}
			heapArr[pos] = heapArr[parent]
			pos = parent
		}
		heapArr[pos] = v
	}

	// 5. Initial nearest-neighbor pass; push every bin onto the heap.
	for i := 1; i <= maxbins; i++ {
		nn, err := findNN(i)
		bins[i].nn = nn
		bins[i].err = err
		heapArr[0]++
		heapArr[heapArr[0]] = i
		siftUp(heapArr[0])
	}

	// 6. Merge loop.
	mergesNeeded := maxbins - maxColors
	iter := 0
	for m := 0; m < mergesNeeded; m++ {
		iter++
		var b1 int
		for {
			b1 = heapArr[1]
			if bins[b1].tm >= bins[b1].mtm && bins[bins[b1].nn].mtm <= bins[b1].tm {
				break
			}
			if bins[b1].mtm == bincount-1 {
				heapArr[1] = heapArr[heapArr[0]]
				heapArr[0]--
				siftDown(1)
				continue
			}
			nn, err := findNN(b1)
			bins[b1].nn = nn
			bins[b1].err = err
			bins[b1].tm = iter
			siftDown(1)
		}

		nb := bins[b1].nn
		n1 := bins[b1].cnt
		n2 := bins[nb].cnt
		d := 1.0 / (n1 + n2)
		bins[b1].rc = d * (n1*bins[b1].rc + n2*bins[nb].rc)
		bins[b1].gc = d * (n1*bins[b1].gc + n2*bins[nb].gc)
		bins[b1].bc = d * (n1*bins[b1].bc + n2*bins[nb].bc)
		if hasAlpha {
			bins[b1].ac = d * (n1*bins[b1].ac + n2*bins[nb].ac)
		}
		bins[b1].cnt += n2
		bins[b1].mtm = iter

		prev, next := bins[nb].bk, bins[nb].fw
		bins[prev].fw = next
		if next != 0 {
			bins[next].bk = prev
		}
		bins[nb].mtm = bincount - 1
	}

	// 7. Emit palette: walk surviving bins in list order.
	var oneBitThreshold int
	applyOneBit := opts.OneBitAlpha != nil
	if applyOneBit {
		oneBitThreshold = *opts.OneBitAlpha
	}

	palette := make([]Color, 0, maxColors)
	for i := bins[0].fw; i != 0; i = bins[i].fw {
		c := Color{
			R:    clampRound(bins[i].rc),
			G:    clampRound(bins[i].gc),
			B:    clampRound(bins[i].bc),
			HasA: hasAlpha,
		}
		if hasAlpha {
			c.A = clampRound(bins[i].ac)
			if applyOneBit {
				if int(c.A) < oneBitThreshold {
					c.A = 0
				} else {
					c.A = 255
				}
			}
			if opts.ClearAlpha && c.A <= opts.ClearAlphaThreshold {
				c.R, c.G, c.B = opts.ClearAlphaColor.R, opts.ClearAlphaColor.G, opts.ClearAlphaColor.B
				c.A = 0
			}
		}
		if !duplicateColor(palette, c) {
			palette = append(palette, c)
		}
	}

	return palette, nil
}

func clampRound(v float64) byte {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func duplicateColor(palette []Color, c Color) bool {
	for _, p := range palette {
		if p.R == c.R && p.G == c.G && p.B == c.B && (!c.HasA || p.A == c.A) {
			return true
		}
	}
	return false
}

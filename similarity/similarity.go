package similarity

import (
	"fmt"
	"image"

	"dupfinder/imageloader"
	"dupfinder/logging"
	"dupfinder/types"
)

// SSIM stabilization constants for 8-bit pixel depth, (K·L)² with the usual
// K1=0.01, K2=0.03 and L=255. They also make zero-variance windows well
// defined: two flat windows with equal intensity score exactly 1, flat
// windows with different intensities score below 1.
const (
	c1 = 6.5025  // (0.01 * 255)²
	c2 = 58.5225 // (0.03 * 255)²
)

// windowSize is the side of the non-overlapping comparison windows. Partial
// windows at the right and bottom edges are included.
const windowSize = 8

// Score computes the mean structural similarity of two grayscale buffers of
// identical dimensions. The score is in [-1, 1]; identical buffers score
// exactly 1.0, and Score(a, b) == Score(b, a) because every term is symmetric
// in the two inputs.
func Score(a, b *image.Gray) (float64, error) {
	aw, ah := a.Rect.Dx(), a.Rect.Dy()
	bw, bh := b.Rect.Dx(), b.Rect.Dy()
	if aw != bw || ah != bh {
		return 0, fmt.Errorf("dimension mismatch: %dx%d vs %dx%d", aw, ah, bw, bh)
	}
	if aw == 0 || ah == 0 {
		return 0, fmt.Errorf("empty image")
	}

	var total float64
	var windows int

	for y := 0; y < ah; y += windowSize {
		for x := 0; x < aw; x += windowSize {
			w := windowSize
			if x+w > aw {
				w = aw - x
			}
			h := windowSize
			if y+h > ah {
				h = ah - y
			}

			total += windowScore(a, b, x, y, w, h)
			windows++
		}
	}

	return total / float64(windows), nil
}

// windowScore computes the luminance/contrast/structure product for one
// window following the standard SSIM decomposition
func windowScore(a, b *image.Gray, x0, y0, w, h int) float64 {
	var sx, sy, sxx, syy, sxy float64

	// x0/y0 are relative to the buffer origin, which for subimages is
	// already Pix[0].
	for dy := 0; dy < h; dy++ {
		ra := a.Pix[(y0+dy)*a.Stride:]
		rb := b.Pix[(y0+dy)*b.Stride:]
		for dx := 0; dx < w; dx++ {
			pa := float64(ra[x0+dx])
			pb := float64(rb[x0+dx])
			sx += pa
			sy += pb
			sxx += pa * pa
			syy += pb * pb
			sxy += pa * pb
		}
	}

	n := float64(w * h)
	mx := sx / n
	my := sy / n
	varX := sxx/n - mx*mx
	varY := syy/n - my*my
	cov := sxy/n - mx*my

	num := (2*mx*my + c1) * (2*cov + c2)
	den := (mx*mx + my*my + c1) * (varX + varY + c2)
	return num / den
}

// ScorePair decodes both images of a candidate pair and scores them at a
// common size. The larger image is resampled down to the smaller one's exact
// dimensions: downsampling preserves structure, while upsampling a thumbnail
// would compare interpolation artifacts instead of content.
func ScorePair(registry *imageloader.Registry, pair types.CandidatePair) (*types.ComparisonResult, error) {
	small, large := pair.A, pair.B
	if small.Width > large.Width {
		small, large = large, small
	}

	ref, _, _, err := registry.Decode(small.Path)
	if err != nil {
		return nil, err
	}

	var other *image.Gray
	if small.Width == large.Width && small.Height == large.Height {
		other, _, _, err = registry.Decode(large.Path)
	} else {
		other, err = registry.DecodeScaled(large.Path, small.Width, small.Height)
	}
	if err != nil {
		return nil, err
	}

	score, err := Score(ref, other)
	if err != nil {
		return nil, err
	}

	logging.LogPairScored(pair.A.Path, pair.B.Path, score)

	return &types.ComparisonResult{
		Pair:      pair,
		SSIMScore: score,
		Verdict:   types.VerdictScored,
	}, nil
}

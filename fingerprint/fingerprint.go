package fingerprint

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/corona10/goimagehash"
)

// Bits is the length of a fingerprint in bits
const Bits = 64

// Compute returns the 64-bit perceptual fingerprint of a decoded image. The
// difference hash resamples to a small fixed grid and keeps the sign of the
// horizontal gradient, which makes the result invariant to overall scale and
// mildly tolerant to recompression artifacts. Identical normalized pixel
// content always produces the same fingerprint.
func Compute(img image.Image) (uint64, error) {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return 0, fmt.Errorf("cannot compute fingerprint: %v", err)
	}
	return hash.GetHash(), nil
}

// Distance returns the Hamming distance between two fingerprints
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Format renders a fingerprint as a fixed-width hex string for logs
func Format(f uint64) string {
	return fmt.Sprintf("%016x", f)
}

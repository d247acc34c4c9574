package report

import (
	"fmt"
	"io"

	"dupfinder/types"
)

// Write formats every reportable result in discovery order. Pure formatting;
// which pairs are reportable was decided upstream.
//
// The per-pair block is:
//
//	Images are potentially the same (SSIM = 0.936682):
//	    1599×899      /path/to/a.jpg
//	    3840×2160     /path/to/b.jpg
func Write(w io.Writer, results []*types.ComparisonResult) {
	for _, res := range results {
		if !res.Verdict.Reportable() {
			continue
		}

		fmt.Fprintf(w, "\nImages are potentially the same (SSIM = %.6f):\n", res.SSIMScore)
		for _, rec := range [...]*types.ImageRecord{res.Pair.A, res.Pair.B} {
			fmt.Fprintf(w, "    %-13s  %s\n", rec.Dimensions(), rec.Path)
		}
	}
}

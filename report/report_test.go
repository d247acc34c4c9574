package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"dupfinder/types"
)

func result(verdict types.Verdict, score float64, a, b *types.ImageRecord) *types.ComparisonResult {
	return &types.ComparisonResult{
		Pair:      types.CandidatePair{A: a, B: b},
		SSIMScore: score,
		Verdict:   verdict,
	}
}

// TestWriteFormat pins the exact report format down to the padding: the
// dimension column is 13 runes wide, followed by two spaces and the path,
// pair members in discovery order
func TestWriteFormat(t *testing.T) {
	a := &types.ImageRecord{Path: "/photos/2021/beach.jpg", Width: 1599, Height: 899}
	b := &types.ImageRecord{Path: "/backup/wallpaper.jpg", Width: 3840, Height: 2160}

	var buf bytes.Buffer
	Write(&buf, []*types.ComparisonResult{result(types.VerdictAccepted, 0.936682, a, b)})

	want := "\nImages are potentially the same (SSIM = 0.936682):\n" +
		"    1599×899       /photos/2021/beach.jpg\n" +
		"    3840×2160      /backup/wallpaper.jpg\n"
	assert.Equal(t, want, buf.String())
}

// TestWriteScorePrecision verifies the score always carries six decimals
func TestWriteScorePrecision(t *testing.T) {
	a := &types.ImageRecord{Path: "a.jpg", Width: 10, Height: 10}
	b := &types.ImageRecord{Path: "b.jpg", Width: 10, Height: 10}

	var buf bytes.Buffer
	Write(&buf, []*types.ComparisonResult{result(types.VerdictAccepted, 1, a, b)})

	assert.Contains(t, buf.String(), "(SSIM = 1.000000):")
}

// TestWriteFiltersVerdicts verifies only accepted and manually confirmed
// pairs are reported
func TestWriteFiltersVerdicts(t *testing.T) {
	a := &types.ImageRecord{Path: "a.jpg", Width: 100, Height: 50}
	b := &types.ImageRecord{Path: "b.jpg", Width: 100, Height: 50}

	var buf bytes.Buffer
	Write(&buf, []*types.ComparisonResult{
		result(types.VerdictRejected, 0.5, a, b),
		result(types.VerdictPendingManual, 0.85, a, b),
		result(types.VerdictManuallyRejected, 0.86, a, b),
		result(types.VerdictScored, 0.99, a, b),
	})
	assert.Empty(t, buf.String())

	Write(&buf, []*types.ComparisonResult{result(types.VerdictManuallyConfirmed, 0.955253, a, b)})
	assert.Contains(t, buf.String(), "Images are potentially the same (SSIM = 0.955253):")
}

// TestWriteDiscoveryOrder verifies pairs appear in input order
func TestWriteDiscoveryOrder(t *testing.T) {
	first := result(types.VerdictAccepted, 0.93,
		&types.ImageRecord{Path: "one.jpg", Width: 1, Height: 1},
		&types.ImageRecord{Path: "two.jpg", Width: 1, Height: 1})
	second := result(types.VerdictAccepted, 0.99,
		&types.ImageRecord{Path: "three.jpg", Width: 1, Height: 1},
		&types.ImageRecord{Path: "four.jpg", Width: 1, Height: 1})

	var buf bytes.Buffer
	Write(&buf, []*types.ComparisonResult{first, second})

	out := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("one.jpg")), bytes.Index(buf.Bytes(), []byte("three.jpg")))
	assert.Contains(t, out, "0.930000")
	assert.Contains(t, out, "0.990000")
}

package types

import "fmt"

// Verdict is the decision state of a compared image pair
type Verdict int

const (
	// VerdictScored is the initial state after SSIM computation
	VerdictScored Verdict = iota
	VerdictAccepted
	VerdictRejected
	VerdictPendingManual
	VerdictManuallyConfirmed
	VerdictManuallyRejected
)

func (v Verdict) String() string {
	switch v {
	case VerdictScored:
		return "scored"
	case VerdictAccepted:
		return "accepted"
	case VerdictRejected:
		return "rejected"
	case VerdictPendingManual:
		return "pending-manual"
	case VerdictManuallyConfirmed:
		return "manually-confirmed"
	case VerdictManuallyRejected:
		return "manually-rejected"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// Terminal reports whether no further transition is possible from v
func (v Verdict) Terminal() bool {
	switch v {
	case VerdictAccepted, VerdictRejected, VerdictManuallyConfirmed, VerdictManuallyRejected:
		return true
	}
	return false
}

// Reportable reports whether a pair with this verdict belongs in the output
func (v Verdict) Reportable() bool {
	return v == VerdictAccepted || v == VerdictManuallyConfirmed
}

// ImageRecord holds the metadata and fingerprint of one decoded input file.
// Records are created once per successfully decoded file and never mutated
// afterwards.
type ImageRecord struct {
	Path        string `json:"path"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Fingerprint uint64 `json:"fingerprint"`
}

// Dimensions returns the record's size formatted as "1200×800"
func (r *ImageRecord) Dimensions() string {
	return fmt.Sprintf("%d×%d", r.Width, r.Height)
}

// CandidatePair is an unordered pair of images whose fingerprints are close
// enough to warrant a structural similarity check. A is always the image
// discovered first.
type CandidatePair struct {
	A, B         *ImageRecord
	HashDistance int
}

// ComparisonResult holds the SSIM score and decision state of a candidate
// pair. The Verdict field is mutated only by the decision engine.
type ComparisonResult struct {
	Pair      CandidatePair
	SSIMScore float64
	Verdict   Verdict
}

// RunStats are the counters of a single pipeline run. They are carried as an
// explicit value so that several independent runs can coexist in one process.
type RunStats struct {
	FilesFound   int
	Decoded      int
	Skipped      int
	PairsChecked int
	PairsScored  int
	PromptsShown int
}

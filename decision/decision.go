package decision

import (
	"context"
	"fmt"

	"dupfinder/logging"
	"dupfinder/types"
)

// Default thresholds for the decision bands. Pairs scoring at or above the
// high threshold are accepted outright; pairs below the low threshold are
// rejected outright; the band in between is where re-encoding and rescaling
// make SSIM ambiguous and a human eye does better.
const (
	DefaultHighThreshold = 0.92
	DefaultLowThreshold  = 0.80
)

// Confirmer is the external display/interaction capability: it shows both
// images to a human and blocks until they answer
type Confirmer interface {
	ConfirmVisually(a, b *types.ImageRecord) (bool, error)
}

// Engine applies the threshold policy to scored pairs and drives the manual
// review state machine when enabled
type Engine struct {
	High             float64
	Low              float64
	ManualValidation bool
	Confirm          Confirmer
}

// NewEngine returns an engine with the default thresholds
func NewEngine(manualValidation bool, confirm Confirmer) *Engine {
	return &Engine{
		High:             DefaultHighThreshold,
		Low:              DefaultLowThreshold,
		ManualValidation: manualValidation,
		Confirm:          confirm,
	}
}

// Decide moves a freshly scored result to its next state. Results that are
// past VerdictScored are left untouched, so calling Decide twice cannot
// overwrite a verdict.
func (e *Engine) Decide(res *types.ComparisonResult) {
	if res.Verdict != types.VerdictScored {
		return
	}

	switch {
	case res.SSIMScore >= e.High:
		res.Verdict = types.VerdictAccepted
	case res.SSIMScore < e.Low:
		res.Verdict = types.VerdictRejected
	case e.ManualValidation:
		res.Verdict = types.VerdictPendingManual
	default:
		// Without a human to ask, only confident matches are reported.
		res.Verdict = types.VerdictRejected
	}

	logging.LogVerdict(res.Pair.A.Path, res.Pair.B.Path, res.Verdict.String())
}

// ResolvePending walks the pending pairs strictly one at a time and asks the
// confirmer about each, so at most one prompt is visible to the operator. It
// runs only after all automatic scoring is done. A cancelled context stops
// further prompts; verdicts already decided are left intact, and pairs never
// shown stay pending (and therefore unreported). Returns the number of
// prompts shown.
func (e *Engine) ResolvePending(ctx context.Context, results []*types.ComparisonResult) (int, error) {
	prompts := 0

	for _, res := range results {
		if res.Verdict != types.VerdictPendingManual {
			continue
		}

		if err := ctx.Err(); err != nil {
			return prompts, err
		}

		if e.Confirm == nil {
			return prompts, fmt.Errorf("manual validation enabled but no confirmer configured")
		}

		prompts++
		same, err := e.Confirm.ConfirmVisually(res.Pair.A, res.Pair.B)
		if err != nil {
			return prompts, fmt.Errorf("manual confirmation failed for %s vs %s: %w",
				res.Pair.A.Path, res.Pair.B.Path, err)
		}

		if same {
			res.Verdict = types.VerdictManuallyConfirmed
		} else {
			res.Verdict = types.VerdictManuallyRejected
		}

		logging.LogVerdict(res.Pair.A.Path, res.Pair.B.Path, res.Verdict.String())
	}

	return prompts, nil
}

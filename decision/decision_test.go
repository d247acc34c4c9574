package decision

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupfinder/types"
)

// fakeConfirmer scripts the human's answers and records every call
type fakeConfirmer struct {
	answers []bool
	calls   int
	err     error
	onCall  func()
}

func (f *fakeConfirmer) ConfirmVisually(a, b *types.ImageRecord) (bool, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return false, f.err
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer, nil
}

func scoredResult(score float64) *types.ComparisonResult {
	return &types.ComparisonResult{
		Pair: types.CandidatePair{
			A: &types.ImageRecord{Path: "a.jpg", Width: 100, Height: 100},
			B: &types.ImageRecord{Path: "b.jpg", Width: 200, Height: 200},
		},
		SSIMScore: score,
		Verdict:   types.VerdictScored,
	}
}

// TestDecideTransitions covers the threshold policy for both manual modes
func TestDecideTransitions(t *testing.T) {
	tests := []struct {
		name   string
		score  float64
		manual bool
		want   types.Verdict
	}{
		{"above high", 0.95, false, types.VerdictAccepted},
		{"exactly high", 0.92, false, types.VerdictAccepted},
		{"below low", 0.50, false, types.VerdictRejected},
		{"borderline manual off", 0.85, false, types.VerdictRejected},
		{"borderline manual on", 0.85, true, types.VerdictPendingManual},
		{"just under low manual on", 0.799, true, types.VerdictRejected},
		{"above high manual on", 0.99, true, types.VerdictAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(tt.manual, &fakeConfirmer{})
			res := scoredResult(tt.score)
			e.Decide(res)
			assert.Equal(t, tt.want, res.Verdict)
		})
	}
}

// TestDecideThresholdConsistency is the invariant that a score at or above
// the high threshold is never rejected
func TestDecideThresholdConsistency(t *testing.T) {
	for _, manual := range []bool{false, true} {
		e := NewEngine(manual, &fakeConfirmer{})
		for s := -1.0; s <= 1.0; s += 0.01 {
			res := scoredResult(s)
			e.Decide(res)
			if s >= e.High {
				assert.Equal(t, types.VerdictAccepted, res.Verdict,
					"score %.2f manual=%v", s, manual)
			}
			assert.NotEqual(t, types.VerdictScored, res.Verdict)
		}
	}
}

// TestDecideNeverOverwrites verifies terminal verdicts survive a second call
func TestDecideNeverOverwrites(t *testing.T) {
	e := NewEngine(false, nil)
	res := scoredResult(0.99)
	e.Decide(res)
	require.Equal(t, types.VerdictAccepted, res.Verdict)

	res.SSIMScore = 0.1
	e.Decide(res)
	assert.Equal(t, types.VerdictAccepted, res.Verdict)
}

// TestResolvePendingConfirmed verifies the borderline scenario: one pending
// pair triggers exactly one prompt, and a yes answer confirms it
func TestResolvePendingConfirmed(t *testing.T) {
	confirm := &fakeConfirmer{answers: []bool{true}}
	e := NewEngine(true, confirm)

	res := scoredResult(0.955253)
	e.High = 0.99
	e.Decide(res)
	require.Equal(t, types.VerdictPendingManual, res.Verdict)

	prompts, err := e.ResolvePending(context.Background(), []*types.ComparisonResult{res})
	require.NoError(t, err)
	assert.Equal(t, 1, prompts)
	assert.Equal(t, 1, confirm.calls)
	assert.Equal(t, types.VerdictManuallyConfirmed, res.Verdict)
	assert.True(t, res.Verdict.Reportable())
}

// TestResolvePendingRejected verifies a no answer suppresses the pair
func TestResolvePendingRejected(t *testing.T) {
	confirm := &fakeConfirmer{answers: []bool{false}}
	e := &Engine{High: 0.99, Low: 0.80, ManualValidation: true, Confirm: confirm}

	res := scoredResult(0.955253)
	e.Decide(res)
	require.Equal(t, types.VerdictPendingManual, res.Verdict)

	prompts, err := e.ResolvePending(context.Background(), []*types.ComparisonResult{res})
	require.NoError(t, err)
	assert.Equal(t, 1, prompts)
	assert.Equal(t, types.VerdictManuallyRejected, res.Verdict)
	assert.False(t, res.Verdict.Reportable())
}

// TestResolvePendingSkipsDecided verifies only pending pairs reach the
// confirmer
func TestResolvePendingSkipsDecided(t *testing.T) {
	confirm := &fakeConfirmer{answers: []bool{true}}
	e := NewEngine(true, confirm)

	accepted := scoredResult(0.99)
	rejected := scoredResult(0.10)
	pending := scoredResult(0.85)
	results := []*types.ComparisonResult{accepted, rejected, pending}
	for _, r := range results {
		e.Decide(r)
	}

	prompts, err := e.ResolvePending(context.Background(), results)
	require.NoError(t, err)
	assert.Equal(t, 1, prompts)
	assert.Equal(t, 1, confirm.calls)
	assert.Equal(t, types.VerdictAccepted, accepted.Verdict)
	assert.Equal(t, types.VerdictRejected, rejected.Verdict)
	assert.Equal(t, types.VerdictManuallyConfirmed, pending.Verdict)
}

// TestResolvePendingCancellation verifies an interrupt stops further prompts
// while every verdict decided so far stays intact
func TestResolvePendingCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	confirm := &fakeConfirmer{answers: []bool{true, true, true}}
	confirm.onCall = cancel // operator interrupts during the first prompt

	e := NewEngine(true, confirm)
	results := []*types.ComparisonResult{
		scoredResult(0.85), scoredResult(0.86), scoredResult(0.87),
	}
	for _, r := range results {
		e.Decide(r)
	}

	prompts, err := e.ResolvePending(ctx, results)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, prompts)
	assert.Equal(t, types.VerdictManuallyConfirmed, results[0].Verdict)
	assert.Equal(t, types.VerdictPendingManual, results[1].Verdict)
	assert.Equal(t, types.VerdictPendingManual, results[2].Verdict)
	assert.False(t, results[1].Verdict.Reportable())
}

// TestResolvePendingConfirmerError verifies a viewer failure stops the loop
// with a wrapped error
func TestResolvePendingConfirmerError(t *testing.T) {
	confirm := &fakeConfirmer{err: fmt.Errorf("display is gone")}
	e := NewEngine(true, confirm)

	res := scoredResult(0.85)
	e.Decide(res)

	_, err := e.ResolvePending(context.Background(), []*types.ComparisonResult{res})
	assert.ErrorContains(t, err, "display is gone")
	assert.Equal(t, types.VerdictPendingManual, res.Verdict)
}

// TestResolvePendingNoConfirmer verifies misconfiguration is reported rather
// than panicking
func TestResolvePendingNoConfirmer(t *testing.T) {
	e := NewEngine(true, nil)
	res := scoredResult(0.85)
	e.Decide(res)

	_, err := e.ResolvePending(context.Background(), []*types.ComparisonResult{res})
	assert.Error(t, err)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"dupfinder/candidates"
	"dupfinder/decision"
	"dupfinder/imageloader"
	"dupfinder/logging"
	"dupfinder/report"
	"dupfinder/similarity"
	"dupfinder/types"
)

// ErrEmptyInput is returned when none of the input files could be decoded
var ErrEmptyInput = errors.New("no readable image files in input")

// Options configures a single pipeline run. Thresholds and the distance bound
// are configuration, not constants; zero values select the defaults.
type Options struct {
	Paths            []string
	ManualValidation bool

	// MaxHashDistance is the fingerprint Hamming distance bound for
	// candidate pairs; negative selects the default
	MaxHashDistance int

	// HighThreshold accepts without review, LowThreshold rejects without
	// review; zero selects the defaults
	HighThreshold float64
	LowThreshold  float64

	// Workers bounds the goroutines of the batch stages; zero or negative
	// selects a CPU-derived default
	Workers int

	// Confirm handles manual validation; required when ManualValidation is
	// set
	Confirm decision.Confirmer

	// Output receives the duplicate report, Errw the per-file warnings
	Output io.Writer
	Errw   io.Writer

	// Progress draws progress bars for the batch stages when set
	Progress bool
}

// Result is everything a finished (or interrupted) run produced
type Result struct {
	Records []*types.ImageRecord
	Results []*types.ComparisonResult
	Stats   types.RunStats
}

// Run executes the full pipeline: enumerate, fingerprint, group, score,
// decide, review, report. An interrupt cancels outstanding batch work and
// skips remaining prompts but still reports every verdict decided so far.
func Run(ctx context.Context, opts Options) (*Result, error) {
	opts = withDefaults(opts)

	registry := imageloader.NewRegistry()
	result := &Result{}

	files, err := enumerateFiles(registry, opts.Paths, opts.Errw)
	if err != nil {
		return nil, err
	}
	result.Stats.FilesFound = len(files)
	fmt.Fprintf(opts.Errw, "Found %d image files to check\n", len(files))

	result.Records = fingerprintStage(ctx, registry, files, opts, &result.Stats)
	if len(result.Records) == 0 {
		return result, ErrEmptyInput
	}

	grouper := candidates.NewGrouper(opts.MaxHashDistance)
	pairs := grouper.Pairs(result.Records)
	result.Stats.PairsChecked = len(pairs)
	fmt.Fprintf(opts.Errw, "Computing structural similarity of %d pairs of images…\n", len(pairs))

	result.Results = scoringStage(ctx, registry, pairs, opts, &result.Stats)

	engine := decision.NewEngine(opts.ManualValidation, opts.Confirm)
	engine.High = opts.HighThreshold
	engine.Low = opts.LowThreshold

	for _, res := range result.Results {
		engine.Decide(res)
	}

	if opts.ManualValidation {
		prompts, err := engine.ResolvePending(ctx, result.Results)
		result.Stats.PromptsShown = prompts
		if err != nil && !errors.Is(err, context.Canceled) {
			return result, err
		}
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(opts.Errw, "Interrupted; skipping remaining manual reviews")
		}
	}

	report.Write(opts.Output, result.Results)
	return result, nil
}

func withDefaults(opts Options) Options {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers()
	}
	if opts.HighThreshold == 0 {
		opts.HighThreshold = decision.DefaultHighThreshold
	}
	if opts.LowThreshold == 0 {
		opts.LowThreshold = decision.DefaultLowThreshold
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Errw == nil {
		opts.Errw = os.Stderr
	}
	return opts
}

// fingerprintStage decodes and fingerprints every file on a bounded worker
// pool. Each worker writes only its own slot; the compacted record list is
// assembled by this goroutine once the group is done, so no collection is
// mutated concurrently. Files that fail to decode are skipped with a warning.
func fingerprintStage(ctx context.Context, registry *imageloader.Registry, files []string, opts Options, stats *types.RunStats) []*types.ImageRecord {
	fmt.Fprintf(opts.Errw, "Computing visually-tolerant fingerprints of %d images…\n", len(files))

	bar := newProgressBar(opts, len(files), "fingerprinting")
	slots := make([]*types.ImageRecord, len(files))

	g := new(errgroup.Group)
	g.SetLimit(opts.Workers)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			defer bar.Add(1)
			if ctx.Err() != nil {
				return nil
			}

			rec, err := fingerprintFile(registry, path)
			if err != nil {
				logging.LogImageFingerprinted(path, false, err.Error())
				fmt.Fprintf(opts.Errw, "Warning: skipping %s: %v\n", path, err)
				return nil
			}

			logging.LogImageFingerprinted(path, true, "")
			slots[i] = rec
			return nil
		})
	}
	g.Wait()
	bar.Finish()

	records := make([]*types.ImageRecord, 0, len(files))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, rec)
		} else {
			stats.Skipped++
		}
	}
	stats.Decoded = len(records)
	return records
}

// scoringStage runs the expensive SSIM comparison over the candidate pairs on
// the same bounded pool shape as fingerprinting. Pairs whose images can no
// longer be decoded are dropped with a warning.
func scoringStage(ctx context.Context, registry *imageloader.Registry, pairs []types.CandidatePair, opts Options, stats *types.RunStats) []*types.ComparisonResult {
	bar := newProgressBar(opts, len(pairs), "scoring")
	slots := make([]*types.ComparisonResult, len(pairs))

	g := new(errgroup.Group)
	g.SetLimit(opts.Workers)

	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			defer bar.Add(1)
			if ctx.Err() != nil {
				return nil
			}

			res, err := similarity.ScorePair(registry, pair)
			if err != nil {
				fmt.Fprintf(opts.Errw, "Warning: cannot compare %s with %s: %v\n",
					pair.A.Path, pair.B.Path, err)
				return nil
			}
			slots[i] = res
			return nil
		})
	}
	g.Wait()
	bar.Finish()

	results := make([]*types.ComparisonResult, 0, len(pairs))
	for _, res := range slots {
		if res != nil {
			results = append(results, res)
		}
	}
	stats.PairsScored = len(results)
	return results
}

// enumerateFiles expands the positional arguments into a flat, deduplicated
// list of loadable files. Directories are walked recursively; explicit file
// arguments that no loader accepts are warned about rather than silently
// dropped.
func enumerateFiles(registry *imageloader.Registry, paths []string, errw io.Writer) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(errw, "Warning: cannot access %s: %v\n", path, err)
			continue
		}

		if !info.IsDir() {
			if registry.CanLoadFile(path) {
				add(path)
			} else {
				fmt.Fprintf(errw, "Warning: unsupported file type: %s\n", path)
			}
			continue
		}

		walkDir(registry, path, add, errw)
	}

	if len(files) == 0 {
		return nil, ErrEmptyInput
	}

	sort.Strings(files)
	return files, nil
}

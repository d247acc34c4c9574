package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dupfinder/decision"
	"dupfinder/logging"
	"dupfinder/pipeline"
	"dupfinder/signalhandler"
	"dupfinder/viewer"
)

var (
	flagManualValidation bool
	flagMaxHashDistance  int
	flagHighThreshold    float64
	flagLowThreshold     float64
	flagWorkers          int
	flagNoProgress       bool
	flagDebug            bool
	flagLogfile          string
)

var rootCmd = &cobra.Command{
	Use:   "dupfinder [flags] PATH...",
	Short: "Find visually duplicate images in a set of files and directories",
	Long: `dupfinder locates visually duplicate images across the given files and
directories, tolerating rescaling and lossy re-encoding. Candidate pairs are
found with cheap perceptual fingerprints, then verified with structural
similarity, so large collections never pay for an all-pairs comparison.

Borderline pairs are rejected by default; with --manual-validation they are
shown side by side for a yes/no answer instead.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&flagManualValidation, "manual-validation", false,
		"show an image to manually confirm borderline duplicates")
	rootCmd.Flags().IntVar(&flagMaxHashDistance, "max-hash-distance", -1,
		"fingerprint Hamming distance bound for candidate pairs (default tuned)")
	rootCmd.Flags().Float64Var(&flagHighThreshold, "high-threshold", decision.DefaultHighThreshold,
		"SSIM score at or above which a pair is accepted without review")
	rootCmd.Flags().Float64Var(&flagLowThreshold, "low-threshold", decision.DefaultLowThreshold,
		"SSIM score below which a pair is rejected without review")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0,
		"worker goroutines for the batch stages (0 = derived from CPU count)")
	rootCmd.Flags().BoolVar(&flagNoProgress, "no-progress", false,
		"disable the progress bars")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false,
		"log detailed information to the log file")
	rootCmd.Flags().StringVar(&flagLogfile, "logfile", "dupfinder.log",
		"log file path used with --debug")
}

func run(cmd *cobra.Command, args []string) error {
	if flagLowThreshold > flagHighThreshold {
		return fmt.Errorf("low threshold %.2f must not exceed high threshold %.2f",
			flagLowThreshold, flagHighThreshold)
	}

	if flagDebug {
		if err := logging.SetupLogger(flagLogfile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to set up logging: %v\n", err)
		} else {
			defer logging.CloseLogger()
			fmt.Fprintf(os.Stderr, "Debug mode enabled. Logging to: %s\n", flagLogfile)
		}
	}

	ctx, stop := signalhandler.WithInterrupt(context.Background())
	defer stop()

	opts := pipeline.Options{
		Paths:            args,
		ManualValidation: flagManualValidation,
		MaxHashDistance:  flagMaxHashDistance,
		HighThreshold:    flagHighThreshold,
		LowThreshold:     flagLowThreshold,
		Workers:          flagWorkers,
		Output:           os.Stdout,
		Errw:             os.Stderr,
		Progress:         !flagNoProgress,
	}
	if flagManualValidation {
		opts.Confirm = viewer.NewBrowserConfirmer()
	}

	result, err := pipeline.Run(ctx, opts)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyInput) {
			return fmt.Errorf("no input files could be read")
		}
		return err
	}

	if flagDebug {
		logging.DebugLog("Run finished: %d files, %d decoded, %d skipped, %d candidate pairs, %d scored, %d prompts",
			result.Stats.FilesFound, result.Stats.Decoded, result.Stats.Skipped,
			result.Stats.PairsChecked, result.Stats.PairsScored, result.Stats.PromptsShown)
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

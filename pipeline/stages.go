package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"dupfinder/fingerprint"
	"dupfinder/imageloader"
	"dupfinder/logging"
	"dupfinder/signalhandler"
	"dupfinder/types"
)

func defaultWorkers() int {
	return signalhandler.GetOptimalProcs()
}

// fingerprintFile decodes one file and builds its immutable record. The
// dimensions stored are post-orientation, so a rotated phone photo is
// compared upright against its desktop export.
func fingerprintFile(registry *imageloader.Registry, path string) (*types.ImageRecord, error) {
	gray, width, height, err := registry.Decode(path)
	if err != nil {
		return nil, err
	}

	fp, err := fingerprint.Compute(gray)
	if err != nil {
		return nil, err
	}

	logging.DebugLog("Fingerprinted %s (%dx%d): %s", path, width, height, fingerprint.Format(fp))

	return &types.ImageRecord{
		Path:        path,
		Width:       width,
		Height:      height,
		Fingerprint: fp,
	}, nil
}

// walkDir collects every loadable file below root, skipping unreadable
// entries rather than aborting the walk
func walkDir(registry *imageloader.Registry, root string, add func(string), errw io.Writer) {
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			fmt.Fprintf(errw, "Warning: cannot access %s: %v\n", path, err)
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if registry.CanLoadFile(path) {
			add(path)
		}
		return nil
	})
}

// stageBar abstracts the progress bar so the pipeline can run silently in
// tests and when output is redirected
type stageBar interface {
	Add(int) error
	Finish() error
}

type noopBar struct{}

func (noopBar) Add(int) error { return nil }
func (noopBar) Finish() error { return nil }

func newProgressBar(opts Options, total int, description string) stageBar {
	if !opts.Progress || total == 0 {
		return noopBar{}
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(opts.Errw),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

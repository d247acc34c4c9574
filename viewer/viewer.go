package viewer

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"dupfinder/logging"
	"dupfinder/types"
)

// Montage layout: each image is fitted into a tile and the two tiles sit side
// by side on a white canvas, mirroring what a reviewer needs to eyeball two
// photos at once.
const (
	tileSize     = 360
	cellSize     = 400
	canvasWidth  = 2 * cellSize
	canvasHeight = cellSize
)

// BrowserConfirmer implements decision.Confirmer by composing a side-by-side
// montage of both images, opening it with the platform viewer and reading a
// yes/no answer from the terminal.
type BrowserConfirmer struct {
	In  io.Reader
	Out io.Writer

	// OpenImage displays the montage file; overridable in tests
	OpenImage func(path string) error
}

// NewBrowserConfirmer returns a confirmer wired to stdin/stdout and the
// platform image opener
func NewBrowserConfirmer() *BrowserConfirmer {
	return &BrowserConfirmer{
		In:        os.Stdin,
		Out:       os.Stdout,
		OpenImage: openWithPlatformViewer,
	}
}

// ConfirmVisually shows both images and blocks until the operator answers y
// or n. It is called strictly sequentially, one pair at a time.
func (c *BrowserConfirmer) ConfirmVisually(a, b *types.ImageRecord) (bool, error) {
	montagePath, err := c.buildMontage(a.Path, b.Path)
	if err != nil {
		return false, err
	}
	defer os.Remove(montagePath)

	if err := c.OpenImage(montagePath); err != nil {
		return false, fmt.Errorf("cannot display comparison image: %v", err)
	}

	scanner := bufio.NewScanner(c.In)
	for {
		fmt.Fprint(c.Out, "Are these the same images? [y/n] ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return false, err
			}
			return false, fmt.Errorf("input closed before an answer was given")
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
	}
}

// buildMontage writes a temporary JPEG with both images side by side and
// returns its path. The caller removes the file.
func (c *BrowserConfirmer) buildMontage(pathA, pathB string) (string, error) {
	canvas := imaging.New(canvasWidth, canvasHeight, color.White)

	for i, path := range [...]string{pathA, pathB} {
		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			return "", fmt.Errorf("cannot open %s for display: %v", path, err)
		}

		tile := imaging.Fit(img, tileSize, tileSize, imaging.Lanczos)
		offset := image.Pt(
			i*cellSize+(cellSize-tile.Rect.Dx())/2,
			(cellSize-tile.Rect.Dy())/2,
		)
		canvas = imaging.Paste(canvas, tile, offset)
	}

	montagePath := filepath.Join(os.TempDir(),
		fmt.Sprintf("dupfinder_compare_%d.jpg", time.Now().UnixNano()))
	if err := imaging.Save(canvas, montagePath); err != nil {
		return "", fmt.Errorf("cannot save comparison image: %v", err)
	}

	logging.DebugLog("Wrote comparison montage for %s vs %s to %s", pathA, pathB, montagePath)
	return montagePath, nil
}

// openWithPlatformViewer hands the file to the default image viewer
func openWithPlatformViewer(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path).Start()
	default:
		return exec.Command("xdg-open", path).Start()
	}
}

package imageloader

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeError reports a file that could not be read or decoded. Callers skip
// the file and continue with the rest of the input.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ImageLoader decodes one family of image formats
type ImageLoader interface {
	CanLoad(path string) bool
	LoadImage(path string) (image.Image, error)
}

// StandardImageLoader handles the formats decoded by the standard library
type StandardImageLoader struct{}

func (l *StandardImageLoader) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		_, err := os.Stat(path)
		return err == nil
	}
	return false
}

func (l *StandardImageLoader) LoadImage(path string) (image.Image, error) {
	return decodeFile(path)
}

// XImageLoader handles the extra formats provided by golang.org/x/image
type XImageLoader struct{}

func (l *XImageLoader) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp", ".tif", ".tiff", ".webp":
		_, err := os.Stat(path)
		return err == nil
	}
	return false
}

func (l *XImageLoader) LoadImage(path string) (image.Image, error) {
	return decodeFile(path)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return img, nil
}

// Registry manages available image loaders
type Registry struct {
	loaders []ImageLoader
}

// NewRegistry creates a registry with the default loaders
func NewRegistry() *Registry {
	return &Registry{
		loaders: []ImageLoader{
			&StandardImageLoader{},
			&XImageLoader{},
		},
	}
}

// RegisterLoader adds a custom loader to the registry
func (r *Registry) RegisterLoader(loader ImageLoader) {
	r.loaders = append(r.loaders, loader)
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *Registry) CanLoadFile(path string) bool {
	for _, loader := range r.loaders {
		if loader.CanLoad(path) {
			return true
		}
	}
	return false
}

// LoadImage loads an image using the first loader that accepts it, with EXIF
// orientation already applied, so downstream comparison always sees upright
// pixels.
func (r *Registry) LoadImage(path string) (image.Image, error) {
	for _, loader := range r.loaders {
		if loader.CanLoad(path) {
			img, err := loader.LoadImage(path)
			if err != nil {
				return nil, err
			}
			return applyOrientation(img, readOrientation(path)), nil
		}
	}
	return nil, &DecodeError{Path: path, Err: fmt.Errorf("no suitable loader for file")}
}

// Decode loads an image in grayscale at its native (upright) size
func (r *Registry) Decode(path string) (*image.Gray, int, int, error) {
	img, err := r.LoadImage(path)
	if err != nil {
		return nil, 0, 0, err
	}

	gray := toGray(img)
	return gray, gray.Rect.Dx(), gray.Rect.Dy(), nil
}

// DecodeScaled loads an image in grayscale resampled to exactly width×height.
// It is used to bring the larger image of a candidate pair down to the
// smaller one's dimensions before scoring.
func (r *Registry) DecodeScaled(path string, width, height int) (*image.Gray, error) {
	img, err := r.LoadImage(path)
	if err != nil {
		return nil, err
	}

	resized := imaging.Resize(img, width, height, imaging.Lanczos)
	return toGray(resized), nil
}

// toGray converts any decoded image to an 8-bit grayscale buffer anchored at
// the origin
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

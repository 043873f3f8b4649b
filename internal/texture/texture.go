// Package texture decodes channel source images from their on-disk formats.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/sourcetex/matforge/pkg/formats"
)

// ErrUnsupportedFormat is returned for file extensions with no decoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// DecodeError wraps a failure to load a channel source image.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode loads and decodes the image at path, choosing the codec by file
// extension. Failures are reported as *DecodeError.
func Decode(path string) (image.Image, error) {
	img, err := decode(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return img, nil
}

func decode(path string) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return decodeReader(path, png.Decode)
	case ".jpg", ".jpeg":
		return decodeReader(path, jpeg.Decode)
	case ".bmp":
		return decodeReader(path, bmp.Decode)
	case ".tif", ".tiff":
		return decodeReader(path, tiff.Decode)
	case ".tga":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return DecodeTGA(data)
	case ".hdr":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		hdr, err := formats.ParseHDR(data)
		if err != nil {
			return nil, err
		}
		return hdr.Image(), nil
	case ".vtf":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return formats.DecodeVTF(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func decodeReader(path string, dec func(io.Reader) (image.Image, error)) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dec(f)
}

package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Radiance HDR format errors.
var (
	ErrInvalidHDRHeader     = errors.New("invalid Radiance HDR header")
	ErrUnsupportedHDRFormat = errors.New("unsupported Radiance HDR format")
	ErrInvalidHDRResolution = errors.New("invalid Radiance HDR resolution")
	ErrTruncatedHDRData     = errors.New("truncated Radiance HDR data")
)

// HDR represents a decoded Radiance RGBE image with linear float pixels,
// three components per pixel in row-major order.
type HDR struct {
	Width  int
	Height int
	Pixels []float32
}

// ParseHDR parses a Radiance RGBE image from raw bytes. Both flat and
// adaptive run-length encoded scanlines are supported; the obsolete
// shift-count run encoding of early Radiance versions is not.
func ParseHDR(data []byte) (*HDR, error) {
	r := bufio.NewReader(bytes.NewReader(data))

	magic, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: missing magic", ErrInvalidHDRHeader)
	}
	if !strings.HasPrefix(magic, "#?RADIANCE") && !strings.HasPrefix(magic, "#?RGBE") {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidHDRHeader)
	}

	formatSeen := false
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated header", ErrInvalidHDRHeader)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if v, ok := strings.CutPrefix(line, "FORMAT="); ok {
			if strings.TrimSpace(v) != "32-bit_rle_rgbe" {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedHDRFormat, strings.TrimSpace(v))
			}
			formatSeen = true
		}
		// EXPOSURE, PRIMARIES and other variables are ignored.
	}
	if !formatSeen {
		return nil, fmt.Errorf("%w: missing FORMAT line", ErrInvalidHDRHeader)
	}

	res, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: missing resolution line", ErrInvalidHDRResolution)
	}
	fields := strings.Fields(res)
	if len(fields) != 4 || fields[0] != "-Y" || fields[2] != "+X" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHDRResolution, strings.TrimSpace(res))
	}
	height, err := strconv.Atoi(fields[1])
	if err != nil || height < 1 {
		return nil, fmt.Errorf("%w: height %q", ErrInvalidHDRResolution, fields[1])
	}
	width, err := strconv.Atoi(fields[3])
	if err != nil || width < 1 {
		return nil, fmt.Errorf("%w: width %q", ErrInvalidHDRResolution, fields[3])
	}

	hdr := &HDR{
		Width:  width,
		Height: height,
		Pixels: make([]float32, width*height*3),
	}
	scan := make([]byte, width*4)
	for y := 0; y < height; y++ {
		if err := readHDRScanline(r, scan, width); err != nil {
			return nil, err
		}
		for x := 0; x < width; x++ {
			rgbeToLinear(scan[x*4:x*4+4], hdr.Pixels[(y*width+x)*3:])
		}
	}
	return hdr, nil
}

// ParseHDRFile parses a Radiance RGBE image from disk.
func ParseHDRFile(path string) (*HDR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading HDR file: %w", err)
	}
	return ParseHDR(data)
}

// readHDRScanline fills scan with width interleaved RGBE quads.
func readHDRScanline(r *bufio.Reader, scan []byte, width int) error {
	// Adaptive RLE is only defined for widths in [8, 32767].
	if width < 8 || width > 0x7FFF {
		return readFlatScanline(r, scan)
	}

	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return fmt.Errorf("%w: scanline header", ErrTruncatedHDRData)
	}
	if head[0] != 2 || head[1] != 2 || head[2]&0x80 != 0 {
		// Flat scanline; the four bytes already hold its first pixel.
		copy(scan, head[:])
		return readFlatScanline(r, scan[4:])
	}
	if int(head[2])<<8|int(head[3]) != width {
		return fmt.Errorf("%w: scanline width mismatch", ErrInvalidHDRResolution)
	}

	// Each component is stored as its own run-length encoded plane.
	for c := 0; c < 4; c++ {
		for x := 0; x < width; {
			n, err := r.ReadByte()
			if err != nil {
				return fmt.Errorf("%w: run length", ErrTruncatedHDRData)
			}
			if n > 128 {
				run := int(n) - 128
				v, err := r.ReadByte()
				if err != nil {
					return fmt.Errorf("%w: run value", ErrTruncatedHDRData)
				}
				if x+run > width {
					return fmt.Errorf("%w: run overflows scanline", ErrTruncatedHDRData)
				}
				for i := 0; i < run; i++ {
					scan[(x+i)*4+c] = v
				}
				x += run
			} else {
				run := int(n)
				if run == 0 || x+run > width {
					return fmt.Errorf("%w: bad literal run", ErrTruncatedHDRData)
				}
				for i := 0; i < run; i++ {
					v, err := r.ReadByte()
					if err != nil {
						return fmt.Errorf("%w: literal value", ErrTruncatedHDRData)
					}
					scan[(x+i)*4+c] = v
				}
				x += run
			}
		}
	}
	return nil
}

// readFlatScanline reads uncompressed RGBE quads into scan.
func readFlatScanline(r *bufio.Reader, scan []byte) error {
	if _, err := io.ReadFull(r, scan); err != nil {
		return fmt.Errorf("%w: flat scanline", ErrTruncatedHDRData)
	}
	return nil
}

// rgbeToLinear converts one shared-exponent RGBE quad to linear RGB.
func rgbeToLinear(rgbe []byte, out []float32) {
	e := rgbe[3]
	if e == 0 {
		out[0], out[1], out[2] = 0, 0, 0
		return
	}
	f := float32(math.Ldexp(1, int(e)-(128+8)))
	out[0] = float32(rgbe[0]) * f
	out[1] = float32(rgbe[1]) * f
	out[2] = float32(rgbe[2]) * f
}

// Image converts the linear pixels to an 8-bit RGBA image, clamping to
// [0, 1] and applying display gamma 1/2.2.
func (h *HDR) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, h.Width, h.Height))
	for p := 0; p < h.Width*h.Height; p++ {
		i := p * 4
		img.Pix[i] = hdrToneByte(h.Pixels[p*3])
		img.Pix[i+1] = hdrToneByte(h.Pixels[p*3+1])
		img.Pix[i+2] = hdrToneByte(h.Pixels[p*3+2])
		img.Pix[i+3] = 0xFF
	}
	return img
}

func hdrToneByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(255*math.Pow(float64(v), 1/2.2) + 0.5)
}

package formats

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// buildHDRHeader returns a Radiance header for the given resolution.
func buildHDRHeader(width, height int) *bytes.Buffer {
	var buf bytes.Buffer
	buf.WriteString("#?RADIANCE\n")
	buf.WriteString("# synthetic test image\n")
	buf.WriteString("FORMAT=32-bit_rle_rgbe\n")
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "-Y %d +X %d\n", height, width)
	return &buf
}

func TestParseHDRFlat(t *testing.T) {
	// Width 4 is below the adaptive RLE minimum, so scanlines are flat.
	buf := buildHDRHeader(4, 2)
	for i := 0; i < 4*2; i++ {
		buf.Write([]byte{128, 64, 255, 128})
	}

	hdr, err := ParseHDR(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseHDR() error = %v", err)
	}
	if hdr.Width != 4 || hdr.Height != 2 {
		t.Fatalf("size = %dx%d, want 4x2", hdr.Width, hdr.Height)
	}

	// Exponent 128 scales mantissas by 2^-8.
	want := [3]float32{0.5, 0.25, 255.0 / 256.0}
	for p := 0; p < 4*2; p++ {
		got := [3]float32{hdr.Pixels[p*3], hdr.Pixels[p*3+1], hdr.Pixels[p*3+2]}
		if got != want {
			t.Fatalf("pixel %d = %v, want %v", p, got, want)
		}
	}
}

func TestParseHDRAdaptiveRLE(t *testing.T) {
	buf := buildHDRHeader(8, 2)
	for y := 0; y < 2; y++ {
		// Marker, then per-component planes: R and G as runs of eight,
		// B as eight literals, E as a run of eight.
		buf.Write([]byte{2, 2, 0, 8})
		buf.Write([]byte{136, 100})
		buf.Write([]byte{136, 50})
		buf.Write([]byte{8, 1, 2, 3, 4, 5, 6, 7, 8})
		buf.Write([]byte{136, 128})
	}

	hdr, err := ParseHDR(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseHDR() error = %v", err)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 8; x++ {
			p := (y*8 + x) * 3
			if got, want := hdr.Pixels[p], float32(100)/256; got != want {
				t.Fatalf("pixel (%d,%d) R = %v, want %v", x, y, got, want)
			}
			if got, want := hdr.Pixels[p+2], float32(x+1)/256; got != want {
				t.Fatalf("pixel (%d,%d) B = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestParseHDRFlatScanlineAtRLEWidth(t *testing.T) {
	// Width allows RLE but the scanline does not start with the RLE marker,
	// so it must be read flat.
	buf := buildHDRHeader(8, 1)
	for i := 0; i < 8; i++ {
		buf.Write([]byte{200, 100, 50, 128})
	}

	hdr, err := ParseHDR(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseHDR() error = %v", err)
	}
	if got, want := hdr.Pixels[0], float32(200)/256; got != want {
		t.Errorf("pixel 0 R = %v, want %v", got, want)
	}
}

func TestParseHDRZeroExponent(t *testing.T) {
	buf := buildHDRHeader(4, 1)
	for i := 0; i < 4; i++ {
		buf.Write([]byte{10, 20, 30, 0})
	}

	hdr, err := ParseHDR(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseHDR() error = %v", err)
	}
	for i, v := range hdr.Pixels {
		if v != 0 {
			t.Fatalf("Pixels[%d] = %v, want 0", i, v)
		}
	}
}

func TestHDRImage(t *testing.T) {
	buf := buildHDRHeader(4, 1)
	// Linear 0.25, an overbright value, black, and exactly 1.0.
	buf.Write([]byte{128, 128, 128, 127})
	buf.Write([]byte{255, 255, 255, 150})
	buf.Write([]byte{0, 0, 0, 0})
	buf.Write([]byte{128, 128, 128, 129})

	hdr, err := ParseHDR(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseHDR() error = %v", err)
	}

	img := hdr.Image()
	if got := img.RGBAAt(0, 0).R; got != 136 {
		t.Errorf("gamma(0.25) = %d, want 136", got)
	}
	if got := img.RGBAAt(1, 0).R; got != 255 {
		t.Errorf("overbright pixel = %d, want 255", got)
	}
	if got := img.RGBAAt(2, 0).R; got != 0 {
		t.Errorf("black pixel = %d, want 0", got)
	}
	if got := img.RGBAAt(3, 0).R; got != 255 {
		t.Errorf("white pixel = %d, want 255", got)
	}
	if got := img.RGBAAt(0, 0).A; got != 0xFF {
		t.Errorf("alpha = %d, want 255", got)
	}
}

func TestParseHDRErrors(t *testing.T) {
	valid := buildHDRHeader(4, 1)
	for i := 0; i < 4; i++ {
		valid.Write([]byte{128, 128, 128, 128})
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{
			name: "bad magic",
			data: []byte("#?NOTRAD\nFORMAT=32-bit_rle_rgbe\n\n-Y 1 +X 4\n"),
			want: ErrInvalidHDRHeader,
		},
		{
			name: "unsupported format",
			data: []byte("#?RADIANCE\nFORMAT=32-bit_rle_xyze\n\n-Y 1 +X 4\n"),
			want: ErrUnsupportedHDRFormat,
		},
		{
			name: "missing format",
			data: []byte("#?RADIANCE\n\n-Y 1 +X 4\n"),
			want: ErrInvalidHDRHeader,
		},
		{
			name: "flipped resolution",
			data: []byte("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n+X 4 -Y 1\n"),
			want: ErrInvalidHDRResolution,
		},
		{
			name: "truncated pixels",
			data: valid.Bytes()[:valid.Len()-6],
			want: ErrTruncatedHDRData,
		},
	}

	for _, tt := range tests {
		if _, err := ParseHDR(tt.data); !errors.Is(err, tt.want) {
			t.Errorf("%s: ParseHDR() error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestParseHDRFile(t *testing.T) {
	buf := buildHDRHeader(4, 1)
	for i := 0; i < 4; i++ {
		buf.Write([]byte{128, 128, 128, 128})
	}

	path := filepath.Join(t.TempDir(), "probe.hdr")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	hdr, err := ParseHDRFile(path)
	if err != nil {
		t.Fatalf("ParseHDRFile() error = %v", err)
	}
	if hdr.Width != 4 || hdr.Height != 1 {
		t.Errorf("size = %dx%d, want 4x1", hdr.Width, hdr.Height)
	}

	if _, err := ParseHDRFile(filepath.Join(t.TempDir(), "missing.hdr")); err == nil {
		t.Error("ParseHDRFile() expected error for missing file")
	}
}

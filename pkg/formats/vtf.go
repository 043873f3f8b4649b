package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"os"
)

// VTF format errors.
var (
	ErrInvalidVTFMagic       = errors.New("invalid VTF magic: expected 'VTF\\0'")
	ErrUnsupportedVTFVersion = errors.New("unsupported VTF version")
	ErrTruncatedVTFData      = errors.New("truncated VTF data")
	ErrUnsupportedVTFFormat  = errors.New("unsupported VTF image format")
	ErrInvalidVTFImage       = errors.New("invalid VTF image dimensions")
)

// VTFVersion represents the VTF container version.
type VTFVersion struct {
	Major uint32
	Minor uint32
}

// String returns the version as "Major.Minor".
func (v VTFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// VTFFormat identifies a VTF pixel format. Negative means "none".
type VTFFormat int32

// VTF pixel formats. Only the uncompressed byte formats are supported for
// encode and decode; the DXT formats are recognized so foreign files report
// a distinguishable error instead of garbage.
const (
	VTFFormatRGBA8888 VTFFormat = 0
	VTFFormatABGR8888 VTFFormat = 1
	VTFFormatRGB888   VTFFormat = 2
	VTFFormatBGR888   VTFFormat = 3
	VTFFormatRGB565   VTFFormat = 4
	VTFFormatI8       VTFFormat = 5
	VTFFormatIA88     VTFFormat = 6
	VTFFormatP8       VTFFormat = 7
	VTFFormatA8       VTFFormat = 8
	VTFFormatARGB8888 VTFFormat = 11
	VTFFormatBGRA8888 VTFFormat = 12
	VTFFormatDXT1     VTFFormat = 13
	VTFFormatDXT3     VTFFormat = 14
	VTFFormatDXT5     VTFFormat = 15
	VTFFormatBGRX8888 VTFFormat = 16
	VTFFormatNone     VTFFormat = -1
)

// String returns the format's canonical name.
func (f VTFFormat) String() string {
	switch f {
	case VTFFormatRGBA8888:
		return "RGBA8888"
	case VTFFormatABGR8888:
		return "ABGR8888"
	case VTFFormatRGB888:
		return "RGB888"
	case VTFFormatBGR888:
		return "BGR888"
	case VTFFormatRGB565:
		return "RGB565"
	case VTFFormatI8:
		return "I8"
	case VTFFormatIA88:
		return "IA88"
	case VTFFormatP8:
		return "P8"
	case VTFFormatA8:
		return "A8"
	case VTFFormatARGB8888:
		return "ARGB8888"
	case VTFFormatBGRA8888:
		return "BGRA8888"
	case VTFFormatDXT1:
		return "DXT1"
	case VTFFormatDXT3:
		return "DXT3"
	case VTFFormatDXT5:
		return "DXT5"
	case VTFFormatBGRX8888:
		return "BGRX8888"
	case VTFFormatNone:
		return "NONE"
	default:
		return fmt.Sprintf("unknown(%d)", int32(f))
	}
}

// HasAlpha reports whether the format stores an alpha channel.
func (f VTFFormat) HasAlpha() bool {
	switch f {
	case VTFFormatRGBA8888, VTFFormatABGR8888, VTFFormatIA88, VTFFormatA8,
		VTFFormatARGB8888, VTFFormatBGRA8888, VTFFormatDXT3, VTFFormatDXT5:
		return true
	}
	return false
}

// VTF texture flags.
const (
	VTFFlagPointSample   uint32 = 0x00000001
	VTFFlagTrilinear     uint32 = 0x00000002
	VTFFlagClampS        uint32 = 0x00000004
	VTFFlagClampT        uint32 = 0x00000008
	VTFFlagAnisotropic   uint32 = 0x00000010
	VTFFlagSRGB          uint32 = 0x00000040
	VTFFlagNormal        uint32 = 0x00000080
	VTFFlagNoMip         uint32 = 0x00000100
	VTFFlagNoLOD         uint32 = 0x00000200
	VTFFlagOneBitAlpha   uint32 = 0x00001000
	VTFFlagEightBitAlpha uint32 = 0x00002000
	VTFFlagEnvmap        uint32 = 0x00004000
)

// Resource tags used by the 7.3+ resource dictionary.
var (
	vtfResourceLowRes  = [3]byte{0x01, 0x00, 0x00}
	vtfResourceHighRes = [3]byte{0x30, 0x00, 0x00}
)

// VTF represents a parsed VTF texture.
type VTF struct {
	Version      VTFVersion
	Width        uint16
	Height       uint16
	Flags        uint32
	Frames       uint16
	Reflectivity [3]float32
	BumpScale    float32
	Format       VTFFormat
	MipCount     uint8
	Depth        uint16

	// highRes holds the raw high-resolution image data: all mip levels,
	// smallest first, each level holding Frames frames.
	highRes []byte
}

// vtfBaseHeader is the 7.0 header body after the magic, version and header
// size fields. Later versions append to it.
type vtfBaseHeader struct {
	Width         uint16
	Height        uint16
	Flags         uint32
	Frames        uint16
	FirstFrame    uint16
	Padding0      [4]byte
	Reflectivity  [3]float32
	Padding1      [4]byte
	BumpScale     float32
	HighResFormat int32
	MipCount      uint8
	LowResFormat  int32
	LowResWidth   uint8
	LowResHeight  uint8
}

// vtfResourceEntry is one 7.3+ resource dictionary entry.
type vtfResourceEntry struct {
	Tag    [3]byte
	Flags  uint8
	Offset uint32
}

// ParseVTF parses a VTF texture from raw bytes.
func ParseVTF(data []byte) (*VTF, error) {
	if len(data) < 16 {
		return nil, ErrTruncatedVTFData
	}
	if data[0] != 'V' || data[1] != 'T' || data[2] != 'F' || data[3] != 0 {
		return nil, ErrInvalidVTFMagic
	}

	r := bytes.NewReader(data[4:])

	var version VTFVersion
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: reading version", ErrTruncatedVTFData)
	}
	if version.Major != 7 || version.Minor > 6 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVTFVersion, version)
	}

	var headerSize uint32
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("%w: reading header size", ErrTruncatedVTFData)
	}
	if int(headerSize) > len(data) {
		return nil, fmt.Errorf("%w: header size %d exceeds file size", ErrTruncatedVTFData, headerSize)
	}

	var hdr vtfBaseHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedVTFData)
	}
	if hdr.Width == 0 || hdr.Height == 0 {
		return nil, ErrInvalidVTFImage
	}

	vtf := &VTF{
		Version:      version,
		Width:        hdr.Width,
		Height:       hdr.Height,
		Flags:        hdr.Flags,
		Frames:       hdr.Frames,
		Reflectivity: hdr.Reflectivity,
		BumpScale:    hdr.BumpScale,
		Format:       VTFFormat(hdr.HighResFormat),
		MipCount:     hdr.MipCount,
		Depth:        1,
	}
	if vtf.Frames == 0 {
		vtf.Frames = 1
	}

	if version.Minor >= 2 {
		if err := binary.Read(r, binary.LittleEndian, &vtf.Depth); err != nil {
			return nil, fmt.Errorf("%w: reading depth", ErrTruncatedVTFData)
		}
	}

	// Locate the high-resolution image data: via the resource dictionary
	// for 7.3+, or directly after the header and low-res thumbnail before.
	highResOffset := -1
	if version.Minor >= 3 {
		var padding2 [3]byte
		if err := binary.Read(r, binary.LittleEndian, &padding2); err != nil {
			return nil, fmt.Errorf("%w: reading resource padding", ErrTruncatedVTFData)
		}
		var numResources uint32
		if err := binary.Read(r, binary.LittleEndian, &numResources); err != nil {
			return nil, fmt.Errorf("%w: reading resource count", ErrTruncatedVTFData)
		}
		var padding3 [8]byte
		if err := binary.Read(r, binary.LittleEndian, &padding3); err != nil {
			return nil, fmt.Errorf("%w: reading resource padding", ErrTruncatedVTFData)
		}
		for i := uint32(0); i < numResources; i++ {
			var entry vtfResourceEntry
			if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
				return nil, fmt.Errorf("%w: reading resource entry %d", ErrTruncatedVTFData, i)
			}
			if entry.Tag == vtfResourceHighRes {
				highResOffset = int(entry.Offset)
			}
		}
	} else {
		lowResSize := 0
		if VTFFormat(hdr.LowResFormat) != VTFFormatNone {
			lowResSize = formatDataSize(VTFFormat(hdr.LowResFormat), int(hdr.LowResWidth), int(hdr.LowResHeight))
		}
		highResOffset = int(headerSize) + lowResSize
	}

	if highResOffset < 0 || highResOffset > len(data) {
		return nil, fmt.Errorf("%w: missing high-resolution image data", ErrTruncatedVTFData)
	}
	vtf.highRes = data[highResOffset:]

	expected := 0
	for mip := 0; mip < int(vtf.MipCount); mip++ {
		expected += formatDataSize(vtf.Format, mipDim(int(vtf.Width), mip), mipDim(int(vtf.Height), mip)) * int(vtf.Frames)
	}
	if len(vtf.highRes) < expected {
		return nil, fmt.Errorf("%w: want %d image bytes, have %d", ErrTruncatedVTFData, expected, len(vtf.highRes))
	}

	return vtf, nil
}

// ParseVTFFile parses a VTF texture from disk.
func ParseVTFFile(path string) (*VTF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading VTF file: %w", err)
	}
	return ParseVTF(data)
}

// Image decodes the largest mip of the first frame into an RGBA image.
func (v *VTF) Image() (*image.RGBA, error) {
	w, h := int(v.Width), int(v.Height)
	largest := formatDataSize(v.Format, w, h)
	block := largest * int(v.Frames)
	if block > len(v.highRes) {
		return nil, fmt.Errorf("%w: largest mip", ErrTruncatedVTFData)
	}
	// Mips are stored smallest first, so the largest level sits at the end.
	frame := v.highRes[len(v.highRes)-block:][:largest]
	return pixelsToRGBA(frame, w, h, v.Format)
}

// DecodeVTF parses a VTF texture and decodes its largest mip.
func DecodeVTF(data []byte) (image.Image, error) {
	vtf, err := ParseVTF(data)
	if err != nil {
		return nil, err
	}
	return vtf.Image()
}

// VTFOptions controls VTF encoding.
type VTFOptions struct {
	// Version is the container version to write (default 7.4). Only major
	// version 7 is supported.
	Version VTFVersion
	// Format is the pixel format of the high-resolution image (the zero
	// value is RGBA8888).
	Format VTFFormat
	// Mipmaps generates the full mip chain. Requires power-of-two
	// dimensions; non-power-of-two images fall back to a single level with
	// the NoMip and NoLOD flags set.
	Mipmaps bool
	// Flags are OR'd into the header texture flags.
	Flags uint32
	// BumpScale is the bump mapping scale (default 1.0).
	BumpScale float32
	// Reflectivity overrides the computed average color hint.
	Reflectivity *[3]float32
}

// normalize normalizes the VTFOptions.
func (o *VTFOptions) normalize() VTFOptions {
	if o == nil {
		return VTFOptions{Version: VTFVersion{7, 4}, BumpScale: 1}
	}

	out := *o
	if out.Version == (VTFVersion{}) {
		out.Version = VTFVersion{7, 4}
	}
	if out.BumpScale == 0 {
		out.BumpScale = 1
	}
	return out
}

// EncodeVTF encodes an image as a VTF texture.
func EncodeVTF(img image.Image, opt *VTFOptions) ([]byte, error) {
	fopt := opt.normalize()
	if fopt.Version.Major != 7 || fopt.Version.Minor > 6 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVTFVersion, fopt.Version)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 1 || h < 1 || w > 0xFFFF || h > 0xFFFF {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidVTFImage, w, h)
	}

	rgba := asRGBA(img)

	flags := fopt.Flags
	if fopt.Format.HasAlpha() {
		flags |= VTFFlagEightBitAlpha
	}

	mips := 1
	if fopt.Mipmaps && isPow2(w) && isPow2(h) {
		mips = mipLevels(w, h)
	} else {
		flags |= VTFFlagNoMip | VTFFlagNoLOD
	}

	chain := buildMipChain(rgba, mips)

	var body bytes.Buffer
	// Mip levels are written smallest first.
	for i := len(chain) - 1; i >= 0; i-- {
		pixels, err := rgbaToPixels(chain[i], fopt.Format)
		if err != nil {
			return nil, err
		}
		body.Write(pixels)
	}

	reflectivity := averageColor(rgba)
	if fopt.Reflectivity != nil {
		reflectivity = *fopt.Reflectivity
	}

	headerSize := vtfHeaderSize(fopt.Version)

	var buf bytes.Buffer
	buf.WriteString("VTF\x00")
	binary.Write(&buf, binary.LittleEndian, fopt.Version)
	binary.Write(&buf, binary.LittleEndian, headerSize)
	binary.Write(&buf, binary.LittleEndian, vtfBaseHeader{
		Width:         uint16(w),
		Height:        uint16(h),
		Flags:         flags,
		Frames:        1,
		FirstFrame:    0,
		Reflectivity:  reflectivity,
		BumpScale:     fopt.BumpScale,
		HighResFormat: int32(fopt.Format),
		MipCount:      uint8(mips),
		LowResFormat:  int32(VTFFormatNone),
	})
	if fopt.Version.Minor >= 2 {
		binary.Write(&buf, binary.LittleEndian, uint16(1)) // depth
	}
	if fopt.Version.Minor >= 3 {
		// Resource dictionary: padding, entry count, more padding, then a
		// lone high-resolution image entry.
		buf.Write([]byte{0, 0, 0})
		binary.Write(&buf, binary.LittleEndian, uint32(1))
		buf.Write(make([]byte, 8))
		binary.Write(&buf, binary.LittleEndian, vtfResourceEntry{
			Tag:    vtfResourceHighRes,
			Offset: headerSize,
		})
	}
	// Pad to the declared header size (versions before 7.3 align it to 16
	// bytes, leaving a gap after the last field).
	for uint32(buf.Len()) < headerSize {
		buf.WriteByte(0)
	}

	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

// vtfHeaderSize returns the 16-byte-aligned header size for a version,
// including the resource dictionary written by EncodeVTF.
func vtfHeaderSize(v VTFVersion) uint32 {
	switch {
	case v.Minor >= 3:
		// 80-byte header plus a single high-res resource entry.
		return 80 + 8
	case v.Minor == 2:
		return 80
	default:
		return 64
	}
}

// formatDataSize returns the byte size of a single image of the given
// format and dimensions.
func formatDataSize(f VTFFormat, w, h int) int {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	switch f {
	case VTFFormatRGBA8888, VTFFormatABGR8888, VTFFormatARGB8888, VTFFormatBGRA8888, VTFFormatBGRX8888:
		return w * h * 4
	case VTFFormatRGB888, VTFFormatBGR888:
		return w * h * 3
	case VTFFormatRGB565, VTFFormatIA88:
		return w * h * 2
	case VTFFormatI8, VTFFormatP8, VTFFormatA8:
		return w * h
	case VTFFormatDXT1:
		return ((w + 3) / 4) * ((h + 3) / 4) * 8
	case VTFFormatDXT3, VTFFormatDXT5:
		return ((w + 3) / 4) * ((h + 3) / 4) * 16
	default:
		return 0
	}
}

// mipDim returns a dimension shrunk to the given mip level, clamped at 1.
func mipDim(d, mip int) int {
	d >>= mip
	if d < 1 {
		return 1
	}
	return d
}

// mipLevels returns the full mip chain length down to 1x1.
func mipLevels(w, h int) int {
	levels := 1
	for w > 1 || h > 1 {
		w = mipDim(w, 1)
		h = mipDim(h, 1)
		levels++
	}
	return levels
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// buildMipChain returns the image followed by each successively halved mip
// level, largest first.
func buildMipChain(img *image.RGBA, levels int) []*image.RGBA {
	chain := make([]*image.RGBA, 0, levels)
	chain = append(chain, img)
	for i := 1; i < levels; i++ {
		chain = append(chain, halveRGBA(chain[i-1]))
	}
	return chain
}

// halveRGBA shrinks an image to half size with a 2x2 box filter.
func halveRGBA(src *image.RGBA) *image.RGBA {
	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	dw, dh := mipDim(sw, 1), mipDim(sh, 1)
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			x0, y0 := x*2, y*2
			x1, y1 := x0+1, y0+1
			if x1 >= sw {
				x1 = x0
			}
			if y1 >= sh {
				y1 = y0
			}
			di := dst.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				sum := int(src.Pix[src.PixOffset(x0, y0)+c]) +
					int(src.Pix[src.PixOffset(x1, y0)+c]) +
					int(src.Pix[src.PixOffset(x0, y1)+c]) +
					int(src.Pix[src.PixOffset(x1, y1)+c])
				dst.Pix[di+c] = uint8((sum + 2) / 4)
			}
		}
	}
	return dst
}

// asRGBA returns img as *image.RGBA with a zero-origin bounds, copying only
// when necessary.
func asRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r16, g16, b16, a16 := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := rgba.PixOffset(x, y)
			rgba.Pix[i] = uint8(r16 >> 8)
			rgba.Pix[i+1] = uint8(g16 >> 8)
			rgba.Pix[i+2] = uint8(b16 >> 8)
			rgba.Pix[i+3] = uint8(a16 >> 8)
		}
	}
	return rgba
}

// averageColor returns the mean RGB of an image scaled to 0..1, used as the
// reflectivity hint.
func averageColor(img *image.RGBA) [3]float32 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return [3]float32{}
	}
	var sum [3]uint64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			sum[0] += uint64(img.Pix[i])
			sum[1] += uint64(img.Pix[i+1])
			sum[2] += uint64(img.Pix[i+2])
		}
	}
	n := uint64(w * h)
	return [3]float32{
		float32(sum[0]/n) / 255,
		float32(sum[1]/n) / 255,
		float32(sum[2]/n) / 255,
	}
}

// rgbaToPixels converts RGBA pixels into the given VTF pixel format.
func rgbaToPixels(img *image.RGBA, f VTFFormat) ([]byte, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]byte, 0, formatDataSize(f, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			r, g, b, a := img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]
			switch f {
			case VTFFormatRGBA8888:
				out = append(out, r, g, b, a)
			case VTFFormatABGR8888:
				out = append(out, a, b, g, r)
			case VTFFormatARGB8888:
				out = append(out, a, r, g, b)
			case VTFFormatBGRA8888:
				out = append(out, b, g, r, a)
			case VTFFormatBGRX8888:
				out = append(out, b, g, r, 0xFF)
			case VTFFormatRGB888:
				out = append(out, r, g, b)
			case VTFFormatBGR888:
				out = append(out, b, g, r)
			case VTFFormatI8:
				out = append(out, luma(r, g, b))
			case VTFFormatIA88:
				out = append(out, luma(r, g, b), a)
			case VTFFormatA8:
				out = append(out, a)
			case VTFFormatDXT1, VTFFormatDXT3, VTFFormatDXT5:
				return nil, fmt.Errorf("%w: DXT compression is not supported", ErrUnsupportedVTFFormat)
			default:
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedVTFFormat, f)
			}
		}
	}
	return out, nil
}

// pixelsToRGBA converts raw VTF pixel data into an RGBA image.
func pixelsToRGBA(data []byte, w, h int, f VTFFormat) (*image.RGBA, error) {
	need := formatDataSize(f, w, h)
	if need == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVTFFormat, f)
	}
	if len(data) < need {
		return nil, fmt.Errorf("%w: pixel data", ErrTruncatedVTFData)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for p := 0; p < w*h; p++ {
		var r, g, b, a uint8
		switch f {
		case VTFFormatRGBA8888:
			r, g, b, a = data[p*4], data[p*4+1], data[p*4+2], data[p*4+3]
		case VTFFormatABGR8888:
			a, b, g, r = data[p*4], data[p*4+1], data[p*4+2], data[p*4+3]
		case VTFFormatARGB8888:
			a, r, g, b = data[p*4], data[p*4+1], data[p*4+2], data[p*4+3]
		case VTFFormatBGRA8888:
			b, g, r, a = data[p*4], data[p*4+1], data[p*4+2], data[p*4+3]
		case VTFFormatBGRX8888:
			b, g, r, a = data[p*4], data[p*4+1], data[p*4+2], 0xFF
		case VTFFormatRGB888:
			r, g, b, a = data[p*3], data[p*3+1], data[p*3+2], 0xFF
		case VTFFormatBGR888:
			b, g, r, a = data[p*3], data[p*3+1], data[p*3+2], 0xFF
		case VTFFormatI8:
			r, g, b, a = data[p], data[p], data[p], 0xFF
		case VTFFormatIA88:
			r, g, b, a = data[p*2], data[p*2], data[p*2], data[p*2+1]
		case VTFFormatA8:
			r, g, b, a = 0, 0, 0, data[p]
		case VTFFormatDXT1, VTFFormatDXT3, VTFFormatDXT5:
			return nil, fmt.Errorf("%w: DXT decompression is not supported", ErrUnsupportedVTFFormat)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedVTFFormat, f)
		}
		i := p * 4
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, a
	}
	return img, nil
}

// luma converts RGB to single-channel intensity (ITU-R 601 weights).
func luma(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

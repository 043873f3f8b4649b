package material

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// MissingChannelError reports a mandatory channel absent at assembly time.
type MissingChannelError struct {
	Role Role
}

func (e *MissingChannelError) Error() string {
	return fmt.Sprintf("mandatory %s channel is not set", e.Role)
}

// Defaults synthesized for missing optional channels.
var (
	defaultNormal   = color.RGBA{128, 128, 255, 255}
	defaultMetallic = uint8(0x00)
	defaultHeight   = uint8(0x80)
)

// Normalized holds every channel of a material resampled to a common
// reference size and converted to its canonical color mode. Emit and AO are
// nil when their channels are absent; the other optional channels are
// synthesized from flat defaults.
type Normalized struct {
	Size      image.Point
	Albedo    *image.RGBA
	Roughness *image.Gray
	Metallic  *image.Gray
	Emit      *image.Gray
	AO        *image.Gray
	Normal    *image.RGBA
	Height    *image.Gray
}

// Normalize reconciles decoded channel images into a normalized set. The
// reference size is the Normal channel's size when present, otherwise the
// Roughness channel's size; every channel is stretched to it. The result is
// deterministic for a given input set.
func Normalize(channels map[Role]image.Image) (*Normalized, error) {
	albedo := channels[RoleAlbedo]
	rough := channels[RoleRoughness]
	if albedo == nil {
		return nil, &MissingChannelError{Role: RoleAlbedo}
	}
	if rough == nil {
		return nil, &MissingChannelError{Role: RoleRoughness}
	}

	size := imageSize(rough)
	if n := channels[RoleNormal]; n != nil {
		size = imageSize(n)
	}

	out := &Normalized{
		Size:      size,
		Albedo:    toRGBA(albedo, size),
		Roughness: toGray(rough, size),
	}

	if img := channels[RoleMetallic]; img != nil {
		out.Metallic = toGray(img, size)
	} else {
		out.Metallic = flatGray(size, defaultMetallic)
	}
	if img := channels[RoleNormal]; img != nil {
		out.Normal = toRGBA(img, size)
	} else {
		out.Normal = flatRGBA(size, defaultNormal)
	}
	if img := channels[RoleHeight]; img != nil {
		out.Height = toGray(img, size)
	} else {
		out.Height = flatGray(size, defaultHeight)
	}
	// Emit and AO stay absent rather than defaulting; the exporter omits
	// the outputs that would need them.
	if img := channels[RoleEmit]; img != nil {
		out.Emit = toGray(img, size)
	}
	if img := channels[RoleAO]; img != nil {
		out.AO = toGray(img, size)
	}

	return out, nil
}

// validate checks the normalizer invariants on an assembled set.
func (n *Normalized) validate() error {
	if n.Albedo == nil {
		return &MissingChannelError{Role: RoleAlbedo}
	}
	if n.Roughness == nil {
		return &MissingChannelError{Role: RoleRoughness}
	}
	if n.Metallic == nil {
		return fmt.Errorf("metallic channel missing from normalized set")
	}
	if n.Normal == nil {
		return fmt.Errorf("normal channel missing from normalized set")
	}
	if n.Height == nil {
		return fmt.Errorf("height channel missing from normalized set")
	}

	bounds := map[Role]image.Rectangle{
		RoleAlbedo:    n.Albedo.Rect,
		RoleRoughness: n.Roughness.Rect,
		RoleMetallic:  n.Metallic.Rect,
		RoleNormal:    n.Normal.Rect,
		RoleHeight:    n.Height.Rect,
	}
	if n.Emit != nil {
		bounds[RoleEmit] = n.Emit.Rect
	}
	if n.AO != nil {
		bounds[RoleAO] = n.AO.Rect
	}
	for role, b := range bounds {
		if b.Dx() != n.Size.X || b.Dy() != n.Size.Y {
			return fmt.Errorf("%s channel is %dx%d, reference size is %dx%d",
				role, b.Dx(), b.Dy(), n.Size.X, n.Size.Y)
		}
	}
	return nil
}

func imageSize(img image.Image) image.Point {
	b := img.Bounds()
	return image.Point{X: b.Dx(), Y: b.Dy()}
}

// toRGBA stretches img to size and converts it to RGBA.
func toRGBA(img image.Image, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	scaleInto(dst, img)
	return dst
}

// toGray stretches img to size and reduces it to luminance.
func toGray(img image.Image, size image.Point) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	scaleInto(dst, img)
	return dst
}

// scaleInto fills dst from src, stretching to dst's bounds. Same-size
// sources are copied directly so unresized channels survive byte-exact.
func scaleInto(dst draw.Image, src image.Image) {
	db, sb := dst.Bounds(), src.Bounds()
	if db.Dx() == sb.Dx() && db.Dy() == sb.Dy() {
		draw.Draw(dst, db, src, sb.Min, draw.Src)
		return
	}
	draw.ApproxBiLinear.Scale(dst, db, src, sb, draw.Src, nil)
}

func flatGray(size image.Point, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func flatRGBA(size image.Point, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

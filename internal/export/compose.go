package export

import (
	"image"

	"github.com/sourcetex/matforge/internal/material"
)

// composeImage renders one output texture from the normalized channels
// following a recipe.
func composeImage(n *material.Normalized, r recipe) *image.RGBA {
	w, h := n.Size.X, n.Size.Y
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := out.PixOffset(x, y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = rgbAt(n, r.RGB, x, y)
			out.Pix[i+3] = alphaAt(n, r.Alpha, x, y)
		}
	}
	return out
}

func rgbAt(n *material.Normalized, src rgbSource, x, y int) (uint8, uint8, uint8) {
	switch src {
	case rgbAlbedo:
		i := n.Albedo.PixOffset(x, y)
		return n.Albedo.Pix[i], n.Albedo.Pix[i+1], n.Albedo.Pix[i+2]
	case rgbAlbedoAO:
		i := n.Albedo.PixOffset(x, y)
		r, g, b := n.Albedo.Pix[i], n.Albedo.Pix[i+1], n.Albedo.Pix[i+2]
		if n.AO != nil {
			ao := n.AO.Pix[n.AO.PixOffset(x, y)]
			r, g, b = mul8(r, ao), mul8(g, ao), mul8(b, ao)
		}
		return r, g, b
	case rgbNormal:
		i := n.Normal.PixOffset(x, y)
		return n.Normal.Pix[i], n.Normal.Pix[i+1], n.Normal.Pix[i+2]
	case rgbMRAO:
		m := n.Metallic.Pix[n.Metallic.PixOffset(x, y)]
		rough := n.Roughness.Pix[n.Roughness.PixOffset(x, y)]
		ao := uint8(0xFF)
		if n.AO != nil {
			ao = n.AO.Pix[n.AO.PixOffset(x, y)]
		}
		return m, rough, ao
	case rgbEmit:
		v := uint8(0)
		if n.Emit != nil {
			v = n.Emit.Pix[n.Emit.PixOffset(x, y)]
		}
		return v, v, v
	}
	return 0, 0, 0
}

func alphaAt(n *material.Normalized, src alphaSource, x, y int) uint8 {
	switch src {
	case alphaAlbedo:
		return n.Albedo.Pix[n.Albedo.PixOffset(x, y)+3]
	case alphaHeight:
		return n.Height.Pix[n.Height.PixOffset(x, y)]
	case alphaGloss:
		return 0xFF - n.Roughness.Pix[n.Roughness.PixOffset(x, y)]
	case alphaEnvMask:
		gloss := 0xFF - n.Roughness.Pix[n.Roughness.PixOffset(x, y)]
		return mul8(gloss, n.Metallic.Pix[n.Metallic.PixOffset(x, y)])
	case alphaEmitMask:
		if n.Emit == nil {
			return 0x00
		}
		return n.Emit.Pix[n.Emit.PixOffset(x, y)]
	}
	return 0xFF
}

// mul8 multiplies two bytes as normalized fractions with rounding.
func mul8(a, b uint8) uint8 {
	return uint8((uint16(a)*uint16(b) + 127) / 255)
}

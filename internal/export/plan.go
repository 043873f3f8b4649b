package export

import (
	"github.com/sourcetex/matforge/internal/material"
	"github.com/sourcetex/matforge/pkg/formats"
)

// rgbSource selects what fills the color channels of an output texture.
type rgbSource int

const (
	rgbAlbedo   rgbSource = iota // albedo color
	rgbAlbedoAO                  // albedo multiplied by ambient occlusion
	rgbNormal                    // tangent-space normal
	rgbMRAO                      // R=metallic, G=roughness, B=ambient occlusion
	rgbEmit                      // emission replicated to RGB
)

// alphaSource selects what fills the alpha channel of an output texture.
type alphaSource int

const (
	alphaOpaque   alphaSource = iota // constant 0xFF
	alphaAlbedo                      // albedo source alpha
	alphaHeight                      // height channel
	alphaGloss                       // inverted roughness
	alphaEnvMask                     // inverted roughness scaled by metallic
	alphaEmitMask                    // emission as a mask
)

// recipe describes one output texture of a mode: its filename suffix, the
// descriptor parameter referencing it, and the channel packing.
type recipe struct {
	Suffix string
	Param  string
	RGB    rgbSource
	Alpha  alphaSource
	// EmitOnly skips the artifact when the emit channel is absent.
	EmitOnly bool
	// Bump marks the texture as a tangent-space normal map.
	Bump bool
}

// plan is the complete output mapping of one shading mode.
type plan struct {
	Shader  string
	Recipes []recipe
	Statics []formats.VMTParam
}

// phongStatics returns the parameters shared by the phong modes (full
// phong shading, cubemap reflection masked by the normal map alpha),
// followed by any mode-specific extras.
func phongStatics(extra ...formats.VMTParam) []formats.VMTParam {
	out := []formats.VMTParam{
		{Key: "$phong", Value: "1"},
		{Key: "$phongboost", Value: "1"},
		{Key: "$phongexponent", Value: "30"},
		{Key: "$phongfresnelranges", Value: "[0.05 0.5 1]"},
		{Key: "$envmap", Value: "env_cubemap"},
		{Key: "$normalmapalphaenvmapmask", Value: "1"},
	}
	return append(out, extra...)
}

// modePlans maps each shading mode to its output plan. Plans are data; the
// exporter walks them without per-mode control flow.
var modePlans = map[material.Mode]plan{
	material.ModePBRModel: {
		Shader: "PBR",
		Recipes: []recipe{
			{Suffix: "_albedo", Param: "$basetexture", RGB: rgbAlbedo, Alpha: alphaOpaque},
			{Suffix: "_mrao", Param: "$mraotexture", RGB: rgbMRAO, Alpha: alphaOpaque},
			{Suffix: "_bump", Param: "$bumpmap", RGB: rgbNormal, Alpha: alphaHeight, Bump: true},
			{Suffix: "_emit", Param: "$emissiontexture", RGB: rgbEmit, Alpha: alphaOpaque, EmitOnly: true},
		},
		Statics: []formats.VMTParam{
			{Key: "$model", Value: "1"},
		},
	},
	material.ModePBRBrush: {
		Shader: "PBR",
		Recipes: []recipe{
			{Suffix: "_albedo", Param: "$basetexture", RGB: rgbAlbedo, Alpha: alphaOpaque},
			{Suffix: "_mrao", Param: "$mraotexture", RGB: rgbMRAO, Alpha: alphaOpaque},
			{Suffix: "_bump", Param: "$bumpmap", RGB: rgbNormal, Alpha: alphaHeight, Bump: true},
			{Suffix: "_emit", Param: "$emissiontexture", RGB: rgbEmit, Alpha: alphaOpaque, EmitOnly: true},
		},
	},
	material.ModePhongEnvmap: {
		Shader: "VertexLitGeneric",
		Recipes: []recipe{
			{Suffix: "_albedo", Param: "$basetexture", RGB: rgbAlbedoAO, Alpha: alphaOpaque},
			{Suffix: "_bump", Param: "$bumpmap", RGB: rgbNormal, Alpha: alphaGloss, Bump: true},
		},
		Statics: phongStatics(),
	},
	material.ModePhongEnvmapAlpha: {
		Shader: "VertexLitGeneric",
		Recipes: []recipe{
			{Suffix: "_albedo", Param: "$basetexture", RGB: rgbAlbedoAO, Alpha: alphaAlbedo},
			{Suffix: "_bump", Param: "$bumpmap", RGB: rgbNormal, Alpha: alphaGloss, Bump: true},
		},
		Statics: phongStatics(formats.VMTParam{Key: "$translucent", Value: "1"}),
	},
	material.ModePhongEnvmapEmit: {
		Shader: "VertexLitGeneric",
		Recipes: []recipe{
			{Suffix: "_albedo", Param: "$basetexture", RGB: rgbAlbedoAO, Alpha: alphaEmitMask},
			{Suffix: "_bump", Param: "$bumpmap", RGB: rgbNormal, Alpha: alphaGloss, Bump: true},
			{Suffix: "_emit", Param: "$selfillumtexture", RGB: rgbEmit, Alpha: alphaOpaque, EmitOnly: true},
		},
		Statics: phongStatics(formats.VMTParam{Key: "$selfillum", Value: "1"}),
	},
	material.ModeEnvmap: {
		Shader: "LightmappedGeneric",
		Recipes: []recipe{
			{Suffix: "_albedo", Param: "$basetexture", RGB: rgbAlbedoAO, Alpha: alphaEnvMask},
			{Suffix: "_bump", Param: "$bumpmap", RGB: rgbNormal, Alpha: alphaOpaque, Bump: true},
		},
		Statics: []formats.VMTParam{
			{Key: "$envmap", Value: "env_cubemap"},
			{Key: "$basealphaenvmapmask", Value: "1"},
		},
	},
	material.ModeEnvmapAlpha: {
		Shader: "LightmappedGeneric",
		Recipes: []recipe{
			{Suffix: "_albedo", Param: "$basetexture", RGB: rgbAlbedoAO, Alpha: alphaAlbedo},
			{Suffix: "_bump", Param: "$bumpmap", RGB: rgbNormal, Alpha: alphaOpaque, Bump: true},
		},
		Statics: []formats.VMTParam{
			{Key: "$envmap", Value: "env_cubemap"},
			{Key: "$translucent", Value: "1"},
		},
	},
	material.ModeEnvmapEmit: {
		Shader: "LightmappedGeneric",
		Recipes: []recipe{
			{Suffix: "_albedo", Param: "$basetexture", RGB: rgbAlbedoAO, Alpha: alphaEmitMask},
			{Suffix: "_bump", Param: "$bumpmap", RGB: rgbNormal, Alpha: alphaOpaque, Bump: true},
			{Suffix: "_emit", Param: "$selfillumtexture", RGB: rgbEmit, Alpha: alphaOpaque, EmitOnly: true},
		},
		Statics: []formats.VMTParam{
			{Key: "$envmap", Value: "env_cubemap"},
			{Key: "$selfillum", Value: "1"},
		},
	},
}

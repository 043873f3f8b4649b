// Package export turns assembled materials into on-disk material bundles:
// a descriptor file plus the encoded texture artifacts a shading mode
// calls for.
package export

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/sourcetex/matforge/internal/material"
	"github.com/sourcetex/matforge/pkg/formats"
)

// Artifact is one encoded output texture.
type Artifact struct {
	// Name is the output filename, derived from the isolated material name
	// and the recipe suffix.
	Name string
	// Data is the encoded file content.
	Data []byte
}

// Options controls artifact encoding.
type Options struct {
	// Mipmaps generates mip chains in the output textures.
	Mipmaps bool
}

// normalize normalizes the Options.
func (o *Options) normalize() Options {
	if o == nil {
		return Options{Mipmaps: true}
	}
	return *o
}

// Build renders a material into its descriptor and texture artifacts. The
// output is deterministic for a given material.
func Build(m *material.Material, opt *Options) ([]byte, []Artifact, error) {
	fopt := opt.normalize()

	p, ok := modePlans[m.Mode]
	if !ok {
		return nil, nil, fmt.Errorf("no texture plan for mode %s", m.Mode)
	}
	version, err := TextureVersion(m.Target)
	if err != nil {
		return nil, nil, err
	}

	isolated := path.Base(m.Name)

	var artifacts []Artifact
	var params []formats.VMTParam
	for _, r := range p.Recipes {
		if r.EmitOnly && m.Channels.Emit == nil {
			continue
		}

		img := composeImage(m.Channels, r)

		format := formats.VTFFormatRGBA8888
		if r.Alpha == alphaOpaque {
			format = formats.VTFFormatRGB888
		}
		var flags uint32
		if r.Bump {
			flags |= formats.VTFFlagNormal
		}

		data, err := formats.EncodeVTF(img, &formats.VTFOptions{
			Version: version,
			Format:  format,
			Mipmaps: fopt.Mipmaps,
			Flags:   flags,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("encoding %s%s: %w", isolated, r.Suffix, err)
		}

		artifacts = append(artifacts, Artifact{Name: isolated + r.Suffix + ".vtf", Data: data})
		params = append(params, formats.VMTParam{Key: r.Param, Value: isolated + r.Suffix})
	}
	params = append(params, p.Statics...)

	descriptor, err := renderDescriptor(m, p.Shader, params)
	if err != nil {
		return nil, nil, err
	}
	return descriptor, artifacts, nil
}

// Persist writes a built material bundle under the target directory: the
// descriptor first, then each texture artifact. There is no staging or
// atomic rename; a failed write leaves partial output behind.
func Persist(t Target, descriptor []byte, artifacts []Artifact) error {
	if err := os.MkdirAll(t.Dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	vmtPath := filepath.Join(t.Dir, t.IsolatedName()+".vmt")
	if err := os.WriteFile(vmtPath, descriptor, 0o644); err != nil {
		return fmt.Errorf("writing descriptor: %w", err)
	}

	for _, a := range artifacts {
		if err := os.WriteFile(filepath.Join(t.Dir, a.Name), a.Data, 0o644); err != nil {
			return fmt.Errorf("writing texture %s: %w", a.Name, err)
		}
	}
	return nil
}

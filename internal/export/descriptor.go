package export

import (
	"fmt"

	"github.com/sourcetex/matforge/internal/material"
	"github.com/sourcetex/matforge/pkg/formats"
)

// renderDescriptor builds the VMT document for a material. Texture
// parameters reference artifacts by their isolated name; the full virtual
// material name appears only in the header comment.
func renderDescriptor(m *material.Material, shader string, params []formats.VMTParam) ([]byte, error) {
	vmt := &formats.VMT{
		Shader: shader,
		Comments: []string{
			fmt.Sprintf("material: %s", m.Name),
			fmt.Sprintf("target: %s  mode: %s", m.Target, m.Mode),
		},
		Params: params,
	}

	text, err := formats.FormatVMT(vmt, nil)
	if err != nil {
		return nil, fmt.Errorf("rendering descriptor for %s: %w", m.Name, err)
	}
	return []byte(text), nil
}

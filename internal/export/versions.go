package export

import (
	"fmt"

	"github.com/sourcetex/matforge/internal/material"
	"github.com/sourcetex/matforge/pkg/formats"
)

// textureVersions maps each game target to the texture container version
// its engine branch accepts.
var textureVersions = map[material.GameTarget]formats.VTFVersion{
	material.TargetHL2:     {Major: 7, Minor: 2},
	material.TargetEP2:     {Major: 7, Minor: 4},
	material.TargetPortal2: {Major: 7, Minor: 5},
	material.TargetCSGO:    {Major: 7, Minor: 5},
	material.TargetGMod:    {Major: 7, Minor: 4},
	material.TargetStrata:  {Major: 7, Minor: 6},
}

// TextureVersion returns the texture container version for a game target.
func TextureVersion(t material.GameTarget) (formats.VTFVersion, error) {
	v, ok := textureVersions[t]
	if !ok {
		return formats.VTFVersion{}, fmt.Errorf("no texture version for target %s", t)
	}
	return v, nil
}

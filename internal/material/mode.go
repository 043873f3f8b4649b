package material

import (
	"fmt"
	"strings"
)

// Mode selects the shading model and channel packing of an exported
// material.
type Mode int

// Shading modes. The PBR modes target engines with a PBR shader; the phong
// modes approximate PBR inputs on model shaders of stock Source; the envmap
// modes do the same for brush surfaces.
const (
	ModePBRModel Mode = iota
	ModePBRBrush
	ModePhongEnvmap
	ModePhongEnvmapAlpha
	ModePhongEnvmapEmit
	ModeEnvmap
	ModeEnvmapAlpha
	ModeEnvmapEmit
)

var modeNames = [...]string{
	"pbr-model",
	"pbr-brush",
	"phong-envmap",
	"phong-envmap-alpha",
	"phong-envmap-emit",
	"envmap",
	"envmap-alpha",
	"envmap-emit",
}

// String returns the mode's flag spelling.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Modes returns all shading modes.
func Modes() []Mode {
	out := make([]Mode, len(modeNames))
	for i := range out {
		out[i] = Mode(i)
	}
	return out
}

// ParseMode parses a shading mode name.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if s == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shading mode %q (valid: %s)", s, strings.Join(modeNames[:], ", "))
}

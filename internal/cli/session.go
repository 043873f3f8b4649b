package cli

import (
	"github.com/spf13/cobra"

	"github.com/sourcetex/matforge/internal/material"
	"github.com/sourcetex/matforge/internal/pipeline"
	"github.com/sourcetex/matforge/internal/preset"
)

// channelFlags collects one source path flag per channel role.
type channelFlags struct {
	albedo    string
	roughness string
	metallic  string
	emit      string
	ao        string
	normal    string
	height    string
}

func (f *channelFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.albedo, "albedo", "", "Albedo (base color) source image")
	fl.StringVar(&f.roughness, "roughness", "", "Roughness source image")
	fl.StringVar(&f.metallic, "metallic", "", "Metallic source image")
	fl.StringVar(&f.emit, "emit", "", "Emissive source image")
	fl.StringVar(&f.ao, "ao", "", "Ambient occlusion source image")
	fl.StringVar(&f.normal, "normal", "", "Tangent-space normal map source image")
	fl.StringVar(&f.height, "height", "", "Height map source image")
}

func (f *channelFlags) pathFor(role material.Role) string {
	switch role {
	case material.RoleAlbedo:
		return f.albedo
	case material.RoleRoughness:
		return f.roughness
	case material.RoleMetallic:
		return f.metallic
	case material.RoleEmit:
		return f.emit
	case material.RoleAO:
		return f.ao
	case material.RoleNormal:
		return f.normal
	case material.RoleHeight:
		return f.height
	}
	return ""
}

// buildSession assembles a pipeline session from the loaded config, an
// optional preset file and the command's flags. Precedence: config
// defaults, then preset values, then flags. Flag-given channels are
// decoded eagerly so bad paths fail before any prompt or watch starts.
func buildSession(presetPath string, ch *channelFlags, gameName, modeName string) (*pipeline.Session, error) {
	s := pipeline.New()
	s.Reload = cfg.Export.ReloadOnExport
	s.Mipmaps = cfg.Export.Mipmaps

	game := cfg.Export.Game
	mode := cfg.Export.Mode

	if presetPath != "" {
		p, err := preset.Load(presetPath)
		if err != nil {
			return nil, err
		}
		if p.Game != "" {
			game = p.Game
		}
		if p.Mode != "" {
			mode = p.Mode
		}
		s.ApplyPreset(p)
	}

	if gameName != "" {
		game = gameName
	}
	if modeName != "" {
		mode = modeName
	}

	var err error
	if s.Game, err = material.ParseTarget(game); err != nil {
		return nil, err
	}
	if s.Mode, err = material.ParseMode(mode); err != nil {
		return nil, err
	}

	for _, role := range material.Roles() {
		if path := ch.pathFor(role); path != "" {
			if _, err := s.Pick(role, path); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

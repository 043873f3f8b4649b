package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var out string
	var gameName string
	var modeName string
	var presetPath string
	var noCache bool
	var noMipmaps bool
	var ch channelFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Assemble and export a material once",
		Long: `Assembles the given texture channels into one material and writes the
VMT descriptor plus its VTF textures next to the --out path.

Albedo and roughness are mandatory; missing optional channels get neutral
defaults (dielectric metallic, flat normal, mid-level height).`,
		Example: `  # PBR model material for Episode Two
  matforge export --albedo brick_albedo.png --roughness brick_rough.png \
    --normal brick_normal.png --out game/materials/brick/wall01.vmt

  # Apply a saved preset, overriding its game
  matforge export --preset brick.yaml --game csgo --out game/materials/brick/wall01.vmt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("--out is required")
			}

			s, err := buildSession(presetPath, &ch, gameName, modeName)
			if err != nil {
				return err
			}
			if noCache {
				s.Reload = true
			}
			if noMipmaps {
				s.Mipmaps = false
			}
			s.SetTarget(out)
			s.Exported = func() { reloadViewer(s) }

			return s.Export()
		},
	}

	ch.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output .vmt path; directory and material name derive from it")
	cmd.Flags().StringVar(&gameName, "game", "", "Game target (hl2, ep2, portal2, csgo, gmod, strata)")
	cmd.Flags().StringVar(&modeName, "mode", "", "Shading mode (pbr-model, pbr-brush, phong-envmap, ...)")
	cmd.Flags().StringVar(&presetPath, "preset", "", "Preset file to apply before flag overrides")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Always re-read source files from disk")
	cmd.Flags().BoolVar(&noMipmaps, "no-mipmaps", false, "Skip mipmap generation")

	return cmd
}

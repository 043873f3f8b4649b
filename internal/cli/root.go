// Package cli implements the matforge command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/sourcetex/matforge/internal/config"
	"github.com/sourcetex/matforge/internal/logger"
)

// cfg is loaded once by the root command before any subcommand runs.
var cfg *config.Config

// NewRootCmd creates the matforge root command.
func NewRootCmd() *cobra.Command {
	var configPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "matforge",
		Short: "Assemble PBR texture sets into Source engine materials",
		Long: `Matforge packs PBR texture channels (albedo, roughness, metallic,
emissive, ambient occlusion, normal, height) into Source engine materials:
one VMT descriptor plus the VTF textures it references, laid out for the
chosen game and shading mode.

The output path decides the material name: everything between the nearest
"materials" directory and the file becomes the in-engine material path.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}

			level := cfg.Logging.Level
			if verbose {
				level = "debug"
			}
			return logger.Init(level, cfg.Logging.LogFile)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newPresetCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

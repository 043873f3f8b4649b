package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourcetex/matforge/internal/material"
	"github.com/sourcetex/matforge/internal/preset"
)

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage material presets",
	}

	cmd.AddCommand(newPresetSaveCmd())
	cmd.AddCommand(newPresetShowCmd())

	return cmd
}

func newPresetSaveCmd() *cobra.Command {
	var gameName string
	var modeName string
	var ch channelFlags

	cmd := &cobra.Command{
		Use:   "save <file.yaml>",
		Short: "Save the given channel flags as a preset",
		Args:  cobra.ExactArgs(1),
		Example: `  matforge preset save brick.yaml --game ep2 --mode pbr-brush \
    --albedo brick_albedo.png --roughness brick_rough.png --normal brick_normal.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameName != "" {
				if _, err := material.ParseTarget(gameName); err != nil {
					return err
				}
			}
			if modeName != "" {
				if _, err := material.ParseMode(modeName); err != nil {
					return err
				}
			}

			p := &preset.Preset{Game: gameName, Mode: modeName}
			for _, role := range material.Roles() {
				if path := ch.pathFor(role); path != "" {
					p.Channels.SetPathFor(role, path)
				}
			}

			if err := p.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Preset written to %s\n", args[0])
			return nil
		},
	}

	ch.register(cmd)
	cmd.Flags().StringVar(&gameName, "game", "", "Game target to store in the preset")
	cmd.Flags().StringVar(&modeName, "mode", "", "Shading mode to store in the preset")

	return cmd
}

func newPresetShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <file.yaml>",
		Short: "Print the contents of a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := preset.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if p.Game != "" {
				fmt.Fprintf(out, "Game:  %s\n", p.Game)
			}
			if p.Mode != "" {
				fmt.Fprintf(out, "Mode:  %s\n", p.Mode)
			}
			for _, role := range material.Roles() {
				if path := p.Channels.PathFor(role); path != "" {
					fmt.Fprintf(out, "%-10s %s\n", role.String()+":", path)
				}
			}
			return nil
		},
	}
	return cmd
}

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sourcetex/matforge/internal/pipeline"
)

func newWatchCmd() *cobra.Command {
	var out string
	var gameName string
	var modeName string
	var presetPath string
	var debounce time.Duration
	var noMipmaps bool
	var ch channelFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-export automatically when source textures change",
		Long: `Exports once, then keeps watching every picked source file and exports
again after changes settle. Stop with Ctrl+C.

Without --out the output path is asked for on the terminal; an empty
answer cancels.`,
		Example: `  # Keep a material fresh while painting in another tool
  matforge watch --albedo door_albedo.png --roughness door_rough.png \
    --out game/materials/metal/door02.vmt

  # Watch a preset's channels
  matforge watch --preset door.yaml --out game/materials/metal/door02.vmt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildSession(presetPath, &ch, gameName, modeName)
			if err != nil {
				return err
			}
			if noMipmaps {
				s.Mipmaps = false
			}
			s.Debounce = debounce
			s.Exported = func() { reloadViewer(s) }

			if out != "" {
				s.SetTarget(out)
			} else {
				s.PromptTarget = promptOutputPath(cmd)
			}

			// Resolving the target first keeps the watch loop itself off
			// user input; declining the prompt is a quiet exit.
			if err := s.StartWatch(); err != nil {
				if errors.Is(err, pipeline.ErrCancelled) {
					return nil
				}
				return err
			}
			defer s.StopWatch()

			if err := s.Export(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes, Ctrl+C to stop...")
			<-cmd.Context().Done()
			return nil
		},
	}

	ch.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output .vmt path; directory and material name derive from it")
	cmd.Flags().StringVar(&gameName, "game", "", "Game target (hl2, ep2, portal2, csgo, gmod, strata)")
	cmd.Flags().StringVar(&modeName, "mode", "", "Shading mode (pbr-model, pbr-brush, phong-envmap, ...)")
	cmd.Flags().StringVar(&presetPath, "preset", "", "Preset file to apply before flag overrides")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet window before re-export (default 500ms)")
	cmd.Flags().BoolVar(&noMipmaps, "no-mipmaps", false, "Skip mipmap generation")

	return cmd
}

// promptOutputPath asks for the output .vmt path on the terminal. An empty
// answer or closed input cancels.
func promptOutputPath(cmd *cobra.Command) func() (string, error) {
	return func() (string, error) {
		fmt.Fprint(cmd.OutOrStdout(), "Output material path (.vmt): ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		path := strings.TrimSpace(line)
		if err != nil && path == "" {
			return "", nil
		}
		return path, nil
	}
}

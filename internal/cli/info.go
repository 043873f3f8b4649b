package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sourcetex/matforge/pkg/formats"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "info <file.vtf>",
		Short:   "Print header details of a VTF texture",
		Args:    cobra.ExactArgs(1),
		Example: "  matforge info game/materials/brick/wall01_albedo.vtf",
		RunE: func(cmd *cobra.Command, args []string) error {
			vtf, err := formats.ParseVTFFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File:         %s\n", args[0])
			fmt.Fprintf(out, "Version:      %s\n", vtf.Version)
			fmt.Fprintf(out, "Size:         %dx%d\n", vtf.Width, vtf.Height)
			fmt.Fprintf(out, "Format:       %s\n", vtf.Format)
			fmt.Fprintf(out, "Mip levels:   %d\n", vtf.MipCount)
			fmt.Fprintf(out, "Frames:       %d\n", vtf.Frames)
			fmt.Fprintf(out, "Flags:        %s\n", describeFlags(vtf.Flags))
			fmt.Fprintf(out, "Reflectivity: %.3f %.3f %.3f\n",
				vtf.Reflectivity[0], vtf.Reflectivity[1], vtf.Reflectivity[2])
			fmt.Fprintf(out, "Bump scale:   %.2f\n", vtf.BumpScale)
			return nil
		},
	}
	return cmd
}

var flagNames = []struct {
	bit  uint32
	name string
}{
	{formats.VTFFlagPointSample, "pointsample"},
	{formats.VTFFlagTrilinear, "trilinear"},
	{formats.VTFFlagClampS, "clamps"},
	{formats.VTFFlagClampT, "clampt"},
	{formats.VTFFlagAnisotropic, "anisotropic"},
	{formats.VTFFlagSRGB, "srgb"},
	{formats.VTFFlagNormal, "normal"},
	{formats.VTFFlagNoMip, "nomip"},
	{formats.VTFFlagNoLOD, "nolod"},
	{formats.VTFFlagOneBitAlpha, "onebitalpha"},
	{formats.VTFFlagEightBitAlpha, "eightbitalpha"},
	{formats.VTFFlagEnvmap, "envmap"},
}

func describeFlags(flags uint32) string {
	var names []string
	for _, f := range flagNames {
		if flags&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("0x%08x", flags)
	}
	return fmt.Sprintf("0x%08x (%s)", flags, strings.Join(names, ", "))
}

package material

import (
	"fmt"
	"image"
)

// Material is the immutable result of assembling a normalized channel set
// with a shading mode and game target. It is created once per export cycle
// and never mutated; a re-export builds a new value.
type Material struct {
	Mode     Mode
	Target   GameTarget
	Size     image.Point
	Name     string
	Channels *Normalized
}

// Assemble combines normalized channels into a Material. Construction is
// pure; it fails only if the normalized set violates the normalizer's
// invariants, which indicates a bug upstream.
func Assemble(mode Mode, target GameTarget, name string, n *Normalized) (*Material, error) {
	if n == nil {
		return nil, fmt.Errorf("assemble %q: normalized channels are nil", name)
	}
	if err := n.validate(); err != nil {
		return nil, fmt.Errorf("assemble %q: %w", name, err)
	}
	return &Material{
		Mode:     mode,
		Target:   target,
		Size:     n.Size,
		Name:     name,
		Channels: n,
	}, nil
}

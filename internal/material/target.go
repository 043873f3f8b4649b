package material

import (
	"fmt"
	"strings"
)

// GameTarget identifies the engine branch a material is exported for. The
// target decides which texture container version the engine accepts.
type GameTarget int

// Supported game targets.
const (
	TargetHL2 GameTarget = iota
	TargetEP2
	TargetPortal2
	TargetCSGO
	TargetGMod
	TargetStrata
)

var targetNames = [...]string{
	"hl2",
	"ep2",
	"portal2",
	"csgo",
	"gmod",
	"strata",
}

// String returns the target's flag spelling.
func (t GameTarget) String() string {
	if t < 0 || int(t) >= len(targetNames) {
		return fmt.Sprintf("target(%d)", int(t))
	}
	return targetNames[t]
}

// Targets returns all game targets.
func Targets() []GameTarget {
	out := make([]GameTarget, len(targetNames))
	for i := range out {
		out[i] = GameTarget(i)
	}
	return out
}

// ParseTarget parses a game target name.
func ParseTarget(s string) (GameTarget, error) {
	for i, name := range targetNames {
		if s == name {
			return GameTarget(i), nil
		}
	}
	return 0, fmt.Errorf("unknown game target %q (valid: %s)", s, strings.Join(targetNames[:], ", "))
}

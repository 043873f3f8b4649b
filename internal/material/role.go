// Package material defines texture channel roles, shading modes and game
// targets, and assembles normalized channel sets into immutable materials.
package material

import "fmt"

// Role identifies one texture channel of a material. The set of roles is
// fixed; Albedo and Roughness are mandatory, the rest optional.
type Role int

// Channel roles in canonical order.
const (
	RoleAlbedo Role = iota
	RoleRoughness
	RoleMetallic
	RoleEmit
	RoleAO
	RoleNormal
	RoleHeight
)

var roleNames = [...]string{
	"albedo",
	"roughness",
	"metallic",
	"emit",
	"ao",
	"normal",
	"height",
}

// String returns the role's lowercase name.
func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// Required reports whether a material cannot be assembled without this
// channel.
func (r Role) Required() bool {
	return r == RoleAlbedo || r == RoleRoughness
}

// Roles returns all channel roles in canonical order.
func Roles() []Role {
	return []Role{
		RoleAlbedo,
		RoleRoughness,
		RoleMetallic,
		RoleEmit,
		RoleAO,
		RoleNormal,
		RoleHeight,
	}
}

// ParseRole parses a channel role name.
func ParseRole(s string) (Role, error) {
	for i, name := range roleNames {
		if s == name {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown channel role %q", s)
}

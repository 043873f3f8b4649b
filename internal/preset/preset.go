// Package preset stores and restores a material setup: game target,
// shading mode and the source file picked for each channel.
package preset

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sourcetex/matforge/internal/material"
)

// Preset captures a material setup for reuse. Game and Mode use the names
// the CLI accepts; empty values mean "keep the current setting". Channel
// paths are stored as written, so relative paths resolve against the
// working directory of the later run.
type Preset struct {
	Game     string       `yaml:"game,omitempty"`
	Mode     string       `yaml:"mode,omitempty"`
	Channels ChannelPaths `yaml:"channels"`
}

// ChannelPaths holds one source file path per channel role.
type ChannelPaths struct {
	Albedo    string `yaml:"albedo,omitempty"`
	Roughness string `yaml:"roughness,omitempty"`
	Metallic  string `yaml:"metallic,omitempty"`
	Emit      string `yaml:"emit,omitempty"`
	AO        string `yaml:"ao,omitempty"`
	Normal    string `yaml:"normal,omitempty"`
	Height    string `yaml:"height,omitempty"`
}

// PathFor returns the stored path for role, empty when absent.
func (c *ChannelPaths) PathFor(role material.Role) string {
	switch role {
	case material.RoleAlbedo:
		return c.Albedo
	case material.RoleRoughness:
		return c.Roughness
	case material.RoleMetallic:
		return c.Metallic
	case material.RoleEmit:
		return c.Emit
	case material.RoleAO:
		return c.AO
	case material.RoleNormal:
		return c.Normal
	case material.RoleHeight:
		return c.Height
	}
	return ""
}

// SetPathFor stores path for role. Unknown roles are ignored.
func (c *ChannelPaths) SetPathFor(role material.Role, path string) {
	switch role {
	case material.RoleAlbedo:
		c.Albedo = path
	case material.RoleRoughness:
		c.Roughness = path
	case material.RoleMetallic:
		c.Metallic = path
	case material.RoleEmit:
		c.Emit = path
	case material.RoleAO:
		c.AO = path
	case material.RoleNormal:
		c.Normal = path
	case material.RoleHeight:
		c.Height = path
	}
}

// Load reads a preset file. Only the shape is validated here; game and
// mode names are checked where they are applied.
func Load(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading preset from %s: %w", path, err)
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("loading preset from %s: %w", path, err)
	}
	return &p, nil
}

// Save writes the preset to path, creating parent directories as needed.
func (p *Preset) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

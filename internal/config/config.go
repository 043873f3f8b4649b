// Package config handles tool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds export pipeline settings.
type ExportConfig struct {
	// Game and Mode are the default game target and shading mode, by the
	// names the CLI accepts.
	Game string `yaml:"game"`
	Mode string `yaml:"mode"`
	// ReloadOnExport re-reads source files from disk on every export
	// instead of reusing the images decoded at pick time.
	ReloadOnExport bool `yaml:"reload_on_export"`
	Mipmaps        bool `yaml:"mipmaps"`
}

// ViewerConfig holds model viewer hand-off settings.
type ViewerConfig struct {
	Command string `yaml:"command"` // Viewer executable; empty disables the hand-off
	Reload  bool   `yaml:"reload"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Game:           "ep2",
			Mode:           "pbr-model",
			ReloadOnExport: true,
			Mipmaps:        true,
		},
		Viewer: ViewerConfig{
			Command: "",
			Reload:  true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

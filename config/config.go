package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Render     RenderConfig     `mapstructure:"render"`
	Server     ServerConfig     `mapstructure:"server"`
	Input      InputConfig      `mapstructure:"input"`
	Log        LogConfig        `mapstructure:"log"`
}

// SimulationConfig holds force parameters and the cooling schedule.
type SimulationConfig struct {
	LinkDistance    float64 `mapstructure:"link_distance"`
	ChargeStrength  float64 `mapstructure:"charge_strength"`
	CenterStrength  float64 `mapstructure:"center_strength"`
	DragAlphaTarget float64 `mapstructure:"drag_alpha_target"`
	AlphaMin        float64 `mapstructure:"alpha_min"`
	// AlphaDecay of zero selects the engine default for AlphaMin.
	AlphaDecay     float64 `mapstructure:"alpha_decay"`
	VelocityDecay  float64 `mapstructure:"velocity_decay"`
	NoiseIntensity float64 `mapstructure:"noise_intensity"`
	Seed           uint32  `mapstructure:"seed"`
	MaxTicks       int     `mapstructure:"max_ticks"`
}

// RenderConfig holds the viewport size and drawing options.
type RenderConfig struct {
	Format       string  `mapstructure:"format"`
	Width        float64 `mapstructure:"width"`
	Height       float64 `mapstructure:"height"`
	Background   string  `mapstructure:"background"`
	MarkerWidth  float64 `mapstructure:"marker_width"`
	MarkerHeight float64 `mapstructure:"marker_height"`
	ImageSize    float64 `mapstructure:"image_size"`
	EdgeColor    string  `mapstructure:"edge_color"`
	FontSize     float64 `mapstructure:"font_size"`
}

// ServerConfig holds the HTTP listener and tick loop settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// InputConfig names the graph data file and its format.
type InputConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// LogConfig selects the zap level and development mode.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.link_distance", 150.0)
	v.SetDefault("simulation.charge_strength", -500.0)
	v.SetDefault("simulation.center_strength", 0.1)
	v.SetDefault("simulation.drag_alpha_target", 0.3)
	v.SetDefault("simulation.alpha_min", 0.001)
	v.SetDefault("simulation.alpha_decay", 0.0)
	v.SetDefault("simulation.velocity_decay", 0.4)
	v.SetDefault("simulation.noise_intensity", 0.0)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.max_ticks", 0)

	v.SetDefault("render.format", "svg")
	v.SetDefault("render.width", 800.0)
	v.SetDefault("render.height", 600.0)
	v.SetDefault("render.background", "")
	v.SetDefault("render.marker_width", 6.0)
	v.SetDefault("render.marker_height", 6.0)
	v.SetDefault("render.image_size", 40.0)
	v.SetDefault("render.edge_color", "#999")
	v.SetDefault("render.font_size", 12.0)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.tick_interval", 16*time.Millisecond)

	v.SetDefault("input.path", "")
	v.SetDefault("input.format", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Simulation.LinkDistance <= 0 {
		warnings = append(warnings, fmt.Sprintf("simulation link_distance %.2f should be positive", c.Simulation.LinkDistance))
	}
	if c.Simulation.ChargeStrength > 0 {
		warnings = append(warnings, fmt.Sprintf("simulation charge_strength %.2f attracts nodes; use a negative value to repel", c.Simulation.ChargeStrength))
	}
	if c.Simulation.DragAlphaTarget <= 0 || c.Simulation.DragAlphaTarget > 1 {
		warnings = append(warnings, fmt.Sprintf("simulation drag_alpha_target %.2f is outside (0, 1]", c.Simulation.DragAlphaTarget))
	}
	if c.Simulation.VelocityDecay < 0 || c.Simulation.VelocityDecay >= 1 {
		warnings = append(warnings, fmt.Sprintf("simulation velocity_decay %.2f is outside [0, 1)", c.Simulation.VelocityDecay))
	}
	if c.Simulation.AlphaMin <= 0 || c.Simulation.AlphaMin >= 1 {
		warnings = append(warnings, fmt.Sprintf("simulation alpha_min %.4f is outside (0, 1)", c.Simulation.AlphaMin))
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		warnings = append(warnings, fmt.Sprintf("render size %.0fx%.0f is not positive", c.Render.Width, c.Render.Height))
	}
	if c.Server.TickInterval <= 0 {
		warnings = append(warnings, fmt.Sprintf("server tick_interval %s is not positive", c.Server.TickInterval))
	}

	return warnings
}

// Load reads configuration from file and environment. An empty path skips
// the file and uses defaults plus FORCEGRAPH_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FORCEGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

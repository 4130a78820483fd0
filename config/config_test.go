package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 150.0, cfg.Simulation.LinkDistance)
	assert.Equal(t, -500.0, cfg.Simulation.ChargeStrength)
	assert.Equal(t, 0.3, cfg.Simulation.DragAlphaTarget)
	assert.Equal(t, 0.4, cfg.Simulation.VelocityDecay)
	assert.Equal(t, 6.0, cfg.Render.MarkerWidth)
	assert.Equal(t, 40.0, cfg.Render.ImageSize)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 16*time.Millisecond, cfg.Server.TickInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forcegraph.yaml")
	content := `
simulation:
  link_distance: 90
  noise_intensity: 0.5
render:
  width: 1600
  height: 1200
server:
  tick_interval: 33ms
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.Simulation.LinkDistance)
	assert.Equal(t, 0.5, cfg.Simulation.NoiseIntensity)
	assert.Equal(t, -500.0, cfg.Simulation.ChargeStrength, "unset keys keep defaults")
	assert.Equal(t, 1600.0, cfg.Render.Width)
	assert.Equal(t, 33*time.Millisecond, cfg.Server.TickInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("FORCEGRAPH_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("FORCEGRAPH_SIMULATION_CHARGE_STRENGTH", "-300")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, -300.0, cfg.Simulation.ChargeStrength)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"link distance", func(c *Config) { c.Simulation.LinkDistance = 0 }, "link_distance"},
		{"attractive charge", func(c *Config) { c.Simulation.ChargeStrength = 10 }, "charge_strength"},
		{"drag target", func(c *Config) { c.Simulation.DragAlphaTarget = 2 }, "drag_alpha_target"},
		{"velocity decay", func(c *Config) { c.Simulation.VelocityDecay = 1 }, "velocity_decay"},
		{"alpha min", func(c *Config) { c.Simulation.AlphaMin = 0 }, "alpha_min"},
		{"size", func(c *Config) { c.Render.Width = 0 }, "render size"},
		{"tick interval", func(c *Config) { c.Server.TickInterval = 0 }, "tick_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			warnings := cfg.Validate()
			require.Len(t, warnings, 1)
			assert.True(t, strings.Contains(warnings[0], tt.want), warnings[0])
		})
	}
}

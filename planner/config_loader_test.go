package planner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Full(t *testing.T) {
	path := writeConfig(t, `
field:
  size: 2000
  cellSize: 100
robot:
  radius: 150
  safetyMargin: 25
layout:
  edgeMargin: 100
  rects:
    - {x: 0, y: 0, width: 400, height: 200}
  disks:
    - {x: -500, y: 500, radius: 120}
mqtt:
  broker: tcp://localhost:1883
  publishPrefix: robot1
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2000.0, cfg.Field.Size)
	assert.Equal(t, 100.0, cfg.Field.CellSize)
	assert.Equal(t, 175.0, cfg.CollisionRadius())
	assert.Equal(t, 100.0, cfg.Layout.EdgeMargin)
	require.Len(t, cfg.Layout.Rects, 1)
	assert.Equal(t, RectSpec{X: 0, Y: 0, Width: 400, Height: 200}, cfg.Layout.Rects[0])
	require.Len(t, cfg.Layout.Disks, 1)
	assert.Equal(t, 120.0, cfg.Layout.Disks[0].Radius)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "robot1", cfg.GetPublishPrefix())

	sc := cfg.SessionConfig()
	assert.Equal(t, 175.0, sc.CollisionRadius())
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
robot:
  radius: 300
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultFieldSize, cfg.Field.Size)
	assert.Equal(t, DefaultCellSize, cfg.Field.CellSize)
	assert.Equal(t, 300.0, cfg.Robot.Radius)
	assert.Equal(t, DefaultSafetyMargin, cfg.Robot.SafetyMargin)
	assert.Equal(t, DefaultCellSize, cfg.Layout.EdgeMargin)
	assert.Equal(t, DefaultPublishPrefix, cfg.GetPublishPrefix())
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid yaml", content: "field: [unclosed"},
		{name: "zero cell size", content: "field: {size: 1000, cellSize: 0}"},
		{name: "field smaller than cell", content: "field: {size: 10, cellSize: 50}"},
		{name: "negative radius", content: "robot: {radius: -1}"},
		{name: "negative margin", content: "robot: {safetyMargin: -1}"},
		{name: "negative edge margin", content: "layout: {edgeMargin: -5}"},
		{name: "negative rect", content: "layout: {rects: [{x: 0, y: 0, width: -1, height: 10}]}"},
		{name: "negative disk", content: "layout: {disks: [{x: 0, y: 0, radius: -1}]}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Robot.Radius = 175
	cfg.Layout.Disks = []DiskSpec{{X: 100, Y: 200, Radius: 50}}

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	s, err := NewSession(cfg.SessionConfig())
	require.NoError(t, err)
	assert.Equal(t, 72, s.Grid().Size())
	assert.Equal(t, 250.0, s.Field().CollisionRadius())
	assert.Equal(t, 4*71, s.Field().Base().Len(), "one-cell wall ring")
}

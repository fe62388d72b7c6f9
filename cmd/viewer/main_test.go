package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(options{})
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfigModelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera:\n  fov: 70\n"), 0o644))

	cfg, err := loadConfig(options{configPath: path, modelPath: "fox.glb#Scene0"})
	require.NoError(t, err)
	assert.Equal(t, float32(70), cfg.Camera.Fov)
	assert.Equal(t, "fox.glb#Scene0", cfg.Model.Scene)
	assert.Empty(t, cfg.Model.Animation)

	_, err = loadConfig(options{modelPath: "fox.glb#Bone2"})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--config", "a.yaml", "-m", "b.glb", "--profile"}))

	for name, want := range map[string]string{"config": "a.yaml", "model": "b.glb", "profile": "true", "watch": "true"} {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, want, f.Value.String(), name)
	}
	assert.Error(t, cmd.Args(cmd, []string{"extra"}))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/demo2rules/pkg/segment"
	"github.com/gwillem/demo2rules/pkg/waypoint"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)

	cfg := Default()
	cfg.Segmentation.Window = 9
	cfg.Segmentation.ColumnLabels = []string{"q | j0"}
	cfg.Recorder.Arm.Port = "/dev/ttyACM0"
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigFrom_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"segmentation":{"velocity_threshold":0.1}}`), 0644))

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Segmentation.VelocityThreshold)
	assert.Equal(t, segment.DefaultWindow, cfg.Segmentation.Window)
	assert.Equal(t, "rules_autogen.py", cfg.Output)
	assert.Equal(t, 30, cfg.Recorder.Hz)
}

func TestLoadConfigFrom_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"segmentation":{"column_labels":["no separator"]}}`), 0644))
	_, err := LoadConfigFrom(bad)
	assert.ErrorIs(t, err, waypoint.ErrMalformedLabel)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{`), 0644))
	_, err = LoadConfigFrom(broken)
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

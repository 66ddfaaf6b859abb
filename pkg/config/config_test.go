package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/partgraph/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
	assert.Equal(t, 5*time.Second, time.Duration(c.Engine.Timeout))
	assert.Equal(t, 200, c.Kernel.MeshCells)
	assert.Equal(t, model.DefaultTubeDimensions(), c.TubeDimensions())
}

func TestParseTOML(t *testing.T) {
	c, err := Parse([]byte(`
[log]
level = "debug"
format = "json"

[engine]
timeout = "250ms"

[tube]
radius = 2.0
inner_radius = 1.5
`), TOML)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, 250*time.Millisecond, time.Duration(c.Engine.Timeout))
	assert.Equal(t, 200, c.Kernel.MeshCells, "unset keys keep their defaults")
	assert.Equal(t, 2.0, c.Tube.Radius)
	assert.Equal(t, 1.5, c.Tube.InnerRadius)
	assert.Equal(t, 1.0, c.Tube.Length)
}

func TestParseYAML(t *testing.T) {
	c, err := Parse([]byte(`
log:
  level: warn
engine:
  timeout: 2s
kernel:
  mesh_cells: 64
tube:
  radial_samples: 24
`), YAML)
	require.NoError(t, err)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, 2*time.Second, time.Duration(c.Engine.Timeout))
	assert.Equal(t, 64, c.Kernel.MeshCells)
	assert.Equal(t, 24, c.Tube.RadialSamples)
}

func TestParseEmptyDocument(t *testing.T) {
	for _, f := range []Format{TOML, YAML} {
		c, err := Parse(nil, f)
		require.NoError(t, err, f)
		assert.Equal(t, Default(), c)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"unknown toml key", "[log]\ncolour = \"red\"\n", TOML},
		{"unknown yaml key", "log:\n  colour: red\n", YAML},
		{"bad duration", "[engine]\ntimeout = \"soon\"\n", TOML},
		{"bad level", "log:\n  level: loud\n", YAML},
		{"bad log format", "log:\n  format: xml\n", YAML},
		{"zero timeout", "[engine]\ntimeout = \"0s\"\n", TOML},
		{"no mesh cells", "kernel:\n  mesh_cells: 0\n", YAML},
		{"invalid tube", "[tube]\ninner_radius = 3.0\n", TOML},
		{"unknown format", "", Format("ini")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partgraph.yml")
	require.NoError(t, os.WriteFile(path, []byte("kernel:\n  mesh_cells: 32\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 32, c.Kernel.MeshCells)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "partgraph.ini"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{
		"a.toml": TOML,
		"a.TOML": TOML,
		"a.yaml": YAML,
		"a.yml":  YAML,
	} {
		got, err := FormatOf(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}
}

func TestLogger(t *testing.T) {
	c := Default()
	c.Log.Format = "json"
	c.Log.Level = "warn"

	var buf bytes.Buffer
	log, err := c.Logger(&buf)
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown", "component", "config")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	c.Log.Format = "xml"
	_, err = c.Logger(&buf)
	assert.Error(t, err)
}

func TestDurationText(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", string(b))

	var back Duration
	require.NoError(t, back.UnmarshalText(b))
	assert.Equal(t, d, back)
}

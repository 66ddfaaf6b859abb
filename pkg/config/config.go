// Package config loads partgraph settings from TOML or YAML files and builds
// the process logger from them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/partgraph/pkg/model"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format names a configuration file syntax.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// ErrUnknownFormat is returned for files whose syntax cannot be inferred.
var ErrUnknownFormat = errors.New("config: unknown format")

// Config is the complete partgraph configuration.
type Config struct {
	Log    Log    `toml:"log" yaml:"log"`
	Engine Engine `toml:"engine" yaml:"engine"`
	Kernel Kernel `toml:"kernel" yaml:"kernel"`
	Tube   Tube   `toml:"tube" yaml:"tube"`
}

// Log configures the process logger.
type Log struct {
	Level  string `toml:"level" yaml:"level"`   // debug, info, warn, error
	Format string `toml:"format" yaml:"format"` // text or json
}

// Engine configures script evaluation.
type Engine struct {
	Timeout Duration `toml:"timeout" yaml:"timeout"`
}

// Kernel configures the geometry kernel.
type Kernel struct {
	MeshCells int `toml:"mesh_cells" yaml:"mesh_cells"`
}

// Tube holds the dimensions new tubes start with.
type Tube struct {
	Length        float64 `toml:"length" yaml:"length"`
	Radius        float64 `toml:"radius" yaml:"radius"`
	InnerRadius   float64 `toml:"inner_radius" yaml:"inner_radius"`
	AxialSamples  int     `toml:"axial_samples" yaml:"axial_samples"`
	RadialSamples int     `toml:"radial_samples" yaml:"radial_samples"`
}

// Default returns the built-in configuration.
func Default() *Config {
	d := model.DefaultTubeDimensions()
	return &Config{
		Log:    Log{Level: "info", Format: "text"},
		Engine: Engine{Timeout: Duration(5 * time.Second)},
		Kernel: Kernel{MeshCells: 200},
		Tube: Tube{
			Length:        d.Length,
			Radius:        d.Radius,
			InnerRadius:   d.InnerRadius,
			AxialSamples:  d.AxialSamples,
			RadialSamples: d.RadialSamples,
		},
	}
}

// decoder decodes one document into v.
type decoder func(r io.Reader, v any) error

var decoders = map[Format]decoder{
	TOML: func(r io.Reader, v any) error {
		d := toml.NewDecoder(r)
		d.DisallowUnknownFields()
		return d.Decode(v)
	},
	YAML: func(r io.Reader, v any) error {
		d := yaml.NewDecoder(r)
		d.KnownFields(true)
		err := d.Decode(v)
		if errors.Is(err, io.EOF) {
			return nil // empty document
		}
		return err
	},
}

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// Load reads the file at path over the defaults.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes data in the given format over the defaults and validates
// the result.
func Parse(data []byte, format Format) (*Config, error) {
	dec, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	c := Default()
	if err := dec(bytes.NewReader(data), c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if f := c.Log.Format; f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("config: log format %q, want text or json", f))
	}
	if c.Engine.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("config: engine timeout must be positive"))
	}
	if c.Kernel.MeshCells <= 0 {
		errs = append(errs, fmt.Errorf("config: kernel mesh_cells must be positive"))
	}
	if err := c.TubeDimensions().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: tube: %w", err))
	}
	return errors.Join(errs...)
}

// Level parses the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return l, nil
}

// Logger builds a logger writing to w in the configured format and level.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch c.Log.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("config: log format %q, want text or json", c.Log.Format)
}

// TubeDimensions returns the tube section as model dimensions.
func (c *Config) TubeDimensions() model.TubeDimensions {
	return model.TubeDimensions{
		Length:        c.Tube.Length,
		Radius:        c.Tube.Radius,
		InnerRadius:   c.Tube.InnerRadius,
		AxialSamples:  c.Tube.AxialSamples,
		RadialSamples: c.Tube.RadialSamples,
	}
}

// Duration is a time.Duration written as a string such as "5s" or "250ms".
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", n.Line)
	}
	return d.UnmarshalText([]byte(n.Value))
}

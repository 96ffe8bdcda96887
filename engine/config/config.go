// Package config loads engine settings from YAML or TOML files.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy3d/engine/renderer"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Format is a configuration file encoding.
type Format uint8

const (
	YAML Format = iota
	TOML
)

func (f Format) String() string {
	if f == TOML {
		return "toml"
	}
	return "yaml"
}

// FormatForPath picks the format from a file extension: .yaml and .yml are YAML, .toml is
// TOML.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return 0, fmt.Errorf("config: unsupported file extension %q", filepath.Ext(path))
}

// Renderer holds the rendering settings.
type Renderer struct {
	// PresentMode is "vsync" or "uncapped"; empty means vsync.
	PresentMode string `yaml:"present_mode" toml:"present_mode"`
	// MSAA is the sample count: 1, 4, 8 or 16.
	MSAA           int    `yaml:"msaa" toml:"msaa"`
	ForceSoftware  bool   `yaml:"force_software" toml:"force_software"`
	SortPolicy     string `yaml:"sort_policy" toml:"sort_policy"`
	FrustumCulling bool   `yaml:"frustum_culling" toml:"frustum_culling"`
}

// Config is the engine configuration.
type Config struct {
	// Workers is the job system size; 0 uses one worker per CPU.
	Workers int `yaml:"workers" toml:"workers"`
	// TickRate is the number of update ticks per second.
	TickRate int `yaml:"tick_rate" toml:"tick_rate"`
	// RenderFrameLimit caps rendered frames per second; 0 is uncapped.
	RenderFrameLimit int      `yaml:"render_frame_limit" toml:"render_frame_limit"`
	Profiling        bool     `yaml:"profiling" toml:"profiling"`
	LogLevel         string   `yaml:"log_level" toml:"log_level"`
	Renderer         Renderer `yaml:"renderer" toml:"renderer"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		TickRate: 60,
		LogLevel: "info",
		Renderer: Renderer{
			PresentMode:    "vsync",
			MSAA:           4,
			SortPolicy:     renderer.SortStateChanges.String(),
			FrustumCulling: true,
		},
	}
}

// Load reads and validates a configuration file. Keys missing from the file keep their
// Default values.
//
// Parameters:
//   - path: a .yaml, .yml or .toml file
//
// Returns:
//   - Config: the loaded configuration
//   - error: error if the file cannot be read, decoded or validated
func Load(path string) (Config, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return Config{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Decode(bufio.NewReader(f), format)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a configuration over the defaults and validates it.
//
// Parameters:
//   - r: the encoded configuration
//   - format: the encoding of r
//
// Returns:
//   - Config: the decoded configuration
//   - error: error if r cannot be decoded or the result is invalid
func Decode(r io.Reader, format Format) (Config, error) {
	cfg := Default()
	var err error
	switch format {
	case TOML:
		err = toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg)
	default:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", format, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes c in the given format.
func (c Config) Encode(w io.Writer, format Format) error {
	if format == TOML {
		return toml.NewEncoder(w).Encode(c)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

var validMSAA = map[int]bool{1: true, 4: true, 8: true, 16: true}

// Validate checks value ranges and names. Every failure wraps ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate must be positive, got %d", c.TickRate))
	}
	if c.RenderFrameLimit < 0 {
		errs = append(errs, fmt.Errorf("render_frame_limit must not be negative, got %d", c.RenderFrameLimit))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if !validMSAA[c.Renderer.MSAA] {
		errs = append(errs, fmt.Errorf("renderer.msaa must be 1, 4, 8 or 16, got %d", c.Renderer.MSAA))
	}
	if _, err := renderer.ParseSortPolicy(c.Renderer.SortPolicy); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error", or forms like "info+2").
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Package config loads the seqgrad YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RodgersLuo/DeepBind-code/internal/parallel"
	"github.com/RodgersLuo/DeepBind-code/internal/reference"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// DefaultAddress is the listen address used when none is configured.
const DefaultAddress = "127.0.0.1:8088"

// DefaultReadTimeout bounds reading a request body in the HTTP server.
const DefaultReadTimeout = 30 * time.Second

// DefaultMaxBodyBytes caps a job body in the HTTP server.
const DefaultMaxBodyBytes int64 = 64 << 20

// Config represents the seqgrad configuration file.
// Numeric fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	Backend string `yaml:"backend"`

	Tiling struct {
		SampleTile   *int `yaml:"sample_tile"`
		FilterTile   *int `yaml:"filter_tile"`
		SegmentBlock *int `yaml:"segment_block"`
	} `yaml:"tiling"`

	Workers      *int `yaml:"workers"`
	MinChunkSize *int `yaml:"min_chunk_size"`

	Tolerance struct {
		Abs *float64 `yaml:"abs"`
		Rel *float64 `yaml:"rel"`
	} `yaml:"tolerance"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Server struct {
		Address      string `yaml:"address"`
		ReadTimeout  string `yaml:"read_timeout"`
		MaxBodyBytes *int64 `yaml:"max_body_bytes"`
	} `yaml:"server"`
}

// DefaultPath returns ~/.config/seqgrad/config.yaml, or "" when the user
// config directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "seqgrad", "config.yaml")
}

// Load reads the config file. A missing file yields a zero Config.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// TilingOrDefault overlays the configured tile sizes on seqconv.DefaultTiling.
func (c Config) TilingOrDefault() (seqconv.Tiling, error) {
	t := seqconv.DefaultTiling()
	if c.Tiling.SampleTile != nil {
		t.SampleTile = *c.Tiling.SampleTile
	}
	if c.Tiling.FilterTile != nil {
		t.FilterTile = *c.Tiling.FilterTile
	}
	if c.Tiling.SegmentBlock != nil {
		t.SegmentBlock = *c.Tiling.SegmentBlock
	}
	if err := t.Validate(); err != nil {
		return seqconv.Tiling{}, fmt.Errorf("config: tiling: %w", err)
	}
	return t, nil
}

// ParallelConfig overlays the worker settings on parallel.TileConfig.
// workers: 1 runs every launch on the calling goroutine.
func (c Config) ParallelConfig() parallel.Config {
	cfg := parallel.TileConfig()
	if c.Workers != nil && *c.Workers > 0 {
		cfg.NumWorkers = *c.Workers
		cfg.Enabled = *c.Workers > 1
	}
	if c.MinChunkSize != nil && *c.MinChunkSize > 0 {
		cfg.MinChunkSize = *c.MinChunkSize
	}
	return cfg
}

// ToleranceFor overlays the configured tolerance on the default for dt.
func (c Config) ToleranceFor(dt tensor.DataType) reference.Tolerance {
	tol := reference.DefaultTolerance(dt)
	if c.Tolerance.Abs != nil {
		tol.Abs = *c.Tolerance.Abs
	}
	if c.Tolerance.Rel != nil {
		tol.Rel = *c.Tolerance.Rel
	}
	return tol
}

// ServerAddress returns the configured listen address or DefaultAddress.
func (c Config) ServerAddress() string {
	if c.Server.Address != "" {
		return c.Server.Address
	}
	return DefaultAddress
}

// ReadTimeout parses server.read_timeout, e.g. "45s".
func (c Config) ReadTimeout() (time.Duration, error) {
	if c.Server.ReadTimeout == "" {
		return DefaultReadTimeout, nil
	}
	d, err := time.ParseDuration(c.Server.ReadTimeout)
	if err != nil {
		return 0, fmt.Errorf("config: server.read_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: server.read_timeout must be positive, got %s", d)
	}
	return d, nil
}

// MaxBodyBytes returns server.max_body_bytes or DefaultMaxBodyBytes.
func (c Config) MaxBodyBytes() (int64, error) {
	if c.Server.MaxBodyBytes == nil {
		return DefaultMaxBodyBytes, nil
	}
	if n := *c.Server.MaxBodyBytes; n <= 0 {
		return 0, fmt.Errorf("config: server.max_body_bytes must be positive, got %d", n)
	}
	return *c.Server.MaxBodyBytes, nil
}

// Package config holds the animation run configuration and its TOML
// persistence, so a tuned set of flags can be replayed later.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/gridframe/ncanimate/internal/grid"
)

// Config is a full animation run description.
type Config struct {
	// Data selection
	FilePattern string `toml:"file_pattern"`
	Variable    string `toml:"variable"`
	FrameDim    string `toml:"frame_dim"`
	LevelIndex  *int   `toml:"level_index"`

	// Value masking
	Percentile   int       `toml:"percentile"`
	IgnoreValues []float64 `toml:"ignore_values"`

	// Spatial crop
	ZoomFactor    float64  `toml:"zoom_factor"`
	ZoomCenterLat *float64 `toml:"zoom_center_lat"`
	ZoomCenterLon *float64 `toml:"zoom_center_lon"`

	// Color scale
	GlobalRange bool `toml:"global_range"`
	SampleCap   int  `toml:"sample_cap"`

	// Output
	Format            string `toml:"format"`
	FPS               int    `toml:"fps"`
	OutputPattern     string `toml:"output_pattern"`
	OverwriteExisting bool   `toml:"overwrite_existing"`
}

var validFormats = map[string]bool{"mp4": true, "gif": true, "png": true, "json": true}

// Default returns the configuration a run starts from before flags and
// files override it.
func Default() Config {
	return Config{
		ZoomFactor:    1,
		GlobalRange:   true,
		SampleCap:     10,
		Format:        "mp4",
		FPS:           10,
		OutputPattern: "animation_{var}.{ext}",
	}
}

// Validate returns every problem with the configuration, not just the
// first, so a user fixing a config file sees the whole list at once.
func (c Config) Validate() []string {
	var problems []string
	if c.FilePattern == "" {
		problems = append(problems, "file_pattern must be set")
	}
	if c.Percentile < 0 || c.Percentile > 100 {
		problems = append(problems, fmt.Sprintf("percentile %d out of range [0, 100]", c.Percentile))
	}
	if err := c.ToZoomSpec().Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if !validFormats[c.Format] {
		problems = append(problems, fmt.Sprintf("format %q not one of mp4, gif, png, json", c.Format))
	}
	if c.FPS < 1 || c.FPS > 60 {
		problems = append(problems, fmt.Sprintf("fps %d out of range [1, 60]", c.FPS))
	}
	if c.SampleCap < 1 {
		problems = append(problems, fmt.Sprintf("sample_cap %d must be at least 1", c.SampleCap))
	}
	if c.LevelIndex != nil && *c.LevelIndex < 0 {
		problems = append(problems, fmt.Sprintf("level_index %d must not be negative", *c.LevelIndex))
	}
	return problems
}

// ToFilterSpec converts the masking settings.
func (c Config) ToFilterSpec() grid.FilterSpec {
	return grid.FilterSpec{Percentile: c.Percentile, IgnoreValues: c.IgnoreValues}
}

// ToZoomSpec converts the crop settings.
func (c Config) ToZoomSpec() grid.ZoomSpec {
	return grid.ZoomSpec{Factor: c.ZoomFactor, CenterLat: c.ZoomCenterLat, CenterLon: c.ZoomCenterLon}
}

// Load reads a TOML config file on top of the defaults, so a partial file
// only overrides what it names.
func Load(path string) (Config, error) {
	c := Default()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("load config %q: %w", path, err)
	}
	return c, nil
}

// Save writes the configuration as TOML.
func Save(path string, c Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save config %q: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config %q: %w", path, err)
	}
	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/pointstruct/sampler"
)

// RunConfig is the JSON-file form of a sampling run: the engine parameters
// plus the train/eval mode the tools should run in. Every field is
// optional; the Get* accessors supply defaults, so partial files are safe.
type RunConfig struct {
	Variant       *string  `json:"variant,omitempty"`
	NumSamples    *int     `json:"num_samples,omitempty"`
	NeighborLimit *int     `json:"neighbor_limit,omitempty"`
	Widths        []int    `json:"widths,omitempty"`
	GlobalFeature *bool    `json:"global_feature,omitempty"`
	Radius        *float64 `json:"radius,omitempty"`
	Scales        []int    `json:"scales,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	Seed          *int64   `json:"seed,omitempty"`
	Train         *bool    `json:"train,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }

// EmptyRunConfig returns a RunConfig with every field unset, which the
// accessors resolve to the documented defaults.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// LoadRunConfig loads a RunConfig from a JSON file. The file must have a
// .json extension and stay under the size cap. Fields omitted from the
// file keep their defaults, so partial configs are safe.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRunConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the fields this layer can judge on its own. Structural
// rules that depend on the assembled engine (width list length, scale
// ordering) are enforced by sampler.Config.Validate at construction.
func (c *RunConfig) Validate() error {
	if c.Variant != nil {
		if _, err := sampler.ParseVariant(*c.Variant); err != nil {
			return err
		}
	}
	if c.NumSamples != nil && *c.NumSamples <= 0 {
		return fmt.Errorf("num_samples must be positive, got %d", *c.NumSamples)
	}
	if c.NeighborLimit != nil && *c.NeighborLimit <= 0 {
		return fmt.Errorf("neighbor_limit must be positive, got %d", *c.NeighborLimit)
	}
	if c.Radius != nil && *c.Radius <= 0 {
		return fmt.Errorf("radius must be positive, got %g", *c.Radius)
	}
	if c.Temperature != nil && *c.Temperature < 0 {
		return fmt.Errorf("temperature must be non-negative, got %g", *c.Temperature)
	}
	return nil
}

// GetVariant returns the variant name or the default.
func (c *RunConfig) GetVariant() string {
	if c.Variant == nil || *c.Variant == "" {
		return "learnable"
	}
	return *c.Variant
}

// GetNumSamples returns the num_samples value or the default.
func (c *RunConfig) GetNumSamples() int {
	if c.NumSamples == nil {
		return 512
	}
	return *c.NumSamples
}

// GetNeighborLimit returns the neighbor_limit value or the default.
func (c *RunConfig) GetNeighborLimit() int {
	if c.NeighborLimit == nil {
		return 32
	}
	return *c.NeighborLimit
}

// GetWidths returns the feature transform widths or the default stack.
func (c *RunConfig) GetWidths() []int {
	if len(c.Widths) == 0 {
		return []int{32, 128}
	}
	return c.Widths
}

// GetGlobalFeature returns the global_feature value or the default.
func (c *RunConfig) GetGlobalFeature() bool {
	if c.GlobalFeature == nil {
		return false
	}
	return *c.GlobalFeature
}

// GetRadius returns the radius value or the default.
func (c *RunConfig) GetRadius() float64 {
	if c.Radius == nil {
		return 1.0
	}
	return *c.Radius
}

// GetScales returns the multiscale neighborhood sizes or the default pair.
func (c *RunConfig) GetScales() []int {
	if len(c.Scales) == 0 {
		return []int{32, 64}
	}
	return c.Scales
}

// GetTemperature returns the temperature value or the default.
func (c *RunConfig) GetTemperature() float64 {
	if c.Temperature == nil {
		return sampler.DefaultTemperature
	}
	return *c.Temperature
}

// GetSeed returns the seed value or the default.
func (c *RunConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}

// GetTrain returns the train value or the default.
func (c *RunConfig) GetTrain() bool {
	if c.Train == nil {
		return false
	}
	return *c.Train
}

// SamplerConfig assembles the engine configuration this RunConfig
// describes, with defaults filled in.
func (c *RunConfig) SamplerConfig() (sampler.Config, error) {
	variant, err := sampler.ParseVariant(c.GetVariant())
	if err != nil {
		return sampler.Config{}, err
	}
	return sampler.Config{
		Variant:       variant,
		NumSamples:    c.GetNumSamples(),
		NeighborLimit: c.GetNeighborLimit(),
		Widths:        c.GetWidths(),
		GlobalFeature: c.GetGlobalFeature(),
		Radius:        c.GetRadius(),
		Scales:        c.GetScales(),
		Temperature:   c.GetTemperature(),
		Seed:          c.GetSeed(),
	}, nil
}

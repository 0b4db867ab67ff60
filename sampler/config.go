package sampler

import (
	"fmt"
	"math/rand"
)

// Variant selects the scoring and grouping behavior of a Net.
type Variant int

const (
	// VariantLearnable squashes scores through a logistic function and
	// supports straight-through relaxed selection during training.
	VariantLearnable Variant = iota
	// VariantRadius normalizes scores across sample slots and refines each
	// neighborhood with a radius predicate around its anchor point. It
	// reports indices only.
	VariantRadius
	// VariantMultiScale normalizes scores across sample slots and slices one
	// shared neighborhood into several scales.
	VariantMultiScale
)

func (v Variant) String() string {
	switch v {
	case VariantLearnable:
		return "learnable"
	case VariantRadius:
		return "radius"
	case VariantMultiScale:
		return "multiscale"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant maps a variant name to its value. Accepted names are
// "learnable", "radius" and "multiscale".
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "learnable":
		return VariantLearnable, nil
	case "radius":
		return VariantRadius, nil
	case "multiscale":
		return VariantMultiScale, nil
	default:
		return 0, fmt.Errorf("unknown variant %q", s)
	}
}

// DefaultTemperature is the relaxed-categorical sharpness used when the
// config leaves Temperature at zero.
const DefaultTemperature = 0.1

const defaultSeed = 1

// Config holds the construction parameters of a Net. The zero value is not
// usable; NumSamples, Widths and the variant-specific fields must be set.
type Config struct {
	// Variant selects scoring squash and post-grouping refinement.
	Variant Variant

	// NumSamples is the number of output sample slots. Must stay below the
	// point count of every forward call.
	NumSamples int

	// NeighborLimit is the neighborhood size per sample slot. Ignored by
	// VariantMultiScale, which takes its sizes from Scales.
	NeighborLimit int

	// Widths lists the hidden widths of the point feature transform, at
	// least two entries.
	Widths []int

	// GlobalFeature augments every point embedding with the per-channel
	// maximum across all points before the final projection, doubling the
	// projection input width.
	GlobalFeature bool

	// Radius bounds neighborhoods for VariantRadius, in the units of the
	// input coordinates.
	Radius float64

	// Scales lists the neighborhood sizes for VariantMultiScale, strictly
	// ascending. The shared top-k grouping uses the largest entry.
	Scales []int

	// Temperature is the relaxed-categorical sharpness. Zero selects
	// DefaultTemperature.
	Temperature float64

	// Seed seeds the internal RNG when RNG is nil.
	Seed int64

	// RNG drives weight initialization and Gumbel noise. Nil means a new
	// generator seeded with Seed (or a fixed default when Seed is zero).
	RNG *rand.Rand
}

// Validate reports the first violated construction invariant. The messages
// name the invariant so misconfiguration can be fixed without reading the
// package internals.
func (c Config) Validate() error {
	if c.NumSamples <= 0 {
		return fmt.Errorf("sample count must be positive, got %d", c.NumSamples)
	}
	if len(c.Widths) < 2 {
		return fmt.Errorf("feature transform needs at least 2 widths, got %d", len(c.Widths))
	}
	for i, w := range c.Widths {
		if w <= 0 {
			return fmt.Errorf("width %d must be positive, got %d", i, w)
		}
	}
	if c.Temperature < 0 {
		return fmt.Errorf("temperature must be non-negative, got %g", c.Temperature)
	}
	switch c.Variant {
	case VariantLearnable:
		if c.NeighborLimit <= 0 {
			return fmt.Errorf("neighbor limit must be positive, got %d", c.NeighborLimit)
		}
	case VariantRadius:
		if c.NeighborLimit <= 0 {
			return fmt.Errorf("neighbor limit must be positive, got %d", c.NeighborLimit)
		}
		if c.Radius <= 0 {
			return fmt.Errorf("radius must be positive, got %g", c.Radius)
		}
	case VariantMultiScale:
		if len(c.Scales) == 0 {
			return fmt.Errorf("multiscale variant needs at least one scale")
		}
		prev := 0
		for i, n := range c.Scales {
			if n <= prev {
				return fmt.Errorf("scales must be positive and strictly ascending, got %v at position %d", c.Scales, i)
			}
			prev = n
		}
	default:
		return fmt.Errorf("unknown variant %d", int(c.Variant))
	}
	return nil
}

// temperature returns the configured sharpness or the default.
func (c Config) temperature() float64 {
	if c.Temperature == 0 {
		return DefaultTemperature
	}
	return c.Temperature
}

// neighborLimit returns the largest neighborhood size the variant gathers.
func (c Config) neighborLimit() int {
	if c.Variant == VariantMultiScale {
		return c.Scales[len(c.Scales)-1]
	}
	return c.NeighborLimit
}

// descriptorChannels returns the input width of the feature transform. The
// learnable variant expands coordinates to the 5-channel spherical
// descriptor; the heuristic variants consume raw coordinates.
func (c Config) descriptorChannels() int {
	if c.Variant == VariantLearnable {
		return 5
	}
	return 3
}

// rng returns the injected generator or a seeded default.
func (c Config) rng() *rand.Rand {
	if c.RNG != nil {
		return c.RNG
	}
	seed := c.Seed
	if seed == 0 {
		seed = defaultSeed
	}
	return rand.New(rand.NewSource(seed))
}

// Package cloud provides point-cloud containers, synthetic generators and
// plain-text I/O for the sampling tools.
//
// A Cloud is a single unbatched point set; Batch stacks equal-sized clouds
// into the (batch, points, channels) tensors the sampler consumes.
package cloud

import (
	"fmt"

	"github.com/banshee-data/pointstruct/tensor"
)

// Cloud is one point set with optional per-point features.
type Cloud struct {
	// Points holds one coordinate row per point (m, 3).
	Points *tensor.Dense
	// Features optionally carries attributes parallel to Points (m, d).
	Features *tensor.Dense
}

// Len returns the number of points.
func (c *Cloud) Len() int {
	if c == nil || c.Points == nil {
		return 0
	}
	return c.Points.Dim(0)
}

// FeatureDim returns the per-point feature width, zero when absent.
func (c *Cloud) FeatureDim() int {
	if c == nil || c.Features == nil {
		return 0
	}
	return c.Features.Dim(1)
}

// Batch stacks equal-sized clouds into a (B, m, 3) coordinate tensor and,
// when every cloud carries features of the same width, a (B, m, d) feature
// tensor. Mixing clouds with and without features is an error.
func Batch(clouds ...*Cloud) (coords, feats *tensor.Dense, err error) {
	if len(clouds) == 0 {
		return nil, nil, fmt.Errorf("no clouds to batch")
	}
	m := clouds[0].Len()
	d := clouds[0].FeatureDim()
	for i, c := range clouds {
		if c.Len() != m {
			return nil, nil, fmt.Errorf("cloud %d has %d points, want %d", i, c.Len(), m)
		}
		if c.FeatureDim() != d {
			return nil, nil, fmt.Errorf("cloud %d has feature width %d, want %d", i, c.FeatureDim(), d)
		}
	}
	if m == 0 {
		return nil, nil, fmt.Errorf("clouds are empty")
	}

	coords = tensor.New(len(clouds), m, 3)
	for i, c := range clouds {
		copy(coords.Data()[i*m*3:(i+1)*m*3], c.Points.Data())
	}
	if d > 0 {
		feats = tensor.New(len(clouds), m, d)
		for i, c := range clouds {
			copy(feats.Data()[i*m*d:(i+1)*m*d], c.Features.Data())
		}
	}
	return coords, feats, nil
}

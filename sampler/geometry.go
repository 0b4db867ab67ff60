package sampler

import (
	"fmt"
	"math"

	"github.com/banshee-data/pointstruct/tensor"
)

// SphericalDescriptor expands raw coordinates (B, m, 3) into the 5-channel
// per-point descriptor [x, y, z, theta, phi]: theta is the polar angle
// acos(z/r) and phi the azimuth atan2(y, x), both measured against the fixed
// origin at (0, 0, 0).
//
// A point coincident with the origin has no defined polar angle; r = 0
// produces a NaN theta which is deliberately not masked. Callers must keep
// origin-coincident points out of the input.
func SphericalDescriptor(coords *tensor.Dense) *tensor.Dense {
	if coords.Rank() != 3 || coords.Dim(2) != 3 {
		panic(fmt.Sprintf("sampler: SphericalDescriptor wants (B, m, 3) coordinates, got %v", coords.Shape()))
	}
	batch, m := coords.Dim(0), coords.Dim(1)
	out := tensor.New(batch, m, 5)
	src := coords.Data()
	dst := out.Data()
	for p := 0; p < batch*m; p++ {
		x, y, z := src[p*3], src[p*3+1], src[p*3+2]
		r := math.Sqrt(x*x + y*y + z*z)
		o := p * 5
		dst[o] = x
		dst[o+1] = y
		dst[o+2] = z
		dst[o+3] = math.Acos(z / r)
		dst[o+4] = math.Atan2(y, x)
	}
	return out
}

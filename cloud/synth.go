package cloud

import (
	"math"
	"math/rand"

	"github.com/banshee-data/pointstruct/tensor"
)

// UnitSphere returns m points uniformly distributed on the unit sphere,
// generated by normalizing Gaussian triples. No point coincides with the
// origin, so the spherical descriptor is defined everywhere.
func UnitSphere(m int, rng *rand.Rand) *Cloud {
	pts := tensor.New(m, 3)
	data := pts.Data()
	for p := 0; p < m; p++ {
		var x, y, z, r float64
		for r == 0 {
			x, y, z = rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()
			r = math.Sqrt(x*x + y*y + z*z)
		}
		data[p*3] = x / r
		data[p*3+1] = y / r
		data[p*3+2] = z / r
	}
	return &Cloud{Points: pts}
}

// Cube returns m points uniform in the cube [-1, 1]^3.
func Cube(m int, rng *rand.Rand) *Cloud {
	pts := tensor.New(m, 3)
	data := pts.Data()
	for i := range data {
		data[i] = rng.Float64()*2 - 1
	}
	return &Cloud{Points: pts}
}

// Clusters returns m points drawn from k Gaussian blobs with standard
// deviation sigma. Blob centers are uniform in [-1, 1]^3 and points are
// assigned to blobs round-robin, so every blob gets within one point of
// m/k members.
func Clusters(m, k int, sigma float64, rng *rand.Rand) *Cloud {
	if k < 1 {
		k = 1
	}
	centers := make([][3]float64, k)
	for i := range centers {
		centers[i] = [3]float64{
			rng.Float64()*2 - 1,
			rng.Float64()*2 - 1,
			rng.Float64()*2 - 1,
		}
	}
	pts := tensor.New(m, 3)
	data := pts.Data()
	for p := 0; p < m; p++ {
		c := centers[p%k]
		data[p*3] = c[0] + rng.NormFloat64()*sigma
		data[p*3+1] = c[1] + rng.NormFloat64()*sigma
		data[p*3+2] = c[2] + rng.NormFloat64()*sigma
	}
	return &Cloud{Points: pts}
}

package sampler

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/pointstruct/tensor"
)

func TestRelaxedSelect_HardRowsAreOneHot(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	q := tensor.New(3, 4, 16)
	for i := range q.Data() {
		q.Data()[i] = rng.Float64()
	}

	hard, soft := relaxedSelect(q, 0.1, rng)

	for r := 0; r < 3*4; r++ {
		row := hard.Data()[r*16 : (r+1)*16]
		ones, sum := 0, 0.0
		for _, v := range row {
			sum += v
			if v == 1 {
				ones++
			} else if v != 0 {
				t.Fatalf("row %d has non-binary entry %v", r, v)
			}
		}
		if ones != 1 || sum != 1 {
			t.Fatalf("row %d is not one-hot: %v ones, sum %v", r, ones, sum)
		}

		softSum := 0.0
		for _, v := range soft.Data()[r*16 : (r+1)*16] {
			softSum += v
		}
		if math.Abs(softSum-1) > 1e-9 {
			t.Fatalf("soft row %d sums to %v", r, softSum)
		}
	}
}

func TestRelaxedSelect_HardTracksSoftArgmax(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	q := tensor.New(1, 2, 8)
	for i := range q.Data() {
		q.Data()[i] = rng.Float64()
	}

	hard, soft := relaxedSelect(q, 0.5, rng)
	for r := 0; r < 2; r++ {
		softRow := soft.Data()[r*8 : (r+1)*8]
		best := 0
		for i, v := range softRow {
			if v > softRow[best] {
				best = i
			}
		}
		if hard.Data()[r*8+best] != 1 {
			t.Fatalf("row %d: hard one is not at the soft argmax", r)
		}
	}
}

func TestRelaxedSelect_SeedReproducible(t *testing.T) {
	q := tensor.New(2, 3, 10)
	for i := range q.Data() {
		q.Data()[i] = float64(i%7) / 7
	}

	h1, s1 := relaxedSelect(q, 0.1, rand.New(rand.NewSource(21)))
	h2, s2 := relaxedSelect(q, 0.1, rand.New(rand.NewSource(21)))
	for i := range h1.Data() {
		if h1.Data()[i] != h2.Data()[i] || s1.Data()[i] != s2.Data()[i] {
			t.Fatalf("same seed diverged at element %d", i)
		}
	}
}

func TestRelaxedSelect_LowTemperatureSharpens(t *testing.T) {
	// At a very low temperature the soft sample itself approaches one-hot.
	q := tensor.New(1, 1, 6)
	for i := range q.Data() {
		q.Data()[i] = float64(i) * 0.1
	}
	_, soft := relaxedSelect(q, 0.001, rand.New(rand.NewSource(2)))

	max := 0.0
	for _, v := range soft.Data() {
		if v > max {
			max = v
		}
	}
	if max < 0.999 {
		t.Errorf("soft sample not sharp at low temperature: max %v", max)
	}
}

func TestOnehotRows_FirstMaximumWins(t *testing.T) {
	x := tensor.FromSlice([]float64{0.2, 0.8, 0.8, 0.1}, 1, 4)
	y := onehotRows(x)
	want := []float64{0, 1, 0, 0}
	for i, w := range want {
		if y.Data()[i] != w {
			t.Fatalf("ties must resolve to the first maximum, got %v", y.Data())
		}
	}
}

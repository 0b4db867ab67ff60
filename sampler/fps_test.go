package sampler

import (
	"math/rand"
	"testing"

	"github.com/banshee-data/pointstruct/tensor"
)

func TestFarthestPoint_FullSelectionIsPermutation(t *testing.T) {
	coords := randomCoords(2, 16, 30)
	idx, err := FarthestPoint(coords, 16, nil)
	if err != nil {
		t.Fatalf("FarthestPoint: %v", err)
	}
	for b := 0; b < 2; b++ {
		seen := make(map[int]bool, 16)
		for j := 0; j < 16; j++ {
			p := idx.At(b, j)
			if p < 0 || p >= 16 || seen[p] {
				t.Fatalf("batch %d: selection is not a permutation: %v", b, idx.Data())
			}
			seen[p] = true
		}
	}
}

func TestFarthestPoint_DeterministicWithoutRNG(t *testing.T) {
	coords := randomCoords(1, 64, 31)
	a, err := FarthestPoint(coords, 8, nil)
	if err != nil {
		t.Fatalf("FarthestPoint: %v", err)
	}
	b, err := FarthestPoint(coords, 8, nil)
	if err != nil {
		t.Fatalf("FarthestPoint: %v", err)
	}
	for i, v := range a.Data() {
		if b.Data()[i] != v {
			t.Fatalf("deterministic walk diverged at %d", i)
		}
	}
}

func TestFarthestPoint_SeparatedClusters(t *testing.T) {
	// Two tight clusters far apart: the second pick lands in the other
	// cluster from the first.
	coords := tensor.FromSlice([]float64{
		0, 0, 0,
		0.1, 0, 0,
		100, 0, 0,
		100.1, 0, 0,
	}, 1, 4, 3)

	idx, err := FarthestPoint(coords, 2, nil)
	if err != nil {
		t.Fatalf("FarthestPoint: %v", err)
	}
	first, second := idx.At(0, 0), idx.At(0, 1)
	if first != 0 {
		t.Fatalf("nil rng must start at index 0, got %d", first)
	}
	if second != 2 && second != 3 {
		t.Fatalf("second pick %d should be in the far cluster", second)
	}
}

func TestFarthestPoint_SeededStart(t *testing.T) {
	coords := randomCoords(1, 32, 33)
	a, err := FarthestPoint(coords, 4, rand.New(rand.NewSource(8)))
	if err != nil {
		t.Fatalf("FarthestPoint: %v", err)
	}
	b, err := FarthestPoint(coords, 4, rand.New(rand.NewSource(8)))
	if err != nil {
		t.Fatalf("FarthestPoint: %v", err)
	}
	for i, v := range a.Data() {
		if b.Data()[i] != v {
			t.Fatalf("same seed diverged at %d", i)
		}
	}
}

func TestFarthestPoint_Errors(t *testing.T) {
	coords := randomCoords(1, 8, 34)
	if _, err := FarthestPoint(coords, 0, nil); err == nil {
		t.Error("expected error for k = 0")
	}
	if _, err := FarthestPoint(coords, 9, nil); err == nil {
		t.Error("expected error for k > point count")
	}
	if _, err := FarthestPoint(tensor.New(1, 8, 2), 2, nil); err == nil {
		t.Error("expected error for non-coordinate input")
	}
	if _, err := FarthestPoint(nil, 2, nil); err == nil {
		t.Error("expected error for nil input")
	}
}

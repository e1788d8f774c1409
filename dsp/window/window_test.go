package window

import (
	"math"
	"testing"
)

func TestGenerateFinite(t *testing.T) {
	types := map[string]Type{
		"rectangular": TypeRectangular,
		"hann":        TypeHann,
		"blackman":    TypeBlackman,
	}

	for name, typ := range types {
		t.Run(name, func(t *testing.T) {
			w := Generate(typ, 64)
			if len(w) != 64 {
				t.Fatalf("len=%d, want 64", len(w))
			}

			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("coefficient[%d] invalid: %v", i, v)
				}
			}
		})
	}
}

func TestBlackmanMatchesClosedForm(t *testing.T) {
	const m = 40

	w := Generate(TypeBlackman, m+1)
	for n := 0; n <= m; n++ {
		want := 0.42 - 0.5*math.Cos(2*math.Pi*float64(n)/m) + 0.08*math.Cos(4*math.Pi*float64(n)/m)
		if math.Abs(w[n]-want) > 1e-12 {
			t.Fatalf("w[%d] = %v, want %v", n, w[n], want)
		}
	}
}

func TestSymmetric(t *testing.T) {
	w := Generate(TypeBlackman, 33)
	for i := range w {
		if math.Abs(w[i]-w[len(w)-1-i]) > 1e-12 {
			t.Fatalf("asymmetric at %d: %v vs %v", i, w[i], w[len(w)-1-i])
		}
	}
}

func TestPeriodicDiffersFromSymmetric(t *testing.T) {
	sym := Generate(TypeHann, 8)
	per := Generate(TypeHann, 8, WithPeriodic())
	if sym[len(sym)-1] == per[len(per)-1] {
		t.Fatal("periodic and symmetric forms should differ at the last coefficient")
	}
}

func TestGenerateEmpty(t *testing.T) {
	if w := Generate(TypeBlackman, 0); w != nil {
		t.Fatalf("Generate(0) = %v, want nil", w)
	}

	buf := []float64{}
	Apply(TypeHann, buf)
}

func TestGenerateSingle(t *testing.T) {
	w := Generate(TypeBlackman, 1)
	if len(w) != 1 || math.Abs(w[0]-0) > 1e-12 {
		t.Fatalf("Generate(1) = %v, want [0]", w)
	}
}

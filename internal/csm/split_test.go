package csm

import (
	"errors"
	"math/rand"
	"testing"
)

func TestSplitDefaultScenario(t *testing.T) {
	cascades, err := Split(0.3, 1000, 4, nil)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	want := [][2]float32{
		{0.3, 67.3},
		{67.3, 200.3},
		{200.3, 467.3},
		{467.3, 1000},
	}
	if len(cascades) != len(want) {
		t.Fatalf("expected %d cascades, got %d", len(want), len(cascades))
	}
	for i, c := range cascades {
		if c.Index != i {
			t.Errorf("cascade %d: index %d", i, c.Index)
		}
		if !approx(c.Near, want[i][0], 0.01) || !approx(c.Far, want[i][1], 0.01) {
			t.Errorf("cascade %d: got (%v, %v), want ~(%v, %v)", i, c.Near, c.Far, want[i][0], want[i][1])
		}
	}
}

func TestSplitContiguous(t *testing.T) {
	policies := []SplitPolicy{
		UniformSplit{},
		LogarithmicSplit{},
		PracticalSplit{Lambda: 0.5},
		PracticalSplit{Lambda: 0},
		PracticalSplit{Lambda: 1},
	}
	rng := rand.New(rand.NewSource(7))

	for _, policy := range policies {
		t.Run(policy.Name(), func(t *testing.T) {
			for iter := 0; iter < 200; iter++ {
				near := 0.01 + rng.Float32()*10
				far := near + 0.01 + rng.Float32()*5000
				n := 1 + rng.Intn(8)

				cascades, err := Split(near, far, n, policy)
				if err != nil {
					t.Fatalf("Split(%v, %v, %d) failed: %v", near, far, n, err)
				}
				assertContiguous(t, cascades, near, far, n)
			}
		})
	}

	t.Run("percentage", func(t *testing.T) {
		for iter := 0; iter < 200; iter++ {
			near := rng.Float32() * 10
			far := near + 0.01 + rng.Float32()*5000
			cascades, err := Split(near, far, 4, nil)
			if err != nil {
				t.Fatalf("Split(%v, %v, 4) failed: %v", near, far, err)
			}
			assertContiguous(t, cascades, near, far, 4)
		}
	})
}

func assertContiguous(t *testing.T, cascades []Cascade, near, far float32, n int) {
	t.Helper()
	if len(cascades) != n {
		t.Fatalf("expected %d cascades, got %d", n, len(cascades))
	}
	if cascades[0].Near != near {
		t.Errorf("first near %v, want %v", cascades[0].Near, near)
	}
	if cascades[n-1].Far != far {
		t.Errorf("last far %v, want %v", cascades[n-1].Far, far)
	}
	for k, c := range cascades {
		if c.Far < c.Near {
			t.Errorf("cascade %d decreasing: %v > %v", k, c.Near, c.Far)
		}
		if k > 0 && c.Near != cascades[k-1].Far {
			t.Errorf("gap between cascade %d and %d: %v != %v", k-1, k, cascades[k-1].Far, c.Near)
		}
	}
}

func TestSplitClampsLargeNear(t *testing.T) {
	// near + far*fraction overshoots far when near is a large share of far.
	cascades, err := Split(600, 1000, 4, nil)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	assertContiguous(t, cascades, 600, 1000, 4)
	if cascades[3].Depth() != 0 {
		t.Errorf("expected last cascade to collapse, got depth %v", cascades[3].Depth())
	}
}

func TestSplitInvalidRange(t *testing.T) {
	tests := []struct {
		name      string
		near, far float32
		n         int
	}{
		{"far equals near", 10, 10, 4},
		{"far below near", 10, 5, 4},
		{"zero cascades", 0.1, 100, 0},
		{"negative cascades", 0.1, 100, -2},
		{"negative near", -1, 100, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.near, tt.far, tt.n, UniformSplit{})
			var rangeErr *InvalidRangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("expected InvalidRangeError, got %v", err)
			}
		})
	}
}

func TestPercentageSplitValidation(t *testing.T) {
	tests := []struct {
		name       string
		cumulative []float32
		n          int
	}{
		{"too few", []float32{0.1}, 4},
		{"too many", []float32{0.1, 0.2, 0.3, 0.4}, 4},
		{"not increasing", []float32{0.2, 0.1, 0.5}, 4},
		{"reaches one", []float32{0.2, 0.5, 1}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(0.1, 100, tt.n, PercentageSplit{Cumulative: tt.cumulative})
			var rangeErr *InvalidRangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("expected InvalidRangeError, got %v", err)
			}
		})
	}
}

func TestLogarithmicSplitNeedsPositiveNear(t *testing.T) {
	if _, err := Split(0, 100, 3, LogarithmicSplit{}); err == nil {
		t.Error("expected error for logarithmic split with near 0")
	}
	if _, err := Split(0, 100, 3, PracticalSplit{Lambda: 0}); err != nil {
		t.Errorf("purely uniform practical split should accept near 0: %v", err)
	}
}

func TestLogarithmicSplitRatio(t *testing.T) {
	cascades, err := Split(1, 1000, 3, LogarithmicSplit{})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	for i, c := range cascades {
		if !approx(c.Far/c.Near, 10, 0.001) {
			t.Errorf("cascade %d ratio %v, want 10", i, c.Far/c.Near)
		}
	}
}

func TestSplitSingleCascade(t *testing.T) {
	cascades, err := Split(0.5, 50, 1, nil)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(cascades) != 1 || cascades[0].Near != 0.5 || cascades[0].Far != 50 {
		t.Errorf("single cascade: got %+v", cascades)
	}
}

func TestDefaultSplitAnyCount(t *testing.T) {
	for n := 1; n <= 8; n++ {
		cascades, err := Split(0.3, 1000, n, nil)
		if err != nil {
			t.Fatalf("Split with %d cascades failed: %v", n, err)
		}
		assertContiguous(t, cascades, 0.3, 1000, n)
	}

	// Four cascades keep the percentage schedule.
	cascades, err := Split(0.3, 1000, 4, DefaultSplit{})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if want := 0.3 + 1000*DefaultPercentages[0]; !approx(cascades[0].Far, want, 1e-3) {
		t.Errorf("first boundary %v, want %v", cascades[0].Far, want)
	}

	// Other counts follow the practical split.
	got, err := Split(0.3, 1000, 3, DefaultSplit{})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	want, _ := Split(0.3, 1000, 3, PracticalSplit{Lambda: DefaultLambda})
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cascade %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	// Zero near falls back to uniform instead of failing.
	if _, err := Split(0, 100, 3, DefaultSplit{}); err != nil {
		t.Errorf("Split with zero near failed: %v", err)
	}
}

func TestSplitIntoReusesStorage(t *testing.T) {
	buf := make([]Cascade, 0, 4)
	out, err := SplitInto(buf, 0.3, 1000, 4, nil)
	if err != nil {
		t.Fatalf("SplitInto failed: %v", err)
	}
	if &out[0] != &buf[:1][0] {
		t.Error("SplitInto did not reuse the provided buffer")
	}
}

func TestNewSplitPolicy(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{"", "default", false},
		{"default", "default", false},
		{"percentage", "default", false},
		{"uniform", "uniform", false},
		{"logarithmic", "logarithmic", false},
		{"log", "logarithmic", false},
		{"practical", "practical", false},
		{"pssm", "practical", false},
		{"fancy", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewSplitPolicy(tt.name, nil, 0.5)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownSplitPolicy) {
					t.Fatalf("expected ErrUnknownSplitPolicy, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSplitPolicy failed: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("expected policy %s, got %s", tt.wantName, p.Name())
			}
		})
	}
}

func TestNewSplitPolicyCopiesPercentages(t *testing.T) {
	pct := []float32{0.1, 0.3, 0.6}
	p, err := NewSplitPolicy("percentage", pct, 0)
	if err != nil {
		t.Fatalf("NewSplitPolicy failed: %v", err)
	}
	pct[0] = 0.9
	if got := p.(PercentageSplit).Cumulative[0]; got != 0.1 {
		t.Errorf("policy aliases caller slice: got %v", got)
	}
}

func approx(a, b, tol float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

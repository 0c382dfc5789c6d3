package explore

import (
	"errors"
	"math"
	"testing"

	"github.com/tjfontaine/decision-client/status"
)

func TestUniformDrawRangeAndDeterminism(t *testing.T) {
	for seed := uint64(0); seed < 10000; seed++ {
		u := UniformDraw(seed)
		if u < 0 || u >= 1 {
			t.Fatalf("UniformDraw(%d) = %v, out of [0,1)", seed, u)
		}
		if u != UniformDraw(seed) {
			t.Fatalf("UniformDraw(%d) is not deterministic", seed)
		}
	}
}

func TestEventSeedIsHashPlusShift(t *testing.T) {
	shift := HashSeed("my-app")
	if got := EventSeed("event-1", shift); got != HashSeed("event-1")+shift {
		t.Errorf("EventSeed = %d, want hash(event)+hash(app)", got)
	}
	// Overflow wraps; equality must still hold.
	if got := EventSeed("event-1", math.MaxUint64); got != HashSeed("event-1")+math.MaxUint64 {
		t.Error("EventSeed does not wrap consistently")
	}
}

func TestSampleAndReorderDeterministic(t *testing.T) {
	pdf := []float32{0.1, 0.2, 0.3, 0.4}
	for seed := uint64(0); seed < 1000; seed++ {
		ids1 := []uint32{10, 20, 30, 40}
		pdf1 := append([]float32(nil), pdf...)
		ids2 := []uint32{10, 20, 30, 40}
		pdf2 := append([]float32(nil), pdf...)

		c1, err := SampleAndReorder(seed, ids1, pdf1)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		c2, _ := SampleAndReorder(seed, ids2, pdf2)
		if c1 != c2 || ids1[0] != ids2[0] {
			t.Fatalf("seed %d: sampler is not deterministic", seed)
		}
	}
}

func TestSampleAndReorderPreservesMassAndActions(t *testing.T) {
	pdf := []float32{0.25, 0.25, 0.3, 0.2}
	for seed := uint64(0); seed < 500; seed++ {
		ids := []uint32{1, 2, 3, 4}
		p := append([]float32(nil), pdf...)
		chosen, err := SampleAndReorder(seed, ids, p)
		if err != nil {
			t.Fatal(err)
		}

		var sum float32
		seen := map[uint32]bool{}
		for i := range p {
			sum += p[i]
			seen[ids[i]] = true
		}
		if math.Abs(float64(sum-1)) > 1e-5 {
			t.Fatalf("seed %d: mass changed, sum %v", seed, sum)
		}
		for _, id := range []uint32{1, 2, 3, 4} {
			if !seen[id] {
				t.Fatalf("seed %d: action %d lost", seed, id)
			}
		}
		if pdf[chosen] != p[0] {
			t.Fatalf("seed %d: chosen probability not moved to front", seed)
		}
	}
}

func TestMoveToFrontPreservesRelativeOrder(t *testing.T) {
	ids := []uint32{1, 2, 3, 4, 5}
	pdf := []float32{0.1, 0.2, 0.3, 0.2, 0.2}
	MoveToFront(2, ids, pdf)

	wantIDs := []uint32{3, 1, 2, 4, 5}
	for i := range wantIDs {
		if ids[i] != wantIDs[i] {
			t.Fatalf("ids = %v, want %v", ids, wantIDs)
		}
	}
	if pdf[0] != 0.3 {
		t.Errorf("pdf[0] = %v, want 0.3", pdf[0])
	}
}

func TestValidatePDF(t *testing.T) {
	cases := []struct {
		name string
		pdf  []float32
		ok   bool
	}{
		{"uniform", []float32{0.25, 0.25, 0.25, 0.25}, true},
		{"withinTolerance", []float32{0.5, 0.5000001}, true},
		{"negative", []float32{-0.1, 1.1}, false},
		{"allZero", []float32{0, 0, 0}, false},
		{"empty", nil, false},
		{"underNormalised", []float32{0.3, 0.3}, false},
		{"overNormalised", []float32{0.8, 0.8}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePDF(tc.pdf)
			if tc.ok && err != nil {
				t.Fatalf("ValidatePDF(%v) = %v, want nil", tc.pdf, err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatalf("ValidatePDF(%v) = nil, want InvalidPdf", tc.pdf)
				}
				if !errors.Is(err, status.New(status.InvalidPdf, "")) {
					t.Fatalf("ValidatePDF(%v) = %v, want InvalidPdf", tc.pdf, err)
				}
			}
		})
	}
}

func TestSampleCoversAllActions(t *testing.T) {
	// With a uniform pdf every action should be chosen for some seed.
	counts := map[uint32]int{}
	for seed := uint64(0); seed < 4000; seed++ {
		ids := []uint32{0, 1, 2, 3}
		pdf := []float32{0.25, 0.25, 0.25, 0.25}
		if _, err := SampleAndReorder(seed, ids, pdf); err != nil {
			t.Fatal(err)
		}
		counts[ids[0]]++
	}
	for id := uint32(0); id < 4; id++ {
		if counts[id] < 500 {
			t.Errorf("action %d chosen %d/4000 times, expected roughly uniform", id, counts[id])
		}
	}
}

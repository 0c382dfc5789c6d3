// Package explore turns a probability distribution over action indices
// into a sampled action and a reordered action list, deterministically
// in (seed, pdf).
package explore

import (
	"math"

	"github.com/tjfontaine/decision-client/status"
)

// pdfTolerance bounds the accepted drift of Σp from 1.
const pdfTolerance = 1e-5

// ValidatePDF rejects distributions with negative entries, no mass, or
// normalisation drift beyond tolerance.
func ValidatePDF(pdf []float32) error {
	if len(pdf) == 0 {
		return status.New(status.InvalidPdf, "empty pdf")
	}
	var sum float64
	for i, p := range pdf {
		if p < 0 || math.IsNaN(float64(p)) {
			return status.New(status.InvalidPdf, "pdf[%d] = %v is negative", i, p)
		}
		sum += float64(p)
	}
	if sum == 0 {
		return status.New(status.InvalidPdf, "pdf has zero total mass")
	}
	if math.Abs(sum-1) > pdfTolerance {
		return status.New(status.InvalidPdf, "pdf sums to %v", sum)
	}
	return nil
}

// SampleAfterPDF draws a uniform value from seed and returns the
// smallest index i with the cumulative density at i covering the draw.
func SampleAfterPDF(seed uint64, pdf []float32) (int, error) {
	if err := ValidatePDF(pdf); err != nil {
		return 0, err
	}
	u := UniformDraw(seed)
	var cum float64
	for i, p := range pdf {
		cum += float64(p)
		if cum >= u {
			return i, nil
		}
	}
	// Rounding can leave the cumulative density a hair under the draw;
	// the last index owns the remainder.
	return len(pdf) - 1, nil
}

// MoveToFront moves element chosen of both slices to position 0,
// shifting the preceding elements right so relative order among the
// rest is preserved. The slices are modified in place.
func MoveToFront(chosen int, ids []uint32, pdf []float32) {
	if chosen <= 0 || chosen >= len(ids) {
		return
	}
	id, p := ids[chosen], pdf[chosen]
	copy(ids[1:chosen+1], ids[:chosen])
	copy(pdf[1:chosen+1], pdf[:chosen])
	ids[0], pdf[0] = id, p
}

// SampleAndReorder samples an index from pdf and reorders ids and pdf
// with the sampled element first. It returns the chosen position in
// the original ordering.
func SampleAndReorder(seed uint64, ids []uint32, pdf []float32) (int, error) {
	if len(ids) != len(pdf) {
		return 0, status.New(status.InvalidPdf, "pdf length %d does not match %d actions", len(pdf), len(ids))
	}
	chosen, err := SampleAfterPDF(seed, pdf)
	if err != nil {
		return 0, err
	}
	MoveToFront(chosen, ids, pdf)
	return chosen, nil
}

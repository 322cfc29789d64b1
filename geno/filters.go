package geno

import (
	"go.dedis.ch/onet/v3/log"
)

// HasMissingMarker reports whether any individual is missing at marker col.
// An out-of-range column is reported and counts as not missing.
func HasMissingMarker(m *Matrix, col int) bool {
	if col < 0 || col >= m.Cols() {
		log.Error("invalid column index for missing-marker check:", col)
		return false
	}
	for i := 0; i < m.Rows(); i++ {
		if m.At(i, col) < 0 {
			return true
		}
	}
	return false
}

// IsMonomorphicMarker reports whether all non-missing genotypes at marker
// col are identical. A column with no observed genotypes counts as
// monomorphic. An out-of-range column is reported and counts as not
// monomorphic.
func IsMonomorphicMarker(m *Matrix, col int) bool {
	if col < 0 || col >= m.Cols() {
		log.Error("invalid column index for monomorphic-marker check:", col)
		return false
	}
	first := -1.0
	seen := false
	for i := 0; i < m.Rows(); i++ {
		g := m.At(i, col)
		if g < 0 {
			continue
		}
		if !seen {
			first = g
			seen = true
			continue
		}
		if g != first {
			return false
		}
	}
	return true
}

// RemoveMissingMarkers drops every marker column containing a missing
// genotype. Retained columns keep their order and labels; rows are
// untouched.
func RemoveMissingMarkers(m *Matrix) {
	keep := make([]bool, m.Cols())
	for j := range keep {
		keep[j] = !HasMissingMarker(m, j)
	}
	m.compactColumns(keep)
}

// RemoveMonomorphicMarkers drops every monomorphic marker column. Retained
// columns keep their order and labels; rows are untouched.
func RemoveMonomorphicMarkers(m *Matrix) {
	keep := make([]bool, m.Cols())
	for j := range keep {
		keep[j] = !IsMonomorphicMarker(m, j)
	}
	m.compactColumns(keep)
}

// FilterParams holds per-marker QC thresholds applied before association.
type FilterParams struct {
	MafLowerBound      float64
	HwePvalLowerBound  float64
	CallRateLowerBound float64
}

// MarkerQCMask returns one keep-flag per marker of m: true iff the marker's
// minor allele frequency is at least MafLowerBound, its exact HWE p-value is
// at least HwePvalLowerBound, and its call rate is at least
// CallRateLowerBound.
func MarkerQCMask(m *Matrix, fp FilterParams) []bool {
	keep := make([]bool, m.Cols())
	counter := NewGenotypeCounter()
	for j := range keep {
		counter.Reset()
		for i := 0; i < m.Rows(); i++ {
			counter.Add(m.At(i, j))
		}
		maf := counter.AF()
		if maf > 0.5 {
			maf = 1.0 - maf
		}
		keep[j] = maf >= fp.MafLowerBound &&
			counter.CallRate() >= fp.CallRateLowerBound &&
			counter.HWE() >= fp.HwePvalLowerBound
	}
	return keep
}

// KeepMarkers drops every marker column whose keep-flag is false.
func KeepMarkers(m *Matrix, keep []bool) {
	if len(keep) != m.Cols() {
		log.Error("marker mask length", len(keep), "does not match column count", m.Cols())
		return
	}
	m.compactColumns(keep)
}

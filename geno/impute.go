package geno

// markerFreq returns the alternate allele frequency of column j estimated
// from the non-missing entries, 0 when the column has no observed genotypes.
func markerFreq(m *Matrix, j int) float64 {
	ac := 0.0
	an := 0
	for i := 0; i < m.Rows(); i++ {
		if g := m.At(i, j); g >= 0 {
			ac += g
			an += 2
		}
	}
	if an == 0 {
		return 0
	}
	return ac / float64(an)
}

// ImputeToMean replaces every missing genotype with the expected dosage 2p
// of its marker, where p is the allele frequency of the observed entries.
// Markers with no observed genotypes impute to 0. Operates in place,
// per marker.
func ImputeToMean(m *Matrix) {
	for j := 0; j < m.Cols(); j++ {
		g := 2.0 * markerFreq(m, j)
		for i := 0; i < m.Rows(); i++ {
			if m.At(i, j) < 0 {
				m.Set(i, j, g)
			}
		}
	}
}

// ImputeByFrequency replaces every missing genotype with a hard call drawn
// from the Hardy-Weinberg genotype distribution (p^2, 2pq, q^2) of its
// marker. Operates in place, per marker. The draw order is row-major within
// each column, so a fixed seed reproduces the same output.
func ImputeByFrequency(m *Matrix, r *Random) {
	for j := 0; j < m.Cols(); j++ {
		p := markerFreq(m, j)
		pRef := p * p
		pHet := pRef + 2.0*p*(1.0-p)
		for i := 0; i < m.Rows(); i++ {
			if m.At(i, j) >= 0 {
				continue
			}
			v := r.Next()
			switch {
			case v < pRef:
				m.Set(i, j, 0)
			case v < pHet:
				m.Set(i, j, 1)
			default:
				m.Set(i, j, 2)
			}
		}
	}
}

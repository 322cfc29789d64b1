package geno

// ConvertToMinorAlleleCount copies in into out, flipping every marker whose
// coded allele frequency exceeds 0.5 so that the coded value always counts
// copies of the minor allele (g -> 2 - g, dosage included). Missing values
// pass through unchanged. Column labels are preserved.
func ConvertToMinorAlleleCount(in *Matrix, out *Matrix) {
	*out = *in.Clone()
	for j := 0; j < out.Cols(); j++ {
		if markerFreq(out, j) <= 0.5 {
			continue
		}
		for i := 0; i < out.Rows(); i++ {
			if g := out.At(i, j); g >= 0 {
				out.Set(i, j, 2.0-g)
			}
		}
	}
}

package geno

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertToMinorAlleleCount(t *testing.T) {
	in := mustMatrix(t, [][]float64{
		{2, 0, -1},
		{2, 1, 2},
		{1, 0, 2},
		{2, 0, 2},
	})
	in.SetColLabel(0, "1:100")
	in.SetColLabel(1, "1:200")
	in.SetColLabel(2, "1:300")

	out := NewMatrix(0, 0)
	ConvertToMinorAlleleCount(in, out)

	// marker 0 has coded allele frequency 7/8 and is flipped
	require.Equal(t, 0.0, out.At(0, 0))
	require.Equal(t, 1.0, out.At(2, 0))
	// marker 1 stays: frequency 1/8
	require.Equal(t, 1.0, out.At(1, 1))
	// marker 2 is flipped, missing passes through
	require.Equal(t, -1.0, out.At(0, 2))
	require.Equal(t, 0.0, out.At(1, 2))

	// labels survive the copy
	require.Equal(t, "1:100", out.ColLabel(0))
	require.Equal(t, "1:300", out.ColLabel(2))

	// the input is untouched
	require.Equal(t, 2.0, in.At(0, 0))
}

func TestMinorAlleleFlipBoundsFrequency(t *testing.T) {
	in := mustMatrix(t, [][]float64{
		{2}, {2}, {1}, {2}, {2},
	})

	pre := NewGenotypeCounter()
	for i := 0; i < in.Rows(); i++ {
		pre.Add(in.At(i, 0))
	}
	require.Greater(t, pre.AF(), 0.5)

	out := NewMatrix(0, 0)
	ConvertToMinorAlleleCount(in, out)

	post := NewGenotypeCounter()
	for i := 0; i < out.Rows(); i++ {
		post.Add(out.At(i, 0))
	}
	require.LessOrEqual(t, post.AF(), 0.5)
}

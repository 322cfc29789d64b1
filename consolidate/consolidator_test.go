package consolidate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hhcho/genoprep/geno"
	"github.com/hhcho/genoprep/par"
)

func mustMatrix(t *testing.T, rows [][]float64) *geno.Matrix {
	t.Helper()
	m, err := geno.NewMatrixFromRows(rows)
	require.NoError(t, err)
	return m
}

func rawInputs(t *testing.T) (pheno, cov, g *geno.Matrix) {
	pheno = mustMatrix(t, [][]float64{{0}, {1}, {1}, {0}})
	cov = mustMatrix(t, [][]float64{{1.2}, {0.7}, {-0.1}, {2.2}})
	g = mustMatrix(t, [][]float64{
		{0, 1},
		{1, -1},
		{2, 2},
		{-1, 0},
	})
	g.SetColLabel(0, "1:12345")
	g.SetColLabel(1, "1:67890")
	return
}

func TestConsolidateUninitializedStrategy(t *testing.T) {
	dc := NewDataConsolidator([]byte("seed"))
	pheno, cov, g := rawInputs(t)

	require.Error(t, dc.Consolidate(pheno, cov, g))
	// the structural copy still happened
	require.Equal(t, 4, dc.Genotype().Rows())
	require.Equal(t, "1:12345", dc.Genotype().ColLabel(0))
	require.Equal(t, 1, dc.Phenotype().Cols())
}

func TestConsolidateRowMismatch(t *testing.T) {
	dc := NewDataConsolidator(nil)
	dc.SetStrategy(ImputeMean)
	pheno, cov, g := rawInputs(t)
	short := mustMatrix(t, [][]float64{{0}, {1}})

	require.Error(t, dc.Consolidate(short, cov, g))
	require.Error(t, dc.Consolidate(pheno, mustMatrix(t, [][]float64{{1.0}}), g))
}

func TestConsolidateImputeMean(t *testing.T) {
	dc := NewDataConsolidator(nil)
	dc.SetStrategy(ImputeMean)
	pheno, cov, g := rawInputs(t)
	require.NoError(t, dc.Consolidate(pheno, cov, g))

	out := dc.Genotype()
	// marker 0: observed 0,1,2 -> p = 3/6, imputed dosage 1
	require.InDelta(t, 1.0, out.At(3, 0), 1e-12)
	// marker 1: observed 1,2,0 -> p = 3/6, imputed dosage 1
	require.InDelta(t, 1.0, out.At(1, 1), 1e-12)

	// original snapshot keeps the missing entries
	require.Equal(t, -1.0, dc.OriginalGenotype().At(3, 0))

	// alignment invariant
	require.Equal(t, out.Rows(), dc.Phenotype().Rows())
	require.Equal(t, out.Rows(), dc.Covariate().Rows())

	// inputs are untouched
	require.Equal(t, -1.0, g.At(3, 0))
}

func TestConsolidateImputeMeanUpdatedFlags(t *testing.T) {
	dc := NewDataConsolidator(nil)
	dc.SetStrategy(ImputeMean)
	pheno, cov, g := rawInputs(t)

	require.NoError(t, dc.Consolidate(pheno, cov, g))
	require.True(t, dc.IsPhenotypeUpdated())
	require.True(t, dc.IsCovariateUpdated())

	// identical inputs leave the stored matrices in place
	require.NoError(t, dc.Consolidate(pheno, cov, g))
	require.False(t, dc.IsPhenotypeUpdated())
	require.False(t, dc.IsCovariateUpdated())

	// a phenotype change is picked up, covariates stay
	pheno.Set(0, 0, 1)
	require.NoError(t, dc.Consolidate(pheno, cov, g))
	require.True(t, dc.IsPhenotypeUpdated())
	require.False(t, dc.IsCovariateUpdated())
}

func TestConsolidateImputeHWE(t *testing.T) {
	run := func(seed string) *geno.Matrix {
		dc := NewDataConsolidator([]byte(seed))
		dc.SetStrategy(ImputeHWE)
		pheno, cov, g := rawInputs(t)
		require.NoError(t, dc.Consolidate(pheno, cov, g))
		require.True(t, dc.IsPhenotypeUpdated())
		require.True(t, dc.IsCovariateUpdated())
		return dc.Genotype()
	}

	a := run("seed")
	b := run("seed")
	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < a.Cols(); j++ {
			require.Equal(t, a.At(i, j), b.At(i, j), "cell (%d,%d)", i, j)
			require.Contains(t, []float64{0, 1, 2}, a.At(i, j))
		}
	}
}

func TestConsolidateDrop(t *testing.T) {
	dc := NewDataConsolidator(nil)
	dc.SetStrategy(Drop)
	dc.SetRowLabels([]string{"id0", "id1", "id2", "id3"})
	pheno, cov, g := rawInputs(t)
	require.NoError(t, dc.Consolidate(pheno, cov, g))

	out := dc.Genotype()
	// rows 1 and 3 carry missing genotypes and are dropped
	require.Equal(t, 2, out.Rows())
	require.Equal(t, 2, out.Cols())
	for i := 0; i < out.Rows(); i++ {
		for j := 0; j < out.Cols(); j++ {
			require.GreaterOrEqual(t, out.At(i, j), 0.0)
		}
	}

	// order-preserving subsequence of the input rows
	require.Equal(t, 0.0, out.At(0, 0))
	require.Equal(t, 2.0, out.At(1, 0))
	require.Equal(t, []string{"id0", "id2"}, dc.RowLabels())

	// lock-step compaction of phenotype and covariate
	require.Equal(t, 2, dc.Phenotype().Rows())
	require.Equal(t, 2, dc.Covariate().Rows())
	require.Equal(t, 1.0, dc.Phenotype().At(1, 0))
	require.InDelta(t, -0.1, dc.Covariate().At(1, 0), 1e-12)

	// column labels survive the row filter
	require.Equal(t, "1:12345", out.ColLabel(0))
	require.Equal(t, "1:67890", out.ColLabel(1))

	require.True(t, dc.IsPhenotypeUpdated())
	require.True(t, dc.IsCovariateUpdated())
}

func TestConsolidateDropEmptyCovariate(t *testing.T) {
	dc := NewDataConsolidator(nil)
	dc.SetStrategy(Drop)
	pheno, _, g := rawInputs(t)
	empty := geno.NewMatrix(0, 0)

	require.NoError(t, dc.Consolidate(pheno, empty, g))
	require.Equal(t, 2, dc.Genotype().Rows())
	require.Equal(t, 0, dc.Covariate().Cols())
}

func TestFlippedToMinorPolymorphicGenotype(t *testing.T) {
	dc := NewDataConsolidator(nil)
	dc.SetStrategy(Drop)
	pheno := mustMatrix(t, [][]float64{{0}, {1}, {0}})
	cov := geno.NewMatrix(0, 0)
	g := mustMatrix(t, [][]float64{
		{2, 1, 0},
		{2, 1, 1},
		{1, 1, 2},
	})
	g.SetColLabel(0, "1:1")
	g.SetColLabel(1, "1:2")
	g.SetColLabel(2, "1:3")
	require.NoError(t, dc.Consolidate(pheno, cov, g))

	out := dc.FlippedToMinorPolymorphicGenotype()
	// marker 1 is monomorphic and removed; marker 0 is flipped
	require.Equal(t, 2, out.Cols())
	require.Equal(t, "1:1", out.ColLabel(0))
	require.Equal(t, "1:3", out.ColLabel(1))
	require.Equal(t, 0.0, out.At(0, 0))
	require.Equal(t, 1.0, out.At(2, 0))

	// the consolidated genotype itself is untouched
	require.Equal(t, 2.0, dc.Genotype().At(0, 0))
}

func TestFlippedToMinorPolymorphicGenotypeBeforeConsolidate(t *testing.T) {
	dc := NewDataConsolidator(nil)
	out := dc.FlippedToMinorPolymorphicGenotype()
	require.NotNil(t, out)
	require.Equal(t, 0, out.Rows())
	require.Equal(t, 0, out.Cols())
}

func TestCountRawGenotypeStatusCodes(t *testing.T) {
	dc := NewDataConsolidator(nil)
	dc.SetStrategy(ImputeMean)
	pheno, cov, g := rawInputs(t)
	require.NoError(t, dc.Consolidate(pheno, cov, g))

	counter := geno.NewGenotypeCounter()
	require.Equal(t, -1, dc.CountRawGenotype(5, AnySex, AnyPheno, counter))
	require.Equal(t, -1, dc.CountRawGenotype(-1, AnySex, AnyPheno, counter))
	require.Equal(t, -2, dc.CountRawGenotype(0, PlinkSex(3), AnyPheno, counter))
	require.Equal(t, -2, dc.CountRawGenotype(0, AnySex, PlinkPheno(3), counter))
	// the unknown-sex/missing-phenotype code 0 is not a valid filter value
	require.Equal(t, -2, dc.CountRawGenotype(0, PlinkSex(0), AnyPheno, counter))
	require.Equal(t, -2, dc.CountRawGenotype(0, AnySex, PlinkPheno(0), counter))
	require.Equal(t, -2, dc.CountRawGenotype(0, PlinkSex(-2), AnyPheno, counter))
	require.Equal(t, 0, counter.NumSample())
	// sex filter without a configured sex vector
	require.Equal(t, -3, dc.CountRawGenotype(0, Male, AnyPheno, counter))
	dc.SetSex([]int{1, 2})
	require.Equal(t, -3, dc.CountRawGenotype(0, Male, AnyPheno, counter))
}

func TestCountRawGenotypeStratified(t *testing.T) {
	dc := NewDataConsolidator(nil)
	dc.SetStrategy(ImputeMean)
	pheno, cov, g := rawInputs(t)
	require.NoError(t, dc.Consolidate(pheno, cov, g))
	dc.SetSex([]int{1, 2, 2, 1})

	// unfiltered: the raw first marker is 0,1,2,-1
	counter := geno.NewGenotypeCounter()
	require.Equal(t, 0, dc.CountRawGenotypeAll(0, counter))
	require.Equal(t, 4, counter.NumSample())
	require.Equal(t, 1, counter.NumMissing())

	// cases are rows 1 and 2
	counter.Reset()
	require.Equal(t, 0, dc.CountRawGenotypeFromCase(0, counter))
	require.Equal(t, 2, counter.NumSample())
	require.Equal(t, 1, counter.NumHet())
	require.Equal(t, 1, counter.NumHomAlt())

	// controls are rows 0 and 3
	counter.Reset()
	require.Equal(t, 0, dc.CountRawGenotypeFromControl(0, counter))
	require.Equal(t, 2, counter.NumSample())
	require.Equal(t, 1, counter.NumHomRef())
	require.Equal(t, 1, counter.NumMissing())

	// females are rows 1 and 2, both cases
	counter.Reset()
	require.Equal(t, 0, dc.CountRawGenotypeFromFemale(0, counter))
	require.Equal(t, 2, counter.NumSample())

	counter.Reset()
	require.Equal(t, 0, dc.CountRawGenotypeFromFemaleCase(0, counter))
	require.Equal(t, 2, counter.NumSample())

	counter.Reset()
	require.Equal(t, 0, dc.CountRawGenotypeFromFemaleControl(0, counter))
	require.Equal(t, 0, counter.NumSample())
}

func TestCodeGenotypeForDominantModelImputed(t *testing.T) {
	dc := NewDataConsolidator(nil)
	dc.SetStrategy(ImputeMean)
	pheno := mustMatrix(t, [][]float64{{0}, {1}, {0}, {1}})
	cov := geno.NewMatrix(0, 0)
	g := mustMatrix(t, [][]float64{{0}, {1}, {2}, {-1}})
	require.NoError(t, dc.Consolidate(pheno, cov, g))

	out := geno.NewMatrix(0, 0)
	dc.CodeGenotypeForDominantModel(out)

	require.Equal(t, 4, out.Rows())
	require.Equal(t, 1, out.Cols())
	require.Equal(t, 0.0, out.At(0, 0))
	require.Equal(t, 1.0, out.At(1, 0))
	require.Equal(t, 1.0, out.At(2, 0))
	// the missing position gets the mean of the coded values, not a re-impute
	require.InDelta(t, 2.0/3, out.At(3, 0), 1e-12)
}

func TestCodeGenotypeForRecessiveModelImputed(t *testing.T) {
	dc := NewDataConsolidator(nil)
	dc.SetStrategy(ImputeHWE)
	pheno := mustMatrix(t, [][]float64{{0}, {1}, {0}, {1}})
	cov := geno.NewMatrix(0, 0)
	g := mustMatrix(t, [][]float64{{0}, {1}, {2}, {-1}})
	require.NoError(t, dc.Consolidate(pheno, cov, g))

	out := geno.NewMatrix(0, 0)
	dc.CodeGenotypeForRecessiveModel(out)

	require.Equal(t, 0.0, out.At(0, 0))
	require.Equal(t, 0.0, out.At(1, 0))
	require.Equal(t, 1.0, out.At(2, 0))
	require.InDelta(t, 1.0/3, out.At(3, 0), 1e-12)
}

func TestCodeGenotypeForDominantModelDrop(t *testing.T) {
	dc := NewDataConsolidator(nil)
	dc.SetStrategy(Drop)
	pheno := mustMatrix(t, [][]float64{{0}, {1}, {0}, {1}})
	cov := geno.NewMatrix(0, 0)
	g := mustMatrix(t, [][]float64{{0}, {1}, {2}, {-1}})
	require.NoError(t, dc.Consolidate(pheno, cov, g))

	out := geno.NewMatrix(0, 0)
	dc.CodeGenotypeForDominantModel(out)

	// one row per retained individual, coded from the consolidated genotype
	require.Equal(t, 3, out.Rows())
	require.Equal(t, 1, out.Cols())
	require.Equal(t, 0.0, out.At(0, 0))
	require.Equal(t, 1.0, out.At(1, 0))
	require.Equal(t, 1.0, out.At(2, 0))
}

func TestEncodeWarningReset(t *testing.T) {
	dc := NewDataConsolidator(nil)
	dc.SetStrategy(Drop)
	pheno, cov, g := rawInputs(t)
	require.NoError(t, dc.Consolidate(pheno, cov, g))

	out := geno.NewMatrix(0, 0)
	dc.CodeGenotypeForDominantModel(out) // two markers: warns once
	dc.EncodeWarning().Reset()
	dc.CodeGenotypeForDominantModel(out) // warns again after reset
}

func TestIsHemiRegion(t *testing.T) {
	dc := NewDataConsolidator(nil)
	require.Panics(t, func() { dc.IsHemiRegion(0) })

	region, err := par.New("b37")
	require.NoError(t, err)
	dc.SetParRegion(region)
	dc.SetStrategy(Drop)

	pheno := mustMatrix(t, [][]float64{{0}, {1}})
	cov := geno.NewMatrix(0, 0)
	g := mustMatrix(t, [][]float64{{0}, {1}})
	g.SetColLabel(0, "X:5000000")
	require.NoError(t, dc.Consolidate(pheno, cov, g))
	require.True(t, dc.IsHemiRegion(0))
	require.False(t, dc.IsHemiRegion(3))

	g.SetColLabel(0, "X:60001") // PAR1
	require.NoError(t, dc.Consolidate(pheno, cov, g))
	require.False(t, dc.IsHemiRegion(0))

	g.SetColLabel(0, "1:5000000")
	require.NoError(t, dc.Consolidate(pheno, cov, g))
	require.False(t, dc.IsHemiRegion(0))

	g.SetColLabel(0, "no-position")
	require.NoError(t, dc.Consolidate(pheno, cov, g))
	require.False(t, dc.IsHemiRegion(0))
}

func TestWeightSizedToConsolidatedRows(t *testing.T) {
	dc := NewDataConsolidator(nil)
	require.Equal(t, 0, dc.Weight().Len())

	dc.SetStrategy(Drop)
	pheno, cov, g := rawInputs(t)
	require.NoError(t, dc.Consolidate(pheno, cov, g))
	require.Equal(t, 2, dc.Weight().Len())
}

// Package consolidate turns raw, individual-aligned genotype, phenotype and
// covariate matrices into analysis-ready inputs for association model
// fitting. A DataConsolidator owns the consolidated matrices, applies one of
// the missing-genotype strategies, and exposes per-marker statistics,
// genetic-model recodings and kinship matrices to the fitting stage.
package consolidate

import (
	"fmt"
	"strconv"
	"strings"

	"go.dedis.ch/onet/v3/log"
	"gonum.org/v1/gonum/mat"

	"github.com/hhcho/genoprep/geno"
	"github.com/hhcho/genoprep/kinship"
	"github.com/hhcho/genoprep/par"
)

// Strategy selects how Consolidate resolves missing genotypes.
type Strategy int

const (
	StrategyUninitialized Strategy = iota
	ImputeMean                     // replace missing with the marker's expected dosage 2p
	ImputeHWE                      // draw hard calls from the marker's HWE genotype distribution
	Drop                           // drop every individual with any missing marker
)

func (s Strategy) String() string {
	switch s {
	case StrategyUninitialized:
		return "uninitialized"
	case ImputeMean:
		return "mean"
	case ImputeHWE:
		return "hwe"
	case Drop:
		return "drop"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a configuration name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "mean":
		return ImputeMean, nil
	case "hwe":
		return ImputeHWE, nil
	case "drop":
		return Drop, nil
	}
	return StrategyUninitialized, fmt.Errorf("unknown missing-genotype strategy %q", name)
}

// PLINK sex coding: 1 male, 2 female. AnySex disables the filter; every
// other value is rejected as invalid.
type PlinkSex int

const (
	AnySex PlinkSex = -1
	Male   PlinkSex = 1
	Female PlinkSex = 2
)

// PLINK phenotype coding: 1 control, 2 case. The internal phenotype column
// stores 0/1; the +1 bridge converts between the two. AnyPheno disables the
// filter; every other value is rejected as invalid.
type PlinkPheno int

const (
	AnyPheno PlinkPheno = -1
	Ctrl     PlinkPheno = 1
	Case     PlinkPheno = 2
)

// WarnOnce emits its message at most once for its lifetime. The consolidator
// owns one per warning site so that tests can reset it.
type WarnOnce struct {
	msg   string
	given bool
}

func NewWarnOnce(msg string) *WarnOnce {
	return &WarnOnce{msg: msg}
}

func (w *WarnOnce) WarnIf(cond bool) {
	if cond && !w.given {
		w.given = true
		log.Warn(w.msg)
	}
}

func (w *WarnOnce) Reset() { w.given = false }

// noCopy makes `go vet` flag by-value copies of DataConsolidator.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// DataConsolidator cleans data before model fitting: it removes or imputes
// missing genotypes, keeps genotype/phenotype/covariate rows aligned to the
// same individuals, and serves consolidated matrices, marker statistics and
// kinship factors to the fitting stage.
//
// A DataConsolidator is constructed once, owns its matrices exclusively and
// must be passed by pointer, never copied.
type DataConsolidator struct {
	noCopy noCopy //nolint:unused

	strategy Strategy
	random   *geno.Random

	genotype         *geno.Matrix
	flippedToMinor   *geno.Matrix
	phenotype        *geno.Matrix
	covariate        *geno.Matrix
	originalGenotype *geno.Matrix
	weight           *mat.VecDense
	result           Result

	phenotypeUpdated bool
	covariateUpdated bool

	originalRowLabel []string
	rowLabel         []string

	kin map[kinship.Type]*kinship.Holder

	sex           []int
	parRegion     par.Classifier
	encodeWarning *WarnOnce
}

// NewDataConsolidator returns an empty consolidator whose stochastic
// imputation stream is seeded with seed.
func NewDataConsolidator(seed []byte) *DataConsolidator {
	return &DataConsolidator{
		random: geno.NewRandom(seed),
		kin: map[kinship.Type]*kinship.Holder{
			kinship.Auto: {},
			kinship.X:    {},
		},
		encodeWarning: NewWarnOnce("genetic model encoding only uses the first marker"),
	}
}

// SetStrategy selects the missing-genotype strategy for later Consolidate
// calls.
func (dc *DataConsolidator) SetStrategy(s Strategy) { dc.strategy = s }

func (dc *DataConsolidator) Strategy() Strategy { return dc.strategy }

// Reseed restarts the stochastic imputation stream from seed.
func (dc *DataConsolidator) Reseed(seed []byte) { dc.random = geno.NewRandom(seed) }

// Consolidate copies the raw matrices into owned storage and applies the
// configured strategy. pheno, cov and g must be row-aligned to the same
// individuals; cov may be empty. The inputs are not modified.
//
// Column labels are copied onto the owned matrices before any strategy runs,
// so structural metadata survives a failed strategy branch.
func (dc *DataConsolidator) Consolidate(pheno, cov, g *geno.Matrix) error {
	if pheno.Rows() != g.Rows() {
		err := fmt.Errorf("phenotype has %d rows but genotype has %d", pheno.Rows(), g.Rows())
		log.Error(err)
		return err
	}
	if cov.Cols() > 0 && cov.Rows() != g.Rows() {
		err := fmt.Errorf("covariate has %d rows but genotype has %d", cov.Rows(), g.Rows())
		log.Error(err)
		return err
	}

	dc.originalGenotype = g.Clone()
	dc.genotype = g.Clone()
	dc.phenotype = labelSkeleton(dc.phenotype, pheno)
	dc.covariate = labelSkeleton(dc.covariate, cov)

	switch dc.strategy {
	case ImputeMean:
		geno.ImputeToMean(dc.genotype)
		if !dc.phenotype.Equal(pheno) {
			dc.phenotype = pheno.Clone()
			dc.phenotypeUpdated = true
		} else {
			dc.phenotypeUpdated = false
		}
		if !dc.covariate.Equal(cov) {
			dc.covariate = cov.Clone()
			dc.covariateUpdated = true
		} else {
			dc.covariateUpdated = false
		}
		dc.rowLabel = copyLabels(dc.originalRowLabel)

	case ImputeHWE:
		geno.ImputeByFrequency(dc.genotype, dc.random)
		dc.phenotype = pheno.Clone()
		dc.covariate = cov.Clone()
		dc.phenotypeUpdated = true
		dc.covariateUpdated = true
		dc.rowLabel = copyLabels(dc.originalRowLabel)

	case Drop:
		dc.dropIncompleteRows(pheno, cov, g)

	default:
		err := fmt.Errorf("uninitialized consolidation strategy to handle missing data")
		log.Error(err)
		return err
	}
	return nil
}

// dropIncompleteRows keeps only the individuals with no missing genotype,
// compacting all owned matrices and the row labels in lock-step.
func (dc *DataConsolidator) dropIncompleteRows(pheno, cov, g *geno.Matrix) {
	keep := make([]int, 0, g.Rows())
	for i := 0; i < g.Rows(); i++ {
		if rowHasNoMissing(g, i) {
			keep = append(keep, i)
		}
	}

	genotype := geno.NewMatrix(len(keep), g.Cols())
	genotype.CopyColLabelsFrom(g)
	phenotype := geno.NewMatrix(len(keep), pheno.Cols())
	phenotype.CopyColLabelsFrom(pheno)
	covariate := geno.NewMatrix(len(keep), cov.Cols())
	covariate.CopyColLabelsFrom(cov)

	haveLabels := len(dc.originalRowLabel) == g.Rows()
	var labels []string
	if haveLabels {
		labels = make([]string, 0, len(keep))
	}

	for dst, src := range keep {
		genotype.CopyRowFrom(dst, g, src)
		phenotype.CopyRowFrom(dst, pheno, src)
		covariate.CopyRowFrom(dst, cov, src)
		if haveLabels {
			labels = append(labels, dc.originalRowLabel[src])
		}
	}

	dc.genotype = genotype
	dc.phenotype = phenotype
	dc.covariate = covariate
	dc.rowLabel = labels
	dc.phenotypeUpdated = true
	dc.covariateUpdated = true
}

func rowHasNoMissing(g *geno.Matrix, row int) bool {
	for j := 0; j < g.Cols(); j++ {
		if g.At(row, j) < 0 {
			return false
		}
	}
	return true
}

// labelSkeleton makes sure the stored matrix exists with the column labels
// of src, keeping prior values when the column count still matches.
func labelSkeleton(cur *geno.Matrix, src *geno.Matrix) *geno.Matrix {
	if cur == nil || cur.Cols() != src.Cols() {
		cur = geno.NewMatrix(0, src.Cols())
	}
	cur.CopyColLabelsFrom(src)
	return cur
}

func copyLabels(labels []string) []string {
	if labels == nil {
		return nil
	}
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// SetRowLabels records the individual IDs aligned to the raw matrix rows.
func (dc *DataConsolidator) SetRowLabels(names []string) {
	dc.originalRowLabel = copyLabels(names)
	dc.rowLabel = copyLabels(names)
}

// RowLabels returns the individual IDs aligned to the consolidated rows.
func (dc *DataConsolidator) RowLabels() []string { return dc.rowLabel }

func (dc *DataConsolidator) Genotype() *geno.Matrix         { return dc.genotype }
func (dc *DataConsolidator) OriginalGenotype() *geno.Matrix { return dc.originalGenotype }
func (dc *DataConsolidator) Phenotype() *geno.Matrix        { return dc.phenotype }
func (dc *DataConsolidator) Covariate() *geno.Matrix        { return dc.covariate }

// FlippedToMinorPolymorphicGenotype returns the consolidated genotype
// re-based to minor allele counts with monomorphic markers removed. The
// matrix is recomputed on every call.
func (dc *DataConsolidator) FlippedToMinorPolymorphicGenotype() *geno.Matrix {
	flipped := geno.NewMatrix(0, 0)
	if dc.genotype == nil {
		dc.flippedToMinor = flipped
		return dc.flippedToMinor
	}
	geno.ConvertToMinorAlleleCount(dc.genotype, flipped)
	geno.RemoveMonomorphicMarkers(flipped)
	dc.flippedToMinor = flipped
	return dc.flippedToMinor
}

// Weight returns the per-individual weight vector, sized to the consolidated
// row count.
func (dc *DataConsolidator) Weight() *mat.VecDense {
	n := 0
	if dc.genotype != nil {
		n = dc.genotype.Rows()
	}
	if dc.weight == nil || dc.weight.Len() != n {
		if n == 0 {
			dc.weight = &mat.VecDense{}
		} else {
			dc.weight = mat.NewVecDense(n, nil)
		}
	}
	return dc.weight
}

// Result returns the output-row holder shared with the fitting stage.
func (dc *DataConsolidator) Result() *Result { return &dc.result }

func (dc *DataConsolidator) IsPhenotypeUpdated() bool { return dc.phenotypeUpdated }
func (dc *DataConsolidator) IsCovariateUpdated() bool { return dc.covariateUpdated }

// SetSex records the per-individual sex vector (1 male, 2 female, other
// unknown), aligned to the raw matrix rows.
func (dc *DataConsolidator) SetSex(sex []int) { dc.sex = sex }

// SetParRegion configures the pseudoautosomal-region classifier used by
// IsHemiRegion.
func (dc *DataConsolidator) SetParRegion(c par.Classifier) { dc.parRegion = c }

// EncodeWarning exposes the warn-once state of the genetic-model encoders so
// tests can reset it.
func (dc *DataConsolidator) EncodeWarning() *WarnOnce { return dc.encodeWarning }

// IsHemiRegion reports whether the consolidated marker block lies in a
// hemizygous (non-pseudoautosomal X) region. Region classification parses
// the leading marker's "chrom:pos" column label; an unparseable label is not
// hemizygous. Panics if no classifier has been configured.
func (dc *DataConsolidator) IsHemiRegion(columnIndex int) bool {
	if dc.parRegion == nil {
		panic("PAR region classifier is not configured")
	}
	if dc.genotype == nil || columnIndex < 0 || columnIndex >= dc.genotype.Cols() {
		return false
	}
	chromPos := dc.genotype.ColLabel(0)
	colon := strings.Index(chromPos, ":")
	if colon < 0 {
		return false
	}
	pos, err := strconv.Atoi(chromPos[colon+1:])
	if err != nil {
		return false
	}
	return dc.parRegion.IsHemiRegion(chromPos[:colon], pos)
}

// CountRawGenotype feeds the original, pre-consolidation genotypes of marker
// columnIndex into counter, restricted to individuals matching the sex and
// phenotype filters. Returns 0 on success, -1 for an out-of-range column,
// -2 for an invalid sex or phenotype filter value, and -3 when a sex or
// phenotype vector needed by a filter is not configured for the raw rows.
func (dc *DataConsolidator) CountRawGenotype(columnIndex int, sex PlinkSex, pheno PlinkPheno, counter *geno.GenotypeCounter) int {
	if dc.originalGenotype == nil || columnIndex < 0 || columnIndex >= dc.originalGenotype.Cols() {
		return -1
	}
	rows := dc.originalGenotype.Rows()
	if sex != AnySex && sex != Male && sex != Female {
		return -2
	}
	if sex != AnySex && len(dc.sex) != rows {
		return -3
	}
	if pheno != AnyPheno && pheno != Ctrl && pheno != Case {
		return -2
	}
	if pheno != AnyPheno && (dc.phenotype == nil || dc.phenotype.Rows() != rows || dc.phenotype.Cols() == 0) {
		return -3
	}

	for i := 0; i < rows; i++ {
		if sex != AnySex && dc.sex[i] != int(sex) {
			continue
		}
		// +1 bridges the internal 0/1 phenotype to PLINK's 1/2 coding
		if pheno != AnyPheno && int(dc.phenotype.At(i, 0))+1 != int(pheno) {
			continue
		}
		counter.Add(dc.originalGenotype.At(i, columnIndex))
	}
	return 0
}

// CountRawGenotypeAll counts without sex or phenotype filtering.
func (dc *DataConsolidator) CountRawGenotypeAll(columnIndex int, counter *geno.GenotypeCounter) int {
	return dc.CountRawGenotype(columnIndex, AnySex, AnyPheno, counter)
}

func (dc *DataConsolidator) CountRawGenotypeFromCase(columnIndex int, counter *geno.GenotypeCounter) int {
	return dc.CountRawGenotype(columnIndex, AnySex, Case, counter)
}

func (dc *DataConsolidator) CountRawGenotypeFromControl(columnIndex int, counter *geno.GenotypeCounter) int {
	return dc.CountRawGenotype(columnIndex, AnySex, Ctrl, counter)
}

func (dc *DataConsolidator) CountRawGenotypeFromFemale(columnIndex int, counter *geno.GenotypeCounter) int {
	return dc.CountRawGenotype(columnIndex, Female, AnyPheno, counter)
}

func (dc *DataConsolidator) CountRawGenotypeFromFemaleCase(columnIndex int, counter *geno.GenotypeCounter) int {
	return dc.CountRawGenotype(columnIndex, Female, Case, counter)
}

func (dc *DataConsolidator) CountRawGenotypeFromFemaleControl(columnIndex int, counter *geno.GenotypeCounter) int {
	return dc.CountRawGenotype(columnIndex, Female, Ctrl, counter)
}

// CodeGenotypeForDominantModel writes the dominant-model recoding of the
// first marker into out: one column, one row per consolidated individual,
// carrying 1 when the genotype indicates at least one alternate allele.
// Under the imputing strategies the coding derives from the original,
// pre-imputation genotypes, with originally-missing positions set to the
// mean of the coded values; under Drop it derives from the consolidated
// genotypes directly. Warns once per consolidator when more than one marker
// column is present.
func (dc *DataConsolidator) CodeGenotypeForDominantModel(out *geno.Matrix) {
	dc.codeGenotypeModel(out, 0.5)
}

// CodeGenotypeForRecessiveModel is CodeGenotypeForDominantModel with the
// homozygous-alternate threshold: the coded value is 1 only when the
// genotype indicates two alternate alleles.
func (dc *DataConsolidator) CodeGenotypeForRecessiveModel(out *geno.Matrix) {
	dc.codeGenotypeModel(out, 1.5)
}

func (dc *DataConsolidator) codeGenotypeModel(out *geno.Matrix, thresh float64) {
	if dc.genotype == nil {
		*out = *geno.NewMatrix(0, 1)
		return
	}
	dc.encodeWarning.WarnIf(dc.genotype.Cols() != 1)

	m := dc.genotype.Rows()
	*out = *geno.NewMatrix(m, 1)

	switch dc.strategy {
	case ImputeMean, ImputeHWE:
		sum := 0.0
		numGeno := 0
		for i := 0; i < m; i++ {
			g := dc.originalGenotype.At(i, 0)
			if g < 0 {
				continue
			}
			if g > thresh {
				out.Set(i, 0, 1.0)
				sum += 1.0
			}
			numGeno++
		}
		avg := 0.0
		if numGeno > 0 {
			avg = sum / float64(numGeno)
		}
		for i := 0; i < m; i++ {
			if dc.originalGenotype.At(i, 0) < 0 {
				out.Set(i, 0, avg)
			}
		}

	case Drop:
		for i := 0; i < m; i++ {
			if dc.genotype.At(i, 0) > thresh {
				out.Set(i, 0, 1.0)
			}
		}
	}
}

// SetKinshipSample restricts both kinship regions to the given sample IDs.
func (dc *DataConsolidator) SetKinshipSample(samples []string) {
	for _, h := range dc.kin {
		h.SetSample(samples)
	}
}

// SetKinshipFile sets the kinship matrix file for one region.
func (dc *DataConsolidator) SetKinshipFile(kt kinship.Type, fileName string) error {
	h, err := dc.holder(kt)
	if err != nil {
		return err
	}
	h.SetFile(fileName)
	return nil
}

// SetKinshipEigenFile sets the precomputed eigen-factor file for one region.
func (dc *DataConsolidator) SetKinshipEigenFile(kt kinship.Type, fileName string) error {
	h, err := dc.holder(kt)
	if err != nil {
		return err
	}
	h.SetEigenFile(fileName)
	return nil
}

// LoadKinship loads one region's kinship matrix and eigen-factors.
// Idempotent per region.
func (dc *DataConsolidator) LoadKinship(kt kinship.Type) error {
	h, err := dc.holder(kt)
	if err != nil {
		return err
	}
	if err := h.Load(); err != nil {
		log.Error("loading", kt, "kinship:", err)
		return err
	}
	return nil
}

func (dc *DataConsolidator) holder(kt kinship.Type) (*kinship.Holder, error) {
	h, ok := dc.kin[kt]
	if !ok {
		err := fmt.Errorf("unknown kinship type %v", kt)
		log.Error(err)
		return nil, err
	}
	return h, nil
}

func (dc *DataConsolidator) KinshipForAuto() *mat.Dense  { return dc.kin[kinship.Auto].K() }
func (dc *DataConsolidator) KinshipUForAuto() *mat.Dense { return dc.kin[kinship.Auto].U() }
func (dc *DataConsolidator) KinshipSForAuto() []float64  { return dc.kin[kinship.Auto].S() }
func (dc *DataConsolidator) HasKinshipForAuto() bool     { return dc.kin[kinship.Auto].IsLoaded() }

func (dc *DataConsolidator) KinshipForX() *mat.Dense  { return dc.kin[kinship.X].K() }
func (dc *DataConsolidator) KinshipUForX() *mat.Dense { return dc.kin[kinship.X].U() }
func (dc *DataConsolidator) KinshipSForX() []float64  { return dc.kin[kinship.X].S() }
func (dc *DataConsolidator) HasKinshipForX() bool     { return dc.kin[kinship.X].IsLoaded() }

// HasKinship reports whether any region has a loaded kinship matrix.
func (dc *DataConsolidator) HasKinship() bool {
	return dc.HasKinshipForAuto() || dc.HasKinshipForX()
}

// Package kinship loads and holds pairwise genetic-relatedness matrices and
// their eigen-factors for mixed-model fitting. One Holder serves one genomic
// region (autosomal or X); the two regions are loaded independently.
//
// A kinship matrix is stored as a square float64 numpy ".npy" file with a
// sample-ID sidecar at "<file>.id" holding one ID per line in matrix row
// order. Eigen-factors can be supplied precomputed in a "(n+1) x n" ".npy"
// (row 0 the eigenvalues, rows 1..n the eigenvector matrix U); otherwise
// Load factorizes K directly.
package kinship

import (
	"bufio"
	"fmt"
	"os"

	"github.com/kshedden/gonpy"
	"gonum.org/v1/gonum/mat"
)

// Type names the genomic region a kinship matrix covers.
type Type int

const (
	Auto Type = iota
	X
)

func (t Type) String() string {
	switch t {
	case Auto:
		return "autosomal"
	case X:
		return "chromosome X"
	}
	return fmt.Sprintf("kinship.Type(%d)", int(t))
}

// Holder owns a kinship matrix K and its eigendecomposition U, S for one
// region. Configure with SetFile (and optionally SetSample, SetEigenFile),
// then call Load. Load is idempotent.
type Holder struct {
	samples   []string
	kinFile   string
	eigenFile string
	k         *mat.Dense
	u         *mat.Dense
	s         []float64
	loaded    bool
}

// SetSample restricts the loaded matrix to the given sample IDs, reordering
// rows and columns to match their order.
func (h *Holder) SetSample(ids []string) {
	h.samples = ids
}

// SetFile sets the kinship matrix file. The sample-ID sidecar is expected at
// fileName + ".id".
func (h *Holder) SetFile(fileName string) {
	h.kinFile = fileName
}

// SetEigenFile sets an optional precomputed eigen-factor file.
func (h *Holder) SetEigenFile(fileName string) {
	h.eigenFile = fileName
}

func (h *Holder) IsLoaded() bool { return h.loaded }
func (h *Holder) K() *mat.Dense  { return h.k }
func (h *Holder) U() *mat.Dense  { return h.u }
func (h *Holder) S() []float64   { return h.s }

// Load reads K, subsets it to the configured samples, and obtains the
// eigen-factors. Calling Load on a loaded holder is a no-op.
func (h *Holder) Load() error {
	if h.loaded {
		return nil
	}
	if h.kinFile == "" {
		return fmt.Errorf("kinship file not set")
	}

	k, ids, err := readKinshipMatrix(h.kinFile)
	if err != nil {
		return err
	}

	if h.samples != nil {
		k, err = subsetKinship(k, ids, h.samples)
		if err != nil {
			return fmt.Errorf("subset %s: %v", h.kinFile, err)
		}
	}

	n, _ := k.Dims()
	var u mat.Dense
	var s []float64
	if h.eigenFile != "" {
		u2, s2, err := readEigenFile(h.eigenFile, n)
		if err != nil {
			return err
		}
		u, s = *u2, s2
	} else {
		sym := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				sym.SetSym(i, j, k.At(i, j))
			}
		}
		var eig mat.EigenSym
		if !eig.Factorize(sym, true) {
			return fmt.Errorf("eigendecomposition of %s failed", h.kinFile)
		}
		s = eig.Values(nil)
		eig.VectorsTo(&u)
	}

	h.k = k
	h.u = &u
	h.s = s
	h.loaded = true
	return nil
}

// readKinshipMatrix loads a square .npy matrix and its row-ID sidecar.
func readKinshipMatrix(fileName string) (*mat.Dense, []string, error) {
	r, err := gonpy.NewFileReader(fileName)
	if err != nil {
		return nil, nil, err
	}
	if len(r.Shape) != 2 || r.Shape[0] != r.Shape[1] {
		return nil, nil, fmt.Errorf("%s: kinship matrix must be square, got shape %v", fileName, r.Shape)
	}
	data, err := r.GetFloat64()
	if err != nil {
		return nil, nil, err
	}
	n := r.Shape[0]

	ids, err := readSampleIDs(fileName + ".id")
	if err != nil {
		return nil, nil, err
	}
	if len(ids) != n {
		return nil, nil, fmt.Errorf("%s.id has %d samples, kinship matrix has %d rows", fileName, len(ids), n)
	}

	return denseFromFlat(data, n, n, r.ColumnMajor), ids, nil
}

// denseFromFlat builds a rows x cols matrix from a flat .npy payload in
// either storage order.
func denseFromFlat(data []float64, rows, cols int, columnMajor bool) *mat.Dense {
	if !columnMajor {
		return mat.NewDense(rows, cols, data)
	}
	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			out.Set(i, j, data[j*rows+i])
		}
	}
	return out
}

func readSampleIDs(fileName string) ([]string, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			ids = append(ids, line)
		}
	}
	return ids, scanner.Err()
}

// subsetKinship reorders K to the rows and columns named by want.
func subsetKinship(k *mat.Dense, ids, want []string) (*mat.Dense, error) {
	idx := make(map[string]int, len(ids))
	for i, id := range ids {
		idx[id] = i
	}
	sel := make([]int, len(want))
	for i, id := range want {
		j, ok := idx[id]
		if !ok {
			return nil, fmt.Errorf("sample %s is not in the kinship matrix", id)
		}
		sel[i] = j
	}

	n := len(sel)
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, k.At(sel[i], sel[j]))
		}
	}
	return out, nil
}

func readEigenFile(fileName string, n int) (*mat.Dense, []float64, error) {
	r, err := gonpy.NewFileReader(fileName)
	if err != nil {
		return nil, nil, err
	}
	if len(r.Shape) != 2 || r.Shape[0] != n+1 || r.Shape[1] != n {
		return nil, nil, fmt.Errorf("%s: eigen file must be %d x %d, got shape %v", fileName, n+1, n, r.Shape)
	}
	data, err := r.GetFloat64()
	if err != nil {
		return nil, nil, err
	}
	full := denseFromFlat(data, n+1, n, r.ColumnMajor)
	s := make([]float64, n)
	for j := 0; j < n; j++ {
		s[j] = full.At(0, j)
	}
	u := mat.DenseCopyOf(full.Slice(1, n+1, 0, n))
	return u, s, nil
}

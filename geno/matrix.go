// Package geno provides the labeled genotype matrix container and the
// per-marker statistics, imputation, filtering and recoding routines used to
// prepare raw genotype data for association model fitting.
//
// Matrices are people by marker: one row per individual, one column per
// marker. Genotype cells hold hard calls in {0, 1, 2}, fractional dosages in
// [0, 2], or a negative value meaning missing.
package geno

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense float64 matrix with per-column labels. Genotype column
// labels follow the "chrom:pos" convention. A Matrix with zero rows or zero
// columns is a valid value (covariate matrices may be empty).
type Matrix struct {
	rows, cols int
	data       *mat.Dense // nil iff rows == 0 || cols == 0
	colLabels  []string
}

// NewMatrix returns a zero-filled rows x cols matrix with empty column labels.
func NewMatrix(rows, cols int) *Matrix {
	m := &Matrix{
		rows:      rows,
		cols:      cols,
		colLabels: make([]string, cols),
	}
	if rows > 0 && cols > 0 {
		m.data = mat.NewDense(rows, cols, nil)
	}
	return m
}

// NewMatrixFromRows builds a matrix from row slices. All rows must have the
// same length.
func NewMatrixFromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return NewMatrix(0, 0), nil
	}
	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("row %d has %d entries, expected %d", i, len(r), cols)
		}
		if m.data != nil {
			m.data.SetRow(i, r)
		}
	}
	return m, nil
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

func (m *Matrix) Set(i, j int, v float64) {
	m.data.Set(i, j, v)
}

// ColLabel returns the label of column j, or "" if j is out of range.
func (m *Matrix) ColLabel(j int) string {
	if j < 0 || j >= m.cols {
		return ""
	}
	return m.colLabels[j]
}

func (m *Matrix) SetColLabel(j int, label string) {
	if j < 0 || j >= m.cols {
		return
	}
	m.colLabels[j] = label
}

// CopyColLabelsFrom copies the column labels of src onto m for the columns
// both matrices share.
func (m *Matrix) CopyColLabelsFrom(src *Matrix) {
	n := m.cols
	if src.cols < n {
		n = src.cols
	}
	copy(m.colLabels[:n], src.colLabels[:n])
}

// CopyRowFrom copies row srcRow of src into row dst of m. Both matrices must
// have the same column count.
func (m *Matrix) CopyRowFrom(dst int, src *Matrix, srcRow int) {
	for j := 0; j < m.cols; j++ {
		m.data.Set(dst, j, src.data.At(srcRow, j))
	}
}

// Clone returns a deep copy of m, labels included.
func (m *Matrix) Clone() *Matrix {
	out := NewMatrix(m.rows, m.cols)
	if m.data != nil {
		out.data.Copy(m.data)
	}
	copy(out.colLabels, m.colLabels)
	return out
}

// Equal reports whether m and other have the same dimensions and values.
// Column labels are not compared; the consolidator copies them
// unconditionally and uses Equal only to detect numeric changes.
func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil {
		return false
	}
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	if m.data == nil || other.data == nil {
		return true // both empty, dims already matched
	}
	return mat.Equal(m.data, other.data)
}

// Dense exposes the underlying gonum matrix, nil for empty matrices.
func (m *Matrix) Dense() *mat.Dense {
	return m.data
}

// compactColumns drops every column j with keep[j] == false, preserving the
// order and labels of the retained columns. Row count is unchanged.
func (m *Matrix) compactColumns(keep []bool) {
	nKeep := 0
	for _, k := range keep {
		if k {
			nKeep++
		}
	}
	if nKeep == m.cols {
		return
	}

	labels := make([]string, 0, nKeep)
	var data *mat.Dense
	if m.rows > 0 && nKeep > 0 {
		data = mat.NewDense(m.rows, nKeep, nil)
	}
	idx := 0
	for j := 0; j < m.cols; j++ {
		if !keep[j] {
			continue
		}
		labels = append(labels, m.colLabels[j])
		if data != nil {
			for i := 0; i < m.rows; i++ {
				data.Set(i, idx, m.data.At(i, j))
			}
		}
		idx++
	}
	m.cols = nKeep
	m.colLabels = labels
	m.data = data
}

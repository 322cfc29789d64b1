package geno

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// LoadMatrixFromFile reads a delimited text matrix into a labeled Matrix.
// When header is true the first record supplies the column labels.
func LoadMatrixFromFile(filename string, delim rune, header bool) (*Matrix, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := csv.NewReader(f)
	c.Comma = delim
	text, err := c.ReadAll()
	if err != nil {
		return nil, err
	}

	var labels []string
	if header && len(text) > 0 {
		labels = text[0]
		text = text[1:]
	}

	if len(text) == 0 {
		m := NewMatrix(0, len(labels))
		for j, l := range labels {
			m.SetColLabel(j, l)
		}
		return m, nil
	}

	cols := len(text[0])
	m := NewMatrix(len(text), cols)
	for i, record := range text {
		if len(record) != cols {
			return nil, fmt.Errorf("%s line %d: %d fields, expected %d", filename, i+1, len(record), cols)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d field %d: %v", filename, i+1, j+1, err)
			}
			m.Set(i, j, v)
		}
	}
	for j, l := range labels {
		m.SetColLabel(j, l)
	}
	return m, nil
}

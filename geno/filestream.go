package geno

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// GenoFileStream reads a binary genotype file row by row. The file holds one
// signed byte per cell, row-major, one row per individual; negative bytes
// are missing calls. When replaceMissing is set, missing cells are replaced
// with zero on read.
type GenoFileStream struct {
	filename  string
	file      *os.File
	reader    *bufio.Reader
	numRows   int
	numCols   int
	lineCount int
	buf       []byte

	replaceMissing bool
}

// NewGenoFileStream opens filename for streaming numRows x numCols genotype
// rows.
func NewGenoFileStream(filename string, numRows, numCols int, replaceMissing bool) (*GenoFileStream, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	return &GenoFileStream{
		filename:       filename,
		file:           file,
		reader:         bufio.NewReader(file),
		numRows:        numRows,
		numCols:        numCols,
		buf:            make([]byte, numCols),
		replaceMissing: replaceMissing,
	}, nil
}

func (gfs *GenoFileStream) NumRows() int   { return gfs.numRows }
func (gfs *GenoFileStream) NumCols() int   { return gfs.numCols }
func (gfs *GenoFileStream) LineCount() int { return gfs.lineCount }

// CheckEOF reports whether all rows have been consumed, closing the file on
// the first call past the end.
func (gfs *GenoFileStream) CheckEOF() bool {
	if gfs.lineCount >= gfs.numRows {
		if gfs.file != nil {
			gfs.file.Close()
			gfs.file = nil
			gfs.reader = nil
		}
		return true
	}
	return false
}

// NextRow returns the next genotype row, or nil after the last row.
func (gfs *GenoFileStream) NextRow() ([]float64, error) {
	if gfs.CheckEOF() {
		return nil, nil
	}
	if _, err := io.ReadFull(gfs.reader, gfs.buf); err != nil {
		return nil, fmt.Errorf("read %s row %d: %w", gfs.filename, gfs.lineCount, err)
	}
	row := make([]float64, gfs.numCols)
	for i := range gfs.buf {
		row[i] = float64(int8(gfs.buf[i]))
		if gfs.replaceMissing && row[i] < 0 {
			row[i] = 0
		}
	}
	gfs.lineCount++
	return row, nil
}

// Reset rewinds the stream to the first row, reopening the file if it was
// already consumed.
func (gfs *GenoFileStream) Reset() error {
	var err error
	if gfs.file == nil {
		gfs.file, err = os.Open(gfs.filename)
	} else {
		_, err = gfs.file.Seek(0, io.SeekStart)
	}
	if err != nil {
		return err
	}
	gfs.reader = bufio.NewReader(gfs.file)
	gfs.lineCount = 0
	return nil
}

// ToMatrix reads the whole stream into a Matrix.
func (gfs *GenoFileStream) ToMatrix() (*Matrix, error) {
	if err := gfs.Reset(); err != nil {
		return nil, err
	}
	m := NewMatrix(gfs.numRows, gfs.numCols)
	for i := 0; i < gfs.numRows; i++ {
		row, err := gfs.NextRow()
		if err != nil {
			return nil, err
		}
		for j, v := range row {
			m.Set(i, j, v)
		}
	}
	return m, nil
}

package consolidate

import (
	"fmt"
	"io"
	"strings"
)

// Result is an ordered header/value holder for one per-marker output row.
// Headers are registered once; values are set per marker and cleared between
// rows. Unset values print as the missing marker "NA".
type Result struct {
	keys   []string
	idx    map[string]int
	values []string
}

// AddHeader registers a named output column. Re-adding an existing name is a
// no-op.
func (r *Result) AddHeader(name string) {
	if r.idx == nil {
		r.idx = make(map[string]int)
	}
	if _, ok := r.idx[name]; ok {
		return
	}
	r.idx[name] = len(r.keys)
	r.keys = append(r.keys, name)
	r.values = append(r.values, "")
}

// Set assigns the value of a registered column.
func (r *Result) Set(name, value string) error {
	i, ok := r.idx[name]
	if !ok {
		return fmt.Errorf("unknown result column %q", name)
	}
	r.values[i] = value
	return nil
}

// Get returns the current value of a column, "" if unknown or unset.
func (r *Result) Get(name string) string {
	i, ok := r.idx[name]
	if !ok {
		return ""
	}
	return r.values[i]
}

// Clear resets all values for the next output row, keeping the headers.
func (r *Result) Clear() {
	for i := range r.values {
		r.values[i] = ""
	}
}

// WriteHeaderTo writes the tab-separated header line.
func (r *Result) WriteHeaderTo(w io.Writer) error {
	_, err := fmt.Fprintln(w, strings.Join(r.keys, "\t"))
	return err
}

// WriteValueTo writes the tab-separated value line, printing "NA" for unset
// columns.
func (r *Result) WriteValueTo(w io.Writer) error {
	out := make([]string, len(r.values))
	for i, v := range r.values {
		if v == "" {
			v = "NA"
		}
		out[i] = v
	}
	_, err := fmt.Fprintln(w, strings.Join(out, "\t"))
	return err
}

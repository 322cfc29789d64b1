// Package par classifies chromosome positions against the pseudoautosomal
// regions (PAR) of the X chromosome. Markers on X but outside PAR1/PAR2 are
// hemizygous in males and need sex-aware handling downstream.
package par

import (
	"fmt"
	"strings"
)

// Classifier decides whether a chrom:pos marker lies in a hemizygous region.
type Classifier interface {
	IsHemiRegion(chrom string, pos int) bool
}

type span struct {
	begin int // 1-based, inclusive
	end   int // inclusive
}

// Region is a table-backed Classifier for one genome build.
type Region struct {
	par []span
}

// Published PAR coordinates on chromosome X.
var parByBuild = map[string][]span{
	"b37": {{60001, 2699520}, {154931044, 155260560}},
	"b38": {{10001, 2781479}, {155701383, 156030895}},
}

// New returns the PAR table for build ("b37" or "b38").
func New(build string) (*Region, error) {
	spans, ok := parByBuild[strings.ToLower(build)]
	if !ok {
		return nil, fmt.Errorf("unknown genome build %q", build)
	}
	return &Region{par: spans}, nil
}

// IsHemiRegion reports whether chrom:pos is on the X chromosome and outside
// the pseudoautosomal regions. Accepts "X", "chrX" and the PLINK numeric
// alias "23"; any other chromosome is never hemizygous.
func (r *Region) IsHemiRegion(chrom string, pos int) bool {
	if !isChromX(chrom) {
		return false
	}
	for _, s := range r.par {
		if pos >= s.begin && pos <= s.end {
			return false
		}
	}
	return true
}

func isChromX(chrom string) bool {
	c := strings.TrimPrefix(strings.ToLower(chrom), "chr")
	return c == "x" || c == "23"
}

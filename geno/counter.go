package geno

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// GenotypeCounter accumulates per-marker genotype statistics. It accepts both
// hard calls and fractional dosages; classification thresholds split [0, 2]
// into three buckets so that a dosage g contributes to the nearest genotype
// class:
//
//	g < 0          missing
//	g < 2/3        hom ref
//	2/3 <= g < 4/3 het
//	4/3 <= g <= 2  hom alt
//	g > 2          missing
//
// Derived statistics (call rate, allele frequency, HWE) are computed on
// demand from the tallies.
type GenotypeCounter struct {
	nHomRef  int
	nHet     int
	nHomAlt  int
	nMissing int
	nSample  int
	sumAC    float64
}

// NewGenotypeCounter returns a zeroed counter.
func NewGenotypeCounter() *GenotypeCounter {
	return &GenotypeCounter{}
}

// Reset zeroes all tallies.
func (c *GenotypeCounter) Reset() {
	*c = GenotypeCounter{}
}

// Add ingests one genotype or dosage value. Every call counts toward the
// sample total, missing values included.
func (c *GenotypeCounter) Add(g float64) {
	if g < 0 {
		c.nMissing++
	} else if g < 2.0/3 {
		c.nHomRef++
		c.sumAC += g
	} else if g < 4.0/3 {
		c.nHet++
		c.sumAC += g
	} else if g <= 2.0 {
		c.nHomAlt++
		c.sumAC += g
	} else {
		c.nMissing++
	}
	c.nSample++
}

func (c *GenotypeCounter) NumHomRef() int  { return c.nHomRef }
func (c *GenotypeCounter) NumHet() int     { return c.nHet }
func (c *GenotypeCounter) NumHomAlt() int  { return c.nHomAlt }
func (c *GenotypeCounter) NumMissing() int { return c.nMissing }
func (c *GenotypeCounter) NumSample() int  { return c.nSample }

// CallRate returns the fraction of non-missing samples, 0 when empty.
func (c *GenotypeCounter) CallRate() float64 {
	if c.nSample == 0 {
		return 0
	}
	return 1.0 - float64(c.nMissing)/float64(c.nSample)
}

// AF returns the alternate allele frequency estimated from the dosage sum,
// or -1 when no samples have been added. The denominator includes missing
// samples, matching the raw-count convention of the QC reports downstream.
func (c *GenotypeCounter) AF() float64 {
	if c.nSample == 0 {
		return -1.0
	}
	return 0.5 * c.sumAC / float64(c.nSample)
}

// AC returns the summed alternate allele count (dosage sum).
func (c *GenotypeCounter) AC() float64 { return c.sumAC }

// HWE returns the exact Hardy-Weinberg equilibrium p-value computed from the
// genotype class counts, following the Wigginton-Cutler-Abecasis enumeration
// over heterozygote counts. Returns 1 when no genotypes were observed.
func (c *GenotypeCounter) HWE() float64 {
	return hweExact(c.nHet, c.nHomRef, c.nHomAlt)
}

// HWEChiSq returns the asymptotic 1-df chi-square Hardy-Weinberg p-value.
// Prefer HWE for small samples; the chi-square approximation is only
// trustworthy when every expected genotype class count is large.
func (c *GenotypeCounter) HWEChiSq() float64 {
	n := c.nHomRef + c.nHet + c.nHomAlt
	if n == 0 {
		return 1.0
	}
	p := float64(2*c.nHomRef+c.nHet) / float64(2*n)
	q := 1.0 - p
	expHomRef := p * p * float64(n)
	expHet := 2 * p * q * float64(n)
	expHomAlt := q * q * float64(n)
	if expHomRef == 0 || expHet == 0 || expHomAlt == 0 {
		// monomorphic: observed matches expectation exactly
		return 1.0
	}
	stat := sq(float64(c.nHomRef)-expHomRef)/expHomRef +
		sq(float64(c.nHet)-expHet)/expHet +
		sq(float64(c.nHomAlt)-expHomAlt)/expHomAlt
	chi2 := distuv.ChiSquared{K: 1}
	return chi2.Survival(stat)
}

func sq(x float64) float64 { return x * x }

func hweExact(obsHet, obsHom1, obsHom2 int) float64 {
	obsHomR := obsHom1
	obsHomC := obsHom2
	if obsHomR > obsHomC {
		obsHomR, obsHomC = obsHomC, obsHomR
	}
	rareCopies := 2*obsHomR + obsHet
	genotypes := obsHet + obsHomR + obsHomC
	if genotypes == 0 {
		return 1.0
	}

	probs := make([]float64, rareCopies+1)

	// start at the midpoint heterozygote count, with matching parity
	mid := rareCopies * (2*genotypes - rareCopies) / (2 * genotypes)
	if mid%2 != rareCopies%2 {
		mid++
	}
	probs[mid] = 1.0
	sum := 1.0

	curHet := mid
	curHomR := (rareCopies - mid) / 2
	curHomC := genotypes - curHet - curHomR
	for het := mid; het > 1; het -= 2 {
		probs[het-2] = probs[het] * float64(het) * float64(het-1) /
			(4.0 * float64(curHomR+1) * float64(curHomC+1))
		sum += probs[het-2]
		curHomR++
		curHomC++
		curHet -= 2
	}

	curHet = mid
	curHomR = (rareCopies - mid) / 2
	curHomC = genotypes - curHet - curHomR
	for het := mid; het <= rareCopies-2; het += 2 {
		probs[het+2] = probs[het] * 4.0 * float64(curHomR) * float64(curHomC) /
			(float64(het+2) * float64(het+1))
		sum += probs[het+2]
		curHomR--
		curHomC--
		curHet += 2
	}

	pObs := probs[obsHet]
	p := 0.0
	for _, pr := range probs {
		if pr <= pObs {
			p += pr
		}
	}
	p /= sum
	return math.Min(p, 1.0)
}

package geno

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenotypeCounterHardCalls(t *testing.T) {
	c := NewGenotypeCounter()
	for _, g := range []float64{0, 0, 1, 2, -1} {
		c.Add(g)
	}

	require.Equal(t, 2, c.NumHomRef())
	require.Equal(t, 1, c.NumHet())
	require.Equal(t, 1, c.NumHomAlt())
	require.Equal(t, 1, c.NumMissing())
	require.Equal(t, 5, c.NumSample())
	require.InDelta(t, 0.8, c.CallRate(), 1e-12)
	require.InDelta(t, 3.0, c.AC(), 1e-12)
	require.InDelta(t, 0.3, c.AF(), 1e-12)
}

func TestGenotypeCounterDosageThresholds(t *testing.T) {
	cases := []struct {
		g      float64
		bucket string
	}{
		{0.0, "homref"},
		{0.6, "homref"},
		{2.0 / 3, "het"},
		{1.0, "het"},
		{1.3, "het"},
		{4.0 / 3, "homalt"},
		{2.0, "homalt"},
		{2.5, "missing"},
		{-0.1, "missing"},
	}
	for _, tc := range cases {
		c := NewGenotypeCounter()
		c.Add(tc.g)
		got := "none"
		switch {
		case c.NumHomRef() == 1:
			got = "homref"
		case c.NumHet() == 1:
			got = "het"
		case c.NumHomAlt() == 1:
			got = "homalt"
		case c.NumMissing() == 1:
			got = "missing"
		}
		require.Equal(t, tc.bucket, got, "g = %v", tc.g)
	}
}

func TestGenotypeCounterEmpty(t *testing.T) {
	c := NewGenotypeCounter()
	require.Equal(t, 0.0, c.CallRate())
	require.Equal(t, -1.0, c.AF())
	require.Equal(t, 1.0, c.HWE())
}

func TestGenotypeCounterReset(t *testing.T) {
	c := NewGenotypeCounter()
	c.Add(1)
	c.Add(-1)
	c.Reset()
	require.Equal(t, 0, c.NumSample())
	require.Equal(t, 0.0, c.AC())
}

func TestHWEExact(t *testing.T) {
	// two homozygotes of each kind, no hets: three tables are possible and
	// the observed one carries a third of the probability mass
	c := NewGenotypeCounter()
	c.Add(0)
	c.Add(2)
	require.InDelta(t, 1.0/3, c.HWE(), 1e-12)

	// a single rare allele can only sit in a het, p-value is 1
	c.Reset()
	c.Add(0)
	c.Add(1)
	require.InDelta(t, 1.0, c.HWE(), 1e-12)
}

func TestHWEExactRange(t *testing.T) {
	c := NewGenotypeCounter()
	for _, g := range []float64{0, 0, 0, 1, 1, 2, 2, 2, 1, 0} {
		c.Add(g)
	}
	p := c.HWE()
	require.GreaterOrEqual(t, p, 0.0)
	require.LessOrEqual(t, p, 1.0)
}

func TestHWEChiSq(t *testing.T) {
	// perfect equilibrium at p = 0.5: statistic 0, p-value 1
	c := NewGenotypeCounter()
	for i := 0; i < 25; i++ {
		c.Add(0)
		c.Add(2)
	}
	for i := 0; i < 50; i++ {
		c.Add(1)
	}
	require.InDelta(t, 1.0, c.HWEChiSq(), 1e-12)

	// strong het deficit departs from equilibrium
	c.Reset()
	for i := 0; i < 50; i++ {
		c.Add(0)
		c.Add(2)
	}
	require.Less(t, c.HWEChiSq(), 1e-6)
}

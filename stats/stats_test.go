package stats

import (
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		scores []int
		mean   float64
		stdev  float64
	}
	cases := []tc{
		{[]int{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638},
		{[]int{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891},
		{[]int{1}, 1, 0},
		{[]int{}, 0, 0},
		{[]int{1, 1}, 1, 0},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, score := range c.scores {
			s.Push(float64(score))
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
	}
}

func TestMinMaxQuantile(t *testing.T) {
	is := is.New(t)
	s := NewSampledStatistic()
	for _, v := range []float64{9, 1, 5, 3, 7} {
		s.Push(v)
	}
	is.Equal(s.Min(), 1.0)
	is.Equal(s.Max(), 9.0)
	is.Equal(s.Quantile(0.5), 5.0)
	is.Equal(s.Quantile(1), 9.0)
	is.Equal(s.Samples(), []float64{9, 1, 5, 3, 7})

	unsampled := &Statistic{}
	unsampled.Push(3)
	is.True(math.IsNaN(unsampled.Quantile(0.5)))
}

func TestWilsonInterval(t *testing.T) {
	is := is.New(t)
	p := Proportion{}
	lo, hi := p.WilsonInterval(95)
	is.Equal(lo, 0.0)
	is.Equal(hi, 1.0)

	for i := 0; i < 100; i++ {
		p.Add(i < 50)
	}
	is.True(FuzzyEqual(p.Value(), 0.5))
	lo, hi = p.WilsonInterval(95)
	is.True(lo < 0.5 && hi > 0.5)
	is.True(FuzzyEqual(lo+hi, 1.0))
	// about +-0.096 for n = 100
	is.True(math.Abs(hi-0.5-0.0962) < 0.001)
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(math.Abs(ZVal(95)-1.959964) < 1e-5)
}

package density

import (
	"math"

	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
)

// Stats is a streaming mean and population standard deviation (Welford).
type Stats struct {
	n    int64
	mean float64
	m2   float64
}

// Add records one value.
func (s *Stats) Add(x float64) {
	s.n++
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

// Count returns the number of recorded values.
func (s *Stats) Count() int64 {
	return s.n
}

// Mean returns the mean, zero when empty.
func (s *Stats) Mean() float64 {
	return s.mean
}

// StdDev returns the population standard deviation, zero when empty.
func (s *Stats) StdDev() float64 {
	if s.n == 0 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.n))
}

// Threshold returns mean + k standard deviations.
func (s *Stats) Threshold(k float64) float64 {
	return s.Mean() + k*s.StdDev()
}

// Cut returns the k·σ threshold on the tail mode keeps: above the mean in
// bursty mode, below it in quiet mode.
func (s *Stats) Cut(mode signalv1.Mode, k float64) float64 {
	if mode == signalv1.ModeBursty {
		return s.Threshold(k)
	}
	return s.Threshold(-k)
}

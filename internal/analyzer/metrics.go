package analyzer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Engagement weights for watchers, plays, collectors, comments, lists, votes.
var engagementWeights = [6]float64{0.30, 0.20, 0.15, 0.15, 0.10, 0.10}

// Success weights for rating, vote count, engagement, translation count.
var successWeights = [4]float64{0.40, 0.20, 0.20, 0.20}

// ConsistencyScore is the population standard deviation of the scores weighted
// by their vote counts, centered on the weighted mean. Lower is more consistent.
// ok is false when the histogram holds no votes.
func ConsistencyScore(scores, counts []float64) (score float64, ok bool) {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	if len(scores) == 0 || total <= 0 {
		return 0, false
	}
	_, std := stat.PopMeanStdDev(scores, counts)
	if math.IsNaN(std) {
		return 0, true
	}
	return std, true
}

// MinMaxNormalize rescales values into [0,1]. A constant column maps to 0.
func MinMaxNormalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}

// weightedSum combines normalized columns row by row
func weightedSum(columns [][]float64, weights []float64, n int) []float64 {
	out := make([]float64, n)
	for c, col := range columns {
		for i := range out {
			out[i] += weights[c] * col[i]
		}
	}
	return out
}

// Pearson is the Pearson correlation of x and y, or nil when it is undefined
// (fewer than two points or a zero-variance series).
func Pearson(x, y []float64) *float64 {
	if len(x) < 2 || len(x) != len(y) {
		return nil
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return nil
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	return &r
}

// Spearman is the Pearson correlation of the average ranks of x and y
func Spearman(x, y []float64) *float64 {
	if len(x) < 2 || len(x) != len(y) {
		return nil
	}
	return Pearson(averageRanks(x), averageRanks(y))
}

// averageRanks assigns 1-based ranks, giving tied values the mean of their positions
func averageRanks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		rank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = rank
		}
		i = j + 1
	}
	return ranks
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

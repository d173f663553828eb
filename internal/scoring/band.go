package scoring

import (
	"math"
	"sort"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
)

type Band string

const (
	BandHigh    Band = "high"
	BandMedium  Band = "medium"
	BandLow     Band = "low"
	BandVeryLow Band = "very_low"
)

// DefaultBands are the cut-offs used when a test has no scoring model.
var DefaultBands = []definition.BandThreshold{
	{Label: string(BandHigh), Min: 80},
	{Label: string(BandMedium), Min: 50},
	{Label: string(BandLow), Min: 20},
	{Label: string(BandVeryLow), Min: math.Inf(-1)},
}

// Percentile is weighted/maxWeighted as a 0..100 value rounded to two
// decimals, or nil when maxWeighted <= 0.
func Percentile(weighted, maxWeighted float64) *float64 {
	if maxWeighted <= 0 {
		return nil
	}
	p := weighted / maxWeighted * 100
	p = round2(math.Min(100, math.Max(0, p)))
	return &p
}

// Classify maps a percentile to its band. A nil percentile, or one below
// every cut-off, has no band.
func Classify(p *float64, thresholds []definition.BandThreshold) *Band {
	if p == nil {
		return nil
	}
	if len(thresholds) == 0 {
		thresholds = DefaultBands
	}
	sorted := append([]definition.BandThreshold(nil), thresholds...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })
	for _, t := range sorted {
		if *p >= t.Min {
			b := Band(t.Label)
			return &b
		}
	}
	// below every configured cut-off
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

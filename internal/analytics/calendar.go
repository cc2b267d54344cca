package analytics

import (
	"math"
	"sort"
	"time"

	"bilancio/internal/core"
)

// Color buckets for the spending heatmap. Intensity is discretized into
// four fixed tiers so adjacent days stay visually distinguishable; any
// continuous-gradient rendering is a presentation concern, not ours.
const (
	BucketEmpty ColorBucket = "empty"
	BucketLow   ColorBucket = "low"
	BucketMid   ColorBucket = "mid"
	BucketHigh  ColorBucket = "high"
)

type (
	ColorBucket string

	// DailySpending is the expense rollup of one calendar day.
	// The category amounts always sum to Amount.
	DailySpending struct {
		Date             core.Date
		Amount           core.Money // sum of expense magnitudes
		TransactionCount int
		Categories       map[string]core.Money
	}

	// Thresholds are the distribution statistics of the nonzero daily
	// amounts, in whole units. Invariant: Min <= P25 <= P50 <= P75 <= P90 <= Max.
	Thresholds struct {
		Min    float64
		Max    float64
		Median float64
		P25    float64
		P50    float64
		P75    float64
		P90    float64
	}
)

// ComputeDailySpending rolls expenses up per calendar day over [start, end]
// inclusive. Days without spending are present with a zero amount. Income
// and internal transfers do not contribute.
func ComputeDailySpending(txs []core.Transaction, start, end core.Date) []DailySpending {
	if end.Before(start) {
		return nil
	}

	n := int(end.Sub(start.Time)/(24*time.Hour)) + 1
	days := make([]DailySpending, n)
	byDay := make(map[string]*DailySpending, n)
	d := start
	for i := 0; i < n; i++ {
		days[i] = DailySpending{Date: d, Categories: map[string]core.Money{}}
		byDay[d.String()] = &days[i]
		d = d.AddDays(1)
	}

	for _, tx := range txs {
		if tx.IsTransfer || !tx.Amount.IsExpense() {
			continue
		}
		day, ok := byDay[tx.Date.String()]
		if !ok {
			continue
		}
		magnitude := tx.Amount.Abs()
		day.Amount.Cents += magnitude.Cents
		day.TransactionCount++
		cat := day.Categories[tx.Category]
		cat.Cents += magnitude.Cents
		day.Categories[tx.Category] = cat
	}

	return days
}

// ComputeThresholds derives distribution statistics over the nonzero daily
// amounts. An all-zero range yields zero thresholds.
func ComputeThresholds(daily []DailySpending) Thresholds {
	var amounts []float64
	for _, d := range daily {
		if d.Amount.Cents != 0 {
			amounts = append(amounts, d.Amount.Float())
		}
	}
	if len(amounts) == 0 {
		return Thresholds{}
	}
	sort.Float64s(amounts)

	t := Thresholds{
		Min: amounts[0],
		Max: amounts[len(amounts)-1],
		P25: percentile(amounts, 25),
		P50: percentile(amounts, 50),
		P75: percentile(amounts, 75),
		P90: percentile(amounts, 90),
	}
	t.Median = t.P50
	return t
}

// percentile interpolates linearly between closest ranks.
// sorted must be ascending and non-empty.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Intensity normalizes a day's spending into [0, 1] against the range
// maximum. Zero-spending days are always 0.
func Intensity(day DailySpending, t Thresholds) float64 {
	if day.Amount.Cents == 0 || t.Max <= 0 {
		return 0
	}
	return math.Min(day.Amount.Float()/t.Max, 1)
}

// BucketFor maps a day to its heatmap color bucket.
func BucketFor(day DailySpending, t Thresholds) ColorBucket {
	if day.Amount.Cents == 0 {
		return BucketEmpty
	}
	i := Intensity(day, t)
	switch {
	case i <= 0.33:
		return BucketLow
	case i <= 0.66:
		return BucketMid
	default:
		return BucketHigh
	}
}

package budget

import (
	"bilancio/internal/core"
)

// Status colors for spending pace.
const (
	StatusGreen  = "green"  // usage at or under elapsed-time pace
	StatusYellow = "yellow" // over pace but within budget
	StatusRed    = "red"    // over budget
)

// Progress relates spending pace to the elapsed share of the month.
type Progress struct {
	DaysElapsed          int
	TotalDays            int
	MonthProgressPercent float64
	BudgetUsagePercent   float64
	IsOverBudget         bool
	StatusColor          string
	ActualBurnRate       float64
	TargetBurnRate       float64
	BurnRateVariance     float64
}

// ReferenceDate picks the day progress is measured against: today when
// viewing the current month, the last day for a completed month, the
// first day for a future month.
func ReferenceDate(target core.Month, today core.Date) core.Date {
	switch {
	case target.Contains(today):
		return today
	case target.First().After(today):
		return target.First()
	default:
		return target.Last()
	}
}

// ComputeProgress derives pace indicators from the metrics at a reference
// date inside the target month.
func ComputeProgress(m Metrics, ref core.Date) Progress {
	p := Progress{
		DaysElapsed: ref.Day(),
		TotalDays:   ref.MonthOf().Days(),
	}
	p.MonthProgressPercent = float64(p.DaysElapsed) / float64(p.TotalDays) * 100

	if m.DayToDayBudget > 0 {
		p.BudgetUsagePercent = m.BudgetSpent / m.DayToDayBudget * 100
	}
	p.IsOverBudget = m.BudgetSpent > m.DayToDayBudget

	switch {
	case p.BudgetUsagePercent <= p.MonthProgressPercent:
		p.StatusColor = StatusGreen
	case p.BudgetUsagePercent <= 100:
		p.StatusColor = StatusYellow
	default:
		p.StatusColor = StatusRed
	}

	if p.DaysElapsed < 1 {
		p.ActualBurnRate = m.BudgetSpent
	} else {
		p.ActualBurnRate = m.BudgetSpent / float64(p.DaysElapsed)
	}
	p.TargetBurnRate = m.DayToDayBudget / float64(p.TotalDays)
	p.BurnRateVariance = p.ActualBurnRate - p.TargetBurnRate

	return p
}

package services

import (
	"context"
	"fmt"
	"time"

	"bilancio/internal/analytics"
	"bilancio/internal/budget"
	"bilancio/internal/core"
)

// TransactionReader is the slice of the repository the report service needs.
type TransactionReader interface {
	TransactionsInMonth(ctx context.Context, month core.Month) ([]core.Transaction, error)
	TransactionsInRange(ctx context.Context, start, end core.Date) ([]core.Transaction, error)
}

// MonthlyReport bundles everything the report view shows for one month.
type MonthlyReport struct {
	Month      core.Month                  `json:"month"`
	KPIs       analytics.KPIReport         `json:"kpis"`
	Categories []analytics.CategorySummary `json:"categories"`
	Metrics    budget.Metrics              `json:"metrics"`
	Progress   budget.Progress             `json:"progress"`
	Breakdown  budget.Breakdown            `json:"breakdown"`
}

// CalendarReport is the heatmap view of a date range.
type CalendarReport struct {
	Start      core.Date                 `json:"start"`
	End        core.Date                 `json:"end"`
	Days       []analytics.DailySpending `json:"days"`
	Thresholds analytics.Thresholds      `json:"thresholds"`
}

// CalendarDay pairs a day with its derived heatmap attributes.
type CalendarDay struct {
	analytics.DailySpending
	Intensity float64               `json:"intensity"`
	Bucket    analytics.ColorBucket `json:"bucket"`
}

// ReportService reads a month's transactions and derives the analytics
// and budget views. Pure computation happens in analytics and budget;
// this layer only wires data to it.
type ReportService struct {
	store              TransactionReader
	budgetConfigs      *budget.ConfigCache
	budgetConfigPath   string
	transferCategories []string
	now                func() time.Time
}

func NewReportService(store TransactionReader, configs *budget.ConfigCache, configPath string, transferCategories []string) *ReportService {
	return &ReportService{
		store:              store,
		budgetConfigs:      configs,
		budgetConfigPath:   configPath,
		transferCategories: transferCategories,
		now:                time.Now,
	}
}

// MonthlyReport computes the full report for one month.
func (s *ReportService) MonthlyReport(ctx context.Context, month core.Month) (*MonthlyReport, error) {
	cfg, err := s.budgetConfigs.Get(s.budgetConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load budget config: %w", err)
	}

	txs, err := s.store.TransactionsInMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("read month %s: %w", month, err)
	}
	txs = analytics.MarkTransfers(txs, s.transferCategories)

	today := core.DateOf(s.now())
	isCurrent := month.Contains(today)

	metrics, err := budget.ComputeMetrics(cfg, txs, isCurrent)
	if err != nil {
		return nil, fmt.Errorf("compute metrics for %s: %w", month, err)
	}

	return &MonthlyReport{
		Month:      month,
		KPIs:       analytics.ComputeKPIs(txs),
		Categories: analytics.ComputeCategorySummary(txs),
		Metrics:    metrics,
		Progress:   budget.ComputeProgress(metrics, budget.ReferenceDate(month, today)),
		Breakdown:  budget.ComputeBreakdown(cfg),
	}, nil
}

// Calendar computes daily spending and heatmap thresholds for a range.
func (s *ReportService) Calendar(ctx context.Context, start, end core.Date) (*CalendarReport, error) {
	if end.Before(start) {
		return nil, core.NewValidationError("endDate", "end date %s is before start date %s", end, start)
	}

	txs, err := s.store.TransactionsInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("read range %s..%s: %w", start, end, err)
	}
	txs = analytics.MarkTransfers(txs, s.transferCategories)

	days := analytics.ComputeDailySpending(txs, start, end)
	return &CalendarReport{
		Start:      start,
		End:        end,
		Days:       days,
		Thresholds: analytics.ComputeThresholds(days),
	}, nil
}

// HeatmapDays decorates the report's days with intensity and bucket.
func (r *CalendarReport) HeatmapDays() []CalendarDay {
	out := make([]CalendarDay, len(r.Days))
	for i, day := range r.Days {
		out[i] = CalendarDay{
			DailySpending: day,
			Intensity:     analytics.Intensity(day, r.Thresholds),
			Bucket:        analytics.BucketFor(day, r.Thresholds),
		}
	}
	return out
}

package budget

import (
	"strings"

	"bilancio/internal/core"
)

// Metrics compares the forecast against a month's actuals. All amounts are
// in whole units.
type Metrics struct {
	ForecastedIncome   float64
	ActualIncomeMTD    float64
	DayToDayBudget     float64
	BudgetSpent        float64
	BudgetRemaining    float64
	ForecastedSavings  float64
	ActualSavingsMTD   float64
	ForecastedInterest float64
	InterestPaidMTD    float64
	FixedExpensesTotal float64
	Net                float64
}

// ComputeMetrics derives the budget-vs-actual figures for one month.
// txs must already be restricted to the target month. For the current
// month the net uses forecasted income, since the month's income is not
// final yet; completed months use the realized figure.
//
// The config is validated first; an invalid config fails the computation
// before any transaction is looked at.
func ComputeMetrics(cfg *Config, txs []core.Transaction, isCurrentMonth bool) (Metrics, error) {
	if err := cfg.Validate(); err != nil {
		return Metrics{}, err
	}

	m := Metrics{
		ForecastedIncome:   cfg.ForecastedIncome,
		DayToDayBudget:     cfg.DayToDayBudget,
		ForecastedSavings:  cfg.ForecastedSavings,
		ForecastedInterest: cfg.ForecastedInterest,
		FixedExpensesTotal: cfg.FixedExpensesTotal(),
	}

	excluded := cfg.ExcludedCategories()
	savingsCat := strings.ToLower(cfg.SavingsCategory)
	interestCat := strings.ToLower(cfg.InterestCategory)

	for _, tx := range txs {
		if tx.IsTransfer {
			continue
		}
		if !tx.Amount.IsExpense() {
			m.ActualIncomeMTD += tx.Amount.Float()
			continue
		}

		magnitude := tx.Amount.Abs().Float()
		category := strings.ToLower(tx.Category)

		if savingsCat != "" && category == savingsCat {
			m.ActualSavingsMTD += magnitude
		}
		if interestCat != "" && category == interestCat {
			m.InterestPaidMTD += magnitude
		}
		if _, ok := excluded[category]; ok {
			continue
		}
		m.BudgetSpent += magnitude
	}

	m.BudgetRemaining = m.DayToDayBudget - m.BudgetSpent

	income := m.ActualIncomeMTD
	if isCurrentMonth {
		income = m.ForecastedIncome
	}
	m.Net = income - m.FixedExpensesTotal - m.BudgetSpent

	return m, nil
}

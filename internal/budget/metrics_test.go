package budget

import (
	"errors"
	"math"
	"testing"
	"time"

	"bilancio/internal/core"
)

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-6
}

func expense(day int, amountCents int64, category string) core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(2025, time.June, day),
		Amount:      core.Money{Cents: -amountCents},
		Description: "tx",
		Category:    category,
	}
}

func income(day int, amountCents int64, category string) core.Transaction {
	tx := expense(day, amountCents, category)
	tx.Amount = core.Money{Cents: amountCents}
	return tx
}

func testConfig() *Config {
	return &Config{
		ForecastedIncome:   5000,
		DayToDayBudget:     4000,
		ForecastedSavings:  500,
		ForecastedInterest: 100,
		SavingsCategory:    "Savings",
		InterestCategory:   "Interest",
		FixedExpenses: []LineItem{
			{Label: "Rent", Amount: 1200},
			{Label: "Utilities", Amount: 180},
		},
		VariableSubscriptions: []LineItem{
			{Label: "Streaming", Amount: 16},
		},
	}
}

func TestComputeMetrics(t *testing.T) {
	cfg := testConfig()
	txs := []core.Transaction{
		income(1, 5200_00, "Salary"),
		expense(2, 1200_00, "Rent"),      // excluded, fixed
		expense(3, 16_00, "Streaming"),   // excluded, subscription
		expense(5, 300_00, "Groceries"),  // counts
		expense(8, 120_50, "Dining"),     // counts
		expense(10, 500_00, "Savings"),   // counts, also savings actual
		expense(12, 80_00, "Interest"),   // counts, also interest actual
		{Date: core.NewDate(2025, time.June, 14), Amount: core.Money{Cents: -90_00}, Description: "move", Category: "Transfer", IsTransfer: true},
	}

	m, err := ComputeMetrics(cfg, txs, false)
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}

	if !approx(m.ActualIncomeMTD, 5200) {
		t.Errorf("ActualIncomeMTD = %f, want 5200", m.ActualIncomeMTD)
	}
	if !approx(m.BudgetSpent, 300+120.50+500+80) {
		t.Errorf("BudgetSpent = %f, want 1000.50", m.BudgetSpent)
	}
	if !approx(m.BudgetRemaining, 4000-1000.50) {
		t.Errorf("BudgetRemaining = %f, want 2999.50", m.BudgetRemaining)
	}
	if !approx(m.ActualSavingsMTD, 500) {
		t.Errorf("ActualSavingsMTD = %f, want 500", m.ActualSavingsMTD)
	}
	if !approx(m.InterestPaidMTD, 80) {
		t.Errorf("InterestPaidMTD = %f, want 80", m.InterestPaidMTD)
	}
	if !approx(m.FixedExpensesTotal, 1380) {
		t.Errorf("FixedExpensesTotal = %f, want 1380", m.FixedExpensesTotal)
	}
	// Completed month: realized income drives the net.
	if !approx(m.Net, 5200-1380-1000.50) {
		t.Errorf("Net = %f, want %f", m.Net, 5200-1380-1000.50)
	}
}

func TestComputeMetricsCurrentMonthUsesForecastedIncome(t *testing.T) {
	cfg := testConfig()
	txs := []core.Transaction{income(1, 1000_00, "Salary"), expense(2, 200_00, "Groceries")}

	m, err := ComputeMetrics(cfg, txs, true)
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	if !approx(m.Net, 5000-1380-200) {
		t.Errorf("current-month Net = %f, want forecast-based %f", m.Net, 5000-1380-200.0)
	}
}

func TestComputeMetricsOverBudget(t *testing.T) {
	cfg := &Config{DayToDayBudget: 4000}
	txs := []core.Transaction{expense(3, 5902_21, "Shopping")}

	m, err := ComputeMetrics(cfg, txs, false)
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	if !approx(m.BudgetSpent, 5902.21) {
		t.Errorf("BudgetSpent = %f, want 5902.21", m.BudgetSpent)
	}
	if !approx(m.BudgetRemaining, -1902.21) {
		t.Errorf("BudgetRemaining = %f, want -1902.21", m.BudgetRemaining)
	}

	p := ComputeProgress(m, core.NewDate(2025, time.June, 30))
	if !p.IsOverBudget {
		t.Error("IsOverBudget = false, want true")
	}
	if p.StatusColor != StatusRed {
		t.Errorf("StatusColor = %q, want red", p.StatusColor)
	}
}

func TestComputeMetricsCategoryMatchIsCaseInsensitive(t *testing.T) {
	cfg := testConfig()
	txs := []core.Transaction{
		expense(2, 100_00, "RENT"),
		expense(3, 50_00, "savings"),
	}

	m, err := ComputeMetrics(cfg, txs, false)
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	if !approx(m.BudgetSpent, 50) {
		t.Errorf("BudgetSpent = %f, want 50 (RENT excluded regardless of case)", m.BudgetSpent)
	}
	if !approx(m.ActualSavingsMTD, 50) {
		t.Errorf("ActualSavingsMTD = %f, want 50", m.ActualSavingsMTD)
	}
}

func TestComputeMetricsRejectsInvalidConfig(t *testing.T) {
	cfg := &Config{ForecastedIncome: -1}
	_, err := ComputeMetrics(cfg, nil, false)
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("ComputeMetrics = %v, want *ConfigError", err)
	}
}

func TestComputeMetricsEmptyMonth(t *testing.T) {
	m, err := ComputeMetrics(testConfig(), nil, false)
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	if m.BudgetSpent != 0 || m.ActualIncomeMTD != 0 {
		t.Errorf("empty month metrics = %+v", m)
	}
	if !approx(m.BudgetRemaining, 4000) {
		t.Errorf("BudgetRemaining = %f, want full budget", m.BudgetRemaining)
	}
}

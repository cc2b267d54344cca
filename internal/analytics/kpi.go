// Package analytics derives KPIs, category summaries and calendar rollups
// from a transaction set. Every function here is a pure, synchronous
// function of its input; filtering (date ranges, transfer classification)
// happens before the data arrives.
package analytics

import (
	"sort"
	"strings"

	"bilancio/internal/core"
)

type (
	// KPIReport is the summary totals for a transaction set.
	KPIReport struct {
		TotalSpending    core.Money // sum of negative amounts, kept negative
		TotalIncome      core.Money
		NetAmount        core.Money
		TransactionCount int
		Period           string
	}

	// CategorySummary is one income or expense row of the category
	// breakdown. A category appears twice when it carries both signs.
	CategorySummary struct {
		Category         string
		TotalAmount      core.Money
		TransactionCount int
		Percentage       float64
		IsIncome         bool
	}
)

// MarkTransfers returns a copy of txs with IsTransfer set on every
// transaction whose category is in transferCategories. Matching is
// case-insensitive.
func MarkTransfers(txs []core.Transaction, transferCategories []string) []core.Transaction {
	if len(transferCategories) == 0 {
		return txs
	}
	set := make(map[string]struct{}, len(transferCategories))
	for _, c := range transferCategories {
		set[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	for i := range out {
		if _, ok := set[strings.ToLower(out[i].Category)]; ok {
			out[i].IsTransfer = true
		}
	}
	return out
}

// ComputeKPIs sums income and spending over the set, excluding internal
// transfers from all totals. The period label comes from the first
// transaction in input order; an empty input yields the zero report.
func ComputeKPIs(txs []core.Transaction) KPIReport {
	report := KPIReport{}
	if len(txs) == 0 {
		return report
	}
	report.Period = txs[0].Date.Format("January 2006")

	for _, tx := range txs {
		if tx.IsTransfer {
			continue
		}
		report.TransactionCount++
		if tx.Amount.IsExpense() {
			report.TotalSpending.Cents += tx.Amount.Cents
		} else {
			report.TotalIncome.Cents += tx.Amount.Cents
		}
	}
	report.NetAmount.Cents = report.TotalIncome.Cents + report.TotalSpending.Cents
	return report
}

// ComputeCategorySummary groups the set by category, splitting each
// category into its income and expense side. Percentages are relative to
// the grand income and expense totals of the whole (non-transfer) set.
// Rows are ordered by magnitude, ties keeping first-seen order.
func ComputeCategorySummary(txs []core.Transaction) []CategorySummary {
	type groupKey struct {
		category string
		isIncome bool
	}

	var (
		order        []groupKey
		groups       = make(map[groupKey]*CategorySummary)
		totalIncome  int64
		totalExpense int64 // magnitude
	)

	for _, tx := range txs {
		if tx.IsTransfer {
			continue
		}
		isIncome := !tx.Amount.IsExpense()
		if isIncome {
			totalIncome += tx.Amount.Cents
		} else {
			totalExpense += -tx.Amount.Cents
		}

		key := groupKey{category: tx.Category, isIncome: isIncome}
		g, ok := groups[key]
		if !ok {
			g = &CategorySummary{Category: tx.Category, IsIncome: isIncome}
			groups[key] = g
			order = append(order, key)
		}
		g.TotalAmount.Cents += tx.Amount.Cents
		g.TransactionCount++
	}

	summaries := make([]CategorySummary, 0, len(order))
	for _, key := range order {
		g := groups[key]
		abs := g.TotalAmount.Abs().Float()
		if g.IsIncome {
			if totalIncome > 0 {
				g.Percentage = abs / (float64(totalIncome) / 100.0) * 100.0
			}
		} else {
			if totalExpense > 0 {
				g.Percentage = abs / (float64(totalExpense) / 100.0) * 100.0
			}
		}
		summaries = append(summaries, *g)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalAmount.Abs().Cents > summaries[j].TotalAmount.Abs().Cents
	})
	return summaries
}

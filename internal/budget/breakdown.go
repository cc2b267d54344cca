package budget

type (
	// BreakdownItem is one line of the expense breakdown; group headers
	// carry their children and the summed amount.
	BreakdownItem struct {
		Label    string
		Amount   float64
		Children []BreakdownItem `json:",omitempty"`
	}

	// BreakdownSection is a total plus its items.
	BreakdownSection struct {
		Total float64
		Items []BreakdownItem
	}

	// Breakdown is the forecast expense structure: the fixed-expense tree
	// and the flat subscription list.
	Breakdown struct {
		FixedExpenses         BreakdownSection
		VariableSubscriptions BreakdownSection
	}
)

// ComputeBreakdown transforms the config into the breakdown shape. It is
// a pure transformation of the forecast; no transaction data is involved.
func ComputeBreakdown(cfg *Config) Breakdown {
	return Breakdown{
		FixedExpenses: BreakdownSection{
			Total: cfg.FixedExpensesTotal(),
			Items: breakdownItems(cfg.FixedExpenses),
		},
		VariableSubscriptions: BreakdownSection{
			Total: cfg.SubscriptionsTotal(),
			Items: breakdownItems(cfg.VariableSubscriptions),
		},
	}
}

func breakdownItems(items []LineItem) []BreakdownItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]BreakdownItem, len(items))
	for i, item := range items {
		out[i] = BreakdownItem{
			Label:    item.Label,
			Amount:   item.Total(),
			Children: breakdownItems(item.Children),
		}
	}
	return out
}

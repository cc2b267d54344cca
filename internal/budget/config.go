// Package budget combines a forecast configuration with a month's actual
// transactions into comparative metrics, progress indicators and a
// hierarchical expense breakdown. The configuration is read-only per
// request and is never mutated here.
package budget

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type (
	// LineItem is one forecast line. Items with children are group headers
	// whose total is the sum of their children. Category names the
	// transaction category the item maps to; it defaults to the label.
	LineItem struct {
		Label    string     `yaml:"label"`
		Amount   float64    `yaml:"amount"`
		Category string     `yaml:"category,omitempty"`
		Children []LineItem `yaml:"children,omitempty"`
	}

	// Config is the month forecast: expected income, the day-to-day
	// spending ceiling, savings and interest forecasts, fixed expense
	// lines (possibly nested) and flat variable subscriptions.
	Config struct {
		ForecastedIncome      float64    `yaml:"forecasted_income"`
		DayToDayBudget        float64    `yaml:"day_to_day_budget"`
		ForecastedSavings     float64    `yaml:"forecasted_savings"`
		ForecastedInterest    float64    `yaml:"forecasted_interest"`
		SavingsCategory       string     `yaml:"savings_category,omitempty"`
		InterestCategory      string     `yaml:"interest_category,omitempty"`
		FixedExpenses         []LineItem `yaml:"fixed_expenses,omitempty"`
		VariableSubscriptions []LineItem `yaml:"variable_subscriptions,omitempty"`
	}

	// ConfigError reports every schema problem found, so the caller can
	// fail fast before any transaction data is touched.
	ConfigError struct {
		Problems []string
	}
)

func (e *ConfigError) Error() string {
	return fmt.Sprintf("budget config validation failed:\n- %s", strings.Join(e.Problems, "\n- "))
}

// LoadConfig reads and validates a budget configuration file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open budget config: %w", err)
	}
	defer f.Close()
	return ParseConfig(f)
}

// ParseConfig decodes YAML strictly: unknown fields are rejected outright
// rather than coerced.
func ParseConfig(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse budget config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate collects every schema problem instead of stopping at the first.
func (c *Config) Validate() error {
	var problems []string

	if c.ForecastedIncome < 0 {
		problems = append(problems, fmt.Sprintf("forecasted_income must not be negative, got %.2f", c.ForecastedIncome))
	}
	if c.DayToDayBudget < 0 {
		problems = append(problems, fmt.Sprintf("day_to_day_budget must not be negative, got %.2f", c.DayToDayBudget))
	}
	if c.ForecastedSavings < 0 {
		problems = append(problems, fmt.Sprintf("forecasted_savings must not be negative, got %.2f", c.ForecastedSavings))
	}
	if c.ForecastedInterest < 0 {
		problems = append(problems, fmt.Sprintf("forecasted_interest must not be negative, got %.2f", c.ForecastedInterest))
	}

	problems = append(problems, validateItems("fixed_expenses", c.FixedExpenses, true)...)
	problems = append(problems, validateItems("variable_subscriptions", c.VariableSubscriptions, false)...)

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

func validateItems(section string, items []LineItem, nestable bool) []string {
	var problems []string
	for i, item := range items {
		at := fmt.Sprintf("%s[%d]", section, i)
		if strings.TrimSpace(item.Label) == "" {
			problems = append(problems, at+": label is required")
		}
		if item.Amount < 0 {
			problems = append(problems, fmt.Sprintf("%s: amount must not be negative, got %.2f", at, item.Amount))
		}
		if len(item.Children) > 0 {
			if !nestable {
				problems = append(problems, at+": sub-items are not allowed here")
				continue
			}
			for j, child := range item.Children {
				if len(child.Children) > 0 {
					problems = append(problems, fmt.Sprintf("%s.children[%d]: nesting deeper than one level is not allowed", at, j))
				}
			}
			problems = append(problems, validateItems(at+".children", item.Children, false)...)
		}
	}
	return problems
}

// Total is the item's own amount, or the sum of its children when present.
func (li LineItem) Total() float64 {
	if len(li.Children) == 0 {
		return li.Amount
	}
	var sum float64
	for _, child := range li.Children {
		sum += child.Total()
	}
	return sum
}

// CategoryName is the transaction category the item maps to.
func (li LineItem) CategoryName() string {
	if li.Category != "" {
		return li.Category
	}
	return li.Label
}

// FixedExpensesTotal sums the fixed-expense tree.
func (c *Config) FixedExpensesTotal() float64 {
	var sum float64
	for _, item := range c.FixedExpenses {
		sum += item.Total()
	}
	return sum
}

// SubscriptionsTotal sums the variable subscription list.
func (c *Config) SubscriptionsTotal() float64 {
	var sum float64
	for _, item := range c.VariableSubscriptions {
		sum += item.Total()
	}
	return sum
}

// ExcludedCategories returns the transaction categories covered by fixed
// expenses and subscriptions. Spending in these does not count against
// the day-to-day budget.
func (c *Config) ExcludedCategories() map[string]struct{} {
	set := make(map[string]struct{})
	var walk func(items []LineItem)
	walk = func(items []LineItem) {
		for _, item := range items {
			set[strings.ToLower(item.CategoryName())] = struct{}{}
			walk(item.Children)
		}
	}
	walk(c.FixedExpenses)
	walk(c.VariableSubscriptions)
	return set
}

package pricing

import (
	"errors"
	"strconv"
	"strings"

	"github.com/aristath/flipper/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	errEmptyBudget    = errors.New("empty budget")
	errNegativeBudget = errors.New("budget is negative")
)

var suffixes = map[byte]decimal.Decimal{
	'k': decimal.NewFromInt(1_000),
	'm': decimal.NewFromInt(1_000_000),
	'b': decimal.NewFromInt(1_000_000_000),
}

// ParseBudget parses "1000", "1,000", "250k", "1.5m" or "2B".
func ParseBudget(text string) (float64, error) {
	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(text), ",", ""))
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return 0, &domain.ParseError{Input: text, Err: errEmptyBudget}
	}

	multiplier := decimal.NewFromInt(1)
	if m, ok := suffixes[s[len(s)-1]]; ok {
		multiplier = m
		s = strings.TrimSpace(s[:len(s)-1])
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &domain.ParseError{Input: text, Err: err}
	}
	if amount.IsNegative() {
		return 0, &domain.ParseError{Input: text, Err: errNegativeBudget}
	}

	return amount.Mul(multiplier).InexactFloat64(), nil
}

// BudgetFromText is ParseBudget with errors mapped to a zero budget.
func BudgetFromText(text string) float64 {
	budget, err := ParseBudget(text)
	if err != nil {
		return 0
	}
	return budget
}

// BalanceText renders a synced balance as budget text, dropping fractional coins.
func BalanceText(balance float64) string {
	return strconv.FormatInt(int64(balance), 10)
}

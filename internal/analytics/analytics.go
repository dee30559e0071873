// Package analytics computes monthly, per-category and whole-ledger views
// over a transaction list. Every function is pure; nothing is cached.
package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/luca-finance/luca/internal/model"
)

// Kind selects which transactions a view covers.
type Kind int

const (
	All Kind = iota
	Expenses
	Income
)

func (k Kind) String() string {
	switch k {
	case Expenses:
		return "expenses"
	case Income:
		return "income"
	default:
		return "all"
	}
}

// ParseKind accepts "expenses"/"expense", "income" and "all". Empty means all.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return All, nil
	case "expenses", "expense":
		return Expenses, nil
	case "income":
		return Income, nil
	default:
		return All, fmt.Errorf("unknown transaction kind %q", s)
	}
}

// Match reports whether t belongs to the kind.
func (k Kind) Match(t model.Transaction) bool {
	switch k {
	case Expenses:
		return t.Amount.IsNegative()
	case Income:
		return t.Amount.IsPositive()
	default:
		return true
	}
}

var monthLabels = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// MonthKey returns "YYYY-MM" for the transaction's calendar day.
func MonthKey(t model.Transaction) string {
	return t.Date.Format("2006-01")
}

// MonthLabel turns "2025-01" into "Ene 2025". Unparseable keys are returned as is.
func MonthLabel(key string) string {
	var year, month int
	if _, err := fmt.Sscanf(key, "%4d-%2d", &year, &month); err != nil || month < 1 || month > 12 {
		return key
	}
	return fmt.Sprintf("%s %d", monthLabels[month-1], year)
}

// distinctMonths counts the months present in txns, with a floor of 1.
func distinctMonths(txns []model.Transaction) int {
	months := make(map[string]struct{})
	for _, t := range txns {
		months[MonthKey(t)] = struct{}{}
	}
	if len(months) == 0 {
		return 1
	}
	return len(months)
}

type monthAcc struct {
	income, expenses decimal.Decimal
	byCategory       map[model.Category]decimal.Decimal
	count            int
}

// MonthlyBreakdown groups txns by calendar month, oldest month first.
// ByCategory holds absolute amounts of every transaction in the month.
func MonthlyBreakdown(txns []model.Transaction) []model.MonthlyBreakdown {
	acc := make(map[string]*monthAcc)
	for _, t := range txns {
		key := MonthKey(t)
		m, ok := acc[key]
		if !ok {
			m = &monthAcc{byCategory: make(map[model.Category]decimal.Decimal)}
			acc[key] = m
		}
		if t.Amount.IsPositive() {
			m.income = m.income.Add(t.Amount)
		} else {
			m.expenses = m.expenses.Add(t.Amount.Abs())
		}
		m.byCategory[t.Category] = m.byCategory[t.Category].Add(t.Amount.Abs())
		m.count++
	}

	out := make([]model.MonthlyBreakdown, 0, len(acc))
	for key, m := range acc {
		byCat := make(map[model.Category]float64, len(m.byCategory))
		for c, v := range m.byCategory {
			byCat[c] = v.InexactFloat64()
		}
		out = append(out, model.MonthlyBreakdown{
			Month:            key,
			Label:            MonthLabel(key),
			Income:           m.income.InexactFloat64(),
			Expenses:         m.expenses.InexactFloat64(),
			Net:              m.income.Sub(m.expenses).InexactFloat64(),
			ByCategory:       byCat,
			TransactionCount: m.count,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CategoryBreakdown groups the kind's transactions by category, largest
// total first. Totals are absolute amounts.
func CategoryBreakdown(txns []model.Transaction, kind Kind) []model.CategoryBreakdown {
	var filtered []model.Transaction
	for _, t := range txns {
		if kind.Match(t) {
			filtered = append(filtered, t)
		}
	}

	totals := make(map[model.Category]decimal.Decimal)
	counts := make(map[model.Category]int)
	grand := decimal.Zero
	for _, t := range filtered {
		abs := t.Amount.Abs()
		totals[t.Category] = totals[t.Category].Add(abs)
		counts[t.Category]++
		grand = grand.Add(abs)
	}

	months := decimal.NewFromInt(int64(distinctMonths(filtered)))
	out := make([]model.CategoryBreakdown, 0, len(totals))
	for c, total := range totals {
		var pct float64
		if grand.IsPositive() {
			pct = total.Div(grand).InexactFloat64() * 100
		}
		out = append(out, model.CategoryBreakdown{
			Category:    c,
			Label:       c.Label(),
			Total:       total.InexactFloat64(),
			Count:       counts[c],
			Percentage:  pct,
			AvgPerMonth: total.Div(months).InexactFloat64(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Summary aggregates the whole ledger. An empty ledger yields zero totals,
// a month count of 1 and "N/A" as top expense category.
func Summary(txns []model.Transaction) model.FinancialSummary {
	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range txns {
		if t.Amount.IsPositive() {
			income = income.Add(t.Amount)
		} else {
			expenses = expenses.Add(t.Amount.Abs())
		}
	}

	months := distinctMonths(txns)
	top := "N/A"
	if cats := CategoryBreakdown(txns, Expenses); len(cats) > 0 {
		top = cats[0].Label
	}

	n := decimal.NewFromInt(int64(months))
	return model.FinancialSummary{
		TotalIncome:        income.InexactFloat64(),
		TotalExpenses:      expenses.InexactFloat64(),
		NetBalance:         income.Sub(expenses).InexactFloat64(),
		AvgMonthlyIncome:   income.Div(n).InexactFloat64(),
		AvgMonthlyExpenses: expenses.Div(n).InexactFloat64(),
		TopExpenseCategory: top,
		MonthCount:         months,
		TransactionCount:   len(txns),
	}
}

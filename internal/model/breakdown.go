package model

// MonthlyBreakdown aggregates all transactions of one calendar month.
type MonthlyBreakdown struct {
	Month            string               `json:"month"` // "YYYY-MM"
	Label            string               `json:"label"` // "Ene 2025"
	Income           float64              `json:"income"`
	Expenses         float64              `json:"expenses"`
	Net              float64              `json:"net"`
	ByCategory       map[Category]float64 `json:"by_category"`
	TransactionCount int                  `json:"transaction_count"`
}

// CategoryBreakdown aggregates a filtered transaction subset for one category.
type CategoryBreakdown struct {
	Category    Category `json:"category"`
	Label       string   `json:"label"`
	Total       float64  `json:"total"`
	Count       int      `json:"count"`
	Percentage  float64  `json:"percentage"`
	AvgPerMonth float64  `json:"avg_per_month"`
}

// FinancialSummary aggregates a whole transaction set.
type FinancialSummary struct {
	TotalIncome        float64 `json:"total_income"`
	TotalExpenses      float64 `json:"total_expenses"`
	NetBalance         float64 `json:"net_balance"`
	AvgMonthlyIncome   float64 `json:"avg_monthly_income"`
	AvgMonthlyExpenses float64 `json:"avg_monthly_expenses"`
	TopExpenseCategory string  `json:"top_expense_category"`
	MonthCount         int     `json:"month_count"`
	TransactionCount   int     `json:"transaction_count"`
}

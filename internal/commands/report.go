package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/luca-finance/luca/internal/analytics"
	"github.com/luca-finance/luca/internal/model"
	"github.com/luca-finance/luca/internal/normalize"
)

type summaryReport struct {
	Summary    model.FinancialSummary      `json:"summary"`
	Monthly    []model.MonthlyBreakdown    `json:"monthly"`
	Categories []model.CategoryBreakdown   `json:"categories"`
	Recurring  []analytics.RecurringCharge `json:"recurring"`
}

func newSummaryCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	var kind string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print income, expenses and category breakdowns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := analytics.ParseKind(kind)
			if err != nil {
				return err
			}

			p, _, err := openProject(commandContext(cmd), opts)
			if err != nil {
				return err
			}
			defer p.Close()

			txns := p.svc.Transactions()
			report := summaryReport{
				Summary:    analytics.Summary(txns),
				Monthly:    analytics.MonthlyBreakdown(txns),
				Categories: analytics.CategoryBreakdown(txns, k),
				Recurring:  analytics.Recurring(txns),
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return printSummary(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().StringVar(&kind, "type", "expenses", "category breakdown type: expenses, income or all")

	return cmd
}

func printSummary(out io.Writer, r summaryReport) error {
	s := r.Summary
	fmt.Fprintf(out, "Resumen (%d meses, %d movimientos)\n\n", s.MonthCount, s.TransactionCount)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Ingresos\t%s\n", euro(s.TotalIncome))
	fmt.Fprintf(w, "Gastos\t%s\n", euro(s.TotalExpenses))
	fmt.Fprintf(w, "Balance neto\t%s\n", euro(s.NetBalance))
	fmt.Fprintf(w, "Media ingresos/mes\t%s\n", euro(s.AvgMonthlyIncome))
	fmt.Fprintf(w, "Media gastos/mes\t%s\n", euro(s.AvgMonthlyExpenses))
	fmt.Fprintf(w, "Mayor categoría de gasto\t%s\n", s.TopExpenseCategory)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(r.Monthly) > 0 {
		fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "Mes\tIngresos\tGastos\tNeto\tMovimientos\t")
		for _, m := range r.Monthly {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t\n", m.Label, euro(m.Income), euro(m.Expenses), euro(m.Net), m.TransactionCount)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(r.Categories) > 0 {
		fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Categoría\tTotal\t%\tMedia/mes\tMovimientos")
		for _, c := range r.Categories {
			fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%s\t%d\n", c.Label, euro(c.Total), c.Percentage, euro(c.AvgPerMonth), c.Count)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(r.Recurring) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Cargos recurrentes")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, c := range r.Recurring {
			fmt.Fprintf(w, "  %s\t%s\t%d cargos\túltimo %s\n", c.Name, euro(c.Amount), c.Occurrences, c.LastCharge.Format("02/01/2006"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func newTransactionsCommand(opts *rootOptions) *cobra.Command {
	var (
		category string
		search   string
		from     string
		to       string
		kind     string
		limit    int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List ledger transactions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			crit := analytics.Criteria{
				Category: model.Category(category),
				Search:   search,
			}
			if crit.Category != "" && !crit.Category.Valid() {
				return fmt.Errorf("unknown category %q", category)
			}
			var err error
			if crit.Kind, err = analytics.ParseKind(kind); err != nil {
				return err
			}
			if crit.From, err = parseDateFlag("from", from); err != nil {
				return err
			}
			if crit.To, err = parseDateFlag("to", to); err != nil {
				return err
			}

			p, _, err := openProject(commandContext(cmd), opts)
			if err != nil {
				return err
			}
			defer p.Close()

			txns := analytics.Recent(analytics.Filter(p.svc.Transactions(), crit), limit)
			if asJSON {
				if txns == nil {
					txns = []model.Transaction{}
				}
				return writeJSON(cmd.OutOrStdout(), txns)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Fecha\tConcepto\tImporte\tCategoría\tOrigen")
			for _, t := range txns {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					t.Date.Format("02/01/2006"), t.Concept, normalize.FormatAmountA(t.Amount), t.Category.Label(), t.Source)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text in the concept")
	cmd.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date, YYYY-MM-DD")
	cmd.Flags().StringVar(&kind, "type", "all", "expenses, income or all")
	cmd.Flags().IntVar(&limit, "limit", analytics.DefaultRecentLimit, "maximum rows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func parseDateFlag(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return t, nil
}

func euro(f float64) string {
	return normalize.FormatEuro(decimal.NewFromFloat(f))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/luca-finance/luca/internal/normalize"
)

func newCategorizeCommand(opts *rootOptions) *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "categorize <description>",
		Short: "Show the category a movement would get",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmountFlag(amount)
			if err != nil {
				return err
			}

			p, _, err := openProject(commandContext(cmd), opts)
			if err != nil {
				return err
			}
			defer p.Close()

			c := p.categorizer.Categorize(strings.TrimSpace(args[0]), amt)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", c.Label(), c)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "-1", "signed amount, e.g. -45.30 or -45,30")

	return cmd
}

// parseAmountFlag accepts plain decimals and the CaixaBank "-1.234,56" form.
func parseAmountFlag(s string) (decimal.Decimal, error) {
	if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
		return d, nil
	}
	if d, ok := normalize.ParseAmountA(s); ok {
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("invalid amount %q", s)
}

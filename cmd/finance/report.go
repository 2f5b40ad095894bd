package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dvloznov/finance-categorizer/internal/analytics"
	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func newReportCommand(o *rootOptions) *cobra.Command {
	var (
		from, to         string
		includeTransfers bool
		top              int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize income and spending for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate(from)
			if err != nil {
				return err
			}
			end, err := parseDate(to)
			if err != nil {
				return err
			}
			if !start.IsZero() && !end.IsZero() && end.Before(start) {
				return fmt.Errorf("--to %s is before --from %s", to, from)
			}

			return o.run(cmd, func(ctx context.Context, a *app) error {
				all := a.vault.Transactions()
				selected := analytics.Filter(all, analytics.FilterOptions{
					Start:            start,
					End:              end,
					ExcludeTransfers: !includeTransfers,
				})
				printReport(cmd.OutOrStdout(), all, selected, start, end, top)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day of the period (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&includeTransfers, "include-transfers", false, "include service movements")
	cmd.Flags().IntVar(&top, "top", 10, "number of categories to list")
	return cmd
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func printAmount(out io.Writer, label string, d decimal.Decimal) {
	c := incomeColor
	if d.IsNegative() {
		c = expenseColor
	}
	fmt.Fprintf(out, "  %-32s ", label)
	c.Fprintf(out, "%14s\n", money(d))
}

func printReport(out io.Writer, all, selected []*domain.Transaction, start, end time.Time, top int) {
	totals := analytics.ComputeTotals(selected)
	headerColor.Fprintln(out, "Totals")
	printAmount(out, "Income", totals.Income)
	printAmount(out, "Expense", totals.Expense.Neg())
	printAmount(out, "Net", totals.Net)

	answers := analytics.QuickAnswers(all, selected, start, end)
	if d := answers.Delta; d != nil {
		fmt.Fprintf(out, "  vs previous period: expense %s, income %s\n", money(d.Expense), money(d.Income))
	}

	headerColor.Fprintln(out, "Groups")
	for _, g := range analytics.BreakdownByGroup(selected) {
		printAmount(out, g.Name, g.Amount)
	}

	headerColor.Fprintln(out, "Top expense categories")
	for _, c := range analytics.BreakdownByLeaf(selected, top, domain.TypeExpense) {
		printAmount(out, c.Name, c.Amount)
	}

	if travel := analytics.TravelBreakdown(selected); len(travel) > 0 {
		headerColor.Fprintln(out, "Travel")
		for _, c := range travel {
			printAmount(out, c.Name, c.Amount)
		}
	}

	if len(answers.TopExpenses) > 0 {
		headerColor.Fprintln(out, "Largest expenses")
		for _, op := range answers.TopExpenses {
			fmt.Fprintf(out, "  %s  %-40s %12s\n", op.Date.Format(dateLayout), op.Title, money(op.Amount))
		}
	}

	headerColor.Fprintln(out, "Monthly")
	for _, p := range analytics.MonthlyTrend(selected) {
		fmt.Fprintf(out, "  %s  ", p.Label)
		incomeColor.Fprintf(out, "+%12s", money(p.Income))
		expenseColor.Fprintf(out, "  -%12s\n", money(p.Expense))
	}

	if unknown := analytics.UnknownTransactions(selected); len(unknown) > 0 {
		warnColor.Fprintf(out, "%d transactions need labelling (%s)\n", len(unknown), taxonomy.Name(taxonomy.Unknown))
	}
}

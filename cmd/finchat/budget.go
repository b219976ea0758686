package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/finchat/internal/domain/finance"
)

func newBudgetCmd(a *app) *cobra.Command {
	var (
		income   float64
		userType string
		entries  []string
		plain    bool
	)
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Analyse a monthly budget",
		Example: `  finchat budget --income 900000 --type Professional
  finchat budget --expense Rent=12000 --expense Groceries=3500 --income 480000`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			expenses := finance.DefaultExpenses()
			if len(entries) > 0 {
				parsed, err := parseExpenses(entries)
				if err != nil {
					return usageError{err}
				}
				expenses = parsed
			}
			analysis, err := finance.Analyze(expenses, finance.ParseUserType(userType), income)
			if err != nil {
				return usageError{err}
			}
			return renderAnalysis(a.out, analysis, plain)
		},
	}
	cmd.Flags().Float64Var(&income, "income", 0, "annual income in INR")
	cmd.Flags().StringVar(&userType, "type", "", "profile: Student, Professional or Other")
	cmd.Flags().StringArrayVar(&entries, "expense", nil, "monthly expense as Category=Amount; repeat for each category (default: sample budget)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print raw markdown instead of rendering it")
	return cmd
}

// parseExpenses reads Category=Amount pairs in the order given.
func parseExpenses(entries []string) (finance.Expenses, error) {
	out := make(finance.Expenses, 0, len(entries))
	for _, entry := range entries {
		category, amount, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not Category=Amount", finance.ErrInvalidExpense, entry)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", finance.ErrInvalidExpense, entry, err)
		}
		out = append(out, finance.Expense{Category: strings.TrimSpace(category), Amount: v})
	}
	return out, out.Validate()
}

func renderAnalysis(w io.Writer, an finance.Analysis, plain bool) error {
	summary := an.Summary
	if !plain {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return fmt.Errorf("markdown renderer: %w", err)
		}
		if summary, err = r.Render(an.Summary); err != nil {
			return fmt.Errorf("render summary: %w", err)
		}
	}
	fmt.Fprintln(w, summary) //nolint:errcheck

	heading := pterm.NewStyle(pterm.FgLightCyan, pterm.Bold)
	for _, section := range []struct {
		title string
		items []string
	}{
		{"Insights", an.Insights},
		{"Suggestions", an.Suggestions},
	} {
		fmt.Fprintln(w, heading.Sprint(section.title)) //nolint:errcheck
		list, err := bulletList(section.items)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, list) //nolint:errcheck
	}

	fmt.Fprintf(w, "%s %s (monthly surplus %s)\n", //nolint:errcheck
		heading.Sprint("Estimated annual tax:"),
		finance.FormatINR(an.Tax.TotalTax),
		finance.FormatINR(an.MonthlySurplus))
	return nil
}

func bulletList(items []string) (string, error) {
	bullets := make([]pterm.BulletListItem, 0, len(items))
	for _, s := range items {
		bullets = append(bullets, pterm.BulletListItem{Level: 0, Text: s})
	}
	out, err := pterm.DefaultBulletList.WithItems(bullets).Srender()
	if err != nil {
		return "", fmt.Errorf("render list: %w", err)
	}
	return out, nil
}

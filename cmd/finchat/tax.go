package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/finchat/internal/domain/finance"
)

func newTaxCmd(a *app) *cobra.Command {
	var income, deductions float64
	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Estimate annual income tax (illustrative slabs, not tax advice)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if income < 0 || deductions < 0 {
				return usageError{fmt.Errorf("%w: income and deductions must not be negative", finance.ErrInvalidIncome)}
			}
			est := finance.EstimateTax(income, deductions)
			table, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
				{"Item", "Amount"},
				{"Taxable income", finance.FormatINR(est.TaxableIncome)},
				{"Tax before cess", finance.FormatINR(est.TaxBeforeCess)},
				{"Cess (4%)", finance.FormatINR(est.Cess)},
				{"Total tax", finance.FormatINR(est.TotalTax)},
			}).Srender()
			if err != nil {
				return fmt.Errorf("render table: %w", err)
			}
			fmt.Fprintln(a.out, table) //nolint:errcheck
			return nil
		},
	}
	cmd.Flags().Float64Var(&income, "income", 0, "annual income in INR")
	cmd.Flags().Float64Var(&deductions, "deductions", 0, "deductions subtracted before the slabs")
	cmd.MarkFlagRequired("income") //nolint:errcheck
	return cmd
}

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/finchat/internal/domain/finance"
	"github.com/matiasleandrokruk/finchat/internal/infra/llm"
)

func newAskCmd(a *app) *cobra.Command {
	var (
		passage  string
		userType string
		income   float64
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single finance question",
		Example: `  finchat ask "What is a SIP?"
  finchat ask --type Student --income 600000 "How much should I save?"`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.logger.Sync() //nolint:errcheck

			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return usageError{errors.New("question is empty")}
			}
			q := llm.Query{Text: question, Context: passage}
			if q.Context == "" && (userType != "" || income > 0) {
				q.Context = finance.ProfileContext(finance.ParseUserType(userType), income)
			}

			resp := a.orchestrator(cmd.Context()).Ask(cmd.Context(), q)
			fmt.Fprintln(a.out, resp.Text)                                         //nolint:errcheck
			fmt.Fprintln(a.out, pterm.FgGray.Sprintf("[source: %s]", resp.Source)) //nolint:errcheck
			return nil
		},
	}
	cmd.Flags().StringVar(&passage, "context", "", "background passage for the answer backends")
	cmd.Flags().StringVar(&userType, "type", "", "profile: Student, Professional or Other")
	cmd.Flags().Float64Var(&income, "income", 0, "annual income in INR")
	return cmd
}

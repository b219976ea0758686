// Package mcpserver exposes the assistant as Model Context Protocol tools so
// editors and agent hosts can ask finance questions over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/matiasleandrokruk/finchat/internal/domain/chat"
	"github.com/matiasleandrokruk/finchat/internal/domain/finance"
	"github.com/matiasleandrokruk/finchat/internal/infra/llm"
	"github.com/matiasleandrokruk/finchat/internal/version"
)

const (
	ToolAsk           = "ask"
	ToolAnalyzeBudget = "analyze_budget"
	ToolEstimateTax   = "estimate_tax"
)

var errEmptyQuery = errors.New("query is required")

// AskInput is the argument object of the ask tool.
type AskInput struct {
	Query   string `json:"query" jsonschema:"the finance question to answer"`
	Context string `json:"context,omitempty" jsonschema:"optional background passage, such as the user's profile"`
}

// AnalyzeBudgetInput is the argument object of the analyze_budget tool.
// Expenses is a list so category order survives; omitted means the default budget.
type AnalyzeBudgetInput struct {
	Expenses     []finance.Expense `json:"expenses,omitempty" jsonschema:"monthly spending per category in INR"`
	AnnualIncome float64           `json:"annualIncome" jsonschema:"annual income in INR"`
	UserType     string            `json:"userType,omitempty" jsonschema:"Student, Professional or Other"`
}

// EstimateTaxInput is the argument object of the estimate_tax tool.
type EstimateTaxInput struct {
	AnnualIncome float64 `json:"annualIncome" jsonschema:"annual income in INR"`
	Deductions   float64 `json:"deductions,omitempty" jsonschema:"deductions subtracted before the slabs"`
}

type tools struct {
	answerer chat.Answerer
	logger   *zap.Logger
}

// New builds an MCP server with the assistant's tools registered.
func New(answerer chat.Answerer, logger *zap.Logger) *mcp.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &tools{answerer: answerer, logger: logger.With(zap.String("component", "mcp"))}

	server := mcp.NewServer(&mcp.Implementation{Name: "finchat", Version: version.Version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolAsk,
		Description: "Answer a personal-finance question. Always returns an answer and the backend that produced it.",
	}, t.ask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolAnalyzeBudget,
		Description: "Summarise a monthly budget with spending insights, investment suggestions and an annual tax estimate.",
	}, t.analyzeBudget)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolEstimateTax,
		Description: "Estimate annual income tax with progressive slabs and a 4% cess. Illustrative only.",
	}, t.estimateTax)
	return server
}

// Serve runs the tool server over stdin/stdout until ctx is done or the peer disconnects.
func Serve(ctx context.Context, answerer chat.Answerer, logger *zap.Logger) error {
	if err := New(answerer, logger).Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (t *tools) ask(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, llm.Response, error) {
	q := strings.TrimSpace(in.Query)
	if q == "" {
		return nil, llm.Response{}, errEmptyQuery
	}
	resp := t.answerer.Ask(ctx, llm.Query{Text: q, Context: strings.TrimSpace(in.Context)})
	t.logger.Debug("tool answered", zap.String("tool", ToolAsk), zap.String("source", string(resp.Source)))
	return nil, resp, nil
}

func (t *tools) analyzeBudget(_ context.Context, _ *mcp.CallToolRequest, in AnalyzeBudgetInput) (*mcp.CallToolResult, finance.Analysis, error) {
	expenses := finance.Expenses(in.Expenses)
	if len(expenses) == 0 {
		expenses = finance.DefaultExpenses()
	}
	analysis, err := finance.Analyze(expenses, finance.ParseUserType(in.UserType), in.AnnualIncome)
	if err != nil {
		return nil, finance.Analysis{}, err
	}
	return nil, analysis, nil
}

func (t *tools) estimateTax(_ context.Context, _ *mcp.CallToolRequest, in EstimateTaxInput) (*mcp.CallToolResult, finance.TaxEstimate, error) {
	if in.AnnualIncome < 0 || in.Deductions < 0 {
		return nil, finance.TaxEstimate{}, fmt.Errorf("%w: income and deductions must not be negative", finance.ErrInvalidIncome)
	}
	return nil, finance.EstimateTax(in.AnnualIncome, in.Deductions), nil
}

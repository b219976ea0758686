package finance

import (
	"fmt"
	"math"
	"strings"
)

// UserType is the profile a user picks at registration.
type UserType string

const (
	UserStudent      UserType = "Student"
	UserProfessional UserType = "Professional"
	UserOther        UserType = "Other"
)

// ParseUserType matches case-insensitively; anything unknown is UserOther.
func ParseUserType(s string) UserType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return UserStudent
	case "professional":
		return UserProfessional
	default:
		return UserOther
	}
}

// Insight thresholds, as shares of total monthly spending.
const (
	entertainmentHigh = 0.12
	groceriesLow      = 0.12
	rentHigh          = 0.40
	investmentsLow    = 0.10
)

// SavingsTip closes every insight list.
const SavingsTip = "Tip: Automate at least 20% of savings to a separate account each month for consistency."

// Summarize renders the budget as markdown and returns the monthly total.
func Summarize(e Expenses) (string, float64) {
	total := e.Total()
	var b strings.Builder
	fmt.Fprintf(&b, "💰 Total monthly spending: **%s**\n\nBreakdown:\n", FormatINR(total))
	for i, x := range e {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %s", x.Category, FormatINR(x.Amount))
	}
	return b.String(), total
}

// Insights flags unbalanced categories. The list always ends with SavingsTip.
func Insights(e Expenses) []string {
	total := e.Total()
	if total == 0 {
		total = 1
	}
	share := func(category string) float64 { return e.Get(category) / total }

	var out []string
	if share("Entertainment") > entertainmentHigh {
		out = append(out, "⚠️ Entertainment spending is relatively high (>12% of total). Consider cutting subscriptions or nights out.")
	}
	if share("Groceries") < groceriesLow {
		out = append(out, "🍎 Groceries low relative to spending — ensure you're not under-eating or missing essentials.")
	}
	if share("Rent") > rentHigh {
		out = append(out, "🏠 Rent is >40% of spending – if possible look for alternatives or negotiate rent.")
	}
	if share("Investments") < investmentsLow {
		out = append(out, "📈 Investments are less than 10% of spending — consider increasing to build long-term wealth.")
	}
	if len(out) == 0 {
		out = append(out, "✅ Your spending looks fairly balanced for a default profile. Keep tracking it!")
	}
	return append(out, SavingsTip)
}

// TaxEstimate is the result of EstimateTax.
type TaxEstimate struct {
	TaxableIncome float64 `json:"taxable_income"`
	TaxBeforeCess float64 `json:"tax_before_cess"`
	Cess          float64 `json:"cess_4pct"`
	TotalTax      float64 `json:"total_tax"`
}

// CessRate is applied on top of the slab tax.
const CessRate = 0.04

type slab struct {
	width float64
	rate  float64
}

// Slab widths in INR, applied in order. Illustrative, not real tax advice.
// Bands are widths, not upper bounds: 250k-500k is taxed at 5% on purpose.
var slabs = []slab{
	{250_000, 0},
	{250_000, 0.05},
	{500_000, 0.20},
	{math.Inf(1), 0.30},
}

// EstimateTax applies the progressive slabs to income minus deductions, then cess.
func EstimateTax(annualIncome, deductions float64) TaxEstimate {
	taxable := math.Max(0, annualIncome-deductions)
	remaining, tax := taxable, 0.0
	for _, s := range slabs {
		if remaining <= 0 {
			break
		}
		amount := math.Min(remaining, s.width)
		tax += amount * s.rate
		remaining -= amount
	}
	cess := tax * CessRate
	return TaxEstimate{
		TaxableIncome: taxable,
		TaxBeforeCess: tax,
		Cess:          cess,
		TotalTax:      tax + cess,
	}
}

// MonthlySurplus is monthly income left after spending, never negative.
func MonthlySurplus(annualIncome, monthlySpending float64) float64 {
	return math.Max(0, annualIncome/12-monthlySpending)
}

// Suggestions recommends instruments for the profile and monthly surplus.
func Suggestions(userType UserType, monthlySurplus float64) []string {
	if monthlySurplus <= 0 {
		return []string{"You have no surplus—prioritize creating a small emergency buffer first (₹1000+)."}
	}

	var out []string
	if userType == UserStudent {
		out = append(out, "1) Start a small SIP in an ETF/Index fund — low cost, long term.")
		if monthlySurplus >= 50 {
			out = append(out, "2) Consider a recurring deposit or a small emergency fund for 3 months of expenses.")
		}
	} else {
		out = append(out, "1) Maximize tax-advantaged accounts (e.g., 80C/401k/retirement) up to limits.")
		if monthlySurplus >= 200 {
			out = append(out, "2) Allocate: 40% equities (ETFs), 30% debt (bond funds/FDs), 20% tax-saving, 10% cash buffer.")
		} else {
			out = append(out, "2) If surplus is small, prioritize emergency fund (3-6 months), then start SIP.")
		}
	}
	return append(out, "Estimated annual investable amount: "+FormatINR(monthlySurplus*12))
}

// ProfileContext describes the user to the answer backends.
func ProfileContext(userType UserType, annualIncome float64) string {
	return fmt.Sprintf("User is a %s. Annual income ~ %s.", userType, FormatINR(annualIncome))
}

// SavingsPrompt is the "how much should I save each month?" quick question.
func SavingsPrompt(userType UserType, annualIncome float64) string {
	return fmt.Sprintf("Given annual income %s, what percent should I save monthly? I'm a %s.",
		FormatINR(annualIncome), userType)
}

// Analysis is the full budget report.
type Analysis struct {
	Summary        string      `json:"summary"`
	Total          float64     `json:"total"`
	MonthlySurplus float64     `json:"monthly_surplus"`
	Insights       []string    `json:"insights"`
	Suggestions    []string    `json:"suggestions"`
	Tax            TaxEstimate `json:"tax"`
}

// Analyze validates the budget and builds the report for a profile.
func Analyze(e Expenses, userType UserType, annualIncome float64) (Analysis, error) {
	if err := e.Validate(); err != nil {
		return Analysis{}, err
	}
	if annualIncome < 0 || math.IsNaN(annualIncome) || math.IsInf(annualIncome, 0) {
		return Analysis{}, fmt.Errorf("%w: %v", ErrInvalidIncome, annualIncome)
	}
	summary, total := Summarize(e)
	surplus := MonthlySurplus(annualIncome, total)
	return Analysis{
		Summary:        summary,
		Total:          total,
		MonthlySurplus: surplus,
		Insights:       Insights(e),
		Suggestions:    Suggestions(userType, surplus),
		Tax:            EstimateTax(annualIncome, 0),
	}, nil
}

// Package finance holds the budget, tax and savings helpers behind the chat
// assistant. All amounts are INR.
package finance

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrInvalidExpense is returned for a blank category or a negative or non-finite amount.
var ErrInvalidExpense = errors.New("invalid expense")

// ErrInvalidIncome is returned for a negative or non-finite annual income.
var ErrInvalidIncome = errors.New("invalid annual income")

// Expense is one monthly spending category.
type Expense struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Expenses keeps categories in the order they were entered.
// In JSON it is an object of category to amount; key order is preserved.
type Expenses []Expense

// DefaultExpenses is the starting budget offered to a new user.
func DefaultExpenses() Expenses {
	return Expenses{
		{"Rent", 15000},
		{"Groceries", 4000},
		{"Transport", 2000},
		{"Entertainment", 2500},
		{"Subscriptions", 800},
		{"Shopping", 3000},
		{"Investments", 5000},
	}
}

// Validate rejects blank or duplicate categories and negative amounts.
func (e Expenses) Validate() error {
	seen := make(map[string]struct{}, len(e))
	for _, x := range e {
		name := strings.TrimSpace(x.Category)
		if name == "" {
			return fmt.Errorf("%w: empty category", ErrInvalidExpense)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidExpense, name)
		}
		seen[name] = struct{}{}
		if x.Amount < 0 || math.IsNaN(x.Amount) || math.IsInf(x.Amount, 0) {
			return fmt.Errorf("%w: %s amount %v", ErrInvalidExpense, name, x.Amount)
		}
	}
	return nil
}

// Total sums every amount.
func (e Expenses) Total() float64 {
	var total float64
	for _, x := range e {
		total += x.Amount
	}
	return total
}

// Get returns the amount for category, 0 when absent.
func (e Expenses) Get(category string) float64 {
	for _, x := range e {
		if x.Category == category {
			return x.Amount
		}
	}
	return 0
}

// MarshalJSON writes the expenses as an ordered JSON object.
func (e Expenses) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, x := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(x.Category)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(x.Amount)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of category to amount, keeping key order.
func (e *Expenses) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expenses must be an object of category to amount", ErrInvalidExpense)
	}
	out := Expenses{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string) // object keys are always strings
		var amount float64
		if err := dec.Decode(&amount); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidExpense, key, err)
		}
		out = append(out, Expense{Category: key, Amount: amount})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*e = out
	return nil
}

// FormatINR renders an amount with the rupee sign, thousands separators and two decimals.
func FormatINR(amount float64) string {
	p := message.NewPrinter(language.English)
	if amount < 0 {
		return "-₹" + p.Sprintf("%.2f", -amount)
	}
	return "₹" + p.Sprintf("%.2f", amount)
}

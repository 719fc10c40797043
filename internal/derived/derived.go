// Package derived computes the dashboard figures from a view model
// snapshot. Every function is pure and tolerates nil transactions.
package derived

import (
	"math"
	"strings"

	"finboard/internal/core"
	"finboard/internal/state"
)

// Totals are the income/expense figures of a transaction set.
type Totals struct {
	Income   float64 `json:"total_income"`
	Expenses float64 `json:"total_expenses"`
	Net      float64 `json:"net_balance"`
}

// ComputeTotals sums positive amounts as income and the magnitude of
// negative amounts as expenses.
func ComputeTotals(txns []*core.Transaction) Totals {
	var t Totals
	for _, txn := range txns {
		if txn == nil {
			continue
		}
		switch {
		case txn.Amount > 0:
			t.Income += txn.Amount
		case txn.Amount < 0:
			t.Expenses += -txn.Amount
		}
	}
	t.Net = t.Income - t.Expenses
	return t
}

// FilterTransactions keeps the transactions whose description or category
// contains term, ignoring case. An empty term keeps everything. Order is
// preserved and nil entries are dropped.
func FilterTransactions(txns []*core.Transaction, term string) []*core.Transaction {
	needle := strings.ToLower(term)
	out := make([]*core.Transaction, 0, len(txns))
	for _, txn := range txns {
		if txn == nil {
			continue
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(txn.Description), needle) ||
			strings.Contains(strings.ToLower(txn.CategoryName()), needle) {
			out = append(out, txn)
		}
	}
	return out
}

// CategorySpending returns the spending of category, 0 if absent.
func CategorySpending(spending map[string]float64, category string) float64 {
	return spending[category]
}

// Utilization is how much of a budget has been spent.
type Utilization struct {
	Budget core.Budget `json:"budget"`
	Spent  float64     `json:"spent"`
	// Percentage is clamped to [0, 100] for display.
	Percentage float64 `json:"percentage"`
	// OverBudget compares the unclamped figures.
	OverBudget bool    `json:"is_over_budget"`
	Remaining  float64 `json:"remaining"`
}

func BudgetUtilization(b core.Budget, spending map[string]float64) Utilization {
	spent := CategorySpending(spending, b.Category)
	u := Utilization{
		Budget:     b,
		Spent:      spent,
		OverBudget: spent > b.Amount,
		Remaining:  b.Amount - spent,
	}
	if b.Amount > 0 {
		u.Percentage = clamp(spent/b.Amount*100, 0, 100)
	} else if spent > 0 {
		u.Percentage = 100
	}
	return u
}

// Progress of a goal. Ratio keeps over-funding, Bar is clamped.
type Progress struct {
	Goal  core.Goal `json:"goal"`
	Ratio float64   `json:"ratio"`
	// Bar is the progress-bar width in [0, 100].
	Bar float64 `json:"bar"`
	// Label is the percentage shown as text, which may exceed 100.
	Label float64 `json:"label"`
}

func GoalProgress(g core.Goal) Progress {
	p := Progress{Goal: g}
	if g.TargetAmount > 0 {
		p.Ratio = g.CurrentSaved / g.TargetAmount
	}
	p.Label = p.Ratio * 100
	p.Bar = clamp(p.Label, 0, 100)
	return p
}

// TopSpendingCategory returns the category with the highest spending.
// Ties go to the alphabetically first name.
func TopSpendingCategory(spending map[string]float64) (core.CategorySpend, bool) {
	list := core.SpendingFromMap(spending)
	if len(list) == 0 {
		return core.CategorySpend{}, false
	}
	return list[0], true
}

// LargestTransaction returns the transaction with the largest magnitude.
// The first one wins ties.
func LargestTransaction(txns []*core.Transaction) (*core.Transaction, bool) {
	var best *core.Transaction
	for _, txn := range txns {
		if txn == nil {
			continue
		}
		if best == nil || math.Abs(txn.Amount) > math.Abs(best.Amount) {
			best = txn
		}
	}
	return best, best != nil
}

// AverageTransactionMagnitude is the mean absolute amount, 0 when empty.
func AverageTransactionMagnitude(txns []*core.Transaction) float64 {
	var sum float64
	var n int
	for _, txn := range txns {
		if txn == nil {
			continue
		}
		sum += math.Abs(txn.Amount)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// StatementTransactionTotal sums transaction_count over statements, the
// figure shown next to the statement filter.
func StatementTransactionTotal(statements []core.Statement) int {
	total := 0
	for _, s := range statements {
		total += s.TransactionCount
	}
	return total
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// Dashboard is everything the overview renders, derived in one pass.
type Dashboard struct {
	Totals            Totals               `json:"totals"`
	Visible           []*core.Transaction  `json:"visible"`
	Spending          []core.CategorySpend `json:"spending"`
	Budgets           []Utilization        `json:"budgets"`
	Goals             []Progress           `json:"goals"`
	TopCategory       *core.CategorySpend  `json:"top_category,omitempty"`
	Largest           *core.Transaction    `json:"largest,omitempty"`
	AverageMagnitude  float64              `json:"average_magnitude"`
	StatementTxnTotal int                  `json:"statement_transaction_total"`
}

// Build derives the dashboard of vm with search applied to the
// transaction list. Totals cover every cached transaction.
func Build(vm state.ViewModel, search string) Dashboard {
	d := Dashboard{
		Totals:            ComputeTotals(vm.Transactions),
		Visible:           FilterTransactions(vm.Transactions, search),
		Spending:          core.SpendingFromMap(vm.Spending),
		Budgets:           make([]Utilization, 0, len(vm.Budgets)),
		Goals:             make([]Progress, 0, len(vm.Goals)),
		AverageMagnitude:  AverageTransactionMagnitude(vm.Transactions),
		StatementTxnTotal: StatementTransactionTotal(vm.Statements),
	}
	for _, b := range vm.Budgets {
		d.Budgets = append(d.Budgets, BudgetUtilization(b, vm.Spending))
	}
	for _, g := range vm.Goals {
		d.Goals = append(d.Goals, GoalProgress(g))
	}
	if top, ok := TopSpendingCategory(vm.Spending); ok {
		d.TopCategory = &top
	}
	if largest, ok := LargestTransaction(vm.Transactions); ok {
		d.Largest = largest
	}
	return d
}

// VisibleIDs returns the ids of d.Visible, the scope of select-all and
// bulk delete.
func (d Dashboard) VisibleIDs() []int64 {
	ids := make([]int64, 0, len(d.Visible))
	for _, t := range d.Visible {
		ids = append(ids, t.ID)
	}
	return ids
}

package state

import "finboard/internal/core"

// Collection names one independently fetched slice of the view model.
type Collection string

const (
	Transactions   Collection = "transactions"
	Spending       Collection = "spending"
	Forecast       Collection = "forecast"
	Budgets        Collection = "budgets"
	Summary        Collection = "summary"
	Subscriptions  Collection = "subscriptions"
	IncomePatterns Collection = "income_patterns"
	Savings        Collection = "savings_projection"
	BillReminders  Collection = "bill_reminders"
	Statements     Collection = "statements"
	Goals          Collection = "goals"
	Emergency      Collection = "emergency"
	Personality    Collection = "personality"
)

// ViewModel is the client's cached copy of everything the service owns.
// Slices and maps in a ViewModel are replaced wholesale, never edited in
// place, so a shallow copy is a consistent snapshot.
type ViewModel struct {
	Transactions   []*core.Transaction       `json:"transactions"`
	Spending       map[string]float64        `json:"spending"`
	Forecast       []core.ForecastPoint      `json:"forecast"`
	Budgets        []core.Budget             `json:"budgets"`
	Summary        *core.AnalyticsSummary    `json:"summary"`
	Subscriptions  []core.Subscription       `json:"subscriptions"`
	IncomePatterns []core.IncomePattern      `json:"income_patterns"`
	Savings        []core.SavingsPoint       `json:"savings_projection"`
	BillReminders  []core.BillReminder       `json:"bill_reminders"`
	Statements     []core.Statement          `json:"statements"`
	Goals          []core.Goal               `json:"goals"`
	Emergency      core.Emergency            `json:"emergency"`
	Personality    *core.SpendingPersonality `json:"personality"`
}

// Empty reports whether every collection is unset.
func (vm ViewModel) Empty() bool {
	return len(vm.Transactions) == 0 &&
		len(vm.Spending) == 0 &&
		len(vm.Forecast) == 0 &&
		len(vm.Budgets) == 0 &&
		vm.Summary == nil &&
		len(vm.Subscriptions) == 0 &&
		len(vm.IncomePatterns) == 0 &&
		len(vm.Savings) == 0 &&
		len(vm.BillReminders) == 0 &&
		len(vm.Statements) == 0 &&
		len(vm.Goals) == 0 &&
		vm.Emergency.Kind == core.EmergencyNone &&
		vm.Personality == nil
}

// TransactionIDs returns the ids of the non-nil cached transactions.
func (vm ViewModel) TransactionIDs() []int64 {
	ids := make([]int64, 0, len(vm.Transactions))
	for _, t := range vm.Transactions {
		if t != nil {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

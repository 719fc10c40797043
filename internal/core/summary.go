package core

import "sort"

// CategorySpend represents an amount spent in one category.
type CategorySpend struct {
	Name   string
	Amount float64
}

// AnalyticsSummary is the server-computed runway snapshot.
type AnalyticsSummary struct {
	BurnRateDaily   float64  `json:"burn_rate_daily"`
	BurnRateMonthly float64  `json:"burn_rate_monthly"`
	DaysUntilBroke  *int     `json:"days_until_broke"`
	HealthScore     int      `json:"health_score"`
	SavingsRate     float64  `json:"savings_rate"`
	TotalIncome     float64  `json:"total_income"`
	TotalExpenses   float64  `json:"total_expenses"`
	CurrentBalance  *float64 `json:"current_balance,omitempty"`
}

type ForecastPoint struct {
	DS        string  `json:"ds"`
	YHat      float64 `json:"yhat"`
	YHatLower float64 `json:"yhat_lower,omitempty"`
	YHatUpper float64 `json:"yhat_upper,omitempty"`
}

type Subscription struct {
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	Frequency   string  `json:"frequency"`
	Occurrences int     `json:"occurrences"`
}

type IncomePattern struct {
	Source      string  `json:"source"`
	AvgAmount   float64 `json:"avg_amount"`
	Frequency   string  `json:"frequency"`
	Occurrences int     `json:"occurrences"`
	Total       float64 `json:"total"`
}

type SavingsPoint struct {
	Month            string  `json:"month"`
	ProjectedBalance float64 `json:"projected_balance"`
	MonthlySavings   float64 `json:"monthly_savings"`
}

// SpendingPersonality is a read-only behavioral label computed by the service.
type SpendingPersonality struct {
	Type                string   `json:"personality_type"`
	Emoji               string   `json:"emoji"`
	Analysis            string   `json:"analysis"`
	Description         string   `json:"description,omitempty"`
	Traits              []string `json:"traits"`
	SavingsRate         float64  `json:"savings_rate"`
	SpendingVariability float64  `json:"spending_variability"`
	Confidence          float64  `json:"confidence"`
}

// Summary returns the free-text analysis, falling back to the description.
func (p SpendingPersonality) Summary() string {
	if p.Analysis != "" {
		return p.Analysis
	}
	return p.Description
}

type GoalMilestone struct {
	Percentage    int     `json:"percentage"`
	Amount        float64 `json:"amount"`
	EstimatedDate string  `json:"estimated_date"`
}

// GoalPlan is the response of goals/{id}/plan.
type GoalPlan struct {
	TargetAmount          float64         `json:"target_amount"`
	CurrentSaved          float64         `json:"current_saved"`
	Remaining             float64         `json:"remaining"`
	Deadline              string          `json:"deadline"`
	MonthsLeft            float64         `json:"months_left"`
	MonthlySavingsNeeded  float64         `json:"monthly_savings_needed"`
	CurrentMonthlySavings float64         `json:"current_monthly_savings"`
	IsAchievable          bool            `json:"is_achievable"`
	Shortfall             float64         `json:"shortfall"`
	RealisticMonths       *float64        `json:"realistic_months"`
	Suggestions           []string        `json:"suggestions"`
	Milestones            []GoalMilestone `json:"milestones"`
	ProgressPercentage    float64         `json:"progress_percentage"`
}

// SpendingFromMap converts the category->amount breakdown into a list
// ordered by amount (desc) and then name.
func SpendingFromMap(m map[string]float64) []CategorySpend {
	out := make([]CategorySpend, 0, len(m))
	for name, amount := range m {
		out = append(out, CategorySpend{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

package core

import (
	"errors"
	"strings"
	"time"
)

const (
	SourceManual    = "manual"
	SourceCSVUpload = "csv_upload"

	dateLayout = "2006-01-02"
)

type (
	// Date is a calendar date serialized as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          int64   `json:"id"`
		Date        Date    `json:"date"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"` // positive = income, negative = expense
		Category    *string `json:"category"`
		Source      string  `json:"source"`
		IsAnomaly   bool    `json:"is_anomaly"`
		IsRecurring bool    `json:"is_recurring"`
	}

	// NewTransaction is the manual-entry payload for POST transactions.
	NewTransaction struct {
		Date        Date    `json:"date"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Category    *string `json:"category"`
		Source      string  `json:"source"`
	}

	// TransactionEdit carries the only mutable fields of a transaction.
	// Date and source are fixed once created.
	TransactionEdit struct {
		ID          int64   `json:"-"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Category    *string `json:"category"`
	}

	Budget struct {
		ID       int64   `json:"id"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}

	// BudgetInput is an upsert. ID is set when editing an existing budget.
	BudgetInput struct {
		ID       *int64  `json:"-"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}

	Goal struct {
		ID           int64   `json:"id"`
		Name         string  `json:"name"`
		TargetAmount float64 `json:"target_amount"`
		CurrentSaved float64 `json:"current_saved"`
		Deadline     string  `json:"deadline"`
		CreatedAt    string  `json:"created_at,omitempty"`
	}

	GoalInput struct {
		Name         string  `json:"name"`
		TargetAmount float64 `json:"target_amount"`
		Deadline     string  `json:"deadline"`
	}

	GoalUpdate struct {
		Name         *string  `json:"name,omitempty"`
		TargetAmount *float64 `json:"target_amount,omitempty"`
		CurrentSaved *float64 `json:"current_saved,omitempty"`
		Deadline     *string  `json:"deadline,omitempty"`
	}

	BillReminder struct {
		ID       int64   `json:"id"`
		Name     string  `json:"name"`
		Amount   float64 `json:"amount"`
		DueDay   int     `json:"due_day"`
		Category *string `json:"category"`
		IsActive bool    `json:"is_active"`
	}

	BillReminderInput struct {
		Name     string  `json:"name"`
		Amount   float64 `json:"amount"`
		DueDay   int     `json:"due_day"`
		Category *string `json:"category"`
	}

	// Statement groups the transactions imported from one uploaded file.
	Statement struct {
		ID               int64  `json:"id"`
		Filename         string `json:"filename"`
		UploadedAt       string `json:"uploaded_at"`
		TransactionCount int    `json:"transaction_count"`
	}

	// Ack is the {"message": ...} body returned by deletes.
	Ack struct {
		Message string `json:"message"`
	}

	UploadResult struct {
		TransactionsCount int    `json:"transactions_count"`
		StatementID       int64  `json:"statement_id"`
		Filename          string `json:"filename"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidDueDay    = errors.New("invalid due day")
	ErrInvalidID        = errors.New("invalid id")
	ErrEmptyDeadline    = errors.New("empty deadline")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts plain dates and full timestamps.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return ErrInvalidDate
	}
	d.Time = t
	return nil
}

// CategoryName returns the category or "" when unset.
func (t Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return *t.Category
}

func (t NewTransaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if t.Amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e TransactionEdit) Validate() error {
	if e.ID <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

func (b BudgetInput) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (g GoalInput) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.TargetAmount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(g.Deadline) == "" {
		return ErrEmptyDeadline
	}
	return nil
}

func (g GoalUpdate) Validate() error {
	if g.Name != nil && strings.TrimSpace(*g.Name) == "" {
		return ErrEmptyName
	}
	if g.TargetAmount != nil && *g.TargetAmount <= 0 {
		return ErrInvalidAmount
	}
	if g.CurrentSaved != nil && *g.CurrentSaved < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r BillReminderInput) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if r.DueDay < 1 || r.DueDay > 31 {
		return ErrInvalidDueDay
	}
	return nil
}

package memory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"finboard/internal/api"
	"finboard/internal/core"
)

// Endpoint names passed to Hook.
const (
	EndpointLogin          = "auth/login"
	EndpointRegister       = "auth/register"
	EndpointMe             = "auth/me"
	EndpointTransactions   = "transactions"
	EndpointCreateTxn      = "transactions.create"
	EndpointUpdateTxn      = "transactions.update"
	EndpointDeleteTxn      = "transactions.delete"
	EndpointBulkDelete     = "transactions/bulk-delete"
	EndpointSpending       = "analytics/spending"
	EndpointForecast       = "analytics/forecast"
	EndpointSummary        = "analytics/summary"
	EndpointSubscriptions  = "analytics/subscriptions"
	EndpointIncomePatterns = "analytics/income-patterns"
	EndpointSavings        = "analytics/savings-projection"
	EndpointEmergencies    = "analytics/emergencies"
	EndpointPersonality    = "analytics/personality"
	EndpointBudgets        = "budgets"
	EndpointSaveBudget     = "budgets.save"
	EndpointDeleteBudget   = "budgets.delete"
	EndpointReminders      = "bill-reminders"
	EndpointCreateReminder = "bill-reminders.create"
	EndpointDeleteReminder = "bill-reminders.delete"
	EndpointStatements     = "statements"
	EndpointDeleteStmt     = "statements.delete"
	EndpointUpload         = "upload"
	EndpointGoals          = "goals"
	EndpointCreateGoal     = "goals.create"
	EndpointUpdateGoal     = "goals.update"
	EndpointDeleteGoal     = "goals.delete"
	EndpointGoalPlan       = "goals.plan"
)

var signingKey = []byte("finboard-memory-backend")

// Backend is an in-process stand-in for the finance service. Hook, when
// set, runs before every call and can fail or block it.
type Backend struct {
	mu sync.Mutex

	Hook func(ctx context.Context, endpoint string) error

	users    map[string]userRecord
	current  *core.User
	tokenTTL time.Duration

	transactions map[int64]core.Transaction
	stmtOf       map[int64]int64 // transaction id -> statement id
	budgets      map[int64]core.Budget
	reminders    map[int64]core.BillReminder
	statements   map[int64]core.Statement
	goals        map[int64]core.Goal

	forecast    []core.ForecastPoint
	summary     *core.AnalyticsSummary
	emergency   core.Emergency
	personality *core.SpendingPersonality

	nextID int64
	calls  map[string]int
}

type userRecord struct {
	user     core.User
	password string
}

var _ api.Backend = (*Backend)(nil)

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		users:        map[string]userRecord{},
		tokenTTL:     24 * time.Hour,
		transactions: map[int64]core.Transaction{},
		stmtOf:       map[int64]int64{},
		budgets:      map[int64]core.Budget{},
		reminders:    map[int64]core.BillReminder{},
		statements:   map[int64]core.Statement{},
		goals:        map[int64]core.Goal{},
		calls:        map[string]int{},
	}
}

// NewDemo returns a backend seeded with a demo account and a month of data.
func NewDemo() *Backend {
	b := New()
	b.AddUser("demo", "demo", "demo@finboard.local")

	stmt := b.AddStatement("demo-march.csv")
	food, rent, salary := "Food", "Housing", "Income"
	b.AddTransaction(core.Transaction{Date: core.NewDate(2026, 3, 1), Description: "Salary", Amount: 4200, Category: &salary, Source: core.SourceCSVUpload}, stmt.ID)
	b.AddTransaction(core.Transaction{Date: core.NewDate(2026, 3, 2), Description: "Rent", Amount: -1500, Category: &rent, Source: core.SourceCSVUpload, IsRecurring: true}, stmt.ID)
	b.AddTransaction(core.Transaction{Date: core.NewDate(2026, 3, 5), Description: "Groceries", Amount: -180.4, Category: &food, Source: core.SourceCSVUpload}, stmt.ID)
	b.AddTransaction(core.Transaction{Date: core.NewDate(2026, 3, 9), Description: "Dinner out", Amount: -95.5, Category: &food, Source: core.SourceManual}, 0)
	b.AddBudget("Food", 250)
	b.AddGoal(core.Goal{Name: "Emergency fund", TargetAmount: 5000, CurrentSaved: 1200, Deadline: "2026-12-31"})
	b.SetForecast([]core.ForecastPoint{{DS: "2026-04-01", YHat: 2400}, {DS: "2026-04-02", YHat: 2380}})
	return b
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

// before records the call and runs the hook outside the lock so a
// blocking hook does not stall other endpoints.
func (b *Backend) before(ctx context.Context, endpoint string) error {
	b.mu.Lock()
	b.calls[endpoint]++
	hook := b.Hook
	b.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, endpoint); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Calls reports how many times endpoint was invoked.
func (b *Backend) Calls(endpoint string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[endpoint]
}

func notFound(what string) error {
	return &api.Error{Status: http.StatusNotFound, Detail: what + " not found"}
}

// Seeding helpers.

func (b *Backend) AddUser(username, password, email string) core.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := core.User{ID: b.id(), Username: username, Email: email}
	b.users[username] = userRecord{user: u, password: password}
	return u
}

// AddTransaction stores t under statement stmtID (0 for none).
func (b *Backend) AddTransaction(t core.Transaction, stmtID int64) core.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	t.ID = b.id()
	b.transactions[t.ID] = t
	if stmtID > 0 {
		b.stmtOf[t.ID] = stmtID
		if s, ok := b.statements[stmtID]; ok {
			s.TransactionCount++
			b.statements[stmtID] = s
		}
	}
	return t
}

func (b *Backend) AddStatement(filename string) core.Statement {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := core.Statement{ID: b.id(), Filename: filename, UploadedAt: time.Now().UTC().Format(time.RFC3339)}
	b.statements[s.ID] = s
	return s
}

func (b *Backend) AddBudget(category string, amount float64) core.Budget {
	b.mu.Lock()
	defer b.mu.Unlock()
	bud := core.Budget{ID: b.id(), Category: category, Amount: amount}
	b.budgets[bud.ID] = bud
	return bud
}

func (b *Backend) AddGoal(g core.Goal) core.Goal {
	b.mu.Lock()
	defer b.mu.Unlock()
	g.ID = b.id()
	b.goals[g.ID] = g
	return g
}

func (b *Backend) SetForecast(points []core.ForecastPoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forecast = slices.Clone(points)
}

func (b *Backend) SetSummary(s *core.AnalyticsSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary = s
}

func (b *Backend) SetEmergency(e core.Emergency) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emergency = e
}

func (b *Backend) SetPersonality(p *core.SpendingPersonality) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.personality = p
}

// Auth

func (b *Backend) Login(ctx context.Context, c core.Credentials) (core.AuthResult, error) {
	if err := b.before(ctx, EndpointLogin); err != nil {
		return core.AuthResult{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.users[c.Username]
	if !ok || rec.password != c.Password {
		return core.AuthResult{}, &api.Error{Status: http.StatusUnauthorized, Detail: "Invalid username or password"}
	}
	return b.issue(rec.user)
}

func (b *Backend) Register(ctx context.Context, r core.Registration) (core.AuthResult, error) {
	if err := b.before(ctx, EndpointRegister); err != nil {
		return core.AuthResult{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.users[r.Username]; taken {
		return core.AuthResult{}, &api.Error{Status: http.StatusBadRequest, Detail: "Username already taken"}
	}
	for _, rec := range b.users {
		if strings.EqualFold(rec.user.Email, r.Email) {
			return core.AuthResult{}, &api.Error{Status: http.StatusBadRequest, Detail: "Email already registered"}
		}
	}
	u := core.User{ID: b.id(), Username: r.Username, Email: r.Email}
	if r.FullName != "" {
		name := r.FullName
		u.FullName = &name
	}
	b.users[r.Username] = userRecord{user: u, password: r.Password}
	return b.issue(u)
}

// issue signs an HS256 token carrying sub and exp, like the real service.
func (b *Backend) issue(u core.User) (core.AuthResult, error) {
	claims := jwt.MapClaims{
		"sub": u.Username,
		"exp": time.Now().Add(b.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		return core.AuthResult{}, fmt.Errorf("sign token: %w", err)
	}
	user := u
	b.current = &user
	return core.AuthResult{AccessToken: token, TokenType: "bearer", User: u}, nil
}

func (b *Backend) Me(ctx context.Context) (core.User, error) {
	if err := b.before(ctx, EndpointMe); err != nil {
		return core.User{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return core.User{}, &api.Error{Status: http.StatusUnauthorized, Detail: "Could not validate credentials"}
	}
	return *b.current, nil
}

// Transactions

func (b *Backend) ListTransactions(ctx context.Context, statementIDs []int64) ([]*core.Transaction, error) {
	if err := b.before(ctx, EndpointTransactions); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*core.Transaction, 0, len(b.transactions))
	for id, t := range b.transactions {
		if len(statementIDs) > 0 && !slices.Contains(statementIDs, b.stmtOf[id]) {
			continue
		}
		out = append(out, &t)
	}
	// Newest first, as the service orders them.
	slices.SortFunc(out, func(x, y *core.Transaction) int {
		if c := y.Date.Compare(x.Date.Time); c != 0 {
			return c
		}
		return int(y.ID - x.ID)
	})
	return out, nil
}

func (b *Backend) CreateTransaction(ctx context.Context, in core.NewTransaction) (core.Transaction, error) {
	if err := b.before(ctx, EndpointCreateTxn); err != nil {
		return core.Transaction{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t := core.Transaction{
		ID:          b.id(),
		Date:        in.Date,
		Description: in.Description,
		Amount:      in.Amount,
		Category:    in.Category,
		Source:      in.Source,
	}
	if t.Source == "" {
		t.Source = core.SourceManual
	}
	b.transactions[t.ID] = t
	return t, nil
}

func (b *Backend) UpdateTransaction(ctx context.Context, e core.TransactionEdit) (core.Transaction, error) {
	if err := b.before(ctx, EndpointUpdateTxn); err != nil {
		return core.Transaction{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.transactions[e.ID]
	if !ok {
		return core.Transaction{}, notFound("Transaction")
	}
	t.Description, t.Amount, t.Category = e.Description, e.Amount, e.Category
	b.transactions[e.ID] = t
	return t, nil
}

func (b *Backend) DeleteTransaction(ctx context.Context, id int64) (core.Ack, error) {
	if err := b.before(ctx, EndpointDeleteTxn); err != nil {
		return core.Ack{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.transactions[id]; !ok {
		return core.Ack{}, notFound("Transaction")
	}
	b.removeTransaction(id)
	return core.Ack{Message: "Transaction deleted"}, nil
}

func (b *Backend) BulkDeleteTransactions(ctx context.Context, ids []int64) (core.Ack, error) {
	if err := b.before(ctx, EndpointBulkDelete); err != nil {
		return core.Ack{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	deleted := 0
	for _, id := range ids {
		if _, ok := b.transactions[id]; ok {
			b.removeTransaction(id)
			deleted++
		}
	}
	return core.Ack{Message: fmt.Sprintf("Deleted %d transactions", deleted)}, nil
}

func (b *Backend) removeTransaction(id int64) {
	delete(b.transactions, id)
	if stmtID, ok := b.stmtOf[id]; ok {
		delete(b.stmtOf, id)
		if s, ok := b.statements[stmtID]; ok && s.TransactionCount > 0 {
			s.TransactionCount--
			b.statements[stmtID] = s
		}
	}
}

// Analytics

func (b *Backend) Spending(ctx context.Context) (map[string]float64, error) {
	if err := b.before(ctx, EndpointSpending); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := map[string]float64{}
	for _, t := range b.transactions {
		if t.Amount < 0 {
			out[t.CategoryName()] += -t.Amount
		}
	}
	for k, v := range out {
		out[k] = core.RoundCents(v)
	}
	return out, nil
}

func (b *Backend) Forecast(ctx context.Context, days int) ([]core.ForecastPoint, error) {
	if err := b.before(ctx, EndpointForecast); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	n := max(0, min(days, len(b.forecast)))
	return slices.Clone(b.forecast[:n]), nil
}

func (b *Backend) Summary(ctx context.Context) (*core.AnalyticsSummary, error) {
	if err := b.before(ctx, EndpointSummary); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.summary != nil {
		s := *b.summary
		return &s, nil
	}
	var s core.AnalyticsSummary
	for _, t := range b.transactions {
		if t.Amount > 0 {
			s.TotalIncome += t.Amount
		} else {
			s.TotalExpenses += -t.Amount
		}
	}
	if s.TotalIncome > 0 {
		s.SavingsRate = core.RoundCents((s.TotalIncome - s.TotalExpenses) / s.TotalIncome * 100)
	}
	s.BurnRateDaily = core.RoundCents(s.TotalExpenses / 30)
	s.BurnRateMonthly = core.RoundCents(s.TotalExpenses)
	s.HealthScore = max(0, min(100, int(s.SavingsRate)+50))
	return &s, nil
}

func (b *Backend) Subscriptions(ctx context.Context) ([]core.Subscription, error) {
	if err := b.before(ctx, EndpointSubscriptions); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []core.Subscription
	for _, t := range b.transactions {
		if t.IsRecurring && t.Amount < 0 {
			out = append(out, core.Subscription{Name: t.Description, Amount: -t.Amount, Frequency: "monthly", Occurrences: 1})
		}
	}
	slices.SortFunc(out, func(x, y core.Subscription) int { return strings.Compare(x.Name, y.Name) })
	return out, nil
}

func (b *Backend) IncomePatterns(ctx context.Context) ([]core.IncomePattern, error) {
	if err := b.before(ctx, EndpointIncomePatterns); err != nil {
		return nil, err
	}
	return []core.IncomePattern{}, nil
}

func (b *Backend) SavingsProjection(ctx context.Context, months int) ([]core.SavingsPoint, error) {
	if err := b.before(ctx, EndpointSavings); err != nil {
		return nil, err
	}
	return []core.SavingsPoint{}, nil
}

func (b *Backend) Emergencies(ctx context.Context) (core.Emergency, error) {
	if err := b.before(ctx, EndpointEmergencies); err != nil {
		return core.Emergency{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.emergency, nil
}

func (b *Backend) Personality(ctx context.Context) (*core.SpendingPersonality, error) {
	if err := b.before(ctx, EndpointPersonality); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.personality == nil {
		return nil, nil
	}
	p := *b.personality
	return &p, nil
}

// Budgets

func (b *Backend) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	if err := b.before(ctx, EndpointBudgets); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return sortedValues(b.budgets, func(x core.Budget) int64 { return x.ID }), nil
}

// SaveBudget upserts on category, matching the service.
func (b *Backend) SaveBudget(ctx context.Context, in core.BudgetInput) (core.Budget, error) {
	if err := b.before(ctx, EndpointSaveBudget); err != nil {
		return core.Budget{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, existing := range b.budgets {
		if existing.Category == in.Category {
			existing.Amount = in.Amount
			b.budgets[id] = existing
			return existing, nil
		}
	}
	bud := core.Budget{ID: b.id(), Category: in.Category, Amount: in.Amount}
	b.budgets[bud.ID] = bud
	return bud, nil
}

func (b *Backend) DeleteBudget(ctx context.Context, id int64) (core.Ack, error) {
	if err := b.before(ctx, EndpointDeleteBudget); err != nil {
		return core.Ack{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.budgets[id]; !ok {
		return core.Ack{}, notFound("Budget")
	}
	delete(b.budgets, id)
	return core.Ack{Message: "Budget deleted"}, nil
}

// Bill reminders

func (b *Backend) ListBillReminders(ctx context.Context) ([]core.BillReminder, error) {
	if err := b.before(ctx, EndpointReminders); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return sortedValues(b.reminders, func(x core.BillReminder) int64 { return x.ID }), nil
}

func (b *Backend) CreateBillReminder(ctx context.Context, in core.BillReminderInput) (core.BillReminder, error) {
	if err := b.before(ctx, EndpointCreateReminder); err != nil {
		return core.BillReminder{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	r := core.BillReminder{ID: b.id(), Name: in.Name, Amount: in.Amount, DueDay: in.DueDay, Category: in.Category, IsActive: true}
	b.reminders[r.ID] = r
	return r, nil
}

func (b *Backend) DeleteBillReminder(ctx context.Context, id int64) (core.Ack, error) {
	if err := b.before(ctx, EndpointDeleteReminder); err != nil {
		return core.Ack{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.reminders[id]; !ok {
		return core.Ack{}, notFound("Bill reminder")
	}
	delete(b.reminders, id)
	return core.Ack{Message: "Bill reminder deleted"}, nil
}

// Statements

func (b *Backend) ListStatements(ctx context.Context) ([]core.Statement, error) {
	if err := b.before(ctx, EndpointStatements); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return sortedValues(b.statements, func(x core.Statement) int64 { return x.ID }), nil
}

func (b *Backend) DeleteStatement(ctx context.Context, id int64) (core.Ack, error) {
	if err := b.before(ctx, EndpointDeleteStmt); err != nil {
		return core.Ack{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.statements[id]
	if !ok {
		return core.Ack{}, notFound("Statement")
	}
	deleted := 0
	for txnID, stmtID := range b.stmtOf {
		if stmtID == id {
			delete(b.transactions, txnID)
			delete(b.stmtOf, txnID)
			deleted++
		}
	}
	delete(b.statements, id)
	return core.Ack{Message: fmt.Sprintf("Deleted statement '%s' and %d transactions", s.Filename, deleted)}, nil
}

// UploadStatement imports a date,description,amount[,category] CSV body.
func (b *Backend) UploadStatement(ctx context.Context, filename string, r io.Reader) (core.UploadResult, error) {
	if err := b.before(ctx, EndpointUpload); err != nil {
		return core.UploadResult{}, err
	}
	rows, err := parseCSV(r)
	if err != nil {
		return core.UploadResult{}, &api.Error{Status: http.StatusInternalServerError, Detail: "Error processing file: " + err.Error()}
	}
	stmt := b.AddStatement(filename)
	for _, t := range rows {
		t.Source = core.SourceCSVUpload
		b.AddTransaction(t, stmt.ID)
	}
	return core.UploadResult{TransactionsCount: len(rows), StatementID: stmt.ID, Filename: filename}, nil
}

// Goals

func (b *Backend) ListGoals(ctx context.Context) ([]core.Goal, error) {
	if err := b.before(ctx, EndpointGoals); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return sortedValues(b.goals, func(x core.Goal) int64 { return x.ID }), nil
}

func (b *Backend) CreateGoal(ctx context.Context, in core.GoalInput) (core.Goal, error) {
	if err := b.before(ctx, EndpointCreateGoal); err != nil {
		return core.Goal{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	g := core.Goal{ID: b.id(), Name: in.Name, TargetAmount: in.TargetAmount, Deadline: in.Deadline, CreatedAt: time.Now().UTC().Format(time.RFC3339)}
	b.goals[g.ID] = g
	return g, nil
}

func (b *Backend) UpdateGoal(ctx context.Context, id int64, u core.GoalUpdate) (core.Goal, error) {
	if err := b.before(ctx, EndpointUpdateGoal); err != nil {
		return core.Goal{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.goals[id]
	if !ok {
		return core.Goal{}, notFound("Goal")
	}
	if u.Name != nil {
		g.Name = *u.Name
	}
	if u.TargetAmount != nil {
		g.TargetAmount = *u.TargetAmount
	}
	if u.CurrentSaved != nil {
		g.CurrentSaved = *u.CurrentSaved
	}
	if u.Deadline != nil {
		g.Deadline = *u.Deadline
	}
	b.goals[id] = g
	return g, nil
}

func (b *Backend) DeleteGoal(ctx context.Context, id int64) (core.Ack, error) {
	if err := b.before(ctx, EndpointDeleteGoal); err != nil {
		return core.Ack{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.goals[id]; !ok {
		return core.Ack{}, notFound("Goal")
	}
	delete(b.goals, id)
	return core.Ack{Message: "Goal deleted"}, nil
}

// GoalPlan returns a straight-line plan toward the deadline.
func (b *Backend) GoalPlan(ctx context.Context, id int64) (core.GoalPlan, error) {
	if err := b.before(ctx, EndpointGoalPlan); err != nil {
		return core.GoalPlan{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.goals[id]
	if !ok {
		return core.GoalPlan{}, notFound("Goal")
	}

	remaining := max(0, g.TargetAmount-g.CurrentSaved)
	months := 1.0
	if deadline, err := core.ParseDate(g.Deadline); err == nil {
		months = max(1, deadline.Sub(time.Now()).Hours()/(24*30))
	}
	plan := core.GoalPlan{
		TargetAmount:         g.TargetAmount,
		CurrentSaved:         g.CurrentSaved,
		Remaining:            core.RoundCents(remaining),
		Deadline:             g.Deadline,
		MonthsLeft:           core.RoundCents(months),
		MonthlySavingsNeeded: core.RoundCents(remaining / months),
		IsAchievable:         true,
		Suggestions:          []string{},
	}
	if g.TargetAmount > 0 {
		plan.ProgressPercentage = core.RoundCents(g.CurrentSaved / g.TargetAmount * 100)
	}
	return plan, nil
}

func sortedValues[T any](m map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(x, y T) int {
		a, b := id(x), id(y)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	return out
}

package api

import (
	"context"
	"io"

	"finboard/internal/core"
)

// Ports for the remote finance service.
type (
	Authenticator interface {
		Login(ctx context.Context, c core.Credentials) (core.AuthResult, error)
		Register(ctx context.Context, r core.Registration) (core.AuthResult, error)
		Me(ctx context.Context) (core.User, error)
	}

	TransactionStore interface {
		// ListTransactions returns transactions scoped to the given statements.
		// An empty statementIDs means no filter.
		ListTransactions(ctx context.Context, statementIDs []int64) ([]*core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.NewTransaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, e core.TransactionEdit) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) (core.Ack, error)
		BulkDeleteTransactions(ctx context.Context, ids []int64) (core.Ack, error)
	}

	AnalyticsReader interface {
		Spending(ctx context.Context) (map[string]float64, error)
		Forecast(ctx context.Context, days int) ([]core.ForecastPoint, error)
		Summary(ctx context.Context) (*core.AnalyticsSummary, error)
		Subscriptions(ctx context.Context) ([]core.Subscription, error)
		IncomePatterns(ctx context.Context) ([]core.IncomePattern, error)
		SavingsProjection(ctx context.Context, months int) ([]core.SavingsPoint, error)
		Emergencies(ctx context.Context) (core.Emergency, error)
		Personality(ctx context.Context) (*core.SpendingPersonality, error)
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		// SaveBudget upserts by category on the server side.
		SaveBudget(ctx context.Context, b core.BudgetInput) (core.Budget, error)
		DeleteBudget(ctx context.Context, id int64) (core.Ack, error)
	}

	ReminderStore interface {
		ListBillReminders(ctx context.Context) ([]core.BillReminder, error)
		CreateBillReminder(ctx context.Context, r core.BillReminderInput) (core.BillReminder, error)
		DeleteBillReminder(ctx context.Context, id int64) (core.Ack, error)
	}

	StatementStore interface {
		ListStatements(ctx context.Context) ([]core.Statement, error)
		DeleteStatement(ctx context.Context, id int64) (core.Ack, error)
		UploadStatement(ctx context.Context, filename string, r io.Reader) (core.UploadResult, error)
	}

	GoalStore interface {
		ListGoals(ctx context.Context) ([]core.Goal, error)
		CreateGoal(ctx context.Context, g core.GoalInput) (core.Goal, error)
		UpdateGoal(ctx context.Context, id int64, u core.GoalUpdate) (core.Goal, error)
		DeleteGoal(ctx context.Context, id int64) (core.Ack, error)
		GoalPlan(ctx context.Context, id int64) (core.GoalPlan, error)
	}

	// Backend is the full surface of the finance service.
	Backend interface {
		Authenticator
		TransactionStore
		AnalyticsReader
		BudgetStore
		ReminderStore
		StatementStore
		GoalStore
	}

	// TokenSource yields the current bearer token, empty when anonymous.
	TokenSource interface {
		Token() string
	}
)

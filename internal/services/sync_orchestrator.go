package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"finboard/internal/api"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/state"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// SyncConfig holds the query windows of the analytics fetches.
type SyncConfig struct {
	// ForecastDays is the horizon of analytics/forecast (default: 30)
	ForecastDays int

	// SavingsMonths is the horizon of analytics/savings-projection (default: 12)
	SavingsMonths int
}

// DefaultSyncConfig returns the windows the dashboard uses.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		ForecastDays:  30,
		SavingsMonths: 12,
	}
}

// AuthChecker reports whether a session may fetch data.
type AuthChecker interface {
	Authenticated() bool
}

// SyncOrchestrator fetches every backend collection and merges the results
// into the view model store, one Apply per wave.
type SyncOrchestrator struct {
	backend api.Backend
	auth    AuthChecker
	store   *state.Store
	config  SyncConfig
}

func NewSyncOrchestrator(backend api.Backend, auth AuthChecker, store *state.Store, config SyncConfig) *SyncOrchestrator {
	defaults := DefaultSyncConfig()
	if config.ForecastDays <= 0 {
		config.ForecastDays = defaults.ForecastDays
	}
	if config.SavingsMonths <= 0 {
		config.SavingsMonths = defaults.SavingsMonths
	}
	return &SyncOrchestrator{
		backend: backend,
		auth:    auth,
		store:   store,
		config:  config,
	}
}

// Resync re-fetches everything, scoping transactions to statementIDs
// (empty means all statements).
//
// A failure of a core collection (transactions, spending, forecast,
// budgets) leaves that collection empty, skips the later waves and is
// returned. Every other failure degrades to an empty value and is logged.
func (o *SyncOrchestrator) Resync(ctx context.Context, statementIDs []int64) error {
	return o.ResyncScoped(ctx, func() []int64 { return statementIDs })
}

// ResyncScoped is Resync with the statement scope read at the moment the
// sequence number is issued. The sequence number is taken before the
// session is checked, so a logout from then on discards the results.
func (o *SyncOrchestrator) ResyncScoped(ctx context.Context, scope func() []int64) error {
	seq, ids := o.store.Begin(scope)
	if !o.auth.Authenticated() {
		return ErrNotAuthenticated
	}

	slog.DebugContext(ctx, "Resync started",
		log.FieldComponent, log.ComponentSync,
		log.FieldSeq, seq,
		log.FieldStatementID, ids)

	if err := o.primaryWave(ctx, seq, ids); err != nil {
		slog.ErrorContext(ctx, "Resync aborted",
			log.NewFields().
				WithComponent(log.ComponentSync).
				WithResync(seq, 1).
				WithError(err).
				ToSlice()...)
		return fmt.Errorf("resync %d: %w", seq, err)
	}

	// Later waves are best effort: their failures never undo wave 1.
	o.statementsWave(ctx, seq)
	o.planningWave(ctx, seq)

	slog.DebugContext(ctx, "Resync finished",
		log.FieldComponent, log.ComponentSync,
		log.FieldSeq, seq)
	return nil
}

func (o *SyncOrchestrator) primaryWave(ctx context.Context, seq uint64, statementIDs []int64) error {
	var (
		g             errgroup.Group
		transactions  []*core.Transaction
		spending      map[string]float64
		forecast      []core.ForecastPoint
		budgets       []core.Budget
		summary       *core.AnalyticsSummary
		subscriptions []core.Subscription
		income        []core.IncomePattern
		savings       []core.SavingsPoint
		reminders     []core.BillReminder

		errTransactions, errSpending, errForecast, errBudgets error
	)

	// Core collections
	g.Go(func() error {
		transactions, errTransactions = o.backend.ListTransactions(ctx, statementIDs)
		return wrapCollection(state.Transactions, errTransactions)
	})
	g.Go(func() error {
		spending, errSpending = o.backend.Spending(ctx)
		return wrapCollection(state.Spending, errSpending)
	})
	g.Go(func() error {
		forecast, errForecast = o.backend.Forecast(ctx, o.config.ForecastDays)
		return wrapCollection(state.Forecast, errForecast)
	})
	g.Go(func() error {
		budgets, errBudgets = o.backend.ListBudgets(ctx)
		return wrapCollection(state.Budgets, errBudgets)
	})

	// Secondary collections fall back independently
	g.Go(func() error {
		v, err := o.backend.Summary(ctx)
		summary = fallback(ctx, seq, 1, state.Summary, v, err, nil)
		return nil
	})
	g.Go(func() error {
		v, err := o.backend.Subscriptions(ctx)
		subscriptions = fallback(ctx, seq, 1, state.Subscriptions, v, err, []core.Subscription{})
		return nil
	})
	g.Go(func() error {
		v, err := o.backend.IncomePatterns(ctx)
		income = fallback(ctx, seq, 1, state.IncomePatterns, v, err, []core.IncomePattern{})
		return nil
	})
	g.Go(func() error {
		v, err := o.backend.SavingsProjection(ctx, o.config.SavingsMonths)
		savings = fallback(ctx, seq, 1, state.Savings, v, err, []core.SavingsPoint{})
		return nil
	})
	g.Go(func() error {
		v, err := o.backend.ListBillReminders(ctx)
		reminders = fallback(ctx, seq, 1, state.BillReminders, v, err, []core.BillReminder{})
		return nil
	})

	// Wait joins every fetch; it never returns before all of them settle.
	waitErr := g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	// A failed core collection is merged as empty
	if errTransactions != nil {
		transactions = nil
	}
	if errSpending != nil {
		spending = nil
	}
	if errForecast != nil {
		forecast = nil
	}
	if errBudgets != nil {
		budgets = nil
	}

	patch := state.NewPatch(seq).
		SetTransactions(transactions).
		SetSpending(spending).
		SetForecast(forecast).
		SetBudgets(budgets).
		SetSummary(summary).
		SetSubscriptions(subscriptions).
		SetIncomePatterns(income).
		SetSavings(savings).
		SetBillReminders(reminders)
	o.apply(ctx, patch, 1)

	if waitErr == nil {
		return nil
	}
	return errors.Join(
		wrapCollection(state.Transactions, errTransactions),
		wrapCollection(state.Spending, errSpending),
		wrapCollection(state.Forecast, errForecast),
		wrapCollection(state.Budgets, errBudgets),
	)
}

func (o *SyncOrchestrator) statementsWave(ctx context.Context, seq uint64) {
	statements, err := o.backend.ListStatements(ctx)
	if err != nil {
		// Keep whatever statements were shown before
		slog.WarnContext(ctx, "Statements not available",
			log.NewFields().
				WithComponent(log.ComponentSync).
				WithResync(seq, 2).
				WithError(err).
				ToSlice()...)
		return
	}
	if ctx.Err() != nil {
		return
	}
	o.apply(ctx, state.NewPatch(seq).SetStatements(statements), 2)
}

func (o *SyncOrchestrator) planningWave(ctx context.Context, seq uint64) {
	var (
		g           errgroup.Group
		goals       []core.Goal
		emergency   core.Emergency
		personality *core.SpendingPersonality
	)

	g.Go(func() error {
		v, err := o.backend.ListGoals(ctx)
		goals = fallback(ctx, seq, 3, state.Goals, v, err, []core.Goal{})
		return nil
	})
	g.Go(func() error {
		v, err := o.backend.Emergencies(ctx)
		emergency = fallback(ctx, seq, 3, state.Emergency, v, err, core.Emergency{})
		return nil
	})
	g.Go(func() error {
		v, err := o.backend.Personality(ctx)
		personality = fallback(ctx, seq, 3, state.Personality, v, err, nil)
		return nil
	})
	_ = g.Wait()

	if ctx.Err() != nil {
		return
	}
	patch := state.NewPatch(seq).
		SetGoals(goals).
		SetEmergency(emergency).
		SetPersonality(personality)
	o.apply(ctx, patch, 3)
}

func (o *SyncOrchestrator) apply(ctx context.Context, p *state.Patch, wave int) {
	res := o.store.Apply(p)
	if len(res.Discarded) > 0 {
		slog.DebugContext(ctx, "Discarded superseded results",
			log.FieldComponent, log.ComponentSync,
			log.FieldSeq, p.Seq(),
			log.FieldWave, wave,
			log.FieldCollection, res.Discarded)
	}
}

// fallback returns v, or def when err is set.
func fallback[T any](ctx context.Context, seq uint64, wave int, c state.Collection, v T, err error, def T) T {
	if err == nil {
		return v
	}
	fields := log.NewFields().
		WithComponent(log.ComponentSync).
		WithResync(seq, wave).
		WithError(err)
	fields[log.FieldCollection] = c
	slog.WarnContext(ctx, "Collection fetch failed, using fallback", fields.ToSlice()...)
	return def
}

func wrapCollection(c state.Collection, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("fetch %s: %w", c, err)
}

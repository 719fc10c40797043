package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"finboard/internal/api"
	"finboard/internal/cache"
	"finboard/internal/confirm"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/notify"
	"finboard/internal/selection"
	"finboard/internal/state"
)

var ErrNothingSelected = errors.New("no transactions selected")

const defaultPlanTTL = 5 * time.Minute

// Refresher re-runs a resync with whatever statement filter is current.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Notifier interface {
	Success(ctx context.Context, msg string) notify.Notification
	Failure(ctx context.Context, msg string) notify.Notification
}

// Confirmer is the slot destructive requests are parked in.
type Confirmer interface {
	Open(r confirm.Request)
}

type ViewSource interface {
	Snapshot() state.ViewModel
}

// MutationDeps wires a MutationGateway.
type MutationDeps struct {
	Backend   api.Backend
	Refresher Refresher
	Notifier  Notifier
	Gate      Confirmer
	Selection *selection.Scope
	View      ViewSource
	Plans     cache.Cache[core.GoalPlan]

	// StatementDeleted is called after a statement is gone and before the
	// resync, so the filter no longer names it. It must not resync itself.
	StatementDeleted func(id int64)
}

// Drafts are the edits in progress. They survive a failed save so the
// user can retry.
type Drafts struct {
	Budget      *core.BudgetInput     `json:"budget,omitempty"`
	Transaction *core.TransactionEdit `json:"transaction,omitempty"`
}

// MutationGateway runs every write against the backend. A successful write
// is followed by a full resync; the view model is never patched locally.
type MutationGateway struct {
	backend   api.Backend
	refresher Refresher
	notifier  Notifier
	gate      Confirmer
	selection *selection.Scope
	view      ViewSource
	plans     cache.Cache[core.GoalPlan]

	statementDeleted func(id int64)

	mu     sync.Mutex
	drafts Drafts
	// gen changes on Reset; writes that started before it stay silent.
	gen uint64
}

func NewMutationGateway(deps MutationDeps) *MutationGateway {
	plans := deps.Plans
	if plans == nil {
		plans = cache.NewLRUCache[core.GoalPlan](64, defaultPlanTTL)
	}
	sel := deps.Selection
	if sel == nil {
		sel = selection.New()
	}
	return &MutationGateway{
		backend:          deps.Backend,
		refresher:        deps.Refresher,
		notifier:         deps.Notifier,
		gate:             deps.Gate,
		selection:        sel,
		view:             deps.View,
		plans:            plans,
		statementDeleted: deps.StatementDeleted,
	}
}

// mutation describes one write: what to log and what to tell the user.
type mutation struct {
	op      string
	entity  string
	id      int64
	success string
	failure string

	// detail renders the failure message from the error when set.
	detail func(err error) string
	// cleanup runs after the write succeeded, before the resync.
	cleanup func()
	// settle runs after a successful resync.
	settle func()
}

// execute is the write pipeline: call, then cleanup, resync, settle and
// notify on success; on failure notify and leave local state alone. The
// call may return a message that replaces the default success text. A
// Reset during the call silences the outcome.
func (g *MutationGateway) execute(ctx context.Context, m mutation, call func(ctx context.Context) (string, error)) error {
	fields := log.NewFields().
		WithComponent(log.ComponentMutation).
		WithOperation(m.op).
		WithEntity(m.entity, m.id)

	gen := g.generation()

	msg, err := call(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Mutation failed", fields.WithError(err).ToSlice()...)
		if g.generation() != gen {
			return err
		}
		text := failureMessage(m.failure, err)
		if m.detail != nil {
			text = m.detail(err)
		}
		g.notifier.Failure(ctx, text)
		return err
	}

	if g.generation() != gen {
		// The user logged out while the write was in flight.
		slog.InfoContext(ctx, "Mutation succeeded after reset, not reported", fields.ToSlice()...)
		return nil
	}

	if m.cleanup != nil {
		m.cleanup()
	}
	if err := g.refresher.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Resync after mutation failed", append(fields.ToSlice(), log.FieldError, err)...)
	} else if m.settle != nil {
		m.settle()
	}

	if msg == "" {
		msg = m.success
	}
	if g.generation() == gen {
		g.notifier.Success(ctx, msg)
	}
	slog.InfoContext(ctx, "Mutation succeeded", fields.ToSlice()...)
	return nil
}

func (g *MutationGateway) generation() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

// failureMessage appends the server detail to generic when there is one.
func failureMessage(generic string, err error) string {
	if detail := api.Detail(err); detail != "" {
		return generic + ": " + detail
	}
	return generic
}

// Transactions

func (g *MutationGateway) CreateTransaction(ctx context.Context, t core.NewTransaction) error {
	if t.Source == "" {
		t.Source = core.SourceManual
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return g.execute(ctx, mutation{
		op:      log.OpCreate,
		entity:  "transaction",
		success: "Transaction added manually!",
		failure: "Failed to add transaction",
	}, func(ctx context.Context) (string, error) {
		_, err := g.backend.CreateTransaction(ctx, t)
		return "", err
	})
}

// EditTransaction starts editing t. Only description, amount and category
// can change.
func (g *MutationGateway) EditTransaction(t core.Transaction) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.drafts.Transaction = &core.TransactionEdit{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount,
		Category:    t.Category,
	}
}

func (g *MutationGateway) SaveTransactionEdit(ctx context.Context, e core.TransactionEdit) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return g.execute(ctx, mutation{
		op:      log.OpUpdate,
		entity:  "transaction",
		id:      e.ID,
		success: "Transaction updated successfully!",
		failure: "Failed to update transaction",
		cleanup: func() { g.clearDraft(func(d *Drafts) { d.Transaction = nil }) },
	}, func(ctx context.Context) (string, error) {
		_, err := g.backend.UpdateTransaction(ctx, e)
		return "", err
	})
}

func (g *MutationGateway) RequestDeleteTransaction(id int64) {
	g.gate.Open(confirm.Request{
		Title:   "Delete Transaction",
		Message: "Are you sure you want to delete this transaction? This action is permanent.",
		Action: func(ctx context.Context) error {
			return g.execute(ctx, mutation{
				op:      log.OpDelete,
				entity:  "transaction",
				id:      id,
				success: "Transaction deleted successfully!",
				failure: "Failed to delete transaction",
				cleanup: func() { g.selection.Remove(id) },
			}, func(ctx context.Context) (string, error) {
				_, err := g.backend.DeleteTransaction(ctx, id)
				return "", err
			})
		},
	})
}

// RequestBulkDelete asks to delete the selected transactions among visible.
// Selected rows outside the current view are left alone.
func (g *MutationGateway) RequestBulkDelete(visible []int64) error {
	ids := g.selection.Actionable(visible)
	if len(ids) == 0 {
		return ErrNothingSelected
	}
	g.gate.Open(confirm.Request{
		Title:   "Bulk Delete",
		Message: fmt.Sprintf("Are you sure you want to delete %d transactions? This cannot be undone.", len(ids)),
		Action: func(ctx context.Context) error {
			return g.execute(ctx, mutation{
				op:      log.OpDelete,
				entity:  "transactions",
				success: fmt.Sprintf("Deleted %d transactions", len(ids)),
				failure: "Failed to delete transactions",
				cleanup: g.selection.Clear,
			}, func(ctx context.Context) (string, error) {
				ack, err := g.backend.BulkDeleteTransactions(ctx, ids)
				return ack.Message, err
			})
		},
	})
	return nil
}

// Budgets

// EditBudget starts editing b. The save is keyed by b's id.
func (g *MutationGateway) EditBudget(b core.Budget) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := b.ID
	g.drafts.Budget = &core.BudgetInput{ID: &id, Category: b.Category, Amount: b.Amount}
}

// SaveBudget creates or edits a budget. The service upserts by category,
// so an edit that renames the category also deletes the budget it was
// opened from.
func (g *MutationGateway) SaveBudget(ctx context.Context, b core.BudgetInput) error {
	if err := b.Validate(); err != nil {
		return err
	}
	var id int64
	if b.ID != nil {
		id = *b.ID
	}
	renamed := g.renamedBudget(b)
	return g.execute(ctx, mutation{
		op:      log.OpUpdate,
		entity:  "budget",
		id:      id,
		success: "Budget saved successfully!",
		failure: "Failed to save budget",
		cleanup: func() { g.clearDraft(func(d *Drafts) { d.Budget = nil }) },
	}, func(ctx context.Context) (string, error) {
		if _, err := g.backend.SaveBudget(ctx, b); err != nil {
			return "", err
		}
		if renamed {
			_, err := g.backend.DeleteBudget(ctx, id)
			if err != nil && !api.IsNotFound(err) {
				slog.WarnContext(ctx, "Failed to remove renamed budget",
					log.NewFields().
						WithComponent(log.ComponentMutation).
						WithEntity("budget", id).
						WithError(err).
						ToSlice()...)
			}
		}
		return "", nil
	})
}

// renamedBudget reports whether b edits a cached budget under another
// category.
func (g *MutationGateway) renamedBudget(b core.BudgetInput) bool {
	if b.ID == nil || g.view == nil {
		return false
	}
	for _, existing := range g.view.Snapshot().Budgets {
		if existing.ID == *b.ID {
			return existing.Category != b.Category
		}
	}
	return false
}

func (g *MutationGateway) RequestDeleteBudget(id int64) {
	g.gate.Open(confirm.Request{
		Title:   "Delete Budget",
		Message: "Are you sure you want to delete this budget category? This will not delete your transactions, but you will lose the budget tracking for this category.",
		Action: func(ctx context.Context) error {
			return g.execute(ctx, mutation{
				op:      log.OpDelete,
				entity:  "budget",
				id:      id,
				success: "Budget deleted successfully!",
				failure: "Failed to delete budget",
				cleanup: func() {
					g.clearDraft(func(d *Drafts) {
						if d.Budget != nil && d.Budget.ID != nil && *d.Budget.ID == id {
							d.Budget = nil
						}
					})
				},
			}, func(ctx context.Context) (string, error) {
				_, err := g.backend.DeleteBudget(ctx, id)
				return "", err
			})
		},
	})
}

// Bill reminders

func (g *MutationGateway) CreateBillReminder(ctx context.Context, r core.BillReminderInput) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return g.execute(ctx, mutation{
		op:      log.OpCreate,
		entity:  "bill_reminder",
		success: "Bill reminder created!",
		failure: "Failed to create reminder",
	}, func(ctx context.Context) (string, error) {
		_, err := g.backend.CreateBillReminder(ctx, r)
		return "", err
	})
}

func (g *MutationGateway) RequestDeleteBillReminder(id int64) {
	g.gate.Open(confirm.Request{
		Title:   "Delete Reminder",
		Message: "Are you sure you want to remove this bill reminder?",
		Action: func(ctx context.Context) error {
			return g.execute(ctx, mutation{
				op:      log.OpDelete,
				entity:  "bill_reminder",
				id:      id,
				success: "Reminder deleted",
				failure: "Failed to delete reminder",
			}, func(ctx context.Context) (string, error) {
				_, err := g.backend.DeleteBillReminder(ctx, id)
				return "", err
			})
		},
	})
}

// Statements

// UploadStatement imports a bank statement file.
func (g *MutationGateway) UploadStatement(ctx context.Context, filename string, r io.Reader) error {
	if filename == "" {
		return core.ErrEmptyName
	}
	return g.execute(ctx, mutation{
		op:     log.OpUpload,
		entity: "statement",
		detail: func(err error) string {
			if detail := api.Detail(err); detail != "" {
				return "Failed to upload: " + detail
			}
			return "Failed to upload: " + err.Error()
		},
	}, func(ctx context.Context) (string, error) {
		res, err := g.backend.UploadStatement(ctx, filename, r)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Successfully imported %d transactions!", res.TransactionsCount), nil
	})
}

// RequestDeleteStatement asks to delete a statement and, with it, every
// transaction it imported.
func (g *MutationGateway) RequestDeleteStatement(id int64, filename string) {
	g.gate.Open(confirm.Request{
		Title:   "Delete Statement",
		Message: fmt.Sprintf("Are you sure you want to delete %q? All associated transactions will be permanently removed.", filename),
		Action: func(ctx context.Context) error {
			// Only rows that were on screen and are gone afterwards leave
			// the selection; rows hidden by the filter are kept.
			var before []int64
			return g.execute(ctx, mutation{
				op:      log.OpDelete,
				entity:  "statement",
				id:      id,
				success: "Statement deleted",
				failure: "Failed to delete statement",
				cleanup: func() {
					if g.statementDeleted != nil {
						g.statementDeleted(id)
					}
				},
				settle: func() {
					if g.view != nil {
						g.selection.Remove(missing(before, g.view.Snapshot().TransactionIDs())...)
					}
				},
			}, func(ctx context.Context) (string, error) {
				if g.view != nil {
					before = g.view.Snapshot().TransactionIDs()
				}
				ack, err := g.backend.DeleteStatement(ctx, id)
				return ack.Message, err
			})
		},
	})
}

// missing returns the ids of before that are not in after.
func missing(before, after []int64) []int64 {
	out := make([]int64, 0, len(before))
	for _, id := range before {
		if !slices.Contains(after, id) {
			out = append(out, id)
		}
	}
	return out
}

// Goals

func (g *MutationGateway) CreateGoal(ctx context.Context, in core.GoalInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return g.execute(ctx, mutation{
		op:      log.OpCreate,
		entity:  "goal",
		success: "Goal created successfully!",
		failure: "Failed to create goal",
	}, func(ctx context.Context) (string, error) {
		_, err := g.backend.CreateGoal(ctx, in)
		return "", err
	})
}

func (g *MutationGateway) UpdateGoal(ctx context.Context, id int64, u core.GoalUpdate) error {
	if id <= 0 {
		return core.ErrInvalidID
	}
	if err := u.Validate(); err != nil {
		return err
	}
	return g.execute(ctx, mutation{
		op:      log.OpUpdate,
		entity:  "goal",
		id:      id,
		success: "Goal updated successfully!",
		failure: "Failed to update goal",
		cleanup: func() { g.plans.Delete(planKey(id)) },
	}, func(ctx context.Context) (string, error) {
		_, err := g.backend.UpdateGoal(ctx, id, u)
		return "", err
	})
}

func (g *MutationGateway) RequestDeleteGoal(id int64) {
	g.gate.Open(confirm.Request{
		Title:   "Delete Financial Goal",
		Message: "Are you sure you want to delete this savings goal? Your progress will be lost.",
		Action: func(ctx context.Context) error {
			return g.execute(ctx, mutation{
				op:      log.OpDelete,
				entity:  "goal",
				id:      id,
				success: "Goal deleted",
				failure: "Failed to delete goal",
				cleanup: func() { g.plans.Delete(planKey(id)) },
			}, func(ctx context.Context) (string, error) {
				_, err := g.backend.DeleteGoal(ctx, id)
				return "", err
			})
		},
	})
}

// GoalPlan returns the savings plan of a goal, cached until the goal
// changes or the TTL runs out.
func (g *MutationGateway) GoalPlan(ctx context.Context, id int64) (core.GoalPlan, error) {
	key := planKey(id)
	if plan, ok := g.plans.Get(key); ok {
		return plan, nil
	}
	plan, err := g.backend.GoalPlan(ctx, id)
	if err != nil {
		return core.GoalPlan{}, fmt.Errorf("goal plan %d: %w", id, err)
	}
	g.plans.Set(key, plan)
	return plan, nil
}

func planKey(id int64) string {
	return "goal:" + strconv.FormatInt(id, 10)
}

// Drafts

// Drafts returns a copy of the edits in progress.
func (g *MutationGateway) Drafts() Drafts {
	g.mu.Lock()
	defer g.mu.Unlock()
	var d Drafts
	if g.drafts.Budget != nil {
		b := *g.drafts.Budget
		d.Budget = &b
	}
	if g.drafts.Transaction != nil {
		t := *g.drafts.Transaction
		d.Transaction = &t
	}
	return d
}

// CancelEdits drops every draft.
func (g *MutationGateway) CancelEdits() {
	g.clearDraft(func(d *Drafts) { *d = Drafts{} })
}

// Reset forgets everything tied to the signed-in user. Writes still in
// flight finish without notifying.
func (g *MutationGateway) Reset() {
	g.mu.Lock()
	g.drafts = Drafts{}
	g.gen++
	g.mu.Unlock()
	g.plans.Clear()
}

func (g *MutationGateway) clearDraft(fn func(d *Drafts)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.drafts)
}

package services

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"testing"
	"time"

	"finboard/internal/api"
	"finboard/internal/api/memory"
	"finboard/internal/cache"
	"finboard/internal/confirm"
	"finboard/internal/core"
	"finboard/internal/notify"
	"finboard/internal/selection"
	"finboard/internal/state"
)

type recordingNotifier struct {
	got []notify.Notification
}

func (r *recordingNotifier) Success(_ context.Context, msg string) notify.Notification {
	n := notify.Notification{Kind: notify.KindSuccess, Message: msg}
	r.got = append(r.got, n)
	return n
}

func (r *recordingNotifier) Failure(_ context.Context, msg string) notify.Notification {
	n := notify.Notification{Kind: notify.KindError, Message: msg}
	r.got = append(r.got, n)
	return n
}

func (r *recordingNotifier) last(t *testing.T) notify.Notification {
	t.Helper()
	if len(r.got) == 0 {
		t.Fatal("expected a notification")
	}
	return r.got[len(r.got)-1]
}

type harness struct {
	backend   *memory.Backend
	store     *state.Store
	sync      *SyncOrchestrator
	gate      *confirm.Gate
	selection *selection.Scope
	notes     *recordingNotifier
	gateway   *MutationGateway

	refreshes int
	deleted   []int64
	filter    []int64
}

func (h *harness) Refresh(ctx context.Context) error {
	h.refreshes++
	return h.sync.Resync(ctx, h.filter)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend:   memory.NewDemo(),
		store:     state.NewStore(),
		gate:      confirm.New(),
		selection: selection.New(),
		notes:     &recordingNotifier{},
	}
	h.sync = NewSyncOrchestrator(h.backend, authFlag(true), h.store, DefaultSyncConfig())
	h.gateway = NewMutationGateway(MutationDeps{
		Backend:          h.backend,
		Refresher:        h,
		Notifier:         h.notes,
		Gate:             h.gate,
		Selection:        h.selection,
		View:             h.store,
		Plans:            cache.NewLRUCache[core.GoalPlan](8, time.Minute),
		StatementDeleted: func(id int64) { h.deleted = append(h.deleted, id) },
	})
	if err := h.sync.Resync(context.Background(), nil); err != nil {
		t.Fatalf("initial Resync: %v", err)
	}
	return h
}

func (h *harness) transactionIDs() []int64 {
	return h.store.Snapshot().TransactionIDs()
}

func TestCreateTransaction(t *testing.T) {
	h := newHarness(t)
	category := "Travel"

	err := h.gateway.CreateTransaction(context.Background(), core.NewTransaction{
		Date:        core.NewDate(2026, 3, 20),
		Description: "Train ticket",
		Amount:      -42,
		Category:    &category,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if got := h.notes.last(t); got.Kind != notify.KindSuccess || got.Message != "Transaction added manually!" {
		t.Errorf("unexpected notification %+v", got)
	}
	if h.refreshes != 1 {
		t.Errorf("expected one resync, got %d", h.refreshes)
	}
	if got := len(h.store.Snapshot().Transactions); got != 5 {
		t.Errorf("expected the new transaction after resync, got %d", got)
	}
}

func TestCreateTransaction_ValidationSkipsBackend(t *testing.T) {
	h := newHarness(t)

	err := h.gateway.CreateTransaction(context.Background(), core.NewTransaction{
		Date:   core.NewDate(2026, 3, 20),
		Amount: -42,
	})
	if !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
	if h.backend.Calls(memory.EndpointCreateTxn) != 0 {
		t.Error("invalid input must not reach the backend")
	}
	if len(h.notes.got) != 0 || h.refreshes != 0 {
		t.Error("invalid input must not notify or resync")
	}
}

func TestMutationFailureMessages(t *testing.T) {
	tests := []struct {
		name    string
		hookErr error
		want    string
	}{
		{
			name:    "server detail",
			hookErr: &api.Error{Status: http.StatusUnprocessableEntity, Detail: "amount: must not be zero"},
			want:    "Failed to add transaction: amount: must not be zero",
		},
		{
			name:    "no detail",
			hookErr: errors.New("connection reset"),
			want:    "Failed to add transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.backend.Hook = func(_ context.Context, endpoint string) error {
				if endpoint == memory.EndpointCreateTxn {
					return tt.hookErr
				}
				return nil
			}

			err := h.gateway.CreateTransaction(context.Background(), core.NewTransaction{
				Date:        core.NewDate(2026, 3, 20),
				Description: "Coffee",
				Amount:      -3,
			})
			if !errors.Is(err, tt.hookErr) {
				t.Fatalf("expected backend error, got %v", err)
			}
			if got := h.notes.last(t); got.Kind != notify.KindError || got.Message != tt.want {
				t.Errorf("notification = %+v, want error %q", got, tt.want)
			}
			if h.refreshes != 0 {
				t.Error("failed mutation must not resync")
			}
		})
	}
}

func TestSaveTransactionEdit_DraftLifecycle(t *testing.T) {
	h := newHarness(t)
	txn := *h.store.Snapshot().Transactions[0]

	h.gateway.EditTransaction(txn)
	draft := h.gateway.Drafts().Transaction
	if draft == nil || draft.ID != txn.ID {
		t.Fatalf("expected a draft for %d, got %+v", txn.ID, draft)
	}
	draft.Description = "Renamed"

	h.backend.Hook = failOn(memory.EndpointUpdateTxn)
	if err := h.gateway.SaveTransactionEdit(context.Background(), *draft); err == nil {
		t.Fatal("expected failure")
	}
	if h.gateway.Drafts().Transaction == nil {
		t.Fatal("a failed save must keep the draft")
	}

	h.backend.Hook = nil
	if err := h.gateway.SaveTransactionEdit(context.Background(), *draft); err != nil {
		t.Fatalf("SaveTransactionEdit: %v", err)
	}
	if h.gateway.Drafts().Transaction != nil {
		t.Error("a successful save must clear the draft")
	}
	if got := h.notes.last(t).Message; got != "Transaction updated successfully!" {
		t.Errorf("unexpected message %q", got)
	}
	for _, tr := range h.store.Snapshot().Transactions {
		if tr.ID == txn.ID && tr.Description != "Renamed" {
			t.Errorf("expected resynced description, got %q", tr.Description)
		}
	}
}

func TestRequestDeleteTransaction(t *testing.T) {
	h := newHarness(t)
	ids := h.transactionIDs()
	target := ids[0]
	h.selection.Toggle(target)
	h.selection.Toggle(ids[1])

	h.gateway.RequestDeleteTransaction(target)

	prompt, ok := h.gate.Pending()
	if !ok || prompt.Title != "Delete Transaction" || prompt.ConfirmLabel != "Delete" {
		t.Fatalf("unexpected prompt %+v", prompt)
	}
	if h.backend.Calls(memory.EndpointDeleteTxn) != 0 {
		t.Fatal("nothing may be deleted before confirmation")
	}

	if err := h.gate.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, open := h.gate.Pending(); open {
		t.Error("gate should close after confirm")
	}
	if h.selection.Has(target) || !h.selection.Has(ids[1]) {
		t.Errorf("only the deleted id should leave the selection, got %v", h.selection.IDs())
	}
	if got := len(h.transactionIDs()); got != len(ids)-1 {
		t.Errorf("expected %d transactions, got %d", len(ids)-1, got)
	}
	if got := h.notes.last(t).Message; got != "Transaction deleted successfully!" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestRequestDeleteTransaction_FailureClosesGate(t *testing.T) {
	h := newHarness(t)
	target := h.transactionIDs()[0]
	h.selection.Toggle(target)
	h.backend.Hook = func(_ context.Context, endpoint string) error {
		if endpoint == memory.EndpointDeleteTxn {
			return &api.Error{Status: http.StatusNotFound, Detail: "Transaction not found"}
		}
		return nil
	}

	h.gateway.RequestDeleteTransaction(target)
	if err := h.gate.Confirm(context.Background()); !api.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, open := h.gate.Pending(); open {
		t.Error("gate must close even when the action fails")
	}
	if !h.selection.Has(target) {
		t.Error("failed delete must leave the selection untouched")
	}
	if got := h.notes.last(t).Message; got != "Failed to delete transaction: Transaction not found" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestRequestBulkDelete(t *testing.T) {
	h := newHarness(t)
	ids := h.transactionIDs()

	if err := h.gateway.RequestBulkDelete(ids); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("expected ErrNothingSelected, got %v", err)
	}
	if _, open := h.gate.Pending(); open {
		t.Fatal("empty selection must not open the gate")
	}

	h.selection.Toggle(ids[0])
	h.selection.Toggle(ids[1])
	hidden := int64(9999)
	h.selection.Toggle(hidden)

	if err := h.gateway.RequestBulkDelete(ids); err != nil {
		t.Fatalf("RequestBulkDelete: %v", err)
	}
	prompt, _ := h.gate.Pending()
	if prompt.Message != "Are you sure you want to delete 2 transactions? This cannot be undone." {
		t.Errorf("unexpected message %q", prompt.Message)
	}

	if err := h.gate.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if h.selection.Len() != 0 {
		t.Errorf("bulk delete must clear the selection, got %v", h.selection.IDs())
	}
	if got := h.notes.last(t).Message; got != "Deleted 2 transactions" {
		t.Errorf("expected the server message, got %q", got)
	}
	if got := len(h.transactionIDs()); got != len(ids)-2 {
		t.Errorf("expected %d transactions left, got %d", len(ids)-2, got)
	}
}

func TestSaveBudget(t *testing.T) {
	h := newHarness(t)
	budget := h.store.Snapshot().Budgets[0]

	h.gateway.EditBudget(budget)
	draft := h.gateway.Drafts().Budget
	if draft == nil || draft.ID == nil || *draft.ID != budget.ID {
		t.Fatalf("unexpected budget draft %+v", draft)
	}
	draft.Amount = 400

	if err := h.gateway.SaveBudget(context.Background(), *draft); err != nil {
		t.Fatalf("SaveBudget: %v", err)
	}
	budgets := h.store.Snapshot().Budgets
	if len(budgets) != 1 || budgets[0].Amount != 400 {
		t.Errorf("expected an upsert of the Food budget, got %+v", budgets)
	}
	if h.gateway.Drafts().Budget != nil {
		t.Error("draft should be cleared")
	}
	if got := h.notes.last(t).Message; got != "Budget saved successfully!" {
		t.Errorf("unexpected message %q", got)
	}

	if err := h.gateway.SaveBudget(context.Background(), core.BudgetInput{Category: "Food"}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestSaveBudget_RenameReplacesEditedBudget(t *testing.T) {
	tests := []struct {
		name        string
		goneAlready bool
	}{
		{name: "old budget present"},
		{name: "old budget already deleted", goneAlready: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			food := h.store.Snapshot().Budgets[0]
			if tt.goneAlready {
				if _, err := h.backend.DeleteBudget(ctx, food.ID); err != nil {
					t.Fatalf("DeleteBudget: %v", err)
				}
			}

			h.gateway.EditBudget(food)
			draft := *h.gateway.Drafts().Budget
			draft.Category = "Groceries"
			if err := h.gateway.SaveBudget(ctx, draft); err != nil {
				t.Fatalf("SaveBudget: %v", err)
			}

			budgets := h.store.Snapshot().Budgets
			if len(budgets) != 1 || budgets[0].Category != "Groceries" {
				t.Errorf("expected only the renamed budget, got %+v", budgets)
			}
			if got := h.notes.last(t); got.Kind != notify.KindSuccess {
				t.Errorf("expected success, got %+v", got)
			}
		})
	}
}

func TestSaveBudget_SameCategoryKeepsID(t *testing.T) {
	h := newHarness(t)
	food := h.store.Snapshot().Budgets[0]

	h.gateway.EditBudget(food)
	draft := *h.gateway.Drafts().Budget
	draft.Amount = 250
	if err := h.gateway.SaveBudget(context.Background(), draft); err != nil {
		t.Fatalf("SaveBudget: %v", err)
	}
	if got := h.backend.Calls(memory.EndpointDeleteBudget); got != 0 {
		t.Errorf("an amount change must not delete anything, got %d deletes", got)
	}
	if budgets := h.store.Snapshot().Budgets; len(budgets) != 1 || budgets[0].ID != food.ID {
		t.Errorf("expected the same budget updated, got %+v", budgets)
	}
}

func TestDestructiveRequests(t *testing.T) {
	tests := []struct {
		name    string
		open    func(t *testing.T, h *harness)
		title   string
		success string
		check   func(t *testing.T, vm state.ViewModel)
	}{
		{
			name:    "budget",
			open:    func(_ *testing.T, h *harness) { h.gateway.RequestDeleteBudget(h.store.Snapshot().Budgets[0].ID) },
			title:   "Delete Budget",
			success: "Budget deleted successfully!",
			check: func(t *testing.T, vm state.ViewModel) {
				if len(vm.Budgets) != 0 {
					t.Errorf("expected no budgets, got %v", vm.Budgets)
				}
			},
		},
		{
			name:    "goal",
			open:    func(_ *testing.T, h *harness) { h.gateway.RequestDeleteGoal(h.store.Snapshot().Goals[0].ID) },
			title:   "Delete Financial Goal",
			success: "Goal deleted",
			check: func(t *testing.T, vm state.ViewModel) {
				if len(vm.Goals) != 0 {
					t.Errorf("expected no goals, got %v", vm.Goals)
				}
			},
		},
		{
			name: "bill reminder",
			open: func(t *testing.T, h *harness) {
				if err := h.gateway.CreateBillReminder(context.Background(), core.BillReminderInput{Name: "Internet", Amount: 40, DueDay: 12}); err != nil {
					t.Fatalf("CreateBillReminder: %v", err)
				}
				h.gateway.RequestDeleteBillReminder(h.store.Snapshot().BillReminders[0].ID)
			},
			title:   "Delete Reminder",
			success: "Reminder deleted",
			check: func(t *testing.T, vm state.ViewModel) {
				if len(vm.BillReminders) != 0 {
					t.Errorf("expected no reminders, got %v", vm.BillReminders)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.open(t, h)

			prompt, ok := h.gate.Pending()
			if !ok || prompt.Title != tt.title {
				t.Fatalf("unexpected prompt %+v", prompt)
			}
			if err := h.gate.Confirm(context.Background()); err != nil {
				t.Fatalf("Confirm: %v", err)
			}
			if got := h.notes.last(t).Message; got != tt.success {
				t.Errorf("message = %q, want %q", got, tt.success)
			}
			tt.check(t, h.store.Snapshot())
		})
	}
}

func TestRequestDeleteStatement(t *testing.T) {
	h := newHarness(t)
	stmt := h.store.Snapshot().Statements[0]
	for _, id := range h.transactionIDs() {
		h.selection.Toggle(id)
	}

	h.gateway.RequestDeleteStatement(stmt.ID, stmt.Filename)
	prompt, _ := h.gate.Pending()
	if !strings.Contains(prompt.Message, `"demo-march.csv"`) {
		t.Errorf("prompt should name the file, got %q", prompt.Message)
	}

	if err := h.gate.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(h.deleted) != 1 || h.deleted[0] != stmt.ID {
		t.Errorf("expected the filter callback for %d, got %v", stmt.ID, h.deleted)
	}
	if got := h.notes.last(t).Message; got != "Deleted statement 'demo-march.csv' and 3 transactions" {
		t.Errorf("expected the server message, got %q", got)
	}
	// Only the manual transaction survives the cascade
	if h.selection.Len() != 1 || len(h.transactionIDs()) != 1 || !h.selection.Has(h.transactionIDs()[0]) {
		t.Errorf("selection should be pruned to %v, got %v", h.transactionIDs(), h.selection.IDs())
	}
}

func TestRequestDeleteStatement_ResyncFailureKeepsSelection(t *testing.T) {
	h := newHarness(t)
	stmt := h.store.Snapshot().Statements[0]
	for _, id := range h.transactionIDs() {
		h.selection.Toggle(id)
	}
	selected := h.selection.IDs()

	h.backend.Hook = func(_ context.Context, endpoint string) error {
		if endpoint == memory.EndpointTransactions && h.backend.Calls(memory.EndpointDeleteStmt) > 0 {
			return errBackendDown
		}
		return nil
	}
	h.gateway.RequestDeleteStatement(stmt.ID, stmt.Filename)
	if err := h.gate.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if got := h.selection.IDs(); !slices.Equal(got, selected) {
		t.Errorf("a failed resync must leave the selection alone, got %v want %v", got, selected)
	}
}

func TestRequestDeleteStatement_KeepsHiddenSelection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	stmt := h.store.Snapshot().Statements[0]

	other := h.backend.AddStatement("april.csv")
	hidden := h.backend.AddTransaction(core.Transaction{
		Date:        core.NewDate(2026, 4, 2),
		Description: "Cinema",
		Amount:      -12,
	}, other.ID)

	h.filter = []int64{stmt.ID}
	if err := h.sync.Resync(ctx, h.filter); err != nil {
		t.Fatalf("Resync: %v", err)
	}
	visible := h.transactionIDs()
	if slices.Contains(visible, hidden.ID) {
		t.Fatal("the other statement should be filtered out")
	}
	h.selection.Toggle(hidden.ID)
	h.selection.Toggle(visible[0])

	h.gateway.RequestDeleteStatement(stmt.ID, stmt.Filename)
	if err := h.gate.Confirm(ctx); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if got := h.selection.IDs(); !slices.Equal(got, []int64{hidden.ID}) {
		t.Errorf("only the deleted rows should leave the selection, got %v", got)
	}
}

func TestReset_SilencesInFlightMutation(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "success"},
		{name: "failure", err: errBackendDown, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.backend.Hook = func(_ context.Context, endpoint string) error {
				if endpoint == memory.EndpointDeleteTxn {
					h.gateway.Reset()
					return tt.err
				}
				return nil
			}

			h.gateway.RequestDeleteTransaction(h.transactionIDs()[0])
			err := h.gate.Confirm(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Confirm error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(h.notes.got) != 0 {
				t.Errorf("no notification may outlive a reset, got %+v", h.notes.got)
			}
			if h.refreshes != 0 {
				t.Errorf("no resync may run after a reset, got %d", h.refreshes)
			}
		})
	}
}

func TestUploadStatement(t *testing.T) {
	h := newHarness(t)
	body := "date,description,amount,category\n2026-03-21,Bookshop,-18.50,Leisure\n2026-03-22,Refund,12.00,\n"

	if err := h.gateway.UploadStatement(context.Background(), "april.csv", strings.NewReader(body)); err != nil {
		t.Fatalf("UploadStatement: %v", err)
	}
	if got := h.notes.last(t).Message; got != "Successfully imported 2 transactions!" {
		t.Errorf("unexpected message %q", got)
	}
	if got := len(h.store.Snapshot().Statements); got != 2 {
		t.Errorf("expected 2 statements after upload, got %d", got)
	}

	h.backend.Hook = failOn(memory.EndpointUpload)
	if err := h.gateway.UploadStatement(context.Background(), "may.csv", strings.NewReader(body)); err == nil {
		t.Fatal("expected upload failure")
	}
	if got := h.notes.last(t).Message; got != "Failed to upload: backend down" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestGoalPlanCache(t *testing.T) {
	h := newHarness(t)
	goal := h.store.Snapshot().Goals[0]
	ctx := context.Background()

	first, err := h.gateway.GoalPlan(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GoalPlan: %v", err)
	}
	if _, err := h.gateway.GoalPlan(ctx, goal.ID); err != nil {
		t.Fatalf("GoalPlan: %v", err)
	}
	if got := h.backend.Calls(memory.EndpointGoalPlan); got != 1 {
		t.Fatalf("second lookup should hit the cache, got %d calls", got)
	}

	saved := 2500.0
	if err := h.gateway.UpdateGoal(ctx, goal.ID, core.GoalUpdate{CurrentSaved: &saved}); err != nil {
		t.Fatalf("UpdateGoal: %v", err)
	}
	second, err := h.gateway.GoalPlan(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GoalPlan: %v", err)
	}
	if h.backend.Calls(memory.EndpointGoalPlan) != 2 || second.CurrentSaved == first.CurrentSaved {
		t.Errorf("updating the goal should invalidate its plan, got %+v", second)
	}

	h.gateway.Reset()
	if _, err := h.gateway.GoalPlan(ctx, goal.ID); err != nil {
		t.Fatalf("GoalPlan: %v", err)
	}
	if got := h.backend.Calls(memory.EndpointGoalPlan); got != 3 {
		t.Errorf("Reset should drop cached plans, got %d calls", got)
	}
}

func TestCancelEdits(t *testing.T) {
	h := newHarness(t)
	vm := h.store.Snapshot()
	h.gateway.EditBudget(vm.Budgets[0])
	h.gateway.EditTransaction(*vm.Transactions[0])

	h.gateway.CancelEdits()
	if d := h.gateway.Drafts(); d.Budget != nil || d.Transaction != nil {
		t.Errorf("expected no drafts, got %+v", d)
	}
}

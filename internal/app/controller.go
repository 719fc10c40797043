// Package app wires the dashboard components together and exposes the
// commands a front end issues.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"finboard/internal/api"
	"finboard/internal/cache"
	"finboard/internal/confirm"
	"finboard/internal/core"
	"finboard/internal/currency"
	"finboard/internal/derived"
	"finboard/internal/log"
	"finboard/internal/notify"
	"finboard/internal/selection"
	"finboard/internal/services"
	"finboard/internal/session"
	"finboard/internal/state"
)

var ErrUnsupportedCurrency = errors.New("unsupported currency")

const (
	defaultPlanCacheSize = 64
	defaultPlanCacheTTL  = 5 * time.Minute
	cacheSweepInterval   = time.Minute
)

// tokenSetter is implemented by backends that send a bearer token.
type tokenSetter interface {
	SetTokenSource(ts api.TokenSource)
}

// Options configures a Controller. Only Backend is required.
type Options struct {
	Backend       api.Backend
	Store         session.Store
	Sinks         []notify.Sink
	Sync          services.SyncConfig
	NotifyTTL     time.Duration
	PlanCacheSize int
	PlanCacheTTL  time.Duration
	Currency      string
	Logger        *log.Logger
}

// Controller owns the session, the view model and every component that
// reads or writes it.
type Controller struct {
	session   *session.Session
	prefs     session.Store
	store     *state.Store
	sync      *services.SyncOrchestrator
	mutations *services.MutationGateway
	selection *selection.Scope
	gate      *confirm.Gate
	notes     *notify.Channel
	caches    *cache.Manager
	logger    *log.Logger

	mu       sync.RWMutex
	filter   []int64
	search   string
	currency string
}

func New(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if opts.Store == nil {
		opts.Store = session.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentApp)
	}
	if opts.PlanCacheSize <= 0 {
		opts.PlanCacheSize = defaultPlanCacheSize
	}
	if opts.PlanCacheTTL <= 0 {
		opts.PlanCacheTTL = defaultPlanCacheTTL
	}
	code := opts.Currency
	if !currency.Supported(code) {
		code = currency.Default
	}

	c := &Controller{
		prefs:     opts.Store,
		store:     state.NewStore(),
		selection: selection.New(),
		gate:      confirm.New(),
		notes:     notify.New(opts.NotifyTTL, log.Default(log.ComponentNotify), opts.Sinks...),
		caches:    cache.NewManager(),
		logger:    opts.Logger,
		currency:  code,
	}
	c.session = session.New(opts.Backend, opts.Store, log.Default(log.ComponentSession))
	if ts, ok := opts.Backend.(tokenSetter); ok {
		ts.SetTokenSource(c.session)
	}
	c.sync = services.NewSyncOrchestrator(opts.Backend, c.session, c.store, opts.Sync)

	plans := cache.NewLRUCache[core.GoalPlan](opts.PlanCacheSize, opts.PlanCacheTTL)
	c.caches.Register(plans)
	c.caches.StartCleanup(cacheSweepInterval)

	c.mutations = services.NewMutationGateway(services.MutationDeps{
		Backend:          opts.Backend,
		Refresher:        c,
		Notifier:         c.notes,
		Gate:             c.gate,
		Selection:        c.selection,
		View:             c.store,
		Plans:            plans,
		StatementDeleted: c.dropFromFilter,
	})

	c.session.OnLogout(c.clear)
	return c, nil
}

// Close stops background work. The controller must not be used after.
func (c *Controller) Close() {
	c.caches.Stop()
	c.notes.Clear()
	c.notes.Wait()
}

// clear wipes every piece of user data so nothing of one account is
// visible to the next.
func (c *Controller) clear(ctx context.Context) {
	c.store.Reset()
	c.selection.Clear()
	c.gate.Cancel()
	c.mutations.Reset()
	c.notes.Clear()

	c.mu.Lock()
	c.filter = nil
	c.search = ""
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "Cleared user data", log.FieldOperation, log.OpLogout)
}

// Session

func (c *Controller) Session() *session.Session {
	return c.session
}

// Login authenticates and loads the dashboard. A failed resync does not
// fail the login; it is logged by the orchestrator.
func (c *Controller) Login(ctx context.Context, creds core.Credentials) error {
	if err := c.session.Login(ctx, creds); err != nil {
		return err
	}
	c.afterAuth(ctx)
	return nil
}

func (c *Controller) Register(ctx context.Context, r core.Registration) error {
	if err := c.session.Register(ctx, r); err != nil {
		return err
	}
	c.afterAuth(ctx)
	return nil
}

func (c *Controller) Logout(ctx context.Context) {
	c.session.Logout(ctx)
}

// Restore resumes a persisted session and its currency preference, then
// loads the dashboard when the session is still valid.
func (c *Controller) Restore(ctx context.Context) (bool, error) {
	c.loadCurrency(ctx)
	ok, err := c.session.Restore(ctx)
	if err != nil || !ok {
		return false, err
	}
	c.afterAuth(ctx)
	return true, nil
}

func (c *Controller) afterAuth(ctx context.Context) {
	_ = c.Resync(ctx)
}

// Sync

// Resync reloads the view model under the current statement filter.
func (c *Controller) Resync(ctx context.Context) error {
	return c.sync.ResyncScoped(ctx, c.StatementFilter)
}

// Refresh is the resync run after a successful mutation.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.Resync(ctx)
}

// StatementFilter returns the statement ids transactions are limited to.
// Empty means all transactions.
func (c *Controller) StatementFilter() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.filter)
}

// SetStatementFilter replaces the filter and resyncs.
func (c *Controller) SetStatementFilter(ctx context.Context, ids []int64) error {
	filter := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(filter, id) {
			filter = append(filter, id)
		}
	}
	c.mu.Lock()
	c.filter = filter
	c.mu.Unlock()
	return c.Resync(ctx)
}

// ToggleStatementFilter adds or removes one statement and resyncs.
func (c *Controller) ToggleStatementFilter(ctx context.Context, id int64) error {
	c.mu.Lock()
	if i := slices.Index(c.filter, id); i >= 0 {
		c.filter = slices.Delete(c.filter, i, i+1)
	} else {
		c.filter = append(c.filter, id)
	}
	c.mu.Unlock()
	return c.Resync(ctx)
}

func (c *Controller) dropFromFilter(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = slices.DeleteFunc(c.filter, func(v int64) bool { return v == id })
}

// View

func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = term
}

func (c *Controller) Search() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.search
}

func (c *Controller) Snapshot() state.ViewModel {
	return c.store.Snapshot()
}

// Dashboard derives the overview from the current snapshot and search.
func (c *Controller) Dashboard() derived.Dashboard {
	return derived.Build(c.store.Snapshot(), c.Search())
}

// Selection

func (c *Controller) ToggleSelection(id int64) bool {
	return c.selection.Toggle(id)
}

// SelectAll toggles between selecting every visible transaction and
// selecting none.
func (c *Controller) SelectAll() {
	c.selection.SelectAll(c.Dashboard().VisibleIDs())
}

func (c *Controller) Selected() []int64 {
	return c.selection.IDs()
}

// RequestBulkDelete asks to delete the selected transactions that are
// currently visible.
func (c *Controller) RequestBulkDelete() error {
	return c.mutations.RequestBulkDelete(c.Dashboard().VisibleIDs())
}

// Confirmation

func (c *Controller) Pending() (confirm.Prompt, bool) {
	return c.gate.Pending()
}

func (c *Controller) Confirm(ctx context.Context) error {
	return c.gate.Confirm(ctx)
}

func (c *Controller) Cancel() {
	c.gate.Cancel()
}

// Mutations exposes the write operations.
func (c *Controller) Mutations() *services.MutationGateway {
	return c.mutations
}

// Notifications

func (c *Controller) Notification() (notify.Notification, bool) {
	return c.notes.Current()
}

func (c *Controller) Dismiss(id string) bool {
	return c.notes.Dismiss(id)
}

// Currency

func (c *Controller) Currency() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currency
}

// SetCurrency switches the display currency and persists the choice. A
// persistence failure keeps the switch and is only logged.
func (c *Controller) SetCurrency(ctx context.Context, code string) error {
	if !currency.Supported(code) {
		return fmt.Errorf("%w: %s", ErrUnsupportedCurrency, code)
	}
	c.mu.Lock()
	c.currency = code
	c.mu.Unlock()

	if err := c.prefs.SetPreference(ctx, currency.PreferenceKey, code); err != nil {
		c.logger.WarnContext(ctx, "Failed to persist currency preference", log.FieldError, err)
	}
	return nil
}

// FormatMoney renders amount in the selected currency.
func (c *Controller) FormatMoney(amount float64) string {
	return currency.Format(c.Currency(), amount)
}

func (c *Controller) loadCurrency(ctx context.Context) {
	code, ok, err := c.prefs.Preference(ctx, currency.PreferenceKey)
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "Failed to load currency preference", log.FieldError, err)
	case ok && currency.Supported(code):
		c.mu.Lock()
		c.currency = code
		c.mu.Unlock()
	}
}

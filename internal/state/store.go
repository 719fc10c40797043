package state

import (
	"slices"
	"sync"

	"finboard/internal/core"
)

// Patch is the set of collections one resync wave resolved, tagged with
// the sequence number of the resync that fetched them.
type Patch struct {
	seq  uint64
	sets map[Collection]func(*ViewModel)
}

// NewPatch starts an empty patch for resync seq.
func NewPatch(seq uint64) *Patch {
	return &Patch{seq: seq, sets: map[Collection]func(*ViewModel){}}
}

func (p *Patch) Seq() uint64 { return p.seq }

// Len is the number of collections carried by the patch.
func (p *Patch) Len() int { return len(p.sets) }

// Has reports whether the patch carries c.
func (p *Patch) Has(c Collection) bool {
	_, ok := p.sets[c]
	return ok
}

func (p *Patch) set(c Collection, fn func(*ViewModel)) *Patch {
	p.sets[c] = fn
	return p
}

func (p *Patch) SetTransactions(v []*core.Transaction) *Patch {
	return p.set(Transactions, func(vm *ViewModel) { vm.Transactions = v })
}

func (p *Patch) SetSpending(v map[string]float64) *Patch {
	return p.set(Spending, func(vm *ViewModel) { vm.Spending = v })
}

func (p *Patch) SetForecast(v []core.ForecastPoint) *Patch {
	return p.set(Forecast, func(vm *ViewModel) { vm.Forecast = v })
}

func (p *Patch) SetBudgets(v []core.Budget) *Patch {
	return p.set(Budgets, func(vm *ViewModel) { vm.Budgets = v })
}

func (p *Patch) SetSummary(v *core.AnalyticsSummary) *Patch {
	return p.set(Summary, func(vm *ViewModel) { vm.Summary = v })
}

func (p *Patch) SetSubscriptions(v []core.Subscription) *Patch {
	return p.set(Subscriptions, func(vm *ViewModel) { vm.Subscriptions = v })
}

func (p *Patch) SetIncomePatterns(v []core.IncomePattern) *Patch {
	return p.set(IncomePatterns, func(vm *ViewModel) { vm.IncomePatterns = v })
}

func (p *Patch) SetSavings(v []core.SavingsPoint) *Patch {
	return p.set(Savings, func(vm *ViewModel) { vm.Savings = v })
}

func (p *Patch) SetBillReminders(v []core.BillReminder) *Patch {
	return p.set(BillReminders, func(vm *ViewModel) { vm.BillReminders = v })
}

func (p *Patch) SetStatements(v []core.Statement) *Patch {
	return p.set(Statements, func(vm *ViewModel) { vm.Statements = v })
}

func (p *Patch) SetGoals(v []core.Goal) *Patch {
	return p.set(Goals, func(vm *ViewModel) { vm.Goals = v })
}

func (p *Patch) SetEmergency(v core.Emergency) *Patch {
	return p.set(Emergency, func(vm *ViewModel) { vm.Emergency = v })
}

func (p *Patch) SetPersonality(v *core.SpendingPersonality) *Patch {
	return p.set(Personality, func(vm *ViewModel) { vm.Personality = v })
}

// ApplyResult lists what a patch changed and what it lost to newer data.
type ApplyResult struct {
	Applied   []Collection
	Discarded []Collection
}

// Store owns the view model and the resync sequence.
//
// A collection result from resync n is merged only if no resync newer
// than n has already merged that collection, and only if the store was
// not reset after n was issued.
type Store struct {
	mu      sync.RWMutex
	vm      ViewModel
	seq     uint64
	floor   uint64
	applied map[Collection]uint64
	version uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{applied: map[Collection]uint64{}}
}

// NextSeq issues the sequence number for a new resync.
func (s *Store) NextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Begin issues the sequence number for a new resync and reads its scope
// in the same step, so a later sequence number never carries an older
// scope. scope must not call back into the store.
func (s *Store) Begin(scope func() []int64) (uint64, []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	var ids []int64
	if scope != nil {
		ids = slices.Clone(scope())
	}
	return s.seq, ids
}

// Apply merges p in one step. Readers never observe a partially applied patch.
func (s *Store) Apply(p *Patch) ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res ApplyResult
	for c, fn := range p.sets {
		if p.seq <= s.floor || p.seq < s.applied[c] {
			res.Discarded = append(res.Discarded, c)
			continue
		}
		fn(&s.vm)
		s.applied[c] = p.seq
		res.Applied = append(res.Applied, c)
	}
	if len(res.Applied) > 0 {
		s.version++
	}
	slices.Sort(res.Applied)
	slices.Sort(res.Discarded)
	return res
}

// Reset empties the view model and invalidates every resync issued so far.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vm = ViewModel{}
	s.floor = s.seq
	s.applied = map[Collection]uint64{}
	s.version++
}

// Snapshot returns a copy of the current view model.
func (s *Store) Snapshot() ViewModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vm
}

// Version increases every time the view model changes.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Seq is the last issued sequence number.
func (s *Store) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

package state

import (
	"sync"
	"testing"

	"finboard/internal/core"
)

func txns(descs ...string) []*core.Transaction {
	out := make([]*core.Transaction, len(descs))
	for i, d := range descs {
		out[i] = &core.Transaction{ID: int64(i + 1), Description: d}
	}
	return out
}

func TestStore_LatestRequestWins(t *testing.T) {
	s := NewStore()
	older := s.NextSeq()
	newer := s.NextSeq()

	// Newer resolves first; the slow older result must not overwrite it.
	res := s.Apply(NewPatch(newer).SetTransactions(txns("filtered")))
	if len(res.Applied) != 1 {
		t.Fatalf("expected newer patch applied, got %+v", res)
	}
	res = s.Apply(NewPatch(older).SetTransactions(txns("unfiltered", "extra")).SetGoals([]core.Goal{{ID: 1}}))
	if len(res.Discarded) != 1 || res.Discarded[0] != Transactions {
		t.Fatalf("expected stale transactions discarded, got %+v", res)
	}
	// Goals had no newer result, so the older one still lands.
	if len(res.Applied) != 1 || res.Applied[0] != Goals {
		t.Fatalf("expected goals applied, got %+v", res)
	}

	vm := s.Snapshot()
	if len(vm.Transactions) != 1 || vm.Transactions[0].Description != "filtered" {
		t.Fatalf("unexpected transactions %+v", vm.Transactions)
	}
	if len(vm.Goals) != 1 {
		t.Fatalf("expected goals merged")
	}
}

func TestStore_SameSequenceLaterWave(t *testing.T) {
	s := NewStore()
	seq := s.NextSeq()
	s.Apply(NewPatch(seq).SetStatements([]core.Statement{{ID: 1}}))
	res := s.Apply(NewPatch(seq).SetStatements([]core.Statement{{ID: 1}, {ID: 2}}))
	if len(res.Applied) != 1 {
		t.Fatalf("same sequence must be able to rewrite its own collection: %+v", res)
	}
}

func TestStore_ResetDiscardsInFlight(t *testing.T) {
	s := NewStore()
	inFlight := s.NextSeq()
	s.Apply(NewPatch(inFlight).SetBudgets([]core.Budget{{ID: 1, Category: "Food", Amount: 10}}))

	s.Reset()
	if !s.Snapshot().Empty() {
		t.Fatal("expected empty view model after reset")
	}

	res := s.Apply(NewPatch(inFlight).SetTransactions(txns("leak")))
	if len(res.Applied) != 0 {
		t.Fatalf("result issued before reset must be discarded: %+v", res)
	}
	if !s.Snapshot().Empty() {
		t.Fatal("view model leaked data after reset")
	}

	fresh := s.NextSeq()
	if res := s.Apply(NewPatch(fresh).SetTransactions(txns("next session"))); len(res.Applied) != 1 {
		t.Fatalf("fresh resync should apply: %+v", res)
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := NewStore()
	seq := s.NextSeq()
	s.Apply(NewPatch(seq).SetTransactions(txns("a")))
	snap := s.Snapshot()

	s.Apply(NewPatch(s.NextSeq()).SetTransactions(txns("b", "c")))
	if len(snap.Transactions) != 1 || snap.Transactions[0].Description != "a" {
		t.Fatal("snapshot changed after a later apply")
	}
	if s.Version() != 2 {
		t.Fatalf("Version() = %d, want 2", s.Version())
	}
}

func TestStore_ConcurrentApply(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq := s.NextSeq()
			s.Apply(NewPatch(seq).SetForecast([]core.ForecastPoint{{YHat: float64(seq)}}))
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	// Whatever order they landed in, the highest sequence must be visible.
	vm := s.Snapshot()
	if got := vm.Forecast[0].YHat; got != 50 {
		t.Fatalf("expected forecast from seq 50, got %v", got)
	}
}

func TestStore_BeginReadsScopeWithSequence(t *testing.T) {
	s := NewStore()
	scope := []int64{7, 9}

	seq, ids := s.Begin(func() []int64 { return scope })
	if seq != 1 || s.Seq() != 1 {
		t.Fatalf("expected sequence 1, got %d", seq)
	}
	scope[0] = 42
	if ids[0] != 7 || len(ids) != 2 {
		t.Fatalf("scope must be copied when issued, got %v", ids)
	}

	seq, ids = s.Begin(nil)
	if seq != 2 || ids != nil {
		t.Fatalf("nil scope means all statements, got seq=%d ids=%v", seq, ids)
	}
}

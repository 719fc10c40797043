package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDateJSON(t *testing.T) {
	var tx Transaction
	if err := json.Unmarshal([]byte(`{"id":7,"date":"2025-03-04","description":"Rent","amount":-900,"category":null,"source":"manual"}`), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tx.Date.String() != "2025-03-04" {
		t.Fatalf("unexpected date %q", tx.Date.String())
	}
	if tx.Category != nil || tx.CategoryName() != "" {
		t.Fatalf("expected nil category, got %v", tx.Category)
	}

	var ts Date
	if err := json.Unmarshal([]byte(`"2025-03-04T10:00:00"`), &ts); err != nil {
		t.Fatalf("timestamp: %v", err)
	}
	if ts.String() != "2025-03-04" {
		t.Fatalf("unexpected timestamp date %q", ts.String())
	}

	b, err := json.Marshal(NewDate(2025, 1, 2))
	if err != nil || string(b) != `"2025-01-02"` {
		t.Fatalf("marshal: %s %v", b, err)
	}

	if err := json.Unmarshal([]byte(`"not-a-date"`), &ts); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestNewTransactionValidate(t *testing.T) {
	good := NewTransaction{Date: NewDate(2025, 1, 1), Description: "Coffee", Amount: -3.5, Source: SourceManual}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		tx  NewTransaction
		err error
	}{
		{NewTransaction{Description: "a", Amount: 1}, ErrInvalidDate},
		{NewTransaction{Date: NewDate(2025, 1, 1), Description: " ", Amount: 1}, ErrEmptyDescription},
		{NewTransaction{Date: NewDate(2025, 1, 1), Description: "a"}, ErrInvalidAmount},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestInputValidation(t *testing.T) {
	cases := []struct {
		name string
		v    interface{ Validate() error }
		want error
	}{
		{"budget ok", BudgetInput{Category: "Dining", Amount: 100}, nil},
		{"budget no category", BudgetInput{Amount: 100}, ErrEmptyCategory},
		{"budget zero amount", BudgetInput{Category: "Dining"}, ErrInvalidAmount},
		{"goal ok", GoalInput{Name: "Car", TargetAmount: 500, Deadline: "2026-01-01"}, nil},
		{"goal no deadline", GoalInput{Name: "Car", TargetAmount: 500}, ErrEmptyDeadline},
		{"reminder ok", BillReminderInput{Name: "Rent", Amount: 900, DueDay: 31}, nil},
		{"reminder day 0", BillReminderInput{Name: "Rent", Amount: 900, DueDay: 0}, ErrInvalidDueDay},
		{"reminder day 32", BillReminderInput{Name: "Rent", Amount: 900, DueDay: 32}, ErrInvalidDueDay},
		{"edit no id", TransactionEdit{Description: "x"}, ErrInvalidID},
		{"credentials", Credentials{Username: "ann"}, ErrEmptyPassword},
		{"registration", Registration{Username: "ann", Password: "pw"}, ErrEmptyEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.v.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSpendingFromMap(t *testing.T) {
	got := SpendingFromMap(map[string]float64{"Rent": 900, "Dining": 150, "Books": 150})
	want := []string{"Rent", "Books", "Dining"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, got[i].Name)
		}
	}
}

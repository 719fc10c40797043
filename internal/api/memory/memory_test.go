package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"finboard/internal/api"
	"finboard/internal/core"
)

func TestLoginIssuesToken(t *testing.T) {
	b := New()
	b.AddUser("ana", "secret", "ana@example.com")

	if _, err := b.Login(context.Background(), core.Credentials{Username: "ana", Password: "bad"}); !api.IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}

	res, err := b.Login(context.Background(), core.Credentials{Username: "ana", Password: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if strings.Count(res.AccessToken, ".") != 2 {
		t.Fatalf("expected a JWT, got %q", res.AccessToken)
	}
	me, err := b.Me(context.Background())
	if err != nil || me.Username != "ana" {
		t.Fatalf("Me = %+v, %v", me, err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	b := New()
	b.AddUser("ana", "secret", "ana@example.com")

	_, err := b.Register(context.Background(), core.Registration{Username: "ana", Email: "other@example.com", Password: "x"})
	if api.Detail(err) != "Username already taken" {
		t.Fatalf("unexpected error %v", err)
	}
	_, err = b.Register(context.Background(), core.Registration{Username: "bo", Email: "ANA@example.com", Password: "x"})
	if api.Detail(err) != "Email already registered" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestStatementFilterAndCascade(t *testing.T) {
	b := New()
	s1 := b.AddStatement("a.csv")
	s2 := b.AddStatement("b.csv")
	b.AddTransaction(core.Transaction{Date: core.NewDate(2026, 1, 1), Description: "one", Amount: -1}, s1.ID)
	b.AddTransaction(core.Transaction{Date: core.NewDate(2026, 1, 2), Description: "two", Amount: -2}, s2.ID)
	b.AddTransaction(core.Transaction{Date: core.NewDate(2026, 1, 3), Description: "manual", Amount: 5}, 0)

	ctx := context.Background()
	all, _ := b.ListTransactions(ctx, nil)
	if len(all) != 3 || all[0].Description != "manual" {
		t.Fatalf("expected 3 transactions newest first, got %d", len(all))
	}
	only1, _ := b.ListTransactions(ctx, []int64{s1.ID})
	if len(only1) != 1 || only1[0].Description != "one" {
		t.Fatalf("unexpected filtered list %+v", only1)
	}

	ack, err := b.DeleteStatement(ctx, s1.ID)
	if err != nil {
		t.Fatalf("DeleteStatement: %v", err)
	}
	if ack.Message != "Deleted statement 'a.csv' and 1 transactions" {
		t.Fatalf("message = %q", ack.Message)
	}
	all, _ = b.ListTransactions(ctx, nil)
	if len(all) != 2 {
		t.Fatalf("expected cascade delete, %d left", len(all))
	}
}

func TestSaveBudgetUpsertsByCategory(t *testing.T) {
	b := New()
	ctx := context.Background()
	first, _ := b.SaveBudget(ctx, core.BudgetInput{Category: "Food", Amount: 100})
	second, _ := b.SaveBudget(ctx, core.BudgetInput{Category: "Food", Amount: 150})
	if first.ID != second.ID || second.Amount != 150 {
		t.Fatalf("expected upsert, got %+v then %+v", first, second)
	}
	list, _ := b.ListBudgets(ctx)
	if len(list) != 1 {
		t.Fatalf("expected one budget, got %d", len(list))
	}
}

func TestHookFailsEndpoint(t *testing.T) {
	b := NewDemo()
	boom := errors.New("boom")
	b.Hook = func(_ context.Context, endpoint string) error {
		if endpoint == EndpointForecast {
			return boom
		}
		return nil
	}

	if _, err := b.Forecast(context.Background(), 30); !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if _, err := b.ListBudgets(context.Background()); err != nil {
		t.Fatalf("other endpoints unaffected: %v", err)
	}
	if b.Calls(EndpointForecast) != 1 {
		t.Fatalf("Calls = %d", b.Calls(EndpointForecast))
	}
}

func TestUploadStatement(t *testing.T) {
	b := New()
	csvBody := "date,description,amount,category\n2026-02-01,Coffee,-3.50,Food\n2026-02-02,Refund,12,\n"

	res, err := b.UploadStatement(context.Background(), "feb.csv", strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("UploadStatement: %v", err)
	}
	if res.TransactionsCount != 2 {
		t.Fatalf("TransactionsCount = %d", res.TransactionsCount)
	}
	stmts, _ := b.ListStatements(context.Background())
	if len(stmts) != 1 || stmts[0].TransactionCount != 2 {
		t.Fatalf("unexpected statements %+v", stmts)
	}

	if _, err := b.UploadStatement(context.Background(), "bad.csv", strings.NewReader("foo,bar\n")); err == nil {
		t.Fatal("expected error for missing columns")
	}
}

package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"evpanel/internal/core"
	"evpanel/internal/store"
)

func TestListFixedCharges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/fixed_charges" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("order"); got != "id.asc" {
			t.Errorf("order = %q, want id.asc", got)
		}
		if r.Header.Get("apikey") == "" || r.Header.Get("Authorization") == "" {
			t.Error("missing auth headers")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":1,"description":"Kira","amount":15000.00,"paid":false},
			{"id":2,"description":"İnternet","amount":400.50,"paid":true}
		]`))
	}))
	defer srv.Close()

	cli := New(srv.URL, "test-key")
	charges, err := cli.ListFixedCharges(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(charges) != 2 {
		t.Fatalf("expected 2 charges, got %d", len(charges))
	}
	if charges[0].Amount.Cents != 1500000 {
		t.Errorf("amount = %d, want 1500000", charges[0].Amount.Cents)
	}
	if !charges[1].Paid {
		t.Error("second charge should be paid")
	}
}

func TestListTransactionsWindowQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("date"); got != "gte.2024-03-01" {
			t.Errorf("date filter = %q, want gte.2024-03-01", got)
		}
		if got := r.URL.Query().Get("order"); got != "date.desc" {
			t.Errorf("order = %q, want date.desc", got)
		}
		w.Write([]byte(`[{"id":7,"date":"2024-03-15","description":"Maaş","amount":500,"kind":"income"}]`))
	}))
	defer srv.Close()

	cli := New(srv.URL, "test-key")
	txs, err := cli.ListTransactions(context.Background(), core.NewDate(2024, 3, 1))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 || txs[0].Kind != core.Income || txs[0].Amount.Cents != 50000 {
		t.Fatalf("unexpected result: %+v", txs)
	}
}

func TestUpdateFixedChargePaid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		if got := r.URL.Query().Get("id"); got != "eq.3" {
			t.Errorf("id filter = %q, want eq.3", got)
		}
		if got := r.Header.Get("Prefer"); got != "return=representation" {
			t.Errorf("Prefer = %q", got)
		}
		w.Write([]byte(`[{"id":3,"description":"Su","amount":90,"paid":true}]`))
	}))
	defer srv.Close()

	cli := New(srv.URL, "test-key")
	charge, err := cli.UpdateFixedChargePaid(context.Background(), 3, true)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if charge.ID != 3 || !charge.Paid {
		t.Fatalf("unexpected charge: %+v", charge)
	}
}

func TestUpdateMissingRowReturnsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`)) // patch matched no rows
	}))
	defer srv.Close()

	cli := New(srv.URL, "test-key")
	_, err := cli.UpdateFixedChargePaid(context.Background(), 42, true)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":11,"date":"2024-03-20","description":"Market","amount":80,"kind":"expense"}]`))
	}))
	defer srv.Close()

	cli := New(srv.URL, "test-key")
	tx := core.Transaction{
		Date:        core.NewDate(2024, 3, 20),
		Description: "Market",
		Amount:      core.Money{Cents: 8000},
		Kind:        core.Expense,
	}
	created, err := cli.AppendTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if created.ID != 11 {
		t.Fatalf("expected store-assigned id 11, got %d", created.ID)
	}
}

func TestAppendRejectsInvalidBeforeAnyCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	cli := New(srv.URL, "test-key")
	bad := core.Transaction{
		Date:        core.NewDate(2024, 3, 20),
		Description: "Market",
		Amount:      core.Money{Cents: -1000},
		Kind:        core.Expense,
	}
	if _, err := cli.AppendTransaction(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if called {
		t.Fatal("no store call may be issued for an invalid transaction")
	}
}

func TestServerErrorsMapToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cli := New(srv.URL, "test-key")
	if _, err := cli.ListFixedCharges(context.Background()); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on 500, got %v", err)
	}
}

func TestAuthErrorsMapToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cli := New(srv.URL, "bad-key")
	if _, err := cli.ListTransactions(context.Background(), core.NewDate(2024, 3, 1)); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on 401, got %v", err)
	}
}

func TestUnreachableStoreMapsToUnavailable(t *testing.T) {
	cli := New("http://127.0.0.1:1", "test-key")
	if _, err := cli.ListFixedCharges(context.Background()); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on connection failure, got %v", err)
	}
}

package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"evpanel/internal/store"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeValuesAPI serves the two spreadsheet values endpoints the client uses:
// GET returns the configured rows, PUT records the updated range and body.
type fakeValuesAPI struct {
	rows    [][]interface{}
	failGet bool

	updatedRanges []string
	lastUpdate    *gsheet.ValueRange
}

func (f *fakeValuesAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, err := url.PathUnescape(r.URL.Path)
	if err != nil {
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}
	idx := strings.LastIndex(path, "/values/")
	if idx < 0 {
		http.NotFound(w, r)
		return
	}
	rng := path[idx+len("/values/"):]

	switch r.Method {
	case http.MethodGet:
		if f.failGet {
			http.Error(w, "backend unavailable", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(gsheet.ValueRange{Range: rng, Values: f.rows})
	case http.MethodPut:
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		f.updatedRanges = append(f.updatedRanges, rng)
		f.lastUpdate = &vr
		json.NewEncoder(w).Encode(gsheet.UpdateValuesResponse{UpdatedRange: rng})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, fake *fakeValuesAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithoutAuthentication(),
		goption.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("create sheets service: %v", err)
	}
	return &Client{
		svc:               svc,
		spreadsheetID:     "sheet-under-test",
		fixedChargesSheet: "FixedCharges",
		transactionsSheet: "Transactions",
	}
}

func TestUpdateFixedChargePaidWritesMatchingCell(t *testing.T) {
	// The malformed row still occupies a spreadsheet row, so the target
	// charge (raw index 2) must map to data row 4 in the paid column.
	fake := &fakeValuesAPI{rows: [][]interface{}{
		{"1", "Kira", "15000,00", "FALSE"},
		{"not-an-id", "stray note"},
		{"3", "Elektrik", "850,00", "FALSE"},
	}}
	client := newTestClient(t, fake)

	charge, err := client.UpdateFixedChargePaid(context.Background(), 3, true)
	if err != nil {
		t.Fatalf("UpdateFixedChargePaid: %v", err)
	}

	if len(fake.updatedRanges) != 1 {
		t.Fatalf("expected 1 update, got %d (%v)", len(fake.updatedRanges), fake.updatedRanges)
	}
	if got, want := fake.updatedRanges[0], "FixedCharges!D4"; got != want {
		t.Errorf("updated range = %q, want %q", got, want)
	}
	if fake.lastUpdate == nil || len(fake.lastUpdate.Values) != 1 || len(fake.lastUpdate.Values[0]) != 1 {
		t.Fatalf("unexpected update body: %+v", fake.lastUpdate)
	}
	if got := fake.lastUpdate.Values[0][0]; got != "TRUE" {
		t.Errorf("updated cell = %v, want TRUE", got)
	}

	if charge.ID != 3 || charge.Description != "Elektrik" || !charge.Paid {
		t.Errorf("unexpected charge returned: %+v", charge)
	}
	if charge.Amount.Cents != 85000 {
		t.Errorf("charge amount = %d cents, want 85000", charge.Amount.Cents)
	}
}

func TestUpdateFixedChargePaidUnknownID(t *testing.T) {
	fake := &fakeValuesAPI{rows: [][]interface{}{
		{"1", "Kira", "15000,00", "FALSE"},
	}}
	client := newTestClient(t, fake)

	_, err := client.UpdateFixedChargePaid(context.Background(), 42, true)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(fake.updatedRanges) != 0 {
		t.Errorf("expected no updates for unknown id, got %v", fake.updatedRanges)
	}
}

func TestUpdateFixedChargePaidReadFailure(t *testing.T) {
	fake := &fakeValuesAPI{failGet: true}
	client := newTestClient(t, fake)

	_, err := client.UpdateFixedChargePaid(context.Background(), 1, true)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestListFixedChargesSkipsMalformedRows(t *testing.T) {
	fake := &fakeValuesAPI{rows: [][]interface{}{
		{"2", "İnternet", "450,00", "TRUE"},
		{"", "", ""},
		{"1", "Kira", "15000,00", "FALSE"},
		{"id", "description", "amount", "paid"},
	}}
	client := newTestClient(t, fake)

	charges, err := client.ListFixedCharges(context.Background())
	if err != nil {
		t.Fatalf("ListFixedCharges: %v", err)
	}
	if len(charges) != 2 {
		t.Fatalf("expected 2 charges, got %d", len(charges))
	}
	// Sorted by id regardless of sheet order
	if charges[0].ID != 1 || charges[1].ID != 2 {
		t.Errorf("unexpected order: %+v", charges)
	}
	if !charges[1].Paid || charges[0].Paid {
		t.Errorf("paid flags wrong: %+v", charges)
	}
}

func TestNewFromEnvMissingSpreadsheetID(t *testing.T) {
	oldID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	defer os.Setenv("GOOGLE_SPREADSHEET_ID", oldID)
	os.Unsetenv("GOOGLE_SPREADSHEET_ID")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if !strings.Contains(err.Error(), "GOOGLE_SPREADSHEET_ID") {
		t.Errorf("unexpected error: %v", err)
	}
}

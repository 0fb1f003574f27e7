// Package sheets implements the record store ports on top of a Google
// spreadsheet, with one tab per logical table. It exists for households that
// keep their books in Sheets instead of a hosted database.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"evpanel/internal/core"
	"evpanel/internal/store"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const dateLayout = "2006-01-02"

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	fixedChargesSheet string
	transactionsSheet string
}

// Ensure interface conformance
var (
	_ store.FixedChargeLister   = (*Client)(nil)
	_ store.FixedChargeUpdater  = (*Client)(nil)
	_ store.TransactionLister   = (*Client)(nil)
	_ store.TransactionAppender = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional tab names: GOOGLE_FIXED_CHARGES_SHEET (default "FixedCharges"),
// GOOGLE_TRANSACTIONS_SHEET (default "Transactions").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	chargesSheet := strings.TrimSpace(os.Getenv("GOOGLE_FIXED_CHARGES_SHEET"))
	if chargesSheet == "" {
		chargesSheet = "FixedCharges"
	}
	txSheet := strings.TrimSpace(os.Getenv("GOOGLE_TRANSACTIONS_SHEET"))
	if txSheet == "" {
		txSheet = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		fixedChargesSheet: chargesSheet,
		transactionsSheet: txSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Fixed charge tab layout: A=id, B=description, C=amount, D=paid.
// Transaction tab layout: A=id, B=date, C=description, D=amount, E=kind.
// Both tabs carry a header row.

func (c *Client) ListFixedCharges(ctx context.Context) ([]core.FixedCharge, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:D", c.fixedChargesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", store.ErrUnavailable, rng, err)
	}

	var charges []core.FixedCharge
	for _, row := range resp.Values {
		charge, ok := rowToCharge(toStrings(row))
		if !ok {
			continue
		}
		charges = append(charges, charge)
	}
	sort.Slice(charges, func(i, j int) bool { return charges[i].ID < charges[j].ID })
	return charges, nil
}

func (c *Client) UpdateFixedChargePaid(ctx context.Context, id int64, paid bool) (core.FixedCharge, error) {
	if c.svc == nil {
		return core.FixedCharge{}, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:D", c.fixedChargesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return core.FixedCharge{}, fmt.Errorf("%w: read %s: %v", store.ErrUnavailable, rng, err)
	}

	for i, row := range resp.Values {
		charge, ok := rowToCharge(toStrings(row))
		if !ok || charge.ID != id {
			continue
		}
		// Data starts at row 2 (header at row 1)
		cellRange := fmt.Sprintf("%s!D%d", c.fixedChargesSheet, i+2)
		vr := &gsheet.ValueRange{Values: [][]any{{boolCell(paid)}}}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, cellRange, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return core.FixedCharge{}, fmt.Errorf("%w: update %s: %v", store.ErrUnavailable, cellRange, err)
		}
		charge.Paid = paid
		return charge, nil
	}
	return core.FixedCharge{}, fmt.Errorf("charge id=%d: %w", id, store.ErrNotFound)
}

func (c *Client) ListTransactions(ctx context.Context, from core.Date) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:E", c.transactionsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", store.ErrUnavailable, rng, err)
	}

	var txs []core.Transaction
	for _, row := range resp.Values {
		tx, ok := rowToTransaction(toStrings(row))
		if !ok || tx.Date.Before(from) {
			continue
		}
		txs = append(txs, tx)
	}
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[j].Date.Before(txs[i].Date)
		}
		return txs[i].ID > txs[j].ID
	})
	return txs, nil
}

func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if c.svc == nil {
		return core.Transaction{}, errors.New("sheets service not initialized")
	}

	// Derive the next id and row from the current id column.
	rng := fmt.Sprintf("%s!A:A", c.transactionsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: read %s: %v", store.ErrUnavailable, rng, err)
	}
	nextRow := len(resp.Values) + 1
	t.ID = nextIDFromColumn(resp.Values)

	dataRange := fmt.Sprintf("%s!A%d:E%d", c.transactionsSheet, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{{
		t.ID,
		t.Date.Format(dateLayout),
		t.Description,
		t.Amount.String(),
		string(t.Kind),
	}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: write %s: %v", store.ErrUnavailable, dataRange, err)
	}
	return t, nil
}

func boolCell(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// Package supabase implements the record store ports against a hosted
// Supabase project, speaking plain PostgREST over HTTP.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"evpanel/internal/core"
	"evpanel/internal/store"
)

const (
	fixedChargesTable = "fixed_charges"
	transactionsTable = "transactions"

	dateLayout = "2006-01-02"
)

type Client struct {
	httpClient *http.Client
	baseURL    string // e.g. https://xyz.supabase.co
	apiKey     string
}

// Ensure interface conformance
var (
	_ store.FixedChargeLister   = (*Client)(nil)
	_ store.FixedChargeUpdater  = (*Client)(nil)
	_ store.TransactionLister   = (*Client)(nil)
	_ store.TransactionAppender = (*Client)(nil)
)

// NewFromEnv creates a client from STORE_URL and STORE_KEY. The values live
// in the environment only; the keys are stable names, never the secrets
// themselves.
func NewFromEnv() (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("STORE_URL"))
	if baseURL == "" {
		return nil, errors.New("missing STORE_URL")
	}
	apiKey := strings.TrimSpace(os.Getenv("STORE_KEY"))
	if apiKey == "" {
		return nil, errors.New("missing STORE_KEY")
	}
	return New(baseURL, apiKey), nil
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: newHTTPClient(),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// newHTTPClient builds an HTTP client with pooling and timeouts tuned for a
// single hosted endpoint.
func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// chargeRecord is the wire shape of a fixed_charges row.
type chargeRecord struct {
	ID          int64       `json:"id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Paid        bool        `json:"paid"`
}

// transactionRecord is the wire shape of a transactions row.
type transactionRecord struct {
	ID          int64       `json:"id,omitempty"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Kind        string      `json:"kind"`
}

func (c *Client) ListFixedCharges(ctx context.Context) ([]core.FixedCharge, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "id.asc")

	body, err := c.do(ctx, http.MethodGet, fixedChargesTable, q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", fixedChargesTable, err)
	}

	var records []chargeRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", fixedChargesTable, err)
	}

	charges := make([]core.FixedCharge, 0, len(records))
	for _, rec := range records {
		charge, err := rec.toDomain()
		if err != nil {
			return nil, fmt.Errorf("row id=%d: %w", rec.ID, err)
		}
		charges = append(charges, charge)
	}
	return charges, nil
}

func (c *Client) UpdateFixedChargePaid(ctx context.Context, id int64, paid bool) (core.FixedCharge, error) {
	q := url.Values{}
	q.Set("id", fmt.Sprintf("eq.%d", id))

	patch, err := json.Marshal(map[string]bool{"paid": paid})
	if err != nil {
		return core.FixedCharge{}, fmt.Errorf("encode patch: %w", err)
	}

	body, err := c.do(ctx, http.MethodPatch, fixedChargesTable, q, patch, "return=representation")
	if err != nil {
		return core.FixedCharge{}, fmt.Errorf("update %s id=%d: %w", fixedChargesTable, id, err)
	}

	var records []chargeRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return core.FixedCharge{}, fmt.Errorf("decode update response: %w", err)
	}
	// PostgREST reports a patch that matched no rows as an empty result set.
	if len(records) == 0 {
		return core.FixedCharge{}, fmt.Errorf("update %s id=%d: %w", fixedChargesTable, id, store.ErrNotFound)
	}
	return records[0].toDomain()
}

func (c *Client) ListTransactions(ctx context.Context, from core.Date) ([]core.Transaction, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("date", "gte."+from.Format(dateLayout))
	q.Set("order", "date.desc")

	body, err := c.do(ctx, http.MethodGet, transactionsTable, q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", transactionsTable, err)
	}

	var records []transactionRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", transactionsTable, err)
	}

	txs := make([]core.Transaction, 0, len(records))
	for _, rec := range records {
		tx, err := rec.toDomain()
		if err != nil {
			return nil, fmt.Errorf("row id=%d: %w", rec.ID, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	payload, err := json.Marshal(transactionRecord{
		Date:        t.Date.Format(dateLayout),
		Description: t.Description,
		Amount:      json.Number(t.Amount.String()),
		Kind:        string(t.Kind),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("encode transaction: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, transactionsTable, nil, payload, "return=representation")
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert %s: %w", transactionsTable, err)
	}

	var records []transactionRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return core.Transaction{}, fmt.Errorf("decode insert response: %w", err)
	}
	if len(records) == 0 {
		return core.Transaction{}, fmt.Errorf("insert %s: empty representation: %w", transactionsTable, store.ErrUnavailable)
	}
	return records[0].toDomain()
}

// do performs one PostgREST request and returns the response body. Transport
// failures and auth or server errors are folded into store.ErrUnavailable.
func (c *Client) do(ctx context.Context, method, table string, query url.Values, payload []byte, prefer string) ([]byte, error) {
	endpoint := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", store.ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, store.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: auth rejected (status %d)", store.ErrUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d: %s", store.ErrUnavailable, resp.StatusCode, truncate(body, 200))
	}
}

func (r chargeRecord) toDomain() (core.FixedCharge, error) {
	amount, err := core.ParseAmount(r.Amount.String())
	if err != nil {
		return core.FixedCharge{}, fmt.Errorf("parse amount %q: %w", r.Amount, err)
	}
	return core.FixedCharge{
		ID:          r.ID,
		Description: r.Description,
		Amount:      amount,
		Paid:        r.Paid,
	}, nil
}

func (r transactionRecord) toDomain() (core.Transaction, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", r.Date, err)
	}
	amount, err := core.ParseAmount(r.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", r.Amount, err)
	}
	kind := core.TransactionKind(r.Kind)
	if !kind.Valid() {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidKind, r.Kind)
	}
	return core.Transaction{
		ID:          r.ID,
		Date:        core.Date{Time: date},
		Description: r.Description,
		Amount:      amount,
		Kind:        kind,
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

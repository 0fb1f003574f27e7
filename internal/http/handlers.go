package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"evpanel/internal/core"
	"evpanel/internal/report"
	"evpanel/internal/session"
	"evpanel/internal/store"
)

// View models for the templates. Amounts are preformatted strings so the
// templates never do arithmetic.
type chargeRow struct {
	ID          int64
	Description string
	Amount      string
	Paid        bool
}

type txRow struct {
	Date        string
	Description string
	Amount      string
	Income      bool
}

type panelData struct {
	PeriodLabel  string
	Advisories   []string
	Charges      []chargeRow
	Transactions []txRow

	Income    string
	Expenses  string
	PaidFixed string
	Balance   string
	Negative  bool
}

type indexData struct {
	Panel panelData
	Today string
}

func (s *Server) panelData(view session.View) panelData {
	data := panelData{
		PeriodLabel: fmt.Sprintf("%s %d", view.PeriodStart.Time.Month(), view.PeriodStart.Year()),
		Advisories:  view.Advisories,
		Income:      formatAmount(view.Balance.IncomeTotal.Cents, s.currency),
		Expenses:    formatAmount(view.Balance.ExpenseTotal.Cents, s.currency),
		PaidFixed:   formatAmount(view.Balance.PaidFixedTotal.Cents, s.currency),
		Balance:     formatAmount(view.Balance.Balance.Cents, s.currency),
		Negative:    view.Balance.Balance.Cents < 0,
	}
	for _, c := range view.FixedCharges {
		data.Charges = append(data.Charges, chargeRow{
			ID:          c.ID,
			Description: c.Description,
			Amount:      formatAmount(c.Amount.Cents, s.currency),
			Paid:        c.Paid,
		})
	}
	for _, t := range view.Transactions {
		data.Transactions = append(data.Transactions, txRow{
			Date:        t.Date.Format("2006-01-02"),
			Description: t.Description,
			Amount:      formatAmount(t.Amount.Cents, s.currency),
			Income:      t.Kind == core.Income,
		})
	}
	return data
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	view := s.sess.Snapshot(r.Context())
	data := indexData{
		Panel: s.panelData(view),
		Today: time.Now().Format("2006-01-02"),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handlePanel renders the dashboard panel partial (charges, transactions,
// balance). GET re-reads from the mirror; add refresh=1 to force a store
// round-trip.
func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var view session.View
	if r.URL.Query().Get("refresh") != "" {
		view = s.sess.Refresh(r.Context())
		s.reportCache.Purge()
	} else {
		view = s.sess.Snapshot(r.Context())
	}

	s.renderPanel(w, r, view)
}

func (s *Server) renderPanel(w http.ResponseWriter, r *http.Request, view session.View) {
	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="panel"><div class="placeholder">Balance: ` +
			template.HTMLEscapeString(formatAmount(view.Balance.Balance.Cents, s.currency)) + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "panel.html", s.panelData(view)); err != nil {
		slog.ErrorContext(r.Context(), "Panel template execution failed", "error", err, "template", "panel.html")
		_, _ = w.Write([]byte(`<section id="panel"><div class="error">Rendering failed</div></section>`))
	}
}

// handleTogglePaid flips a single charge's paid flag, writing through to the
// store before the mirror is touched.
func (s *Server) handleTogglePaid(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, err := strconv.ParseInt(r.Form.Get("id"), 10, 64)
	if err != nil {
		BadRequestError("Invalid charge id").Write(w)
		return
	}
	paid := r.Form.Get(fmt.Sprintf("paid-%d", id)) == "true"

	_, err = s.sess.SetPaid(r.Context(), id, paid)
	builder := NewHTMXResponse()
	refetch := false
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Stale row: the store no longer knows this id. Refetch so the UI
		// stops offering it.
		builder.TriggerErrorNotification("That charge no longer exists; the list was refreshed.")
		refetch = true
	case errors.Is(err, store.ErrUnavailable):
		builder.TriggerErrorNotification("Record store unreachable; the change was not saved.")
	case err != nil:
		slog.ErrorContext(r.Context(), "Toggle paid failed", "error", err, "id", id, "paid", paid)
		builder.TriggerErrorNotification("The change could not be saved.")
	default:
		s.reportCache.Purge()
	}

	var view session.View
	if refetch {
		view = s.sess.Refresh(r.Context())
	} else {
		view = s.sess.Snapshot(r.Context())
	}
	var buf bytes.Buffer
	s.renderPanel(&noHeaderWriter{&buf}, r, view)
	builder.BodyHTML(buf.String()).Write(w)
}

// handleCommitPaid applies a batch of paid-flag edits, one store call per
// changed row. Failed rows never block the rest of the batch.
func (s *Server) handleCommitPaid(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	view := s.sess.Snapshot(r.Context())
	var edits []session.PaidEdit
	for _, c := range view.FixedCharges {
		desired := r.Form.Get(fmt.Sprintf("paid-%d", c.ID)) == "true"
		if desired != c.Paid {
			edits = append(edits, session.PaidEdit{ID: c.ID, Paid: desired})
		}
	}

	builder := NewHTMXResponse()
	if len(edits) > 0 {
		result := s.sess.CommitPaid(r.Context(), edits)
		if len(result.Applied) > 0 {
			s.reportCache.Purge()
		}
		if len(result.Failed) > 0 {
			builder.TriggerErrorNotification(
				fmt.Sprintf("%d of %d changes could not be saved.", len(result.Failed), len(edits)))
			for _, f := range result.Failed {
				slog.WarnContext(r.Context(), "Batch commit row failed", "id", f.ID, "error", f.Err)
			}
		} else {
			builder.TriggerSuccessNotification("All changes saved.")
		}
	}

	var buf bytes.Buffer
	s.renderPanel(&noHeaderWriter{&buf}, r, s.sess.Snapshot(r.Context()))
	builder.BodyHTML(buf.String()).Write(w)
}

// handleCreateTransaction records a new income or expense entry.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	dateStr := sanitizeInput(r.Form.Get("date"))
	desc := sanitizeInput(r.Form.Get("description"))
	amountStr := sanitizeInput(r.Form.Get("amount"))
	kind := core.TransactionKind(sanitizeInput(r.Form.Get("kind")))

	date, err := parseDate(dateStr)
	if err != nil {
		UnprocessableEntityError("Invalid date").Write(w)
		return
	}

	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	tx := core.Transaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Kind:        kind,
	}

	saved, err := s.sess.Submit(r.Context(), tx)
	switch {
	case errors.Is(err, store.ErrUnavailable):
		ErrorResponse(http.StatusBadGateway, "Record store unreachable; the entry was not saved.").Write(w)
		return
	case err != nil:
		// Validation failure; the form keeps its values since only the
		// result div is swapped.
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	s.reportCache.Purge()

	kindLabel := "Expense"
	if saved.Kind == core.Income {
		kindLabel = "Income"
	}
	NewHTMXResponse().
		TriggerPanelRefresh().
		TriggerFormReset().
		TriggerSuccessNotification("Entry recorded.").
		BodyHTML(`<div class="success">` + kindLabel + ` #` + strconv.FormatInt(saved.ID, 10) + `: ` +
			template.HTMLEscapeString(saved.Description) + `, ` +
			template.HTMLEscapeString(formatAmount(saved.Amount.Cents, s.currency)) + `</div>`).
		Write(w)
}

// handleReport streams the monthly PDF report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	view := s.sess.Snapshot(r.Context())
	fileName := report.FileName(view.PeriodStart)

	pdf, ok := s.reportCache.Get(fileName)
	if !ok {
		var buf bytes.Buffer
		data := report.Data{
			GeneratedAt:   time.Now(),
			PeriodStart:   view.PeriodStart,
			Charges:       view.FixedCharges,
			Transactions:  view.Transactions,
			Balance:       view.Balance,
			CurrencyLabel: s.currency,
		}
		if err := report.Generate(&buf, data); err != nil {
			slog.ErrorContext(r.Context(), "Report generation failed", "error", err)
			http.Error(w, "report generation failed", http.StatusInternalServerError)
			return
		}
		pdf = buf.Bytes()
		s.reportCache.Set(fileName, pdf)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = w.Write(pdf)
}

// noHeaderWriter adapts a buffer to http.ResponseWriter for partial
// rendering into a builder body.
type noHeaderWriter struct {
	buf *bytes.Buffer
}

func (n *noHeaderWriter) Header() http.Header         { return http.Header{} }
func (n *noHeaderWriter) WriteHeader(int)             {}
func (n *noHeaderWriter) Write(p []byte) (int, error) { return n.buf.Write(p) }

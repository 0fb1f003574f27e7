package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"evpanel/internal/core"
)

// Data is everything the formatter needs. It is assembled by the caller;
// the formatter itself never talks to a store.
type Data struct {
	GeneratedAt   time.Time
	PeriodStart   core.Date
	Charges       []core.FixedCharge
	Transactions  []core.Transaction
	Balance       core.BalanceSnapshot
	CurrencyLabel string
}

// FileName returns the report file name for the given period,
// e.g. Report_03_2024.pdf.
func FileName(period core.Date) string {
	return fmt.Sprintf("Report_%02d_%04d.pdf", period.Month(), period.Year())
}

// Generate writes a monthly PDF report to w.
func Generate(w io.Writer, data Data) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Household Finance Report", false)
	pdf.AddPage()

	writeHeader(pdf, data)
	writeBalance(pdf, data)
	writeCharges(pdf, data)
	writeTransactions(pdf, data)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeHeader(pdf *fpdf.Fpdf, data Data) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Household Finance Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6,
		fmt.Sprintf("Period: %02d/%04d", data.PeriodStart.Month(), data.PeriodStart.Year()),
		"", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6,
		fmt.Sprintf("Generated: %s", data.GeneratedAt.Format("2006-01-02 15:04")),
		"", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func writeBalance(pdf *fpdf.Fpdf, data Data) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Balance", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	rows := []struct {
		label  string
		amount core.Money
	}{
		{"Income", data.Balance.IncomeTotal},
		{"Expenses", data.Balance.ExpenseTotal},
		{"Paid fixed charges", data.Balance.PaidFixedTotal},
	}
	for _, row := range rows {
		pdf.CellFormat(60, 6, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, amount(row.amount, data.CurrencyLabel), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(60, 6, "Remaining", "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, amount(data.Balance.Balance, data.CurrencyLabel), "", 1, "R", false, 0, "")
	pdf.Ln(4)
}

func writeCharges(pdf *fpdf.Fpdf, data Data) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Fixed Charges", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(90, 6, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "R", true, 0, "")
	pdf.CellFormat(25, 6, "Paid", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, c := range data.Charges {
		paid := "No"
		if c.Paid {
			paid = "Yes"
		}
		pdf.CellFormat(90, 6, c.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, amount(c.Amount, data.CurrencyLabel), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, paid, "1", 1, "C", false, 0, "")
	}
	if len(data.Charges) == 0 {
		pdf.CellFormat(155, 6, "No fixed charges", "1", 1, "C", false, 0, "")
	}
	pdf.Ln(4)
}

func writeTransactions(pdf *fpdf.Fpdf, data Data) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Transactions", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(25, 6, "Date", "1", 0, "L", true, 0, "")
	pdf.CellFormat(75, 6, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 6, "Kind", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, t := range data.Transactions {
		kind := "Expense"
		if t.Kind == core.Income {
			kind = "Income"
		}
		pdf.CellFormat(25, 6, t.Date.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(75, 6, t.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, kind, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, amount(t.Amount, data.CurrencyLabel), "1", 1, "R", false, 0, "")
	}
	if len(data.Transactions) == 0 {
		pdf.CellFormat(165, 6, "No transactions this month", "1", 1, "C", false, 0, "")
	}
}

func amount(m core.Money, label string) string {
	if label == "" {
		return m.String()
	}
	return fmt.Sprintf("%s %s", m.String(), label)
}

package report

import (
	"bytes"
	"testing"
	"time"

	"evpanel/internal/core"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		name   string
		period core.Date
		want   string
	}{
		{"march", core.NewDate(2024, 3, 1), "Report_03_2024.pdf"},
		{"december", core.NewDate(2023, 12, 1), "Report_12_2023.pdf"},
		{"single digit month is padded", core.NewDate(2024, 1, 1), "Report_01_2024.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileName(tt.period); got != tt.want {
				t.Errorf("FileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	charges := []core.FixedCharge{
		{ID: 1, Description: "Kira", Amount: core.Money{Cents: 1500000}, Paid: true},
		{ID: 2, Description: "Elektrik", Amount: core.Money{Cents: 85000}, Paid: false},
	}
	txs := []core.Transaction{
		{ID: 1, Date: core.NewDate(2024, 3, 10), Description: "Maaş", Amount: core.Money{Cents: 4500000}, Kind: core.Income},
		{ID: 2, Date: core.NewDate(2024, 3, 12), Description: "Market", Amount: core.Money{Cents: 120000}, Kind: core.Expense},
	}

	data := Data{
		GeneratedAt:   time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		PeriodStart:   core.NewDate(2024, 3, 1),
		Charges:       charges,
		Transactions:  txs,
		Balance:       core.ComputeBalance(charges, txs),
		CurrencyLabel: "TL",
	}

	var buf bytes.Buffer
	if err := Generate(&buf, data); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if buf.Len() == 0 {
		t.Fatal("Generate() produced empty output")
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Errorf("output does not start with PDF magic bytes, got %q", buf.Bytes()[:8])
	}
}

func TestGenerate_EmptyData(t *testing.T) {
	data := Data{
		GeneratedAt: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		PeriodStart: core.NewDate(2024, 3, 1),
		Balance:     core.ComputeBalance(nil, nil),
	}

	var buf bytes.Buffer
	if err := Generate(&buf, data); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("Generate() produced empty output for empty data")
	}
}

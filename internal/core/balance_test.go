package core

import "testing"

func TestComputeBalanceEmpty(t *testing.T) {
	snap := ComputeBalance(nil, nil)
	if snap.IncomeTotal.Cents != 0 || snap.ExpenseTotal.Cents != 0 ||
		snap.PaidFixedTotal.Cents != 0 || snap.Balance.Cents != 0 {
		t.Fatalf("empty inputs should yield zero snapshot, got %+v", snap)
	}
}

func TestComputeBalance(t *testing.T) {
	fixed := []FixedCharge{
		{ID: 1, Description: "Rent", Amount: Money{Cents: 10000}, Paid: false},
		{ID: 2, Description: "Internet", Amount: Money{Cents: 5000}, Paid: true},
	}
	txs := []Transaction{
		{Date: NewDate(2024, 3, 5), Description: "Salary", Amount: Money{Cents: 50000}, Kind: Income},
		{Date: NewDate(2024, 3, 8), Description: "Groceries", Amount: Money{Cents: 8000}, Kind: Expense},
	}

	snap := ComputeBalance(fixed, txs)

	if snap.IncomeTotal.Cents != 50000 {
		t.Errorf("income total = %d, want 50000", snap.IncomeTotal.Cents)
	}
	if snap.ExpenseTotal.Cents != 8000 {
		t.Errorf("expense total = %d, want 8000", snap.ExpenseTotal.Cents)
	}
	if snap.PaidFixedTotal.Cents != 5000 {
		t.Errorf("paid fixed total = %d, want 5000", snap.PaidFixedTotal.Cents)
	}
	// 500 - 80 - 50 = 370
	if snap.Balance.Cents != 37000 {
		t.Errorf("balance = %d, want 37000", snap.Balance.Cents)
	}
}

func TestComputeBalanceDeterministic(t *testing.T) {
	fixed := []FixedCharge{
		{ID: 1, Description: "Rent", Amount: Money{Cents: 123456}, Paid: true},
	}
	txs := []Transaction{
		{Date: NewDate(2024, 1, 2), Description: "a", Amount: Money{Cents: 301}, Kind: Income},
		{Date: NewDate(2024, 1, 3), Description: "b", Amount: Money{Cents: 99}, Kind: Expense},
	}

	first := ComputeBalance(fixed, txs)
	second := ComputeBalance(fixed, txs)
	if first != second {
		t.Fatalf("two computations over identical inputs differ: %+v vs %+v", first, second)
	}
}

func TestComputeBalanceTotalsNonNegative(t *testing.T) {
	fixed := []FixedCharge{
		{ID: 1, Description: "Rent", Amount: Money{Cents: 100}, Paid: true},
		{ID: 2, Description: "Water", Amount: Money{Cents: 0}, Paid: true},
	}
	txs := []Transaction{
		{Date: NewDate(2024, 6, 1), Description: "x", Amount: Money{Cents: 0}, Kind: Income},
		{Date: NewDate(2024, 6, 2), Description: "y", Amount: Money{Cents: 250}, Kind: Expense},
	}

	snap := ComputeBalance(fixed, txs)
	if snap.IncomeTotal.Cents < 0 || snap.ExpenseTotal.Cents < 0 || snap.PaidFixedTotal.Cents < 0 {
		t.Fatalf("totals must never be negative: %+v", snap)
	}
}

package core

// BalanceSnapshot is the derived view of a period: transaction totals, the
// paid share of fixed charges and the resulting balance. It is never
// persisted; callers recompute it from the current record sets.
type BalanceSnapshot struct {
	IncomeTotal    Money
	ExpenseTotal   Money
	PaidFixedTotal Money
	Balance        Money
}

// ComputeBalance combines fixed-charge paid state and period transactions
// into a single snapshot.
//
//	balance = income - expense - paid fixed charges
//
// It is a pure function of its inputs: identical inputs always produce an
// identical snapshot, and empty inputs yield all-zero totals.
func ComputeBalance(fixedCharges []FixedCharge, transactions []Transaction) BalanceSnapshot {
	var snap BalanceSnapshot
	for _, t := range transactions {
		switch t.Kind {
		case Income:
			snap.IncomeTotal = snap.IncomeTotal.Add(t.Amount)
		case Expense:
			snap.ExpenseTotal = snap.ExpenseTotal.Add(t.Amount)
		}
	}
	for _, f := range fixedCharges {
		if f.Paid {
			snap.PaidFixedTotal = snap.PaidFixedTotal.Add(f.Amount)
		}
	}
	snap.Balance = snap.IncomeTotal.Sub(snap.ExpenseTotal).Sub(snap.PaidFixedTotal)
	return snap
}

package core

// MonthStart returns the first day of the month containing today. Together
// with an open upper bound it defines the window of transactions that count
// toward the current balance: the first calendar day is included, and
// future-dated entries within the month are included as well.
func MonthStart(today Date) Date {
	return NewDate(today.Year(), today.Month(), 1)
}

package sheets

import (
	"strconv"
	"strings"
	"time"

	"evpanel/internal/core"
)

// rowToCharge converts a spreadsheet row (A=id, B=description, C=amount,
// D=paid) into a FixedCharge. Header rows and malformed rows report ok=false
// and are skipped by callers; listing is best-effort.
func rowToCharge(cols []string) (core.FixedCharge, bool) {
	if len(cols) < 3 {
		return core.FixedCharge{}, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(cols[0]), 10, 64)
	if err != nil || id <= 0 {
		return core.FixedCharge{}, false
	}
	desc := strings.TrimSpace(cols[1])
	if desc == "" {
		return core.FixedCharge{}, false
	}
	amount, err := core.ParseAmount(cols[2])
	if err != nil {
		return core.FixedCharge{}, false
	}
	paid := false
	if len(cols) >= 4 {
		paid = parseBoolCell(cols[3])
	}
	return core.FixedCharge{ID: id, Description: desc, Amount: amount, Paid: paid}, true
}

// rowToTransaction converts a spreadsheet row (A=id, B=date, C=description,
// D=amount, E=kind) into a Transaction.
func rowToTransaction(cols []string) (core.Transaction, bool) {
	if len(cols) < 5 {
		return core.Transaction{}, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(cols[0]), 10, 64)
	if err != nil || id <= 0 {
		return core.Transaction{}, false
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(cols[1]))
	if err != nil {
		return core.Transaction{}, false
	}
	desc := strings.TrimSpace(cols[2])
	amount, err := core.ParseAmount(cols[3])
	if err != nil {
		return core.Transaction{}, false
	}
	kind := core.TransactionKind(strings.ToLower(strings.TrimSpace(cols[4])))
	if !kind.Valid() {
		return core.Transaction{}, false
	}
	return core.Transaction{
		ID:          id,
		Date:        core.Date{Time: date},
		Description: desc,
		Amount:      amount,
		Kind:        kind,
	}, true
}

func parseBoolCell(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "x":
		return true
	default:
		return false
	}
}

// nextIDFromColumn derives the next free id from the raw id column values,
// skipping the header and anything non-numeric.
func nextIDFromColumn(values [][]interface{}) int64 {
	var maxID int64
	for _, row := range values {
		cols := toStrings(row)
		if len(cols) == 0 {
			continue
		}
		id, err := strconv.ParseInt(cols[0], 10, 64)
		if err != nil {
			continue
		}
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

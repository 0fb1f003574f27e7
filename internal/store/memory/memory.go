package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"evpanel/internal/core"
	"evpanel/internal/store"
)

// Store is an in-memory record store. It is the default backend for local
// development and the fake of choice in tests.
type Store struct {
	mu      sync.Mutex
	charges []core.FixedCharge
	txs     []core.Transaction
	nextID  int64
}

// Ensure interface conformance
var (
	_ store.FixedChargeLister   = (*Store)(nil)
	_ store.FixedChargeUpdater  = (*Store)(nil)
	_ store.TransactionLister   = (*Store)(nil)
	_ store.TransactionAppender = (*Store)(nil)
)

func New(charges []core.FixedCharge) *Store {
	s := &Store{nextID: 1}
	for _, c := range charges {
		if c.ID == 0 {
			c.ID = s.nextID
		}
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
		s.charges = append(s.charges, c)
	}
	return s
}

// NewFromFiles seeds fixed charges from base/seed_fixed_charges.txt, one
// "description|amount" pair per line. Falls back to a small default set when
// the file is missing or empty.
func NewFromFiles(base string) *Store {
	charges := readCharges(filepath.Join(base, "seed_fixed_charges.txt"))
	if len(charges) == 0 {
		charges = []core.FixedCharge{
			{Description: "Kira", Amount: core.Money{Cents: 1500000}},
			{Description: "Elektrik", Amount: core.Money{Cents: 120000}},
			{Description: "İnternet", Amount: core.Money{Cents: 40000}},
		}
	}
	return New(charges)
}

func (s *Store) ListFixedCharges(_ context.Context) ([]core.FixedCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.FixedCharge(nil), s.charges...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateFixedChargePaid(_ context.Context, id int64, paid bool) (core.FixedCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.charges {
		if s.charges[i].ID == id {
			s.charges[i].Paid = paid
			return s.charges[i], nil
		}
	}
	return core.FixedCharge{}, store.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, from core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txs {
		if !t.Date.Before(from) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[j].Date.Before(out[i].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	s.txs = append(s.txs, t)
	return t, nil
}

func readCharges(path string) []core.FixedCharge {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.FixedCharge
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		desc, amountStr, ok := strings.Cut(line, "|")
		if !ok {
			continue
		}
		amount, err := core.ParseAmount(strings.TrimSpace(amountStr))
		if err != nil {
			continue
		}
		out = append(out, core.FixedCharge{
			Description: strings.TrimSpace(desc),
			Amount:      amount,
		})
	}
	return out
}

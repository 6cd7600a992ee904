// Package memstore holds in-memory repository implementations backing the "memory"
// storage driver and the service tests. Values are copied on the way in and out so
// callers never share state with the store.
package memstore

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/internal/repository"
)

type LoanStore struct {
	mu          sync.RWMutex
	loans       map[uuid.UUID]*domain.Loan
	allocations map[uuid.UUID][]*domain.InvestorAllocation
}

var _ repository.LoanRepository = (*LoanStore)(nil)

func NewLoanStore() *LoanStore {
	return &LoanStore{
		loans:       make(map[uuid.UUID]*domain.Loan),
		allocations: make(map[uuid.UUID][]*domain.InvestorAllocation),
	}
}

func (s *LoanStore) Create(_ context.Context, loan *domain.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *loan
	s.loans[loan.ID] = &c
	return nil
}

func (s *LoanStore) GetByID(_ context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loan, ok := s.loans[loanID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *loan
	return &c, nil
}

func (s *LoanStore) Update(_ context.Context, loan *domain.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.loans[loan.ID]
	if !ok {
		return sql.ErrNoRows
	}
	c := *loan
	c.OwnerID = existing.OwnerID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now()
	s.loans[loan.ID] = &c
	return nil
}

func (s *LoanStore) UpdateStatus(_ context.Context, loanID uuid.UUID, status domain.LoanStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.loans[loanID]
	if !ok {
		return sql.ErrNoRows
	}
	loan.Status = status
	loan.UpdatedAt = time.Now()
	return nil
}

func (s *LoanStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Loan
	for _, loan := range s.loans {
		if loan.OwnerID == ownerID {
			c := *loan
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *LoanStore) ListOwners(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[uuid.UUID]bool)
	var owners []uuid.UUID
	for _, loan := range s.loans {
		if !seen[loan.OwnerID] {
			seen[loan.OwnerID] = true
			owners = append(owners, loan.OwnerID)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].String() < owners[j].String() })
	return owners, nil
}

func (s *LoanStore) GetAllocations(_ context.Context, loanID uuid.UUID) ([]*domain.InvestorAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyAllocations(s.allocations[loanID]), nil
}

func (s *LoanStore) GetAllocation(_ context.Context, allocationID uuid.UUID) (*domain.InvestorAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a := s.findAllocation(allocationID); a != nil {
		return copyAllocation(a), nil
	}
	return nil, sql.ErrNoRows
}

func (s *LoanStore) ReplaceAllocations(_ context.Context, loanID uuid.UUID, allocations []*domain.InvestorAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loans[loanID]; !ok {
		return sql.ErrNoRows
	}
	s.allocations[loanID] = copyAllocations(allocations)
	return nil
}

func (s *LoanStore) UpdateAllocationPaid(_ context.Context, allocationID uuid.UUID, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findAllocation(allocationID)
	if a == nil {
		return sql.ErrNoRows
	}
	a.Paid = paid
	return nil
}

func (s *LoanStore) GetPeriod(_ context.Context, periodID uuid.UUID) (*domain.InterestPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.findPeriod(periodID); p != nil {
		c := *p
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (s *LoanStore) UpdatePeriodStatus(_ context.Context, periodID uuid.UUID, status domain.PeriodStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findPeriod(periodID)
	if p == nil {
		return sql.ErrNoRows
	}
	p.Status = status
	return nil
}

func (s *LoanStore) findAllocation(id uuid.UUID) *domain.InvestorAllocation {
	for _, allocations := range s.allocations {
		for _, a := range allocations {
			if a.ID == id {
				return a
			}
		}
	}
	return nil
}

func (s *LoanStore) findPeriod(id uuid.UUID) *domain.InterestPeriod {
	for _, allocations := range s.allocations {
		for _, a := range allocations {
			for _, p := range a.Periods {
				if p.ID == id {
					return p
				}
			}
		}
	}
	return nil
}

func copyAllocation(a *domain.InvestorAllocation) *domain.InvestorAllocation {
	c := *a
	c.Periods = nil
	for _, p := range a.Periods {
		pc := *p
		c.Periods = append(c.Periods, &pc)
	}
	return &c
}

func copyAllocations(in []*domain.InvestorAllocation) []*domain.InvestorAllocation {
	out := make([]*domain.InvestorAllocation, 0, len(in))
	for _, a := range in {
		out = append(out, copyAllocation(a))
	}
	return out
}

type LedgerStore struct {
	mu      sync.RWMutex
	seq     int64
	entries map[uuid.UUID]*domain.LedgerEntry
}

var _ repository.LedgerRepository = (*LedgerStore)(nil)

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{entries: make(map[uuid.UUID]*domain.LedgerEntry)}
}

func (s *LedgerStore) InsertEntries(_ context.Context, entries []*domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, e := range entries {
		s.seq++
		e.Seq = s.seq
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = e.CreatedAt
		c := *e
		s.entries[e.ID] = &c
	}
	return nil
}

func (s *LedgerStore) DeleteGeneratedByLoanID(_ context.Context, loanID uuid.UUID) ([]*domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted []*domain.LedgerEntry
	for id, e := range s.entries {
		if e.Category == domain.EntryCategoryLoan && e.LoanID.Valid && e.LoanID.UUID == loanID {
			deleted = append(deleted, e)
			delete(s.entries, id)
		}
	}
	sortEntries(deleted)
	return deleted, nil
}

func (s *LedgerStore) GetByLoanID(_ context.Context, loanID uuid.UUID) ([]*domain.LedgerEntry, error) {
	return s.filter(func(e *domain.LedgerEntry) bool { return e.LoanID.Valid && e.LoanID.UUID == loanID }), nil
}

func (s *LedgerStore) GetByInvestorID(_ context.Context, investorID uuid.UUID) ([]*domain.LedgerEntry, error) {
	return s.filter(func(e *domain.LedgerEntry) bool { return e.InvestorID == investorID }), nil
}

func (s *LedgerStore) GetByID(_ context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *e
	return &c, nil
}

func (s *LedgerStore) Update(_ context.Context, entry *domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entry.ID]
	if !ok {
		return sql.ErrNoRows
	}
	e.Date = entry.Date
	e.Direction = entry.Direction
	e.Name = entry.Name
	e.Amount = entry.Amount
	e.Notes = entry.Notes
	e.UpdatedAt = time.Now()
	entry.UpdatedAt = e.UpdatedAt
	return nil
}

func (s *LedgerStore) Delete(_ context.Context, entryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entryID]; !ok {
		return sql.ErrNoRows
	}
	delete(s.entries, entryID)
	return nil
}

func (s *LedgerStore) UpdateBalances(_ context.Context, updates []domain.BalanceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		if e, ok := s.entries[u.EntryID]; ok {
			e.Balance = u.Balance
		}
	}
	return nil
}

func (s *LedgerStore) UpdateNames(_ context.Context, updates []domain.NameUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		if e, ok := s.entries[u.EntryID]; ok {
			e.Name = u.Name
		}
	}
	return nil
}

func (s *LedgerStore) filter(keep func(*domain.LedgerEntry) bool) []*domain.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.LedgerEntry
	for _, e := range s.entries {
		if keep(e) {
			c := *e
			out = append(out, &c)
		}
	}
	sortEntries(out)
	return out
}

func sortEntries(entries []*domain.LedgerEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].Seq < entries[j].Seq
	})
}

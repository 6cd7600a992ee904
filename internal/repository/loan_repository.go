package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/pawn-ledger/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `id, owner_id, name, category, status, due_date, notes, lot_size, created_at, updated_at`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, owner_id, name, category, status, due_date, notes, lot_size, created_at, updated_at)
		VALUES (:id, :owner_id, :name, :category, :status, :due_date, :notes, :lot_size, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, loan)
	return err
}

func (r *loanRepository) GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, loanID); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET name = $2, category = $3, status = $4, due_date = $5, notes = $6, lot_size = $7, updated_at = $8
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.Name,
		loan.Category,
		loan.Status,
		loan.DueDate,
		loan.Notes,
		loan.LotSize,
		time.Now(),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *loanRepository) UpdateStatus(ctx context.Context, loanID uuid.UUID, status domain.LoanStatus) error {
	query := `UPDATE loans SET status = $2, updated_at = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, loanID, status, time.Now())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *loanRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE owner_id = $1 ORDER BY due_date, id`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, query, ownerID); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListOwners(ctx context.Context) ([]uuid.UUID, error) {
	var owners []uuid.UUID
	if err := r.db.SelectContext(ctx, &owners, `SELECT DISTINCT owner_id FROM loans ORDER BY owner_id`); err != nil {
		return nil, err
	}
	return owners, nil
}

const (
	allocationColumns = `id, loan_id, investor_id, principal, interest_type, interest_value, disbursed_at, paid, multiple_periods, position, created_at`
	periodColumns     = `id, allocation_id, due_date, interest_type, interest_value, status, created_at`
)

func (r *loanRepository) GetAllocations(ctx context.Context, loanID uuid.UUID) ([]*domain.InvestorAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM investor_allocations WHERE loan_id = $1 ORDER BY position, id`

	var allocations []*domain.InvestorAllocation
	if err := r.db.SelectContext(ctx, &allocations, query, loanID); err != nil {
		return nil, err
	}
	if len(allocations) == 0 {
		return allocations, nil
	}

	if err := r.attachPeriods(ctx, allocations); err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *loanRepository) GetAllocation(ctx context.Context, allocationID uuid.UUID) (*domain.InvestorAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM investor_allocations WHERE id = $1`

	var allocation domain.InvestorAllocation
	if err := r.db.GetContext(ctx, &allocation, query, allocationID); err != nil {
		return nil, err
	}
	if err := r.attachPeriods(ctx, []*domain.InvestorAllocation{&allocation}); err != nil {
		return nil, err
	}
	return &allocation, nil
}

func (r *loanRepository) attachPeriods(ctx context.Context, allocations []*domain.InvestorAllocation) error {
	ids := make([]uuid.UUID, 0, len(allocations))
	byID := make(map[uuid.UUID]*domain.InvestorAllocation, len(allocations))
	for _, a := range allocations {
		ids = append(ids, a.ID)
		byID[a.ID] = a
	}

	query := `SELECT ` + periodColumns + ` FROM interest_periods WHERE allocation_id = ANY($1::uuid[]) ORDER BY due_date, id`

	var periods []*domain.InterestPeriod
	if err := r.db.SelectContext(ctx, &periods, query, pq.Array(uuidStrings(ids))); err != nil {
		return err
	}
	for _, p := range periods {
		if a, ok := byID[p.AllocationID]; ok {
			a.Periods = append(a.Periods, p)
		}
	}
	return nil
}

func (r *loanRepository) ReplaceAllocations(ctx context.Context, loanID uuid.UUID, allocations []*domain.InvestorAllocation) error {
	allocationQuery := `
		INSERT INTO investor_allocations (` + allocationColumns + `)
		VALUES (:id, :loan_id, :investor_id, :principal, :interest_type, :interest_value, :disbursed_at, :paid, :multiple_periods, :position, :created_at)
	`
	periodQuery := `
		INSERT INTO interest_periods (` + periodColumns + `)
		VALUES (:id, :allocation_id, :due_date, :interest_type, :interest_value, :status, :created_at)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// interest_periods rows go with their allocation through ON DELETE CASCADE
	if _, err = tx.ExecContext(ctx, `DELETE FROM investor_allocations WHERE loan_id = $1`, loanID); err != nil {
		return err
	}

	for _, allocation := range allocations {
		if _, err = tx.NamedExecContext(ctx, allocationQuery, allocation); err != nil {
			return err
		}
		for _, period := range allocation.Periods {
			if _, err = tx.NamedExecContext(ctx, periodQuery, period); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (r *loanRepository) UpdateAllocationPaid(ctx context.Context, allocationID uuid.UUID, paid bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE investor_allocations SET paid = $2 WHERE id = $1`, allocationID, paid)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *loanRepository) GetPeriod(ctx context.Context, periodID uuid.UUID) (*domain.InterestPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM interest_periods WHERE id = $1`

	var period domain.InterestPeriod
	if err := r.db.GetContext(ctx, &period, query, periodID); err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *loanRepository) UpdatePeriodStatus(ctx context.Context, periodID uuid.UUID, status domain.PeriodStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE interest_periods SET status = $2 WHERE id = $1`, periodID, status)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/pawn-ledger/internal/domain"
)

type ledgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

const entryColumns = `id, seq, investor_id, loan_id, entry_date, category, direction, name, amount, balance, notes, created_at, updated_at`

func (r *ledgerRepository) InsertEntries(ctx context.Context, entries []*domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO ledger_entries (id, seq, investor_id, loan_id, entry_date, category, direction, name, amount, balance, notes, created_at, updated_at)
		VALUES ($1, nextval('ledger_entry_seq'), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING seq
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = e.CreatedAt

		err = tx.QueryRowxContext(ctx, query,
			e.ID,
			e.InvestorID,
			e.LoanID,
			e.Date,
			e.Category,
			e.Direction,
			e.Name,
			e.Amount,
			e.Balance,
			e.Notes,
			e.CreatedAt,
		).Scan(&e.Seq)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *ledgerRepository) DeleteGeneratedByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LedgerEntry, error) {
	query := `DELETE FROM ledger_entries WHERE loan_id = $1 AND category = $2 RETURNING ` + entryColumns

	var deleted []*domain.LedgerEntry
	if err := r.db.SelectContext(ctx, &deleted, query, loanID, domain.EntryCategoryLoan); err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *ledgerRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE loan_id = $1 ORDER BY entry_date, seq`

	var entries []*domain.LedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query, loanID); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ledgerRepository) GetByInvestorID(ctx context.Context, investorID uuid.UUID) ([]*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE investor_id = $1 ORDER BY entry_date, seq`

	var entries []*domain.LedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query, investorID); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ledgerRepository) GetByID(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1`

	var entry domain.LedgerEntry
	if err := r.db.GetContext(ctx, &entry, query, entryID); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) Update(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		UPDATE ledger_entries
		SET entry_date = $2, direction = $3, name = $4, amount = $5, notes = $6, updated_at = $7
		WHERE id = $1
	`

	entry.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Date,
		entry.Direction,
		entry.Name,
		entry.Amount,
		entry.Notes,
		entry.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *ledgerRepository) Delete(ctx context.Context, entryID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = $1`, entryID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *ledgerRepository) UpdateBalances(ctx context.Context, updates []domain.BalanceUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE ledger_entries SET balance = $2 WHERE id = $1`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err = stmt.ExecContext(ctx, u.EntryID, u.Balance); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *ledgerRepository) UpdateNames(ctx context.Context, updates []domain.NameUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, u := range updates {
		if _, err = tx.ExecContext(ctx, `UPDATE ledger_entries SET name = $2, updated_at = $3 WHERE id = $1`, u.EntryID, u.Name, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

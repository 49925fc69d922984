package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sahyadri-hs/backoffice/internal/platform/db"
	"github.com/sahyadri-hs/backoffice/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListEntries returns entries newest first, optionally narrowed by
// program and date range.
func (r *Repository) ListEntries(ctx context.Context, filters EntryFilters) ([]Entry, error) {
	q := `
		SELECT e.id, e.program_id, pg.name, e.product_id, pr.name,
		       e.entry_date, e.quantity, e.rate, e.amount, e.created_at, e.updated_at
		FROM billing_entries e
		JOIN programs pg ON pg.id = e.program_id
		JOIN products pr ON pr.id = e.product_id
		WHERE 1=1`
	args := []any{}
	if filters.ProgramID != nil {
		args = append(args, *filters.ProgramID)
		q += fmt.Sprintf(" AND e.program_id = $%d", len(args))
	}
	if !filters.From.IsZero() {
		args = append(args, filters.From)
		q += fmt.Sprintf(" AND e.entry_date >= $%d", len(args))
	}
	if !filters.To.IsZero() {
		args = append(args, filters.To)
		q += fmt.Sprintf(" AND e.entry_date <= $%d", len(args))
	}
	q += " ORDER BY e.entry_date DESC, e.id DESC LIMIT 500"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ProgramID, &e.ProgramName, &e.ProductID, &e.ProductName,
			&e.EntryDate, &e.Quantity, &e.Rate, &e.Amount, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetEntry fetches one entry by id.
func (r *Repository) GetEntry(ctx context.Context, id int64) (Entry, error) {
	const q = `
		SELECT e.id, e.program_id, pg.name, e.product_id, pr.name,
		       e.entry_date, e.quantity, e.rate, e.amount, e.created_at, e.updated_at
		FROM billing_entries e
		JOIN programs pg ON pg.id = e.program_id
		JOIN products pr ON pr.id = e.product_id
		WHERE e.id = $1`
	var e Entry
	err := r.pool.QueryRow(ctx, q, id).Scan(&e.ID, &e.ProgramID, &e.ProgramName, &e.ProductID, &e.ProductName,
		&e.EntryDate, &e.Quantity, &e.Rate, &e.Amount, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, shared.ErrNotFound
	}
	return e, err
}

// CreateEntry inserts an entry, snapshotting the product rate.
func (r *Repository) CreateEntry(ctx context.Context, e Entry) (Entry, error) {
	const q = `
		INSERT INTO billing_entries (program_id, product_id, entry_date, quantity, rate, amount)
		SELECT $1, p.id, $3, $4, p.rate, p.rate * $4
		FROM products p WHERE p.id = $2
		RETURNING id, rate, amount, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, e.ProgramID, e.ProductID, e.EntryDate, e.Quantity).
		Scan(&e.ID, &e.Rate, &e.Amount, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, shared.ErrNotFound
	}
	if err != nil {
		return Entry{}, mapConstraint(err)
	}
	return e, nil
}

// UpdateEntry rewrites an entry, resnapshotting the rate of the chosen
// product.
func (r *Repository) UpdateEntry(ctx context.Context, id int64, e Entry) error {
	const q = `
		UPDATE billing_entries be
		SET program_id = $2, product_id = p.id, entry_date = $4, quantity = $5,
		    rate = p.rate, amount = p.rate * $5, updated_at = now()
		FROM products p
		WHERE be.id = $1 AND p.id = $3`
	tag, err := r.pool.Exec(ctx, q, id, e.ProgramID, e.ProductID, e.EntryDate, e.Quantity)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteEntry removes an entry.
func (r *Repository) DeleteEntry(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM billing_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListInvoices returns invoices newest first.
func (r *Repository) ListInvoices(ctx context.Context) ([]Invoice, error) {
	const q = `
		SELECT i.id, i.number, i.program_id, pg.name, i.period_start, i.total, i.created_at
		FROM invoices i
		JOIN programs pg ON pg.id = i.program_id
		ORDER BY i.period_start DESC, i.id DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.ProgramID, &inv.ProgramName, &inv.PeriodStart, &inv.Total, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// GetInvoice fetches one invoice with its lines.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (Invoice, []InvoiceLine, error) {
	const q = `
		SELECT i.id, i.number, i.program_id, pg.name, i.period_start, i.total, i.created_at
		FROM invoices i
		JOIN programs pg ON pg.id = i.program_id
		WHERE i.id = $1`
	var inv Invoice
	err := r.pool.QueryRow(ctx, q, id).Scan(&inv.ID, &inv.Number, &inv.ProgramID, &inv.ProgramName, &inv.PeriodStart, &inv.Total, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, nil, shared.ErrNotFound
	}
	if err != nil {
		return Invoice{}, nil, err
	}

	const lq = `
		SELECT id, invoice_id, product_id, product_name, unit, quantity, rate, amount
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY product_name`
	rows, err := r.pool.Query(ctx, lq, id)
	if err != nil {
		return Invoice{}, nil, err
	}
	defer rows.Close()

	var lines []InvoiceLine
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.ProductID, &l.ProductName, &l.Unit, &l.Quantity, &l.Rate, &l.Amount); err != nil {
			return Invoice{}, nil, err
		}
		lines = append(lines, l)
	}
	return inv, lines, rows.Err()
}

// GenerateInvoice aggregates a program's entries for one calendar month
// into a new invoice plus lines, all inside a single transaction. Line
// names and rates are copied so later catalogue edits leave invoices
// untouched.
func (r *Repository) GenerateInvoice(ctx context.Context, programID int64, period time.Time) (Invoice, error) {
	periodStart := time.Date(period.Year(), period.Month(), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	var inv Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const aq = `
			SELECT e.product_id, pr.name, pr.unit, sum(e.quantity), e.rate, sum(e.amount)
			FROM billing_entries e
			JOIN products pr ON pr.id = e.product_id
			WHERE e.program_id = $1 AND e.entry_date >= $2 AND e.entry_date < $3
			GROUP BY e.product_id, pr.name, pr.unit, e.rate
			ORDER BY pr.name`
		rows, err := tx.Query(ctx, aq, programID, periodStart, periodEnd)
		if err != nil {
			return err
		}
		var lines []InvoiceLine
		var total float64
		for rows.Next() {
			var l InvoiceLine
			if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Unit, &l.Quantity, &l.Rate, &l.Amount); err != nil {
				rows.Close()
				return err
			}
			total += l.Amount
			lines = append(lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrNoEntries
		}

		const iq = `
			INSERT INTO invoices (number, program_id, period_start, total)
			VALUES ('', $1, $2, $3)
			RETURNING id, created_at`
		if err := tx.QueryRow(ctx, iq, programID, periodStart, total).Scan(&inv.ID, &inv.CreatedAt); err != nil {
			return mapConstraint(err)
		}
		inv.Number = fmt.Sprintf("INV-%s-%04d", periodStart.Format("200601"), inv.ID)
		if _, err := tx.Exec(ctx, `UPDATE invoices SET number = $1 WHERE id = $2`, inv.Number, inv.ID); err != nil {
			return err
		}

		const lq = `
			INSERT INTO invoice_lines (invoice_id, product_id, product_name, unit, quantity, rate, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		for _, l := range lines {
			if _, err := tx.Exec(ctx, lq, inv.ID, l.ProductID, l.ProductName, l.Unit, l.Quantity, l.Rate, l.Amount); err != nil {
				return err
			}
		}

		inv.ProgramID = programID
		inv.PeriodStart = periodStart
		inv.Total = total
		return tx.QueryRow(ctx, `SELECT name FROM programs WHERE id = $1`, programID).Scan(&inv.ProgramName)
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// Report aggregates spend per program and package over a date range.
func (r *Repository) Report(ctx context.Context, from, to time.Time) ([]ReportLine, error) {
	const q = `
		SELECT pg.name, pk.name, sum(e.quantity), sum(e.amount)
		FROM billing_entries e
		JOIN programs pg ON pg.id = e.program_id
		JOIN products pr ON pr.id = e.product_id
		JOIN packages pk ON pk.id = pr.package_id
		WHERE e.entry_date >= $1 AND e.entry_date <= $2
		GROUP BY pg.name, pk.name
		ORDER BY pg.name, pk.name`
	rows, err := r.pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []ReportLine
	for rows.Next() {
		var l ReportLine
		if err := rows.Scan(&l.ProgramName, &l.PackageName, &l.Quantity, &l.Amount); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return shared.ErrDuplicate
		case "23503":
			return shared.ErrNotFound
		}
	}
	return err
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"paycal/internal/calendar"
	"paycal/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound    = errors.New("payment not found")
	ErrAlreadyPaid = errors.New("month already marked as paid")
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateFixedPayment stores a validated fixed payment and returns it with its id.
func (r *SQLiteRepository) CreateFixedPayment(ctx context.Context, p core.FixedPayment) (core.FixedPayment, error) {
	if err := p.Validate(); err != nil {
		return core.FixedPayment{}, err
	}
	row, err := r.queries.CreateFixedPayment(ctx, CreateFixedPaymentParams{
		Name:     p.Name,
		Amount:   p.Amount.String(),
		Category: p.Category,
		DueDay:   int64(p.DueDay),
		IsActive: p.IsActive,
	})
	if err != nil {
		return core.FixedPayment{}, fmt.Errorf("create fixed payment: %w", err)
	}

	slog.InfoContext(ctx, "Fixed payment saved to SQLite",
		"id", row.ID,
		"name", row.Name,
		"amount", row.Amount,
		"due_day", row.DueDay)

	return toFixedPayment(row, nil)
}

// GetFixedPayment returns one fixed payment with its paid months.
func (r *SQLiteRepository) GetFixedPayment(ctx context.Context, id int64) (core.FixedPayment, error) {
	row, err := r.queries.GetFixedPayment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FixedPayment{}, fmt.Errorf("fixed payment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.FixedPayment{}, fmt.Errorf("get fixed payment: %w", err)
	}
	history, err := r.queries.ListFixedPaymentHistory(ctx, id)
	if err != nil {
		return core.FixedPayment{}, fmt.Errorf("get fixed payment history: %w", err)
	}
	return toFixedPayment(row, history)
}

// ListFixedPayments returns fixed payments ordered by due day, with paid months attached.
func (r *SQLiteRepository) ListFixedPayments(ctx context.Context, activeOnly bool) ([]core.FixedPayment, error) {
	rows, err := r.queries.ListFixedPayments(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list fixed payments: %w", err)
	}
	history, err := r.queries.ListFixedPaymentHistory(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list fixed payment history: %w", err)
	}
	byPayment := make(map[int64][]FixedPaymentHistory)
	for _, h := range history {
		byPayment[h.FixedPaymentID] = append(byPayment[h.FixedPaymentID], h)
	}

	payments := make([]core.FixedPayment, 0, len(rows))
	for _, row := range rows {
		p, err := toFixedPayment(row, byPayment[row.ID])
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}

// UpdateFixedPayment replaces the editable fields of a fixed payment. Paid
// months are kept.
func (r *SQLiteRepository) UpdateFixedPayment(ctx context.Context, p core.FixedPayment) (core.FixedPayment, error) {
	if err := p.Validate(); err != nil {
		return core.FixedPayment{}, err
	}
	n, err := r.queries.UpdateFixedPayment(ctx, UpdateFixedPaymentParams{
		Name:     p.Name,
		Amount:   p.Amount.String(),
		Category: p.Category,
		DueDay:   int64(p.DueDay),
		IsActive: p.IsActive,
		ID:       p.ID,
	})
	if err != nil {
		return core.FixedPayment{}, fmt.Errorf("update fixed payment: %w", err)
	}
	if n == 0 {
		return core.FixedPayment{}, fmt.Errorf("fixed payment %d: %w", p.ID, ErrNotFound)
	}

	slog.InfoContext(ctx, "Fixed payment updated", "id", p.ID, "amount", p.Amount.String(), "due_day", p.DueDay)
	return r.GetFixedPayment(ctx, p.ID)
}

// DeleteFixedPayment removes a fixed payment and its history.
func (r *SQLiteRepository) DeleteFixedPayment(ctx context.Context, id int64) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteFixedPaymentHistory(ctx, id); err != nil {
			return fmt.Errorf("delete fixed payment history: %w", err)
		}
		n, err := q.DeleteFixedPayment(ctx, id)
		if err != nil {
			return fmt.Errorf("delete fixed payment: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("fixed payment %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Fixed payment deleted", "id", id)
	return nil
}

// MarkFixedPaid records the payment of a fixed payment for (year, month).
// Marking the same month twice returns ErrAlreadyPaid.
func (r *SQLiteRepository) MarkFixedPaid(ctx context.Context, id int64, year int, month time.Month, paidAt time.Time) (core.FixedPayment, error) {
	if err := calendar.ValidatePeriod(year, month); err != nil {
		return core.FixedPayment{}, err
	}
	p, err := r.GetFixedPayment(ctx, id)
	if err != nil {
		return core.FixedPayment{}, err
	}

	n, err := r.queries.InsertFixedPaymentHistory(ctx, InsertFixedPaymentHistoryParams{
		FixedPaymentID: id,
		Year:           int64(year),
		Month:          int64(month),
		Amount:         p.Amount.String(),
		PaidAt:         paidAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return core.FixedPayment{}, fmt.Errorf("mark fixed payment paid: %w", err)
	}
	if n == 0 {
		return p, fmt.Errorf("fixed payment %d %s: %w", id, core.MonthKey(year, month), ErrAlreadyPaid)
	}

	if p.PaidMonths == nil {
		p.PaidMonths = make(map[string]bool)
	}
	p.PaidMonths[core.MonthKey(year, month)] = true

	slog.InfoContext(ctx, "Fixed payment marked as paid", "id", id, "year", year, "month", int(month))
	return p, nil
}

// CreateInstallmentPayment stores a validated installment plan. When the
// caller does not supply a next payment date it is computed from the start
// date and the installments already paid.
func (r *SQLiteRepository) CreateInstallmentPayment(ctx context.Context, p core.InstallmentPayment, now time.Time) (core.InstallmentPayment, error) {
	if err := p.Validate(); err != nil {
		return core.InstallmentPayment{}, err
	}
	next := p.NextPaymentDate
	if next == "" && !p.IsComplete() {
		d, err := calendar.ResolveInstallmentDate(p, now)
		if err != nil {
			return core.InstallmentPayment{}, fmt.Errorf("compute next payment date: %w", err)
		}
		next = d.String()
	}

	row, err := r.queries.CreateInstallmentPayment(ctx, CreateInstallmentPaymentParams{
		ItemName:          p.ItemName,
		Category:          p.Category,
		TotalAmount:       p.TotalAmount.String(),
		InstallmentAmount: p.InstallmentAmount.String(),
		TotalInstallments: int64(p.TotalInstallments),
		PaidInstallments:  int64(p.PaidInstallments),
		StartDate:         p.StartDate.String(),
		NextPaymentDate:   next,
		Vendor:            p.Vendor,
		Notes:             p.Notes,
		IsActive:          p.IsActive,
	})
	if err != nil {
		return core.InstallmentPayment{}, fmt.Errorf("create installment payment: %w", err)
	}

	slog.InfoContext(ctx, "Installment payment saved to SQLite",
		"id", row.ID,
		"item", row.ItemName,
		"installments", row.TotalInstallments,
		"next_payment_date", row.NextPaymentDate)

	return toInstallmentPayment(row)
}

// GetInstallmentPayment returns one installment plan.
func (r *SQLiteRepository) GetInstallmentPayment(ctx context.Context, id int64) (core.InstallmentPayment, error) {
	return r.getInstallmentPayment(ctx, r.queries, id)
}

func (r *SQLiteRepository) getInstallmentPayment(ctx context.Context, q *Queries, id int64) (core.InstallmentPayment, error) {
	row, err := q.GetInstallmentPayment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.InstallmentPayment{}, fmt.Errorf("installment payment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.InstallmentPayment{}, fmt.Errorf("get installment payment: %w", err)
	}
	return toInstallmentPayment(row)
}

// ListInstallmentPayments returns installment plans ordered by start date.
func (r *SQLiteRepository) ListInstallmentPayments(ctx context.Context, activeOnly bool) ([]core.InstallmentPayment, error) {
	rows, err := r.queries.ListInstallmentPayments(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list installment payments: %w", err)
	}
	payments := make([]core.InstallmentPayment, 0, len(rows))
	for _, row := range rows {
		p, err := toInstallmentPayment(row)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}

// UpdateInstallmentPayment replaces the editable fields of an installment
// plan. The paid count is owned by RecordInstallmentPayment and is kept; a
// zero start date keeps the stored one. The next payment date is recomputed.
func (r *SQLiteRepository) UpdateInstallmentPayment(ctx context.Context, p core.InstallmentPayment, now time.Time) (core.InstallmentPayment, error) {
	var updated core.InstallmentPayment
	err := r.withTx(ctx, func(q *Queries) error {
		current, err := r.getInstallmentPayment(ctx, q, p.ID)
		if err != nil {
			return err
		}
		p.PaidInstallments = current.PaidInstallments
		if p.StartDate.IsEmpty() {
			p.StartDate = current.StartDate
		}
		if err := p.Validate(); err != nil {
			return err
		}

		p.NextPaymentDate = ""
		if !p.IsComplete() {
			next, err := calendar.ResolveInstallmentDate(p, now)
			if err != nil {
				return fmt.Errorf("compute next payment date: %w", err)
			}
			p.NextPaymentDate = next.String()
		}

		if err := q.UpdateInstallmentPayment(ctx, UpdateInstallmentPaymentParams{
			ItemName:          p.ItemName,
			Category:          p.Category,
			TotalAmount:       p.TotalAmount.String(),
			InstallmentAmount: p.InstallmentAmount.String(),
			TotalInstallments: int64(p.TotalInstallments),
			StartDate:         p.StartDate.String(),
			NextPaymentDate:   p.NextPaymentDate,
			Vendor:            p.Vendor,
			Notes:             p.Notes,
			IsActive:          p.IsActive,
			ID:                p.ID,
		}); err != nil {
			return fmt.Errorf("update installment payment: %w", err)
		}
		updated, err = r.getInstallmentPayment(ctx, q, p.ID)
		return err
	})
	if err != nil {
		return core.InstallmentPayment{}, err
	}

	slog.InfoContext(ctx, "Installment payment updated",
		"id", updated.ID,
		"paid", updated.PaidInstallments,
		"total", updated.TotalInstallments,
		"next_payment_date", updated.NextPaymentDate)
	return updated, nil
}

// DeleteInstallmentPayment removes an installment plan and its history.
func (r *SQLiteRepository) DeleteInstallmentPayment(ctx context.Context, id int64) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteInstallmentPaymentHistory(ctx, id); err != nil {
			return fmt.Errorf("delete installment payment history: %w", err)
		}
		n, err := q.DeleteInstallmentPayment(ctx, id)
		if err != nil {
			return fmt.Errorf("delete installment payment: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("installment payment %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Installment payment deleted", "id", id)
	return nil
}

// RecordInstallmentPayment pays the next open installment: it increments the
// paid count, recomputes the next payment date and appends a history entry.
// A plan with every installment paid returns core.ErrInstallmentsComplete.
func (r *SQLiteRepository) RecordInstallmentPayment(ctx context.Context, id int64, paidAt time.Time) (core.InstallmentPayment, error) {
	var updated core.InstallmentPayment
	err := r.withTx(ctx, func(q *Queries) error {
		p, err := r.getInstallmentPayment(ctx, q, id)
		if err != nil {
			return err
		}
		if p.IsComplete() {
			return fmt.Errorf("installment payment %d: %w", id, core.ErrInstallmentsComplete)
		}

		p.PaidInstallments++
		p.NextPaymentDate = ""
		if !p.IsComplete() {
			next, err := calendar.ResolveInstallmentDate(p, paidAt)
			if err != nil {
				return fmt.Errorf("compute next payment date: %w", err)
			}
			p.NextPaymentDate = next.String()
		}

		if err := q.UpdateInstallmentProgress(ctx, UpdateInstallmentProgressParams{
			PaidInstallments: int64(p.PaidInstallments),
			NextPaymentDate:  p.NextPaymentDate,
			ID:               id,
		}); err != nil {
			return fmt.Errorf("update installment progress: %w", err)
		}
		if err := q.InsertInstallmentPaymentHistory(ctx, InsertInstallmentPaymentHistoryParams{
			InstallmentPaymentID: id,
			InstallmentNumber:    int64(p.PaidInstallments),
			Amount:               p.InstallmentAmount.String(),
			PaidAt:               paidAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return fmt.Errorf("insert installment history: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return core.InstallmentPayment{}, err
	}

	slog.InfoContext(ctx, "Installment recorded",
		"id", id,
		"paid", updated.PaidInstallments,
		"total", updated.TotalInstallments,
		"next_payment_date", updated.NextPaymentDate)
	return updated, nil
}

// InstallmentHistory returns the recorded installments of a plan in payment
// order. An unknown plan returns ErrNotFound.
func (r *SQLiteRepository) InstallmentHistory(ctx context.Context, id int64) ([]core.InstallmentRecord, error) {
	if _, err := r.getInstallmentPayment(ctx, r.queries, id); err != nil {
		return nil, err
	}
	history, err := r.queries.ListInstallmentPaymentHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list installment history: %w", err)
	}
	records := make([]core.InstallmentRecord, 0, len(history))
	for _, h := range history {
		amount, err := parseMoney(h.Amount)
		if err != nil {
			return nil, fmt.Errorf("installment %d history amount: %w", id, err)
		}
		paidAt, err := time.Parse(time.RFC3339, h.PaidAt)
		if err != nil {
			return nil, fmt.Errorf("installment %d history paid_at: %w", id, err)
		}
		records = append(records, core.InstallmentRecord{
			Number: int(h.InstallmentNumber),
			Amount: amount,
			PaidAt: paidAt,
		})
	}
	return records, nil
}

// ListCategories returns the distinct categories used by payments of kind.
func (r *SQLiteRepository) ListCategories(ctx context.Context, kind core.PaymentKind) ([]string, error) {
	var (
		categories []string
		err        error
	)
	switch kind {
	case core.KindFixed:
		categories, err = r.queries.GetFixedCategories(ctx)
	case core.KindInstallment:
		categories, err = r.queries.GetInstallmentCategories(ctx)
	default:
		return nil, fmt.Errorf("list categories: %w", core.ErrUnsupportedPaymentKind)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s categories: %w", kind, err)
	}
	return categories, nil
}

func toFixedPayment(row FixedPayment, history []FixedPaymentHistory) (core.FixedPayment, error) {
	amount, err := parseMoney(row.Amount)
	if err != nil {
		return core.FixedPayment{}, fmt.Errorf("fixed payment %d amount: %w", row.ID, err)
	}
	p := core.FixedPayment{
		ID:         row.ID,
		Name:       row.Name,
		Amount:     amount,
		Category:   row.Category,
		DueDay:     int(row.DueDay),
		IsActive:   row.IsActive,
		PaidMonths: make(map[string]bool, len(history)),
	}
	for _, h := range history {
		p.PaidMonths[core.MonthKey(int(h.Year), time.Month(h.Month))] = true
	}
	return p, nil
}

func toInstallmentPayment(row InstallmentPayment) (core.InstallmentPayment, error) {
	total, err := parseMoney(row.TotalAmount)
	if err != nil {
		return core.InstallmentPayment{}, fmt.Errorf("installment %d total amount: %w", row.ID, err)
	}
	each, err := parseMoney(row.InstallmentAmount)
	if err != nil {
		return core.InstallmentPayment{}, fmt.Errorf("installment %d amount: %w", row.ID, err)
	}
	// A bad start date is kept as zero; the calendar falls back and logs it.
	start, _ := core.ParseDate(row.StartDate)

	return core.InstallmentPayment{
		ID:                row.ID,
		ItemName:          row.ItemName,
		Category:          row.Category,
		TotalAmount:       total,
		InstallmentAmount: each,
		TotalInstallments: int(row.TotalInstallments),
		PaidInstallments:  int(row.PaidInstallments),
		StartDate:         start,
		NextPaymentDate:   row.NextPaymentDate,
		Vendor:            row.Vendor,
		Notes:             row.Notes,
		IsActive:          row.IsActive,
	}, nil
}

func parseMoney(s string) (core.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Decimal: d}, nil
}

package storage

import (
	"context"
)

const fixedPaymentColumns = `id, name, amount, category, due_day, is_active, created_at, updated_at`

func scanFixedPayment(row interface{ Scan(...any) error }) (FixedPayment, error) {
	var i FixedPayment
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Amount,
		&i.Category,
		&i.DueDay,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createFixedPayment = `INSERT INTO fixed_payments (name, amount, category, due_day, is_active)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + fixedPaymentColumns

type CreateFixedPaymentParams struct {
	Name     string
	Amount   string
	Category string
	DueDay   int64
	IsActive bool
}

func (q *Queries) CreateFixedPayment(ctx context.Context, arg CreateFixedPaymentParams) (FixedPayment, error) {
	row := q.db.QueryRowContext(ctx, createFixedPayment,
		arg.Name,
		arg.Amount,
		arg.Category,
		arg.DueDay,
		arg.IsActive,
	)
	return scanFixedPayment(row)
}

const getFixedPayment = `SELECT ` + fixedPaymentColumns + ` FROM fixed_payments WHERE id = ?`

func (q *Queries) GetFixedPayment(ctx context.Context, id int64) (FixedPayment, error) {
	return scanFixedPayment(q.db.QueryRowContext(ctx, getFixedPayment, id))
}

const listFixedPayments = `SELECT ` + fixedPaymentColumns + ` FROM fixed_payments
WHERE (? = 0 OR is_active = 1)
ORDER BY due_day, name, id`

func (q *Queries) ListFixedPayments(ctx context.Context, activeOnly bool) ([]FixedPayment, error) {
	rows, err := q.db.QueryContext(ctx, listFixedPayments, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FixedPayment
	for rows.Next() {
		i, err := scanFixedPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateFixedPayment = `UPDATE fixed_payments
SET name = ?, amount = ?, category = ?, due_day = ?, is_active = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
WHERE id = ?`

type UpdateFixedPaymentParams struct {
	Name     string
	Amount   string
	Category string
	DueDay   int64
	IsActive bool
	ID       int64
}

func (q *Queries) UpdateFixedPayment(ctx context.Context, arg UpdateFixedPaymentParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateFixedPayment,
		arg.Name,
		arg.Amount,
		arg.Category,
		arg.DueDay,
		arg.IsActive,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteFixedPayment = `DELETE FROM fixed_payments WHERE id = ?`

func (q *Queries) DeleteFixedPayment(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteFixedPayment, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteFixedPaymentHistory = `DELETE FROM fixed_payment_history WHERE fixed_payment_id = ?`

func (q *Queries) DeleteFixedPaymentHistory(ctx context.Context, fixedPaymentID int64) error {
	_, err := q.db.ExecContext(ctx, deleteFixedPaymentHistory, fixedPaymentID)
	return err
}

const insertFixedPaymentHistory = `INSERT INTO fixed_payment_history (fixed_payment_id, year, month, amount, paid_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (fixed_payment_id, year, month) DO NOTHING`

type InsertFixedPaymentHistoryParams struct {
	FixedPaymentID int64
	Year           int64
	Month          int64
	Amount         string
	PaidAt         string
}

func (q *Queries) InsertFixedPaymentHistory(ctx context.Context, arg InsertFixedPaymentHistoryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertFixedPaymentHistory,
		arg.FixedPaymentID,
		arg.Year,
		arg.Month,
		arg.Amount,
		arg.PaidAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listFixedPaymentHistory = `SELECT id, fixed_payment_id, year, month, amount, paid_at
FROM fixed_payment_history
WHERE (? = 0 OR fixed_payment_id = ?)
ORDER BY year, month`

func (q *Queries) ListFixedPaymentHistory(ctx context.Context, fixedPaymentID int64) ([]FixedPaymentHistory, error) {
	rows, err := q.db.QueryContext(ctx, listFixedPaymentHistory, fixedPaymentID, fixedPaymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FixedPaymentHistory
	for rows.Next() {
		var i FixedPaymentHistory
		if err := rows.Scan(
			&i.ID,
			&i.FixedPaymentID,
			&i.Year,
			&i.Month,
			&i.Amount,
			&i.PaidAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const installmentPaymentColumns = `id, item_name, category, total_amount, installment_amount, total_installments,
paid_installments, start_date, next_payment_date, vendor, notes, is_active, created_at, updated_at`

func scanInstallmentPayment(row interface{ Scan(...any) error }) (InstallmentPayment, error) {
	var i InstallmentPayment
	err := row.Scan(
		&i.ID,
		&i.ItemName,
		&i.Category,
		&i.TotalAmount,
		&i.InstallmentAmount,
		&i.TotalInstallments,
		&i.PaidInstallments,
		&i.StartDate,
		&i.NextPaymentDate,
		&i.Vendor,
		&i.Notes,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createInstallmentPayment = `INSERT INTO installment_payments (
    item_name, category, total_amount, installment_amount, total_installments,
    paid_installments, start_date, next_payment_date, vendor, notes, is_active
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + installmentPaymentColumns

type CreateInstallmentPaymentParams struct {
	ItemName          string
	Category          string
	TotalAmount       string
	InstallmentAmount string
	TotalInstallments int64
	PaidInstallments  int64
	StartDate         string
	NextPaymentDate   string
	Vendor            string
	Notes             string
	IsActive          bool
}

func (q *Queries) CreateInstallmentPayment(ctx context.Context, arg CreateInstallmentPaymentParams) (InstallmentPayment, error) {
	row := q.db.QueryRowContext(ctx, createInstallmentPayment,
		arg.ItemName,
		arg.Category,
		arg.TotalAmount,
		arg.InstallmentAmount,
		arg.TotalInstallments,
		arg.PaidInstallments,
		arg.StartDate,
		arg.NextPaymentDate,
		arg.Vendor,
		arg.Notes,
		arg.IsActive,
	)
	return scanInstallmentPayment(row)
}

const getInstallmentPayment = `SELECT ` + installmentPaymentColumns + ` FROM installment_payments WHERE id = ?`

func (q *Queries) GetInstallmentPayment(ctx context.Context, id int64) (InstallmentPayment, error) {
	return scanInstallmentPayment(q.db.QueryRowContext(ctx, getInstallmentPayment, id))
}

const listInstallmentPayments = `SELECT ` + installmentPaymentColumns + ` FROM installment_payments
WHERE (? = 0 OR is_active = 1)
ORDER BY start_date, item_name, id`

func (q *Queries) ListInstallmentPayments(ctx context.Context, activeOnly bool) ([]InstallmentPayment, error) {
	rows, err := q.db.QueryContext(ctx, listInstallmentPayments, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InstallmentPayment
	for rows.Next() {
		i, err := scanInstallmentPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateInstallmentProgress = `UPDATE installment_payments
SET paid_installments = ?, next_payment_date = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
WHERE id = ?`

type UpdateInstallmentProgressParams struct {
	PaidInstallments int64
	NextPaymentDate  string
	ID               int64
}

func (q *Queries) UpdateInstallmentProgress(ctx context.Context, arg UpdateInstallmentProgressParams) error {
	_, err := q.db.ExecContext(ctx, updateInstallmentProgress, arg.PaidInstallments, arg.NextPaymentDate, arg.ID)
	return err
}

const updateInstallmentPayment = `UPDATE installment_payments
SET item_name = ?, category = ?, total_amount = ?, installment_amount = ?, total_installments = ?,
    start_date = ?, next_payment_date = ?, vendor = ?, notes = ?, is_active = ?,
    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
WHERE id = ?`

type UpdateInstallmentPaymentParams struct {
	ItemName          string
	Category          string
	TotalAmount       string
	InstallmentAmount string
	TotalInstallments int64
	StartDate         string
	NextPaymentDate   string
	Vendor            string
	Notes             string
	IsActive          bool
	ID                int64
}

func (q *Queries) UpdateInstallmentPayment(ctx context.Context, arg UpdateInstallmentPaymentParams) error {
	_, err := q.db.ExecContext(ctx, updateInstallmentPayment,
		arg.ItemName,
		arg.Category,
		arg.TotalAmount,
		arg.InstallmentAmount,
		arg.TotalInstallments,
		arg.StartDate,
		arg.NextPaymentDate,
		arg.Vendor,
		arg.Notes,
		arg.IsActive,
		arg.ID,
	)
	return err
}

const deleteInstallmentPayment = `DELETE FROM installment_payments WHERE id = ?`

func (q *Queries) DeleteInstallmentPayment(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteInstallmentPayment, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteInstallmentPaymentHistory = `DELETE FROM installment_payment_history WHERE installment_payment_id = ?`

func (q *Queries) DeleteInstallmentPaymentHistory(ctx context.Context, installmentPaymentID int64) error {
	_, err := q.db.ExecContext(ctx, deleteInstallmentPaymentHistory, installmentPaymentID)
	return err
}

const insertInstallmentPaymentHistory = `INSERT INTO installment_payment_history (installment_payment_id, installment_number, amount, paid_at)
VALUES (?, ?, ?, ?)`

type InsertInstallmentPaymentHistoryParams struct {
	InstallmentPaymentID int64
	InstallmentNumber    int64
	Amount               string
	PaidAt               string
}

func (q *Queries) InsertInstallmentPaymentHistory(ctx context.Context, arg InsertInstallmentPaymentHistoryParams) error {
	_, err := q.db.ExecContext(ctx, insertInstallmentPaymentHistory,
		arg.InstallmentPaymentID,
		arg.InstallmentNumber,
		arg.Amount,
		arg.PaidAt,
	)
	return err
}

const listInstallmentPaymentHistory = `SELECT id, installment_payment_id, installment_number, amount, paid_at
FROM installment_payment_history
WHERE installment_payment_id = ?
ORDER BY installment_number`

func (q *Queries) ListInstallmentPaymentHistory(ctx context.Context, installmentPaymentID int64) ([]InstallmentPaymentHistory, error) {
	rows, err := q.db.QueryContext(ctx, listInstallmentPaymentHistory, installmentPaymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InstallmentPaymentHistory
	for rows.Next() {
		var i InstallmentPaymentHistory
		if err := rows.Scan(
			&i.ID,
			&i.InstallmentPaymentID,
			&i.InstallmentNumber,
			&i.Amount,
			&i.PaidAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getFixedCategories = `SELECT DISTINCT category FROM fixed_payments ORDER BY category`

func (q *Queries) GetFixedCategories(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, getFixedCategories)
}

const getInstallmentCategories = `SELECT DISTINCT category FROM installment_payments ORDER BY category`

func (q *Queries) GetInstallmentCategories(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, getInstallmentCategories)
}

func (q *Queries) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

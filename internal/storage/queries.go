package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// TransactionRow mirrors the transactions table.
type TransactionRow struct {
	ID           int64
	Fecha        string
	Mes          string
	Categoria    string
	Subcategoria string
	Importe      string
	MetodoPago   string
	Notas        string
}

const insertTransaction = `-- name: InsertTransaction :execlastid
INSERT INTO transactions (fecha, mes, categoria, subcategoria, importe, metodo_pago, notas)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type InsertTransactionParams struct {
	Fecha        string
	Mes          string
	Categoria    string
	Subcategoria string
	Importe      string
	MetodoPago   string
	Notas        string
}

func (q *Queries) InsertTransaction(ctx context.Context, arg InsertTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertTransaction,
		arg.Fecha,
		arg.Mes,
		arg.Categoria,
		arg.Subcategoria,
		arg.Importe,
		arg.MetodoPago,
		arg.Notas,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const insertRecurringTransaction = `-- name: InsertRecurringTransaction :execrows
INSERT INTO transactions (fecha, mes, categoria, subcategoria, importe, metodo_pago, notas)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING
`

// InsertRecurringTransaction returns 0 when the month already holds a
// recurring entry for the same subcategory.
func (q *Queries) InsertRecurringTransaction(ctx context.Context, arg InsertTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertRecurringTransaction,
		arg.Fecha,
		arg.Mes,
		arg.Categoria,
		arg.Subcategoria,
		arg.Importe,
		arg.MetodoPago,
		arg.Notas,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listTransactions = `-- name: ListTransactions :many
SELECT id, fecha, mes, categoria, subcategoria, importe, metodo_pago, notas
FROM transactions
ORDER BY id
`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.ID,
			&i.Fecha,
			&i.Mes,
			&i.Categoria,
			&i.Subcategoria,
			&i.Importe,
			&i.MetodoPago,
			&i.Notas,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countTransactions = `-- name: CountTransactions :one
SELECT COUNT(*) FROM transactions
`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTransactions)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getSettings = `-- name: GetSettings :one
SELECT document FROM settings WHERE id = 1
`

func (q *Queries) GetSettings(ctx context.Context) (string, error) {
	row := q.db.QueryRowContext(ctx, getSettings)
	var document string
	err := row.Scan(&document)
	return document, err
}

const upsertSettings = `-- name: UpsertSettings :exec
INSERT INTO settings (id, document, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP
`

func (q *Queries) UpsertSettings(ctx context.Context, document string) error {
	_, err := q.db.ExecContext(ctx, upsertSettings, document)
	return err
}

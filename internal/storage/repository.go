// Package storage implements the durable transaction store on SQLite.
//
// Every mutating call is committed before it returns. Duplicate inserts are
// a normal outcome, detected through the UNIQUE(tx_date, amount_cents,
// description) constraint rather than raised as errors.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

// DefaultMaxPageSize bounds listing page sizes when no limit is configured.
const DefaultMaxPageSize = 100

var sortColumns = map[string]string{
	"date":     "tx_date",
	"amount":   "amount_cents",
	"category": "category",
}

type (
	// InsertResult reports the outcome of an insert: either a new row was
	// created, or the candidate duplicated an existing one.
	InsertResult struct {
		ID        int64
		Duplicate bool
	}

	// ListQuery selects a page of transactions. Zero dates leave the range
	// open on that side, empty category matches everything.
	ListQuery struct {
		StartDate core.Date
		EndDate   core.Date
		Category  string
		Page      int    // 1-based
		PageSize  int
		SortBy    string // date, amount, category
		SortOrder string // asc, desc
	}

	// Page is one page of transactions with pagination metadata.
	Page struct {
		Transactions []core.Transaction
		PageNum      int
		PageSize     int
		Total        int
		TotalPages   int
	}

	SQLiteRepository struct {
		db          *sql.DB
		maxPageSize int
	}
)

// Validate rejects malformed queries before anything touches the database.
func (q ListQuery) Validate(maxPageSize int) error {
	if q.Page < 1 {
		return core.NewValidationError("page", "must be 1 or greater, got %d", q.Page)
	}
	if q.PageSize < 1 {
		return core.NewValidationError("limit", "must be 1 or greater, got %d", q.PageSize)
	}
	if q.PageSize > maxPageSize {
		return core.NewValidationError("limit", "must be at most %d, got %d", maxPageSize, q.PageSize)
	}
	if q.SortBy != "" {
		if _, ok := sortColumns[q.SortBy]; !ok {
			return core.NewValidationError("sortBy", "must be one of date, amount, category")
		}
	}
	switch q.SortOrder {
	case "", "asc", "desc":
	default:
		return core.NewValidationError("sortOrder", "must be asc or desc")
	}
	if !q.StartDate.IsZero() && !q.EndDate.IsZero() && q.EndDate.Before(q.StartDate) {
		return core.NewValidationError("endDate", "must not be before startDate")
	}
	return nil
}

func NewSQLiteRepository(dbPath string, maxPageSize int) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}

	return &SQLiteRepository{db: db, maxPageSize: maxPageSize}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// MaxPageSize returns the configured listing bound.
func (r *SQLiteRepository) MaxPageSize() int {
	return r.maxPageSize
}

// InsertTransaction writes a validated candidate. A candidate matching an
// existing (date, amount, description) triple is reported as a duplicate
// with the existing row's id; nothing is written in that case.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, c core.CandidateTransaction) (InsertResult, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO transactions (tx_date, amount_cents, description, category, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (tx_date, amount_cents, description) DO NOTHING
		RETURNING id`,
		c.Date.String(), c.Amount.Cents, c.Description, c.Category, time.Now().UTC(),
	).Scan(&id)

	if err == nil {
		slog.DebugContext(ctx, "Transaction saved",
			"id", id,
			"date", c.Date.String(),
			"amount_cents", c.Amount.Cents)
		return InsertResult{ID: id}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return InsertResult{}, &core.StorageError{Op: "insert transaction", Err: err}
	}

	// Conflict: look up the row that owns the triple.
	err = r.db.QueryRowContext(ctx, `
		SELECT id FROM transactions
		WHERE tx_date = ? AND amount_cents = ? AND description = ?`,
		c.Date.String(), c.Amount.Cents, c.Description,
	).Scan(&id)
	if err != nil {
		return InsertResult{}, &core.StorageError{Op: "lookup duplicate", Err: err}
	}
	return InsertResult{ID: id, Duplicate: true}, nil
}

// GetTransaction returns a transaction by id, or core.ErrNotFound.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, tx_date, amount_cents, description, category, created_at
		FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, &core.StorageError{Op: "get transaction", Err: err}
	}
	return tx, nil
}

// DeleteTransaction removes a transaction by id, or returns core.ErrNotFound.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return &core.StorageError{Op: "delete transaction", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &core.StorageError{Op: "delete transaction", Err: err}
	}
	if n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// ListTransactions returns one page of transactions matching the query,
// together with the total match count. The query is validated against the
// configured page-size bound before anything is executed.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, q ListQuery) (Page, error) {
	if err := q.Validate(r.maxPageSize); err != nil {
		return Page{}, err
	}

	where, args := buildFilter(q)

	var total int
	countSQL := "SELECT COUNT(*) FROM transactions" + where
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return Page{}, &core.StorageError{Op: "count transactions", Err: err}
	}

	sortCol := sortColumns["date"]
	if q.SortBy != "" {
		sortCol = sortColumns[q.SortBy]
	}
	dir := "ASC"
	if q.SortOrder == "desc" {
		dir = "DESC"
	}

	listSQL := fmt.Sprintf(`
		SELECT id, tx_date, amount_cents, description, category, created_at
		FROM transactions%s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`, where, sortCol, dir)
	listArgs := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.db.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return Page{}, &core.StorageError{Op: "list transactions", Err: err}
	}
	defer rows.Close()

	txs, err := collectTransactions(rows)
	if err != nil {
		return Page{}, &core.StorageError{Op: "list transactions", Err: err}
	}

	totalPages := (total + q.PageSize - 1) / q.PageSize
	return Page{
		Transactions: txs,
		PageNum:      q.Page,
		PageSize:     q.PageSize,
		Total:        total,
		TotalPages:   totalPages,
	}, nil
}

// TransactionsInRange returns every transaction in [start, end] inclusive,
// ordered by date then insertion order. Used by the analytics readers.
func (r *SQLiteRepository) TransactionsInRange(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tx_date, amount_cents, description, category, created_at
		FROM transactions
		WHERE tx_date >= ? AND tx_date <= ?
		ORDER BY tx_date ASC, id ASC`,
		start.String(), end.String())
	if err != nil {
		return nil, &core.StorageError{Op: "query range", Err: err}
	}
	defer rows.Close()

	txs, err := collectTransactions(rows)
	if err != nil {
		return nil, &core.StorageError{Op: "query range", Err: err}
	}
	return txs, nil
}

// TransactionsInMonth returns every transaction within the given month.
func (r *SQLiteRepository) TransactionsInMonth(ctx context.Context, m core.Month) ([]core.Transaction, error) {
	return r.TransactionsInRange(ctx, m.First(), m.Last())
}

// CreateImportSession persists a new pending session.
func (r *SQLiteRepository) CreateImportSession(ctx context.Context, s core.ImportSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO import_sessions (id, source_name, started_at, status)
		VALUES (?, ?, ?, ?)`,
		s.ID, s.SourceName, s.StartedAt.UTC(), string(s.Status))
	if err != nil {
		return &core.StorageError{Op: "create import session", Err: err}
	}
	return nil
}

// FinalizeImportSession writes the terminal state and counts of a session.
// Sessions already in a terminal state are never overwritten.
func (r *SQLiteRepository) FinalizeImportSession(ctx context.Context, s core.ImportSession) error {
	if !s.Status.IsTerminal() {
		return fmt.Errorf("finalize import session: status %q is not terminal", s.Status)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE import_sessions
		SET completed_at = ?, total_rows = ?, imported_count = ?,
		    duplicate_count = ?, error_count = ?, status = ?, error_message = ?
		WHERE id = ? AND status = ?`,
		s.CompletedAt.UTC(), s.TotalRows, s.ImportedCount,
		s.DuplicateCount, s.ErrorCount, string(s.Status), s.ErrorMessage,
		s.ID, string(core.StatusPending))
	if err != nil {
		return &core.StorageError{Op: "finalize import session", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &core.StorageError{Op: "finalize import session", Err: err}
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GetImportSession returns a session by id, or core.ErrNotFound.
func (r *SQLiteRepository) GetImportSession(ctx context.Context, id string) (core.ImportSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source_name, started_at, completed_at, total_rows,
		       imported_count, duplicate_count, error_count, status, error_message
		FROM import_sessions WHERE id = ?`, id)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ImportSession{}, core.ErrNotFound
	}
	if err != nil {
		return core.ImportSession{}, &core.StorageError{Op: "get import session", Err: err}
	}
	return s, nil
}

// ListImportSessions returns up to limit sessions, most recent first.
func (r *SQLiteRepository) ListImportSessions(ctx context.Context, limit int) ([]core.ImportSession, error) {
	if limit <= 0 {
		limit = r.maxPageSize
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_name, started_at, completed_at, total_rows,
		       imported_count, duplicate_count, error_count, status, error_message
		FROM import_sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, &core.StorageError{Op: "list import sessions", Err: err}
	}
	defer rows.Close()

	var sessions []core.ImportSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, &core.StorageError{Op: "list import sessions", Err: err}
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list import sessions", Err: err}
	}
	return sessions, nil
}

func buildFilter(q ListQuery) (string, []any) {
	var conds []string
	var args []any
	if !q.StartDate.IsZero() {
		conds = append(conds, "tx_date >= ?")
		args = append(args, q.StartDate.String())
	}
	if !q.EndDate.IsZero() {
		conds = append(conds, "tx_date <= ?")
		args = append(args, q.EndDate.String())
	}
	if q.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, q.Category)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx      core.Transaction
		dateStr string
	)
	if err := row.Scan(&tx.ID, &dateStr, &tx.Amount.Cents, &tx.Description, &tx.Category, &tx.CreatedAt); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", dateStr, err)
	}
	tx.Date = d
	return tx, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanSession(row rowScanner) (core.ImportSession, error) {
	var (
		s           core.ImportSession
		status      string
		completedAt sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.SourceName, &s.StartedAt, &completedAt, &s.TotalRows,
		&s.ImportedCount, &s.DuplicateCount, &s.ErrorCount, &status, &s.ErrorMessage); err != nil {
		return core.ImportSession{}, err
	}
	s.Status = core.SessionStatus(status)
	if completedAt.Valid {
		s.CompletedAt = completedAt.Time
	}
	return s, nil
}

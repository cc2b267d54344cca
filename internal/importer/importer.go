package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// Store is the slice of the transaction store the pipeline writes through.
type Store interface {
	InsertTransaction(ctx context.Context, c core.CandidateTransaction) (storage.InsertResult, error)
	CreateImportSession(ctx context.Context, s core.ImportSession) error
	FinalizeImportSession(ctx context.Context, s core.ImportSession) error
}

type (
	// Options controls reporting behavior of a single run. Duplicates are
	// always detected and counted; SkipDuplicates only suppresses the
	// per-row duplicate details in the result.
	Options struct {
		SkipDuplicates bool
	}

	// DuplicateRow is a row whose (date, amount, description) triple
	// already exists in the store.
	DuplicateRow struct {
		Row         int        `json:"row"`
		Date        core.Date  `json:"date"`
		Amount      core.Money `json:"amount"`
		Description string     `json:"description"`
		ExistingID  int64      `json:"existingId"`
	}

	// Result is the full outcome of one import run.
	Result struct {
		Session    core.ImportSession
		Imported   []core.Transaction
		Duplicates []DuplicateRow
		Errors     []core.RowError
	}

	// Importer runs imports against the store. At most one import holds the
	// write path at a time; concurrent runs queue on the importer's lock.
	Importer struct {
		store Store
		mu    sync.Mutex
		now   func() time.Time
	}
)

func NewImporter(store Store) *Importer {
	return &Importer{store: store, now: time.Now}
}

// columnMap holds the header indices of the recognized columns.
type columnMap struct {
	date        int
	amount      int
	description int
	category    int // -1 when absent
}

// Run imports the file at path. Each valid row is committed individually, so
// cancelling mid-stream keeps the rows written so far and marks the session
// failed; duplicate detection makes a re-run of the same file safe.
func (imp *Importer) Run(ctx context.Context, path, sourceName string, opts Options) (*Result, error) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	// Session bookkeeping must outlive cancellation: a cancelled import
	// still records its failed session.
	bookCtx := context.WithoutCancel(ctx)

	session := core.ImportSession{
		ID:         uuid.NewString(),
		SourceName: sourceName,
		StartedAt:  imp.now().UTC(),
		Status:     core.StatusPending,
	}
	if err := imp.store.CreateImportSession(bookCtx, session); err != nil {
		return nil, fmt.Errorf("create import session: %w", err)
	}

	result := &Result{}

	format, err := DetectFormat(path)
	if err != nil {
		return imp.fail(bookCtx, session, result, err.Error())
	}
	open, err := GetOpener(format)
	if err != nil {
		return imp.fail(bookCtx, session, result, err.Error())
	}
	reader, err := open(path)
	if err != nil {
		return imp.fail(bookCtx, session, result, err.Error())
	}
	defer reader.Close()

	cols, err := readHeader(reader)
	if err != nil {
		return imp.fail(bookCtx, session, result, err.Error())
	}

	slog.InfoContext(ctx, "Import started",
		"session_id", session.ID,
		"source", sourceName,
		"format", format)

	for {
		if err := ctx.Err(); err != nil {
			res, ferr := imp.fail(bookCtx, session, result, "import cancelled: "+err.Error())
			if ferr != nil {
				return res, ferr
			}
			return res, err
		}

		record, rowNum, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			session.TotalRows++
			session.ErrorCount++
			result.Errors = append(result.Errors, core.RowError{
				Row:     rowNum,
				Message: err.Error(),
			})
			continue
		}
		if isBlank(record) {
			continue
		}
		session.TotalRows++

		candidate, rowErr := parseRow(record, rowNum, cols, imp.now())
		if rowErr != nil {
			session.ErrorCount++
			result.Errors = append(result.Errors, *rowErr)
			continue
		}

		inserted, err := imp.store.InsertTransaction(ctx, candidate)
		if err != nil {
			// Storage failures abort the run; everything committed so far
			// stays committed.
			res, ferr := imp.fail(bookCtx, session, result, "storage failure: "+err.Error())
			if ferr != nil {
				return res, ferr
			}
			return res, err
		}

		if inserted.Duplicate {
			session.DuplicateCount++
			if !opts.SkipDuplicates {
				result.Duplicates = append(result.Duplicates, DuplicateRow{
					Row:         rowNum,
					Date:        candidate.Date,
					Amount:      candidate.Amount,
					Description: candidate.Description,
					ExistingID:  inserted.ID,
				})
			}
			continue
		}

		session.ImportedCount++
		result.Imported = append(result.Imported, core.Transaction{
			ID:          inserted.ID,
			Date:        candidate.Date,
			Amount:      candidate.Amount,
			Description: candidate.Description,
			Category:    candidate.Category,
		})
	}

	session.Status = core.StatusCompleted
	session.CompletedAt = imp.now().UTC()
	if err := imp.store.FinalizeImportSession(ctx, session); err != nil {
		return nil, fmt.Errorf("finalize import session: %w", err)
	}
	result.Session = session

	slog.InfoContext(ctx, "Import completed",
		"session_id", session.ID,
		"total_rows", session.TotalRows,
		"imported", session.ImportedCount,
		"duplicates", session.DuplicateCount,
		"errors", session.ErrorCount)

	return result, nil
}

// fail finalizes the session in the failed state, keeping the counts
// accumulated so far.
func (imp *Importer) fail(ctx context.Context, session core.ImportSession, result *Result, msg string) (*Result, error) {
	session.Status = core.StatusFailed
	session.CompletedAt = imp.now().UTC()
	session.ErrorMessage = msg

	slog.WarnContext(ctx, "Import failed",
		"session_id", session.ID,
		"reason", msg,
		"rows_processed", session.TotalRows)

	if err := imp.store.FinalizeImportSession(ctx, session); err != nil {
		return nil, fmt.Errorf("finalize failed import session: %w", err)
	}
	result.Session = session
	return result, nil
}

// readHeader consumes the header row and locates the required columns.
// Missing required columns fail the whole import before any row is read.
func readHeader(reader RowReader) (columnMap, error) {
	header, _, err := reader.Next()
	if err == io.EOF {
		return columnMap{}, fmt.Errorf("%w: file has no header row", core.ErrMissingColumns)
	}
	if err != nil {
		return columnMap{}, fmt.Errorf("read header: %w", err)
	}

	cols := columnMap{date: -1, amount: -1, description: -1, category: -1}
	for i, cell := range header {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "date":
			cols.date = i
		case "amount":
			cols.amount = i
		case "description":
			cols.description = i
		case "category":
			cols.category = i
		}
	}

	var missing []string
	if cols.date == -1 {
		missing = append(missing, "date")
	}
	if cols.amount == -1 {
		missing = append(missing, "amount")
	}
	if cols.description == -1 {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return columnMap{}, fmt.Errorf("%w: %s", core.ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

// parseRow turns a raw record into a validated candidate transaction.
func parseRow(record []string, rowNum int, cols columnMap, now time.Time) (core.CandidateTransaction, *core.RowError) {
	raw := strings.Join(record, ",")

	rowErr := func(field, msg string) *core.RowError {
		return &core.RowError{Row: rowNum, Field: field, Message: msg, RawData: raw}
	}

	date, err := core.ParseDate(strings.TrimSpace(cell(record, cols.date)))
	if err != nil {
		return core.CandidateTransaction{}, rowErr("date", err.Error())
	}
	amount, err := core.ParseMoney(cell(record, cols.amount))
	if err != nil {
		return core.CandidateTransaction{}, rowErr("amount", err.Error())
	}

	candidate := core.CandidateTransaction{
		Date:        date,
		Amount:      amount,
		Description: strings.TrimSpace(cell(record, cols.description)),
	}
	if cols.category >= 0 {
		candidate.Category = strings.TrimSpace(cell(record, cols.category))
	}

	if err := candidate.Validate(now); err != nil {
		return core.CandidateTransaction{}, rowErr(fieldFor(err), err.Error())
	}
	return candidate, nil
}

// cell returns the value at index i, or "" when the row is too short.
func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// fieldFor maps a validation error to the column it concerns.
func fieldFor(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrFutureDate):
		return "date"
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrZeroAmount),
		errors.Is(err, core.ErrAmountOutOfRange):
		return "amount"
	case errors.Is(err, core.ErrEmptyDescription), errors.Is(err, core.ErrDescriptionTooLong):
		return "description"
	case errors.Is(err, core.ErrCategoryTooLong):
		return "category"
	default:
		return ""
	}
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

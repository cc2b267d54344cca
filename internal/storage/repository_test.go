package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bilancio/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bilancio-test.db")
	repo, err := NewSQLiteRepository(path, 50)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func candidate(date string, cents int64, desc, category string) core.CandidateTransaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.CandidateTransaction{
		Date:        d,
		Amount:      core.Money{Cents: cents},
		Description: desc,
		Category:    category,
	}
}

func TestInsertTransactionDetectsDuplicates(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first, err := repo.InsertTransaction(ctx, candidate("2025-01-01", -5000, "Grocery Store", "Food"))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if first.Duplicate {
		t.Fatal("first insert reported as duplicate")
	}

	second, err := repo.InsertTransaction(ctx, candidate("2025-01-01", -5000, "Grocery Store", "Food"))
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("identical triple not reported as duplicate")
	}
	if second.ID != first.ID {
		t.Errorf("duplicate references id %d, want existing id %d", second.ID, first.ID)
	}

	// A different category alone does not make the row distinct.
	third, err := repo.InsertTransaction(ctx, candidate("2025-01-01", -5000, "Grocery Store", "Other"))
	if err != nil {
		t.Fatalf("third insert: %v", err)
	}
	if !third.Duplicate {
		t.Error("category is not part of the duplicate key")
	}

	// Changing any triple component creates a new row.
	fourth, err := repo.InsertTransaction(ctx, candidate("2025-01-02", -5000, "Grocery Store", "Food"))
	if err != nil {
		t.Fatalf("fourth insert: %v", err)
	}
	if fourth.Duplicate {
		t.Error("different date must not be a duplicate")
	}
}

func TestGetAndDeleteTransaction(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	res, err := repo.InsertTransaction(ctx, candidate("2025-03-10", 250000, "Salary", "Income"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	tx, err := repo.GetTransaction(ctx, res.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tx.Description != "Salary" || tx.Amount.Cents != 250000 || tx.Date.String() != "2025-03-10" {
		t.Errorf("unexpected transaction: %+v", tx)
	}
	if tx.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}

	if err := repo.DeleteTransaction(ctx, res.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, res.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get after delete: got %v, want ErrNotFound", err)
	}
	if err := repo.DeleteTransaction(ctx, res.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestListQueryValidate(t *testing.T) {
	valid := ListQuery{Page: 1, PageSize: 20, SortBy: "date", SortOrder: "asc"}

	tests := []struct {
		name   string
		mutate func(q *ListQuery)
		ok     bool
	}{
		{name: "valid", mutate: func(q *ListQuery) {}, ok: true},
		{name: "defaults for sort", mutate: func(q *ListQuery) { q.SortBy = ""; q.SortOrder = "" }, ok: true},
		{name: "zero page", mutate: func(q *ListQuery) { q.Page = 0 }},
		{name: "zero page size", mutate: func(q *ListQuery) { q.PageSize = 0 }},
		{name: "page size over bound", mutate: func(q *ListQuery) { q.PageSize = 51 }},
		{name: "unknown sort field", mutate: func(q *ListQuery) { q.SortBy = "description" }},
		{name: "unknown sort order", mutate: func(q *ListQuery) { q.SortOrder = "up" }},
		{name: "inverted range", mutate: func(q *ListQuery) {
			q.StartDate, _ = core.ParseDate("2025-02-01")
			q.EndDate, _ = core.ParseDate("2025-01-01")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			tt.mutate(&q)
			err := q.Validate(50)
			if tt.ok && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
			if !tt.ok {
				var verr *core.ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("Validate() = %v, want *core.ValidationError", err)
				}
			}
		})
	}
}

func TestListTransactionsPaginationAndSort(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	seed := []core.CandidateTransaction{
		candidate("2025-01-03", -3000, "Cinema", "Fun"),
		candidate("2025-01-01", -5000, "Grocery Store", "Food"),
		candidate("2025-01-02", 250000, "Salary", "Income"),
		candidate("2025-01-04", -1500, "Coffee", "Food"),
		candidate("2025-01-05", -8000, "Restaurant", "Food"),
	}
	for _, c := range seed {
		if _, err := repo.InsertTransaction(ctx, c); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}

	page, err := repo.ListTransactions(ctx, ListQuery{Page: 1, PageSize: 2, SortBy: "date", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if page.Total != 5 || page.TotalPages != 3 {
		t.Errorf("total = %d, totalPages = %d, want 5 and 3", page.Total, page.TotalPages)
	}
	if len(page.Transactions) != 2 {
		t.Fatalf("page 1 size = %d, want 2", len(page.Transactions))
	}
	if page.Transactions[0].Description != "Grocery Store" {
		t.Errorf("page 1 first = %q, want Grocery Store", page.Transactions[0].Description)
	}

	last, err := repo.ListTransactions(ctx, ListQuery{Page: 3, PageSize: 2, SortBy: "date", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("list page 3: %v", err)
	}
	if len(last.Transactions) != 1 || last.Transactions[0].Description != "Restaurant" {
		t.Errorf("page 3 = %+v, want single Restaurant row", last.Transactions)
	}

	byAmount, err := repo.ListTransactions(ctx, ListQuery{Page: 1, PageSize: 10, SortBy: "amount", SortOrder: "desc"})
	if err != nil {
		t.Fatalf("list by amount: %v", err)
	}
	if byAmount.Transactions[0].Description != "Salary" {
		t.Errorf("amount desc first = %q, want Salary", byAmount.Transactions[0].Description)
	}

	food, err := repo.ListTransactions(ctx, ListQuery{Page: 1, PageSize: 10, Category: "Food"})
	if err != nil {
		t.Fatalf("list food: %v", err)
	}
	if food.Total != 3 {
		t.Errorf("food total = %d, want 3", food.Total)
	}

	start, _ := core.ParseDate("2025-01-02")
	end, _ := core.ParseDate("2025-01-04")
	ranged, err := repo.ListTransactions(ctx, ListQuery{Page: 1, PageSize: 10, StartDate: start, EndDate: end})
	if err != nil {
		t.Fatalf("list ranged: %v", err)
	}
	if ranged.Total != 3 {
		t.Errorf("ranged total = %d, want 3", ranged.Total)
	}
}

func TestTransactionsInRangeOrdering(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, c := range []core.CandidateTransaction{
		candidate("2025-02-10", -100, "b", ""),
		candidate("2025-02-01", -200, "a", ""),
		candidate("2025-02-10", -300, "c", ""),
	} {
		if _, err := repo.InsertTransaction(ctx, c); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	m, _ := core.ParseMonth("2025-02")
	txs, err := repo.TransactionsInMonth(ctx, m)
	if err != nil {
		t.Fatalf("TransactionsInMonth: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if txs[i].Description != w {
			t.Errorf("position %d = %q, want %q", i, txs[i].Description, w)
		}
	}
}

func TestImportSessionLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	s := core.ImportSession{
		ID:         "session-1",
		SourceName: "january.csv",
		StartedAt:  time.Now().UTC(),
		Status:     core.StatusPending,
	}
	if err := repo.CreateImportSession(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetImportSession(ctx, "session-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != core.StatusPending || !got.CompletedAt.IsZero() {
		t.Errorf("pending session = %+v", got)
	}

	s.Status = core.StatusCompleted
	s.CompletedAt = time.Now().UTC()
	s.TotalRows = 3
	s.ImportedCount = 2
	s.DuplicateCount = 1
	if err := repo.FinalizeImportSession(ctx, s); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	got, err = repo.GetImportSession(ctx, "session-1")
	if err != nil {
		t.Fatalf("get after finalize: %v", err)
	}
	if got.Status != core.StatusCompleted || got.ImportedCount != 2 || got.DuplicateCount != 1 {
		t.Errorf("finalized session = %+v", got)
	}
	if got.CompletedAt.IsZero() {
		t.Error("completed_at not set")
	}

	// Terminal sessions are never finalized twice.
	s.Status = core.StatusFailed
	if err := repo.FinalizeImportSession(ctx, s); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("re-finalize: got %v, want ErrNotFound", err)
	}

	// Finalize requires a terminal status.
	bad := core.ImportSession{ID: "session-1", Status: core.StatusPending}
	if err := repo.FinalizeImportSession(ctx, bad); err == nil {
		t.Error("finalize with pending status must fail")
	}
}

func TestListImportSessionsMostRecentFirst(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		s := core.ImportSession{
			ID:         id,
			SourceName: id + ".csv",
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			Status:     core.StatusPending,
		}
		if err := repo.CreateImportSession(ctx, s); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	sessions, err := repo.ListImportSessions(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != "new" || sessions[1].ID != "mid" {
		t.Errorf("order = %s, %s, want new, mid", sessions[0].ID, sessions[1].ID)
	}
}

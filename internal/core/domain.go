package core

import (
	"strings"
	"time"
)

const (
	StatusPending   SessionStatus = "pending"
	StatusCompleted SessionStatus = "completed"
	StatusFailed    SessionStatus = "failed"
)

const (
	MaxDescriptionLen = 500
	MaxCategoryLen    = 100
)

type (
	// SessionStatus is the lifecycle state of an import session.
	// Transitions: pending -> completed | failed. Terminal states never change.
	SessionStatus string

	// Transaction is a stored, immutable transaction record.
	// No two transactions share the same (date, amount, description) triple.
	Transaction struct {
		ID          int64
		Date        Date
		Amount      Money
		Description string
		Category    string
		// IsTransfer marks an internal transfer between own accounts.
		// It is derived from configured transfer categories at read time
		// and is never persisted.
		IsTransfer bool
		CreatedAt  time.Time
	}

	// CandidateTransaction is a validated row that has not been stored yet.
	CandidateTransaction struct {
		Date        Date
		Amount      Money
		Description string
		Category    string
	}

	// ImportSession records the outcome of a single import run.
	// Invariant: ImportedCount + DuplicateCount + ErrorCount <= TotalRows.
	ImportSession struct {
		ID             string
		SourceName     string
		StartedAt      time.Time
		CompletedAt    time.Time // zero while pending
		TotalRows      int
		ImportedCount  int
		DuplicateCount int
		ErrorCount     int
		Status         SessionStatus
		ErrorMessage   string
	}
)

// Validate checks field-level constraints on a candidate transaction.
// now is the clock used for the not-in-the-future rule.
func (c CandidateTransaction) Validate(now time.Time) error {
	if err := c.Date.Validate(); err != nil {
		return err
	}
	if c.Date.After(DateOf(now)) {
		return ErrFutureDate
	}
	if err := c.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(c.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(c.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if len(c.Category) > MaxCategoryLen {
		return ErrCategoryTooLong
	}
	return nil
}

// IsTerminal reports whether the session reached a final state.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsValid reports whether the status is one of the known states.
func (s SessionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// CheckCounts verifies the session counting invariant.
func (s ImportSession) CheckCounts() bool {
	return s.ImportedCount+s.DuplicateCount+s.ErrorCount <= s.TotalRows
}

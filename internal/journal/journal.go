// Package journal records every action dispatched against the account and
// what it did. Entries are append-only and are never replayed into state.
package journal

import (
	"context"
	"errors"
	"time"

	"bankfsm.org/internal/account"
)

//go:generate mockgen -source=journal.go -destination=mocks/mock_journal.go -package=mocks

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

var ErrInvalidEntry = errors.New("journal: invalid entry")

// Entry is one dispatched action.
type Entry struct {
	ID       string          `json:"id"`
	Sequence uint64          `json:"sequence"` // monotonic, assigned on append
	At       time.Time       `json:"at"`
	Kind     account.Kind    `json:"type"`
	Amount   int64           `json:"amount"`
	Outcome  account.Outcome `json:"outcome"`
	Before   account.State   `json:"before"`
	After    account.State   `json:"after"`
}

// Journal stores entries.
type Journal interface {
	// Append stores e and returns it with Sequence (and ID, if empty) set.
	Append(ctx context.Context, e Entry) (Entry, error)
	// List returns up to limit entries with Sequence > afterSeq in order, and
	// the cursor to pass next time.
	List(ctx context.Context, limit int, afterSeq uint64) ([]Entry, uint64, error)
}

// NormalizeLimit resets out-of-range limits (<= 0 or > MaxLimit) to DefaultLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 || limit > MaxLimit {
		return DefaultLimit
	}
	return limit
}

// Validate checks the fields every store relies on.
func (e Entry) Validate() error {
	if !e.Kind.Valid() || e.Outcome.Result == 0 || e.At.IsZero() {
		return ErrInvalidEntry
	}
	return nil
}

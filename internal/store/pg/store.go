// Package pg stores the account journal in PostgreSQL via the pgx stdlib driver.
package pg

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"bankfsm.org/internal/account"
	"bankfsm.org/internal/ids"
	"bankfsm.org/internal/journal"
)

// Migrations holds the schema for this store, applied by the migrate package.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const pgErrUniqueViolation = "23505"

// ErrDuplicateEntry is returned when an entry id is already stored.
var ErrDuplicateEntry = errors.New("pg: duplicate journal entry")

type Store struct {
	db *sql.DB
}

var _ journal.Journal = (*Store)(nil)

// Open connects with the pgx driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Writes are serialized by the teller; a small pool is plenty.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Append(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	if err := e.Validate(); err != nil {
		return journal.Entry{}, err
	}
	if e.ID == "" {
		e.ID = ids.NewAt(e.At)
	}

	err := s.db.QueryRowContext(ctx, `
		insert into account_journal(
			id, at, kind, amount, result, reason,
			before_balance, before_loan, before_active,
			after_balance, after_loan, after_active)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		returning sequence
	`,
		e.ID, e.At.UTC(), e.Kind.String(), e.Amount, e.Outcome.Result.String(), string(e.Outcome.Reason),
		e.Before.Balance, e.Before.Loan, e.Before.Active,
		e.After.Balance, e.After.Loan, e.After.Active,
	).Scan(&e.Sequence)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return journal.Entry{}, ErrDuplicateEntry
		}
		return journal.Entry{}, fmt.Errorf("append journal entry: %w", err)
	}
	return e, nil
}

func (s *Store) List(ctx context.Context, limit int, afterSeq uint64) ([]journal.Entry, uint64, error) {
	limit = journal.NormalizeLimit(limit)
	rows, err := s.db.QueryContext(ctx, `
		select sequence, id, at, kind, amount, result, reason,
			before_balance, before_loan, before_active,
			after_balance, after_loan, after_active
		from account_journal
		where sequence > $1
		order by sequence asc
		limit $2
	`, afterSeq, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	res := []journal.Entry{}
	last := afterSeq
	for rows.Next() {
		var (
			e            journal.Entry
			kind, result string
			reason       string
		)
		if err := rows.Scan(
			&e.Sequence, &e.ID, &e.At, &kind, &e.Amount, &result, &reason,
			&e.Before.Balance, &e.Before.Loan, &e.Before.Active,
			&e.After.Balance, &e.After.Loan, &e.After.Active,
		); err != nil {
			return nil, 0, err
		}
		if e.Kind, err = account.ParseKind(kind); err != nil {
			return nil, 0, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		if err := e.Outcome.Result.UnmarshalText([]byte(result)); err != nil {
			return nil, 0, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		e.Outcome.Reason = account.Reason(reason)
		e.At = e.At.UTC()
		res = append(res, e)
		last = e.Sequence
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return res, last, nil
}

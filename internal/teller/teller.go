// Package teller owns the live account. It feeds each action through
// account.Transition, journals the result and only then advances state, so
// callers see every action either fully applied or not at all.
package teller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"bankfsm.org/internal/account"
	"bankfsm.org/internal/journal"
	"bankfsm.org/internal/obs"
	"bankfsm.org/internal/stream"
)

// Publisher receives an event after each recorded action.
type Publisher interface {
	Publish(evt stream.Event)
}

// Receipt describes one dispatched action.
type Receipt struct {
	Before  account.State   `json:"before"`
	After   account.State   `json:"after"`
	Outcome account.Outcome `json:"outcome"`
	Entry   journal.Entry   `json:"entry"`
}

// Teller serializes actions against a single account.
type Teller struct {
	mu    sync.Mutex
	state account.State

	journal journal.Journal
	limits  *account.Limits
	now     func() time.Time
	log     *zap.Logger
	pub     Publisher
}

// Option configures a Teller.
type Option func(*Teller)

// WithLimits makes Dispatch reject amounts outside l before they reach the
// transition function.
func WithLimits(l account.Limits) Option {
	return func(t *Teller) { t.limits = &l }
}

func WithClock(now func() time.Time) Option {
	return func(t *Teller) {
		if now != nil {
			t.now = now
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Teller) {
		if l != nil {
			t.log = l
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(t *Teller) { t.pub = p }
}

// New returns a Teller holding the initial (closed) account.
func New(j journal.Journal, opts ...Option) *Teller {
	t := &Teller{
		journal: j,
		now:     time.Now,
		log:     obs.Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dispatch applies a to the current state. A NoOp or Rejected outcome is a
// normal result, not an error. Errors are returned for malformed actions,
// limit violations, amounts that would leave the representable range and
// journal failures; in all those cases the state is left as it was.
func (t *Teller) Dispatch(ctx context.Context, a account.Action) (Receipt, error) {
	if err := a.Validate(); err != nil {
		return Receipt{}, err
	}
	if a.Kind.HasAmount() && a.Amount > account.MaxAmount {
		return Receipt{}, fmt.Errorf("%w: %s %d", account.ErrAmountOverflow, a.Kind, a.Amount)
	}
	if t.limits != nil {
		if err := t.limits.Check(a); err != nil {
			return Receipt{}, err
		}
	}
	if !a.Kind.HasAmount() {
		a.Amount = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	before := t.state
	after, out := account.Transition(before, a)
	if !after.Representable() {
		return Receipt{}, fmt.Errorf("%w: %s %d on balance %d", account.ErrAmountOverflow, a.Kind, a.Amount, before.Balance)
	}

	entry, err := t.journal.Append(ctx, journal.Entry{
		At:      t.now().UTC(),
		Kind:    a.Kind,
		Amount:  a.Amount,
		Outcome: out,
		Before:  before,
		After:   after,
	})
	if err != nil {
		t.log.Error("journal append failed", zap.Stringer("type", a.Kind), zap.Error(err))
		return Receipt{}, fmt.Errorf("record %s: %w", a.Kind, err)
	}
	t.state = after

	obs.ObserveTransition(a.Kind.String(), out.Result.String())
	t.log.Info("account action",
		zap.Stringer("type", a.Kind),
		zap.Int64("amount", a.Amount),
		zap.Stringer("result", out.Result),
		zap.String("reason", string(out.Reason)),
		zap.Uint64("sequence", entry.Sequence),
		zap.Int64("balance", after.Balance),
		zap.Int64("loan", after.Loan),
		zap.Bool("active", after.Active),
	)
	if t.pub != nil {
		t.pub.Publish(stream.Event{Entry: entry})
	}

	return Receipt{Before: before, After: after, Outcome: out, Entry: entry}, nil
}

// State returns the current account state.
func (t *Teller) State() account.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Controls returns which actions are currently meaningful.
func (t *Teller) Controls() account.Controls {
	return account.Availability(t.State())
}

// Limits returns the enforced limits, if any.
func (t *Teller) Limits() (account.Limits, bool) {
	if t.limits == nil {
		return account.Limits{}, false
	}
	return *t.limits, true
}

// Journal exposes the underlying journal for read access.
func (t *Teller) Journal() journal.Journal { return t.journal }

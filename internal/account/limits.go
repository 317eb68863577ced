package account

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAmountOutOfRange = errors.New("account: amount out of range")
	ErrAmountStep       = errors.New("account: amount not a multiple of step")
	ErrAmountOverflow   = errors.New("account: amount exceeds the representable range")
)

// MaxAmount bounds every amount, balance and loan magnitude: it is the largest
// integer a JSON number carries exactly.
const MaxAmount int64 = 1<<53 - 1

// Representable reports whether every figure in s is within MaxAmount.
func (s State) Representable() bool {
	return s.Balance <= MaxAmount && s.Balance >= -MaxAmount && s.Loan >= 0 && s.Loan <= MaxAmount
}

// Range bounds an amount. Max of 0 means unbounded. Step of 0 means any value.
type Range struct {
	Min  int64 `json:"min"`
	Max  int64 `json:"max,omitempty"`
	Step int64 `json:"step,omitempty"`
}

func (r Range) check(amount int64) error {
	if amount < r.Min || (r.Max > 0 && amount > r.Max) {
		return ErrAmountOutOfRange
	}
	if r.Step > 0 && amount%r.Step != 0 {
		return ErrAmountStep
	}
	return nil
}

func (r Range) String() string {
	var b strings.Builder
	if r.Max > 0 {
		fmt.Fprintf(&b, "[%d, %d]", r.Min, r.Max)
	} else {
		fmt.Fprintf(&b, "[%d, ∞)", r.Min)
	}
	if r.Step > 0 {
		fmt.Fprintf(&b, " step %d", r.Step)
	}
	return b.String()
}

// Limits are input constraints a caller may enforce before calling Apply.
// Apply itself never consults them.
type Limits struct {
	Open     Range `json:"open"`
	Deposit  Range `json:"deposit"`
	Withdraw Range `json:"withdraw"`
	Loan     Range `json:"loan"`
}

// DefaultLimits opens with 500..2000, deposits 100..5000, withdraws in
// hundreds, and lends 5000..50000 in thousands.
func DefaultLimits() Limits {
	return Limits{
		Open:     Range{Min: 500, Max: 2000, Step: 100},
		Deposit:  Range{Min: 100, Max: 5000, Step: 100},
		Withdraw: Range{Min: 100, Step: 100},
		Loan:     Range{Min: 5000, Max: 50000, Step: 1000},
	}
}

// LimitError reports an amount that violates Limits.
type LimitError struct {
	Kind   Kind
	Amount int64
	Range  Range
	Err    error
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%v: %s amount %d, allowed %s", e.Err, strings.ToLower(e.Kind.String()), e.Amount, e.Range)
}

func (e *LimitError) Unwrap() error { return e.Err }

// Check validates a against l. Withdrawals above the balance are left to
// Apply, which rejects them with ReasonInsufficientFunds.
func (l Limits) Check(a Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	var r Range
	switch a.Kind {
	case KindOpen:
		r = l.Open
	case KindDeposit:
		r = l.Deposit
	case KindWithdraw:
		r = l.Withdraw
	case KindRequestLoan:
		r = l.Loan
	default:
		return nil
	}
	if err := r.check(a.Amount); err != nil {
		return &LimitError{Kind: a.Kind, Amount: a.Amount, Range: r, Err: err}
	}
	return nil
}

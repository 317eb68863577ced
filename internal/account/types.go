package account

import (
	"errors"
	"fmt"
	"strings"
)

// State is a snapshot of the account. Amounts are minor units; no floats.
// The zero value is the initial (closed) account.
type State struct {
	Balance int64 `json:"balance"`
	Loan    int64 `json:"loan"`
	Active  bool  `json:"is_active"`
}

// Kind tags an Action.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindOpen
	KindDeposit
	KindWithdraw
	KindRequestLoan
	KindPayLoan
	KindClose
)

var kindNames = [...]string{
	KindUnknown:     "UNKNOWN",
	KindOpen:        "OPEN_ACCOUNT",
	KindDeposit:     "DEPOSIT",
	KindWithdraw:    "WITHDRAW",
	KindRequestLoan: "REQUEST_LOAN",
	KindPayLoan:     "PAY_LOAN",
	KindClose:       "CLOSE_ACCOUNT",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is one of the six known action kinds.
func (k Kind) Valid() bool { return k >= KindOpen && k <= KindClose }

// HasAmount reports whether actions of this kind carry an amount.
func (k Kind) HasAmount() bool {
	return k == KindOpen || k == KindDeposit || k == KindWithdraw || k == KindRequestLoan
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, &UnknownActionError{Kind: k}
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind accepts the action tags (OPEN_ACCOUNT, DEPOSIT, ...) case-insensitively.
func ParseKind(s string) (Kind, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for k := KindOpen; k <= KindClose; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Action is a request to move the account to its next state.
// Amount is ignored for PAY_LOAN and CLOSE_ACCOUNT.
type Action struct {
	Kind   Kind  `json:"type"`
	Amount int64 `json:"amount,omitempty"`
}

func Open(amount int64) Action        { return Action{Kind: KindOpen, Amount: amount} }
func Deposit(amount int64) Action     { return Action{Kind: KindDeposit, Amount: amount} }
func Withdraw(amount int64) Action    { return Action{Kind: KindWithdraw, Amount: amount} }
func RequestLoan(amount int64) Action { return Action{Kind: KindRequestLoan, Amount: amount} }
func PayLoan() Action                 { return Action{Kind: KindPayLoan} }
func Close() Action                   { return Action{Kind: KindClose} }

// Validate checks that the action is well formed: a known kind and, where an
// amount is carried, a non-negative one.
func (a Action) Validate() error {
	if !a.Kind.Valid() {
		return &UnknownActionError{Kind: a.Kind}
	}
	if a.Kind.HasAmount() && a.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Result classifies what a transition did.
type Result uint8

const (
	Applied Result = iota + 1
	NoOp
	Rejected
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case NoOp:
		return "noop"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

func (r Result) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Result) UnmarshalText(b []byte) error {
	switch string(b) {
	case "applied":
		*r = Applied
	case "noop":
		*r = NoOp
	case "rejected":
		*r = Rejected
	default:
		return fmt.Errorf("account: unknown result %q", b)
	}
	return nil
}

// Reason explains a NoOp or Rejected outcome. Empty for Applied.
type Reason string

const (
	ReasonInactive          Reason = "inactive"
	ReasonAlreadyActive     Reason = "already_active"
	ReasonLoanOutstanding   Reason = "loan_outstanding"
	ReasonNoLoan            Reason = "no_loan"
	ReasonNotSettled        Reason = "nonzero_balance_or_loan"
	ReasonInsufficientFunds Reason = "insufficient_funds"
)

// Outcome is returned alongside every transition so callers never need to
// compare states to learn whether anything happened.
type Outcome struct {
	Result Result `json:"result"`
	Reason Reason `json:"reason,omitempty"`
}

func (o Outcome) Applied() bool { return o.Result == Applied }

var (
	ErrUnknownAction  = errors.New("account: unknown action")
	ErrNegativeAmount = errors.New("account: amount must be >= 0")
)

// UnknownActionError is raised for a kind outside the known set. Apply panics
// with it; Validate returns it.
type UnknownActionError struct {
	Kind Kind
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("account: unknown action kind %d", uint8(e.Kind))
}

func (e *UnknownActionError) Unwrap() error { return ErrUnknownAction }

package account

var applied = Outcome{Result: Applied}

func noop(r Reason) Outcome { return Outcome{Result: NoOp, Reason: r} }

// Apply returns the state that follows s under a. It is pure: s is a value and
// is never modified, so a caller's copy is unaffected.
//
// Apply panics with *UnknownActionError when a.Kind is not a known kind.
func Apply(s State, a Action) State {
	next, _ := Transition(s, a)
	return next
}

// Transition is Apply plus the outcome of the step.
func Transition(s State, a Action) (State, Outcome) {
	if !a.Kind.Valid() {
		panic(&UnknownActionError{Kind: a.Kind})
	}

	// Only opening is allowed on an inactive account. Per-action guards are
	// not evaluated at all in that case.
	if !s.Active && a.Kind != KindOpen {
		return s, noop(ReasonInactive)
	}

	switch a.Kind {
	case KindOpen:
		if s.Active {
			return s, noop(ReasonAlreadyActive)
		}
		s.Active = true
		s.Balance = a.Amount
		return s, applied

	case KindDeposit:
		s.Balance += a.Amount
		return s, applied

	case KindWithdraw:
		if s.Balance < a.Amount {
			return s, Outcome{Result: Rejected, Reason: ReasonInsufficientFunds}
		}
		s.Balance -= a.Amount
		return s, applied

	case KindRequestLoan:
		if s.Loan != 0 {
			return s, noop(ReasonLoanOutstanding)
		}
		s.Balance += a.Amount
		s.Loan += a.Amount
		return s, applied

	case KindPayLoan:
		if s.Loan == 0 {
			return s, noop(ReasonNoLoan)
		}
		// The balance may go negative here.
		s.Balance -= s.Loan
		s.Loan = 0
		return s, applied

	default: // KindClose
		if s.Balance != 0 || s.Loan != 0 {
			return s, noop(ReasonNotSettled)
		}
		return State{}, applied
	}
}

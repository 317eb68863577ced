package account

// Controls lists which actions make sense for a given state. It is advisory:
// Apply accepts any action and decides for itself.
type Controls struct {
	Open        bool `json:"open"`
	Deposit     bool `json:"deposit"`
	Withdraw    bool `json:"withdraw"`
	RequestLoan bool `json:"request_loan"`
	PayLoan     bool `json:"pay_loan"`
	Close       bool `json:"close"`
}

// Availability derives Controls from s.
func Availability(s State) Controls {
	return Controls{
		Open:        !s.Active,
		Deposit:     s.Active,
		Withdraw:    s.Active && s.Balance > 0,
		RequestLoan: s.Active && s.Loan == 0,
		PayLoan:     s.Active && s.Loan != 0 && s.Balance >= s.Loan,
		Close:       s.Active && s.Balance == 0 && s.Loan == 0,
	}
}

package account

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLimits(t *testing.T) {
	l := DefaultLimits()

	ok := []Action{Open(500), Open(2000), Deposit(100), Deposit(5000), Withdraw(100), Withdraw(100_000), RequestLoan(5000), RequestLoan(50000), PayLoan(), Close()}
	for _, a := range ok {
		assert.NoError(t, l.Check(a), "%s %d", a.Kind, a.Amount)
	}

	cases := []struct {
		action Action
		want   error
	}{
		{Open(400), ErrAmountOutOfRange},
		{Open(2100), ErrAmountOutOfRange},
		{Open(550), ErrAmountStep},
		{Deposit(50), ErrAmountOutOfRange},
		{Withdraw(150), ErrAmountStep},
		{RequestLoan(4000), ErrAmountOutOfRange},
		{RequestLoan(51000), ErrAmountOutOfRange},
		{RequestLoan(5500), ErrAmountStep},
		{Deposit(-100), ErrNegativeAmount},
		{Action{Kind: 7}, ErrUnknownAction},
	}
	for _, tc := range cases {
		err := l.Check(tc.action)
		assert.ErrorIs(t, err, tc.want, "%s %d", tc.action.Kind, tc.action.Amount)
	}

	var le *LimitError
	err := l.Check(RequestLoan(60000))
	if assert.True(t, errors.As(err, &le)) {
		assert.Equal(t, KindRequestLoan, le.Kind)
		assert.Equal(t, "account: amount out of range: request_loan amount 60000, allowed [5000, 50000] step 1000", le.Error())
	}
}

func TestLimitErrorNamesCause(t *testing.T) {
	err := DefaultLimits().Check(Deposit(150))
	assert.ErrorIs(t, err, ErrAmountStep)
	assert.Contains(t, err.Error(), ErrAmountStep.Error())
}

func TestRepresentable(t *testing.T) {
	assert.True(t, State{Balance: MaxAmount, Loan: MaxAmount, Active: true}.Representable())
	assert.True(t, State{Balance: -MaxAmount}.Representable())
	assert.False(t, State{Balance: MaxAmount + 1}.Representable())
	assert.False(t, State{Balance: -MaxAmount - 1}.Representable())
	assert.False(t, State{Loan: MaxAmount + 1}.Representable())
}

func TestAvailability(t *testing.T) {
	assert.Equal(t, Controls{Open: true}, Availability(State{}))
	assert.Equal(t, Controls{Deposit: true, RequestLoan: true, Close: true}, Availability(active(0, 0)))
	assert.Equal(t, Controls{Deposit: true, Withdraw: true, PayLoan: true}, Availability(active(6000, 5000)))
	assert.Equal(t, Controls{Deposit: true, Withdraw: true}, Availability(active(100, 5000)))
}

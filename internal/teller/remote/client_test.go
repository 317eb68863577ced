package remote

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bankfsm.org/internal/account"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "unknown action",
			err:  status.Error(codes.InvalidArgument, `account: unknown action: "TRANSFER"`),
			want: account.ErrUnknownAction,
		},
		{
			name: "negative amount",
			err:  status.Error(codes.InvalidArgument, "account: amount must be >= 0"),
			want: account.ErrNegativeAmount,
		},
		{
			name: "limit",
			err:  status.Error(codes.OutOfRange, "account: amount out of range: deposit amount 50, allowed [100, 5000] step 100"),
			want: account.ErrAmountOutOfRange,
		},
		{
			name: "step",
			err:  status.Error(codes.OutOfRange, "account: amount not a multiple of step: deposit amount 150, allowed [100, 5000] step 100"),
			want: account.ErrAmountStep,
		},
		{
			name: "overflow",
			err:  status.Error(codes.OutOfRange, "account: amount exceeds the representable range: DEPOSIT 9007199254740992"),
			want: account.ErrAmountOverflow,
		},
		{
			name: "pass through",
			err:  status.Error(codes.Internal, "internal"),
			want: status.Error(codes.Internal, "internal"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError(tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("mapError() = %v, want %v", got, tc.want)
			}
		})
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"bankfsm.org/internal/account"
	"bankfsm.org/internal/teller/remote"
)

// Drives a running bankfsm-api through a full open, loan and close cycle
// over gRPC. The account must start closed and empty.
func main() {
	addr := os.Getenv("BANK_GRPC_TARGET")
	if addr == "" {
		addr = "localhost:9090"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	client, err := remote.Dial(ctx, addr)
	cancel()
	if err != nil {
		log.Fatalf("dial %s: %v", addr, err)
	}
	defer client.Close()
	if tok := os.Getenv("BANK_TOKEN"); tok != "" {
		client.WithToken(tok)
	}
	svc := remote.NewService(client)

	ctxOp, cancelOp := remote.WithTimeout(context.Background(), 0)
	defer cancelOp()

	start, _, err := svc.State(ctxOp)
	if err != nil {
		log.Fatalf("state: %v", err)
	}
	if start != (account.State{}) {
		log.Fatalf("account is not in its initial state: %+v", start)
	}

	steps := []struct {
		action account.Action
		want   account.Result
	}{
		{account.Open(500), account.Applied},
		{account.Withdraw(600), account.Rejected},
		{account.RequestLoan(5000), account.Applied},
		{account.RequestLoan(5000), account.NoOp},
		{account.PayLoan(), account.Applied},
		{account.Withdraw(500), account.Applied},
		{account.Close(), account.Applied},
	}
	for _, step := range steps {
		r, err := svc.Dispatch(ctxOp, step.action)
		if err != nil {
			log.Fatalf("%s: %v", step.action.Kind, err)
		}
		if r.Outcome.Result != step.want {
			log.Fatalf("%s: got %s (%s), want %s", step.action.Kind, r.Outcome.Result, r.Outcome.Reason, step.want)
		}
	}

	end, _, err := svc.State(ctxOp)
	if err != nil {
		log.Fatalf("state: %v", err)
	}
	if end != (account.State{}) {
		log.Fatalf("round trip did not return to the initial state: %+v", end)
	}

	fmt.Printf("✅ account smoke test passed: %d actions\n", len(steps))
}

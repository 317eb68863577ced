// Package remote drives a teller over bank.v1.AccountService.
package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"bankfsm.org/api/bankv1"
	"bankfsm.org/internal/account"
	"bankfsm.org/internal/journal"
	"bankfsm.org/internal/teller"
)

// Client wraps the gRPC account service.
type Client struct {
	conn  *grpc.ClientConn
	svc   *bankv1.AccountServiceClient
	token string
}

// Dial creates a new client with sensible defaults (insecure transport).
func Dial(ctx context.Context, target string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.DialContext(ctx, target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, svc: bankv1.NewAccountServiceClient(conn)}, nil
}

// WithToken makes every call carry token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	c.token = strings.TrimSpace(token)
	return c
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Service mirrors the teller's operations over the wire.
type Service struct {
	client *Client
}

func NewService(client *Client) *Service { return &Service{client: client} }

// Dispatch sends a and returns the server's receipt. A Rejected outcome is a
// normal receipt, as with teller.Teller.
func (s *Service) Dispatch(ctx context.Context, a account.Action) (teller.Receipt, error) {
	if a.Kind.HasAmount() && a.Amount > account.MaxAmount {
		return teller.Receipt{}, fmt.Errorf("%w: %s %d", account.ErrAmountOverflow, a.Kind, a.Amount)
	}
	req := map[string]any{"type": a.Kind.String()}
	if a.Kind.HasAmount() {
		req["amount"] = a.Amount
	}
	in, err := bankv1.Encode(req)
	if err != nil {
		return teller.Receipt{}, err
	}
	out, err := s.client.svc.Apply(s.client.outgoing(ctx), in)
	if err != nil {
		return teller.Receipt{}, mapError(err)
	}
	var r teller.Receipt
	if err := bankv1.Decode(out, &r); err != nil {
		return teller.Receipt{}, fmt.Errorf("decode receipt: %w", err)
	}
	return r, nil
}

// State returns the current account state and the actions it allows.
func (s *Service) State(ctx context.Context) (account.State, account.Controls, error) {
	out, err := s.client.svc.GetState(s.client.outgoing(ctx), &emptypb.Empty{})
	if err != nil {
		return account.State{}, account.Controls{}, mapError(err)
	}
	var resp struct {
		State    account.State    `json:"state"`
		Controls account.Controls `json:"controls"`
	}
	if err := bankv1.Decode(out, &resp); err != nil {
		return account.State{}, account.Controls{}, fmt.Errorf("decode state: %w", err)
	}
	return resp.State, resp.Controls, nil
}

// List pages through the server's journal.
func (s *Service) List(ctx context.Context, limit int, afterSeq uint64) ([]journal.Entry, uint64, error) {
	in, err := bankv1.Encode(map[string]any{
		"limit": journal.NormalizeLimit(limit),
		"after": afterSeq,
	})
	if err != nil {
		return nil, 0, err
	}
	out, err := s.client.svc.ListJournal(s.client.outgoing(ctx), in)
	if err != nil {
		return nil, 0, mapError(err)
	}
	var resp struct {
		Items []journal.Entry `json:"items"`
		Next  uint64          `json:"next"`
	}
	if err := bankv1.Decode(out, &resp); err != nil {
		return nil, 0, fmt.Errorf("decode journal: %w", err)
	}
	return resp.Items, resp.Next, nil
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

// mapError turns status errors back into the account package's sentinels so
// callers can use errors.Is on either side of the wire.
func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	switch st.Code() {
	case codes.InvalidArgument:
		switch {
		case strings.Contains(msg, "unknown action"):
			return fmt.Errorf("%w: %s", account.ErrUnknownAction, msg)
		case strings.Contains(msg, "amount must be"):
			return fmt.Errorf("%w: %s", account.ErrNegativeAmount, msg)
		}
	case codes.OutOfRange:
		for _, sentinel := range []error{account.ErrAmountStep, account.ErrAmountOverflow} {
			if strings.Contains(msg, sentinel.Error()) {
				return fmt.Errorf("%w: %s", sentinel, msg)
			}
		}
		return fmt.Errorf("%w: %s", account.ErrAmountOutOfRange, msg)
	}
	return err
}

// WithTimeout returns a context with default timeout useful for CLI tools.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(parent, d)
}

package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bankfsm.org/internal/account"
	"bankfsm.org/internal/audit"
	"bankfsm.org/internal/journal"
	"bankfsm.org/internal/teller"
)

type actionRequest struct {
	Type   string `json:"type"`
	Amount *int64 `json:"amount,omitempty"`
}

var errAmountRequired = errors.New("amount is required")

// toAction parses the wire form. Amount is mandatory for kinds that carry
// one and ignored for PAY_LOAN and CLOSE_ACCOUNT.
func (req actionRequest) toAction() (account.Action, error) {
	kind, err := account.ParseKind(strings.TrimSpace(req.Type))
	if err != nil {
		return account.Action{}, err
	}
	a := account.Action{Kind: kind}
	if kind.HasAmount() {
		if req.Amount == nil {
			return account.Action{}, errAmountRequired
		}
		a.Amount = *req.Amount
	}
	return a, a.Validate()
}

type accountResponse struct {
	State    account.State    `json:"state"`
	Controls account.Controls `json:"controls"`
}

type journalResponse struct {
	Items []journal.Entry `json:"items"`
	Next  uint64          `json:"next"`
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request) {
	s := a.teller.State()
	writeJSON(w, http.StatusOK, accountResponse{State: s, Controls: account.Availability(s)})
}

func (a *API) dispatch(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	act, err := req.toAction()
	if err != nil {
		writeError(w, r, dispatchStatus(err), err.Error())
		return
	}

	receipt, err := a.teller.Dispatch(r.Context(), act)
	if err != nil {
		code := dispatchStatus(err)
		if code >= http.StatusInternalServerError {
			writeError(w, r, code, "action could not be recorded")
			return
		}
		writeError(w, r, code, err.Error())
		return
	}

	_ = audit.LogEvent(r.Context(), "account.action."+receipt.Outcome.Result.String(), map[string]any{
		"type":     act.Kind.String(),
		"amount":   act.Amount,
		"reason":   string(receipt.Outcome.Reason),
		"sequence": receipt.Entry.Sequence,
	})

	writeJSON(w, receiptStatus(receipt), receipt)
}

func (a *API) listJournal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseNonNegative(q.Get("limit"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	after, err := parseNonNegative(q.Get("after"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "after must be a non-negative integer")
		return
	}

	items, next, err := a.teller.Journal().List(r.Context(), int(limit), after)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "journal unavailable")
		return
	}
	if items == nil {
		items = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, journalResponse{Items: items, Next: next})
}

// receiptStatus is 409 for a rejected action; applied and no-op both count
// as handled.
func receiptStatus(r teller.Receipt) int {
	if r.Outcome.Result == account.Rejected {
		return http.StatusConflict
	}
	return http.StatusOK
}

func dispatchStatus(err error) int {
	var limitErr *account.LimitError
	switch {
	case errors.As(err, &limitErr), errors.Is(err, account.ErrAmountOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, account.ErrUnknownAction),
		errors.Is(err, account.ErrNegativeAmount),
		errors.Is(err, errAmountRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseNonNegative(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 32)
}

package httpapi

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"bankfsm.org/internal/audit"
	"bankfsm.org/internal/auth"
)

type tokenRequest struct {
	User     string   `json:"user"`
	Roles    []string `json:"roles"`
	Password string   `json:"password,omitempty"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

const tokenTTL = 15 * time.Minute

var knownRoles = []string{auth.RoleAdmin, auth.RoleTeller, auth.RoleAuditor}

func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if a.tokens == nil {
		writeError(w, r, http.StatusNotFound, "authentication is disabled")
		return
	}

	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	via, code := a.authorizeIssue(r, req)
	if code != http.StatusOK {
		_ = audit.LogEvent(r.Context(), "auth.token.denied", map[string]any{
			"user":   strings.TrimSpace(req.User),
			"status": code,
		})
		writeError(w, r, code, "token issuance requires an admin token or the bootstrap password")
		return
	}

	user := strings.TrimSpace(req.User)
	if user == "" {
		writeError(w, r, http.StatusBadRequest, "user is required")
		return
	}
	roles := make([]string, 0, len(req.Roles))
	for _, role := range req.Roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		if !slices.Contains(knownRoles, role) {
			writeError(w, r, http.StatusBadRequest, "unknown role "+role)
			return
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		writeError(w, r, http.StatusBadRequest, "roles are required")
		return
	}

	token, expiresAt, err := a.tokens.Generate(user, roles, tokenTTL)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"user":       user,
		"roles":      roles,
		"expires_at": expiresAt.Format(time.RFC3339),
		"via":        via,
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// authorizeIssue lets an admin bearer mint any token, and otherwise requires
// the bootstrap password. An authenticated non-admin without the password
// gets 403; anyone else 401.
func (a *API) authorizeIssue(r *http.Request, req tokenRequest) (string, int) {
	if auth.HasAnyRole(r.Context(), auth.RoleAdmin) {
		return "admin_token", http.StatusOK
	}
	if a.creds != nil && req.Password != "" {
		if err := a.creds.Verify(req.User, req.Password); err == nil {
			return "password", http.StatusOK
		}
		return "", http.StatusUnauthorized
	}
	if _, ok := auth.UserIDFromContext(r.Context()); ok {
		return "", http.StatusForbidden
	}
	return "", http.StatusUnauthorized
}

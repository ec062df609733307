package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"orgaccess.org/internal/audit"
	"orgaccess.org/internal/auth"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type updateProfileRequest struct {
	Name      *string `json:"name"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.getProfile(w, r)
	case http.MethodPut:
		a.updateProfile(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) getProfile(w http.ResponseWriter, r *http.Request) {
	scope := scopeFrom(r)
	user, org, err := a.auth.Profile(r.Context(), scope.UserID)
	if err != nil {
		handleAuthServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileBody(user, org))
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	scope := scopeFrom(r)
	user, org, err := a.auth.UpdateProfile(r.Context(), scope.UserID, auth.UpdateProfileInput{
		Name:      req.Name,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		handleAuthServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.user.profile_update", map[string]any{
		"user_id": scope.UserID,
	})
	writeJSON(w, http.StatusOK, profileBody(user, org))
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	scope := scopeFrom(r)
	user, org, err := a.auth.Profile(r.Context(), scope.UserID)
	if err != nil {
		handleAuthServiceError(w, r, err)
		return
	}
	summary, err := a.catalog.Summary(r.Context(), scope)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	body := profileBody(user, org)
	body["catalog"] = summary
	writeJSON(w, http.StatusOK, body)
}

func profileBody(user *auth.User, org *auth.Organization) map[string]any {
	body := map[string]any{"user": toUserResponse(user)}
	if org != nil {
		body["organization"] = map[string]any{
			"id":   org.ID,
			"name": org.Name,
		}
	}
	return body
}

func (a *API) handlePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, r, http.StatusBadRequest, "current_password and new_password are required")
		return
	}

	scope := scopeFrom(r)
	if err := a.auth.ChangePassword(r.Context(), scope.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		var weak *auth.WeakPasswordError
		switch {
		case errors.As(err, &weak):
			violations := make([]string, len(weak.Violations))
			for i, v := range weak.Violations {
				violations[i] = string(v)
			}
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":      "password does not meet requirements",
				"violations": violations,
			})
		case errors.Is(err, auth.ErrCredentialInvalid):
			writeError(w, r, http.StatusUnauthorized, "current password is incorrect")
		default:
			handleAuthServiceError(w, r, err)
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.user.password_change", map[string]any{
		"user_id": scope.UserID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "password_changed"})
}

func (a *API) handleUserSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	limit, offset, err := parsePage(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	scope := scopeFrom(r)
	users, err := a.auth.SearchUsers(r.Context(), scope, r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		handleAuthServiceError(w, r, err)
		return
	}
	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	scope := scopeFrom(r)
	if err := a.auth.Deactivate(r.Context(), scope.UserID); err != nil {
		handleAuthServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.deactivate", map[string]any{
		"user_id": scope.UserID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "deactivated"})
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	user, err := a.auth.UserInScope(r.Context(), scopeFrom(r), id)
	if err != nil {
		handleAuthServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func parsePage(r *http.Request) (limit, offset int, err error) {
	limit = 10
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			return 0, 0, errors.New("limit must be between 1 and 100")
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

// handleAuthServiceError maps account service failures. Absent records read
// as 404; cross-tenant records were already collapsed into absence upstream.
func handleAuthServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, "resource already exists")
	case errors.Is(err, auth.ErrStoreUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "temporarily unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

package httpapi

import (
	"net/http"
	"time"

	"orgaccess.org/internal/audit"
	"orgaccess.org/internal/auth"
)

type mintKeyRequest struct {
	Name      string     `json:"name"`
	BrandID   string     `json:"brand_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type apiKeyResponse struct {
	ID             string     `json:"id"`
	Key            string     `json:"key"`
	Name           string     `json:"name"`
	OrganizationID string     `json:"organization_id"`
	BrandID        string     `json:"brand_id,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// handleMintKey mints an API key scoped to the caller's own organization.
// Only admins may mint keys.
func (a *API) handleMintKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	scope := scopeFrom(r)
	if scope.Role != auth.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return
	}
	var req mintKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	key, err := a.auth.MintAPIKey(r.Context(), auth.MintAPIKeyInput{
		Name:           req.Name,
		OrganizationID: scope.OrganizationID,
		BrandID:        req.BrandID,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		handleAuthServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.apikey.mint", map[string]any{
		"key_id":          key.ID,
		"organization_id": key.OrganizationID,
		"brand_id":        key.BrandID,
	})
	writeJSON(w, http.StatusCreated, apiKeyResponse{
		ID:             key.ID,
		Key:            key.Key,
		Name:           key.Name,
		OrganizationID: key.OrganizationID,
		BrandID:        key.BrandID,
		ExpiresAt:      key.ExpiresAt,
	})
}

func (a *API) handleBrands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	brands, err := a.auth.Brands(r.Context(), scopeFrom(r))
	if err != nil {
		handleAuthServiceError(w, r, err)
		return
	}
	items := make([]map[string]any, 0, len(brands))
	for _, b := range brands {
		items = append(items, map[string]any{
			"id":        b.ID,
			"name":      b.Name,
			"is_active": b.IsActive,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

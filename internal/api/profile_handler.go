package api

import (
	"net/http"

	"github.com/stickyasks/stickyasks-api/internal/api/middleware"
	"github.com/stickyasks/stickyasks-api/internal/api/shared"
	"github.com/stickyasks/stickyasks-api/internal/service"
)

// UpdateProfileRequest represents the request body for updating the
// caller's display name.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
}

// ProfileHandler handles profile-related HTTP requests.
type ProfileHandler struct {
	directoryService service.DirectoryService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(directoryService service.DirectoryService) *ProfileHandler {
	return &ProfileHandler{
		directoryService: directoryService,
	}
}

// Get handles GET /api/profile requests. A caller without a directory
// record gets a synthetic profile rather than a 404.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.directoryService.GetProfile(r.Context(), identity.Email, identity.DisplayName)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, profile)
}

// Update handles POST /api/profile requests.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	profile, err := h.directoryService.UpdateProfile(r.Context(), identity.Email, req.DisplayName)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, profile)
}

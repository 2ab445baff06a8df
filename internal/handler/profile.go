package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
	"github.com/realworld-apps/conduit-neo4j/internal/auth"
	"github.com/realworld-apps/conduit-neo4j/internal/model"
	"github.com/realworld-apps/conduit-neo4j/internal/service"
)

// ProfileHandler serves public profiles and the follow/unfollow pair.
type ProfileHandler struct {
	users *service.UserService
}

func NewProfileHandler(users *service.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

type profileEnvelope struct {
	Profile model.Profile `json:"profile"`
}

// Get handles GET /profiles/{username}. Authentication is optional; with a
// token the response carries the viewer's follow state.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r.Context())

	profile, err := h.users.Profile(r.Context(), chi.URLParam(r, "username"), viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileEnvelope{Profile: *profile})
}

// Follow handles POST /profiles/{username}/follow.
func (h *ProfileHandler) Follow(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	profile, err := h.users.Follow(r.Context(), current, chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileEnvelope{Profile: *profile})
}

// Unfollow handles DELETE /profiles/{username}/follow.
func (h *ProfileHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	profile, err := h.users.Unfollow(r.Context(), current, chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileEnvelope{Profile: *profile})
}

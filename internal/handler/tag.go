package handler

import (
	"net/http"

	"github.com/realworld-apps/conduit-neo4j/internal/service"
)

// TagHandler serves GET /tags.
type TagHandler struct {
	tags *service.TagService
}

func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

type tagsEnvelope struct {
	Tags []string `json:"tags"`
}

// List handles GET /tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tagsEnvelope{Tags: tags})
}

package search

import (
	"errors"
	"net/http"
	"strings"

	"github.com/beatvote/beatvote/internal/domain"
	"github.com/beatvote/beatvote/internal/infrastructure/catalog"
	"github.com/beatvote/beatvote/internal/infrastructure/json"
	"github.com/beatvote/beatvote/internal/infrastructure/logging"
)

type Handler struct {
	catalog *catalog.Client
	logger  logging.Logger
}

func NewHandler(catalog *catalog.Client, logger logging.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		logger:  logger,
	}
}

// SpotifySearchHandler handles GET /api/search/spotify?q=. A query with no
// matches returns an empty track list, not an error.
func (h *Handler) SpotifySearchHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		json.WriteBadRequestError(w, "query parameter q is required")
		return
	}

	tracks, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			h.logger.Warn(logging.Catalog, logging.ExternalService, "catalog search failed", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			json.WriteError(w, http.StatusBadGateway, err, "Catalog provider unavailable")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, searchResponse{
		Query:  query,
		Tracks: tracks,
	})
}

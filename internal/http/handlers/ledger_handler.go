package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oakline/staffdesk/internal/http/response"
	"github.com/oakline/staffdesk/internal/repo/postgres"
	"github.com/oakline/staffdesk/pkg/logger"
)

type LedgerHandler struct {
	Repo postgres.LedgerRepo
}

func NewLedgerHandler(repo postgres.LedgerRepo) *LedgerHandler {
	return &LedgerHandler{Repo: repo}
}

func (h *LedgerHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.snapshot)
	return r
}

func (h *LedgerHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Repo.Snapshot(r.Context())
	if err != nil {
		// Any read fault collapses into the generic 500; no internal
		// detail crosses the boundary.
		logger.ErrorContext(r.Context(), "failed to read ledger", "error", err)
		response.InternalError(w, "Failed to read ledger")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"ledger":  snap,
	})
}

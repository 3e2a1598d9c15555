package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakline/staffdesk/internal/domain"
	"github.com/oakline/staffdesk/internal/http/response"
	"github.com/oakline/staffdesk/internal/repo/postgres"
	"github.com/oakline/staffdesk/pkg/events"
	"github.com/oakline/staffdesk/pkg/logger"
)

type RequestsHandler struct {
	Repo postgres.RequestsRepo
	Bus  events.Publisher
}

func NewRequestsHandler(repo postgres.RequestsRepo, bus events.Publisher) *RequestsHandler {
	return &RequestsHandler{Repo: repo, Bus: bus}
}

func (h *RequestsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list) // ?target=<audience>
	return r
}

func (h *RequestsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	item := &domain.RequestItem{
		ID:            "req-" + uuid.NewString(),
		Type:          in.Type,
		Title:         in.Title,
		CreatedBy:     in.CreatedBy,
		CreatorRole:   in.CreatorRole,
		Designation:   in.Designation,
		Payload:       in.Payload,
		Target:        in.Target,
		Status:        domain.RequestPending,
		AttachmentRef: in.AttachmentRef,
		Signature:     in.Signature,
	}

	stored, err := h.Repo.Create(r.Context(), item)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create request", "error", err)
		response.InternalError(w, "Failed to create request")
		return
	}

	if err := h.Bus.Publish(r.Context(), events.RequestCreated, events.RequestCreatedEvent{
		RequestID: stored.ID,
		Type:      stored.Type,
		Title:     stored.Title,
		CreatedBy: stored.CreatedBy,
		Target:    stored.Target,
		CreatedAt: stored.CreatedAt,
	}); err != nil {
		logger.WarnContext(r.Context(), "failed to publish request event", "error", err)
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"request": stored,
	})
}

func (h *RequestsHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		items []domain.RequestItem
		err   error
	)

	// Any non-empty target filters; an audience nothing was addressed to
	// simply lists empty.
	if target := r.URL.Query().Get("target"); target != "" {
		items, err = h.Repo.ListByTarget(r.Context(), target)
	} else {
		items, err = h.Repo.List(r.Context())
	}

	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list requests", "error", err)
		response.InternalError(w, "Failed to list requests")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"requests": items,
	})
}

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

// InquiriesHandler serves both historical route flavors of the guest inquiry
// API over one unified store. The dashboard flavor (/api/guest-inquiries)
// answers 200 with the created record; the guest-form flavor
// (/api/guest/inquiry) answers 201 and annotates lists with a new-count.
type InquiriesHandler struct {
	Repo postgres.InquiriesRepo
	Bus  events.Publisher
}

func NewInquiriesHandler(repo postgres.InquiriesRepo, bus events.Publisher) *InquiriesHandler {
	return &InquiriesHandler{Repo: repo, Bus: bus}
}

func (h *InquiriesHandler) DashboardRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.createDashboard)
	r.Get("/", h.listDashboard)
	return r
}

func (h *InquiriesHandler) GuestRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.createGuest)
	r.Get("/", h.listGuest)
	return r
}

// dashboardIn matches the admin-form payload, which carries the guest email
// under the bare "email" key.
type dashboardIn struct {
	GuestName string `json:"guestName"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

func (h *InquiriesHandler) createDashboard(w http.ResponseWriter, r *http.Request) {
	var in dashboardIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	inq, ok := h.create(w, r, &domain.CreateInquiryInput{
		GuestName:  in.GuestName,
		GuestEmail: in.Email,
		Subject:    in.Subject,
		Message:    in.Message,
	})
	if !ok {
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"inquiry": inq,
	})
}

func (h *InquiriesHandler) listDashboard(w http.ResponseWriter, r *http.Request) {
	inqs, err := h.Repo.List(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list inquiries", "error", err)
		response.InternalError(w, "Failed to list inquiries")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"inquiries": inqs,
	})
}

// guestIn matches the guest-facing form payload. The client-supplied
// timestamp is accepted for compatibility but the server clock wins.
type guestIn struct {
	GuestID    string `json:"guestId"`
	GuestName  string `json:"guestName"`
	GuestEmail string `json:"guestEmail"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

func (h *InquiriesHandler) createGuest(w http.ResponseWriter, r *http.Request) {
	var in guestIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	inq, ok := h.create(w, r, &domain.CreateInquiryInput{
		GuestID:    in.GuestID,
		GuestName:  in.GuestName,
		GuestEmail: in.GuestEmail,
		Subject:    in.Subject,
		Message:    in.Message,
	})
	if !ok {
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Inquiry submitted successfully",
		"inquiry": inq,
	})
}

func (h *InquiriesHandler) listGuest(w http.ResponseWriter, r *http.Request) {
	inqs, err := h.Repo.List(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list inquiries", "error", err)
		response.InternalError(w, "Failed to list inquiries")
		return
	}

	newCount, err := h.Repo.CountByStatus(r.Context(), domain.InquiryNew)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to count new inquiries", "error", err)
		response.InternalError(w, "Failed to list inquiries")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"inquiries": inqs,
		"total":     len(inqs),
		"newCount":  newCount,
	})
}

// create validates, persists, and publishes. It writes the error response
// itself and returns ok=false when the caller should stop.
func (h *InquiriesHandler) create(w http.ResponseWriter, r *http.Request, in *domain.CreateInquiryInput) (*domain.Inquiry, bool) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return nil, false
	}

	inq := &domain.Inquiry{
		ID:         "inq-" + uuid.NewString(),
		GuestID:    in.GuestID,
		GuestName:  in.GuestName,
		GuestEmail: in.GuestEmail,
		Subject:    in.Subject,
		Message:    in.Message,
		Status:     domain.InquiryNew,
	}

	stored, err := h.Repo.Create(r.Context(), inq)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create inquiry", "error", err)
		response.InternalError(w, "Failed to create inquiry")
		return nil, false
	}

	if err := h.Bus.Publish(r.Context(), events.InquiryCreated, events.InquiryCreatedEvent{
		InquiryID:  stored.ID,
		GuestName:  stored.GuestName,
		GuestEmail: stored.GuestEmail,
		Subject:    stored.Subject,
		CreatedAt:  stored.CreatedAt,
	}); err != nil {
		logger.WarnContext(r.Context(), "failed to publish inquiry event", "error", err)
	}

	return stored, true
}

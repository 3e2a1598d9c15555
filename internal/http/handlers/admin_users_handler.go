package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oakline/staffdesk/internal/domain"
	"github.com/oakline/staffdesk/internal/http/response"
	"github.com/oakline/staffdesk/internal/repo/postgres"
	"github.com/oakline/staffdesk/pkg/logger"
)

type AdminUsersHandler struct {
	Users postgres.UsersRepo
}

func NewAdminUsersHandler(users postgres.UsersRepo) *AdminUsersHandler {
	return &AdminUsersHandler{Users: users}
}

func (h *AdminUsersHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Patch("/", h.patch) // {userId, updates}
	r.Get("/{id}", h.getByID)
	return r
}

func (h *AdminUsersHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	users, err := h.Users.List(r.Context(), limit, offset)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list users", "error", err)
		response.InternalError(w, "Failed to list users")
		return
	}

	// Only the sanitized projection crosses the API boundary.
	infos := make([]*domain.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].ToUserInfo())
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   infos,
	})
}

type patchUserIn struct {
	UserID  *int64                    `json:"userId"`
	Updates *domain.UpdateUserRequest `json:"updates"`
}

func (h *AdminUsersHandler) patch(w http.ResponseWriter, r *http.Request) {
	var in patchUserIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	if in.UserID == nil {
		response.BadRequest(w, "userId is required")
		return
	}
	if in.Updates == nil {
		response.BadRequest(w, "updates is required")
		return
	}
	if err := in.Updates.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	user, err := h.Users.Update(r.Context(), *in.UserID, in.Updates)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update user", "error", err, "user_id", *in.UserID)
		response.InternalError(w, "Failed to update user")
		return
	}
	if user == nil {
		response.NotFound(w, "User not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AdminUsersHandler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	user, err := h.Users.FindByID(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to get user", "error", err, "user_id", id)
		response.InternalError(w, "Failed to get user")
		return
	}
	if user == nil {
		response.NotFound(w, "User not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user.ToUserInfo(),
	})
}

// parsePagination leaves limit at 0 when the caller sends no params, which
// the store reads as "return every record".
func parsePagination(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}

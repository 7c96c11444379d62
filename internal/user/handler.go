package user

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/internal/transport"
	"github.com/frahmantamala/agenda-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.CreateUser(r.Context(), dto, actor.ID, transport.ClientIP(r), r.UserAgent())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteMessage(w, http.StatusCreated, "user berhasil dibuat", u)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if role := r.URL.Query().Get("role"); role != "" {
		users, err := h.Service.GetUsersByRole(role)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, users)
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	users, total, err := h.Service.ListUsers(page, perPage)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WritePaginated(w, users, total, page, perPage)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	u, err := h.Service.GetUser(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var dto UpdateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.UpdateUser(id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteMessage(w, http.StatusOK, "user berhasil diperbarui", u)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.Service.DeleteUser(r.Context(), id, actor.ID, transport.ClientIP(r), r.UserAgent()); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var dto ResetPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.ResetPassword(id, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteMessage(w, http.StatusOK, "password berhasil direset", nil)
}

func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

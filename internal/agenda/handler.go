package agenda

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/internal/auth"
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

func (h *Handler) CreateAgenda(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto AgendaDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.Service.Create(r.Context(), dto, actor, transport.ClientIP(r), r.UserAgent())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteMessage(w, http.StatusCreated, "agenda berhasil dibuat", a)
}

func (h *Handler) ListAgendas(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	agendas, total, err := h.Service.GetAll(page, perPage)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WritePaginated(w, agendas, total, page, perPage)
}

func (h *Handler) ApprovedAgendas(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	agendas, total, err := h.Service.GetApproved(page, perPage)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WritePaginated(w, agendas, total, page, perPage)
}

func (h *Handler) PendingAgendas(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	agendas, total, err := h.Service.GetPending(page, perPage)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WritePaginated(w, agendas, total, page, perPage)
}

// UserAgendas serves the visibility set for one user: approved plus own.
// Non-admins may only ask for their own id.
func (h *Handler) UserAgendas(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID, err := pathID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if !auth.HasPermission(actor.Role, auth.ActionViewAllAgendas) && actor.ID != userID {
		h.WriteError(w, http.StatusForbidden, "akses ditolak")
		return
	}

	agendas, err := h.Service.GetByOwnerOrApproved(userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, agendas)
}

func (h *Handler) GetAgenda(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid agenda id")
		return
	}

	a, err := h.Service.GetVisibleByID(id, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) SearchAgendas(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := SearchFilter{
		Query:  r.URL.Query().Get("q"),
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "per_page", 20),
	}

	// non-admins search inside their visibility set, same rule as GetVisibleByID
	if !auth.HasPermission(actor.Role, auth.ActionViewAllAgendas) {
		if auth.HasPermission(actor.Role, auth.ActionViewOwnAgendas) {
			filter.OwnerOrApproved = &actor.ID
		} else {
			filter.ApprovedOnly = true
		}
	}
	page := queryInt(r, "page", 1)
	filter.Offset = (page - 1) * filter.Limit

	if v := r.URL.Query().Get("created_by"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.CreatedBy = &id
		}
	}
	if v := r.URL.Query().Get("date_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DateFrom = &t
		} else {
			h.WriteError(w, http.StatusBadRequest, "date_from harus berformat YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("date_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DateTo = &t
		} else {
			h.WriteError(w, http.StatusBadRequest, "date_to harus berformat YYYY-MM-DD")
			return
		}
	}

	agendas, err := h.Service.Search(filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, agendas)
}

// AgendasByDateRange serves the calendar view: every agenda between two dates
// inclusive, optionally narrowed to one status.
func (h *Handler) AgendasByDateRange(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "from harus berformat YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "to harus berformat YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		h.WriteError(w, http.StatusBadRequest, "to tidak boleh sebelum from")
		return
	}

	agendas, err := h.Service.GetByDateRange(from, to, r.URL.Query().Get("status"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, agendas)
}

func (h *Handler) UpdateAgenda(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid agenda id")
		return
	}

	var dto AgendaDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.Service.Update(r.Context(), id, dto, actor, transport.ClientIP(r), r.UserAgent())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteMessage(w, http.StatusOK, "agenda berhasil diperbarui", a)
}

func (h *Handler) ApproveAgenda(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid agenda id")
		return
	}

	a, err := h.Service.Approve(r.Context(), id, actor, transport.ClientIP(r), r.UserAgent())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteMessage(w, http.StatusOK, "agenda disetujui", a)
}

func (h *Handler) RejectAgenda(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid agenda id")
		return
	}

	var dto RejectDTO
	if r.Body != nil {
		// empty body is fine, the reason defaults server-side
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	a, err := h.Service.Reject(r.Context(), id, dto, actor, transport.ClientIP(r), r.UserAgent())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteMessage(w, http.StatusOK, "agenda ditolak", a)
}

func (h *Handler) DeleteAgenda(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid agenda id")
		return
	}

	if err := h.Service.Delete(r.Context(), id, actor, transport.ClientIP(r), r.UserAgent()); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AgendaStats(w http.ResponseWriter, r *http.Request) {
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

package activity

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

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

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	filter, page, perPage, err := parseFilter(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, total, err := h.Service.Recent(filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WritePaginated(w, entries, total, page, perPage)
}

func (h *Handler) ExportActivities(w http.ResponseWriter, r *http.Request) {
	filter, _, _, err := parseFilter(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="activity_logs.csv"`)

	if err := h.Service.ExportCSV(w, filter); err != nil {
		// headers may already be out, log instead of rewriting the response
		h.Logger.Error("csv export failed", "error", err)
	}
}

func (h *Handler) ActivityStats(w http.ResponseWriter, r *http.Request) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "from harus berformat YYYY-MM-DD")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "to harus berformat YYYY-MM-DD")
			return
		}
		to = t.AddDate(0, 0, 1)
	}

	stats, err := h.Service.Stats(from, to)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) DailyActivity(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.DailyCounts(queryInt(r, "days", 7))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, counts)
}

func (h *Handler) MostActive(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.MostActiveUsers(queryInt(r, "limit", 10), queryInt(r, "days", 30))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) SuspiciousActivity(w http.ResponseWriter, r *http.Request) {
	flagged, err := h.Service.Suspicious(queryInt(r, "days", 1))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, flagged)
}

func (h *Handler) AgendaHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid agenda id")
		return
	}

	entries, err := h.Service.AgendaHistory(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, entries)
}

func parseFilter(r *http.Request) (Filter, int, int, error) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 50)

	filter := Filter{
		Action: r.URL.Query().Get("action"),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}

	if v := r.URL.Query().Get("user_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.UserID = &id
		}
	}
	if v := r.URL.Query().Get("agenda_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.AgendaID = &id
		}
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, page, perPage, errBadDate
		}
		filter.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, page, perPage, errBadDate
		}
		end := t.AddDate(0, 0, 1)
		filter.To = &end
	}
	return filter, page, perPage, nil
}

var errBadDate = badDateError{}

type badDateError struct{}

func (badDateError) Error() string {
	return "tanggal filter harus berformat YYYY-MM-DD"
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

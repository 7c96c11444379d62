package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/agenda-management/internal/agenda"
	"github.com/frahmantamala/agenda-management/internal/transport"
	"github.com/frahmantamala/agenda-management/internal/user"
)

// StatsHandler composes the dashboard numbers from the agenda and user
// services into one endpoint.
type StatsHandler struct {
	*transport.BaseHandler
	agendas *agenda.Service
	users   *user.Service
}

func NewStatsHandler(agendas *agenda.Service, users *user.Service, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		BaseHandler: transport.NewBaseHandler(logger),
		agendas:     agendas,
		users:       users,
	}
}

func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	agendaStats, err := h.agendas.Stats()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	userStats, err := h.users.Stats()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"agendas": agendaStats,
		"users":   userStats,
	})
}

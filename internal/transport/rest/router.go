package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/agenda-management/internal/activity"
	"github.com/frahmantamala/agenda-management/internal/agenda"
	"github.com/frahmantamala/agenda-management/internal/auth"
	"github.com/frahmantamala/agenda-management/internal/transport/middleware"
	"github.com/frahmantamala/agenda-management/internal/transport/swagger"
	"github.com/frahmantamala/agenda-management/internal/user"
)

type RouterDeps struct {
	DB              *sql.DB
	AuthHandler     *auth.Handler
	UserHandler     *user.Handler
	AgendaHandler   *agenda.Handler
	ActivityHandler *activity.Handler
	StatsHandler    *StatsHandler
	RBAC            *auth.RBACAuthorization
	AllowedOrigins  []string
	Logger          *slog.Logger
}

// RegisterAllRoutes wires every endpoint onto the router. Capability checks
// run as middleware per route group; object-level ownership is re-checked
// inside the services.
func RegisterAllRoutes(router *chi.Mux, deps RouterDeps) {
	healthHandler := NewHealthHandler(deps.DB)

	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Post("/login", deps.AuthHandler.Login)
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", deps.AuthHandler.Login)
			sr.Post("/refresh", deps.AuthHandler.RefreshToken)
			sr.Post("/logout", deps.AuthHandler.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(deps.AuthHandler.AuthMiddleware)

			pr.Get("/me", deps.AuthHandler.Me)

			pr.Route("/agendas", func(ar chi.Router) {
				ar.Group(func(gr chi.Router) {
					gr.Use(deps.RBAC.Require(auth.ActionViewAllAgendas))
					gr.Get("/", deps.AgendaHandler.ListAgendas)
					gr.Get("/range", deps.AgendaHandler.AgendasByDateRange)
				})

				// every role can read the approved set
				ar.Group(func(gr chi.Router) {
					gr.Use(deps.RBAC.RequireAny(
						auth.ActionViewApprovedAgendas,
						auth.ActionViewOwnAgendas,
						auth.ActionViewAllAgendas,
					))
					gr.Get("/approved", deps.AgendaHandler.ApprovedAgendas)
					gr.Get("/search", deps.AgendaHandler.SearchAgendas)
					gr.Get("/{id}", deps.AgendaHandler.GetAgenda)
				})

				ar.Group(func(gr chi.Router) {
					gr.Use(deps.RBAC.Require(auth.ActionViewPending))
					gr.Get("/pending", deps.AgendaHandler.PendingAgendas)
				})

				ar.Group(func(gr chi.Router) {
					gr.Use(deps.RBAC.RequireAny(auth.ActionViewOwnAgendas, auth.ActionViewAllAgendas))
					gr.Get("/user/{id}", deps.AgendaHandler.UserAgendas)
				})

				ar.Group(func(gr chi.Router) {
					gr.Use(deps.RBAC.Require(auth.ActionCreateAgenda))
					gr.Post("/", deps.AgendaHandler.CreateAgenda)
				})

				ar.Group(func(gr chi.Router) {
					gr.Use(deps.RBAC.RequireAny(auth.ActionEditAgenda, auth.ActionEditOwnAgenda))
					gr.Put("/{id}", deps.AgendaHandler.UpdateAgenda)
				})

				ar.Group(func(gr chi.Router) {
					gr.Use(deps.RBAC.Require(auth.ActionApproveAgenda))
					gr.Put("/{id}/approve", deps.AgendaHandler.ApproveAgenda)
				})

				ar.Group(func(gr chi.Router) {
					gr.Use(deps.RBAC.Require(auth.ActionRejectAgenda))
					gr.Put("/{id}/reject", deps.AgendaHandler.RejectAgenda)
				})

				ar.Group(func(gr chi.Router) {
					gr.Use(deps.RBAC.Require(auth.ActionDeleteAgenda))
					gr.Delete("/{id}", deps.AgendaHandler.DeleteAgenda)
				})
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Group(func(gr chi.Router) {
					gr.Use(deps.RBAC.Require(auth.ActionCreateUser))
					gr.Post("/", deps.UserHandler.CreateUser)
				})

				ur.Group(func(gr chi.Router) {
					gr.Use(deps.RBAC.Require(auth.ActionEditUser))
					gr.Get("/", deps.UserHandler.ListUsers)
					gr.Get("/{id}", deps.UserHandler.GetUser)
					gr.Put("/{id}", deps.UserHandler.UpdateUser)
					gr.Put("/{id}/password", deps.UserHandler.ResetPassword)
				})

				ur.Group(func(gr chi.Router) {
					gr.Use(deps.RBAC.Require(auth.ActionDeleteUser))
					gr.Delete("/{id}", deps.UserHandler.DeleteUser)
				})
			})

			pr.Group(func(gr chi.Router) {
				gr.Use(deps.RBAC.Require(auth.ActionViewStats))
				gr.Get("/stats", deps.StatsHandler.Overview)
				gr.Get("/stats/users", deps.UserHandler.UserStats)
				gr.Get("/stats/agendas", deps.AgendaHandler.AgendaStats)
			})

			pr.Route("/activities", func(acr chi.Router) {
				acr.Use(deps.RBAC.Require(auth.ActionViewActivities))
				acr.Get("/", deps.ActivityHandler.ListActivities)
				acr.Get("/export", deps.ActivityHandler.ExportActivities)
				acr.Get("/stats", deps.ActivityHandler.ActivityStats)
				acr.Get("/daily", deps.ActivityHandler.DailyActivity)
				acr.Get("/active-users", deps.ActivityHandler.MostActive)
				acr.Get("/suspicious", deps.ActivityHandler.SuspiciousActivity)
				acr.Get("/agenda/{id}", deps.ActivityHandler.AgendaHistory)
			})
		})
	})
}

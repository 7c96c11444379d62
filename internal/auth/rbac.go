package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/internal/transport"
)

// RBACAuthorization guards routes with role capability checks. It assumes
// AuthMiddleware already placed the session user in the request context.
type RBACAuthorization struct {
	base    *transport.BaseHandler
	checker PermissionChecker
	logger  *slog.Logger
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	if checker == nil {
		checker = NewPermissionChecker()
	}
	return &RBACAuthorization{
		base:    transport.NewBaseHandler(logger),
		checker: checker,
		logger:  logger,
	}
}

// Require rejects the request unless the caller's role grants the action.
func (ra *RBACAuthorization) Require(action string) func(http.Handler) http.Handler {
	return ra.RequireAny(action)
}

// RequireAny allows the request when the caller's role grants at least one of
// the listed actions.
func (ra *RBACAuthorization) RequireAny(actions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok || user == nil {
				ra.logger.Warn("authorization check failed: user not found in context")
				ra.base.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			for _, action := range actions {
				if ra.checker.HasPermission(user.Role, action) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ra.logger.Warn("access denied: insufficient role capability",
				"user_id", user.ID,
				"role", user.Role,
				"required_actions", actions)
			ra.base.WriteError(w, http.StatusForbidden, "akses ditolak")
		})
	}
}

package transport

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/pkg/logger"
)

// Envelope is the uniform response shape every endpoint emits.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
	Timestamp  string      `json:"timestamp"`
	StatusCode int         `json:"status_code"`
}

type Pagination struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

type PaginatedEnvelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
	Timestamp  string      `json:"timestamp"`
	StatusCode int         `json:"status_code"`
}

// BaseHandler provides common functionality for HTTP handlers.
type BaseHandler struct {
	Logger *slog.Logger
}

func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	env := Envelope{
		Success:    status < http.StatusBadRequest,
		Data:       data,
		Timestamp:  time.Now().Format(time.RFC3339),
		StatusCode: status,
	}
	h.write(w, status, env)
}

func (h *BaseHandler) WriteMessage(w http.ResponseWriter, status int, message string, data interface{}) {
	env := Envelope{
		Success:    status < http.StatusBadRequest,
		Message:    message,
		Data:       data,
		Timestamp:  time.Now().Format(time.RFC3339),
		StatusCode: status,
	}
	h.write(w, status, env)
}

func (h *BaseHandler) WritePaginated(w http.ResponseWriter, data interface{}, total int64, page, perPage int) {
	totalPages := 0
	if perPage > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	env := PaginatedEnvelope{
		Success: true,
		Data:    data,
		Pagination: Pagination{
			Total:       total,
			PerPage:     perPage,
			CurrentPage: page,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrev:     page > 1,
		},
		Timestamp:  time.Now().Format(time.RFC3339),
		StatusCode: http.StatusOK,
	}
	h.write(w, http.StatusOK, env)
}

func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	env := Envelope{
		Success:    false,
		Message:    message,
		Timestamp:  time.Now().Format(time.RFC3339),
		StatusCode: status,
	}
	h.write(w, status, env)
}

// HandleServiceError maps typed domain failures onto status codes so services
// never deal in HTTP vocabulary.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		env := Envelope{
			Success:    false,
			Message:    appErr.GetDetailedMessage(),
			Errors:     appErr.Details,
			Timestamp:  time.Now().Format(time.RFC3339),
			StatusCode: appErr.StatusCode,
		}
		if appErr.StatusCode >= http.StatusInternalServerError {
			h.Logger.Error("service error", "error", err, "code", appErr.Code)
		}
		h.write(w, appErr.StatusCode, env)
		return
	}

	h.Logger.Error("unexpected service error", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "terjadi kesalahan server")
}

func (h *BaseHandler) write(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header.
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}
	return authHeader[7:]
}

// ClientIP resolves the caller address, preferring proxy headers in the same
// precedence the legacy deployment used.
func ClientIP(r *http.Request) string {
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP"} {
		if v := r.Header.Get(header); v != "" {
			parts := strings.Split(v, ",")
			ip := strings.TrimSpace(parts[0])
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

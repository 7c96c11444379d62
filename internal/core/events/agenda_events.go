package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeAgendaCreated  = "agenda.created"
	EventTypeAgendaUpdated  = "agenda.updated"
	EventTypeAgendaApproved = "agenda.approved"
	EventTypeAgendaRejected = "agenda.rejected"
	EventTypeAgendaDeleted  = "agenda.deleted"

	EventTypeUserLogin       = "user.login"
	EventTypeUserLoginFailed = "user.login_failed"
	EventTypeUserCreated     = "user.created"
	EventTypeUserDeleted     = "user.deleted"
)

// AgendaEvent is emitted on every agenda lifecycle transition. ActorID is the
// user who drove the transition; zero means a system action (bulk sweep).
type AgendaEvent struct {
	BaseEvent
	AgendaID    int64  `json:"agenda_id"`
	ActorID     int64  `json:"actor_id"`
	Judul       string `json:"judul"`
	Description string `json:"description"`
	IPAddress   string `json:"ip_address"`
	UserAgent   string `json:"user_agent"`
}

func NewAgendaEvent(eventType string, agendaID, actorID int64, judul, description, ip, userAgent string) *AgendaEvent {
	return &AgendaEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"agenda_id": agendaID,
				"actor_id":  actorID,
				"judul":     judul,
			},
		},
		AgendaID:    agendaID,
		ActorID:     actorID,
		Judul:       judul,
		Description: description,
		IPAddress:   ip,
		UserAgent:   userAgent,
	}
}

// AuthEvent is emitted on login outcomes. UserID is zero for failed attempts
// where no account was resolved.
type AuthEvent struct {
	BaseEvent
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	Description string `json:"description"`
	IPAddress   string `json:"ip_address"`
	UserAgent   string `json:"user_agent"`
}

func NewAuthEvent(eventType string, userID int64, email, description, ip, userAgent string) *AuthEvent {
	return &AuthEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"email":   email,
			},
		},
		UserID:      userID,
		Email:       email,
		Description: description,
		IPAddress:   ip,
		UserAgent:   userAgent,
	}
}

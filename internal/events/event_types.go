package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/jobappid/verify-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSignedIn              EventType = "signed_in"
	EventSignedOut             EventType = "signed_out"
	EventSearchPerformed       EventType = "search_performed"
	EventAgencySignupSubmitted EventType = "agency_signup_submitted"
	EventAgentCreated          EventType = "agent_created"
	EventAgentDisabled         EventType = "agent_disabled"
	EventInviteCreated         EventType = "invite_created"
)

// AllTypes lists every event type the portal emits.
var AllTypes = []EventType{
	EventSignedIn,
	EventSignedOut,
	EventSearchPerformed,
	EventAgencySignupSubmitted,
	EventAgentCreated,
	EventAgentDisabled,
	EventInviteCreated,
}

// Actor describes who acted. It never carries a credential.
type Actor struct {
	Kind  domain.SessionKind `json:"kind,omitempty"`
	Label string             `json:"label,omitempty"`
}

// ActorOf builds the actor for a session; nil yields an anonymous actor.
func ActorOf(s domain.Session) Actor {
	if s == nil {
		return Actor{}
	}
	return Actor{Kind: s.Kind(), Label: s.Label()}
}

// Event represents a portal activity emitted by the flows.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with an id and the current time.
func New(t EventType, sessionID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		SessionID: sessionID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// SignedInPayload payload.
type SignedInPayload struct {
	Tab domain.AuthTab `json:"tab"`
}

// SearchPerformedPayload payload. Identity fields of the applicant are not
// recorded.
type SearchPerformedPayload struct {
	Strategy     string `json:"strategy"`
	Reason       string `json:"reason"`
	Applications int    `json:"applications"`
	Failed       bool   `json:"failed"`
}

// AgencySignupPayload payload.
type AgencySignupPayload struct {
	AgencyName string `json:"agency_name"`
}

// AgentCreatedPayload payload.
type AgentCreatedPayload struct {
	AgentID           string `json:"agent_id"`
	Username          string `json:"username"`
	PasswordGenerated bool   `json:"password_generated"`
}

// AgentDisabledPayload payload.
type AgentDisabledPayload struct {
	AgentID string `json:"agent_id"`
}

// InviteCreatedPayload payload.
type InviteCreatedPayload struct {
	ExpiresHours int `json:"expires_hours"`
}

package domain

import (
	"strings"
	"time"
)

// Agent is one account in an agency roster. It never carries a password.
type Agent struct {
	ID          string
	Username    string
	IsActive    bool
	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// CreateAgentInput is the body of a create-agent call.
type CreateAgentInput struct {
	Username         string `json:"username"`
	Password         string `json:"password,omitempty"`
	GeneratePassword bool   `json:"generate_password,omitempty"`
}

// CreatedAgent is the create-agent response. Password is set only when the
// server generated it, and it is returned by this one call only.
type CreatedAgent struct {
	Agent    Agent
	Password string
}

// AgentForm is the raw input of the create-agent form.
type AgentForm struct {
	Username     string `form:"username"`
	Password     string `form:"password"`
	PasswordMode string `form:"password_mode"`
}

// Password modes of the create-agent form.
const (
	PasswordModeGenerate = "generate"
	PasswordModeManual   = "manual"
)

// Input validates the form and returns the call body, or a user message
// naming the failed gate.
func (f AgentForm) Input() (CreateAgentInput, string) {
	username := strings.TrimSpace(f.Username)
	if runeLen(username) < MinUsernameLen {
		return CreateAgentInput{}, "Username must be at least 3 characters."
	}
	if f.PasswordMode == PasswordModeManual {
		if runeLen(f.Password) < MinPasswordLen {
			return CreateAgentInput{}, "Password must be at least 6 characters."
		}
		return CreateAgentInput{Username: username, Password: f.Password}, ""
	}
	return CreateAgentInput{Username: username, GeneratePassword: true}, ""
}

// Invite is a one-time code an owner hands to a new agent.
type Invite struct {
	Code      string
	ExpiresAt *time.Time
}

// Invite lifetime bounds, in hours.
const (
	DefaultInviteHours = 24
	MaxInviteHours     = 168
)

// ClampInviteHours bounds a requested invite lifetime.
func ClampInviteHours(h int) int {
	switch {
	case h <= 0:
		return DefaultInviteHours
	case h > MaxInviteHours:
		return MaxInviteHours
	default:
		return h
	}
}

package service

import (
	"context"

	"github.com/jobappid/verify-portal/internal/domain"
	"github.com/jobappid/verify-portal/internal/upstream"
)

// AuthAPI is the part of the verification API used by sign-in and onboarding.
type AuthAPI interface {
	Health(ctx context.Context, accessKey string) error
	AgencyLogin(ctx context.Context, agencyName, password string) (domain.AgencySession, error)
	AgentLogin(ctx context.Context, agencyName, username, password string) (domain.AgentSession, error)
	AgencySignup(ctx context.Context, agencyName, contactEmail, password string) (string, error)
	Approve(ctx context.Context, auth upstream.Auth, agencyName, code string) (string, error)
	Join(ctx context.Context, inviteCode, username, password string) (string, error)
}

// SearchAPI performs applicant lookups.
type SearchAPI interface {
	Search(ctx context.Context, accessKey string, q domain.SearchQuery) (domain.SearchResult, error)
}

// AgencyAPI manages an agency's agents and invites.
type AgencyAPI interface {
	ListAgents(ctx context.Context, agencyToken string) ([]domain.Agent, error)
	CreateAgent(ctx context.Context, agencyToken string, in domain.CreateAgentInput) (domain.CreatedAgent, error)
	DisableAgent(ctx context.Context, agencyToken, agentID string) error
	CreateInvite(ctx context.Context, agencyToken string, hours int) (domain.Invite, error)
}

var (
	_ AuthAPI   = (*upstream.Client)(nil)
	_ SearchAPI = (*upstream.Client)(nil)
	_ AgencyAPI = (*upstream.Client)(nil)
)

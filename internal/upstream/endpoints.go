package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/jobappid/verify-portal/internal/domain"
	apperrors "github.com/jobappid/verify-portal/pkg/util/errorutil"
)

// Endpoint names used in logs and metrics.
const (
	EndpointHealth       = "health"
	EndpointSearch       = "search"
	EndpointAgencyLogin  = "agency_login"
	EndpointAgentLogin   = "agent_login"
	EndpointAgencySignup = "agency_signup"
	EndpointApprove      = "approve"
	EndpointInvite       = "invite"
	EndpointJoin         = "join"
	EndpointListAgents   = "list_agents"
	EndpointCreateAgent  = "create_agent"
	EndpointDisableAgent = "disable_agent"
)

// Health probes the API with an access key.
func (c *Client) Health(ctx context.Context, accessKey string) error {
	_, err := c.do(ctx, EndpointHealth, http.MethodGet, "/verify/health", KeyAuth(accessKey), nil)
	return err
}

// Search looks up an applicant's applications. Every call is logged by the
// API, so it is never retried.
func (c *Client) Search(ctx context.Context, accessKey string, q domain.SearchQuery) (domain.SearchResult, error) {
	resp, err := c.do(ctx, EndpointSearch, http.MethodPost, "/verify/search", KeyAuth(accessKey), q)
	if err != nil {
		return domain.SearchResult{}, err
	}
	if ok, present := resp.Body["ok"].(bool); present && !ok {
		msg := firstMessage(resp.Body)
		if msg == "" {
			msg = "Search failed"
		}
		return domain.SearchResult{}, apperrors.NewUpstreamError(resp.Status, msg)
	}

	var wire searchResponse
	if err := resp.into(&wire); err != nil {
		return domain.SearchResult{}, err
	}
	return wire.result(), nil
}

// AgencyLogin exchanges agency credentials for an owner session.
func (c *Client) AgencyLogin(ctx context.Context, agencyName, password string) (domain.AgencySession, error) {
	resp, err := c.do(ctx, EndpointAgencyLogin, http.MethodPost, "/agency/login", NoAuth(),
		agencyCredentials{AgencyName: agencyName, AgencyPassword: password})
	if err != nil {
		return domain.AgencySession{}, err
	}

	var wire agencyLoginResponse
	if err := resp.into(&wire); err != nil {
		return domain.AgencySession{}, err
	}
	sess := wire.session()
	if sess.AgencyToken == "" {
		return domain.AgencySession{}, apperrors.NewUpstreamError(resp.Status, "sign-in response did not include an agency token")
	}
	if sess.AgencyName == "" {
		sess.AgencyName = agencyName
	}
	return sess, nil
}

// AgentLogin exchanges agent credentials for a search session.
func (c *Client) AgentLogin(ctx context.Context, agencyName, username, password string) (domain.AgentSession, error) {
	resp, err := c.do(ctx, EndpointAgentLogin, http.MethodPost, "/agent/login", NoAuth(),
		agentCredentials{AgencyName: agencyName, Username: username, Password: password})
	if err != nil {
		return domain.AgentSession{}, err
	}

	var wire agentLoginResponse
	if err := resp.into(&wire); err != nil {
		return domain.AgentSession{}, err
	}
	sess := wire.session()
	if sess.AccessKey == "" {
		return domain.AgentSession{}, apperrors.NewUpstreamError(resp.Status, "sign-in response did not include an access key")
	}
	if sess.OfficeName == "" {
		sess.OfficeName = agencyName
	}
	return sess, nil
}

// AgencySignup queues a new agency for manual approval.
func (c *Client) AgencySignup(ctx context.Context, agencyName, contactEmail, password string) (string, error) {
	return c.ack(ctx, EndpointAgencySignup, "/agency/onboard", NoAuth(),
		signupRequest{AgencyName: agencyName, ContactEmail: contactEmail, AgencyPassword: password})
}

// Approve activates a signed-up agency with its approval code.
func (c *Client) Approve(ctx context.Context, auth Auth, agencyName, code string) (string, error) {
	return c.ack(ctx, EndpointApprove, "/agency/approve", auth,
		approveRequest{AgencyName: agencyName, ApprovalCode: code})
}

// Join redeems an invite code, creating an agent account.
func (c *Client) Join(ctx context.Context, inviteCode, username, password string) (string, error) {
	return c.ack(ctx, EndpointJoin, "/agency/join", NoAuth(),
		joinRequest{InviteCode: inviteCode, Username: username, Password: password})
}

// CreateInvite issues an invite code valid for the given number of hours.
func (c *Client) CreateInvite(ctx context.Context, agencyToken string, hours int) (domain.Invite, error) {
	resp, err := c.do(ctx, EndpointInvite, http.MethodPost, "/agency/invite", BearerAuth(agencyToken),
		inviteRequest{ExpiresHours: hours})
	if err != nil {
		return domain.Invite{}, err
	}
	var wire inviteResponse
	if err := resp.into(&wire); err != nil {
		return domain.Invite{}, err
	}
	inv := wire.invite()
	if inv.Code == "" {
		return domain.Invite{}, apperrors.NewUpstreamError(resp.Status, "invite response did not include a code")
	}
	return inv, nil
}

// ListAgents returns the agency's roster in server order.
func (c *Client) ListAgents(ctx context.Context, agencyToken string) ([]domain.Agent, error) {
	resp, err := c.do(ctx, EndpointListAgents, http.MethodGet, "/agency/agents", BearerAuth(agencyToken), nil)
	if err != nil {
		return nil, err
	}

	var wires []agentWire
	if bytes.HasPrefix(bytes.TrimSpace(resp.raw), []byte("[")) {
		if err := json.Unmarshal(resp.raw, &wires); err != nil {
			return nil, apperrors.NewUpstreamError(resp.Status, "unexpected response from verification service")
		}
	} else {
		var list agentListResponse
		if err := resp.into(&list); err != nil {
			return nil, err
		}
		switch {
		case list.Agents != nil:
			wires = list.Agents
		case list.Users != nil:
			wires = list.Users
		default:
			wires = list.Data
		}
	}

	agents := make([]domain.Agent, 0, len(wires))
	for _, w := range wires {
		agents = append(agents, w.agent())
	}
	return agents, nil
}

// CreateAgent adds an agent. A generated password is present in the result
// of this call only.
func (c *Client) CreateAgent(ctx context.Context, agencyToken string, in domain.CreateAgentInput) (domain.CreatedAgent, error) {
	resp, err := c.do(ctx, EndpointCreateAgent, http.MethodPost, "/agency/agents/create", BearerAuth(agencyToken), in)
	if err != nil {
		return domain.CreatedAgent{}, err
	}
	var wire createAgentResponse
	if err := resp.into(&wire); err != nil {
		return domain.CreatedAgent{}, err
	}
	return domain.CreatedAgent{Agent: wire.Agent.agent(), Password: wire.Password}, nil
}

// DisableAgent deactivates an agent. Disabling an inactive agent succeeds.
func (c *Client) DisableAgent(ctx context.Context, agencyToken, agentID string) error {
	_, err := c.do(ctx, EndpointDisableAgent, http.MethodPost, "/agency/agents/disable", BearerAuth(agencyToken),
		disableRequest{AgentID: agentID})
	return err
}

func (c *Client) ack(ctx context.Context, endpoint, path string, auth Auth, body any) (string, error) {
	resp, err := c.do(ctx, endpoint, http.MethodPost, path, auth, body)
	if err != nil {
		return "", err
	}
	msg, _ := resp.Body["message"].(string)
	return msg, nil
}

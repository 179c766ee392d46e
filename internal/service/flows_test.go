package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobappid/verify-portal/internal/config"
	"github.com/jobappid/verify-portal/internal/domain"
	"github.com/jobappid/verify-portal/internal/events"
	"github.com/jobappid/verify-portal/internal/session"
	"github.com/jobappid/verify-portal/internal/upstream"
	"github.com/jobappid/verify-portal/internal/upstream/upstreamtest"
)

type harness struct {
	srv    *upstreamtest.Server
	store  *session.MemoryStore
	busy   *BusyGuard
	seen   []events.EventType
	auth   *AuthFlow
	search *SearchFlow
	agency *AgencyFlow
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := upstreamtest.NewServer()
	t.Cleanup(srv.Close)

	client, err := upstream.New(config.UpstreamConfig{BaseURL: srv.URL, TimeoutSeconds: 5}, nil, nil)
	require.NoError(t, err)

	h := &harness{srv: srv, store: session.NewMemoryStore(), busy: NewBusyGuard()}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range events.AllTypes {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			h.seen = append(h.seen, e.Type)
			return nil
		})
	}
	NewActivityService(dispatcher, nil, nil).RegisterHandlers()

	h.auth = NewAuthFlow(client, h.store, h.busy, dispatcher, nil)
	h.search = NewSearchFlow(client, h.busy, dispatcher, nil)
	h.agency = NewAgencyFlow(client, h.busy, dispatcher, nil)
	return h
}

func agentSession() domain.AgentSession {
	return domain.AgentSession{OfficeName: upstreamtest.OfficeName, AccessKey: upstreamtest.AccessKey}
}

func TestAuthFlow_GateFailureMakesNoCall(t *testing.T) {
	h := newHarness(t)

	out := h.auth.Submit(context.Background(), "sid", domain.TabAgencyLogin,
		domain.AuthForm{AgencyName: upstreamtest.AgencyName, Password: "123"}, nil)

	assert.True(t, out.IsError)
	assert.Equal(t, "Password must be at least 6 characters.", out.Message)
	assert.Zero(t, h.srv.Calls("/agency/login"))
	assert.Nil(t, out.Session)
}

func TestAuthFlow_AgencyLoginPersistsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out := h.auth.Submit(ctx, "sid", domain.TabAgencyLogin,
		domain.AuthForm{AgencyName: "  " + upstreamtest.AgencyName + " ", Password: upstreamtest.AgencyPassword}, nil)

	require.False(t, out.IsError, out.Message)
	agency, ok := out.Session.(domain.AgencySession)
	require.True(t, ok)
	assert.Equal(t, h.srv.AgencyToken(), agency.AgencyToken)
	assert.Equal(t, out.Session, h.store.Load(ctx, "sid"))
	assert.Empty(t, out.Form.Password)
	assert.Equal(t, []events.EventType{events.EventSignedIn}, h.seen)

	require.NoError(t, h.auth.SignOut(ctx, "sid", out.Session))
	assert.Nil(t, h.store.Load(ctx, "sid"))
	assert.Equal(t, events.EventSignedOut, h.seen[len(h.seen)-1])
}

func TestAuthFlow_FailureShowsUpstreamMessage(t *testing.T) {
	h := newHarness(t)

	out := h.auth.Submit(context.Background(), "sid", domain.TabAgentLogin,
		domain.AuthForm{AgencyName: upstreamtest.AgencyName, Username: "nobody", Password: "secret9"}, nil)

	assert.True(t, out.IsError)
	assert.Equal(t, "invalid agent credentials", out.Message)
	assert.Equal(t, domain.TabAgentLogin, out.Tab)
	assert.Nil(t, h.store.Load(context.Background(), "sid"))
}

func TestAuthFlow_OnboardingMovesThroughTabs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out := h.auth.Submit(ctx, "sid", domain.TabAgencySignup, domain.AuthForm{
		AgencyName:   "Beta Labs",
		ContactEmail: "Owner@Beta.test",
		Password:     "secret2",
	}, nil)
	require.False(t, out.IsError, out.Message)
	assert.Equal(t, domain.TabApprove, out.Tab)
	assert.Equal(t, MsgSignupSubmitted, out.Message)
	assert.Equal(t, "Beta Labs", out.Form.AgencyName)

	out = h.auth.Submit(ctx, "sid", domain.TabAgencyLogin,
		domain.AuthForm{AgencyName: "Beta Labs", Password: "secret2"}, nil)
	assert.True(t, out.IsError)
	assert.Equal(t, "agency pending approval", out.Message)

	out = h.auth.Submit(ctx, "sid", domain.TabApprove,
		domain.AuthForm{AgencyName: "Beta Labs", ApprovalCode: "482-913"}, nil)
	require.False(t, out.IsError, out.Message)
	assert.Equal(t, domain.TabAgencyLogin, out.Tab)
	assert.Equal(t, MsgAgencyApproved, out.Message)

	out = h.auth.Submit(ctx, "sid", domain.TabAgencyLogin,
		domain.AuthForm{AgencyName: "Beta Labs", Password: "secret2"}, nil)
	require.False(t, out.IsError, out.Message)
	assert.IsType(t, domain.AgencySession{}, out.Session)
	assert.Contains(t, h.seen, events.EventAgencySignupSubmitted)
}

func TestAuthFlow_ApproveUsesAgencyToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	form := domain.AuthForm{AgencyName: "Gamma", ApprovalCode: "1"}

	h.auth.Submit(ctx, "sid", domain.TabApprove, form, nil)
	assert.Empty(t, h.srv.LastHeader("/agency/approve").Get("Authorization"))

	owner := domain.AgencySession{AgencyName: upstreamtest.AgencyName, AgencyToken: h.srv.AgencyToken()}
	h.auth.Submit(ctx, "sid", domain.TabApprove, form, owner)
	header := h.srv.LastHeader("/agency/approve")
	assert.Equal(t, "Bearer "+h.srv.AgencyToken(), header.Get("Authorization"))
	assert.Empty(t, header.Get(upstream.KeyHeader))
}

func TestAuthFlow_AccessKey(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out := h.auth.Submit(ctx, "sid", domain.TabAccessKey,
		domain.AuthForm{OfficeName: "Front Desk", AccessKey: "wrong_key_123"}, nil)
	assert.True(t, out.IsError)
	assert.Equal(t, "invalid key", out.Message)
	assert.Empty(t, out.Form.AccessKey)

	out = h.auth.Submit(ctx, "sid", domain.TabAccessKey,
		domain.AuthForm{OfficeName: "Front Desk", AccessKey: upstreamtest.AccessKey}, nil)
	require.False(t, out.IsError, out.Message)
	assert.Equal(t, domain.AgentSession{OfficeName: "Front Desk", AccessKey: upstreamtest.AccessKey}, out.Session)
}

func TestAuthFlow_BusySessionMakesNoCall(t *testing.T) {
	h := newHarness(t)
	release, ok := h.busy.Acquire("sid")
	require.True(t, ok)
	defer release()

	out := h.auth.Submit(context.Background(), "sid", domain.TabAgencyLogin,
		domain.AuthForm{AgencyName: upstreamtest.AgencyName, Password: upstreamtest.AgencyPassword}, nil)
	assert.Equal(t, BusyMessage, out.Message)
	assert.Zero(t, h.srv.Calls("/agency/login"))
}

func TestSearchFlow_NameStrategy(t *testing.T) {
	h := newHarness(t)
	h.srv.SetSearchResponse(map[string]any{
		"ok":     true,
		"patron": map[string]any{"id": "p1", "first_name": "Jo", "last_name": "Sm", "badge_last4": "1234"},
		"applications": []any{
			map[string]any{"id": "a1", "status": "submitted", "business_name": "Depot", "store_number": nil},
		},
	})

	view := h.search.Submit(context.Background(), "sid", agentSession(), domain.SearchForm{
		FirstName: "Jo", LastName: "Sm", BadgeLast4: "12-34", Reason: "housing",
	})

	require.False(t, view.IsError, view.Message)
	assert.Equal(t, 1, h.srv.Calls("/verify/search"))
	require.True(t, view.HasResult)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, domain.Placeholder, view.Rows[0].StoreNumber)
	assert.Equal(t, domain.Placeholder, view.Rows[0].PositionTitle)
	assert.Equal(t, "Depot", view.Rows[0].BusinessName)
	assert.Equal(t, "Jo", view.Patron.FirstName)
	assert.Empty(t, view.Message)
}

func TestSearchFlow_GatesMakeNoCall(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	view := h.search.Submit(ctx, "sid", agentSession(), domain.SearchForm{FirstName: "Jo", LastName: "Sm", Reason: "housing"})
	assert.Equal(t, MsgIdentityMissing, view.Message)
	assert.False(t, view.CanSearch)

	view = h.search.Submit(ctx, "sid", agentSession(), domain.SearchForm{BadgeToken: "ABC123", PatronCode: "1234", Reason: domain.ReasonOther})
	assert.Equal(t, MsgReasonRequired, view.Message)

	assert.Zero(t, h.srv.Calls("/verify/search"))
}

func TestSearchFlow_InvalidKey(t *testing.T) {
	h := newHarness(t)

	view := h.search.Submit(context.Background(), "sid", domain.AgentSession{OfficeName: "X", AccessKey: "revoked_key"},
		domain.SearchForm{BadgeToken: "ABC123", PatronCode: "1234", Reason: "snap"})

	assert.True(t, view.IsError)
	assert.Equal(t, "invalid key", view.Message)
	assert.False(t, view.HasResult)
	assert.Empty(t, view.Rows)
}

func TestSearchFlow_NoApplicationsIsInformational(t *testing.T) {
	h := newHarness(t)

	view := h.search.Submit(context.Background(), "sid", agentSession(),
		domain.SearchForm{BadgeToken: "ABC123", PatronCode: "1234", Reason: domain.ReasonOther, ReasonOther: "court order"})

	assert.False(t, view.IsError)
	assert.True(t, view.HasResult)
	assert.Equal(t, MsgNoApplications, view.Message)
	assert.Equal(t, []events.EventType{events.EventSearchPerformed}, h.seen)
}

func TestSearchFlow_Clear(t *testing.T) {
	h := newHarness(t)

	view := h.search.Clear()
	assert.Equal(t, domain.NewSearchForm().Reason, view.Form.Reason)
	assert.False(t, view.HasResult)
	assert.Empty(t, view.Message)
	assert.Zero(t, h.srv.Calls("/verify/search"))
}

func TestAgencyFlow_ManageAgents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := domain.AgencySession{AgencyName: upstreamtest.AgencyName, AgencyToken: h.srv.AgencyToken()}

	view := h.agency.Load(ctx, owner)
	require.False(t, view.IsError, view.Message)
	assert.Empty(t, view.Agents)

	view = h.agency.CreateAgent(ctx, "sid", owner, domain.AgentForm{Username: "agent01", PasswordMode: domain.PasswordModeGenerate})
	require.False(t, view.IsError, view.Message)
	require.NotNil(t, view.Reveal)
	assert.Equal(t, "agent01", view.Reveal.Username)
	assert.NotEmpty(t, view.Reveal.Password)
	require.Len(t, view.Agents, 1)
	assert.True(t, view.Agents[0].IsActive)
	assert.NotEmpty(t, view.Agents[0].CreatedAgo)
	assert.Equal(t, domain.Placeholder, view.Agents[0].LastLogin)

	view = h.agency.Load(ctx, owner)
	assert.Nil(t, view.Reveal)

	id := view.Agents[0].ID
	view = h.agency.DisableAgent(ctx, "sid", owner, id)
	require.False(t, view.IsError, view.Message)
	assert.False(t, view.Agents[0].IsActive)

	view = h.agency.DisableAgent(ctx, "sid", owner, id)
	assert.False(t, view.IsError, view.Message)

	assert.False(t, h.busy.held("sid"))
}

func TestAgencyFlow_ManualPasswordIsNotRevealed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := domain.AgencySession{AgencyName: upstreamtest.AgencyName, AgencyToken: h.srv.AgencyToken()}

	view := h.agency.CreateAgent(ctx, "sid", owner, domain.AgentForm{Username: "agent02", Password: "123", PasswordMode: domain.PasswordModeManual})
	assert.True(t, view.IsError)
	assert.Zero(t, h.srv.Calls("/agency/agents/create"))

	view = h.agency.CreateAgent(ctx, "sid", owner, domain.AgentForm{Username: "agent02", Password: "secret2", PasswordMode: domain.PasswordModeManual})
	require.False(t, view.IsError, view.Message)
	assert.Nil(t, view.Reveal)
	assert.Empty(t, view.Form.Password)

	view = h.agency.CreateAgent(ctx, "sid", owner, domain.AgentForm{Username: "agent02", PasswordMode: domain.PasswordModeGenerate})
	assert.True(t, view.IsError)
	assert.Equal(t, "username already exists", view.Message)
	assert.Len(t, view.Agents, 1)
}

func TestAgencyFlow_BusyGuardBlocksSecondMutation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := domain.AgencySession{AgencyName: upstreamtest.AgencyName, AgencyToken: h.srv.AgencyToken()}

	release, ok := h.busy.Acquire("sid")
	require.True(t, ok)

	view := h.agency.CreateAgent(ctx, "sid", owner, domain.AgentForm{Username: "agent05"})
	assert.Equal(t, BusyMessage, view.Message)
	assert.Zero(t, h.srv.Calls("/agency/agents/create"))

	release()
	view = h.agency.CreateAgent(ctx, "sid", owner, domain.AgentForm{Username: "agent05"})
	assert.False(t, view.IsError, view.Message)
}

func TestAgencyFlow_BusyRejectionStillShowsRoster(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := domain.AgencySession{AgencyName: upstreamtest.AgencyName, AgencyToken: h.srv.AgencyToken()}

	view := h.agency.CreateAgent(ctx, "sid", owner, domain.AgentForm{Username: "agent07"})
	require.False(t, view.IsError, view.Message)
	id := view.Agents[0].ID

	release, ok := h.busy.Acquire("sid")
	require.True(t, ok)
	defer release()

	view = h.agency.DisableAgent(ctx, "sid", owner, id)
	assert.Equal(t, BusyMessage, view.Message)
	require.Len(t, view.Agents, 1)
	assert.True(t, view.Agents[0].IsActive)
	assert.Zero(t, h.srv.Calls("/agency/agents/disable"))

	view = h.agency.CreateInvite(ctx, "sid", owner, 24)
	assert.Equal(t, BusyMessage, view.Message)
	assert.Len(t, view.Agents, 1)
}

func TestAgencyFlow_CreateInvite(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := domain.AgencySession{AgencyName: upstreamtest.AgencyName, AgencyToken: h.srv.AgencyToken()}

	view := h.agency.CreateInvite(ctx, "sid", owner, 500)
	require.False(t, view.IsError, view.Message)
	assert.Equal(t, domain.MaxInviteHours, view.InviteHours)
	require.NotNil(t, view.Invite)
	assert.NotEmpty(t, view.Invite.Code)

	out := h.auth.Submit(ctx, "other", domain.TabJoin,
		domain.AuthForm{InviteCode: view.Invite.Code, Username: "agent06", Password: "secret6"}, nil)
	require.False(t, out.IsError, out.Message)
	assert.Equal(t, domain.TabAgentLogin, out.Tab)
	assert.Equal(t, MsgJoined, out.Message)
}

func TestBusyGuard(t *testing.T) {
	g := NewBusyGuard()

	release, ok := g.Acquire("a")
	require.True(t, ok)
	_, again := g.Acquire("a")
	assert.False(t, again)

	_, other := g.Acquire("b")
	assert.True(t, other)

	release()
	release()
	assert.False(t, g.held("a"))
	_, ok = g.Acquire("a")
	assert.True(t, ok)
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"go.uber.org/zap"

	"github.com/jobappid/verify-portal/internal/domain"
	"github.com/jobappid/verify-portal/internal/events"
	apperrors "github.com/jobappid/verify-portal/pkg/util/errorutil"
)

// Agency page messages.
const (
	MsgAgentCreated  = "Agent created."
	MsgAgentDisabled = "Agent disabled."
	MsgInviteCreated = "Invite created. Share the code with your new agent."
	MsgSelectAgent   = "Select an agent."
)

// AgentRow is one roster line.
type AgentRow struct {
	ID         string
	Username   string
	IsActive   bool
	CreatedAt  string
	CreatedAgo string
	LastLogin  string
}

// Reveal carries credentials that are shown once, in the response to the
// request that produced them.
type Reveal struct {
	Username string
	Password string
}

// InviteView is a freshly created invite.
type InviteView struct {
	Code      string
	ExpiresAt string
}

// AgencyView is everything the management page renders.
type AgencyView struct {
	AgencyName  string
	Agents      []AgentRow
	Form        domain.AgentForm
	InviteHours int
	Reveal      *Reveal
	Invite      *InviteView
	Message     string
	IsError     bool
}

// AgencyFlow is the owner's management page.
type AgencyFlow struct {
	publisher
	api  AgencyAPI
	busy *BusyGuard
	now  func() time.Time
}

// NewAgencyFlow wires the flow.
func NewAgencyFlow(api AgencyAPI, busy *BusyGuard, dispatcher events.Dispatcher, logger *zap.Logger) *AgencyFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgencyFlow{
		publisher: publisher{dispatcher: dispatcher, logger: logger},
		api:       api,
		busy:      busy,
		now:       time.Now,
	}
}

// Load fetches the roster.
func (f *AgencyFlow) Load(ctx context.Context, agency domain.AgencySession) AgencyView {
	view := f.blank(agency)
	f.refresh(ctx, agency, &view)
	return view
}

// CreateAgent adds an agent and refreshes the roster. A generated password
// is placed in the view's Reveal and nowhere else.
func (f *AgencyFlow) CreateAgent(ctx context.Context, sid string, agency domain.AgencySession, form domain.AgentForm) AgencyView {
	view := f.blank(agency)
	view.Form = domain.AgentForm{Username: strings.TrimSpace(form.Username), PasswordMode: form.PasswordMode}

	in, msg := form.Input()
	if msg != "" {
		view.Message, view.IsError = msg, true
		f.refresh(ctx, agency, &view)
		return view
	}

	release, ok := f.busy.Acquire(sid)
	if !ok {
		view.Message, view.IsError = BusyMessage, true
		f.refresh(ctx, agency, &view)
		return view
	}
	defer release()

	created, err := f.api.CreateAgent(ctx, agency.AgencyToken, in)
	if err != nil {
		view.Message, view.IsError = apperrors.UserMessage(err), true
		f.refresh(ctx, agency, &view)
		return view
	}
	f.emit(ctx, events.EventAgentCreated, sid, agency, events.AgentCreatedPayload{
		AgentID:           created.Agent.ID,
		Username:          created.Agent.Username,
		PasswordGenerated: created.Password != "",
	})

	view.Form = domain.AgentForm{PasswordMode: form.PasswordMode}
	view.Message = MsgAgentCreated
	if created.Password != "" {
		username := created.Agent.Username
		if username == "" {
			username = in.Username
		}
		view.Reveal = &Reveal{Username: username, Password: created.Password}
	}
	f.refresh(ctx, agency, &view)
	return view
}

// DisableAgent deactivates an agent and refreshes the roster.
func (f *AgencyFlow) DisableAgent(ctx context.Context, sid string, agency domain.AgencySession, agentID string) AgencyView {
	view := f.blank(agency)
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		view.Message, view.IsError = MsgSelectAgent, true
		f.refresh(ctx, agency, &view)
		return view
	}

	release, ok := f.busy.Acquire(sid)
	if !ok {
		view.Message, view.IsError = BusyMessage, true
		f.refresh(ctx, agency, &view)
		return view
	}
	defer release()

	if err := f.api.DisableAgent(ctx, agency.AgencyToken, agentID); err != nil {
		view.Message, view.IsError = apperrors.UserMessage(err), true
	} else {
		f.emit(ctx, events.EventAgentDisabled, sid, agency, events.AgentDisabledPayload{AgentID: agentID})
		view.Message = MsgAgentDisabled
	}
	f.refresh(ctx, agency, &view)
	return view
}

// CreateInvite issues an invite code valid for hours, clamped to the allowed
// range.
func (f *AgencyFlow) CreateInvite(ctx context.Context, sid string, agency domain.AgencySession, hours int) AgencyView {
	view := f.blank(agency)
	hours = domain.ClampInviteHours(hours)
	view.InviteHours = hours

	release, ok := f.busy.Acquire(sid)
	if !ok {
		view.Message, view.IsError = BusyMessage, true
		f.refresh(ctx, agency, &view)
		return view
	}
	defer release()

	inv, err := f.api.CreateInvite(ctx, agency.AgencyToken, hours)
	if err != nil {
		view.Message, view.IsError = apperrors.UserMessage(err), true
	} else {
		f.emit(ctx, events.EventInviteCreated, sid, agency, events.InviteCreatedPayload{ExpiresHours: hours})
		view.Invite = &InviteView{Code: inv.Code, ExpiresAt: f.formatTime(inv.ExpiresAt)}
		view.Message = MsgInviteCreated
	}
	f.refresh(ctx, agency, &view)
	return view
}

func (f *AgencyFlow) blank(agency domain.AgencySession) AgencyView {
	return AgencyView{
		AgencyName:  agency.AgencyName,
		Form:        domain.AgentForm{PasswordMode: domain.PasswordModeGenerate},
		InviteHours: domain.DefaultInviteHours,
	}
}

// refresh reloads the roster. A load failure only replaces the message when
// the action itself succeeded.
func (f *AgencyFlow) refresh(ctx context.Context, agency domain.AgencySession, view *AgencyView) {
	agents, err := f.api.ListAgents(ctx, agency.AgencyToken)
	if err != nil {
		if !view.IsError {
			view.Message, view.IsError = apperrors.UserMessage(err), true
		}
		return
	}
	now := f.now()
	view.Agents = make([]AgentRow, 0, len(agents))
	for _, a := range agents {
		row := AgentRow{
			ID:        a.ID,
			Username:  a.Username,
			IsActive:  a.IsActive,
			CreatedAt: domain.Placeholder,
			LastLogin: domain.Placeholder,
		}
		if !a.CreatedAt.IsZero() {
			row.CreatedAt = a.CreatedAt.Local().Format("Jan 2, 2006")
			row.CreatedAgo = timeago.English.FormatReference(a.CreatedAt, now)
		}
		if a.LastLoginAt != nil && !a.LastLoginAt.IsZero() {
			row.LastLogin = timeago.English.FormatReference(*a.LastLoginAt, now)
		}
		view.Agents = append(view.Agents, row)
	}
}

func (f *AgencyFlow) formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return domain.Placeholder
	}
	return t.Local().Format("Jan 2, 2006 3:04 PM")
}

package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobappid/verify-portal/internal/domain"
	"github.com/jobappid/verify-portal/internal/events"
	"github.com/jobappid/verify-portal/internal/session"
	"github.com/jobappid/verify-portal/internal/upstream"
	apperrors "github.com/jobappid/verify-portal/pkg/util/errorutil"
)

// Messages shown after a successful onboarding step.
const (
	MsgSignupSubmitted = "Agency submitted. Support will provide approval code. Go to Approval Code tab."
	MsgAgencyApproved  = "Agency approved. Now you can sign in using Agency Name + Agency Password."
	MsgJoined          = "Joined agency. You can now use Agent Sign In."
)

// AuthOutcome is the result of one auth page submission. Session is set only
// when a sign-in succeeded and has been persisted.
type AuthOutcome struct {
	Tab     domain.AuthTab
	Form    domain.AuthForm
	Message string
	IsError bool
	Session domain.Session
}

// AuthFlow drives the sign-in and onboarding tabs.
type AuthFlow struct {
	publisher
	api      AuthAPI
	sessions session.Store
	busy     *BusyGuard
}

// NewAuthFlow wires the flow.
func NewAuthFlow(api AuthAPI, sessions session.Store, busy *BusyGuard, dispatcher events.Dispatcher, logger *zap.Logger) *AuthFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthFlow{
		publisher: publisher{dispatcher: dispatcher, logger: logger},
		api:       api,
		sessions:  sessions,
		busy:      busy,
	}
}

// Submit validates the form for tab and performs the tab's action. current
// is the browser's session; an agency token it holds authorizes approval.
func (f *AuthFlow) Submit(ctx context.Context, sid string, tab domain.AuthTab, form domain.AuthForm, current domain.Session) AuthOutcome {
	form = form.Shape()
	out := AuthOutcome{Tab: tab, Form: redact(form)}

	if msg := form.GateMessage(tab); msg != "" {
		out.Message, out.IsError = msg, true
		return out
	}

	release, ok := f.busy.Acquire(sid)
	if !ok {
		out.Message, out.IsError = BusyMessage, true
		return out
	}
	defer release()

	var (
		signedIn domain.Session
		err      error
	)
	switch tab {
	case domain.TabAgencyLogin:
		signedIn, err = f.api.AgencyLogin(ctx, form.AgencyName, form.Password)
	case domain.TabAgentLogin:
		signedIn, err = f.api.AgentLogin(ctx, form.AgencyName, form.Username, form.Password)
	case domain.TabAccessKey:
		if err = f.api.Health(ctx, form.AccessKey); err == nil {
			signedIn = domain.AgentSession{OfficeName: form.OfficeName, AccessKey: form.AccessKey}
		}
	case domain.TabAgencySignup:
		if _, err = f.api.AgencySignup(ctx, form.AgencyName, form.ContactEmail, form.Password); err == nil {
			f.emit(ctx, events.EventAgencySignupSubmitted, sid, current, events.AgencySignupPayload{AgencyName: form.AgencyName})
			out.Tab, out.Message = domain.TabApprove, MsgSignupSubmitted
		}
	case domain.TabApprove:
		if _, err = f.api.Approve(ctx, approvalAuth(current), form.AgencyName, form.ApprovalCode); err == nil {
			out.Tab, out.Message = domain.TabAgencyLogin, MsgAgencyApproved
		}
	case domain.TabJoin:
		if _, err = f.api.Join(ctx, form.InviteCode, form.Username, form.Password); err == nil {
			out.Tab, out.Message = domain.TabAgentLogin, MsgJoined
		}
	}
	if err != nil {
		out.Message, out.IsError = apperrors.UserMessage(err), true
		return out
	}
	if signedIn == nil {
		return out
	}

	if err := f.sessions.Save(ctx, sid, signedIn); err != nil {
		f.logger.Error("save session", zap.String("session_id", sid), zap.Error(err))
		out.Message, out.IsError = apperrors.UserMessage(apperrors.NewInternalError(err)), true
		return out
	}
	f.emit(ctx, events.EventSignedIn, sid, signedIn, events.SignedInPayload{Tab: tab})
	out.Session = signedIn
	return out
}

// SignOut forgets the browser's session.
func (f *AuthFlow) SignOut(ctx context.Context, sid string, current domain.Session) error {
	if err := f.sessions.Clear(ctx, sid); err != nil {
		return apperrors.NewInternalError(err)
	}
	if current != nil {
		f.emit(ctx, events.EventSignedOut, sid, current, nil)
	}
	return nil
}

func approvalAuth(current domain.Session) upstream.Auth {
	if agency, ok := current.(domain.AgencySession); ok {
		return upstream.BearerAuth(agency.AgencyToken)
	}
	return upstream.NoAuth()
}

// redact drops secrets so they are never rendered back into the page.
func redact(f domain.AuthForm) domain.AuthForm {
	f.Password = ""
	f.AccessKey = ""
	return f
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAuthTab(t *testing.T) {
	assert.Equal(t, TabJoin, ParseAuthTab("join"))
	assert.Equal(t, TabAgencyLogin, ParseAuthTab(""))
	assert.Equal(t, TabAgencyLogin, ParseAuthTab("manage"))
}

func TestAuthForm_Ready(t *testing.T) {
	tests := []struct {
		name string
		tab  AuthTab
		form AuthForm
		want bool
	}{
		{name: "agency login ok", tab: TabAgencyLogin, form: AuthForm{AgencyName: "Acme Staffing", Password: "secret1"}, want: true},
		{name: "agency name too short", tab: TabAgencyLogin, form: AuthForm{AgencyName: "A", Password: "secret1"}, want: false},
		{name: "agency password too short", tab: TabAgencyLogin, form: AuthForm{AgencyName: "Acme", Password: "12345"}, want: false},
		{name: "agent login ok", tab: TabAgentLogin, form: AuthForm{AgencyName: "Acme", Username: "agent01", Password: "secret1"}, want: true},
		{name: "agent username too short", tab: TabAgentLogin, form: AuthForm{AgencyName: "Acme", Username: "ag", Password: "secret1"}, want: false},
		{name: "signup ok", tab: TabAgencySignup, form: AuthForm{AgencyName: "Acme", ContactEmail: "o@acme.io", Password: "secret1"}, want: true},
		{name: "signup without contact", tab: TabAgencySignup, form: AuthForm{AgencyName: "Acme", Password: "secret1"}, want: false},
		{name: "approve ok", tab: TabApprove, form: AuthForm{AgencyName: "Acme", ApprovalCode: "123456"}, want: true},
		{name: "approve without code", tab: TabApprove, form: AuthForm{AgencyName: "Acme"}, want: false},
		{name: "join ok", tab: TabJoin, form: AuthForm{InviteCode: "4821", Username: "agent02", Password: "secret1"}, want: true},
		{name: "access key ok", tab: TabAccessKey, form: AuthForm{OfficeName: "North Office", AccessKey: "verifier_1"}, want: true},
		{name: "access key too short", tab: TabAccessKey, form: AuthForm{OfficeName: "North Office", AccessKey: "short"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := tt.form.Shape()
			assert.Equal(t, tt.want, form.Ready(tt.tab))
			if tt.want {
				assert.Empty(t, form.GateMessage(tt.tab))
			} else {
				assert.NotEmpty(t, form.GateMessage(tt.tab))
			}
		})
	}
}

func TestAuthForm_ShapeCodes(t *testing.T) {
	form := AuthForm{
		ApprovalCode: "12-34-56-78-90-12-34",
		InviteCode:   "code: 9988 7766 5544 3322 11",
		ContactEmail: "  Owner@Acme.IO ",
		Password:     " spaced ",
	}.Shape()

	assert.Equal(t, "123456789012", form.ApprovalCode)
	assert.Equal(t, "9988776655443322", form.InviteCode)
	assert.Equal(t, "owner@acme.io", form.ContactEmail)
	assert.Equal(t, " spaced ", form.Password)
}

func TestAgentForm_Input(t *testing.T) {
	in, msg := AgentForm{Username: " agent01 ", PasswordMode: PasswordModeGenerate}.Input()
	assert.Empty(t, msg)
	assert.Equal(t, CreateAgentInput{Username: "agent01", GeneratePassword: true}, in)

	in, msg = AgentForm{Username: "agent01", Password: "secret1", PasswordMode: PasswordModeManual}.Input()
	assert.Empty(t, msg)
	assert.Equal(t, CreateAgentInput{Username: "agent01", Password: "secret1"}, in)

	_, msg = AgentForm{Username: "ag"}.Input()
	assert.Equal(t, "Username must be at least 3 characters.", msg)

	_, msg = AgentForm{Username: "agent01", Password: "123", PasswordMode: PasswordModeManual}.Input()
	assert.Equal(t, "Password must be at least 6 characters.", msg)
}

func TestClampInviteHours(t *testing.T) {
	assert.Equal(t, DefaultInviteHours, ClampInviteHours(0))
	assert.Equal(t, 48, ClampInviteHours(48))
	assert.Equal(t, MaxInviteHours, ClampInviteHours(1000))
}

func TestSessionLabels(t *testing.T) {
	var s Session = AgentSession{OfficeName: "North Office"}
	assert.Equal(t, SessionKindAgent, s.Kind())
	assert.Equal(t, "Agent • North Office", s.Label())

	s = AgencySession{AgencyName: "Acme Staffing"}
	assert.Equal(t, SessionKindAgency, s.Kind())
	assert.Equal(t, "Agency • Acme Staffing", s.Label())
}

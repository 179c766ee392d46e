package domain

import "strings"

// AuthTab names one mode of the sign-in/onboarding page.
type AuthTab string

const (
	TabAgencyLogin  AuthTab = "agency_login"
	TabAgentLogin   AuthTab = "agent_login"
	TabAgencySignup AuthTab = "agency_signup"
	TabApprove      AuthTab = "approve"
	TabJoin         AuthTab = "join"
	TabAccessKey    AuthTab = "access_key"
)

// AuthTabs lists the tabs in display order.
var AuthTabs = []AuthTab{TabAgencyLogin, TabAgentLogin, TabJoin, TabAgencySignup, TabApprove, TabAccessKey}

// ParseAuthTab resolves a tab name, falling back to agency sign-in.
func ParseAuthTab(s string) AuthTab {
	for _, t := range AuthTabs {
		if string(t) == s {
			return t
		}
	}
	return TabAgencyLogin
}

// Label returns the tab's button caption.
func (t AuthTab) Label() string {
	switch t {
	case TabAgencyLogin:
		return "Agency Sign In"
	case TabAgentLogin:
		return "Agent Sign In"
	case TabAgencySignup:
		return "Agency Sign Up"
	case TabApprove:
		return "Approval"
	case TabJoin:
		return "Join"
	case TabAccessKey:
		return "Access Key"
	default:
		return string(t)
	}
}

// Input bounds enforced before any request leaves the portal.
const (
	MinAgencyNameLen   = 2
	MinPasswordLen     = 6
	MinUsernameLen     = 3
	MinContactEmailLen = 6
	MinAccessKeyLen    = 8
	ApprovalCodeMaxLen = 12
	InviteCodeMaxLen   = 16
)

// AuthForm carries every field of the sign-in/onboarding page. Each tab reads
// only the fields it needs.
type AuthForm struct {
	AgencyName   string `form:"agency_name"`
	Username     string `form:"username"`
	Password     string `form:"password"`
	ContactEmail string `form:"contact_email"`
	OfficeName   string `form:"office_name"`
	AccessKey    string `form:"access_key"`
	ApprovalCode string `form:"approval_code"`
	InviteCode   string `form:"invite_code"`
}

// Shape trims free-text fields and reduces codes to their digit form.
// Passwords are left untouched.
func (f AuthForm) Shape() AuthForm {
	f.AgencyName = strings.TrimSpace(f.AgencyName)
	f.Username = strings.TrimSpace(f.Username)
	f.ContactEmail = strings.ToLower(strings.TrimSpace(f.ContactEmail))
	f.OfficeName = strings.TrimSpace(f.OfficeName)
	f.AccessKey = strings.TrimSpace(f.AccessKey)
	f.ApprovalCode = DigitsOnly(f.ApprovalCode, ApprovalCodeMaxLen)
	f.InviteCode = DigitsOnly(f.InviteCode, InviteCodeMaxLen)
	return f
}

// Ready reports whether the fields used by tab pass their gates. Callers pass
// a shaped form.
func (f AuthForm) Ready(tab AuthTab) bool {
	switch tab {
	case TabAgencyLogin:
		return validAgencyName(f.AgencyName) && validPassword(f.Password)
	case TabAgentLogin:
		return validAgencyName(f.AgencyName) && validUsername(f.Username) && validPassword(f.Password)
	case TabAgencySignup:
		return validAgencyName(f.AgencyName) &&
			runeLen(f.ContactEmail) >= MinContactEmailLen &&
			validPassword(f.Password)
	case TabApprove:
		return validAgencyName(f.AgencyName) && f.ApprovalCode != ""
	case TabJoin:
		return f.InviteCode != "" && validUsername(f.Username) && validPassword(f.Password)
	case TabAccessKey:
		return f.OfficeName != "" && runeLen(f.AccessKey) >= MinAccessKeyLen
	default:
		return false
	}
}

// GateMessage explains the first failed gate for tab, or "" when ready.
func (f AuthForm) GateMessage(tab AuthTab) string {
	needName := tab != TabJoin && tab != TabAccessKey
	needPassword := tab == TabAgencyLogin || tab == TabAgentLogin || tab == TabAgencySignup || tab == TabJoin
	needUsername := tab == TabAgentLogin || tab == TabJoin

	switch {
	case tab == TabAccessKey && f.OfficeName == "":
		return "Enter your office name."
	case tab == TabAccessKey && runeLen(f.AccessKey) < MinAccessKeyLen:
		return "Access key must be at least 8 characters."
	case tab == TabJoin && f.InviteCode == "":
		return "Enter invite code."
	case needName && !validAgencyName(f.AgencyName):
		return "Enter your agency name."
	case needUsername && !validUsername(f.Username):
		return "Username must be at least 3 characters."
	case tab == TabAgencySignup && runeLen(f.ContactEmail) < MinContactEmailLen:
		return "Enter a contact email."
	case needPassword && !validPassword(f.Password):
		return "Password must be at least 6 characters."
	case tab == TabApprove && f.ApprovalCode == "":
		return "Enter approval code."
	}
	return ""
}

func validAgencyName(s string) bool { return runeLen(strings.TrimSpace(s)) >= MinAgencyNameLen }

func validUsername(s string) bool { return runeLen(strings.TrimSpace(s)) >= MinUsernameLen }

func validPassword(s string) bool { return runeLen(s) >= MinPasswordLen }

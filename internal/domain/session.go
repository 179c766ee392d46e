package domain

// SessionKind tags the persisted session variant.
type SessionKind string

const (
	SessionKindAgent  SessionKind = "agent"
	SessionKindAgency SessionKind = "agency"
)

// Session is the signed-in identity of one browser. Only AgentSession and
// AgencySession implement it; a nil Session means signed out.
type Session interface {
	Kind() SessionKind
	// Label is the "signed in as" caption shown in the page header.
	Label() string
	isSession()
}

// AgentSession identifies an agent (or a legacy access-key holder). AccessKey
// authorizes search-class calls.
type AgentSession struct {
	OfficeName string
	AccessKey  string
}

func (AgentSession) Kind() SessionKind { return SessionKindAgent }

func (s AgentSession) Label() string { return "Agent • " + s.OfficeName }

func (AgentSession) isSession() {}

// AgencySession identifies an agency owner. AgencyToken authorizes management
// calls. AgencyID is empty when the API did not return one.
type AgencySession struct {
	AgencyID    string
	AgencyName  string
	AgencyToken string
}

func (AgencySession) Kind() SessionKind { return SessionKindAgency }

func (s AgencySession) Label() string { return "Agency • " + s.AgencyName }

func (AgencySession) isSession() {}

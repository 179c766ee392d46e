package upstream

import (
	"strings"
	"time"

	"github.com/jobappid/verify-portal/internal/domain"
)

// Request bodies use the API's snake_case names.

type agencyCredentials struct {
	AgencyName     string `json:"agency_name"`
	AgencyPassword string `json:"agency_password"`
}

type agentCredentials struct {
	AgencyName string `json:"agency_name"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

type signupRequest struct {
	AgencyName     string `json:"agency_name"`
	ContactEmail   string `json:"contact_email"`
	AgencyPassword string `json:"agency_password"`
}

type approveRequest struct {
	AgencyName   string `json:"agency_name,omitempty"`
	ApprovalCode string `json:"approval_code"`
}

type inviteRequest struct {
	ExpiresHours int `json:"expires_hours"`
}

type joinRequest struct {
	InviteCode string `json:"invite_code"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

type disableRequest struct {
	AgentID string `json:"agent_id"`
}

// Response bodies. Older API revisions used other names for some fields;
// both spellings are accepted.

type agencyLoginResponse struct {
	AgencyID         string `json:"agency_id"`
	AgencyName       string `json:"agency_name"`
	AgencyToken      string `json:"agency_token"`
	AgencyIDCamel    string `json:"agencyId"`
	AgencyNameCamel  string `json:"agencyName"`
	AgencyTokenCamel string `json:"agencyToken"`
}

func (r agencyLoginResponse) session() domain.AgencySession {
	return domain.AgencySession{
		AgencyID:    firstNonEmpty(r.AgencyID, r.AgencyIDCamel),
		AgencyName:  firstNonEmpty(r.AgencyName, r.AgencyNameCamel),
		AgencyToken: firstNonEmpty(r.AgencyToken, r.AgencyTokenCamel),
	}
}

type agentLoginResponse struct {
	OfficeName      string `json:"officeName"`
	AccessKey       string `json:"accessKey"`
	OfficeNameSnake string `json:"office_name"`
	AccessKeySnake  string `json:"access_key"`
}

func (r agentLoginResponse) session() domain.AgentSession {
	return domain.AgentSession{
		OfficeName: firstNonEmpty(r.OfficeName, r.OfficeNameSnake),
		AccessKey:  firstNonEmpty(r.AccessKey, r.AccessKeySnake),
	}
}

type searchResponse struct {
	Patron *struct {
		ID         string  `json:"id"`
		FirstName  *string `json:"first_name"`
		LastName   *string `json:"last_name"`
		BadgeLast4 *string `json:"badge_last4"`
	} `json:"patron"`
	Badge *struct {
		BadgeLast4 *string `json:"badge_last4"`
	} `json:"badge"`
	Applications []applicationWire `json:"applications"`
}

type applicationWire struct {
	ID            string  `json:"id"`
	SubmittedAt   *string `json:"submitted_at"`
	Status        string  `json:"status"`
	BusinessName  *string `json:"business_name"`
	StoreNumber   *string `json:"store_number"`
	PositionTitle *string `json:"position_title"`
	Business      *struct {
		Name        *string `json:"name"`
		StoreNumber *string `json:"store_number"`
	} `json:"business"`
	Position *struct {
		Title *string `json:"title"`
	} `json:"position"`
}

func (r searchResponse) result() domain.SearchResult {
	var out domain.SearchResult
	if r.Patron != nil {
		out.Patron = domain.Patron{
			ID:         r.Patron.ID,
			FirstName:  r.Patron.FirstName,
			LastName:   r.Patron.LastName,
			BadgeLast4: r.Patron.BadgeLast4,
		}
	}
	if r.Badge != nil && r.Badge.BadgeLast4 != nil {
		out.Patron.BadgeLast4 = r.Badge.BadgeLast4
	}

	out.Applications = make([]domain.Application, 0, len(r.Applications))
	for _, a := range r.Applications {
		app := domain.Application{
			ID:            a.ID,
			SubmittedAt:   a.SubmittedAt,
			Status:        a.Status,
			StoreNumber:   a.StoreNumber,
			PositionTitle: a.PositionTitle,
		}
		name := a.BusinessName
		if a.Business != nil {
			if a.Business.Name != nil {
				name = a.Business.Name
			}
			if a.Business.StoreNumber != nil {
				app.StoreNumber = a.Business.StoreNumber
			}
		}
		if a.Position != nil && a.Position.Title != nil {
			app.PositionTitle = a.Position.Title
		}
		app.BusinessName = domain.OrPlaceholder(name)
		out.Applications = append(out.Applications, app)
	}
	return out
}

type agentWire struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	IsActive    *bool   `json:"is_active"`
	CreatedAt   *string `json:"created_at"`
	LastLoginAt *string `json:"last_login_at"`
}

func (a agentWire) agent() domain.Agent {
	out := domain.Agent{
		ID:       firstNonEmpty(a.ID, a.UserID),
		Username: firstNonEmpty(a.Username, a.Email),
		IsActive: a.IsActive == nil || *a.IsActive,
	}
	if t := parseTime(a.CreatedAt); t != nil {
		out.CreatedAt = *t
	}
	out.LastLoginAt = parseTime(a.LastLoginAt)
	return out
}

type agentListResponse struct {
	Agents []agentWire `json:"agents"`
	Users  []agentWire `json:"users"`
	Data   []agentWire `json:"data"`
}

type createAgentResponse struct {
	Agent    agentWire `json:"agent"`
	Password string    `json:"password"`
}

type inviteResponse struct {
	Data *inviteWire `json:"data"`
	inviteWire
}

type inviteWire struct {
	InviteCode string  `json:"invite_code"`
	ExpiresAt  *string `json:"expires_at"`
}

func (r inviteResponse) invite() domain.Invite {
	w := r.inviteWire
	if r.Data != nil {
		w = *r.Data
	}
	return domain.Invite{Code: w.InviteCode, ExpiresAt: parseTime(w.ExpiresAt)}
}

func parseTime(s *string) *time.Time {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999-07", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

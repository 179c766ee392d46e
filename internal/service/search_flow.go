package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobappid/verify-portal/internal/domain"
	"github.com/jobappid/verify-portal/internal/events"
	apperrors "github.com/jobappid/verify-portal/pkg/util/errorutil"
)

// Search page messages.
const (
	MsgReasonRequired  = "Reason is required (for audit logging)."
	MsgIdentityMissing = "Enter badge token + PIN, or first name + last name + badge last 4."
	MsgNoApplications  = "No applications found for this applicant."
)

// PatronView is the matched applicant with placeholders filled in.
type PatronView struct {
	ID         string
	FirstName  string
	LastName   string
	BadgeLast4 string
}

// ApplicationRow is one rendered application.
type ApplicationRow struct {
	ID            string
	SubmittedAt   string
	Status        string
	BusinessName  string
	StoreNumber   string
	PositionTitle string
}

// SearchView is everything the search page renders.
type SearchView struct {
	Form      domain.SearchForm
	Reasons   []domain.Reason
	CanSearch bool
	HasResult bool
	Patron    PatronView
	Rows      []ApplicationRow
	Message   string
	IsError   bool
}

// NewSearchView builds a view of form without a result.
func NewSearchView(form domain.SearchForm) SearchView {
	form = form.Shape()
	return SearchView{
		Form:      form,
		Reasons:   domain.SearchReasons,
		CanSearch: form.Query().CanSearch() && form.ResolvedReason() != "",
	}
}

// SearchFlow looks up applicants with an agent's access key.
type SearchFlow struct {
	publisher
	api  SearchAPI
	busy *BusyGuard
}

// NewSearchFlow wires the flow.
func NewSearchFlow(api SearchAPI, busy *BusyGuard, dispatcher events.Dispatcher, logger *zap.Logger) *SearchFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchFlow{
		publisher: publisher{dispatcher: dispatcher, logger: logger},
		api:       api,
		busy:      busy,
	}
}

// Submit runs one search. Queries that fail the identity or reason gates
// never reach the API. A failed search leaves no result on the page.
func (f *SearchFlow) Submit(ctx context.Context, sid string, agent domain.AgentSession, form domain.SearchForm) SearchView {
	view := NewSearchView(form)
	q := view.Form.Query()

	switch {
	case q.Reason == "":
		view.Message, view.IsError = MsgReasonRequired, true
		return view
	case !q.CanSearch():
		view.Message, view.IsError = MsgIdentityMissing, true
		return view
	}

	release, ok := f.busy.Acquire(sid)
	if !ok {
		view.Message, view.IsError = BusyMessage, true
		return view
	}
	defer release()

	res, err := f.api.Search(ctx, agent.AccessKey, q)
	payload := events.SearchPerformedPayload{Strategy: strategy(q), Reason: reasonTag(view.Form), Failed: err != nil}
	if err != nil {
		f.emit(ctx, events.EventSearchPerformed, sid, agent, payload)
		view.Message, view.IsError = apperrors.UserMessage(err), true
		return view
	}
	payload.Applications = len(res.Applications)
	f.emit(ctx, events.EventSearchPerformed, sid, agent, payload)

	view.HasResult = true
	view.Patron = PatronView{
		ID:         orPlaceholder(res.Patron.ID),
		FirstName:  domain.OrPlaceholder(res.Patron.FirstName),
		LastName:   domain.OrPlaceholder(res.Patron.LastName),
		BadgeLast4: domain.OrPlaceholder(res.Patron.BadgeLast4),
	}
	view.Rows = make([]ApplicationRow, 0, len(res.Applications))
	for _, a := range res.Applications {
		view.Rows = append(view.Rows, ApplicationRow{
			ID:            a.ID,
			SubmittedAt:   formatSubmitted(a.SubmittedAt),
			Status:        orPlaceholder(a.Status),
			BusinessName:  orPlaceholder(a.BusinessName),
			StoreNumber:   domain.OrPlaceholder(a.StoreNumber),
			PositionTitle: domain.OrPlaceholder(a.PositionTitle),
		})
	}
	if len(view.Rows) == 0 {
		view.Message = MsgNoApplications
	}
	return view
}

// Clear resets the page. It makes no call.
func (f *SearchFlow) Clear() SearchView {
	return NewSearchView(domain.NewSearchForm())
}

func strategy(q domain.SearchQuery) string {
	if strings.TrimSpace(q.BadgeToken) != "" && strings.TrimSpace(q.PatronCode) != "" {
		return "badge_token"
	}
	return "name_last4"
}

// reasonTag keeps free-text reasons out of logs.
func reasonTag(f domain.SearchForm) string {
	if f.Reason == domain.ReasonOther {
		return domain.ReasonOther
	}
	return f.ResolvedReason()
}

func orPlaceholder(s string) string {
	return domain.OrPlaceholder(&s)
}

func formatSubmitted(s *string) string {
	if s == nil {
		return domain.Placeholder
	}
	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		return t.Local().Format("Jan 2, 2006 3:04 PM")
	}
	return domain.OrPlaceholder(s)
}

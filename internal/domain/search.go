package domain

import (
	"strings"
	"unicode/utf8"
)

// Placeholder is rendered wherever an optional value is missing.
const Placeholder = "—"

const (
	BadgeLast4Len     = 4
	PatronCodeMaxLen  = 8
	MinBadgeTokenLen  = 6
	MinPatronCodeLen  = 4
	MinSearchNameLen  = 2
	ReasonOther       = "other"
	maxReasonOtherLen = 200
)

// Reason is one selectable purpose for a lookup.
type Reason struct {
	Value string
	Label string
}

// SearchReasons lists the lookup purposes offered to agents.
var SearchReasons = []Reason{
	{Value: "unemployment", Label: "Unemployment verification"},
	{Value: "public_aid", Label: "Public aid / work requirement"},
	{Value: "housing", Label: "Housing / case management"},
	{Value: "snap", Label: "SNAP recertification"},
	{Value: "workforce", Label: "Workforce services"},
	{Value: "applicant_request", Label: "Applicant request"},
	{Value: ReasonOther, Label: "Other"},
}

// SearchQuery is the body of a search call.
type SearchQuery struct {
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	BadgeLast4 string `json:"badge_last4,omitempty"`
	BadgeToken string `json:"badge_token,omitempty"`
	PatronCode string `json:"patron_code,omitempty"`
	Reason     string `json:"reason"`
}

// CanSearch reports whether the query matches one of the two identity
// strategies: badge token plus PIN, or first and last name plus badge last 4.
func (q SearchQuery) CanSearch() bool {
	hasToken := trimmedLen(q.BadgeToken) >= MinBadgeTokenLen
	hasPin := trimmedLen(q.PatronCode) >= MinPatronCodeLen

	hasName := trimmedLen(q.FirstName) >= MinSearchNameLen && trimmedLen(q.LastName) >= MinSearchNameLen
	hasLast4 := trimmedLen(q.BadgeLast4) == BadgeLast4Len

	return (hasToken && hasPin) || (hasName && hasLast4)
}

// SearchForm is the raw input of the lookup form.
type SearchForm struct {
	FirstName   string `form:"first_name"`
	LastName    string `form:"last_name"`
	BadgeLast4  string `form:"badge_last4"`
	BadgeToken  string `form:"badge_token"`
	PatronCode  string `form:"patron_code"`
	Reason      string `form:"reason"`
	ReasonOther string `form:"reason_other"`
}

// NewSearchForm returns an empty form with the default reason selected.
func NewSearchForm() SearchForm {
	return SearchForm{Reason: SearchReasons[0].Value}
}

// Shape applies the per-field input rules: badge last 4 and PIN keep digits
// only and are truncated.
func (f SearchForm) Shape() SearchForm {
	f.BadgeLast4 = DigitsOnly(f.BadgeLast4, BadgeLast4Len)
	f.PatronCode = DigitsOnly(f.PatronCode, PatronCodeMaxLen)
	f.ReasonOther = truncateRunes(strings.TrimSpace(f.ReasonOther), maxReasonOtherLen)
	return f
}

// ResolvedReason returns the reason that is sent upstream, or "" if none is
// usable.
func (f SearchForm) ResolvedReason() string {
	if f.Reason == ReasonOther {
		return f.ReasonOther
	}
	for _, r := range SearchReasons {
		if r.Value == f.Reason {
			return r.Value
		}
	}
	return ""
}

// Query builds the request body. Blank fields are omitted.
func (f SearchForm) Query() SearchQuery {
	return SearchQuery{
		FirstName:  strings.TrimSpace(f.FirstName),
		LastName:   strings.TrimSpace(f.LastName),
		BadgeLast4: strings.TrimSpace(f.BadgeLast4),
		BadgeToken: strings.TrimSpace(f.BadgeToken),
		PatronCode: strings.TrimSpace(f.PatronCode),
		Reason:     f.ResolvedReason(),
	}
}

// Patron is the applicant matched by a search.
type Patron struct {
	ID         string
	FirstName  *string
	LastName   *string
	BadgeLast4 *string
}

// Application is one job application of the matched patron.
type Application struct {
	ID            string
	SubmittedAt   *string
	Status        string
	BusinessName  string
	StoreNumber   *string
	PositionTitle *string
}

// SearchResult preserves the server's application order.
type SearchResult struct {
	Patron       Patron
	Applications []Application
}

// OrPlaceholder dereferences s, substituting Placeholder for nil or blank.
func OrPlaceholder(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return Placeholder
	}
	return *s
}

// DigitsOnly strips every non-digit rune and keeps at most max digits.
func DigitsOnly(s string, max int) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == max {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			n++
		}
	}
	return b.String()
}

func trimmedLen(s string) int { return runeLen(strings.TrimSpace(s)) }

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func truncateRunes(s string, max int) string {
	if runeLen(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

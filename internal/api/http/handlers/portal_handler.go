package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jobappid/verify-portal/internal/auth"
	"github.com/jobappid/verify-portal/internal/domain"
	"github.com/jobappid/verify-portal/internal/service"
	"github.com/jobappid/verify-portal/internal/web"
	apperrors "github.com/jobappid/verify-portal/pkg/util/errorutil"
)

// PortalHandler serves the portal's pages.
type PortalHandler struct {
	auth   *service.AuthFlow
	search *service.SearchFlow
	agency *service.AgencyFlow
}

// NewPortalHandler constructs the handler.
func NewPortalHandler(authFlow *service.AuthFlow, searchFlow *service.SearchFlow, agencyFlow *service.AgencyFlow) *PortalHandler {
	return &PortalHandler{auth: authFlow, search: searchFlow, agency: agencyFlow}
}

type tabLink struct {
	Name   domain.AuthTab
	Label  string
	Active bool
}

// Home picks the page for the browser's session. This is the only place
// that maps a session to a view.
func (h *PortalHandler) Home(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}

	switch s := principal.Session.(type) {
	case nil:
		return h.renderAuth(c, service.AuthOutcome{Tab: domain.TabAgencyLogin})
	case domain.AgentSession:
		return h.renderSearch(c, s, service.NewSearchView(domain.NewSearchForm()))
	case domain.AgencySession:
		return h.renderAgency(c, s, h.agency.Load(c.UserContext(), s))
	default:
		return apperrors.NewInternalError(nil)
	}
}

// AuthPage shows one auth tab to signed-out browsers.
func (h *PortalHandler) AuthPage(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	if principal.Session != nil {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return h.renderAuth(c, service.AuthOutcome{Tab: domain.ParseAuthTab(c.Query("tab"))})
}

// SubmitAuth handles every auth tab's form.
func (h *PortalHandler) SubmitAuth(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}

	var form domain.AuthForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}

	out := h.auth.Submit(c.UserContext(), principal.SessionID, domain.ParseAuthTab(c.Params("tab")), form, principal.Session)
	if out.Session != nil {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return h.renderAuth(c, out)
}

// Search runs a lookup for the signed-in agent.
func (h *PortalHandler) Search(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	agent, _ := principal.Agent()

	var form domain.SearchForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	return h.renderSearch(c, agent, h.search.Submit(c.UserContext(), principal.SessionID, agent, form))
}

// ClearSearch resets the search page.
func (h *PortalHandler) ClearSearch(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	agent, _ := principal.Agent()
	return h.renderSearch(c, agent, h.search.Clear())
}

// Agency renders the management page.
func (h *PortalHandler) Agency(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	agency, _ := principal.Agency()
	return h.renderAgency(c, agency, h.agency.Load(c.UserContext(), agency))
}

// CreateAgent adds an agent to the owner's agency.
func (h *PortalHandler) CreateAgent(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	agency, _ := principal.Agency()

	var form domain.AgentForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	return h.renderAgency(c, agency, h.agency.CreateAgent(c.UserContext(), principal.SessionID, agency, form))
}

// DisableAgent deactivates the agent named in the path.
func (h *PortalHandler) DisableAgent(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	agency, _ := principal.Agency()
	return h.renderAgency(c, agency, h.agency.DisableAgent(c.UserContext(), principal.SessionID, agency, c.Params("id")))
}

// CreateInvite issues an invite code.
func (h *PortalHandler) CreateInvite(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	agency, _ := principal.Agency()

	var req struct {
		ExpiresHours int `form:"expires_hours"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	return h.renderAgency(c, agency, h.agency.CreateInvite(c.UserContext(), principal.SessionID, agency, req.ExpiresHours))
}

// Logout signs the browser out.
func (h *PortalHandler) Logout(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	if err := h.auth.SignOut(c.UserContext(), principal.SessionID, principal.Session); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *PortalHandler) renderAuth(c *fiber.Ctx, out service.AuthOutcome) error {
	tabs := make([]tabLink, 0, len(domain.AuthTabs))
	for _, t := range domain.AuthTabs {
		tabs = append(tabs, tabLink{Name: t, Label: t.Label(), Active: t == out.Tab})
	}
	return c.Render(web.PageAuth, fiber.Map{
		"tab":      string(out.Tab),
		"tabs":     tabs,
		"form":     out.Form,
		"ready":    out.Form.Ready(out.Tab),
		"message":  out.Message,
		"is_error": out.IsError,
	})
}

func (h *PortalHandler) renderSearch(c *fiber.Ctx, agent domain.AgentSession, view service.SearchView) error {
	return c.Render(web.PageSearch, fiber.Map{
		"signed_in_as": agent.Label(),
		"view":         view,
		"message":      view.Message,
		"is_error":     view.IsError,
	})
}

func (h *PortalHandler) renderAgency(c *fiber.Ctx, agency domain.AgencySession, view service.AgencyView) error {
	if view.Reveal != nil || view.Invite != nil {
		c.Set(fiber.HeaderCacheControl, "no-store")
	}
	_, gate := view.Form.Input()
	return c.Render(web.PageAgency, fiber.Map{
		"signed_in_as": agency.Label(),
		"view":         view,
		"can_create":   gate == "",
		"message":      view.Message,
		"is_error":     view.IsError,
	})
}

func principalOf(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("missing browser session")
	}
	return principal, nil
}

package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jobappid/verify-portal/internal/domain"
	"github.com/jobappid/verify-portal/internal/session"
	apperrors "github.com/jobappid/verify-portal/pkg/util/errorutil"
)

const principalKey = "portal_principal"

// CookieName is the browser cookie holding the signed session id.
const CookieName = "verify_portal_sid"

// Principal is the browser behind a request and its signed-in identity, if any.
type Principal struct {
	SessionID string
	Session   domain.Session
}

// Agent returns the agent session, if that is what is signed in.
func (p *Principal) Agent() (domain.AgentSession, bool) {
	s, ok := p.Session.(domain.AgentSession)
	return s, ok
}

// Agency returns the agency session, if that is what is signed in.
func (p *Principal) Agency() (domain.AgencySession, bool) {
	s, ok := p.Session.(domain.AgencySession)
	return s, ok
}

// SessionMiddleware resolves the browser session id from its cookie, issuing
// a fresh one when the cookie is missing or fails verification, and loads the
// stored session.
type SessionMiddleware struct {
	tokens       *TokenManager
	store        session.Store
	secureCookie bool
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager, store session.Store, secureCookie bool) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens, store: store, secureCookie: secureCookie}
}

// Handle attaches a Principal to every request.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	sid := ""
	if raw := c.Cookies(CookieName); raw != "" {
		if claims, err := m.tokens.ParseToken(raw); err == nil {
			sid = claims.SessionID
		}
	}

	if sid == "" {
		sid = uuid.NewString()
		token, expiresAt, err := m.tokens.GenerateToken(sid)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		c.Cookie(&fiber.Cookie{
			Name:     CookieName,
			Value:    token,
			Path:     "/",
			Expires:  expiresAt,
			HTTPOnly: true,
			Secure:   m.secureCookie,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	c.Locals(principalKey, &Principal{
		SessionID: sid,
		Session:   m.store.Load(c.UserContext(), sid),
	})
	return c.Next()
}

// PrincipalFromContext retrieves the request's principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

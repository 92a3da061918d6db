package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/service-desk/internal/domain"
	apperrors "github.com/campusdesk/service-desk/pkg/util/errorutil"
)

const actorKey = "auth_actor"

// AuthMiddleware validates bearer tokens and stores the actor on the request.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	actor := claims.Actor()
	c.Locals(actorKey, &actor)
	return c.Next()
}

// ActorFromContext retrieves the authenticated caller.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return domain.Actor{}, false
	}
	actor, ok := val.(*domain.Actor)
	if !ok || actor == nil {
		return domain.Actor{}, false
	}
	return *actor, true
}

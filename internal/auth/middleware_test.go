package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/service-desk/internal/domain"
	apperrors "github.com/campusdesk/service-desk/pkg/util/errorutil"
)

func newTestApp(tokens *TokenManager, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tokens).Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		return c.SendString(actor.ID + ":" + string(actor.Role))
	})
	app.Get("/me", handlers...)
	return app
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken(domain.Actor{ID: "u-1", Role: domain.RoleTechnician})
	require.NoError(t, err)
	assert.False(t, exp.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{ID: "u-1", Role: domain.RoleTechnician}, claims.Actor())

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsUnknownRole(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(domain.Actor{ID: "u-1", Role: domain.Role("janitor")})
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := newTestApp(tm)
	token, _, err := tm.GenerateToken(domain.Actor{ID: "stu-1", Role: domain.RoleStudent})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := newTestApp(tm, RequireRole(domain.RoleAdmin))

	student, _, err := tm.GenerateToken(domain.Actor{ID: "stu-1", Role: domain.RoleStudent})
	require.NoError(t, err)
	admin, _, err := tm.GenerateToken(domain.Actor{ID: "adm-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+student)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

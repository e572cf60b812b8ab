package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/incidia/backend/internal/models"
)

const identityKey = "identity"

// Middleware validates the bearer token on every request and stores
// the verified claims in the echo context for handlers to read.
func Middleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := VerifyToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(identityKey, claims)
			return next(c)
		}
	}
}

// RequireRole rejects requests whose verified role is not in the
// allowed set. Must run after Middleware.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(identityKey).(*Claims)
			if !ok || !allowed[claims.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// Identity returns the claims stored by Middleware, or nil when the
// request is unauthenticated.
func Identity(c echo.Context) *Claims {
	claims, _ := c.Get(identityKey).(*Claims)
	return claims
}

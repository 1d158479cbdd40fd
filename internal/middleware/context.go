package middleware

import (
	"strings"

	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/labstack/echo/v4"
)

// UserContextKey holds the *models.JwtCustomClaims of the authenticated caller
const UserContextKey = "user"

// CurrentUser returns the claims set by one of the auth middlewares
func CurrentUser(c echo.Context) (*models.JwtCustomClaims, bool) {
	claims, ok := c.Get(UserContextKey).(*models.JwtCustomClaims)
	return claims, ok && claims != nil
}

func bearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserIDKey is the echo context key holding the authenticated user's ObjectID.
const UserIDKey = "userID"

// SessionRefresher mints a new access token from a stored refresh token.
type SessionRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (primitive.ObjectID, string, error)
}

// JWTAuthMiddleware accepts an access token from the accessToken cookie or a
// Bearer header. When it is missing or no longer valid, the refreshToken
// cookie is exchanged for a new access token, which is set as a cookie.
func JWTAuthMiddleware(tokens *auth.TokenManager, refresher SessionRefresher, secureCookies bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if hexID, err := tokens.ParseAccess(accessToken(c)); err == nil {
				id, err := primitive.ObjectIDFromHex(hexID)
				if err == nil {
					c.Set(UserIDKey, id)
					return next(c)
				}
			}

			refresh, err := c.Cookie(auth.RefreshCookie)
			if err != nil || refresh.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue.")
			}
			id, access, err := refresher.Refresh(c.Request().Context(), refresh.Value)
			if err != nil {
				if apperr.KindOf(err) != apperr.KindUnauthorized {
					log.Errorf("refresh session: %v", err)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Session expired. Please log in again.")
			}

			c.SetCookie(auth.NewCookie(auth.AccessCookie, access, tokens.AccessTTL, secureCookies))
			c.Set(UserIDKey, id)
			return next(c)
		}
	}
}

func accessToken(c echo.Context) string {
	if cookie, err := c.Cookie(auth.AccessCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// CurrentUserID returns the user set by JWTAuthMiddleware.
func CurrentUserID(c echo.Context) (primitive.ObjectID, error) {
	id, ok := c.Get(UserIDKey).(primitive.ObjectID)
	if !ok || id.IsZero() {
		return primitive.NilObjectID, apperr.Unauthorized("Please log in to continue.")
	}
	return id, nil
}

package middleware

import (
	"net/http"
	"os"
	"strings"

	"backend/internal/service"
	"backend/pkg/response"
	"backend/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionKey = "session"

// TokenCookieName is the HTTP-only cookie carrying the bearer token for
// same-origin clients.
const TokenCookieName = "token"

// AuthMiddleware authenticates requests and resolves the session that
// RequireRole / RequirePermission check against.
type AuthMiddleware struct {
	tokens   *token.Service
	sessions service.SessionService
}

func NewAuthMiddleware(tokens *token.Service, sessions service.SessionService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions}
}

// SetTokenCookie sets the session token as an HttpOnly cookie
func SetTokenCookie(c *gin.Context, tokenString string) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie(TokenCookieName, tokenString, 3600*24, "/", "", secure, true)
}

// ClearTokenCookie removes the session cookie
func ClearTokenCookie(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie(TokenCookieName, "", -1, "/", "", secure, true)
}

// extractToken pulls the bearer token from the Authorization header, falling
// back to the session cookie. The header takes precedence when both are
// present.
func extractToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1], true
		}
		return "", false
	}
	if cookie, err := c.Cookie(TokenCookieName); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

// resolve authenticates the request and resolves its session.
func (m *AuthMiddleware) resolve(c *gin.Context) (*service.Session, error) {
	tokenString, ok := extractToken(c)
	if !ok {
		return nil, nil
	}

	userID, err := m.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, token.ErrInvalidToken
	}

	return m.sessions.Resolve(c.Request.Context(), uid)
}

// Protect rejects requests without a valid token and a resolvable session.
func (m *AuthMiddleware) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "authorization token required"))
			return
		}

		userID, err := m.tokens.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid token"))
			return
		}
		uid, err := uuid.Parse(userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid token"))
			return
		}

		sess, err := m.sessions.Resolve(c.Request.Context(), uid)
		if err != nil {
			status, body := response.FromError(err)
			c.AbortWithStatusJSON(status, body)
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// OptionalAuth resolves the session when possible and proceeds anonymously
// on any failure.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess, err := m.resolve(c); err == nil && sess != nil {
			c.Set(sessionKey, sess)
		}
		c.Next()
	}
}

// SessionFrom returns the resolved session attached by Protect/OptionalAuth.
func SessionFrom(c *gin.Context) (*service.Session, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := v.(*service.Session)
	return sess, ok
}

// ActorID returns the authenticated user's id for audit attribution.
func ActorID(c *gin.Context) *uuid.UUID {
	if sess, ok := SessionFrom(c); ok {
		id := sess.User.ID
		return &id
	}
	return nil
}

// RequireRole allows only sessions whose resolved role name is in the
// allowed set. Runs after Protect.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "not authenticated"))
			return
		}

		for _, role := range allowedRoles {
			if sess.RoleName() == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "access denied: requires one of roles ["+strings.Join(allowedRoles, ", ")+"]"))
	}
}

// RequirePermission allows only sessions whose permission set contains the
// given permission, matched by name or id. Runs after Protect.
func RequirePermission(nameOrID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "not authenticated"))
			return
		}

		if !sess.HasPermission(nameOrID) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "access denied: missing permission '"+nameOrID+"'"))
			return
		}

		c.Next()
	}
}

package auth

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyIsAdmin  = "auth_is_admin"
)

// UserLoader resolves a session's user ID to a user.
type UserLoader interface {
	GetUserByID(id uint) (*entities.User, error)
}

// Middleware resolves the session user and guards admin routes.
type Middleware struct {
	users          UserLoader
	sessionManager *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(users UserLoader, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		users:          users,
		sessionManager: sessionManager,
	}
}

// LoadUser puts the session's user into the Gin context when there is one.
// Anonymous requests pass through untouched.
func (m *Middleware) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.sessionManager == nil {
			c.Next()
			return
		}

		userID := m.sessionManager.GetUserID(c.Request)
		if userID == 0 {
			c.Next()
			return
		}

		user, err := m.users.GetUserByID(userID)
		if err != nil {
			// Stale session for a user that no longer exists
			_ = m.sessionManager.DestroySession(c.Request)
			c.Next()
			return
		}

		setUserContext(c, user)
		c.Next()
	}
}

// RequireAdmin rejects anonymous requests with a login redirect (401 for
// JSON clients) and authenticated non-admins with 403.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == 0 {
			if wantsJSON(c.Request) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "authentication required",
				})
				return
			}
			c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}

		if !IsAdmin(c) {
			if wantsJSON(c.Request) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "insufficient permissions",
				})
			} else {
				c.AbortWithStatus(http.StatusForbidden)
			}
			return
		}

		c.Next()
	}
}

// setUserContext stores user information in the Gin context.
func setUserContext(c *gin.Context, user *entities.User) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUsername, user.Username)
	c.Set(ContextKeyIsAdmin, user.IsAdmin)
}

// Helper functions to extract auth data from Gin context

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if not authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// IsAdmin reports whether the authenticated user is an administrator.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ContextKeyIsAdmin)
}

// IsAuthenticated returns true if the request is authenticated.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != 0
}

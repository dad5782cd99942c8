package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	loginTemplate     = "login"
	defaultAfterLogin = "/admin"
)

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}

	// Must start with /
	if !strings.HasPrefix(path, "/") {
		return false
	}

	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}

	// Reject URLs with schemes
	if strings.Contains(path, "://") {
		return false
	}

	// Reject paths with backslashes (potential bypass attempts)
	if strings.Contains(path, "\\") {
		return false
	}

	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to the admin dashboard.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return defaultAfterLogin
}

// Renderer writes an HTML page. The HTTP layer supplies one that adds the
// shared layout data (flashes, CSRF token, current user).
type Renderer func(c *gin.Context, status int, name string, data gin.H)

// LoginForm is the login form payload.
type LoginForm struct {
	Username string `form:"username" binding:"required,max=64"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

// AuthController handles login and logout.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	render         Renderer
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, sessionManager *SessionManager, rateLimiter *RateLimiter, render Renderer) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		render:         render,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout) // Support GET for simple logout links
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if IsAuthenticated(c) && IsAdmin(c) {
		c.Redirect(http.StatusFound, defaultAfterLogin)
		return
	}

	ac.renderLogin(c, http.StatusOK, LoginForm{Next: c.Query("next")}, "")
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		ac.renderLogin(c, http.StatusBadRequest, form, "Username and password are required")
		return
	}

	next := sanitizeRedirectPath(form.Next)
	if form.Next == "" {
		next = sanitizeRedirectPath(c.Query("next"))
	}
	clientIP := c.ClientIP()

	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, form.Username); !allowed {
			if retryAfter > 0 {
				c.Header("Retry-After", retryAfter.String())
			}
			ac.renderLogin(c, http.StatusTooManyRequests, form, "Too many login attempts. Please try again later.")
			return
		}
	}

	user, err := ac.service.Authenticate(form.Username, form.Password)
	if err != nil {
		if ac.rateLimiter != nil {
			ac.rateLimiter.RecordFailure(clientIP, form.Username)
		}

		// Locked accounts share the generic message
		switch {
		case errors.Is(err, ErrAccountLocked):
			log.Printf("[AUTH] Login attempt for locked account %q from %s", form.Username, clientIP)
		case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrNotAdmin):
		default:
			log.Printf("[AUTH] Login failed for %q: %v", form.Username, err)
		}

		ac.renderLogin(c, http.StatusOK, form, "Invalid username or password")
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, form.Username)
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		log.Printf("[AUTH] Failed to create session for %q: %v", user.Username, err)
		ac.renderLogin(c, http.StatusInternalServerError, form, "Failed to create session")
		return
	}

	c.Redirect(http.StatusFound, next)
}

// Logout destroys the session and redirects to the catalog.
func (ac *AuthController) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	_ = ac.sessionManager.DestroySession(c.Request)
	ac.sessionManager.AddFlash(ctx, FlashInfo, "You have been logged out.")
	c.Redirect(http.StatusFound, "/")
}

func (ac *AuthController) renderLogin(c *gin.Context, status int, form LoginForm, errorMsg string) {
	ac.render(c, status, loginTemplate, gin.H{
		"Title":    "Admin Login",
		"Next":     form.Next,
		"Username": form.Username,
		"Error":    errorMsg,
	})
}

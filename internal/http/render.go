package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/entities"
)

// RenderFunc renders a named template with data. Controllers receive one so
// tests can swap HTML rendering for something easier to assert on.
type RenderFunc func(c *gin.Context, status int, name string, data gin.H)

// PageRenderer fills in the data every page layout needs before rendering.
type PageRenderer struct {
	sessions *auth.SessionManager
}

// NewPageRenderer creates a renderer. sessions may be nil, in which case no
// flash messages are shown.
func NewPageRenderer(sessions *auth.SessionManager) *PageRenderer {
	return &PageRenderer{sessions: sessions}
}

// Render adds flashes, the CSRF token, the signed-in user and the category
// list to data and renders the template.
func (p *PageRenderer) Render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	if p.sessions != nil {
		data["Flashes"] = p.sessions.PopFlashes(c.Request.Context())
	}
	data["CSRFToken"] = auth.GetCSRFToken(c)
	data["CSRFFieldName"] = auth.CSRFFieldName
	data["CurrentUser"] = auth.GetUsername(c)
	data["IsAdmin"] = auth.IsAdmin(c)
	data["Categories"] = entities.Categories
	data["CurrentYear"] = time.Now().Year()
	if _, ok := data["Title"]; !ok {
		data["Title"] = "Digital Library"
	}

	c.HTML(status, name, data)
}

// renderError renders the error page, or a JSON error for API clients.
func renderError(c *gin.Context, render RenderFunc, status int, message string) {
	if wantsJSON(c) {
		c.JSON(status, ErrorResponse{Error: message})
		return
	}
	render(c, status, "error", gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}

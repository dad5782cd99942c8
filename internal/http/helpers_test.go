package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func TestParseID(t *testing.T) {
	tests := []struct {
		value  string
		wantID uint
		wantOK bool
	}{
		{"123", 123, true},
		{"1", 1, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"99999999999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			c, _ := testContext(http.MethodGet, "/")
			c.Params = gin.Params{{Key: "id", Value: tt.value}}

			id, ok := parseID(c, "id")

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestParseIDParam_Valid(t *testing.T) {
	c, w := testContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "123"}}

	id, ok := parseIDParam(c, "id")

	assert.True(t, ok)
	assert.Equal(t, uint(123), id)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseIDParam_Invalid(t *testing.T) {
	c, w := testContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	id, ok := parseIDParam(c, "id")

	assert.False(t, ok)
	assert.Equal(t, uint(0), id)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid id")
}

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
		want   bool
	}{
		{"api prefix", "/api/track", "", true},
		{"accept header", "/admin/tasks", "application/json", true},
		{"browser page", "/book/1", "text/html,application/xhtml+xml", false},
		{"api lookalike", "/apix/track", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testContext(http.MethodGet, tt.path)
			if tt.accept != "" {
				c.Request.Header.Set("Accept", tt.accept)
			}
			assert.Equal(t, tt.want, wantsJSON(c))
		})
	}
}

func TestRespondHelpers(t *testing.T) {
	t.Run("not found names the resource", func(t *testing.T) {
		c, w := testContext(http.MethodGet, "/")
		respondNotFound(c, "Book")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Book not found"}`, w.Body.String())
	})

	t.Run("internal error hides the cause", func(t *testing.T) {
		c, w := testContext(http.MethodGet, "/")
		respondInternalError(c, errors.New("disk on fire"), "Failed to record event")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "disk on fire")
		assert.Contains(t, w.Body.String(), "Failed to record event")
	})
}

package web

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/entities"
)

func TestParseTemplates(t *testing.T) {
	tmpl, err := ParseTemplates()
	require.NoError(t, err)

	for _, name := range []string{
		"index", "book_detail", "login", "error",
		"admin_dashboard", "admin_books", "book_form", "admin_analytics", "admin_tasks",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func baseData() map[string]any {
	return map[string]any{
		"Title":         "Test",
		"CSRFToken":     "token-123",
		"CSRFFieldName": "csrf_token",
		"CurrentUser":   "",
		"IsAdmin":       false,
		"Categories":    entities.Categories,
		"CurrentYear":   2024,
	}
}

func TestRenderIndex(t *testing.T) {
	tmpl, err := ParseTemplates()
	require.NoError(t, err)

	data := baseData()
	data["Books"] = []entities.Book{
		{ID: 1, Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Category: entities.CategoryFiction, CoverPath: "covers/abc_gatsby.jpg"},
	}
	data["Query"] = ""
	data["SelectedCategory"] = entities.CategoryFiction

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "index", data))

	body := buf.String()
	assert.Contains(t, body, "The Great Gatsby")
	assert.Contains(t, body, `/uploads/covers/abc_gatsby.jpg`)
	assert.Contains(t, body, `content="token-123"`)
	assert.Contains(t, body, `value="fiction" selected`)
}

func TestRenderBookForm(t *testing.T) {
	tmpl, err := ParseTemplates()
	require.NoError(t, err)

	data := baseData()
	data["Form"] = struct {
		Title, Author, Description, Publisher, ISBN, Category, BookURL string
		Year                                                           int
	}{Title: "Dune", Category: "fiction"}
	data["Errors"] = map[string]string{"author": "Author is required."}
	data["Action"] = "/admin/books/add"

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "book_form", data))

	body := buf.String()
	assert.Contains(t, body, `value="Dune"`)
	assert.Contains(t, body, "Author is required.")
	assert.Contains(t, body, `name="csrf_token" value="token-123"`)
}

func TestRenderAnalytics(t *testing.T) {
	tmpl, err := ParseTemplates()
	require.NoError(t, err)

	data := baseData()
	data["Totals"] = struct{ Views, Downloads, Shares int64 }{3, 2, 1}
	data["Days"] = []string{"2024-05-01", "2024-05-02"}
	data["Series"] = []struct {
		Kind   entities.EventKind
		Counts []int64
	}{{Kind: entities.EventView, Counts: []int64{1, 2}}}
	data["Stats"] = nil
	data["RecentEvents"] = []entities.ClickEvent{
		{BookID: 4, EventType: entities.EventView, Timestamp: time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "admin_analytics", data))

	body := buf.String()
	assert.Contains(t, body, "05-02")
	assert.Contains(t, body, "#4")
}

func TestStaticFS(t *testing.T) {
	f, err := StaticFS().Open("app.js")
	require.NoError(t, err)
	defer f.Close()

	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(content), "X-CSRF-Token")
}

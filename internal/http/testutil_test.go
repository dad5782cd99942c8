package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/library/internal/analytics"
	"github.com/mrlokans/library/internal/database"
	analyticsrepo "github.com/mrlokans/library/internal/database/analytics"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv wires real repositories over a temporary SQLite database.
type testEnv struct {
	db        *database.Database
	books     *books.Repository
	analytics *analyticsrepo.Repository
	recorder  *analytics.Recorder
	files     *storage.FileStore
	flashes   *fakeFlasher
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := database.NewDatabase(filepath.Join(dir, "library.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	files, err := storage.NewFileStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	analyticsRepo := analyticsrepo.NewRepository(db.DB)

	return &testEnv{
		db:        db,
		books:     books.NewRepository(db.DB),
		analytics: analyticsRepo,
		recorder:  analytics.NewRecorder(analyticsRepo),
		files:     files,
		flashes:   &fakeFlasher{},
	}
}

func (e *testEnv) createBook(t *testing.T, book entities.Book) *entities.Book {
	t.Helper()
	if book.Category == "" {
		book.Category = entities.CategoryFiction
	}
	require.NoError(t, e.books.CreateBook(&book))
	return &book
}

func (e *testEnv) storeFile(t *testing.T, name, subfolder, content string) string {
	t.Helper()
	rel, err := e.files.Store(bytes.NewBufferString(content), name, subfolder)
	require.NoError(t, err)
	return rel
}

func (e *testEnv) counters(t *testing.T, bookID uint) *entities.BookAnalytics {
	t.Helper()
	row, err := e.analytics.GetByBookID(bookID)
	require.NoError(t, err)
	return row
}

// jsonRender replaces HTML rendering with JSON so tests can assert on the
// template name and data.
func jsonRender(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Template"] = name
	c.JSON(status, data)
}

type fakeFlasher struct {
	mu      sync.Mutex
	flashes []flashCall
}

type flashCall struct {
	Category string
	Message  string
}

func (f *fakeFlasher) AddFlash(_ context.Context, category, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flashes = append(f.flashes, flashCall{category, message})
}

func (f *fakeFlasher) last() flashCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.flashes) == 0 {
		return flashCall{}
	}
	return f.flashes[len(f.flashes)-1]
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// multipartBody builds a form with optional file parts keyed by field name.
type uploadPart struct {
	field, filename string
	content         []byte
}

func multipartBody(t *testing.T, fields map[string]string, uploads ...uploadPart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, u := range uploads {
		part, err := writer.CreateFormFile(u.field, u.filename)
		require.NoError(t, err)
		_, err = part.Write(u.content)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// pngBytes is a 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

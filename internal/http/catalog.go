package http

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/analytics"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
)

// CatalogController serves the public catalog pages.
type CatalogController struct {
	books    BookLister
	recorder EventRecorder
	files    FileStore
	flasher  Flasher
	render   RenderFunc
}

func NewCatalogController(bookStore BookLister, recorder EventRecorder, files FileStore, flasher Flasher, render RenderFunc) *CatalogController {
	return &CatalogController{
		books:    bookStore,
		recorder: recorder,
		files:    files,
		flasher:  flasher,
		render:   render,
	}
}

// Index handles GET /
// Lists books newest first, optionally filtered by q and category.
func (cc *CatalogController) Index(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	category := entities.Category(strings.TrimSpace(c.Query("category")))

	list, err := cc.books.ListBooks(books.ListFilter{Query: query, Category: category})
	if err != nil {
		log.Printf("Error loading books: %v", err)
		renderError(c, cc.render, http.StatusInternalServerError, "Error loading books")
		return
	}

	cc.render(c, http.StatusOK, "index", gin.H{
		"Books":            list,
		"Query":            query,
		"SelectedCategory": category,
	})
}

// BookDetail handles GET /book/:id
func (cc *CatalogController) BookDetail(c *gin.Context) {
	book, ok := cc.loadBook(c)
	if !ok {
		return
	}

	cc.record(c, book.ID, entities.EventView)

	cc.render(c, http.StatusOK, "book_detail", gin.H{
		"Title": book.Title,
		"Book":  book,
	})
}

// Download handles GET /book/:id/download
// Stored files are sent as attachments, external links are redirected to.
func (cc *CatalogController) Download(c *gin.Context) {
	book, ok := cc.loadBook(c)
	if !ok {
		return
	}

	detailURL := "/book/" + strconv.FormatUint(uint64(book.ID), 10)

	switch {
	case book.HasFile():
		fullPath, err := cc.files.FullPath(book.FilePath)
		if err == nil {
			_, err = os.Stat(fullPath)
		}
		if err != nil {
			log.Printf("Stored file for book %d unavailable (%s): %v", book.ID, book.FilePath, err)
			renderError(c, cc.render, http.StatusNotFound, "File not found")
			return
		}
		cc.record(c, book.ID, entities.EventDownload)
		c.FileAttachment(fullPath, downloadName(book.FilePath))

	case book.BookURL != "":
		cc.record(c, book.ID, entities.EventDownload)
		c.Redirect(http.StatusFound, book.BookURL)

	default:
		cc.flasher.AddFlash(c.Request.Context(), auth.FlashError, "This book is not available for download.")
		c.Redirect(http.StatusFound, detailURL)
	}
}

// loadBook resolves :id, rendering 404 for malformed or unknown IDs.
func (cc *CatalogController) loadBook(c *gin.Context) (*entities.Book, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		renderError(c, cc.render, http.StatusNotFound, "Book not found")
		return nil, false
	}

	book, err := cc.books.GetBookByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			renderError(c, cc.render, http.StatusNotFound, "Book not found")
		} else {
			log.Printf("Error loading book %d: %v", id, err)
			renderError(c, cc.render, http.StatusInternalServerError, "Error loading book")
		}
		return nil, false
	}
	return book, true
}

// record logs a page event. Failures are logged by the recorder and never
// block the page.
func (cc *CatalogController) record(c *gin.Context, bookID uint, kind entities.EventKind) {
	_ = cc.recorder.RecordEvent(c.Request.Context(), bookID, kind, analytics.MetadataFromRequest(c.Request, c.ClientIP()))
}

// downloadName strips the storage token from a stored file name.
func downloadName(relativePath string) string {
	name := path.Base(relativePath)
	if _, original, found := strings.Cut(name, "_"); found && original != "" {
		return original
	}
	return name
}

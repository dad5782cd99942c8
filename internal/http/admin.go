package http

import (
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database/analytics"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
)

const (
	recentBooksLimit    = 5
	recentEventsLimit   = 20
	analyticsWindowDays = 30
)

// AdminController handles the admin dashboard and book management pages.
type AdminController struct {
	books     BookStore
	analytics AnalyticsReader
	files     FileStore
	flasher   Flasher
	render    RenderFunc
	now       func() time.Time
}

func NewAdminController(bookStore BookStore, analyticsReader AnalyticsReader, files FileStore, flasher Flasher, render RenderFunc) *AdminController {
	return &AdminController{
		books:     bookStore,
		analytics: analyticsReader,
		files:     files,
		flasher:   flasher,
		render:    render,
		now:       time.Now,
	}
}

// Dashboard handles GET /admin
func (ac *AdminController) Dashboard(c *gin.Context) {
	totalBooks, err := ac.books.CountBooks()
	if err != nil {
		ac.internalError(c, err, "Error loading dashboard")
		return
	}

	totals, err := ac.analytics.Totals()
	if err != nil {
		ac.internalError(c, err, "Error loading dashboard")
		return
	}

	recent, err := ac.books.RecentBooks(recentBooksLimit)
	if err != nil {
		ac.internalError(c, err, "Error loading dashboard")
		return
	}

	ac.render(c, http.StatusOK, "admin_dashboard", gin.H{
		"Title":          "Admin Dashboard",
		"TotalBooks":     totalBooks,
		"TotalViews":     totals.Views,
		"TotalDownloads": totals.Downloads,
		"TotalShares":    totals.Shares,
		"RecentBooks":    recent,
	})
}

// ManageBooks handles GET /admin/books
func (ac *AdminController) ManageBooks(c *gin.Context) {
	list, err := ac.books.ListBooks(books.ListFilter{})
	if err != nil {
		ac.internalError(c, err, "Error loading books")
		return
	}

	ac.render(c, http.StatusOK, "admin_books", gin.H{
		"Title": "Manage Books",
		"Books": list,
	})
}

// AddBookPage handles GET /admin/books/add
func (ac *AdminController) AddBookPage(c *gin.Context) {
	ac.renderForm(c, http.StatusOK, nil, BookForm{Category: string(entities.CategoryOther)}, nil)
}

// AddBook handles POST /admin/books/add
func (ac *AdminController) AddBook(c *gin.Context) {
	var form BookForm
	if err := c.ShouldBind(&form); err != nil {
		ac.renderBindError(c, nil, form, err)
		return
	}

	book := &entities.Book{}
	form.apply(book)

	saved, formErrs := ac.saveUploads(c, book)
	if formErrs != nil {
		ac.renderForm(c, http.StatusBadRequest, nil, form, formErrs)
		return
	}

	if err := ac.books.CreateBook(book); err != nil {
		ac.removeFiles(saved...)
		ac.internalError(c, err, "Error saving book")
		return
	}

	log.Printf("Book %d created by %s: %q", book.ID, auth.GetUsername(c), book.Title)
	ac.flasher.AddFlash(c.Request.Context(), auth.FlashSuccess, "Book added successfully!")
	c.Redirect(http.StatusFound, "/admin/books")
}

// EditBookPage handles GET /admin/books/edit/:id
func (ac *AdminController) EditBookPage(c *gin.Context) {
	book, ok := ac.loadBook(c)
	if !ok {
		return
	}
	ac.renderForm(c, http.StatusOK, book, formFromBook(book), nil)
}

// EditBook handles POST /admin/books/edit/:id
// A newly uploaded cover or file replaces the stored one, which is removed.
func (ac *AdminController) EditBook(c *gin.Context) {
	book, ok := ac.loadBook(c)
	if !ok {
		return
	}

	var form BookForm
	if err := c.ShouldBind(&form); err != nil {
		ac.renderBindError(c, book, form, err)
		return
	}

	previousCover, previousFile := book.CoverPath, book.FilePath
	form.apply(book)

	saved, formErrs := ac.saveUploads(c, book)
	if formErrs != nil {
		ac.renderForm(c, http.StatusBadRequest, book, form, formErrs)
		return
	}

	book.UpdatedAt = ac.now()
	if err := ac.books.UpdateBook(book); err != nil {
		ac.removeFiles(saved...)
		if errors.Is(err, books.ErrBookNotFound) {
			renderError(c, ac.render, http.StatusNotFound, "Book not found")
			return
		}
		ac.internalError(c, err, "Error saving book")
		return
	}

	if book.CoverPath != previousCover && previousCover != "" {
		ac.files.Remove(previousCover)
	}
	if book.FilePath != previousFile && previousFile != "" {
		ac.files.Remove(previousFile)
	}

	ac.flasher.AddFlash(c.Request.Context(), auth.FlashSuccess, "Book updated successfully!")
	c.Redirect(http.StatusFound, "/admin/books")
}

// DeleteBook handles POST /admin/books/delete/:id
// Removes the book, its analytics and events, and its stored files.
func (ac *AdminController) DeleteBook(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		renderError(c, ac.render, http.StatusNotFound, "Book not found")
		return
	}

	book, err := ac.books.DeleteBook(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			renderError(c, ac.render, http.StatusNotFound, "Book not found")
			return
		}
		ac.internalError(c, err, "Error deleting book")
		return
	}

	ac.removeFiles(book.CoverPath, book.FilePath)

	log.Printf("Book %d deleted by %s", id, auth.GetUsername(c))
	ac.flasher.AddFlash(c.Request.Context(), auth.FlashSuccess, "Book deleted successfully!")
	c.Redirect(http.StatusFound, "/admin/books")
}

// DailySeries is one event kind's counts over the analytics window.
type DailySeries struct {
	Kind   entities.EventKind
	Counts []int64
}

// AnalyticsPage handles GET /admin/analytics
func (ac *AdminController) AnalyticsPage(c *gin.Context) {
	stats, err := ac.analytics.BookStats()
	if err != nil {
		ac.internalError(c, err, "Error loading analytics")
		return
	}

	totals, err := ac.analytics.Totals()
	if err != nil {
		ac.internalError(c, err, "Error loading analytics")
		return
	}

	today := ac.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(analyticsWindowDays - 1))

	daily, err := ac.analytics.DailyCounts(since)
	if err != nil {
		ac.internalError(c, err, "Error loading analytics")
		return
	}

	events, err := ac.analytics.RecentEvents(recentEventsLimit)
	if err != nil {
		ac.internalError(c, err, "Error loading analytics")
		return
	}

	days, series := buildDailySeries(daily, since, analyticsWindowDays)

	ac.render(c, http.StatusOK, "admin_analytics", gin.H{
		"Title":        "Analytics Dashboard",
		"Stats":        stats,
		"Totals":       totals,
		"Days":         days,
		"Series":       series,
		"RecentEvents": events,
	})
}

// buildDailySeries lays the sparse per-day counts onto a dense calendar of
// n days starting at since, one series per recognized kind plus any other
// kind seen in the window.
func buildDailySeries(daily []analytics.DailyCount, since time.Time, n int) ([]string, []DailySeries) {
	days := make([]string, n)
	index := make(map[string]int, n)
	for i := 0; i < n; i++ {
		day := since.AddDate(0, 0, i).Format("2006-01-02")
		days[i] = day
		index[day] = i
	}

	byKind := make(map[entities.EventKind][]int64)
	for _, kind := range entities.EventKinds {
		byKind[kind] = make([]int64, n)
	}

	var extra []entities.EventKind
	for _, row := range daily {
		i, ok := index[row.Day]
		if !ok {
			continue
		}
		counts, ok := byKind[row.EventType]
		if !ok {
			counts = make([]int64, n)
			byKind[row.EventType] = counts
			extra = append(extra, row.EventType)
		}
		counts[i] += row.Count
	}

	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	series := make([]DailySeries, 0, len(byKind))
	for _, kind := range append(append([]entities.EventKind{}, entities.EventKinds...), extra...) {
		series = append(series, DailySeries{Kind: kind, Counts: byKind[kind]})
	}
	return days, series
}

func (ac *AdminController) loadBook(c *gin.Context) (*entities.Book, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		renderError(c, ac.render, http.StatusNotFound, "Book not found")
		return nil, false
	}

	book, err := ac.books.GetBookByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			renderError(c, ac.render, http.StatusNotFound, "Book not found")
		} else {
			ac.internalError(c, err, "Error loading book")
		}
		return nil, false
	}
	return book, true
}

// saveUploads stores any posted cover or book file and points book at them.
// On failure everything stored so far is removed again.
func (ac *AdminController) saveUploads(c *gin.Context, book *entities.Book) ([]string, FormErrors) {
	var saved []string

	for _, rule := range []uploadRule{coverUpload, bookFileUpload} {
		rel, err := saveUpload(c, ac.files, rule)
		if err != nil {
			ac.removeFiles(saved...)
			if errors.Is(err, errInvalidUpload) {
				return nil, FormErrors{rule.field: rule.message}
			}
			if isTooLarge(err) {
				return nil, FormErrors{rule.field: "File is too large."}
			}
			log.Printf("Error storing %s upload: %v", rule.field, err)
			return nil, FormErrors{rule.field: "Could not store the uploaded file."}
		}
		if rel == "" {
			continue
		}

		saved = append(saved, rel)
		if rule.field == coverUpload.field {
			book.CoverPath = rel
		} else {
			book.FilePath = rel
		}
	}

	return saved, nil
}

func (ac *AdminController) removeFiles(paths ...string) {
	for _, p := range paths {
		if p != "" {
			ac.files.Remove(p)
		}
	}
}

func (ac *AdminController) renderBindError(c *gin.Context, book *entities.Book, form BookForm, err error) {
	if isTooLarge(err) {
		ac.renderForm(c, http.StatusRequestEntityTooLarge, book, form, FormErrors{"form": "Upload is too large."})
		return
	}
	ac.renderForm(c, http.StatusBadRequest, book, form, bindErrors(err))
}

// renderForm renders the add form when book is nil, the edit form otherwise.
func (ac *AdminController) renderForm(c *gin.Context, status int, book *entities.Book, form BookForm, errs FormErrors) {
	data := gin.H{
		"Title":  "Add Book",
		"Form":   form,
		"Errors": errs,
		"Action": "/admin/books/add",
	}
	if book != nil {
		data["Title"] = "Edit Book"
		data["Book"] = book
		data["Action"] = "/admin/books/edit/" + strconv.FormatUint(uint64(book.ID), 10)
	}
	ac.render(c, status, "book_form", data)
}

func (ac *AdminController) internalError(c *gin.Context, err error, message string) {
	log.Printf("Admin error (%s %s): %v", c.Request.Method, c.Request.URL.Path, err)
	renderError(c, ac.render, http.StatusInternalServerError, message)
}

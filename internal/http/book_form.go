package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/utils"
)

// BookForm is the admin add/edit form. Uploads are read separately.
type BookForm struct {
	Title       string `form:"title" binding:"notblank,max=255"`
	Author      string `form:"author" binding:"notblank,max=255"`
	Description string `form:"description"`
	Publisher   string `form:"publisher" binding:"max=255"`
	Year        int    `form:"year" binding:"omitempty,min=1000,max=3000"`
	ISBN        string `form:"isbn" binding:"max=20"`
	Category    string `form:"category" binding:"required,oneof=fiction non-fiction science technology business self-help biography history other"`
	BookURL     string `form:"book_url" binding:"omitempty,max=500,url"`
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("notblank", notBlank)
	}
}

// notBlank rejects strings that are empty once surrounding whitespace is removed.
func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// FormErrors maps form field names to a message shown next to the field.
type FormErrors map[string]string

// formFromBook pre-fills the edit form.
func formFromBook(book *entities.Book) BookForm {
	return BookForm{
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Publisher:   book.Publisher,
		Year:        book.Year,
		ISBN:        book.ISBN,
		Category:    string(book.Category),
		BookURL:     book.BookURL,
	}
}

// apply copies the form's fields onto book. Stored paths are left alone.
func (f BookForm) apply(book *entities.Book) {
	book.Title = strings.TrimSpace(f.Title)
	book.Author = strings.TrimSpace(f.Author)
	book.Description = strings.TrimSpace(f.Description)
	book.Publisher = strings.TrimSpace(f.Publisher)
	book.Year = f.Year
	book.ISBN = strings.TrimSpace(f.ISBN)
	book.Category = entities.Category(f.Category)
	book.BookURL = strings.TrimSpace(f.BookURL)
}

var fieldNames = map[string]string{
	"Title":       "title",
	"Author":      "author",
	"Description": "description",
	"Publisher":   "publisher",
	"Year":        "year",
	"ISBN":        "isbn",
	"Category":    "category",
	"BookURL":     "book_url",
}

var fieldLabels = map[string]string{
	"Title":     "Title",
	"Author":    "Author",
	"Publisher": "Publisher",
	"Year":      "Year",
	"ISBN":      "ISBN",
	"Category":  "Category",
	"BookURL":   "Book URL",
}

// bindErrors converts a binding error into per-field messages.
func bindErrors(err error) FormErrors {
	errs := FormErrors{}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		errs["form"] = "Invalid form data. Please check the values and try again."
		return errs
	}

	for _, fe := range validationErrs {
		name := fieldNames[fe.Field()]
		if name == "" {
			name = strings.ToLower(fe.Field())
		}
		label := fieldLabels[fe.Field()]
		if label == "" {
			label = fe.Field()
		}

		switch fe.Tag() {
		case "required", "notblank":
			errs[name] = label + " is required."
		case "max":
			errs[name] = fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		case "min":
			errs[name] = fmt.Sprintf("%s must be at least %s.", label, fe.Param())
		case "oneof":
			errs[name] = "Please choose a valid " + strings.ToLower(label) + "."
		case "url":
			errs[name] = label + " must be a valid URL."
		default:
			errs[name] = label + " is invalid."
		}

		if fe.Field() == "Year" && (fe.Tag() == "min" || fe.Tag() == "max") {
			errs[name] = "Year must be between 1000 and 3000."
		}
	}
	return errs
}

// isTooLarge reports whether err came from the request body size limit.
func isTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

// uploadRule describes what an upload field accepts.
type uploadRule struct {
	field      string
	subfolder  string
	extensions []string
	mimeTypes  []string // Sniffed types accepted; empty accepts any
	message    string
}

var (
	coverUpload = uploadRule{
		field:      "cover",
		subfolder:  config.CoversSubfolder,
		extensions: []string{"jpg", "jpeg", "png", "gif"},
		mimeTypes:  []string{"image/jpeg", "image/png", "image/gif"},
		message:    "Cover must be a JPG, PNG or GIF image.",
	}
	bookFileUpload = uploadRule{
		field:      "book_file",
		subfolder:  config.BooksSubfolder,
		extensions: []string{"pdf", "epub", "mobi"},
		message:    "Book file must be a PDF, EPUB or MOBI file.",
	}
)

var errInvalidUpload = errors.New("invalid upload")

// saveUpload stores the file posted in rule.field. It returns "" when the
// field was left empty.
func saveUpload(c *gin.Context, files FileStore, rule uploadRule) (string, error) {
	header, err := c.FormFile(rule.field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	if header.Filename == "" || header.Size == 0 {
		return "", nil
	}

	if !utils.HasExtension(header.Filename, rule.extensions) {
		return "", errInvalidUpload
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	if len(rule.mimeTypes) > 0 {
		if err := checkMIME(file, rule.mimeTypes); err != nil {
			return "", err
		}
	}

	return files.Store(file, path.Base(header.Filename), rule.subfolder)
}

// checkMIME sniffs the upload's content and rewinds it.
func checkMIME(file multipart.File, allowed []string) error {
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return fmt.Errorf("detect content type: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}
	if !mimetype.EqualsAny(mtype.String(), allowed...) {
		return errInvalidUpload
	}
	return nil
}

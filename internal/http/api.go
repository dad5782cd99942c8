package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/analytics"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
)

// TrackRequest is the body of POST /api/track.
type TrackRequest struct {
	BookID    uint   `json:"book_id"`
	EventType string `json:"event_type"`
}

// APIController exposes the JSON analytics endpoints.
// Unknown books surface as ErrBookNotFound from the recorder's transaction.
type APIController struct {
	recorder EventRecorder
}

func NewAPIController(recorder EventRecorder) *APIController {
	return &APIController{recorder: recorder}
}

// ShareBook handles POST /api/book/:id/share
func (ac *APIController) ShareBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ac.record(c, id, entities.EventShare); err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c, err, "Failed to record share")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Share recorded"})
}

// TrackEvent handles POST /api/track
// Body: {"book_id": 1, "event_type": "view"}
func (ac *APIController) TrackEvent(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	if req.BookID == 0 || req.EventType == "" {
		respondBadRequest(c, "Missing required parameters")
		return
	}
	if len(req.EventType) > entities.MaxEventKindLength {
		respondBadRequest(c, "Event type is too long")
		return
	}

	if err := ac.record(c, req.BookID, entities.EventKind(req.EventType)); err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c, err, "Failed to record event")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (ac *APIController) record(c *gin.Context, bookID uint, kind entities.EventKind) error {
	return ac.recorder.RecordEvent(c.Request.Context(), bookID, kind, analytics.MetadataFromRequest(c.Request, c.ClientIP()))
}

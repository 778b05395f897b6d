package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"learningsite/forms"
	"learningsite/logger"
	"learningsite/middleware"
	"learningsite/services"
)

// Broadcaster publishes content events to the live channel of a course.
type Broadcaster interface {
	BroadcastToCourse(courseID uint, eventType string, payload interface{})
}

// Renderer writes the JSON render contexts shared by every page: it pops
// the session's notices into "messages" and maps service errors onto
// status codes.
type Renderer struct {
	flash services.FlashStore
	log   *logger.Logger
}

func NewRenderer(flash services.FlashStore, log *logger.Logger) *Renderer {
	return &Renderer{flash: flash, log: log.With("component", "Renderer")}
}

// Page responds with ctx plus the pending notices of the session.
func (r *Renderer) Page(c *gin.Context, status int, ctx gin.H) {
	if ctx == nil {
		ctx = gin.H{}
	}
	notices, err := r.flash.Pop(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		r.log.Warn("pop notices", "error", err)
		notices = []services.Notice{}
	}
	ctx["messages"] = notices
	c.JSON(status, ctx)
}

// Redirect stores a notice for the next page and answers 303 See Other.
func (r *Renderer) Redirect(c *gin.Context, location, level, message string) {
	if message != "" {
		notice := services.Notice{Level: level, Message: message}
		if err := r.flash.Add(c.Request.Context(), middleware.SessionID(c), notice); err != nil {
			r.log.Warn("store notice", "error", err)
		}
	}
	c.Redirect(http.StatusSeeOther, location)
}

// Invalid re-renders a form with its validation errors.
func (r *Renderer) Invalid(c *gin.Context, ctx gin.H, form forms.Descriptor, err *forms.ValidationError) {
	if ctx == nil {
		ctx = gin.H{}
	}
	ctx["form"] = form.WithErrors(err)
	r.Page(c, http.StatusBadRequest, ctx)
}

// Error maps err onto a response. Validation errors are handled by the
// caller, since only it knows which form to re-render.
func (r *Renderer) Error(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrInvalidQuestionType) {
		r.NotFound(c)
		return
	}
	_ = c.Error(err)
	r.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func (r *Renderer) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

// paramID reads a positive integer path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learningsite/forms"
	"learningsite/services"
)

const suggestURL = "/suggest/"

type SuggestionHandler struct {
	suggestions *services.SuggestionService
	render      *Renderer
}

func NewSuggestionHandler(suggestions *services.SuggestionService, render *Renderer) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions, render: render}
}

func (h *SuggestionHandler) Form(c *gin.Context) {
	h.render.Page(c, http.StatusOK, gin.H{"form": (&forms.SuggestionForm{}).Describe()})
}

// Submit mails the suggestion. A delivery failure is a server error.
func (h *SuggestionHandler) Submit(c *gin.Context) {
	form, err := forms.BindSuggestion(c)
	if err != nil {
		if ve, ok := forms.AsValidationError(err); ok {
			h.render.Invalid(c, nil, form.Describe(), ve)
			return
		}
		h.render.Error(c, err)
		return
	}
	if err := h.suggestions.Send(c.Request.Context(), form); err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.Redirect(c, suggestURL, services.LevelSuccess, "Thanks for your suggestion!")
}

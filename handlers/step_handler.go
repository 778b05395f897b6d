package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"learningsite/models"
	"learningsite/services"
)

type StepHandler struct {
	steps  *services.StepService
	render *Renderer
}

func NewStepHandler(steps *services.StepService, render *Renderer) *StepHandler {
	return &StepHandler{steps: steps, render: render}
}

// parseStep splits a step segment such as "t12" or "q7" into its kind and id.
func parseStep(segment string) (models.StepKind, uint, bool) {
	if len(segment) < 2 {
		return "", 0, false
	}
	var kind models.StepKind
	switch segment[0] {
	case 't':
		kind = models.StepText
	case 'q':
		kind = models.StepQuiz
	default:
		return "", 0, false
	}
	id, err := strconv.ParseUint(segment[1:], 10, 32)
	if err != nil || id == 0 {
		return "", 0, false
	}
	return kind, uint(id), true
}

// Detail serves /courses/:id/t<step>/ and /courses/:id/q<step>/.
func (h *StepHandler) Detail(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		h.render.NotFound(c)
		return
	}
	kind, stepID, ok := parseStep(c.Param("step"))
	if !ok {
		h.render.NotFound(c)
		return
	}

	var step interface{}
	var err error
	switch kind {
	case models.StepText:
		step, err = h.steps.TextDetail(c.Request.Context(), courseID, stepID)
	case models.StepQuiz:
		step, err = h.steps.QuizDetail(c.Request.Context(), courseID, stepID)
	}
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.Page(c, http.StatusOK, gin.H{"kind": kind, "step": step})
}

// Take grades a quiz submission: {"answers": {"<question id>": <answer id>}}.
func (h *StepHandler) Take(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		h.render.NotFound(c)
		return
	}
	kind, stepID, ok := parseStep(c.Param("step"))
	if !ok || kind != models.StepQuiz {
		h.render.NotFound(c)
		return
	}

	var sub services.QuizSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission"})
		return
	}
	result, err := h.steps.TakeQuiz(c.Request.Context(), courseID, stepID, sub)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.Page(c, http.StatusOK, gin.H{"result": result})
}

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"learningsite/admin"
	"learningsite/forms"
	"learningsite/services"
)

// AdminHandler serves the staff back-office.
type AdminHandler struct {
	site   *admin.Site
	render *Renderer
}

func NewAdminHandler(site *admin.Site, render *Renderer) *AdminHandler {
	return &AdminHandler{site: site, render: render}
}

func (h *AdminHandler) Index(c *gin.Context) {
	h.render.Page(c, http.StatusOK, gin.H{"models": h.site.Index()})
}

func (h *AdminHandler) List(c *gin.Context) {
	list, err := h.site.List(c.Request.Context(), c.Param("model"), c.Request.URL.Query())
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.Page(c, http.StatusOK, gin.H{"changelist": list})
}

func (h *AdminHandler) Change(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.render.NotFound(c)
		return
	}
	form, err := h.site.Change(c.Request.Context(), c.Param("model"), id)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.Page(c, http.StatusOK, gin.H{"change": form})
}

func (h *AdminHandler) Add(c *gin.Context) {
	form, err := h.site.Add(c.Param("model"))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.Page(c, http.StatusOK, gin.H{"add": form})
}

func (h *AdminHandler) Create(c *gin.Context) {
	model := c.Param("model")
	input, err := adminInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{forms.NonFieldErrors: "Malformed payload."}})
		return
	}

	id, err := h.site.Create(c.Request.Context(), model, input)
	if err != nil {
		if ve, ok := forms.AsValidationError(err); ok {
			form, _ := h.site.Add(model)
			h.render.Page(c, http.StatusBadRequest, gin.H{"model": model, "add": form, "errors": ve.Errors})
			return
		}
		h.render.Error(c, err)
		return
	}
	h.render.Redirect(c, admin.ChangeURL(model, id), services.LevelSuccess,
		fmt.Sprintf("The %s was added successfully.", model))
}

func (h *AdminHandler) Update(c *gin.Context) {
	model := c.Param("model")
	id, ok := paramID(c, "id")
	if !ok {
		h.render.NotFound(c)
		return
	}
	input, err := adminInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{forms.NonFieldErrors: "Malformed payload."}})
		return
	}

	if err := h.site.Update(c.Request.Context(), model, id, input); err != nil {
		if ve, ok := forms.AsValidationError(err); ok {
			h.render.Page(c, http.StatusBadRequest, gin.H{"model": model, "id": id, "errors": ve.Errors})
			return
		}
		h.render.Error(c, err)
		return
	}
	h.render.Redirect(c, admin.ChangeURL(model, id), services.LevelSuccess,
		fmt.Sprintf("The %s was changed successfully.", model))
}

func (h *AdminHandler) Delete(c *gin.Context) {
	model := c.Param("model")
	id, ok := paramID(c, "id")
	if !ok {
		h.render.NotFound(c)
		return
	}
	if err := h.site.Delete(c.Request.Context(), model, id); err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.Redirect(c, admin.ListURL(model), services.LevelSuccess,
		fmt.Sprintf("The %s was deleted successfully.", model))
}

type actionRequest struct {
	Action string `json:"action"`
	IDs    []uint `json:"ids"`
}

// Action runs a bulk action: {"action": "make_published", "ids": [1, 2]},
// or the form-encoded action and ids fields.
func (h *AdminHandler) Action(c *gin.Context) {
	model := c.Param("model")

	var req actionRequest
	if c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{forms.NonFieldErrors: "Malformed payload."}})
			return
		}
	} else {
		req.Action = c.PostForm("action")
		for _, raw := range c.PostFormArray("ids") {
			id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
			if err != nil {
				continue
			}
			req.IDs = append(req.IDs, uint(id))
		}
	}

	n, err := h.site.RunAction(c.Request.Context(), model, req.Action, req.IDs)
	if err != nil {
		if ve, ok := forms.AsValidationError(err); ok {
			h.render.Page(c, http.StatusBadRequest, gin.H{"model": model, "errors": ve.Errors})
			return
		}
		h.render.Error(c, err)
		return
	}
	h.render.Redirect(c, admin.ListURL(model), services.LevelSuccess,
		fmt.Sprintf("%d %s successfully updated.", n, model))
}

// adminInput reads a change payload as a flat field map.
func adminInput(c *gin.Context) (map[string]interface{}, error) {
	input := make(map[string]interface{})
	if c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(&input); err != nil {
			return nil, err
		}
		return input, nil
	}
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			input[key] = values[0]
		}
	}
	return input, nil
}

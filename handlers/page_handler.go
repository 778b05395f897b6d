package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PageHandler struct {
	appName string
	db      *gorm.DB
	render  *Renderer
}

func NewPageHandler(appName string, db *gorm.DB, render *Renderer) *PageHandler {
	return &PageHandler{appName: appName, db: db, render: render}
}

func (h *PageHandler) Home(c *gin.Context) {
	h.render.Page(c, http.StatusOK, gin.H{
		"site": h.appName,
		"links": gin.H{
			"courses": "/courses/",
			"search":  "/courses/search/",
			"suggest": suggestURL,
		},
	})
}

func (h *PageHandler) Hello(c *gin.Context) {
	c.String(http.StatusOK, "Hello World")
}

// Health reports whether the database answers.
func (h *PageHandler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

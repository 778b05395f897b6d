package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"learningsite/logger"
	"learningsite/middleware"
	"learningsite/services"
)

// LiveHandler upgrades authors to the content event channel of a course.
type LiveHandler struct {
	hub       *services.Hub
	authoring *services.AuthoringService
	upgrader  websocket.Upgrader
	render    *Renderer
	log       *logger.Logger
}

func NewLiveHandler(hub *services.Hub, authoring *services.AuthoringService, allowedOrigins []string, render *Renderer, log *logger.Logger) *LiveHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &LiveHandler{
		hub:       hub,
		authoring: authoring,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin] || origin == "http://"+r.Host
			},
		},
		render: render,
		log:    log.With("handler", "LiveHandler"),
	}
}

func (h *LiveHandler) Subscribe(c *gin.Context) {
	courseID, ok := paramID(c, "course_id")
	if !ok {
		h.render.NotFound(c)
		return
	}
	if _, err := h.authoring.Course(c.Request.Context(), courseID); err != nil {
		h.render.Error(c, err)
		return
	}
	userID, _ := middleware.UserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.Warn("websocket upgrade failed", "course_id", courseID, "error", err)
		return
	}
	h.hub.RegisterClient(conn, courseID, userID)
	h.log.Debug("websocket connected", "course_id", courseID, "user_id", userID)
}

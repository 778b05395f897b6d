package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learningsite/forms"
	"learningsite/middleware"
	"learningsite/models"
	"learningsite/services"
)

type CourseHandler struct {
	courses   *services.CourseService
	authoring *services.AuthoringService
	events    Broadcaster
	render    *Renderer
}

func NewCourseHandler(courses *services.CourseService, authoring *services.AuthoringService, events Broadcaster, render *Renderer) *CourseHandler {
	return &CourseHandler{courses: courses, authoring: authoring, events: events, render: render}
}

func (h *CourseHandler) List(c *gin.Context) {
	listing, err := h.courses.List(c.Request.Context())
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.Page(c, http.StatusOK, gin.H{"courses": listing.Courses, "total": listing.Total})
}

func (h *CourseHandler) ByTeacher(c *gin.Context) {
	teacher := c.Param("teacher")
	listing, err := h.courses.ByTeacher(c.Request.Context(), teacher)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.Page(c, http.StatusOK, gin.H{"teacher": teacher, "courses": listing.Courses, "total": listing.Total})
}

func (h *CourseHandler) Search(c *gin.Context) {
	term := c.Query("q")
	listing, err := h.courses.Search(c.Request.Context(), term)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.Page(c, http.StatusOK, gin.H{"query": term, "courses": listing.Courses, "total": listing.Total})
}

func (h *CourseHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.render.NotFound(c)
		return
	}
	detail, err := h.courses.Detail(c.Request.Context(), id)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.Page(c, http.StatusOK, gin.H{"course": detail.Course, "steps": detail.Steps})
}

func (h *CourseHandler) NewCourse(c *gin.Context) {
	teachers, err := h.authoring.Teachers(c.Request.Context())
	if err != nil {
		h.render.Error(c, err)
		return
	}
	form := forms.NewCourseForm()
	if actorID, ok := middleware.UserID(c); ok {
		form.TeacherID = actorID
	}
	h.render.Page(c, http.StatusOK, gin.H{"form": form.Describe(teachers)})
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	actorID, _ := middleware.UserID(c)

	form, err := forms.BindCourse(c)
	if err == nil {
		var course *models.Course
		course, err = h.authoring.CreateCourse(c.Request.Context(), actorID, form)
		if err == nil {
			h.events.BroadcastToCourse(course.ID, services.EventCourseCreated, course)
			h.render.Redirect(c, models.CourseListURL, services.LevelSuccess, "Course created!")
			return
		}
	}

	ve, ok := forms.AsValidationError(err)
	if !ok {
		h.render.Error(c, err)
		return
	}
	teachers, err := h.authoring.Teachers(c.Request.Context())
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.Invalid(c, nil, form.Describe(teachers), ve)
}

package routes

import (
	"github.com/gin-gonic/gin"

	"learningsite/handlers"
	"learningsite/middleware"
)

type Handlers struct {
	Pages       *handlers.PageHandler
	Courses     *handlers.CourseHandler
	Steps       *handlers.StepHandler
	Authoring   *handlers.AuthoringHandler
	Suggestions *handlers.SuggestionHandler
	Admin       *handlers.AdminHandler
	Live        *handlers.LiveHandler
}

// SetupRoutes mounts every page. Authentication middleware must already be
// installed on the router.
func SetupRoutes(router *gin.Engine, h Handlers, loginURL, staticDir string) {
	requireLogin := middleware.RequireLogin(loginURL)

	router.GET("/", h.Pages.Home)
	router.GET("/hello/", h.Pages.Hello)
	router.GET("/health", h.Pages.Health)
	if staticDir != "" {
		router.Static("/static", staticDir)
	}

	router.GET("/suggest/", h.Suggestions.Form)
	router.POST("/suggest/", h.Suggestions.Submit)

	courses := router.Group("/courses")
	{
		courses.GET("/", h.Courses.List)
		courses.GET("/by/:teacher/", h.Courses.ByTeacher)
		courses.GET("/search/", h.Courses.Search)
		courses.GET("/:id/", h.Courses.Detail)

		// :id is the course for the steps and the quiz forms, the quiz for the
		// question forms and the question for the answer form.
		courses.GET("/:id/:step/", h.Steps.Detail)
		courses.POST("/:id/:step/take/", h.Steps.Take)

		authoring := courses.Group("/", requireLogin)
		{
			authoring.GET("/create_course/", h.Courses.NewCourse)
			authoring.POST("/create_course/", h.Courses.CreateCourse)

			authoring.GET("/:id/create_quiz/", h.Authoring.NewQuiz)
			authoring.POST("/:id/create_quiz/", h.Authoring.CreateQuiz)
			authoring.GET("/:id/edit_quiz/:quiz_id", h.Authoring.EditQuiz)
			authoring.POST("/:id/edit_quiz/:quiz_id", h.Authoring.UpdateQuiz)

			authoring.GET("/:id/create_question/:type/", h.Authoring.NewQuestion)
			authoring.POST("/:id/create_question/:type/", h.Authoring.CreateQuestion)
			authoring.GET("/:id/edit_question/:question_id/", h.Authoring.EditQuestion)
			authoring.POST("/:id/edit_question/:question_id/", h.Authoring.UpdateQuestion)

			authoring.GET("/:id/create_answer/", h.Authoring.NewAnswers)
			authoring.POST("/:id/create_answer/", h.Authoring.CreateAnswers)
		}
	}

	back := router.Group("/admin", middleware.RequireStaff(loginURL))
	{
		back.GET("/", h.Admin.Index)
		back.GET("/:model/", h.Admin.List)
		back.POST("/:model/action/", h.Admin.Action)
		back.GET("/:model/add/", h.Admin.Add)
		back.POST("/:model/add/", h.Admin.Create)
		back.GET("/:model/:id/", h.Admin.Change)
		back.POST("/:model/:id/", h.Admin.Update)
		back.POST("/:model/:id/delete/", h.Admin.Delete)
	}

	router.GET("/ws/courses/:course_id", requireLogin, h.Live.Subscribe)
}

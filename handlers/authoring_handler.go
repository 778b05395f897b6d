package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"learningsite/forms"
	"learningsite/models"
	"learningsite/services"
)

// AuthoringHandler serves the quiz, question and answer forms. Every route
// sits behind RequireLogin.
type AuthoringHandler struct {
	authoring *services.AuthoringService
	events    Broadcaster
	render    *Renderer
}

func NewAuthoringHandler(authoring *services.AuthoringService, events Broadcaster, render *Renderer) *AuthoringHandler {
	return &AuthoringHandler{authoring: authoring, events: events, render: render}
}

func (h *AuthoringHandler) course(c *gin.Context) (*models.Course, bool) {
	courseID, ok := paramID(c, "id")
	if !ok {
		h.render.NotFound(c)
		return nil, false
	}
	course, err := h.authoring.Course(c.Request.Context(), courseID)
	if err != nil {
		h.render.Error(c, err)
		return nil, false
	}
	return course, true
}

func (h *AuthoringHandler) NewQuiz(c *gin.Context) {
	course, ok := h.course(c)
	if !ok {
		return
	}
	h.render.Page(c, http.StatusOK, gin.H{"course": course, "form": forms.NewQuizForm().Describe()})
}

func (h *AuthoringHandler) CreateQuiz(c *gin.Context) {
	course, ok := h.course(c)
	if !ok {
		return
	}

	form, err := forms.BindQuiz(c, forms.NewQuizForm())
	if err == nil {
		var quiz *models.Quiz
		quiz, err = h.authoring.CreateQuiz(c.Request.Context(), course, form)
		if err == nil {
			h.events.BroadcastToCourse(course.ID, services.EventQuizCreated, quiz)
			h.render.Redirect(c, quiz.URL(), services.LevelSuccess, "Quiz added!")
			return
		}
	}
	h.invalid(c, err, gin.H{"course": course}, form.Describe())
}

func (h *AuthoringHandler) quizInCourse(c *gin.Context) (*models.Quiz, bool) {
	courseID, ok := paramID(c, "id")
	if !ok {
		h.render.NotFound(c)
		return nil, false
	}
	quizID, ok := paramID(c, "quiz_id")
	if !ok {
		h.render.NotFound(c)
		return nil, false
	}
	quiz, err := h.authoring.QuizInCourse(c.Request.Context(), courseID, quizID)
	if err != nil {
		h.render.Error(c, err)
		return nil, false
	}
	return quiz, true
}

func (h *AuthoringHandler) EditQuiz(c *gin.Context) {
	quiz, ok := h.quizInCourse(c)
	if !ok {
		return
	}
	h.render.Page(c, http.StatusOK, gin.H{"course": quiz.Course, "quiz": quiz, "form": forms.QuizFormFor(quiz).Describe()})
}

func (h *AuthoringHandler) UpdateQuiz(c *gin.Context) {
	quiz, ok := h.quizInCourse(c)
	if !ok {
		return
	}

	form, err := forms.BindQuiz(c, forms.QuizFormFor(quiz))
	if err == nil {
		var updated *models.Quiz
		updated, err = h.authoring.UpdateQuiz(c.Request.Context(), quiz, form)
		if err == nil {
			h.events.BroadcastToCourse(updated.CourseID, services.EventQuizUpdated, updated)
			h.render.Redirect(c, updated.URL(), services.LevelSuccess, fmt.Sprintf("Updated %s", updated.Title))
			return
		}
	}
	h.invalid(c, err, gin.H{"course": quiz.Course, "quiz": quiz}, form.Describe())
}

// questionKind resolves the :type segment; unknown types are not found.
func (h *AuthoringHandler) questionKind(c *gin.Context) (models.QuestionKind, bool) {
	kind := models.QuestionKind(c.Param("type"))
	if !kind.Valid() {
		h.render.NotFound(c)
		return "", false
	}
	return kind, true
}

func (h *AuthoringHandler) quiz(c *gin.Context) (*models.Quiz, bool) {
	quizID, ok := paramID(c, "id")
	if !ok {
		h.render.NotFound(c)
		return nil, false
	}
	quiz, err := h.authoring.Quiz(c.Request.Context(), quizID)
	if err != nil {
		h.render.Error(c, err)
		return nil, false
	}
	return quiz, true
}

func (h *AuthoringHandler) NewQuestion(c *gin.Context) {
	kind, ok := h.questionKind(c)
	if !ok {
		return
	}
	quiz, ok := h.quiz(c)
	if !ok {
		return
	}
	form := forms.NewQuestionForm(kind).Describe()
	form.Formset = forms.DescribeAnswers(nil, false)
	h.render.Page(c, http.StatusOK, gin.H{"quiz": quiz, "kind": kind, "form": form})
}

func (h *AuthoringHandler) CreateQuestion(c *gin.Context) {
	kind, ok := h.questionKind(c)
	if !ok {
		return
	}
	quiz, ok := h.quiz(c)
	if !ok {
		return
	}

	sub, err := forms.BindQuestion(c, forms.NewQuestionForm(kind))
	if err == nil {
		var question *models.Question
		question, err = h.authoring.CreateQuestion(c.Request.Context(), quiz, sub)
		if err == nil {
			h.events.BroadcastToCourse(quiz.CourseID, services.EventQuestionCreated, question)
			h.render.Redirect(c, quiz.URL(), services.LevelSuccess, "Added question")
			return
		}
	}
	form := sub.Describe()
	form.Formset = forms.DescribeRows(sub.Answers, false)
	h.invalid(c, err, gin.H{"quiz": quiz, "kind": kind}, form)
}

func (h *AuthoringHandler) questionInQuiz(c *gin.Context) (*models.Question, bool) {
	quizID, ok := paramID(c, "id")
	if !ok {
		h.render.NotFound(c)
		return nil, false
	}
	questionID, ok := paramID(c, "question_id")
	if !ok {
		h.render.NotFound(c)
		return nil, false
	}
	question, err := h.authoring.QuestionInQuiz(c.Request.Context(), quizID, questionID)
	if err != nil {
		h.render.Error(c, err)
		return nil, false
	}
	return question, true
}

func (h *AuthoringHandler) EditQuestion(c *gin.Context) {
	question, ok := h.questionInQuiz(c)
	if !ok {
		return
	}
	form := forms.QuestionFormFor(question).Describe()
	form.Formset = forms.DescribeAnswers(question.Answers, true)
	h.render.Page(c, http.StatusOK, gin.H{"quiz": question.Quiz, "question": question, "form": form})
}

func (h *AuthoringHandler) UpdateQuestion(c *gin.Context) {
	question, ok := h.questionInQuiz(c)
	if !ok {
		return
	}

	sub, err := forms.BindQuestion(c, forms.QuestionFormFor(question))
	if err == nil {
		var updated *models.Question
		updated, err = h.authoring.UpdateQuestion(c.Request.Context(), question, sub)
		if err == nil {
			h.events.BroadcastToCourse(question.Quiz.CourseID, services.EventQuestionUpdated, updated)
			h.render.Redirect(c, question.Quiz.URL(), services.LevelSuccess, "Updated question")
			return
		}
	}
	form := sub.Describe()
	form.Formset = forms.DescribeRows(sub.Answers, true)
	h.invalid(c, err, gin.H{"quiz": question.Quiz, "question": question}, form)
}

func (h *AuthoringHandler) question(c *gin.Context) (*models.Question, bool) {
	questionID, ok := paramID(c, "id")
	if !ok {
		h.render.NotFound(c)
		return nil, false
	}
	question, err := h.authoring.Question(c.Request.Context(), questionID)
	if err != nil {
		h.render.Error(c, err)
		return nil, false
	}
	return question, true
}

func (h *AuthoringHandler) NewAnswers(c *gin.Context) {
	question, ok := h.question(c)
	if !ok {
		return
	}
	form := forms.Descriptor{Fields: []forms.Field{}, Formset: forms.DescribeAnswers(question.Answers, false)}
	h.render.Page(c, http.StatusOK, gin.H{"question": question, "form": form})
}

func (h *AuthoringHandler) CreateAnswers(c *gin.Context) {
	question, ok := h.question(c)
	if !ok {
		return
	}

	set, err := forms.BindAnswers(c)
	if err == nil {
		err = h.authoring.SaveAnswers(c.Request.Context(), question, set)
		if err == nil {
			h.events.BroadcastToCourse(question.Quiz.CourseID, services.EventAnswersSaved, gin.H{"question_id": question.ID})
			h.render.Redirect(c, question.Quiz.URL(), services.LevelSuccess, "added answers")
			return
		}
	}
	form := forms.Descriptor{Fields: []forms.Field{}, Formset: forms.DescribeRows(set.Answers, false)}
	h.invalid(c, err, gin.H{"question": question}, form)
}

// invalid re-renders a rejected form, or fails the request when err is
// not a validation problem.
func (h *AuthoringHandler) invalid(c *gin.Context, err error, ctx gin.H, form forms.Descriptor) {
	ve, ok := forms.AsValidationError(err)
	if !ok {
		h.render.Error(c, err)
		return
	}
	h.render.Invalid(c, ctx, form, ve)
}

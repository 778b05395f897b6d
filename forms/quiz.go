package forms

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"learningsite/models"
)

const defaultTotalQuestions = 4

type QuizForm struct {
	Title          string `json:"title" validate:"required,max=255"`
	Description    string `json:"description" validate:"required"`
	Order          int    `json:"order"`
	TotalQuestions int    `json:"total_questions" validate:"min=0"`
}

func NewQuizForm() *QuizForm {
	return &QuizForm{TotalQuestions: defaultTotalQuestions}
}

// QuizFormFor returns a form pre-filled from an existing quiz.
func QuizFormFor(q *models.Quiz) *QuizForm {
	return &QuizForm{
		Title:          q.Title,
		Description:    q.Description,
		Order:          q.Order,
		TotalQuestions: q.TotalQuestions,
	}
}

func (f *QuizForm) bindValues(values url.Values, errs *ValidationError) {
	f.Title = values.Get("title")
	f.Description = values.Get("description")
	intValue(values, "order", &f.Order, errs)
	intValue(values, "total_questions", &f.TotalQuestions, errs)
}

// BindQuiz reads a quiz submission on top of initial.
func BindQuiz(c *gin.Context, initial *QuizForm) (*QuizForm, error) {
	f := initial
	if f == nil {
		f = NewQuizForm()
	}
	if err := bind(c, f); err != nil {
		return f, err
	}
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	return f, check(f).orNil()
}

func (f *QuizForm) Apply(q *models.Quiz) {
	q.Title = f.Title
	q.Description = f.Description
	q.Order = f.Order
	q.TotalQuestions = f.TotalQuestions
}

func (f *QuizForm) Describe() Descriptor {
	return Descriptor{Fields: []Field{
		{Name: "title", Label: "Title", Type: TypeText, Required: true, Value: f.Title},
		{Name: "description", Label: "Description", Type: TypeTextarea, Required: true, Value: f.Description},
		{Name: "order", Label: "Order", Type: TypeNumber, Required: true, Value: f.Order},
		{Name: "total_questions", Label: "Total questions", Type: TypeNumber, Required: true, Value: f.TotalQuestions},
	}}
}

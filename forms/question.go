package forms

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"learningsite/models"
)

// QuestionForm binds the fields of either question variant. ShuffleAnswers
// is only read and described for multiple-choice questions.
type QuestionForm struct {
	Kind           models.QuestionKind `json:"-"`
	Order          int                 `json:"order"`
	Prompt         string              `json:"prompt" validate:"required"`
	ShuffleAnswers bool                `json:"shuffle_answers"`
}

// QuestionSubmission is a question form plus its inline answer formset.
type QuestionSubmission struct {
	QuestionForm
	Answers []AnswerRow `json:"answers"`
}

func NewQuestionForm(kind models.QuestionKind) *QuestionForm {
	return &QuestionForm{Kind: kind}
}

func QuestionFormFor(q *models.Question) *QuestionForm {
	return &QuestionForm{
		Kind:           q.Kind,
		Order:          q.Order,
		Prompt:         q.Prompt,
		ShuffleAnswers: q.ShuffleAnswers,
	}
}

func (f *QuestionForm) bindValues(values url.Values, errs *ValidationError) {
	intValue(values, "order", &f.Order, errs)
	f.Prompt = values.Get("prompt")
	f.ShuffleAnswers = checkbox(values, "shuffle_answers")
}

func (s *QuestionSubmission) bindValues(values url.Values, errs *ValidationError) {
	s.QuestionForm.bindValues(values, errs)
	s.Answers = answerRowsFromValues(values, answerPrefix, errs)
}

// BindQuestion reads a question submission along with its answer rows.
// The kind of the initial form is kept whatever the payload says.
func BindQuestion(c *gin.Context, initial *QuestionForm) (*QuestionSubmission, error) {
	sub := &QuestionSubmission{QuestionForm: *initial}
	if err := bind(c, sub); err != nil {
		return sub, err
	}
	sub.Kind = initial.Kind
	if sub.Kind != models.MultipleChoice {
		sub.ShuffleAnswers = false
	}
	sub.Prompt = strings.TrimSpace(sub.Prompt)

	errs := &ValidationError{}
	errs.merge("", check(&sub.QuestionForm))
	sub.Answers, errs = validateRows(sub.Answers, errs)
	return sub, errs.orNil()
}

func (f *QuestionForm) Apply(q *models.Question) {
	q.Kind = f.Kind
	q.Order = f.Order
	q.Prompt = f.Prompt
	q.ShuffleAnswers = f.Kind == models.MultipleChoice && f.ShuffleAnswers
}

func (f *QuestionForm) Describe() Descriptor {
	fields := []Field{
		{Name: "order", Label: "Order", Type: TypeNumber, Required: true, Value: f.Order},
		{Name: "prompt", Label: "Prompt", Type: TypeTextarea, Required: true, Value: f.Prompt},
	}
	if f.Kind == models.MultipleChoice {
		fields = append(fields, Field{Name: "shuffle_answers", Label: "Shuffle answers", Type: TypeCheckbox, Value: f.ShuffleAnswers})
	}
	return Descriptor{Fields: fields}
}

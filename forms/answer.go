package forms

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"learningsite/models"
)

const (
	answerPrefix = "answers"
	// extraAnswerRows is the number of blank rows offered by a fresh formset.
	extraAnswerRows = 2
	// maxAnswerRows bounds the rows a single submission may carry.
	maxAnswerRows = 1000

	tamperedManagementForm = "ManagementForm data is missing or has been tampered with."
)

// AnswerRow is one form of an answer formset. Rows with an ID edit an
// existing answer; rows without one create a new answer.
type AnswerRow struct {
	ID      uint   `json:"id,omitempty"`
	Order   int    `json:"order"`
	Text    string `json:"text" validate:"required,max=255"`
	Correct bool   `json:"correct"`
	Delete  bool   `json:"delete,omitempty"`

	// Index is the position of the row in the submitted formset.
	Index int `json:"-"`
}

// blank rows are unfilled extra forms and are skipped.
func (r AnswerRow) blank() bool {
	return r.ID == 0 && strings.TrimSpace(r.Text) == ""
}

func (r AnswerRow) Apply(a *models.Answer) {
	a.Order = r.Order
	a.Text = r.Text
	a.Correct = r.Correct
}

// AnswerFormset is the standalone set of answers of one question.
type AnswerFormset struct {
	Answers []AnswerRow `json:"answers"`
}

func (s *AnswerFormset) bindValues(values url.Values, errs *ValidationError) {
	s.Answers = answerRowsFromValues(values, answerPrefix, errs)
}

// BindAnswers reads and validates a standalone answer formset.
func BindAnswers(c *gin.Context) (*AnswerFormset, error) {
	s := &AnswerFormset{}
	if err := bind(c, s); err != nil {
		return s, err
	}
	var errs *ValidationError
	s.Answers, errs = validateRows(s.Answers, &ValidationError{})
	return s, errs.orNil()
}

// validateRows drops blank rows and reports row errors under their
// original index.
func validateRows(rows []AnswerRow, errs *ValidationError) ([]AnswerRow, *ValidationError) {
	if len(rows) > maxAnswerRows {
		errs.add(answerPrefix+"-TOTAL_FORMS", tamperedManagementForm)
		return nil, errs
	}
	kept := make([]AnswerRow, 0, len(rows))
	for i, row := range rows {
		row.Text = strings.TrimSpace(row.Text)
		row.Index = i
		if row.blank() {
			continue
		}
		if !row.Delete {
			errs.merge(fmt.Sprintf("%s-%d-", answerPrefix, i), check(&row))
		}
		kept = append(kept, row)
	}
	return kept, errs
}

// answerRowsFromValues decodes "<prefix>-TOTAL_FORMS" and the
// "<prefix>-<i>-<field>" keys of a form-encoded formset.
func answerRowsFromValues(values url.Values, prefix string, errs *ValidationError) []AnswerRow {
	totalKey := prefix + "-TOTAL_FORMS"
	raw := strings.TrimSpace(values.Get(totalKey))
	if raw == "" {
		return nil
	}
	total, err := strconv.Atoi(raw)
	if err != nil || total < 0 || total > maxAnswerRows {
		errs.add(totalKey, tamperedManagementForm)
		return nil
	}
	rows := make([]AnswerRow, 0, total)
	for i := 0; i < total; i++ {
		key := func(field string) string { return fmt.Sprintf("%s-%d-%s", prefix, i, field) }
		var row AnswerRow
		uintValue(values, key("id"), &row.ID, errs)
		intValue(values, key("order"), &row.Order, errs)
		row.Text = values.Get(key("text"))
		row.Correct = checkbox(values, key("correct"))
		row.Delete = checkbox(values, key("DELETE"))
		rows = append(rows, row)
	}
	return rows
}

// RowError reports a problem with one answer row found after binding,
// such as an id that does not belong to the question.
func RowError(row AnswerRow, field, msg string) *ValidationError {
	return &ValidationError{Errors: map[string]string{
		fmt.Sprintf("%s-%d-%s", answerPrefix, row.Index, field): msg,
	}}
}

// FieldError reports a problem with a single field found after binding.
func FieldError(field, msg string) *ValidationError {
	return &ValidationError{Errors: map[string]string{field: msg}}
}

// FormsetDescriptor is the render context of an answer formset.
type FormsetDescriptor struct {
	Prefix     string      `json:"prefix"`
	TotalForms int         `json:"total_forms"`
	CanDelete  bool        `json:"can_delete"`
	Fields     []Field     `json:"fields"`
	Rows       []AnswerRow `json:"rows"`
}

// DescribeAnswers builds the formset context for existing answers plus
// extra blank rows.
func DescribeAnswers(answers []models.Answer, canDelete bool) *FormsetDescriptor {
	rows := make([]AnswerRow, 0, len(answers))
	for _, a := range answers {
		rows = append(rows, AnswerRow{ID: a.ID, Order: a.Order, Text: a.Text, Correct: a.Correct})
	}
	return DescribeRows(rows, canDelete)
}

// DescribeRows builds the formset context for bound rows, so a rejected
// submission is shown back as it was entered.
func DescribeRows(bound []AnswerRow, canDelete bool) *FormsetDescriptor {
	rows := make([]AnswerRow, 0, len(bound)+extraAnswerRows)
	rows = append(rows, bound...)
	for i := 0; i < extraAnswerRows; i++ {
		rows = append(rows, AnswerRow{})
	}
	return &FormsetDescriptor{
		Prefix:     answerPrefix,
		TotalForms: len(rows),
		CanDelete:  canDelete,
		Fields: []Field{
			{Name: "order", Label: "Order", Type: TypeNumber, Required: true},
			{Name: "text", Label: "Text", Type: TypeText, Required: true},
			{Name: "correct", Label: "Correct", Type: TypeCheckbox},
		},
		Rows: rows,
	}
}

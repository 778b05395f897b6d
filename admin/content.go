package admin

import (
	"gorm.io/gorm"

	"learningsite/models"
	"learningsite/services"
)

// courseYears are the buckets offered by the course year filter.
var courseYears = []int{2015, 2016, 2017, 2018}

func statusChoices() []Choice {
	out := make([]Choice, 0, len(models.CourseStatuses))
	for _, s := range models.CourseStatuses {
		out = append(out, Choice{Value: string(s), Label: s.Label()})
	}
	return out
}

func kindChoices() []Choice {
	return []Choice{
		{Value: string(models.MultipleChoice), Label: models.MultipleChoice.Label()},
		{Value: string(models.TrueFalse), Label: models.TrueFalse.Label()},
	}
}

// setStatus marks the selected courses with status in one UPDATE, keeping
// published in line with it.
func setStatus(status models.CourseStatus) func(tx *gorm.DB, ids []uint) (int64, error) {
	return func(tx *gorm.DB, ids []uint) (int64, error) {
		res := tx.Model(&models.Course{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":    string(status),
				"published": status == models.StatusPublished,
			})
		return res.RowsAffected, res.Error
	}
}

// CourseAdmin declares the course back-office. Deleting goes through the
// course service so the whole content tree goes with it.
func CourseAdmin(courses *services.CourseService) *ModelAdmin {
	return &ModelAdmin{
		Name: "course",
		New:  func() interface{} { return &models.Course{} },

		ListDisplay:  []string{"title", "created_at", "published", "time_to_complete", "status"},
		SearchFields: []string{"title", "description"},
		ListFilters: []Filter{
			BoolFilter("published", "published"),
			FieldFilter{Field: "status", FilterTitle: "status", Options: statusChoices()},
			YearRangeFilter{Field: "created_at", ParamName: "year", FilterTitle: "year created", Years: courseYears},
		},
		ListEditable: []string{"status"},
		Ordering:     []string{"-created_at", "id"},
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindString, Required: true, MaxLength: 255},
			{Name: "description", Label: "Description", Kind: KindText, Required: true},
			{Name: "teacher_id", Label: "Teacher", Kind: KindRef, References: "user"},
			{Name: "subject", Label: "Subject", Kind: KindString, MaxLength: 100},
			{Name: "status", Label: "Status", Kind: KindChoice, Choices: statusChoices(), Default: string(models.StatusInProgress)},
		},
		Inlines: []Inline{
			{Model: "text", ForeignKey: "course_id", Fields: []string{"title", "description", "order", "content"}},
			{Model: "quiz", ForeignKey: "course_id", Fields: []string{"title", "description", "order", "total_questions"}},
		},
		Actions: []Action{
			{Name: "make_published", Description: "Mark selected courses as published", Run: setStatus(models.StatusPublished)},
			{Name: "make_in_review", Description: "Mark selected courses as in review", Run: setStatus(models.StatusInReview)},
			{Name: "make_in_progress", Description: "Mark selected courses as in progress", Run: setStatus(models.StatusInProgress)},
		},
		Computed: map[string]func(Row) interface{}{
			"time_to_complete": func(r Row) interface{} {
				return models.Course{Description: toString(r["description"])}.TimeToComplete()
			},
		},
		Normalize: func(values map[string]interface{}) {
			if status, ok := values["status"].(string); ok {
				values["published"] = models.CourseStatus(status) == models.StatusPublished
			}
		},
		Children: []Child{
			{Model: "text", ForeignKey: "course_id"},
			{Model: "quiz", ForeignKey: "course_id"},
		},
		Delete: courses.Delete,
	}
}

func TextAdmin() *ModelAdmin {
	return &ModelAdmin{
		Name:        "text",
		New:         func() interface{} { return &models.Text{} },
		ListDisplay: []string{"title", "course_id", "order"},
		Ordering:    []string{"course_id", "order", "id"},
		Fields: []Field{
			{Name: "course_id", Label: "Course", Kind: KindRef, References: "course"},
			{Name: "title", Label: "Title", Kind: KindString, Required: true, MaxLength: 255},
			{Name: "order", Label: "Order", Kind: KindInt},
			{Name: "description", Label: "Description", Kind: KindText},
			{Name: "content", Label: "Content", Kind: KindText},
		},
		Fieldsets: []Fieldset{
			{Fields: []string{"course_id", "title", "order", "description"}},
			{Name: "Add content", Fields: []string{"content"}, Collapsed: true},
		},
	}
}

func QuizAdmin() *ModelAdmin {
	return &ModelAdmin{
		Name:        "quiz",
		PluralName:  "quizzes",
		New:         func() interface{} { return &models.Quiz{} },
		ListDisplay: []string{"title", "course_id", "order", "total_questions", "times_taken"},
		Ordering:    []string{"course_id", "order", "id"},
		Fields: []Field{
			{Name: "course_id", Label: "Course", Kind: KindRef, References: "course"},
			{Name: "title", Label: "Title", Kind: KindString, Required: true, MaxLength: 255},
			{Name: "description", Label: "Description", Kind: KindText, Required: true},
			{Name: "order", Label: "Order", Kind: KindInt},
			{Name: "total_questions", Label: "Total questions", Kind: KindInt, NonNegative: true, Default: 4},
		},
		Inlines:  []Inline{{Model: "question", ForeignKey: "quiz_id", Fields: []string{"kind", "order", "prompt"}}},
		Children: []Child{{Model: "question", ForeignKey: "quiz_id"}},
	}
}

func QuestionAdmin() *ModelAdmin {
	return &ModelAdmin{
		Name:         "question",
		New:          func() interface{} { return &models.Question{} },
		ListDisplay:  []string{"prompt", "quiz_id", "kind", "order"},
		SearchFields: []string{"prompt"},
		ListFilters:  []Filter{FieldFilter{Field: "kind", FilterTitle: "kind", Options: kindChoices()}},
		ListEditable: []string{"quiz_id", "order"},
		Ordering:     []string{"quiz_id", "order", "id"},
		Fields: []Field{
			{Name: "quiz_id", Label: "Quiz", Kind: KindRef, References: "quiz"},
			{Name: "kind", Label: "Type", Kind: KindChoice, Required: true, Choices: kindChoices(), CreateOnly: true},
			{Name: "order", Label: "Order", Kind: KindInt},
			{Name: "prompt", Label: "Prompt", Kind: KindText, Required: true},
			{Name: "shuffle_answers", Label: "Shuffle answers", Kind: KindBool},
		},
		// only multiple choice questions shuffle
		Normalize: func(values map[string]interface{}) {
			if kind, ok := values["kind"].(string); ok && models.QuestionKind(kind) != models.MultipleChoice {
				values["shuffle_answers"] = false
			}
		},
		Inlines:  []Inline{{Model: "answer", ForeignKey: "question_id", Fields: []string{"order", "text", "correct"}}},
		Children: []Child{{Model: "answer", ForeignKey: "question_id"}},
	}
}

func AnswerAdmin() *ModelAdmin {
	return &ModelAdmin{
		Name:        "answer",
		New:         func() interface{} { return &models.Answer{} },
		ListDisplay: []string{"text", "correct", "question_id"},
		Ordering:    []string{"question_id", "order", "id"},
		Fields: []Field{
			{Name: "question_id", Label: "Question", Kind: KindRef, References: "question"},
			{Name: "order", Label: "Order", Kind: KindInt},
			{Name: "text", Label: "Text", Kind: KindString, Required: true, MaxLength: 255},
			{Name: "correct", Label: "Correct", Kind: KindBool},
		},
	}
}

// UserAdmin lists the accounts mirrored from the identity provider, which
// is the only place they are created.
func UserAdmin() *ModelAdmin {
	return &ModelAdmin{
		Name:         "user",
		New:          func() interface{} { return &models.User{} },
		ListDisplay:  []string{"username", "email", "is_staff"},
		SearchFields: []string{"username", "email"},
		ListFilters:  []Filter{BoolFilter("is_staff", "staff status")},
		Ordering:     []string{"username"},
		Fields: []Field{
			{Name: "email", Label: "Email address", Kind: KindString, MaxLength: 254},
		},
		Children:    []Child{{Model: "course", ForeignKey: "teacher_id"}},
		AddDisabled: true,
	}
}

// NewContentRegistry registers every back-office model.
func NewContentRegistry(courses *services.CourseService) *Registry {
	r := NewRegistry()
	r.Register(CourseAdmin(courses))
	r.Register(TextAdmin())
	r.Register(QuizAdmin())
	r.Register(QuestionAdmin())
	r.Register(AnswerAdmin())
	r.Register(UserAdmin())
	return r
}

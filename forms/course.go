package forms

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"learningsite/models"
)

type CourseForm struct {
	Title       string              `json:"title" validate:"required,max=255"`
	Description string              `json:"description" validate:"required"`
	TeacherID   uint                `json:"teacher"`
	Subject     string              `json:"subject" validate:"max=100"`
	Status      models.CourseStatus `json:"status" validate:"required,oneof=i r p"`
}

// NewCourseForm returns the unbound form with model defaults.
func NewCourseForm() *CourseForm {
	return &CourseForm{Status: models.StatusInProgress}
}

func (f *CourseForm) bindValues(values url.Values, errs *ValidationError) {
	f.Title = strings.TrimSpace(values.Get("title"))
	f.Description = strings.TrimSpace(values.Get("description"))
	uintValue(values, "teacher", &f.TeacherID, errs)
	f.Subject = strings.TrimSpace(values.Get("subject"))
	if s := strings.TrimSpace(values.Get("status")); s != "" {
		f.Status = models.CourseStatus(s)
	}
}

// BindCourse reads and validates a course submission.
func BindCourse(c *gin.Context) (*CourseForm, error) {
	f := NewCourseForm()
	if err := bind(c, f); err != nil {
		return f, err
	}
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	return f, check(f).orNil()
}

func (f *CourseForm) Apply(course *models.Course) {
	course.Title = f.Title
	course.Description = f.Description
	course.Subject = f.Subject
	if f.TeacherID != 0 {
		course.TeacherID = f.TeacherID
	}
	course.SetStatus(f.Status)
}

func (f *CourseForm) Describe(teachers []models.User) Descriptor {
	teacherChoices := make([]Choice, 0, len(teachers))
	for _, t := range teachers {
		teacherChoices = append(teacherChoices, Choice{Value: t.ID, Label: t.Username})
	}
	statusChoices := make([]Choice, 0, len(models.CourseStatuses))
	for _, s := range models.CourseStatuses {
		statusChoices = append(statusChoices, Choice{Value: s, Label: s.Label()})
	}
	return Descriptor{Fields: []Field{
		{Name: "title", Label: "Title", Type: TypeText, Required: true, Value: f.Title},
		{Name: "description", Label: "Description", Type: TypeTextarea, Required: true, Value: f.Description},
		{Name: "teacher", Label: "Teacher", Type: TypeSelect, Value: f.TeacherID, Choices: teacherChoices},
		{Name: "subject", Label: "Subject", Type: TypeText, Value: f.Subject},
		{Name: "status", Label: "Status", Type: TypeSelect, Required: true, Value: f.Status, Choices: statusChoices},
	}}
}

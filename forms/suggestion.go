package forms

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

type SuggestionForm struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Suggestion string `json:"suggestion" validate:"required"`
}

func (f *SuggestionForm) bindValues(values url.Values, _ *ValidationError) {
	f.Name = values.Get("name")
	f.Email = values.Get("email")
	f.Suggestion = values.Get("suggestion")
}

func BindSuggestion(c *gin.Context) (*SuggestionForm, error) {
	f := &SuggestionForm{}
	if err := bind(c, f); err != nil {
		return f, err
	}
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Suggestion = strings.TrimSpace(f.Suggestion)
	return f, check(f).orNil()
}

func (f *SuggestionForm) Describe() Descriptor {
	return Descriptor{Fields: []Field{
		{Name: "name", Label: "Name", Type: TypeText, Required: true, Value: f.Name},
		{Name: "email", Label: "Email", Type: TypeEmail, Required: true, Value: f.Email},
		{Name: "suggestion", Label: "Suggestion", Type: TypeTextarea, Required: true, Value: f.Suggestion},
	}}
}

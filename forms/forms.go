// Package forms binds request payloads to model fields and validates them.
//
// Every form accepts either a JSON body or a form-encoded body. Validation
// errors are reported per field, keyed by the submitted field name; answer
// formset rows use the "answers-<index>-<field>" prefix.
package forms

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// NonFieldErrors is the key used for errors not tied to a single field.
const NonFieldErrors = "__all__"

type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Errors[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Errors == nil {
		e.Errors = make(map[string]string)
	}
	if _, ok := e.Errors[field]; !ok {
		e.Errors[field] = msg
	}
}

func (e *ValidationError) merge(prefix string, other *ValidationError) {
	if other == nil {
		return
	}
	for k, v := range other.Errors {
		e.add(prefix+k, v)
	}
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// AsValidationError unwraps err into a *ValidationError when it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs the struct validation rules and converts failures to messages.
func check(v interface{}) *ValidationError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	out := &ValidationError{}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		out.add(NonFieldErrors, err.Error())
		return out
	}
	for _, fe := range fieldErrs {
		out.add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "oneof":
		return "Select a valid choice."
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}

// binder is implemented by every form so it can be filled from url.Values.
type binder interface {
	bindValues(values url.Values, errs *ValidationError)
}

// bind decodes the request body into f, JSON or form-encoded.
func bind(c *gin.Context, f binder) error {
	if c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(f); err != nil {
			return &ValidationError{Errors: map[string]string{NonFieldErrors: "Malformed JSON payload."}}
		}
		return nil
	}
	values, err := postValues(c.Request)
	if err != nil {
		return &ValidationError{Errors: map[string]string{NonFieldErrors: "Malformed form payload."}}
	}
	errs := &ValidationError{}
	f.bindValues(values, errs)
	return errs.orNil()
}

func postValues(r *http.Request) (url.Values, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), binding.MIMEMultipartPOSTForm) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

func intValue(values url.Values, key string, dst *int, errs *ValidationError) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		errs.add(key, "Enter a whole number.")
		return
	}
	*dst = n
}

func uintValue(values url.Values, key string, dst *uint, errs *ValidationError) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		errs.add(key, "Select a valid choice.")
		return
	}
	*dst = uint(n)
}

// checkbox follows HTML semantics: absent means false, "on" means true.
func checkbox(values url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(values.Get(key))) {
	case "on", "true", "1", "yes", "y":
		return true
	}
	return false
}

package render

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	configureValidator(validate)
}

func configureValidator(validate *validator.Validate) {
	validate.RegisterTagNameFunc(useFormTagNames)
}

// Report field errors by form field name instead of struct field name
func useFormTagNames(fld reflect.StructField) string {
	name, _ := parseFormTag(fld.Tag.Get("form"))
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// Tag format is `form:"name[,trim]"`
func parseFormTag(tag string) (name string, trim bool) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, opts == "trim"
}

// Form field name to message
type FieldErrors map[string]string

// BindForm decodes url-encoded request form into struct T and validates it using struct tags.
// Only string and bool fields with `form` tag are decoded. Field errors are nil if form is valid.
func BindForm[T any](r *http.Request) (T, FieldErrors) {
	var value T

	// Malformed body is the same as empty form: required fields fail
	_ = r.ParseForm()

	v := reflect.ValueOf(&value).Elem()
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		name, trim := parseFormTag(field.Tag.Get("form"))
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}

		raw := r.PostForm.Get(name)
		switch field.Type.Kind() {
		case reflect.String:
			if trim {
				raw = strings.TrimSpace(raw)
			}
			v.Field(i).SetString(raw)
		case reflect.Bool:
			v.Field(i).SetBool(isChecked(raw))
		}
	}

	err := validate.Struct(value)
	if err == nil {
		return value, nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return value, FieldErrors{"": err.Error()}
	}

	fields := make(FieldErrors, len(errs))
	for _, fieldError := range errs {
		// Keep the first failed rule only
		if _, ok := fields[fieldError.Field()]; ok {
			continue
		}
		fields[fieldError.Field()] = message(t, fieldError)
	}

	return value, fields
}

// Checkbox sends its value only if checked
func isChecked(raw string) bool {
	switch strings.ToLower(raw) {
	case "", "0", "false", "off":
		return false
	default:
		return true
	}
}

func message(t reflect.Type, fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fieldError.Param())
	case "eqfield":
		other := fieldError.Param()
		if f, ok := t.FieldByName(other); ok {
			other, _ = parseFormTag(f.Tag.Get("form"))
		}
		return fmt.Sprintf("Field must be equal to %s.", other)
	default:
		return "Invalid value."
	}
}

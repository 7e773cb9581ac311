// Package validation wraps go-playground/validator with English messages,
// JSON field names and the time-of-day and weekday rules used by lessons.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"schedule-go/internal/models"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator
)

// custom validation tags
const (
	notBlankTag  = "notblank"
	timeOfDayTag = "timeofday"
	weekdayTag   = "weekday"
	// EndAfterStartTag is reported by struct level validators on end_time.
	EndAfterStartTag = "end_after_start"
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = Validate.RegisterValidation(timeOfDayTag, timeOfDayValidation)
	_ = Validate.RegisterValidation(weekdayTag, weekdayValidation)

	RegisterCustomTranslation(notBlankTag, "{0} cannot be blank", true)
	RegisterCustomTranslation(timeOfDayTag, "{0} must be a time of day in HH:MM format")
	RegisterCustomTranslation(weekdayTag, "{0} must be one of "+weekdayList())
	RegisterCustomTranslation(EndAfterStartTag, "{0} must be later than start_time")
}

// RegisterCustomTranslation registers the English message for tag. {0} is
// replaced with the field name.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func weekdayList() string {
	days := make([]string, 0, len(models.Weekdays))
	for _, d := range models.Weekdays {
		days = append(days, string(d))
	}
	return strings.Join(days, ", ")
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func timeOfDayValidation(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		_, err := models.ParseTimeOfDay(s)
		return err == nil
	}
	return false
}

func weekdayValidation(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		_, err := models.ParseWeekday(s)
		return err == nil
	}
	return false
}

// Error carries field level messages keyed by JSON path, e.g.
// "lessons[1].day".
type Error struct {
	Fields map[string][]string
}

// NewError returns an Error with a single message for field.
func NewError(field, message string) *Error {
	e := &Error{Fields: map[string][]string{}}
	e.Add(field, message)
	return e
}

// Add appends message to field.
func (e *Error) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Struct validates v and converts validator errors into *Error.
func Struct(v interface{}) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: map[string][]string{}}
	for _, fe := range verrs {
		out.Add(fieldPath(fe.Namespace()), fe.Translate(Translator))
	}
	return out
}

// fieldPath drops the leading struct type name from a namespace:
// "ScheduleInput.lessons[0].day" -> "lessons[0].day".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

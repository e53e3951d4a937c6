package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newValidator builds the request validator. Field names in messages are
// the JSON names the client sent.
func newValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Non-blank after trimming
	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	validate.RegisterStructValidation(questionStructLevel, QuestionRequest{})

	return validate
}

// questionStructLevel checks that options are distinct and that the
// correct answer is one of them
func questionStructLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(QuestionRequest)

	seen := make(map[string]bool, len(req.Options))
	for _, opt := range req.Options {
		key := strings.TrimSpace(opt)
		if seen[key] {
			sl.ReportError(req.Options, "options", "Options", "unique", "")
			return
		}
		seen[key] = true
	}

	if req.CorrectAnswer != "" && !seen[strings.TrimSpace(req.CorrectAnswer)] {
		sl.ReportError(req.CorrectAnswer, "correct_answer", "CorrectAnswer", "oneofoptions", "")
	}
}

// validationMessage renders the first validation failure as a sentence
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "Invalid request"
	}

	fe := errs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must %s", field, bound("at least", fe))
	case "max":
		return fmt.Sprintf("%s must %s", field, bound("at most", fe))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "unique":
		return fmt.Sprintf("%s must be distinct", field)
	case "oneofoptions":
		return fmt.Sprintf("%s must be one of the options", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func bound(qualifier string, fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.String:
		return fmt.Sprintf("be %s %s characters", qualifier, fe.Param())
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("have %s %s entries", qualifier, fe.Param())
	default:
		return fmt.Sprintf("be %s %s", qualifier, fe.Param())
	}
}

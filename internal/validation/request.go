package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/grid-nexus/nexus-api/internal/models"
)

var validate = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()

	// report json field names rather than Go names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("vote", func(fl validator.FieldLevel) bool {
		d := models.VoteDirection(fl.Field().String())
		return d == models.VoteUp || d == models.VoteDown
	})
	v.RegisterValidation("reaction", func(fl validator.FieldLevel) bool {
		return models.ValidReactions[models.ReactionType(fl.Field().String())]
	})

	return v
}

// Struct validates a request body against its validate tags and returns a
// single readable error for the first failing field
func Struct(i interface{}) error {
	err := validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errors.New(FormatValidationError(verrs))
	}
	return err
}

// FormatValidationError renders the first field error of errs
func FormatValidationError(errs validator.ValidationErrors) string {
	msgMap := map[string]string{
		"required": "is required",
		"max":      "must be at most %v characters",
		"uuid4":    "must be a valid UUID",
		"vote":     "must be one of: up, down",
		"reaction": "must be one of: like, love, laugh, angry, sad, surprise",
	}

	first := errs[0]

	msg, ok := msgMap[first.Tag()]
	if !ok {
		msg = "is invalid"
	}
	if first.Param() != "" && strings.Contains(msg, "%v") {
		msg = fmt.Sprintf(msg, first.Param())
	}

	return first.Field() + " " + msg
}

package formula

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// fieldRules mirrors the Draft struct tags for single-value checks on blur.
var fieldRules = map[Field]string{
	FieldTitle:   "required,max=255",
	FieldContent: "required",
}

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateDraft checks the full create shape.
func ValidateDraft(d Draft) error {
	return structErrors(validate.Struct(d))
}

// ValidatePatch checks a partial update. Absent fields are skipped; present
// fields follow the same rules as ValidateDraft.
func ValidatePatch(p Patch) error {
	return structErrors(validate.Struct(p))
}

// ValidateField returns the first violated rule for a single field value, or
// an empty string when the value is acceptable.
func ValidateField(field Field, value string) string {
	rule, ok := fieldRules[field]
	if !ok {
		return ""
	}
	err := validate.Var(value, rule)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return message(field, verrs[0].Tag())
	}
	return message(field, "")
}

func structErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("formula: validate: %w", err)
	}
	out := &ValidationError{Fields: make(map[Field]string, len(verrs))}
	for _, fe := range verrs {
		field, ok := ParseField(fe.Field())
		if !ok {
			continue
		}
		if _, seen := out.Fields[field]; seen {
			continue
		}
		out.Fields[field] = message(field, fe.Tag())
	}
	return out
}

func message(field Field, tag string) string {
	switch field {
	case FieldTitle:
		if tag == "max" {
			return fmt.Sprintf("Title must be at most %d characters", MaxTitleLength)
		}
		return "Title is required"
	case FieldContent:
		return "Content is required"
	}
	return fmt.Sprintf("%s is invalid", field)
}

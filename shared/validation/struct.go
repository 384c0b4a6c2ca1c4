package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/itchan-dev/emojiprofile/shared/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// "mood" accepts only the enumerated emoji
	_ = v.RegisterValidation("mood", func(fl validator.FieldLevel) bool {
		return domain.Mood(fl.Field().String()).Valid()
	})
	return v
}

// Struct validates a request DTO against its `validate` tags.
func Struct(s any) error {
	return validate.Struct(s)
}

package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/studytrack/studytrack/core"
	"github.com/studytrack/studytrack/core/account"
	"github.com/studytrack/studytrack/core/student"
)

// NewValidator returns a validator knowing every app payload, with English messages.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	account.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	return validate, translator
}

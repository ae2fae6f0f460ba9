package account

import (
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/studytrack/studytrack/core"
)

var (
	// password policy
	PasswordMinLen = 6
	pwdMinLenTag   = "pwdminlen"
	pwdMinLenText  = "password must be at least 6 characters long"

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password is too similar to your username or email"

	pwdMatchTag  = "pwdmatch"
	pwdMatchText = "passwords do not match"
)

// InitValidators registers the account validations and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(accountStructValidation, SignUp{}, ResetPassword{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, translator, pwdMatchTag, pwdMatchText)
}

func (su *SignUp) Validate(validate *validator.Validate) error {
	su.Username = core.CleanString(su.Username)
	su.Email = core.CleanString(su.Email, true /* lower */)
	return validate.Struct(su)
}

func (si *SignIn) Validate(validate *validator.Validate) error {
	si.Identifier = core.CleanString(si.Identifier)
	return validate.Struct(si)
}

func (fp *ForgotPassword) Validate(validate *validator.Validate) error {
	fp.Email = core.CleanString(fp.Email, true /* lower */)
	return validate.Struct(fp)
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error {
	rp.Code = core.CleanString(rp.Code)
	return validate.Struct(rp)
}

func (ec *EmailConfirmation) Validate(validate *validator.Validate) error {
	ec.Confirmation = core.CleanString(ec.Confirmation)
	return validate.Struct(ec)
}

func (sc *SendEmailConfirmation) Validate(validate *validator.Validate) error {
	sc.Email = core.CleanString(sc.Email, true /* lower */)
	return validate.Struct(sc)
}

// accountStructValidation does struct level validation on SignUp and ResetPassword structs.
func accountStructValidation(sl validator.StructLevel) {
	switch data := sl.Current().Interface().(type) {
	case SignUp:
		if data.Password == "" {
			return
		}
		if !validatePassword(data.Password, "password", "Password", sl, data.Username, data.Email) {
			return
		}
		if data.ConfirmPassword != "" && data.ConfirmPassword != data.Password {
			sl.ReportError(data.ConfirmPassword, "confirmPassword", "ConfirmPassword", pwdMatchTag, "")
		}
	case ResetPassword:
		if data.Password == "" {
			return
		}
		if !validatePassword(data.Password, "password", "Password", sl) {
			return
		}
		if data.PasswordConfirmation != "" && data.PasswordConfirmation != data.Password {
			sl.ReportError(data.PasswordConfirmation, "passwordConfirmation", "PasswordConfirmation", pwdMatchTag, "")
		}
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 6
// - no whitespace
// - no all numeric
// - no user attrs similarity
func validatePassword(pwd, field, structField string, sl validator.StructLevel, attrs ...string) bool {
	reportErr := func(tag string) bool {
		sl.ReportError(pwd, field, structField, tag, "")
		return false
	}

	runes := []rune(pwd)
	if len(runes) < PasswordMinLen {
		return reportErr(pwdMinLenTag)
	}

	var digitCount int
	for _, char := range runes {
		if unicode.IsSpace(char) {
			return reportErr(pwdNoSpaceTag)
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len(runes) {
		return reportErr(pwdNotAllNumTag)
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		attr = strings.ToLower(attr)
		if at := strings.IndexByte(attr, '@'); at > 0 {
			attr = attr[:at]
		}
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(attr, "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return reportErr(pwdAttrSimTag)
		}
	}
	return true
}

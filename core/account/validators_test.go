package account

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/studytrack/core"
)

func newValidator() *validator.Validate {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	return validate
}

func fieldTags(t *testing.T, err error) map[string]string {
	t.Helper()
	if err == nil {
		return nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok, "unexpected error type %T", err)
	tags := make(map[string]string, len(vErrs))
	for _, vErr := range vErrs {
		tags[vErr.Field()] = vErr.Tag()
	}
	return tags
}

func TestSignUp_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name     string
		data     SignUp
		wantTags map[string]string
	}{
		{
			name: "all fields required",
			data: SignUp{},
			wantTags: map[string]string{
				"username": "required", "email": "required", "password": "required", "confirmPassword": "required",
			},
		},
		{
			name:     "invalid email",
			data:     SignUp{Username: "asha", Email: "asha", Password: "s3cret!x", ConfirmPassword: "s3cret!x"},
			wantTags: map[string]string{"email": "email"},
		},
		{
			name:     "passwords do not match",
			data:     SignUp{Username: "asha", Email: "asha@test.in", Password: "s3cret!x", ConfirmPassword: "s3cret!y"},
			wantTags: map[string]string{"confirmPassword": pwdMatchTag},
		},
		{
			name:     "password too short",
			data:     SignUp{Username: "asha", Email: "asha@test.in", Password: "ab1", ConfirmPassword: "ab1"},
			wantTags: map[string]string{"password": pwdMinLenTag},
		},
		{
			name:     "password with whitespace",
			data:     SignUp{Username: "asha", Email: "asha@test.in", Password: "abc 1234", ConfirmPassword: "abc 1234"},
			wantTags: map[string]string{"password": pwdNoSpaceTag},
		},
		{
			name:     "password all numeric",
			data:     SignUp{Username: "asha", Email: "asha@test.in", Password: "12345678", ConfirmPassword: "12345678"},
			wantTags: map[string]string{"password": pwdNotAllNumTag},
		},
		{
			name:     "password similar to username",
			data:     SignUp{Username: "kavitha", Email: "k@test.in", Password: "kavitha1", ConfirmPassword: "kavitha1"},
			wantTags: map[string]string{"password": pwdAttrSimTag},
		},
		{
			name: "valid",
			data: SignUp{Username: " asha ", Email: " Asha@Test.IN ", Password: "s3cret!x", ConfirmPassword: "s3cret!x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			err := data.Validate(validate)
			assert.Equal(t, tt.wantTags, fieldTags(t, err))
		})
	}

	t.Run("cleans fields", func(t *testing.T) {
		data := SignUp{Username: " asha ", Email: " Asha@Test.IN ", Password: "s3cret!x", ConfirmPassword: "s3cret!x"}
		require.NoError(t, data.Validate(validate))
		assert.Equal(t, "asha", data.Username)
		assert.Equal(t, "asha@test.in", data.Email)
	})
}

func TestResetPassword_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name     string
		data     ResetPassword
		wantTags map[string]string
	}{
		{
			name:     "all fields required",
			data:     ResetPassword{},
			wantTags: map[string]string{"code": "required", "password": "required", "passwordConfirmation": "required"},
		},
		{
			name:     "mismatch",
			data:     ResetPassword{Code: "abc", Password: "n3wpass!", PasswordConfirmation: "n3wpass?"},
			wantTags: map[string]string{"passwordConfirmation": pwdMatchTag},
		},
		{name: "valid", data: ResetPassword{Code: "abc", Password: "n3wpass!", PasswordConfirmation: "n3wpass!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			assert.Equal(t, tt.wantTags, fieldTags(t, data.Validate(validate)))
		})
	}
}

func TestSignIn_Validate(t *testing.T) {
	validate := newValidator()

	data := SignIn{}
	assert.Equal(t, map[string]string{"identifier": "required", "password": "required"}, fieldTags(t, data.Validate(validate)))

	data = SignIn{Identifier: " asha ", Password: "whatever"}
	require.NoError(t, data.Validate(validate))
	assert.Equal(t, "asha", data.Identifier)
}

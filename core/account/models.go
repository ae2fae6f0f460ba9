package account

import (
	"time"

	"github.com/studytrack/studytrack/core"
)

// User is a CMS users-permissions account.
type User struct {
	ID         int       `json:"id"`
	DocumentID string    `json:"documentId,omitempty"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Provider   string    `json:"provider,omitempty"`
	Confirmed  bool      `json:"confirmed"`
	Blocked    bool      `json:"blocked"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u User) Principal() core.Principal {
	return core.Principal{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Session is what the CMS hands back on a successful sign-up, sign-in or password reset.
type Session struct {
	JWT  string `json:"jwt"`
	User User   `json:"user"`
}

type (
	SignUp struct {
		Username        string `json:"username" validate:"required,min=3,max=50,alphanum_"`
		Email           string `json:"email" validate:"required,email"`
		Password        string `json:"password" validate:"required"`
		ConfirmPassword string `json:"confirmPassword" validate:"required"`
	}

	SignIn struct {
		Identifier string `json:"identifier" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}

	ForgotPassword struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPassword struct {
		Code                 string `json:"code" validate:"required"`
		Password             string `json:"password" validate:"required"`
		PasswordConfirmation string `json:"passwordConfirmation" validate:"required"`
	}

	EmailConfirmation struct {
		Confirmation string `json:"confirmation" validate:"required"`
	}

	SendEmailConfirmation struct {
		Email string `json:"email" validate:"required,email"`
	}

	// Registration is the payload sent to the CMS register endpoint.
	Registration struct {
		Username                     string `json:"username"`
		Email                        string `json:"email"`
		Password                     string `json:"password"`
		EmailConfirmationRedirection string `json:"email_confirmation_redirection,omitempty"`
	}
)

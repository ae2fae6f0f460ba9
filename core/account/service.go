package account

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/core"
)

const (
	msgEmailTaken      = "This email is already registered. Please use a different email or try signing in."
	msgUsernameTaken   = "This username is already taken. Please choose a different username."
	msgCMSUnavailable  = "Backend service is temporarily unavailable. Please try again later."
	emailConfirmedPath = "/auth/email-confirmation"
)

// Gateway is the CMS users-permissions API.
type Gateway interface {
	Register(ctx context.Context, reg Registration) (Session, error)
	Login(ctx context.Context, identifier, password string) (Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, code, password, confirmation string) (Session, error)
	ConfirmEmail(ctx context.Context, confirmation string) error
	SendEmailConfirmation(ctx context.Context, email string) error
	Me(ctx context.Context) (User, error)
}

type Service struct {
	gw   Gateway
	conf *core.Config
}

func NewService(gw Gateway, conf *core.Config) *Service {
	return &Service{gw: gw, conf: conf}
}

func (svc *Service) checkConfigured() error {
	if !svc.conf.CMSConfigured() {
		return core.ErrCMSNotConfigured
	}
	return nil
}

func (svc *Service) SignUp(ctx context.Context, su SignUp) (Session, error) {
	if err := svc.checkConfigured(); err != nil {
		return Session{}, err
	}
	sess, err := svc.gw.Register(ctx, Registration{
		Username:                     su.Username,
		Email:                        su.Email,
		Password:                     su.Password,
		EmailConfirmationRedirection: svc.conf.FrontendBaseURL + emailConfirmedPath,
	})
	if err != nil {
		return Session{}, errors.Wrap(signUpError(err), "registering user")
	}
	return sess, nil
}

// signUpError turns the CMS registration errors into messages a person can act on.
func signUpError(err error) error {
	cmsErr, ok := core.AsCMSError(err)
	if !ok || cmsErr.IsNetwork() {
		return err
	}
	msg := strings.ToLower(cmsErr.Message)
	switch {
	case cmsErr.Status == http.StatusBadRequest && strings.Contains(msg, "email"):
		return &core.CMSError{Status: cmsErr.Status, Name: cmsErr.Name, Message: msgEmailTaken, Details: cmsErr.Details}
	case cmsErr.Status == http.StatusBadRequest && strings.Contains(msg, "username"):
		return &core.CMSError{Status: cmsErr.Status, Name: cmsErr.Name, Message: msgUsernameTaken, Details: cmsErr.Details}
	case cmsErr.Status >= http.StatusInternalServerError:
		return &core.CMSError{Status: cmsErr.Status, Name: cmsErr.Name, Message: msgCMSUnavailable}
	}
	return err
}

func (svc *Service) SignIn(ctx context.Context, si SignIn) (Session, error) {
	if err := svc.checkConfigured(); err != nil {
		return Session{}, err
	}
	sess, err := svc.gw.Login(ctx, si.Identifier, si.Password)
	return sess, errors.Wrap(err, "logging in")
}

func (svc *Service) ForgotPassword(ctx context.Context, fp ForgotPassword) error {
	if err := svc.checkConfigured(); err != nil {
		return err
	}
	return errors.Wrap(svc.gw.ForgotPassword(ctx, fp.Email), "requesting password reset")
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) (Session, error) {
	if err := svc.checkConfigured(); err != nil {
		return Session{}, err
	}
	sess, err := svc.gw.ResetPassword(ctx, rp.Code, rp.Password, rp.PasswordConfirmation)
	return sess, errors.Wrap(err, "resetting password")
}

func (svc *Service) ConfirmEmail(ctx context.Context, ec EmailConfirmation) error {
	if err := svc.checkConfigured(); err != nil {
		return err
	}
	return errors.Wrap(svc.gw.ConfirmEmail(ctx, ec.Confirmation), "confirming email")
}

func (svc *Service) SendEmailConfirmation(ctx context.Context, sc SendEmailConfirmation) error {
	if err := svc.checkConfigured(); err != nil {
		return err
	}
	return errors.Wrap(svc.gw.SendEmailConfirmation(ctx, sc.Email), "sending email confirmation")
}

// Me returns the account the context's session token belongs to.
func (svc *Service) Me(ctx context.Context) (User, error) {
	if _, ok := core.AuthToken(ctx); !ok {
		return User{}, core.ErrNoAuthToken
	}
	usr, err := svc.gw.Me(ctx)
	return usr, errors.Wrap(err, "fetching current user")
}

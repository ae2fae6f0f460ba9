package strapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/studytrack/studytrack/core/account"
)

// AccountGateway is the users-permissions plugin API.
type AccountGateway struct {
	c *Client
}

var _ account.Gateway = (*AccountGateway)(nil)

func NewAccountGateway(c *Client) *AccountGateway {
	return &AccountGateway{c: c}
}

type ctxKey int

const anonymousKey ctxKey = iota

// anonymous marks ctx so requests carry no token: auth endpoints must not run with the API
// token or a stale session.
func anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey, true)
}

func isAnonymous(ctx context.Context) bool {
	anon, _ := ctx.Value(anonymousKey).(bool)
	return anon
}

func (gw *AccountGateway) Register(ctx context.Context, reg account.Registration) (account.Session, error) {
	var sess account.Session
	err := gw.c.getJSON(anonymous(ctx), http.MethodPost, "/auth/local/register", nil, reg, &sess)
	return sess, err
}

func (gw *AccountGateway) Login(ctx context.Context, identifier, password string) (account.Session, error) {
	var sess account.Session
	body := map[string]string{"identifier": identifier, "password": password}
	err := gw.c.getJSON(anonymous(ctx), http.MethodPost, "/auth/local", nil, body, &sess)
	return sess, err
}

func (gw *AccountGateway) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return gw.c.getJSON(anonymous(ctx), http.MethodPost, "/auth/forgot-password", nil, body, nil)
}

func (gw *AccountGateway) ResetPassword(ctx context.Context, code, password, confirmation string) (account.Session, error) {
	var sess account.Session
	body := map[string]string{"code": code, "password": password, "passwordConfirmation": confirmation}
	err := gw.c.getJSON(anonymous(ctx), http.MethodPost, "/auth/reset-password", nil, body, &sess)
	return sess, err
}

// ConfirmEmail succeeds when the CMS redirects to the confirmation page.
func (gw *AccountGateway) ConfirmEmail(ctx context.Context, confirmation string) error {
	params := url.Values{"confirmation": {confirmation}}
	_, err := gw.c.do(anonymous(ctx), http.MethodGet, "/auth/email-confirmation", params, nil)
	return err
}

func (gw *AccountGateway) SendEmailConfirmation(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return gw.c.getJSON(anonymous(ctx), http.MethodPost, "/auth/send-email-confirmation", nil, body, nil)
}

func (gw *AccountGateway) Me(ctx context.Context) (account.User, error) {
	var usr account.User
	err := gw.c.getJSON(ctx, http.MethodGet, "/users/me", nil, nil, &usr)
	return usr, err
}

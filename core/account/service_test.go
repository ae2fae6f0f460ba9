package account

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/studytrack/core"
)

type gatewayStub struct {
	Gateway
	registered Registration
	err        error
}

func (gw *gatewayStub) Register(_ context.Context, reg Registration) (Session, error) {
	gw.registered = reg
	if gw.err != nil {
		return Session{}, gw.err
	}
	return Session{JWT: "token", User: User{ID: 1, Username: reg.Username, Email: reg.Email}}, nil
}

func (gw *gatewayStub) Me(context.Context) (User, error) {
	return User{ID: 1, Username: "asha"}, gw.err
}

func TestService_SignUp(t *testing.T) {
	conf := core.NewTestConfig()
	conf.CMS.URL = "http://cms.test"
	data := SignUp{Username: "asha", Email: "asha@test.in", Password: "s3cret!x", ConfirmPassword: "s3cret!x"}

	t.Run("registers with confirmation redirect", func(t *testing.T) {
		gw := new(gatewayStub)
		sess, err := NewService(gw, conf).SignUp(context.Background(), data)
		require.NoError(t, err)
		assert.Equal(t, "token", sess.JWT)
		assert.Equal(t, "http://localhost:3000/auth/email-confirmation", gw.registered.EmailConfirmationRedirection)
	})

	t.Run("CMS not configured", func(t *testing.T) {
		unconfigured := *conf
		unconfigured.CMS.URL = ""
		_, err := NewService(new(gatewayStub), &unconfigured).SignUp(context.Background(), data)
		assert.Equal(t, core.ErrCMSNotConfigured, errors.Cause(err))
	})

	tests := []struct {
		name    string
		cmsErr  *core.CMSError
		wantMsg string
	}{
		{
			name:    "email taken",
			cmsErr:  &core.CMSError{Status: http.StatusBadRequest, Name: "ApplicationError", Message: "Email or Username are already taken"},
			wantMsg: msgEmailTaken,
		},
		{
			name:    "username taken",
			cmsErr:  &core.CMSError{Status: http.StatusBadRequest, Name: "ApplicationError", Message: "Username already taken"},
			wantMsg: msgUsernameTaken,
		},
		{
			name:    "CMS down",
			cmsErr:  &core.CMSError{Status: http.StatusBadGateway, Name: "StrapiError", Message: "Bad Gateway"},
			wantMsg: msgCMSUnavailable,
		},
		{
			name:    "other errors untouched",
			cmsErr:  &core.CMSError{Status: http.StatusBadRequest, Name: "ValidationError", Message: "password is invalid"},
			wantMsg: "password is invalid",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &gatewayStub{err: tt.cmsErr}
			_, err := NewService(gw, conf).SignUp(context.Background(), data)
			cmsErr, ok := core.AsCMSError(err)
			require.True(t, ok)
			assert.Equal(t, tt.cmsErr.Status, cmsErr.Status)
			assert.Equal(t, tt.wantMsg, cmsErr.Message)
		})
	}
}

func TestService_Me(t *testing.T) {
	svc := NewService(new(gatewayStub), core.NewTestConfig())

	_, err := svc.Me(context.Background())
	assert.Equal(t, core.ErrNoAuthToken, err)

	usr, err := svc.Me(core.WithAuthToken(context.Background(), "token"))
	require.NoError(t, err)
	assert.Equal(t, "asha", usr.Username)
}

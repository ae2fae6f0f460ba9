package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/core"
	"github.com/studytrack/studytrack/core/account"
	"github.com/studytrack/studytrack/core/onboarding"
)

type accountApi struct {
	svc      *account.Service
	resolver *onboarding.Resolver
	conf     *core.Config
	logger   core.Logger
	validate *validator.Validate
}

func registerAccountAPI(g *echo.Group, required, optional echo.MiddlewareFunc, deps ServerDeps) {
	api := accountApi{
		svc:      deps.AccountSvc,
		resolver: deps.Resolver,
		conf:     deps.Conf,
		logger:   deps.Logger,
		validate: deps.Validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/sign-in` & `/forgot-password`
	ag.POST("/sign-up", api.signUp)
	ag.POST("/sign-in", api.signIn)
	ag.POST("/sign-out", api.signOut, optional)
	ag.POST("/forgot-password", api.forgotPassword)
	ag.POST("/reset-password", api.resetPassword)
	ag.POST("/email-confirmation", api.confirmEmail)
	ag.POST("/send-email-confirmation", api.sendEmailConfirmation)
	ag.GET("/navigate", api.navigate, optional)

	// authed endpoints
	ag.GET("/me", api.me, required)
	ag.GET("/resolution", api.resolution, required)
	ag.POST("/resolution/refresh", api.refreshResolution, required)
}

// Handlers

func (api *accountApi) signUp(ctx echo.Context) error {
	var data account.SignUp
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignUp")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.SignUp(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	setSessionCookie(ctx, api.conf, sess.JWT)
	return ctx.JSON(http.StatusCreated, UserResponse{User: sess.User})
}

func (api *accountApi) signIn(ctx echo.Context) error {
	var data account.SignIn
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignIn")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.SignIn(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing in")
	}
	setSessionCookie(ctx, api.conf, sess.JWT)
	return ctx.JSON(http.StatusOK, UserResponse{User: sess.User})
}

func (api *accountApi) signOut(ctx echo.Context) error {
	if userID, err := contextUserID(ctx); err == nil {
		api.resolver.Clear(userID)
	}
	clearSessionCookie(ctx, api.conf)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountApi) forgotPassword(ctx echo.Context) error {
	var data account.ForgotPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ForgotPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ForgotPassword(ctx.Request().Context(), data); err != nil {
		// do not tell attackers which emails have an account
		cmsErr, ok := core.AsCMSError(err)
		if !ok || cmsErr.IsNetwork() || cmsErr.Status >= http.StatusInternalServerError {
			return errors.Wrap(err, "requesting password reset")
		}
		api.logger.Warn("requesting password reset", err)
	}
	return ctx.JSON(http.StatusOK, MessageResponse{
		Message: "If an account exists for this email, you will receive a link to reset your password shortly.",
	})
}

func (api *accountApi) resetPassword(ctx echo.Context) error {
	var data account.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.ResetPassword(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "resetting password")
	}
	setSessionCookie(ctx, api.conf, sess.JWT)
	return ctx.JSON(http.StatusOK, UserResponse{User: sess.User})
}

func (api *accountApi) confirmEmail(ctx echo.Context) error {
	var data account.EmailConfirmation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailConfirmation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ConfirmEmail(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "confirming email")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Your email has been confirmed. You can now sign in."})
}

func (api *accountApi) sendEmailConfirmation(ctx echo.Context) error {
	var data account.SendEmailConfirmation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendEmailConfirmation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.SendEmailConfirmation(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "sending email confirmation")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "A new confirmation email has been sent."})
}

func (api *accountApi) me(ctx echo.Context) error {
	usr, err := api.svc.Me(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting current user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *accountApi) resolution(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	res, err := api.resolver.Resolve(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "resolving onboarding state")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *accountApi) refreshResolution(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	api.resolver.Clear(userID)
	return api.resolution(ctx)
}

func (api *accountApi) navigate(ctx echo.Context) error {
	path := core.CleanString(ctx.QueryParam("path"))
	if path == "" {
		path = "/"
	}

	userID, err := contextUserID(ctx)
	if err != nil {
		return ctx.JSON(http.StatusOK, RedirectResponse{Redirect: onboarding.Guard(path, false)})
	}
	redirect, err := api.resolver.Navigate(ctx.Request().Context(), path, userID)
	if err != nil {
		return errors.Wrap(err, "navigating")
	}
	return ctx.JSON(http.StatusOK, RedirectResponse{Redirect: redirect})
}

type (
	UserResponse struct {
		User account.User `json:"user"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	RedirectResponse struct {
		Redirect string `json:"redirect"`
	}

	SuccessResponse struct {
		Success bool `json:"success"`
	}
)

package echoapi

import (
	"github.com/labstack/echo/v4"
)

// cookieToHeader lets browsers authenticate with the session cookie: its token is used
// as the bearer token when no Authorization header is sent.
func cookieToHeader(cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			if req.Header.Get(echo.HeaderAuthorization) == "" {
				if cookie, err := req.Cookie(cookieName); err == nil && cookie.Value != "" {
					req.Header.Set(echo.HeaderAuthorization, authScheme+" "+cookie.Value)
				}
			}
			return next(ctx)
		}
	}
}

// sessionMiddleware hands the verified session token to the request context, where the
// CMS client picks it up.
func sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, _, ok := getContextToken(ctx)
		if !ok {
			return errUnauthorized
		}
		setRequestToken(ctx, token.Raw)
		return next(ctx)
	}
}

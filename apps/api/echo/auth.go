package echoapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/core"
)

const (
	ctxTokenKey = "userToken"
	authScheme  = "Bearer"
)

// Claims are the CMS session token claims.
type Claims struct {
	jwt.StandardClaims
	ID int `json:"id"`
}

// NewClaims returns the claims of a session token of userID, valid for lifetime.
func NewClaims(userID int, lifetime time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(lifetime).Unix(),
		},
		ID: userID,
	}
}

// GenerateToken generates a signed JWT token string representing the session Claims.
func GenerateToken(claims *Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// authenticator checks session tokens. With a secret, tokens are verified locally;
// without one, they are only decoded and the CMS rejects forged ones.
type authenticator struct {
	secret string
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{secret: conf.CMS.JWTSecret}
}

func (a *authenticator) parse(raw string) (*jwt.Token, error) {
	claims := new(Claims)
	if a.secret == "" {
		token, _, err := new(jwt.Parser).ParseUnverified(raw, claims)
		if err != nil {
			return nil, err
		}
		if err := claims.Valid(); err != nil {
			return nil, err
		}
		return token, nil
	}
	return jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, fmt.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return []byte(a.secret), nil
	})
}

// required rejects requests without a valid session token.
func (a *authenticator) required() echo.MiddlewareFunc {
	var check echo.MiddlewareFunc
	if a.secret != "" {
		check = middleware.JWTWithConfig(middleware.JWTConfig{
			SigningKey:    []byte(a.secret),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    ctxTokenKey,
			Claims:        new(Claims),
		})
	} else {
		check = a.unverified
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return check(sessionMiddleware(next))
	}
}

func (a *authenticator) unverified(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		raw, ok := bearerToken(ctx)
		if !ok {
			return middleware.ErrJWTMissing
		}
		token, err := a.parse(raw)
		if err != nil {
			return &echo.HTTPError{Code: http.StatusUnauthorized, Message: "invalid or expired jwt", Internal: err}
		}
		ctx.Set(ctxTokenKey, token)
		return next(ctx)
	}
}

// optional attaches the session when a valid token is sent and lets anonymous requests through.
func (a *authenticator) optional() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if raw, ok := bearerToken(ctx); ok {
				if token, err := a.parse(raw); err == nil {
					ctx.Set(ctxTokenKey, token)
					setRequestToken(ctx, token.Raw)
				}
			}
			return next(ctx)
		}
	}
}

func bearerToken(ctx echo.Context) (string, bool) {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > len(authScheme)+1 && strings.EqualFold(header[:len(authScheme)], authScheme) {
		return strings.TrimSpace(header[len(authScheme)+1:]), true
	}
	return "", false
}

func setRequestToken(ctx echo.Context, raw string) {
	req := ctx.Request()
	ctx.SetRequest(req.WithContext(core.WithAuthToken(req.Context(), raw)))
}

func getContextToken(ctx echo.Context) (*jwt.Token, *Claims, bool) {
	if token, ok := ctx.Get(ctxTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok && claims.ID > 0 {
			return token, claims, true
		}
	}
	return nil, nil, false
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if _, claims, ok := getContextToken(ctx); ok {
		return *claims, nil
	}
	return Claims{}, errUnauthorized
}

// contextUserID returns the id of the session user.
func contextUserID(ctx echo.Context) (int, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return 0, err
	}
	return claims.ID, nil
}

// session cookie

func setSessionCookie(ctx echo.Context, conf *core.Config, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     conf.Session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(conf.Session.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   !conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(ctx echo.Context, conf *core.Config) {
	ctx.SetCookie(&http.Cookie{
		Name:     conf.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

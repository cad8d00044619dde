package webserver

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const (
	TokenTTL       = 24 * time.Hour
	SessionName    = "gemstrack_session"
	UserContextKey = "user"
)

// JwtClaims identifies the operator behind a token
type JwtClaims struct {
	Username string `json:"username"`
	Level    string `json:"level"`
	jwt.RegisteredClaims
}

// CreateToken signs an HS256 token for the operator
func CreateToken(secret string, uid int64, username, level string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JwtClaims{
		Username: username,
		Level:    level,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(uid, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "gemstrack",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a token and returns its claims
func ParseToken(secret, token string) (*JwtClaims, error) {
	claims := new(JwtClaims)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// CurrentClaims returns the claims of the authenticated request, if any
func CurrentClaims(c echo.Context) *JwtClaims {
	token, ok := c.Get(UserContextKey).(*jwt.Token)
	if !ok {
		return nil
	}
	claims, _ := token.Claims.(*JwtClaims)
	return claims
}

func jwtMiddleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(secret),
		ContextKey:  UserContextKey,
		TokenLookup: "header:Authorization:Bearer ,query:token",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(JwtClaims)
		},
		Skipper: func(c echo.Context) bool {
			return publicPaths[c.Path()]
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		},
	})
}

// loginRateLimiter throttles login attempts per client ip
func loginRateLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		perSecond = 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() != ApiPrefix+"/auth/login"
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     5,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
		},
	})
}

func deviceMiddleware(guard DeviceGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == ApiPrefix+"/health" {
				return next(c)
			}
			id := strings.TrimSpace(c.Request().Header.Get(HeaderDevice))
			if !guard.DeviceAllowed(c.Request().Context(), id) {
				return echo.NewHTTPError(http.StatusForbidden, "device not allowed")
			}
			return next(c)
		}
	}
}

// SaveSession records the operator and device on the browser session
func SaveSession(c echo.Context, username, deviceID string) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   SessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	sess.Values["username"] = username
	sess.Values["device_id"] = deviceID
	return sess.Save(c.Request(), c.Response())
}

// ClearSession expires the browser session
func ClearSession(c echo.Context) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	sess.Options = &sessions.Options{Path: "/", MaxAge: -1}
	return sess.Save(c.Request(), c.Response())
}

// AllowAll is a DeviceGuard that admits every terminal
type AllowAll struct{}

func (AllowAll) DeviceAllowed(context.Context, string) bool { return true }

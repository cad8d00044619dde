// Package webserver hosts the admin HTTP API.
package webserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Ammar282828/gemstrack-pos-sub002/config"
)

const (
	ApiPrefix     = "/api/v1"
	AppContextKey = "appctx"
	HeaderDevice  = "X-Device-Id"
)

// DeviceGuard decides whether a terminal may call the API
type DeviceGuard interface {
	DeviceAllowed(ctx context.Context, deviceID string) bool
}

// Options carries the runtime pieces the server hands to handlers
type Options struct {
	AppContext interface{}
	Devices    DeviceGuard
	Realtime   http.Handler
}

type AdminServer struct {
	cfg  *config.AppConfig
	root *echo.Echo
	api  *echo.Group
}

var server *AdminServer

// publicPaths skip JWT validation
var publicPaths = map[string]bool{
	ApiPrefix + "/auth/login": true,
	ApiPrefix + "/health":     true,
}

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Init builds the echo instance and makes it the target of the Api* route helpers
func Init(cfg *config.AppConfig, opts Options) *AdminServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = &JSONSerializer{}
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler
	if cfg.System.Debug {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.INFO)
	}

	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, HeaderDevice},
	}))
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(cfg.Web.Secret))))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, opts.AppContext)
			return next(c)
		}
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if opts.Realtime != nil {
		e.GET("/ws", echo.WrapHandler(opts.Realtime), jwtMiddleware(cfg.Web.JwtSecret))
	}

	api := e.Group(ApiPrefix)
	if opts.Devices != nil {
		api.Use(deviceMiddleware(opts.Devices))
	}
	api.Use(loginRateLimiter(cfg.Web.LoginRate))
	api.Use(jwtMiddleware(cfg.Web.JwtSecret))

	server = &AdminServer{cfg: cfg, root: e, api: api}
	return server
}

// Echo exposes the root router
func (s *AdminServer) Echo() *echo.Echo {
	return s.root
}

// Start listens until the server is shut down
func (s *AdminServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Web.Host, s.cfg.Web.Port)
	zap.S().Infof("admin api listening on %s", addr)
	err := s.root.Start(addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *AdminServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, m...)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.PUT(path, h, m...)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.DELETE(path, h, m...)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/swagger")
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("ip", v.RemoteIP),
				zap.String("namespace", "webserver"),
			}
			if v.Error != nil {
				zap.L().Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			zap.L().Debug("request", fields...)
			return nil
		},
	})
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		msg = fmt.Sprintf("%v", he.Message)
	}
	_ = c.JSON(code, map[string]interface{}{
		"error":   strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_")),
		"message": msg,
	})
}

// SessionMaxAge is how long the browser session cookie lives
var SessionMaxAge = int((24 * time.Hour).Seconds())

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"foodapp/internal/config"
	"foodapp/internal/notify"
	"foodapp/internal/telemetry"
	"foodapp/internal/usecase"
	"foodapp/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// Deps はサーバーを組み立てる部品
type Deps struct {
	Config   config.Config
	DB       *gorm.DB
	Log      *slog.Logger
	Metrics  *telemetry.Metrics
	Registry *notify.Registry
	// nil なら Registry に直接届ける
	Notifier notify.Notifier
	Clock    usecase.Clock
	IDGen    usecase.IDGenerator
}

type Server struct {
	echo *echo.Echo
	addr string
	log  *slog.Logger
}

func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Registry == nil {
		d.Registry = notify.NewRegistry()
	}
	if d.Notifier == nil {
		d.Notifier = notify.NewLocalDispatcher(d.Registry, d.Metrics, d.Log)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	origins := []string{"*"}
	if d.Config.FEURL != "" {
		origins = []string{d.Config.FEURL}
	}

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"Idempotency-Key",
		},
		AllowCredentials: true,
	}))
	e.Use(requestLogger(d.Log))
	e.Use(tracing())
	e.Use(metrics(d.Metrics))

	registerRoutes(e, d)

	return &Server{echo: e, addr: d.Config.Addr(), log: d.Log}
}

// テストでは httptest.NewServer に渡す
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start は Shutdown されるまでブロックする
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.addr)
	err := s.echo.Start(s.addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

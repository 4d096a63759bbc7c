package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/NastyaGoryachaya/crypto-converter/internal/config"
	"github.com/NastyaGoryachaya/crypto-converter/internal/infra/coingecko"
	"github.com/NastyaGoryachaya/crypto-converter/internal/metrics"
	"github.com/NastyaGoryachaya/crypto-converter/internal/scheduler"
	"github.com/NastyaGoryachaya/crypto-converter/internal/service/converter"
	"github.com/NastyaGoryachaya/crypto-converter/internal/session"
	botpkg "github.com/NastyaGoryachaya/crypto-converter/internal/transport/bot"
	"github.com/NastyaGoryachaya/crypto-converter/internal/transport/httptransport"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	e    *echo.Echo
	serv *http.Server

	metrics *metrics.Metrics
	store   *session.Store
	sweeper *scheduler.Scheduler
	bot     *botpkg.Bot

	// контекст всех виджетов; отменяется при остановке
	widgetsCtx    context.Context
	cancelWidgets context.CancelFunc
}

func NewApp(cfg config.Config, log *slog.Logger) (*App, error) {
	app := &App{cfg: cfg, log: log}
	app.widgetsCtx, app.cancelWidgets = context.WithCancel(context.Background())
	app.metrics = metrics.New()

	client := coingecko.NewClient(cfg.CoinGecko)
	deps := converter.Deps{
		Rates:    client,
		History:  client,
		Observer: app.metrics,
		Logger:   log.With(slog.String("component", "widget")),
	}
	app.store = session.NewStore(app.widgetsCtx, deps, cfg.Widget.SessionTTL, app.metrics, log.With(slog.String("component", "sessions")))
	app.sweeper = scheduler.NewScheduler(app.store, cfg.Widget.SweepInterval, log.With(slog.String("component", "sweeper")))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = httptransport.NewRenderer()
	e.Use(middleware.Recover())
	e.Use(requestLogger(log))
	app.e = e

	wh := httptransport.NewWidgetHandler(log, app.store, cfg.Widget.Location())
	wh.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(app.metrics.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	app.serv = &http.Server{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		Handler:      e,
	}

	if cfg.Telegram.Enabled {
		// Если бот включён, отсутствие токена — ошибка конфигурации
		token := strings.TrimSpace(cfg.Telegram.Token)
		if token == "" {
			log.Error("telegram enabled but TELEGRAM_BOT_TOKEN is empty")
			return nil, errors.New("telegram token is empty")
		}

		botApp, err := botpkg.New(
			botpkg.Config{
				Token:           token,
				LongPollTimeout: cfg.Telegram.LongPollTimeout,
				ReplyTimeout:    cfg.Telegram.ReplyTimeout,
				Location:        cfg.Widget.Location(),
			},
			app.store,
			log,
		)
		if err != nil {
			log.Error("telegram init failed", slog.String("error", err.Error()))
			return nil, err
		}
		app.bot = botApp
	}
	log.Info("app initialized",
		slog.Bool("telegram_enabled", cfg.Telegram.Enabled),
		slog.String("http_addr", cfg.Server.Addr),
		slog.String("coingecko", cfg.CoinGecko.BaseURL),
	)
	return app, nil
}

// Run — сервер, очистка сессий и бот до отмены контекста или ошибки сервера
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("starting server", slog.String("addr", a.cfg.Server.Addr))
		if err := a.e.StartServer(a.serv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.sweeper.Start(gctx)
		return nil
	})

	if a.bot != nil {
		g.Go(func() error {
			a.log.Info("starting bot")
			a.bot.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var err error
	if a.e != nil {
		if err = a.e.Shutdown(shCtx); err != nil {
			a.log.Error("http shutdown error", slog.String("error", err.Error()))
		}
	}

	a.store.Close()
	a.cancelWidgets()

	a.log.Info("application stopped")
	return err
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				log.LogAttrs(c.Request().Context(), slog.LevelError, "request failed", attrs...)
				return nil
			}
			log.LogAttrs(c.Request().Context(), slog.LevelDebug, "request", attrs...)
			return nil
		},
	})
}

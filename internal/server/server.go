package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"newsdesk/internal/admin"
	"newsdesk/internal/auth"
	"newsdesk/internal/config"
	"newsdesk/internal/engine"
	"newsdesk/internal/instrument"
	"newsdesk/internal/logging"
	"newsdesk/internal/metadata"
	"newsdesk/internal/store"
)

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Config   *config.Config
	Store    *store.Store
	Registry *metadata.Registry
	Logger   logrus.FieldLogger
	// Metrics is optional; nil disables /metrics.
	Metrics *instrument.Metrics
	// Now overrides the request clock in tests.
	Now func() time.Time
}

// New assembles the fiber app: middleware, auth, schema, admin and public routes.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          engine.NewErrorHandler(d.Logger),
		DisableStartupMessage: true,
	})

	var opts []engine.HandlerOption
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
		opts = append(opts, engine.WithObserver(d.Metrics))
	}
	if d.Now != nil {
		opts = append(opts, engine.WithClock(d.Now))
	}
	app.Use(logging.Middleware(d.Logger))
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if d.Metrics != nil && d.Config.Metrics.Enabled {
		app.Get(d.Config.Metrics.Path, d.Metrics.Handler())
	}

	api := app.Group("/api")

	// Auth routes first so /api/auth/* never resolves as an entity.
	authHandler := auth.NewAuthHandler(d.Store, d.Config.JWTSecret, d.Config.Server.SessionTTL, d.Config.Server.CookieSecure)
	auth.RegisterAuthRoutes(api, authHandler)

	authMW := auth.Middleware(d.Config.JWTSecret)
	admin.RegisterSchemaRoutes(api.Group("/schema", authMW), admin.NewHandler(d.Registry), auth.RequireAdmin())

	h := engine.NewHandler(d.Store, d.Registry, opts...)
	engine.RegisterAdminRoutes(api.Group("/admin", authMW), h)
	engine.RegisterPublicRoutes(api, h)

	return app
}

// Run listens on addr until ctx is cancelled, then shuts the app down.
func Run(ctx context.Context, app *fiber.App, addr string, logger logrus.FieldLogger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return Serve(ctx, app, ln, logger)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, app *fiber.App, ln net.Listener, logger logrus.FieldLogger) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("addr", ln.Addr().String()).Info("Starting server")
		if err := app.Listener(ln); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

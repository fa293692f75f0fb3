package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/santelink/santelink/internal/config"
	"github.com/santelink/santelink/internal/domain/appointment"
	"github.com/santelink/santelink/internal/domain/consultation"
	"github.com/santelink/santelink/internal/domain/dashboard"
	"github.com/santelink/santelink/internal/domain/patient"
	"github.com/santelink/santelink/internal/platform/auth"
	"github.com/santelink/santelink/internal/platform/db"
	"github.com/santelink/santelink/internal/platform/middleware"
	"github.com/santelink/santelink/internal/platform/store"
	"github.com/santelink/santelink/internal/platform/websocket"
	"github.com/santelink/santelink/internal/platform/workflow"
)

// collections are the three record stores behind the API.
type collections struct {
	patients      store.Collection[patient.Patient]
	appointments  store.Collection[appointment.Appointment]
	consultations store.Collection[consultation.Consultation]
}

func memoryCollections() collections {
	return collections{
		patients:      store.NewMemory[patient.Patient](patient.Sequence),
		appointments:  store.NewMemory[appointment.Appointment](appointment.Sequence),
		consultations: store.NewMemory[consultation.Consultation](consultation.Sequence),
	}
}

func postgresCollections(pool *pgxpool.Pool) collections {
	return collections{
		patients:      store.NewPostgres[patient.Patient](pool, patient.Kind, patient.Sequence),
		appointments:  store.NewPostgres[appointment.Appointment](pool, appointment.Kind, appointment.Sequence),
		consultations: store.NewPostgres[consultation.Consultation](pool, consultation.Kind, consultation.Sequence),
	}
}

type services struct {
	patients      *patient.Service
	appointments  *appointment.Service
	consultations *consultation.Service
	dashboard     *dashboard.Service
}

func newServices(cfg *config.Config, cols collections, notifier workflow.Notifier, logger zerolog.Logger) services {
	policy := cfg.SavePolicy()
	p := patient.NewService(cols.patients, notifier, policy, logger)
	a := appointment.NewService(cols.appointments, notifier, policy, logger)
	c := consultation.NewService(cols.consultations, notifier, policy, logger)
	return services{
		patients:      p,
		appointments:  a,
		consultations: c,
		dashboard:     dashboard.NewService(p, a, c),
	}
}

// seed inserts the demo patients and appointments into empty collections.
func (s services) seed(ctx context.Context, logger zerolog.Logger) error {
	n, err := s.patients.Seed(ctx)
	if err != nil {
		return err
	}
	m, err := s.appointments.Seed(ctx)
	if err != nil {
		return err
	}
	logger.Info().Int("patients", n).Int("appointments", m).Msg("demo data seeded")
	return nil
}

func authConfig(cfg *config.Config) auth.JWTConfig {
	return auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		SigningKey: []byte(cfg.AuthSigningKey),
	}
}

// newServer builds the echo instance with every route mounted. pool is nil
// when records are kept in memory.
func newServer(cfg *config.Config, logger zerolog.Logger, svc services, hub *websocket.Hub, pool *pgxpool.Pool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	isHealth := func(c echo.Context) bool {
		p := c.Request().URL.Path
		return p == "/health" || p == "/health/db"
	}

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(!cfg.IsDev()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		Skip:              isHealth,
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"storage": storageName(pool),
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	api := e.Group("/api/v1")
	if cfg.IsDev() {
		api.Use(auth.DevAuthMiddleware(authConfig(cfg)))
	} else {
		api.Use(auth.JWTMiddleware(authConfig(cfg)))
	}

	patient.NewHandler(svc.patients).RegisterRoutes(api)
	appointment.NewHandler(svc.appointments).RegisterRoutes(api)
	consultation.NewHandler(svc.consultations).RegisterRoutes(api)
	dashboard.NewHandler(svc.dashboard).RegisterRoutes(api)
	websocket.NewHandler(hub, cfg.CORSOrigins).RegisterRoutes(e, api)

	return e
}

func storageName(pool *pgxpool.Pool) string {
	if pool == nil {
		return "memory"
	}
	return "postgres"
}

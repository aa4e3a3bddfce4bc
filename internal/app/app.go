package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/merch-storefront/internal/cache"
	"github.com/xenking/merch-storefront/internal/handler"
	"github.com/xenking/merch-storefront/internal/shopify"
	"github.com/xenking/merch-storefront/internal/storefront"
	"github.com/xenking/merch-storefront/pkg/health"
	"github.com/xenking/merch-storefront/pkg/httpmiddleware"
)

const serviceName = "storefront-api"

// NewShopifyClient builds the Storefront API client described by cfg. mode
// is chosen by the caller: the private token never leaves the server.
func NewShopifyClient(cfg ShopifyConfig, mode shopify.Mode, m httpmiddleware.Telemetry) (*shopify.Client, error) {
	switch {
	case mode == shopify.ModeServer && cfg.PrivateAccessToken == "":
		return nil, errors.New("server mode requires a private access token")
	case mode == shopify.ModePublic && cfg.PublicAccessToken == "":
		return nil, errors.New("public access token is required")
	}

	c := shopify.Config{
		Shop:               cfg.Shop,
		APIVersion:         cfg.APIVersion,
		PublicAccessToken:  cfg.PublicAccessToken,
		PrivateAccessToken: cfg.PrivateAccessToken,
		Mode:               mode,
		Timeout:            cfg.Timeout,
		Endpoint:           cfg.Endpoint,
	}
	if m != nil {
		c.MeterProvider = m.MeterProvider()
		c.TracerProvider = m.TracerProvider()
	}
	client, err := shopify.New(c)
	if err != nil {
		return nil, errors.Wrap(err, "create shopify client")
	}
	return client, nil
}

// Server is the wired HTTP application.
type Server struct {
	Handler http.Handler
	Health  *health.Health

	redis *redis.Client
}

// Close releases connections held by the server.
func (s *Server) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}

// NewServer creates every dependency and the HTTP handler tree: probes at
// /livez and /readyz, the storefront API under /api.
func NewServer(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) (*Server, error) {
	client, err := NewShopifyClient(cfg.Shopify, cfg.Shopify.ServerMode(), m)
	if err != nil {
		return nil, err
	}

	healthSvc := health.New()
	healthSvc.AddLivenessCheck(health.Check{
		Name:    "goroutines",
		Timeout: time.Second,
		Func:    health.GoroutineCountCheck(10000),
	})

	srv := &Server{Health: healthSvc}

	var productCache cache.ProductCache = cache.Nop{}
	if cfg.Redis.Addr != "" {
		srv.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		productCache = cache.NewRedisCache(srv.redis, cfg.Catalog.CacheTTL)
		healthSvc.AddReadinessCheck(health.Check{
			Name:     "redis",
			Timeout:  2 * time.Second,
			Func:     health.RedisPingCheck(srv.redis),
			Optional: true,
		})
		lg.Info("Product cache enabled",
			zap.String("addr", cfg.Redis.Addr),
			zap.Duration("ttl", cfg.Catalog.CacheTTL),
		)
	}

	svc := storefront.NewService(client, productCache, storefront.Config{PageSize: cfg.Catalog.PageSize})
	h := handler.NewHandler(handler.Config{
		CookieName:   cfg.Cookie.Name,
		CookieMaxAge: cfg.Cookie.MaxAge,
		CookieSecure: cfg.Cookie.Secure,
		MutationLimit: httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
	}, svc)

	root := chi.NewRouter()
	root.Use(httpmiddleware.LogRequests())
	root.Get("/livez", healthSvc.LiveEndpoint)
	root.Get("/readyz", healthSvc.ReadyEndpoint)
	root.Mount("/api", h.Routes())

	srv.Handler = httpmiddleware.Wrap(root,
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.RequestID(),
		httpmiddleware.Recovery(),
		httpmiddleware.Instrument(serviceName, m),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
	)
	return srv, nil
}

// Run starts the HTTP server and handles graceful shutdown. It is the single
// wiring point for the server binary.
func Run(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("shop", cfg.Shopify.Shop),
		zap.String("api_version", cfg.Shopify.APIVersion),
	)

	srv, err := NewServer(zctx.Base(ctx, lg), lg, m, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			lg.Warn("Close server resources", zap.Error(err))
		}
	}()

	srv.Health.Start(ctx, 10*time.Second)
	srv.Health.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.Shopify.Timeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           srv.Handler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		srv.Health.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		srv.Health.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

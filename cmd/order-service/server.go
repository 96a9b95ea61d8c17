package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	_ "github.com/MikeMC777/ordenes-admin/docs"
	"github.com/MikeMC777/ordenes-admin/internal/activity"
	"github.com/MikeMC777/ordenes-admin/internal/cache"
	"github.com/MikeMC777/ordenes-admin/internal/config"
	"github.com/MikeMC777/ordenes-admin/internal/database"
	"github.com/MikeMC777/ordenes-admin/internal/httpx"
	"github.com/MikeMC777/ordenes-admin/internal/observability"
	ord "github.com/MikeMC777/ordenes-admin/internal/order"
)

const (
	serviceName     = "order-service"
	shutdownTimeout = 10 * time.Second
)

type routes struct {
	mutator   *ord.Mutator
	activity  *activity.Service
	adminKeys []config.AdminKey
	logger    *zap.Logger
	// tracing defaults to the global provider.
	tracing trace.TracerProvider
}

// newHandler starts a server span per request before gin runs, so handlers
// and the access log see it in the request context.
func newHandler(r routes) http.Handler {
	opts := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	}
	if r.tracing != nil {
		opts = append(opts, otelhttp.WithTracerProvider(r.tracing))
	}
	return otelhttp.NewHandler(newRouter(r), serviceName, opts...)
}

func newRouter(r routes) *gin.Engine {
	g := gin.New()
	g.Use(httpx.RequestID(), httpx.Logger(r.logger), gin.Recovery())

	g.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	g.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	orders := g.Group("/orders", httpx.AdminIdentity(r.adminKeys))
	orders.GET("/:id", getOrderHandler(r.mutator))
	orders.DELETE("/:id", deleteOrderHandler(r.mutator))
	orders.PATCH("/:id/amount", adjustAmountHandler(r.mutator))
	orders.PUT("/:id/payment-status", setPaymentStatusHandler(r.mutator))
	orders.PUT("/:id/shipping", updateShippingHandler(r.mutator))
	orders.GET("/:id/related", relatedOrdersHandler(r.mutator))
	orders.GET("/:id/activity", listActivityHandler(r.activity))
	orders.POST("/:id/activity", appendActivityHandler(r.activity))
	return g
}

// logNotifier is used when no notification webhook is configured.
type logNotifier struct{ logger *zap.Logger }

func (n logNotifier) NotifyShipping(_ context.Context, o ord.Order) error {
	n.logger.Info("customer shipping notification",
		zap.String("order_id", o.ID),
		zap.String("customer_id", o.CustomerID),
		zap.Stringp("carrier", o.ShippingCarrier),
		zap.Stringp("tracking_number", o.TrackingNumber))
	return nil
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	tp, shutdownTracer, err := observability.SetupTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	connectCtx, cancel := context.WithTimeout(ctx, 2*cfg.StoreTimeout)
	pool, err := database.Connect(connectCtx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		return err
	}
	defer pool.Close()

	var activityRepo activity.Repository = activity.NewPGRepo(pool, cfg.StoreTimeout)
	if cfg.ActivityStore == config.ActivityStoreSQLite {
		sqliteRepo, err := activity.OpenSQLite(cfg.ActivitySQLitePath)
		if err != nil {
			return err
		}
		defer func() { _ = sqliteRepo.Close() }()
		activityRepo = sqliteRepo
	}
	activitySvc, err := activity.NewService(activity.ServiceDeps{
		Repository: activityRepo,
		Logger:     logger.Named("activity"),
	})
	if err != nil {
		return err
	}

	var relatedCache cache.Cache
	if cfg.RedisAddr != "" {
		relatedCache = cache.NewRedisCache(cfg.RedisAddr, serviceName)
	}
	var notifier ord.Notifier = logNotifier{logger: logger.Named("notify")}
	if cfg.NotifyWebhookURL != "" {
		notifier = ord.NewWebhookNotifier(cfg.NotifyWebhookURL)
	}
	mutator, err := ord.NewMutator(ord.MutatorDeps{
		Orders:   ord.NewPGRepo(pool, cfg.StoreTimeout),
		Activity: activitySvc,
		Notifier: notifier,
		Cache:    relatedCache,
		CacheTTL: cfg.RelatedCacheTTL,
		Logger:   logger.Named("order"),
		Tracer:   tp.Tracer("github.com/MikeMC777/ordenes-admin/internal/order"),
	})
	if err != nil {
		return err
	}

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr: cfg.OrderSvcAddr,
		Handler: newHandler(routes{
			mutator:   mutator,
			activity:  activitySvc,
			adminKeys: cfg.AdminKeys,
			logger:    logger.Named("http"),
			tracing:   tp,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var grpcSrv *grpc.Server
	if cfg.OrderGRPCAddr != "" {
		grpcSrv, err = startHealthServer(cfg.OrderGRPCAddr, logger)
		if err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("order-service listening", zap.String("addr", cfg.OrderSvcAddr),
			zap.String("activity_store", cfg.ActivityStore), zap.Bool("related_cache", relatedCache != nil),
			zap.Bool("trace_export", cfg.OTLPEndpoint != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if err != nil {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

func startHealthServer(addr string, logger *zap.Logger) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	s := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	go func() {
		logger.Info("grpc health listening", zap.String("addr", addr))
		if err := s.Serve(lis); err != nil {
			logger.Error("grpc health server stopped", zap.Error(err))
		}
	}()
	return s, nil
}

// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package social assembles the social-graph service: the BadgerDB
// document store, the connection state machine, the presence registry,
// the fan-out engine, and the gin HTTP surface that exposes them.
package social

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vireolabs/vireo/pkg/extensions"
	"github.com/vireolabs/vireo/services/social/connect"
	"github.com/vireolabs/vireo/services/social/fanout"
	"github.com/vireolabs/vireo/services/social/feed"
	"github.com/vireolabs/vireo/services/social/notify"
	"github.com/vireolabs/vireo/services/social/observability"
	"github.com/vireolabs/vireo/services/social/presence"
	"github.com/vireolabs/vireo/services/social/routes"
	"github.com/vireolabs/vireo/services/social/storage/badgerstore"
)

// Service is the social backend lifecycle. Run blocks; call it at most
// once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until it stops.
	Run() error

	// Router returns the configured gin engine for integration tests.
	Router() *gin.Engine

	// Close releases the store, the fan-out worker, and the tracer.
	// Run calls it on exit; call it directly when Router is used
	// without Run.
	Close()
}

// Config holds service configuration. Zero values take defaults in New.
type Config struct {
	// Port is the HTTP server port. Default: 8940.
	Port int

	// DataDir is the BadgerDB directory. Empty means in-memory, which
	// is only sensible for tests.
	DataDir string

	// JWTSecret is the shared HMAC secret for verifying bearer tokens.
	// Empty selects the NopAuthProvider (development only).
	JWTSecret string

	// OTelEndpoint is the OpenTelemetry collector endpoint. Empty
	// disables tracing export.
	OTelEndpoint string

	// EnableMetrics registers the Prometheus metric set. Registration
	// is process-global, so tests building several services leave this
	// off.
	EnableMetrics bool

	// GinMode sets the gin framework mode: debug, release, or test.
	GinMode string
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 8940
	}
	return cfg
}

type service struct {
	config        Config
	router        *gin.Engine
	db            *badgerstore.DB
	engine        *fanout.Engine
	cancel        context.CancelFunc
	tracerCleanup func(context.Context)
}

// New builds a ready-to-run service: it opens the document store, wires
// the presence registry, fan-out engine, state machine, feed, and the
// notification log, and registers all routes.
func New(cfg Config) (Service, error) {
	cfg = applyConfigDefaults(cfg)
	s := &service{config: cfg}

	if cfg.OTelEndpoint != "" {
		cleanup, err := initTracer(cfg.OTelEndpoint)
		if err != nil {
			return nil, fmt.Errorf("initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	var storeCfg badgerstore.Config
	if cfg.DataDir == "" {
		storeCfg = badgerstore.InMemoryConfig()
	} else {
		storeCfg = badgerstore.DefaultConfig()
		storeCfg.Path = cfg.DataDir
		storeCfg.Logger = slog.Default()
	}
	db, err := badgerstore.Open(storeCfg)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("open document store: %w", err)
	}
	s.db = db

	var metrics *observability.FanoutMetrics
	if cfg.EnableMetrics {
		metrics = observability.NewFanoutMetrics()
	}

	registry := presence.NewRegistry(slog.Default())
	notifications := notify.NewStore(db)

	engine := fanout.NewEngine(registry, notifications, metrics, slog.Default())
	s.engine = engine
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go engine.Run(ctx)

	graph := connect.NewBadgerStore(db)
	connections := connect.NewService(graph, engine, slog.Default())
	posts := feed.NewService(db, engine, slog.Default())

	auth, err := buildAuthProvider(cfg)
	if err != nil {
		s.cleanup()
		return nil, err
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("social-service"))

	routes.SetupRoutes(router, routes.Deps{
		Auth:          auth,
		Connections:   connections,
		Feed:          posts,
		Notifications: notifications,
		Presence:      registry,
		Metrics:       metrics,
	})
	s.router = router

	return s, nil
}

func buildAuthProvider(cfg Config) (extensions.AuthProvider, error) {
	if cfg.JWTSecret == "" {
		slog.Warn("JWT secret not configured, using nop auth provider")
		return &extensions.NopAuthProvider{}, nil
	}
	provider, err := extensions.NewJWTAuthProvider([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("build auth provider: %w", err)
	}
	return provider, nil
}

func (s *service) Run() error {
	defer s.Close()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("starting social service", "port", s.config.Port)

	return s.router.Run(addr)
}

func (s *service) Router() *gin.Engine {
	return s.router
}

func (s *service) Close() {
	s.cleanup()
}

func (s *service) cleanup() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.engine != nil {
		s.engine.Close()
		s.engine = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("close document store failed", "error", err)
		}
		s.db = nil
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
		s.tracerCleanup = nil
	}
}

// initTracer configures the OTLP gRPC trace exporter.
func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("social-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

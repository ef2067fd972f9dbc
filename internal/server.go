package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/garminstats/internal/activities"
	"github.com/2beens/garminstats/internal/cache"
	"github.com/2beens/garminstats/internal/config"
	"github.com/2beens/garminstats/internal/db"
	"github.com/2beens/garminstats/internal/garmin"
	"github.com/2beens/garminstats/internal/middleware"
	"github.com/2beens/garminstats/internal/telemetry/metrics"
	"github.com/2beens/garminstats/internal/telemetry/tracing"
	"github.com/2beens/garminstats/pkg"
)

const routerName = "garminstats"

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config          *config.Config
	dbPool          *pgxpool.Pool
	redisClient     *redis.Client
	activitiesCache *cache.ActivitiesCache
	analyzer        *activities.Analyzer
	criteria        []activities.Criterion

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	GarminEmail             string
	GarminPassword          string
	RedisPassword           string
	PostgresPassword        string
	HoneycombTracingEnabled bool
	Criteria                []activities.Criterion
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	s := &Server{
		config:   cfg,
		criteria: params.Criteria,
	}

	var extraCollectors []prometheus.Collector
	if cfg.PostgresEnabled() {
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDB,
			DBUser:         cfg.PostgresUser,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		s.dbPool = dbPool

		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDB},
		))
	}

	s.promRegistry = metrics.SetupPrometheus(extraCollectors...)
	s.metricsManager = metrics.NewManager("garminstats", "service", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	var tokenStore garmin.TokenStore = garmin.NewMemoryTokenStore()
	if cfg.RedisEnabled() {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		if params.HoneycombTracingEnabled {
			s.redisClient.AddHook(redisotel.NewTracingHook())
		}

		rdbStatus := s.redisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
		tokenStore = garmin.NewRedisTokenStore(s.redisClient)
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "garminstats-service")
	if err != nil {
		return nil, err
	}
	s.otelShutdown = otelShutdown

	source, err := s.activitiesSource(params, tokenStore)
	if err != nil {
		return nil, err
	}
	s.activitiesCache = cache.NewActivitiesCache(source, time.Duration(cfg.ActivitiesCacheTTL)*time.Second)
	s.analyzer = activities.NewAnalyzer(s.activitiesCache, cfg.ActivitiesLimit)

	return s, nil
}

type activitiesSource interface {
	Activities(ctx context.Context, start, limit int) ([]activities.Activity, error)
}

func (s *Server) activitiesSource(params NewServerParams, tokenStore garmin.TokenStore) (activitiesSource, error) {
	if s.config.ActivitiesSource == config.SourcePostgres {
		log.Infof("serving activities of [%s] from postgres", params.GarminEmail)
		return activities.NewRepo(s.dbPool, params.GarminEmail), nil
	}

	garminClient, err := garmin.NewClient(garmin.NewClientParams{
		SSOURL:        s.config.GarminSSOURL,
		ConnectAPIURL: s.config.GarminConnectAPIURL,
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   time.Duration(s.config.GarminTimeoutSec) * time.Second,
		},
		TokenStore:     tokenStore,
		MetricsManager: s.metricsManager,
	})
	if err != nil {
		return nil, fmt.Errorf("new garmin client: %w", err)
	}

	log.Infof("serving activities of [%s] from garmin connect", params.GarminEmail)
	return garmin.NewSession(garminClient, params.GarminEmail, params.GarminPassword), nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("garminstats-router"))

	activitiesHandler := activities.NewHandler(s.analyzer, s.criteria)
	activitiesHandler.SetupRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, "ok")
	}).Methods("GET").Name("health")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	if s.redisClient != nil && s.config.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(
			redis_rate.NewLimiter(s.redisClient),
			routerName,
			s.config.RateLimitPerMin,
			s.metricsManager,
		))
	}
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler: router,
		Addr:    ipAndPort,
		// a cold request logs in and fetches the whole activity window
		WriteTimeout: 2 * time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

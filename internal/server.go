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
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/gymstreak/internal/activities"
	"github.com/2beens/gymstreak/internal/config"
	"github.com/2beens/gymstreak/internal/jobs"
	"github.com/2beens/gymstreak/internal/kvstore"
	"github.com/2beens/gymstreak/internal/middleware"
	"github.com/2beens/gymstreak/internal/progress"
	"github.com/2beens/gymstreak/internal/streaks"
	"github.com/2beens/gymstreak/internal/telemetry/metrics"
	"github.com/2beens/gymstreak/internal/telemetry/tracing"
	"github.com/2beens/gymstreak/internal/workouts"
	"github.com/2beens/gymstreak/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config   *config.Config
	backends *Backends

	streaksService    *streaks.Service
	workoutsService   *workouts.Service
	activitiesService *activities.Service
	progressAnalyzer  *progress.Analyzer
	scheduler         *jobs.Scheduler

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()

	cancelBackground context.CancelFunc
}

type NewServerParams struct {
	Config      *config.Config
	Secrets     *config.Secrets
	VersionInfo string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	secrets := params.Secrets
	if secrets == nil {
		secrets = &config.Secrets{}
	}

	otelShutdown, err := tracing.Setup(ctx, tracing.SetupParams{
		Exporter:     cfg.TraceExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		ServiceName:  "gymstreak",
		Environment:  cfg.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	backends, err := OpenBackends(ctx, cfg, secrets)
	if err != nil {
		otelShutdown()
		return nil, err
	}

	var collectors []prometheus.Collector
	if backends.DBPool != nil {
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			backends.DBPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	}
	promRegistry := metrics.SetupPrometheus(collectors...)
	metricsManager := metrics.NewManager("gymstreak", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	streaksService := NewStreaksService(cfg, backends, metricsManager)
	workoutsRepo := workouts.NewRepo(backends.Store)

	scheduler, err := jobs.NewScheduler(jobs.SchedulerParams{
		Finalizer: streaksService,
		UserIDs:   []string{cfg.UserID},
		Spec:      cfg.FinalizeCron,
		Timezone:  cfg.Timezone,
	})
	if err != nil {
		backends.Close()
		otelShutdown()
		return nil, fmt.Errorf("new scheduler: %w", err)
	}

	return &Server{
		config:            cfg,
		backends:          backends,
		versionInfo:       params.VersionInfo,
		streaksService:    streaksService,
		workoutsService:   workouts.NewService(workoutsRepo, streaksService, cfg.Timezone),
		activitiesService: activities.NewService(backends.Store, cfg.Timezone),
		progressAnalyzer:  progress.NewAnalyzer(workoutsRepo, cfg.Timezone),
		scheduler:         scheduler,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	// rate limiting needs a shared counter, so it is on only with redis around
	var mutationsRateLimit mux.MiddlewareFunc
	if s.backends.RedisClient != nil {
		mutationsRateLimit = middleware.RateLimit(
			redis_rate.NewLimiter(s.backends.RedisClient),
			s.metricsManager,
			"streaks-mutations",
			s.config.RateLimitPerMin,
		)
	}

	userID := s.config.UserID
	streaks.NewHandler(s.streaksService, userID, time.Now).SetupRoutes(r, mutationsRateLimit)
	workouts.NewHandler(s.workoutsService, userID, time.Now).SetupRoutes(r)
	activities.NewHandler(s.activitiesService, userID).SetupRoutes(r)
	progress.NewHandler(s.progressAnalyzer, userID).SetupRoutes(r)

	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "ok")
	}).Methods("GET").Name("health")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(middleware.LimitAndDrainRequest(middleware.DefaultMaxBodyBytes))

	return r
}

// Serve starts the API and metrics listeners and the background jobs. It does not block.
func (s *Server) Serve(ctx context.Context, host string, port int) error {
	ctx, s.cancelBackground = context.WithCancel(ctx)

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		"metrics",
	))
	metricsAddr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.MetricsPort))
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

	if cached, ok := s.backends.Store.(*kvstore.CachedStore); ok {
		cached.OnInvalidate(func(string) {
			s.metricsManager.CounterStoreChanges.Inc()
		})
		go func() {
			if err := cached.RunInvalidation(ctx); err != nil {
				// embedded stores have a single writer, nothing to invalidate
				log.Debugf("store cache invalidation off: %s", err)
			}
		}()
	}

	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	s.metricsManager.GaugeLifeSignal.Set(1)
	return nil
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

	if s.cancelBackground != nil {
		s.scheduler.Stop()
		s.cancelBackground()
	}

	s.backends.Close()

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

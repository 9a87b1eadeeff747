package internal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/fitcoach/internal/auth"
	"github.com/2beens/fitcoach/internal/coach"
	"github.com/2beens/fitcoach/internal/config"
	"github.com/2beens/fitcoach/internal/dashboard"
	"github.com/2beens/fitcoach/internal/db"
	"github.com/2beens/fitcoach/internal/exercises"
	"github.com/2beens/fitcoach/internal/files"
	"github.com/2beens/fitcoach/internal/geoip"
	"github.com/2beens/fitcoach/internal/mcp"
	"github.com/2beens/fitcoach/internal/middleware"
	"github.com/2beens/fitcoach/internal/misc"
	"github.com/2beens/fitcoach/internal/nutrition"
	"github.com/2beens/fitcoach/internal/plans"
	"github.com/2beens/fitcoach/internal/programs"
	"github.com/2beens/fitcoach/internal/progress"
	"github.com/2beens/fitcoach/internal/session"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/users"
	"github.com/2beens/fitcoach/internal/workouts"
)

const (
	authCleanupInterval = 8 * time.Hour
	geoIpCacheTTL       = 24 * time.Hour
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string
	mcpSecret         string

	config        *config.Config
	dbPool        *pgxpool.Pool
	geoIp         *geoip.Api
	quotesManager *misc.QuotesManager
	filesStore    *files.DiskStore
	llmClient     *coach.Client

	redisClient    *redis.Client
	authService    *auth.Service
	sessionManager *session.Manager

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()

	// stops the background workers (session ticker, auth cleanup)
	cancelWorkers context.CancelFunc
}

type NewServerParams struct {
	Config                  *config.Config
	Secrets                 *config.Secrets
	VersionInfo             string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         cfg.PostgresUser,
		DBPassword:     params.Secrets.PostgresPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	} else if err := db.Migrate(ctx, dbPool); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("fitcoach", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.Secrets.RedisPassword,
		DB:       0,
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, params.Secrets.OtelServiceName, rdb)
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   10 * time.Second,
	}

	filesStore, err := files.NewDiskStore(cfg.UploadsRootDir, cfg.MaxUploadMB<<20)
	if err != nil {
		return nil, fmt.Errorf("new files store: %w", err)
	}

	s := &Server{
		config:      cfg,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,
		mcpSecret:   params.Secrets.MCPSecret,
		geoIp:       geoip.NewApi(params.Secrets.IpInfoAPIKey, tracedHttpClient, geoIpCacheTTL),
		filesStore:  filesStore,
		llmClient: coach.NewClient(coach.ClientOptions{
			BaseURL:     cfg.LLMBaseURL,
			APIKey:      params.Secrets.LLMAPIKey,
			Model:       cfg.LLMModel,
			Timeout:     cfg.LLMTimeout(),
			CacheSizeMB: cfg.LLMCacheSizeMB,
			CacheTTL:    cfg.LLMCacheTTL(),
		}, metricsManager),

		redisClient: rdb,
		authService: auth.NewAuthService(cfg.AuthSessionTTL(), rdb),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	s.sessionManager = session.NewManager(
		session.NewStore(dbPool),
		workouts.NewRepo(dbPool),
		metricsManager,
		session.DefaultTickInterval,
		cfg.AutosaveInterval(),
		cfg.SessionIdleTimeout(),
	)

	if cfg.QuotesCsvPath != "" {
		quotesCsvFile, err := os.Open(cfg.QuotesCsvPath)
		if err != nil {
			return nil, fmt.Errorf("open quotes file: %w", err)
		}
		defer func() {
			if err := quotesCsvFile.Close(); err != nil {
				log.Warnf("close quotes csv file: %s", err)
			}
		}()

		s.quotesManager, err = misc.NewQuoteManager(csv.NewReader(quotesCsvFile))
		if err != nil {
			return nil, fmt.Errorf("failed to create quote manager: %s", err)
		}
	} else {
		log.Warnln("quotes csv path not set, daily quote falls back to llm and a fixed quote")
	}

	return s, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)

	usersRepo := users.NewRepo(s.dbPool)
	workoutsRepo := workouts.NewRepo(s.dbPool)
	plansRepo := plans.NewRepo(s.dbPool)
	progressRepo := progress.NewRepo(s.dbPool)
	foodLogsRepo := nutrition.NewRepo(s.dbPool)
	nutritionService := nutrition.NewService(foodLogsRepo, usersRepo)

	misc.NewHandler(s.geoIp, s.quotesManager, s.versionInfo).SetupRoutes(r)
	users.NewHandler(usersRepo, s.authService, s.geoIp).
		SetupRoutes(r, reqRateLimiter, s.metricsManager, s.config.LoginRateLimitAllowedPerMin)

	filesHandler := files.NewHandler(s.filesStore, s.config.MaxUploadMB<<20, s.metricsManager)
	filesHandler.SetupRoutes(r)

	workouts.NewHandler(workoutsRepo).SetupRoutes(r)
	session.NewHandler(s.sessionManager).SetupRoutes(r)
	programs.NewHandler(programs.NewRepo(s.dbPool)).SetupRoutes(r)
	plans.NewHandler(plansRepo).SetupRoutes(r)
	exercises.NewHandler(exercises.NewRepo(s.dbPool), filesHandler, s.filesStore).SetupRoutes(r)
	nutrition.NewHandler(foodLogsRepo, nutritionService).SetupRoutes(r)
	progress.NewHandler(progressRepo, usersRepo, filesHandler, s.filesStore).SetupRoutes(r)

	dashboard.NewHandler(
		dashboard.NewService(workoutsRepo, s.sessionManager, nutritionService, progressRepo),
	).SetupRoutes(r)

	coachService := coach.NewService(s.llmClient, coach.NewRepo(s.dbPool), usersRepo, plansRepo)
	coach.NewHandler(
		coachService,
		coach.NewQuotes(s.llmClient, s.redisClient, s.quotesManager),
	).SetupRoutes(r, reqRateLimiter, s.config.CoachRateLimitAllowedPerMin, s.metricsManager)

	if s.mcpSecret != "" {
		mcpServer := mcp.NewServer(mcp.NewContextService(
			mcp.NewPoolSchemaRepo(s.dbPool),
			workoutsRepo,
			nutritionService,
			progressRepo,
		))
		r.PathPrefix("/mcp").Handler(mcp.NewHTTPHandler(mcpServer)).Name("mcp")
	}

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.mcpSecret, s.authService)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

	workersCtx, cancel := context.WithCancel(ctx)
	s.cancelWorkers = cancel
	go s.sessionManager.Run(workersCtx)
	go s.authService.RunCleanup(workersCtx, authCleanupInterval)

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler: router,
		Addr:    ipAndPort,
		// coach requests wait on the llm
		WriteTimeout: s.config.LLMTimeout() + 30*time.Second,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}))
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

	if s.cancelWorkers != nil {
		s.cancelWorkers()
	}
	// live sessions are flushed while the db pool is still open
	if err := s.sessionManager.Shutdown(ctx); err != nil {
		log.Errorf("failed to flush live sessions: %s", err)
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

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}

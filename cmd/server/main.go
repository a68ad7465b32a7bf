package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"civic/internal/auth/email"
	authhandler "civic/internal/auth/handler"
	authmetrics "civic/internal/auth/metrics"
	authservice "civic/internal/auth/service"
	"civic/internal/auth/workers/cleanup"
	"civic/internal/cases"
	"civic/internal/dashboard"
	"civic/internal/dashboard/adapters"
	dochandler "civic/internal/documents/handler"
	docservice "civic/internal/documents/service"
	"civic/internal/events"
	foiahandler "civic/internal/foia/handler"
	foiaservice "civic/internal/foia/service"
	"civic/internal/glossary"
	"civic/internal/governance"
	"civic/internal/incidents"
	"civic/internal/jwttoken"
	"civic/internal/platform/config"
	"civic/internal/platform/database"
	"civic/internal/platform/health"
	"civic/internal/platform/httpserver"
	"civic/internal/platform/kafka/consumer"
	"civic/internal/platform/kafka/producer"
	"civic/internal/platform/logger"
	"civic/internal/platform/metrics"
	"civic/internal/platform/redis"
	"civic/internal/platform/tracer"
	"civic/internal/realtime"
	"civic/internal/seeder"
	"civic/internal/submissions"
	httptransport "civic/internal/transport/http"
	"civic/migrations"
	"civic/pkg/platform/circuit"
	"civic/pkg/platform/middleware/metadata"
	"civic/pkg/platform/middleware/ratelimit"
	"civic/pkg/platform/middleware/request"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("initializing civic",
		"addr", cfg.Addr,
		"env", cfg.Environment,
		"postgres", cfg.DatabaseURL != "",
		"redis", cfg.RedisURL != "",
		"kafka", len(cfg.Brokers()) > 0,
	)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := health.New(cfg.Environment)

	pool, err := database.New(ctx, database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		return err
	}
	var db *sql.DB
	if pool != nil {
		db = pool.DB()
		defer pool.Close() //nolint:errcheck
		if err := database.Migrate(ctx, db, migrations.FS); err != nil {
			return err
		}
		checks.RegisterCheck("postgres", pool.Health)
	}

	rc, err := redis.New(ctx, redis.DefaultConfig(cfg.RedisURL))
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close() //nolint:errcheck
		checks.RegisterCheck("redis", rc.Health)
		go rc.RunPoolStats(ctx, 30*time.Second, log)
	}

	reg := prometheus.DefaultRegisterer
	appMetrics := metrics.New(reg)
	if pool != nil {
		if err := pool.RegisterMetrics(reg); err != nil {
			return err
		}
	}
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer tp.Shutdown(context.Background()) //nolint:errcheck
	tr := tracer.NewOTel(tracer.WithOTelTracer(tp.Tracer("civic")))

	hub := realtime.NewHub(appMetrics)
	defer hub.Close()
	var publisher realtime.Publisher = hub
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		prod, err := producer.New(producer.DefaultConfig(brokers), log)
		if err != nil {
			return err
		}
		defer prod.Close(5 * time.Second) //nolint:errcheck
		publisher = realtime.NewFallbackPublisher(
			realtime.NewKafkaPublisher(prod, cfg.KafkaTopic, appMetrics),
			hub, circuit.New("kafka"), log,
		)

		cons, err := consumer.New(consumer.Config{
			Brokers: brokers,
			GroupID: cfg.KafkaGroupID,
			Topics:  []string{cfg.KafkaTopic},
		}, realtime.NewBridge(hub, log), log)
		if err != nil {
			return err
		}
		cons.Start(ctx)
		defer cons.Stop(context.Background()) //nolint:errcheck
		checks.RegisterCheck("kafka", prod.Health)
	}

	st := newStores(db, rc)

	jwt := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AccessTokenTTL)
	jwt.SetEnv(cfg.Environment)
	authMetrics := authmetrics.New(reg)
	authSvc, err := authservice.New(st.users, st.sessions, st.refreshTokens, st.resetTokens, jwt,
		authservice.Config{
			SessionTTL:      cfg.SessionTTL,
			RefreshTokenTTL: cfg.RefreshTokenTTL,
			ResetTokenTTL:   cfg.PasswordResetTTL,
		},
		authservice.WithLogger(log),
		authservice.WithMetrics(authMetrics),
		authservice.WithMailer(email.NewLogMailer(log, cfg.PublicURL, !cfg.IsProduction())),
	)
	if err != nil {
		return err
	}

	worker, err := cleanup.New(st.sessions, st.refreshTokens, st.resetTokens,
		cleanup.WithInterval(cfg.CleanupInterval),
		cleanup.WithLogger(log),
		cleanup.WithMetrics(authMetrics),
	)
	if err != nil {
		return err
	}
	go func() {
		if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("auth cleanup worker stopped", "error", err)
		}
	}()

	docSvc, err := docservice.New(st.documents,
		docservice.WithLogger(log),
		docservice.WithTracer(tr),
		docservice.WithMetrics(appMetrics),
		docservice.WithPublisher(publisher),
	)
	if err != nil {
		return err
	}
	foiaSvc, err := foiaservice.New(st.foia,
		foiaservice.WithLogger(log),
		foiaservice.WithMetrics(appMetrics),
		foiaservice.WithPublisher(publisher),
	)
	if err != nil {
		return err
	}
	incidentSvc, err := incidents.NewService(st.incidents,
		incidents.WithLogger(log), incidents.WithMetrics(appMetrics), incidents.WithPublisher(publisher))
	if err != nil {
		return err
	}
	submissionSvc, err := submissions.NewService(st.submissions,
		submissions.WithLogger(log), submissions.WithMetrics(appMetrics), submissions.WithPublisher(publisher))
	if err != nil {
		return err
	}
	proposalSvc, err := governance.NewService(st.proposals,
		governance.WithLogger(log), governance.WithMetrics(appMetrics), governance.WithPublisher(publisher))
	if err != nil {
		return err
	}
	caseSvc, err := cases.NewService(st.cases,
		cases.WithLogger(log), cases.WithMetrics(appMetrics), cases.WithPublisher(publisher))
	if err != nil {
		return err
	}
	glossarySvc, err := glossary.NewService(st.glossary,
		glossary.WithLogger(log), glossary.WithMetrics(appMetrics), glossary.WithPublisher(publisher))
	if err != nil {
		return err
	}
	eventSvc, err := events.NewService(st.events,
		events.WithLogger(log), events.WithMetrics(appMetrics), events.WithPublisher(publisher))
	if err != nil {
		return err
	}
	dashboardSvc, err := dashboard.New(foiaSvc, eventSvc, docSvc, proposalSvc,
		adapters.NewQueues(incidentSvc, submissionSvc),
		dashboard.WithLogger(log),
		dashboard.WithTracer(tr),
	)
	if err != nil {
		return err
	}

	if cfg.SeedDemo {
		seed := seeder.New(authSvc, glossarySvc, docSvc, log)
		if err := seed.SeedAll(ctx, seeder.Admin{Email: cfg.AdminEmail, Password: cfg.AdminPassword}); err != nil {
			return err
		}
	}

	limitOpts := []ratelimit.Option{ratelimit.WithLogger(log)}
	if rc != nil {
		limitOpts = append(limitOpts, ratelimit.WithSharedWindow(ratelimit.NewRedisWindow(rc.Client)))
	}
	limiter := ratelimit.New(cfg.RateLimitPerMinute, cfg.RateLimitBurst, limitOpts...)
	go limiter.Run(ctx, time.Minute, 10*time.Minute)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Tokens:         jwttoken.NewJWTServiceAdapter(jwt),
		Sessions:       authSvc,
		RequestTimeout: cfg.RequestTimeout,
		TrustedProxies: metadata.ParsePrefixes(cfg.TrustedProxyCIDRs()),
		Limiter:        limiter,
		RequestMetrics: request.NewMetrics(reg),
		MetricsHandler: promhttp.Handler(),

		Health:      checks,
		Auth:        authhandler.New(authSvc, log, authhandler.WithCookie("", cfg.CookieSecure)),
		Documents:   dochandler.New(docSvc, log),
		FOIA:        foiahandler.New(foiaSvc, log),
		Incidents:   incidents.NewHandler(incidentSvc, log),
		Submissions: submissions.NewHandler(submissionSvc, log),
		Governance:  governance.NewHandler(proposalSvc, log),
		Cases:       cases.NewHandler(caseSvc, log),
		Glossary:    glossary.NewHandler(glossarySvc, log),
		Events:      events.NewHandler(eventSvc, log),
		Dashboard:   dashboard.NewHandler(dashboardSvc, log),
		Realtime:    realtime.NewHandler(hub, log, cfg.Origins()),
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

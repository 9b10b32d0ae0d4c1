package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roadwatch/internal/allowance"
	allowancehandler "roadwatch/internal/allowance/handler"
	allowancesvc "roadwatch/internal/allowance/service"
	"roadwatch/internal/contacts"
	"roadwatch/internal/dashboard"
	"roadwatch/internal/device"
	devicehandler "roadwatch/internal/device/handler"
	devicesvc "roadwatch/internal/device/service"
	"roadwatch/internal/event"
	"roadwatch/internal/fence"
	fencemetrics "roadwatch/internal/fence/metrics"
	"roadwatch/internal/ingest"
	"roadwatch/internal/ledger"
	"roadwatch/internal/notify"
	"roadwatch/internal/platform/config"
	"roadwatch/internal/platform/database"
	"roadwatch/internal/platform/httpserver"
	"roadwatch/internal/platform/logger"
	"roadwatch/internal/platform/metrics"
	"roadwatch/internal/platform/middleware"
	platformredis "roadwatch/internal/platform/redis"
	"roadwatch/internal/region"
	regionhandler "roadwatch/internal/region/handler"
	regionsvc "roadwatch/internal/region/service"
	"roadwatch/internal/stream"
	"roadwatch/internal/token"
	"roadwatch/pkg/platform/tx"
)

type stores struct {
	regions   region.Store
	events    event.Store
	ledger    ledger.Store
	alerts    notify.AlertStore
	devices   device.Store
	allowance allowance.Store
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	var st stores
	if cfg.PostgresURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			log.Error("failed to open postgres", "error", err.Error())
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Error("schema setup failed", "error", err.Error())
			os.Exit(1)
		}
		st = stores{
			regions:   region.NewPostgresStore(db),
			events:    event.NewPostgresStore(db),
			ledger:    ledger.NewPostgresStore(db),
			alerts:    notify.NewPostgresAlertStore(db),
			devices:   device.NewPostgresStore(db),
			allowance: allowance.NewPostgresStore(db),
		}
	} else {
		log.Warn("no postgres configured, using in-memory stores")
		st = stores{
			regions:   region.NewInMemoryStore(),
			events:    event.NewInMemoryStore(),
			ledger:    ledger.NewInMemoryStore(),
			alerts:    notify.NewInMemoryAlertStore(),
			devices:   device.NewInMemoryStore(),
			allowance: allowance.NewInMemoryStore(),
		}
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var locker fence.SubjectLocker
	var cooldown fence.CooldownGate
	if redisClient != nil {
		locker = fence.NewRedisLocker(redisClient.Client, cfg.SubjectLockTTL)
	} else {
		locker = fence.NewKeyedMutex()
	}
	switch {
	case cfg.ViolationCooldown <= 0:
		cooldown = fence.AlwaysCharge{}
	case redisClient != nil:
		cooldown = fence.NewRedisCooldown(redisClient.Client, cfg.ViolationCooldown)
	default:
		cooldown = fence.NewMemoryCooldown(cfg.ViolationCooldown)
	}

	var publisher stream.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := stream.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err.Error())
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kp.Close(flushCtx); err != nil {
				log.Warn("kafka flush on shutdown failed", "error", err.Error())
			}
		}()
		publisher = kp
	}

	tokens := token.NewService(cfg.JWTSigningKey, "roadwatch")

	worker := notify.NewWorker(notify.NewLogNotifier(log), 256, log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("notification worker stopped", "error", err.Error())
		}
	}()

	// Contact resolution belongs to the account system; until that
	// integration lands, notifications go out without contact details.
	directory := contacts.NoopDirectory{}

	ledgerService := ledger.NewService(st.ledger, log)

	engineOpts := []fence.Option{fence.WithMetrics(fencemetrics.New())}
	if publisher != nil {
		engineOpts = append(engineOpts, fence.WithStream(publisher))
	}
	engine := fence.NewEngine(
		st.regions, st.events, ledgerService, worker, st.alerts,
		directory, locker, cooldown, log, engineOpts...,
	)

	regionService := regionsvc.NewService(st.regions, log)
	deviceService := devicesvc.NewService(st.devices, tokens, time.Hour, log)
	allowanceService := allowancesvc.NewService(st.allowance, ledgerService, worker, directory, log)
	if db != nil {
		// Credit and paid marker commit together through the stores'
		// transaction-in-context support.
		allowanceService = allowanceService.WithTxRunner(func(ctx context.Context, fn func(context.Context) error) error {
			return tx.Run(ctx, db, fn)
		})
	}

	regionHandler := regionhandler.New(regionService, log)
	deviceHandler := devicehandler.New(deviceService, log)
	allowanceHandler := allowancehandler.New(allowanceService, log)
	ingestHandler := ingest.New(engine, log)
	dashboardHandler := dashboard.New(st.events, ledgerService, st.alerts, log)

	httpMetrics := metrics.New()
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Latency(httpMetrics))
	router.Use(middleware.Timeout(30 * time.Second))

	router.Get("/healthz", healthHandler(db, redisClient))
	router.Handle("/metrics", promhttp.Handler())
	deviceHandler.RegisterPublic(router)

	router.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(tokens, middleware.AudienceGuardian, log))
		regionHandler.Register(r)
		dashboardHandler.Register(r)
		deviceHandler.RegisterGuardian(r)
		allowanceHandler.RegisterGuardian(r)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.DeviceMetadata)
		r.Use(middleware.RequireAuth(tokens, middleware.AudienceDevice, log))
		ingestHandler.Register(r)
	})

	// The payout trigger has no end-user auth; keep it off any
	// internet-facing ingress.
	allowanceHandler.RegisterInternal(router)

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("starting roadwatch", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
}

func healthHandler(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, `{"status":"degraded"}`, http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, `{"status":"degraded"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

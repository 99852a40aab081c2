package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"driveli/internal/driver"
	"driveli/internal/platform/config"
	"driveli/internal/platform/httpserver"
	"driveli/internal/platform/logger"
	"driveli/internal/platform/postgres"
	"driveli/internal/platform/redis"
	httptransport "driveli/internal/transport/http"
	"driveli/internal/verification/apilog"
	"driveli/internal/verification/events"
	"driveli/internal/verification/lock"
	"driveli/internal/verification/metrics"
	"driveli/internal/verification/ocr"
	"driveli/internal/verification/orchestrator"
	"driveli/internal/verification/providers"
	"driveli/internal/verification/scheduler"
	"driveli/internal/verification/scoring"
	"driveli/internal/verification/status"
	"driveli/internal/verification/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	var (
		drivers     driver.Store
		checks      store.VerificationStore
		workflows   store.WorkflowStore
		ocrResults  store.OCRResultStore
		referees    store.RefereeStore
		apilogStore apilog.Store
	)
	if db != nil {
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("schema setup failed", "error", err)
			os.Exit(1)
		}
		drivers = driver.NewPostgres(db)
		checks = store.NewPostgresVerificationStore(db)
		workflows = store.NewPostgresWorkflowStore(db)
		ocrResults = store.NewPostgresOCRResultStore(db)
		referees = store.NewPostgresRefereeStore(db)
		apilogStore = apilog.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		memDrivers := driver.NewMemoryStore()
		driver.SeedDemoDrivers(memDrivers)
		drivers = memDrivers
		checks = store.NewMemoryVerificationStore()
		workflows = store.NewMemoryWorkflowStore()
		ocrResults = store.NewMemoryOCRResultStore()
		referees = store.NewMemoryRefereeStore()
		apilogStore = apilog.NewMemoryStore()
		log.Info("using in-memory stores with demo drivers")
	}

	// The lock must outlive the run it guards so a crashed holder cannot
	// block the driver forever.
	lockTTL := cfg.RunTimeout + 30*time.Second
	var locks lock.Lock = lock.NewMemoryLock(lockTTL)
	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		locks = lock.NewRedisLock(redisClient.Client, lockTTL)
		log.Info("using redis workflow lock")
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		publisher = kafka
		log.Info("publishing workflow events to kafka", "topic", cfg.KafkaTopic)
	} else {
		channel := events.NewChannelPublisher(64)
		publisher = channel
		go drainEvents(ctx, channel, log)
	}
	defer publisher.Close()

	m := metrics.New()
	recorder := apilog.NewRecorder(apilogStore, 256, log)
	go func() {
		if err := apilog.NewWorker(recorder, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("api log worker stopped", "error", err)
		}
	}()

	var nin providers.Verifier = providers.MockNINVerifier{}
	if cfg.NINRegistryURL != "" {
		nin = providers.NewNINVerifier(cfg.NINRegistryURL, cfg.VerifierTimeout)
	}
	var license providers.Verifier = providers.MockLicenseVerifier{}
	if cfg.LicenseRegistryURL != "" {
		license = providers.NewLicenseVerifier(cfg.LicenseRegistryURL, cfg.VerifierTimeout)
	}
	var facial providers.Verifier = providers.MockFacialVerifier{}
	if cfg.FacialMatchURL != "" {
		facial = providers.NewFacialVerifier(cfg.FacialMatchURL, cfg.VerifierTimeout)
	}
	var referee providers.RefereeVerifier = providers.MockRefereeVerifier{}
	if cfg.RefereeServiceURL != "" {
		referee = providers.NewHTTPRefereeVerifier(cfg.RefereeServiceURL, cfg.VerifierTimeout)
	}

	engines := []ocr.Engine{ocr.NewLocalEngine(cfg.DocumentRoot)}
	if cfg.OCRCloudURL != "" {
		engines = append(engines, ocr.NewHTTPEngine(cfg.OCRCloudURL, cfg.VerifierTimeout))
	}
	extractor := ocr.NewExtractor(ocr.Config{Order: cfg.OCRProviderOrder}, log, engines...)

	statusSvc := status.NewService(drivers, cfg.PassThreshold, log)

	orch := orchestrator.New(orchestrator.Deps{
		Drivers:    drivers,
		Checks:     checks,
		Workflows:  workflows,
		OCRResults: ocrResults,
		Referees:   referees,
		Locks:      locks,
		Status:     statusSvc,
		Extractor:  extractor,
		Publisher:  publisher,
		Metrics:    m,
		Logger:     log,
		DB:         db,
		NIN:        providers.NewLogged(nin, recorder, m),
		License:    providers.NewLogged(license, recorder, m),
		Facial:     providers.NewLogged(facial, recorder, m),
		Referee:    providers.NewLoggedReferee(referee, recorder, m, ""),
	}, orchestrator.Config{
		RunTimeout:       cfg.RunTimeout,
		VerifierTimeout:  cfg.VerifierTimeout,
		ConcurrencyLimit: cfg.ConcurrencyLimit,
		MaxCheckAttempts: cfg.MaxCheckAttempts,
		CheckTTL:         cfg.CheckTTL,
		Weights:          scoring.DefaultWeights(),
	})

	queue := orchestrator.NewQueue(orch, 64, log)
	go func() {
		if err := queue.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("reverification queue stopped", "error", err)
		}
	}()

	sched := scheduler.New(checks, statusSvc, queue, publisher, m, log, cfg.SweepInterval)
	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("reverification scheduler stopped", "error", err)
		}
	}()

	handler := httptransport.NewHandler(orch, drivers, sched, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	go func() {
		log.Info("verification service listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}

// drainEvents logs workflow events when no broker is configured so local
// runs still show the event stream.
func drainEvents(ctx context.Context, channel *events.ChannelPublisher, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-channel.Events():
			log.InfoContext(ctx, "workflow event",
				"type", event.Type,
				"driver_id", event.DriverID,
				"status", event.Status,
				"score", event.Score,
			)
		}
	}
}

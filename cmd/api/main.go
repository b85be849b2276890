package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	"github.com/foodsafeworks/facility-compliance-backend/internal/infrastructure/cache"
	"github.com/foodsafeworks/facility-compliance-backend/internal/infrastructure/config"
	"github.com/foodsafeworks/facility-compliance-backend/internal/infrastructure/database"
	"github.com/foodsafeworks/facility-compliance-backend/internal/infrastructure/repository"
	"github.com/foodsafeworks/facility-compliance-backend/internal/infrastructure/telemetry"
	assessmentsvc "github.com/foodsafeworks/facility-compliance-backend/internal/service/assessment"
	"github.com/foodsafeworks/facility-compliance-backend/internal/service/auditscore"
	"github.com/foodsafeworks/facility-compliance-backend/internal/service/risk"
	rulesvc "github.com/foodsafeworks/facility-compliance-backend/internal/service/rules"
	"github.com/foodsafeworks/facility-compliance-backend/internal/service/trend"
)

func main() {
	var configPath = flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("engine exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	provider, err := telemetry.InitializeOpenTelemetry(ctx, &telemetry.Config{
		ServiceName:    "fcb-engine",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		BatchTimeout:   cfg.Telemetry.BatchTimeout,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer provider.Shutdown(ctx)

	logger, err := newZapLogger(cfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	pool, err := database.NewPool(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	assessmentCache, err := cache.NewAssessmentCache(redisClient, logger, cfg.Redis.AssessmentTTL)
	if err != nil {
		return fmt.Errorf("initializing assessment cache: %w", err)
	}

	ruleRepo := repository.NewRuleRepository(pool)
	evidenceRepo := repository.NewEvidenceRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	assessmentRepo := repository.NewAssessmentRepository(pool)
	trendRepo := repository.NewTrendRepository(pool)
	riskRepo := repository.NewRiskRepository(pool)
	monitoringRepo := repository.NewMonitoringRepository(pool)

	rulesEngine := rulesvc.NewService(logger.Named("rules"), ruleRepo, evidenceRepo)
	auditScorer := auditscore.NewService(logger.Named("auditscore"), auditRepo, auditRepo)
	riskScorer := risk.NewService(logger.Named("risk"), evidenceRepo, evidenceRepo,
		assessmentRepo, riskRepo, riskConfig(cfg))
	trendRecorder := trend.NewService(logger.Named("trend"), assessmentRepo,
		assessmentRepo, trendRepo, monitoringRepo,
		assessment.PeriodType(cfg.Monitoring.DefaultFrequency))
	aggregator := assessmentsvc.NewService(logger.Named("assessment"), rulesEngine,
		auditScorer, riskScorer, trendRecorder, evidenceRepo, evidenceRepo,
		assessmentRepo, assessmentCache, scoringConfig(cfg))

	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	go runScheduler(schedulerCtx, logger.Named("scheduler"), monitoringRepo, aggregator)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: mux,
	}
	go func() {
		logger.Info("metrics listener started", zap.Int("port", cfg.Server.MetricsPort))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	return metricsSrv.Shutdown(shutdownCtx)
}

func newZapLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}

func scoringConfig(cfg *config.Config) assessmentsvc.Config {
	return assessmentsvc.Config{
		AuditWeight:    cfg.Scoring.AuditWeight,
		RuleWeight:     cfg.Scoring.RuleWeight,
		CoverageWeight: cfg.Scoring.CoverageWeight,
	}
}

func riskConfig(cfg *config.Config) risk.Config {
	return risk.Config{
		CriticalFindingWeight: cfg.Risk.CriticalFindingWeight,
		MajorFindingWeight:    cfg.Risk.MajorFindingWeight,
		MinorFindingWeight:    cfg.Risk.MinorFindingWeight,
		CAPAOverduePerDay:     cfg.Risk.CAPAOverduePerDay,
		CAPAOverdueDayCap:     cfg.Risk.CAPAOverdueDayCap,
		FailedRuleWeight:      cfg.Risk.FailedRuleWeight,
		MediumThreshold:       cfg.Risk.MediumThreshold,
		HighThreshold:         cfg.Risk.HighThreshold,
		CriticalThreshold:     cfg.Risk.CriticalThreshold,
	}
}

// runScheduler polls for facilities whose monitoring schedule is due and
// runs a saved scheduled assessment for each. The assessment service itself
// advances the facility's next-run marker through the trend recorder.
func runScheduler(ctx context.Context, logger *zap.Logger, monitoringRepo *repository.MonitoringRepository, aggregator assessmentsvc.Service) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			configs, err := monitoringRepo.ListDueConfigs(ctx, now.UTC())
			if err != nil {
				logger.Error("listing due monitoring configs", zap.Error(err))
				continue
			}
			for _, mc := range configs {
				_, err := aggregator.Assess(ctx, mc.FacilityID, assessmentsvc.AssessOptions{
					Type:           assessment.TypeScheduled,
					SaveAssessment: true,
				})
				if err != nil {
					logger.Error("scheduled assessment failed",
						zap.String("facility_id", mc.FacilityID.String()),
						zap.Error(err))
				}
			}
		}
	}
}

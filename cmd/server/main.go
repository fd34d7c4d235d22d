package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/config"
	"github.com/bebeku/farm/internal/repository"
	"github.com/bebeku/farm/internal/repository/memory"
	"github.com/bebeku/farm/internal/repository/mongodb"
	"github.com/bebeku/farm/internal/repository/sheets"
	"github.com/bebeku/farm/internal/repository/sqlstore"
	"github.com/bebeku/farm/internal/scheduler"
	"github.com/bebeku/farm/internal/server/handlers"
	"github.com/bebeku/farm/internal/server/router"
	"github.com/bebeku/farm/internal/service/aggregation"
	"github.com/bebeku/farm/internal/service/assistant"
	commandsvc "github.com/bebeku/farm/internal/service/commands"
	"github.com/bebeku/farm/internal/service/records"
	reportingsvc "github.com/bebeku/farm/internal/service/reporting"
	whatsappsvc "github.com/bebeku/farm/internal/service/whatsapp"
	"github.com/bebeku/farm/pkg/clients/anthropic"
	"github.com/bebeku/farm/pkg/clients/openai"
	whatsappclient "github.com/bebeku/farm/pkg/clients/whatsapp"
	"github.com/bebeku/farm/pkg/llm"
	"github.com/bebeku/farm/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Format))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, baseLogger.Named("repo"))
	if err != nil {
		baseLogger.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	loc := cfg.Location()
	recordsSvc := records.NewService(store, baseLogger.Named("svc.records"),
		records.WithDailyMortalityThreshold(cfg.Farm.DailyMortalityThreshold),
		records.WithLocation(loc),
	)
	aggSvc := aggregation.NewService(store, aggregation.Policy{
		DOCWeightGr:         cfg.Farm.DOCWeightGr,
		MortalityMediumPct:  cfg.Farm.MortalityMediumPct,
		MortalityHighPct:    cfg.Farm.MortalityHighPct,
		HarvestLeadDays:     cfg.Farm.HarvestLeadDays,
		RecentActivityLimit: cfg.Farm.RecentActivityLimit,
	}, baseLogger.Named("svc.aggregation"), aggregation.WithLocation(loc))

	// chat stays a nil interface when no LLM is configured.
	var chat handlers.Assistant
	if cfg.AssistantEnabled() {
		chat = assistant.NewAgent(
			newModel(cfg.AI),
			assistant.NewFarmTools(aggSvc, recordsSvc).Registry(),
			baseLogger.Named("svc.assistant"),
			assistant.WithMaxSteps(cfg.AI.MaxSteps),
		)
		baseLogger.Info("assistant enabled", zap.String("provider", cfg.AI.Provider))
	} else {
		baseLogger.Warn("llm api key missing, natural language assistant disabled")
	}

	handlerSet := router.Handlers{
		Farm: handlers.NewFarmHandler(aggSvc, recordsSvc, baseLogger.Named("handlers.farm")),
		Chat: handlers.NewChatHandler(chat, baseLogger.Named("handlers.chat")),
	}

	var reportOpts []reportingsvc.Option
	var sessions *whatsappsvc.SessionManager
	if cfg.WhatsAppEnabled() {
		commandDispatcher := commandsvc.NewService(recordsSvc, aggSvc, baseLogger.Named("svc.commands"))
		sessions = whatsappsvc.NewSessionManager(0, 0)

		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, chat, sessions, baseLogger.Named("svc.whatsapp"))
		handlerSet.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))

		if cfg.WhatsApp.GroupID != "" {
			reportOpts = append(reportOpts, reportingsvc.WithNotifier(messagingSvc))
		}
		baseLogger.Info("whatsapp channel enabled")
	}

	if cfg.SheetsEnabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		reportOpts = append(reportOpts, reportingsvc.WithExporter(sheets.NewReportSink(sheetsRepo, baseLogger.Named("repo.sheets"))))
	}

	reportingSvc := reportingsvc.NewService(aggSvc, store, baseLogger.Named("svc.reporting"), reportOpts...)

	var sweeper scheduler.Sweeper
	if sessions != nil {
		sweeper = sessions
	}
	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, loc, reportingSvc, sweeper, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	engine := router.New(handlerSet, nil, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	case config.DriverSQLite, config.DriverPostgres:
		return sqlstore.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, logger.Named("sql"))
	case config.DriverMongo:
		return mongodb.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, logger.Named("mongodb"))
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func newModel(cfg config.AIConfig) llm.Model {
	if cfg.Provider == config.ProviderOpenAI {
		return openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	}
	return anthropic.NewClient(anthropic.Config{
		APIKey: cfg.AnthropicKey,
		Model:  cfg.AnthropicModel,
	})
}

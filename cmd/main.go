package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"athena/internal/adapters/ai"
	"athena/internal/adapters/alpaca"
	"athena/internal/adapters/clickhouse"
	"athena/internal/adapters/config"
	"athena/internal/adapters/embeddings"
	"athena/internal/adapters/errors/noop"
	"athena/internal/adapters/errors/sentry"
	"athena/internal/adapters/kafka"
	"athena/internal/adapters/postgres"
	"athena/internal/adapters/redis"
	"athena/internal/adapters/telegram"
	"athena/internal/agents"
	"athena/internal/api/health"
	"athena/internal/broker"
	"athena/internal/dataflows"
	"athena/internal/domain/memory"
	"athena/internal/events"
	"athena/internal/marketclock"
	"athena/internal/metrics"
	clickhouserepo "athena/internal/repository/clickhouse"
	postgresrepo "athena/internal/repository/postgres"
	"athena/internal/services"
	"athena/internal/tools"
	"athena/internal/workers"
	"athena/pkg/errors"
	"athena/pkg/logger"
)

func main() {
	symbol := flag.String("symbol", "", "run a single analysis for this symbol and exit")
	date := flag.String("date", "", "trade date for single-run mode (YYYY-MM-DD, default today)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infow("starting", "app", cfg.App.Name, "env", cfg.App.Env)

	tracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(tracker)

	metrics.Init()

	app, err := initApp(cfg)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer app.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *symbol != "" {
		runOnce(ctx, app, *symbol, *date, log)
		return
	}

	startHTTPServer(cfg, app, log)

	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewAnalysisWorker(app.pipeline, app.clock, cfg.Scheduler))
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	cronRunner := workers.NewCronRunner(app.pipeline, app.clock, cfg.Scheduler)
	if cronRunner != nil {
		if err := cronRunner.Start(ctx); err != nil {
			log.Fatalf("failed to start cron runner: %v", err)
		}
	}

	if app.stream != nil {
		go app.stream.Run(ctx)
	}

	log.Info("system initialized")
	waitForShutdown(ctx, cancel, scheduler, cronRunner, tracker, log)
}

// app holds the wired components and the connections behind them.
type app struct {
	pipeline *services.Pipeline
	clock    *marketclock.Clock
	stream   *alpaca.Stream

	pg       *postgres.Client
	ch       *clickhouse.Client
	redis    *redis.Client
	producer *kafka.Producer
}

func (a *app) close() {
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.ch != nil {
		_ = a.ch.Close()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
}

func initApp(cfg *config.Config) (*app, error) {
	log := logger.Get()
	a := &app{}

	clock, err := marketclock.New()
	if err != nil {
		return nil, err
	}
	a.clock = clock

	provider, err := ai.NewOpenAIProvider(cfg.AI.OpenAIKey, cfg.AI.BaseURL, cfg.AI.RequestsPerMinute, cfg.AI.RequestTimeout)
	if err != nil {
		return nil, err
	}

	// Optional backends are wired only when configured; everything else
	// degrades gracefully without them.
	var cache dataflows.ReportCache
	if cfg.Redis.Enabled() {
		redisClient, err := redis.NewClient(cfg.Redis, 6*time.Hour)
		if err != nil {
			log.Warnw("redis unavailable, report cache disabled", "error", err)
		} else {
			a.redis = redisClient
			cache = redisClient
		}
	}

	data := dataflows.NewService(
		dataflows.NewFinnhubClient(cfg.Data.FinnhubKey),
		dataflows.NewFredClient(cfg.Data.FredKey),
		dataflows.NewAlpacaDataClient(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret),
		cache,
	)

	registry := tools.NewRegistry()
	tools.RegisterDataTools(registry, data)

	var memoryService *memory.Service
	if cfg.Postgres.Enabled() {
		pg, err := postgres.NewClient(cfg.Postgres)
		if err != nil {
			log.Warnw("postgres unavailable, situation memory disabled", "error", err)
		} else {
			a.pg = pg
			embedder, err := embeddings.NewOpenAIService(cfg.AI.OpenAIKey, cfg.AI.EmbeddingModel, cfg.AI.RequestTimeout)
			if err != nil {
				return nil, err
			}
			memoryService = memory.NewService(postgresrepo.NewLessonRepository(pg.DB()), embedder)
		}
	}

	gateway := alpaca.NewClient(alpaca.Config{
		APIKey:    cfg.Alpaca.APIKey,
		APISecret: cfg.Alpaca.APISecret,
		BaseURL:   cfg.Alpaca.BaseURL,
		DataURL:   cfg.Alpaca.DataURL,
	})

	orchestrator := agents.NewOrchestrator(provider, registry, memoryService, gateway, cfg.Trading, cfg.AI)

	var executor *broker.Executor
	if cfg.Trading.TradeAfterAnalyze {
		executor = broker.NewExecutor(gateway, cfg.Trading.DollarAmount)

		a.stream = alpaca.NewStream(alpaca.Config{
			APIKey:    cfg.Alpaca.APIKey,
			APISecret: cfg.Alpaca.APISecret,
		}, cfg.Alpaca.StreamURL, func(update alpaca.TradeUpdate) {
			log.Infow("trade update",
				"event", update.Event,
				"symbol", update.Order.Symbol,
				"side", update.Order.Side,
				"filled_qty", update.Order.FilledQty,
				"status", update.Order.Status)
		})
	}

	var publisher *events.Publisher
	if cfg.Kafka.Enabled() {
		a.producer = kafka.NewProducer(cfg.Kafka.Brokers)
		publisher = events.NewPublisher(a.producer, cfg.Kafka.DecisionTopic)
	}

	var notifier *telegram.Notifier
	if cfg.Telegram.Enabled() {
		notifier, err = telegram.NewNotifier(cfg.Telegram)
		if err != nil {
			log.Warnw("telegram unavailable, notifications disabled", "error", err)
			notifier = nil
		}
	}

	var runs *clickhouserepo.RunRepository
	if cfg.ClickHouse.Enabled() {
		ch, err := clickhouse.NewClient(cfg.ClickHouse)
		if err != nil {
			log.Warnw("clickhouse unavailable, run archive disabled", "error", err)
		} else {
			a.ch = ch
			runs = clickhouserepo.NewRunRepository(ch.Conn())
		}
	}

	a.pipeline = services.NewPipeline(orchestrator, gateway, executor, publisher, notifier, runs, cfg.Trading)
	return a, nil
}

func runOnce(ctx context.Context, a *app, symbol, date string, log *logger.Logger) {
	tradeDate := time.Now()
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			log.Fatalf("invalid -date %q: %v", date, err)
		}
		tradeDate = parsed
	}

	st, err := a.pipeline.RunOnce(ctx, symbol, tradeDate)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	log.Infow("analysis complete",
		"symbol", st.Symbol,
		"action", st.RecommendedAction,
		"decision", st.FinalTradeDecision)
}

func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("failed to initialize sentry: %v", err)
		return noop.New()
	}

	log.Info("error tracking initialized")
	return tracker
}

func startHTTPServer(cfg *config.Config, a *app, log *logger.Logger) {
	if !cfg.Metrics.Enabled {
		return
	}

	var pgDB *sqlx.DB
	if a.pg != nil {
		pgDB = a.pg.DB()
	}
	var chConn driver.Conn
	if a.ch != nil {
		chConn = a.ch.Conn()
	}
	var redisClient *goredis.Client
	if a.redis != nil {
		redisClient = a.redis.Raw()
	}
	healthHandler := health.New(pgDB, chConn, redisClient, cfg.App.Name)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health/live", healthHandler.HandleLiveness)
	mux.HandleFunc("/health/ready", healthHandler.HandleReadiness)

	go func() {
		log.Infow("metrics server listening", "addr", cfg.Metrics.Addr)
		if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
			log.Errorw("metrics server failed", "error", err)
		}
	}()
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, scheduler *workers.Scheduler, cronRunner *workers.CronRunner, tracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down")

	cancel()

	if cronRunner != nil {
		cronRunner.Stop()
	}
	if err := scheduler.Stop(); err != nil {
		log.Warnw("scheduler shutdown", "error", err)
	}

	if tracker != nil {
		if err := tracker.Flush(ctx); err != nil {
			log.Warnf("failed to flush error tracker: %v", err)
		}
	}

	log.Info("shutdown complete")
}

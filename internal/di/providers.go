package di

import (
	"context"
	"fmt"
	"time"

	"PulseGate/internal/domain/models"
	"PulseGate/internal/domain/repository"
	"PulseGate/internal/handler/api"
	internalrepo "PulseGate/internal/repository"
	"PulseGate/internal/service/okx"
	"PulseGate/internal/service/telegram"
	"PulseGate/internal/usecase"
	"PulseGate/pkg/cache"
	pkgch "PulseGate/pkg/clickhouse"
	"PulseGate/pkg/config"
	pkgkafka "PulseGate/pkg/kafka"
	xlogger "PulseGate/pkg/logger"
	"PulseGate/pkg/metrics"
	"PulseGate/pkg/server"
)

const signalArchiveTable = "signals"

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*xlogger.Logger, error) {
	l, err := xlogger.New(&xlogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideKV creates the KV store: Redis fronted by a small in-process L1.
// Conditional writes and locks always hit Redis so their atomicity holds.
func ProvideKV(cfg *config.Config) (cache.Service, error) {
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return cache.NewLayeredCache(rc, cache.WithMemoryMaxSize(4096)), nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideStream creates the optional OKX price stream for the configured
// symbols. Returns nil when disabled.
func ProvideStream(cfg *config.Config, logger *xlogger.Logger) *okx.Stream {
	if !cfg.OKX.StreamEnabled {
		return nil
	}
	instIDs := make([]string, 0, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		if base := models.BaseOf(sym); base != "" {
			instIDs = append(instIDs, models.CanonicalInstID(base))
		}
	}
	return okx.NewStream(cfg.OKX.WebSocketURL, instIDs, cfg.OKX.ReconnectDelay, cfg.OKX.PingInterval, logger)
}

// ProvideMarketSource creates the OKX REST market source.
func ProvideMarketSource(cfg *config.Config, logger *xlogger.Logger, stream *okx.Stream) repository.MarketSource {
	var warm okx.PriceWarmCache
	if stream != nil {
		warm = stream
	}
	return okx.New(cfg.OKX.RESTURL, cfg.OKX.Timeout, cfg.OKX.MaxRPS, logger, warm)
}

// ProvideResolver creates the instrument resolver.
func ProvideResolver(kv cache.Service, source repository.MarketSource, logger *xlogger.Logger) repository.InstrumentResolver {
	return internalrepo.NewCachedInstrumentResolver(kv, source, logger)
}

// ProvideSnapshotStore creates the snapshot store.
func ProvideSnapshotStore(kv cache.Service) repository.SnapshotStore {
	return internalrepo.NewKVSnapshotStore(kv)
}

// ProvideSeriesStore creates the series store.
func ProvideSeriesStore(kv cache.Service) repository.SeriesStore {
	return internalrepo.NewKVSeriesStore(kv)
}

// ProvideAlertStateStore creates the alert-state store.
func ProvideAlertStateStore(kv cache.Service, cfg *config.Config) repository.AlertStateStore {
	return internalrepo.NewKVAlertStateStore(kv,
		cfg.Alert.HeartbeatKey,
		time.Duration(cfg.Alert.HeartbeatTTLSeconds)*time.Second,
	)
}

// ProvideNotifier creates the Telegram notifier, or a nop when disabled.
func ProvideNotifier(cfg *config.Config, logger *xlogger.Logger) repository.Notifier {
	if !cfg.Telegram.Enabled {
		return telegram.NopNotifier{}
	}
	return telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.Timeout, logger)
}

// ProvideClickHouseClient creates the ClickHouse client, nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database, signalArchiveTable)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideArchive creates the signal archive over ClickHouse, nop when disabled.
func ProvideArchive(client *pkgch.Client, cfg *config.Config) repository.SignalArchive {
	if client == nil {
		return internalrepo.NopSignalArchive{}
	}
	return internalrepo.NewClickHouseSignalArchive(client, cfg.ClickHouse.Database+"."+signalArchiveTable)
}

// ProvidePublisher creates the Kafka signal publisher, nop when disabled.
func ProvidePublisher(cfg *config.Config) (repository.SignalPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopSignalPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideIngestor creates the ingest use case.
func ProvideIngestor(
	source repository.MarketSource,
	resolver repository.InstrumentResolver,
	snapshots repository.SnapshotStore,
	m repository.Metrics,
	logger *xlogger.Logger,
	cfg *config.Config,
) *usecase.Ingestor {
	return usecase.NewIngestor(source, resolver, snapshots, m, logger, cfg.Alert.MaxConcurrency)
}

// ProvideDerivationEngine creates the derivation use case.
func ProvideDerivationEngine(
	resolver repository.InstrumentResolver,
	snapshots repository.SnapshotStore,
	series repository.SeriesStore,
	m repository.Metrics,
) *usecase.DerivationEngine {
	return usecase.NewDerivationEngine(resolver, snapshots, series, m)
}

// ProvideEvaluator creates the evaluation use case.
func ProvideEvaluator(
	derive *usecase.DerivationEngine,
	alertState repository.AlertStateStore,
	notifier repository.Notifier,
	publisher repository.SignalPublisher,
	archive repository.SignalArchive,
	m repository.Metrics,
	logger *xlogger.Logger,
	cfg *config.Config,
) *usecase.Evaluator {
	return usecase.NewEvaluator(derive, alertState, notifier, publisher, archive, m, logger, cfg.Alert)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	logger *xlogger.Logger,
	ingestor *usecase.Ingestor,
	evaluator *usecase.Evaluator,
	alertState repository.AlertStateStore,
	archive repository.SignalArchive,
	cfg *config.Config,
) *api.GatewayHandler {
	return api.NewGatewayHandler(logger, ingestor, evaluator, alertState, archive, cfg.Auth.AlertKey, cfg.Symbols)
}

// ProvideScheduler creates the embedded scheduler, nil when disabled.
func ProvideScheduler(
	ingestor *usecase.Ingestor,
	evaluator *usecase.Evaluator,
	kv cache.Service,
	logger *xlogger.Logger,
	cfg *config.Config,
) *usecase.Scheduler {
	if !cfg.Scheduler.Enabled {
		return nil
	}
	return usecase.NewScheduler(ingestor, evaluator, kv, logger, cfg)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *xlogger.Logger,
	handler *api.GatewayHandler,
	scheduler *usecase.Scheduler,
	stream *okx.Stream,
	publisher repository.SignalPublisher,
	chClient *pkgch.Client,
) *server.App {
	// Ship aggregated error batches over the signal producer when one exists.
	if pub, ok := publisher.(xlogger.Publisher); ok {
		logger.AddCollector(&xlogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "pulsegate.logs",
			Publisher:      pub,
		})
	}
	return server.New(cfg, logger, handler, scheduler, stream, publisher, chClient)
}

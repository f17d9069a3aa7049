package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/internal/goodreceive"
	grH "github.com/fekuna/omnipos-stock-service/internal/goodreceive/handler"
	grRepoPkg "github.com/fekuna/omnipos-stock-service/internal/goodreceive/repository"
	grUCPkg "github.com/fekuna/omnipos-stock-service/internal/goodreceive/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	ledgerH "github.com/fekuna/omnipos-stock-service/internal/ledger/handler"
	ledgerRepoPkg "github.com/fekuna/omnipos-stock-service/internal/ledger/repository"
	ledgerUCPkg "github.com/fekuna/omnipos-stock-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/masterdata"
	masterRepoPkg "github.com/fekuna/omnipos-stock-service/internal/masterdata/repository"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/opname"
	opnameH "github.com/fekuna/omnipos-stock-service/internal/opname/handler"
	opnameRepoPkg "github.com/fekuna/omnipos-stock-service/internal/opname/repository"
	opnameUCPkg "github.com/fekuna/omnipos-stock-service/internal/opname/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/broker"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/middleware"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/postgres"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/search"
	"github.com/fekuna/omnipos-stock-service/internal/reservation"
	resH "github.com/fekuna/omnipos-stock-service/internal/reservation/handler"
	resListenerPkg "github.com/fekuna/omnipos-stock-service/internal/reservation/listener"
	resRepoPkg "github.com/fekuna/omnipos-stock-service/internal/reservation/repository"
	resUCPkg "github.com/fekuna/omnipos-stock-service/internal/reservation/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/fekuna/omnipos-stock-service/internal/transfer"
	transferH "github.com/fekuna/omnipos-stock-service/internal/transfer/handler"
	transferRepoPkg "github.com/fekuna/omnipos-stock-service/internal/transfer/repository"
	transferUCPkg "github.com/fekuna/omnipos-stock-service/internal/transfer/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/uow"
)

// repositories is one storage backend's full set of repositories.
type repositories struct {
	tx          uow.Transactor
	ledger      ledger.Repository
	reservation reservation.Repository
	transfer    transfer.Repository
	opname      opname.Repository
	goodreceive goodreceive.Repository
	master      masterdata.Repository
}

func postgresRepositories(db *sqlx.DB) *repositories {
	return &repositories{
		tx:          postgres.NewTxManager(db),
		ledger:      ledgerRepoPkg.NewPGRepository(db),
		reservation: resRepoPkg.NewPGRepository(db),
		transfer:    transferRepoPkg.NewPGRepository(db),
		opname:      opnameRepoPkg.NewPGRepository(db),
		goodreceive: grRepoPkg.NewPGRepository(db),
		master:      masterRepoPkg.NewPGRepository(db),
	}
}

func memoryRepositories(store *memory.Store) *repositories {
	return &repositories{
		tx:          store,
		ledger:      store.Ledger(),
		reservation: store.Reservations(),
		transfer:    store.Transfers(),
		opname:      store.Opnames(),
		goodreceive: store.Receipts(),
		master:      store.MasterData(),
	}
}

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	appMetrics := metrics.New("omnipos_stock")
	var closers []func() error

	// 3. Storage
	var repos *repositories
	switch cfg.Stock.StorageDriver {
	case "memory":
		repos = memoryRepositories(memory.New())
		appLogger.Warn("Using in-memory storage, data is lost on restart")
	default:
		db, err := postgres.NewPostgres(&postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		closers = append(closers, db.Close)
		repos = postgresRepositories(db)
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
	}

	// 4. Redis: stock cache and opname lock. Both degrade to in-process versions.
	// A process-local cache is only coherent when this process is the single writer.
	cacheTTL := time.Duration(cfg.Stock.CacheTTLSeconds) * time.Second
	var stockCache ledger.Cache = ledgerRepoPkg.NopCache{}
	if cfg.Stock.StorageDriver == "memory" {
		stockCache = ledgerRepoPkg.NewLocalCache(cacheTTL)
	}
	var locker opname.Locker = cache.NewLocalLocker()
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Redis (stock cache disabled, opname lock is process-local)", zap.Error(err))
	} else {
		closers = append(closers, redisClient.Close)
		stockCache = ledgerRepoPkg.NewRedisCache(redisClient, cacheTTL, appLogger)
		locker = redisClient
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Kafka: outgoing stock events and incoming order events.
	var publisher notify.Publisher = notify.NewLogPublisher(appLogger)
	var kafkaConsumer *broker.KafkaConsumer
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Brokers[0] != "" {
		producer := broker.NewProducer(cfg.Kafka.Brokers)
		closers = append(closers, producer.Close)
		publisher = notify.NewKafkaPublisher(producer, cfg.Kafka.EventsTopic, appLogger)

		kafkaConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.OrderTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		closers = append(closers, kafkaConsumer.Close)
		appLogger.Info("Connected to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("orders_topic", cfg.Kafka.OrderTopic),
			zap.String("events_topic", cfg.Kafka.EventsTopic),
		)
	}
	events := notify.NewDispatcher(publisher, time.Duration(cfg.Stock.EventTimeout)*time.Second, appLogger, appMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. Elasticsearch: transfer search. Listing falls back to storage without it.
	var indexer transfer.Indexer
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (transfer search uses storage)", zap.Error(err))
	} else if esIndexer, err := transferRepoPkg.NewESIndexer(ctx, esClient); err != nil {
		appLogger.Warn("Could not prepare transfer index", zap.Error(err))
	} else {
		indexer = esIndexer
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 7. Initialize UseCases
	retries := cfg.Stock.TxMaxRetries
	ledgerUC := ledgerUCPkg.NewLedgerUseCase(repos.ledger, stockCache, repos.tx, events, appMetrics, appLogger, retries)
	resUC := resUCPkg.NewReservationUseCase(repos.reservation, ledgerUC, repos.tx,
		model.ReservationPolicy(cfg.Stock.ReservationPolicy), appLogger, retries)
	transferUC := transferUCPkg.NewTransferUseCase(repos.transfer, indexer, ledgerUC, repos.master, repos.tx,
		events, appMetrics, appLogger, retries)
	opnameUC := opnameUCPkg.NewOpnameUseCase(repos.opname, ledgerUC, repos.master, locker, repos.tx, events,
		model.OpnameDriftPolicy(cfg.Stock.OpnameDriftPolicy), time.Duration(cfg.Stock.LockTTLSeconds)*time.Second,
		appLogger, retries)
	grUC := grUCPkg.NewGoodReceiveUseCase(repos.goodreceive, ledgerUC, repos.master, repos.tx, events, appLogger, retries)

	// 8. Listeners
	if kafkaConsumer != nil {
		go resListenerPkg.NewReservationListener(kafkaConsumer, resUC, appLogger).Start(ctx)
	}

	// 9. Metrics endpoint
	metricsServer := &http.Server{
		Addr:              listenAddr(cfg.Server.MetricsPort),
		Handler:           appMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// 10. Start gRPC Server
	port := listenAddr(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", port)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", port), zap.Error(err))
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.ContextInterceptor(),
			middleware.ObservabilityInterceptor(appLogger, appMetrics),
		),
	)

	ledgerH.NewLedgerHandler(ledgerUC, appLogger).Register(grpcServer)
	resH.NewReservationHandler(resUC, appLogger).Register(grpcServer)
	transferH.NewTransferHandler(transferUC, appLogger).Register(grpcServer)
	opnameH.NewOpnameHandler(opnameUC, appLogger).Register(grpcServer)
	grH.NewGoodReceiveHandler(grUC, appLogger).Register(grpcServer)

	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server",
		zap.String("port", port),
		zap.String("storage", cfg.Stock.StorageDriver),
		zap.String("reservation_policy", cfg.Stock.ReservationPolicy),
		zap.String("opname_drift_policy", cfg.Stock.OpnameDriftPolicy),
	)

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	grpcServer.GracefulStop()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	err = metricsServer.Shutdown(shutdownCtx)
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i]())
	}
	if err != nil {
		appLogger.Error("shutdown finished with errors", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func listenAddr(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

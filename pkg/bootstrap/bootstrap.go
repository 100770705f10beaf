// Package bootstrap assembles the confirmation engine from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/stk-confirmation/pkg/config"
	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/dispatch"
	"github.com/chris/stk-confirmation/pkg/gateway"
	"github.com/chris/stk-confirmation/pkg/notify"
	"github.com/chris/stk-confirmation/pkg/storage"
	dydbstore "github.com/chris/stk-confirmation/pkg/storage/dynamodb"
	"github.com/chris/stk-confirmation/pkg/storage/memory"
	pgstore "github.com/chris/stk-confirmation/pkg/storage/postgres"
	redisstore "github.com/chris/stk-confirmation/pkg/storage/redis"
	"github.com/redis/go-redis/v9"
)

// Engine holds the wired components.
type Engine struct {
	Store      storage.Repository
	Hub        *notify.Hub
	Gateway    gateway.Client
	Reconciler *confirmation.Reconciler
	Initiator  *confirmation.Initiator
	Status     *confirmation.StatusService
	Sweeper    *confirmation.Sweeper
	Dispatcher dispatch.Dispatcher

	closers []func() error
}

// Close releases connections opened by New.
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

// Option overrides a component New would otherwise build from configuration.
type Option func(*options)

type options struct {
	gateway gateway.Client
	store   storage.Repository
}

// WithGateway uses gw instead of a Daraja client.
func WithGateway(gw gateway.Client) Option {
	return func(o *options) { o.gateway = gw }
}

// WithStore uses store instead of the configured backend.
func WithStore(store storage.Repository) Option {
	return func(o *options) { o.store = store }
}

// New builds the engine described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{Hub: notify.NewHub()}

	if o.store != nil {
		e.Store = o.store
	} else {
		store, closer, err := NewRepository(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		e.Store = store
		if closer != nil {
			e.closers = append(e.closers, closer)
		}
	}

	publisher := notify.MultiPublisher{e.Hub}
	if len(cfg.KafkaBrokers) > 0 {
		writer := notify.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = append(publisher, notify.NewKafkaPublisher(writer))
		e.closers = append(e.closers, writer.Close)
		logger.Info("Publishing status updates to Kafka", "topic", cfg.KafkaTopic)
	}

	e.Gateway = o.gateway
	if e.Gateway == nil {
		e.Gateway = gateway.NewDarajaClient(cfg.Gateway, logger)
	}

	e.Reconciler = confirmation.NewReconciler(e.Store, publisher, cfg.ResultCodes, cfg.NotFoundRetryDelay, logger)

	initiator, err := confirmation.NewInitiator(e.Gateway, e.Store, cfg.ConfirmationWindow, cfg.Gateway.Timeout, cfg.PhonePattern, logger)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	e.Initiator = initiator
	e.Status = confirmation.NewStatusService(e.Store, e.Gateway, e.Reconciler, cfg.StatusQueryTimeout, logger)
	e.Sweeper = confirmation.NewSweeper(e.Store, e.Reconciler, cfg.SweepBatchSize, logger)

	if cfg.SQSCallbackQueueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("unable to load SDK config: %w", err)
		}
		e.Dispatcher = dispatch.NewSQSDispatcher(sqs.NewFromConfig(awsCfg), cfg.SQSCallbackQueueURL)
		logger.Info("Callbacks are queued to SQS", "queue_url", cfg.SQSCallbackQueueURL)
	} else {
		e.Dispatcher = dispatch.NewInlineDispatcher(e.Reconciler, cfg.Gateway.Timeout)
	}

	return e, nil
}

// NewRepository opens the configured storage backend. The returned closer may be nil.
func NewRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Repository, func() error, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("Using in-memory store; records are lost on restart")
		return memory.New(), nil, nil

	case config.BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to load SDK config: %w", err)
		}
		return dydbstore.New(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTransactionsTable, cfg.DynamoDBRecordTTL), nil, nil

	case config.BackendPostgres:
		db, err := pgstore.Open(ctx, cfg.PostgresDSN, cfg.PostgresConnectAttempts, logger)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		return pgstore.NewStore(db), sqlDB.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		return redisstore.New(client), client.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

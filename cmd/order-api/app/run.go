package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/minshop/order-api/configs"
	"github.com/minshop/order-api/internal/adapter/cache"
	httpadapter "github.com/minshop/order-api/internal/adapter/http"
	"github.com/minshop/order-api/internal/adapter/http/middleware"
	"github.com/minshop/order-api/internal/adapter/kafka"
	"github.com/minshop/order-api/internal/adapter/psp"
	"github.com/minshop/order-api/internal/adapter/queue"
	"github.com/minshop/order-api/internal/adapter/repo"
	"github.com/minshop/order-api/internal/logging"
	"github.com/minshop/order-api/internal/usecase"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logging.Init(cfg.App.Name, cfg.App.LogFile)
	log := logging.New("app")

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(ctx)
	cancel()
	if err != nil {
		return nil, nil, err
	}

	log.Info("order-api starting up")

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// init rabbitmq
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}

	// repos
	orderRepo := repo.NewMySQLOrderRepo(db)
	cartRepo := repo.NewMySQLCartRepo(db)
	outboxRepo := repo.NewMySQLOutboxRepo(db)
	settlementRepo := repo.NewMySQLSettlementRepo(db, outboxRepo)

	// redis-backed stores
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	statusCache := cache.NewRedisStatusCache(rdb, cfg.Cache.TTL)

	// rabbit producer + order.created consumer
	producer, err := queue.NewRabbitProducer(ch)
	if err != nil {
		return nil, nil, err
	}
	if err := setupQueue(ch, statusCache); err != nil {
		return nil, nil, err
	}

	// kafka: outbox relay out, status-changed consumer in
	relayCtx, stopRelay := context.WithCancel(context.Background())
	if err := setupKafka(relayCtx, cfg, outboxRepo, statusCache); err != nil {
		stopRelay()
		return nil, nil, err
	}

	// PG client
	pg := psp.NewTossClient(cfg.Toss.BaseURL, cfg.Toss.SecretKey, cfg.Toss.Timeout)

	// usecases
	createUC := usecase.NewCreateOrder(cartRepo, orderRepo, idem, producer)
	confirmUC := usecase.NewConfirmPayment(orderRepo, settlementRepo, pg)
	cancelUC := usecase.NewCancelOrder(orderRepo, settlementRepo, pg)
	queryUC := usecase.NewGetPaidOrder(orderRepo, statusCache)

	// handlers + router + middleware
	h := httpadapter.NewOrderHandler(createUC, confirmUC, cancelUC, queryUC)
	authz := middleware.NewAuthz(cfg)
	router := httpadapter.NewRouter(h, authz)

	cleanup := func() {
		stopRelay()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func setupQueue(ch *amqp091.Channel, statusCache usecase.StatusCache) error {
	h := queue.NewOrderCreatedHandler(statusCache)

	router := queue.NewRouter(ch, logging.New("queue"), queue.WithPrefetch(50))
	router.Register(queue.QueueOrderCreated, queue.JSONHandler[usecase.CreatedMsg]{HandleFunc: h.HandleCreated})

	return router.Start()
}

func setupKafka(ctx context.Context, cfg configs.Config, outboxRepo *repo.MySQLOutboxRepo, statusCache usecase.StatusCache) error {
	log := logging.New("kafka")

	producer, err := kafka.NewSyncProducer(cfg.Kafka.Brokers)
	if err != nil {
		return err
	}
	relay := kafka.NewOutboxRelay(outboxRepo, producer, cfg.Kafka.TopicStatus, log)
	go relay.Run(ctx)

	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return err
	}
	h := kafka.NewOrderStatusChangedHandler(statusCache)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.TopicStatus}, h.Handle)
	consumer.Logger = log

	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error("kafka consumer stopped", "err", err)
		}
	}()
	return nil
}

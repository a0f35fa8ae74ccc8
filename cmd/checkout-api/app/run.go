package app

import (
	"context"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/swiftcart/checkout-api/configs"
	"github.com/swiftcart/checkout-api/internal/adapter/cache"
	"github.com/swiftcart/checkout-api/internal/adapter/http"
	"github.com/swiftcart/checkout-api/internal/adapter/http/middleware"
	"github.com/swiftcart/checkout-api/internal/adapter/kafka"
	"github.com/swiftcart/checkout-api/internal/adapter/queue"
	"github.com/swiftcart/checkout-api/internal/checkout"
	"github.com/swiftcart/checkout-api/internal/fulfillment"
	"github.com/swiftcart/checkout-api/internal/logging"
	"github.com/swiftcart/checkout-api/internal/security"
	"github.com/swiftcart/checkout-api/internal/timeutil"
	"github.com/swiftcart/checkout-api/internal/usecase"
	"github.com/swiftcart/checkout-api/internal/verify"
)

type App struct {
	Router *gin.Engine
}

// Serve wraps the gin engine in an http.Server so the timeouts from config
// actually apply.
func (a *App) Serve(cfg configs.Config) error {
	srv := &nethttp.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      a.Router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	return srv.ListenAndServe()
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	// init logger
	logging.Init(cfg.App.Name, "./logs/app.log")
	log := logging.New("app")
	log.Info("checkout-api: starting up")

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
		_ = conn.Close()
		return nil, nil, err
	}

	// exit-pass signing
	signer, err := security.NewPassSigner(cfg.ExitPass.Secret)
	if err != nil {
		return nil, nil, err
	}

	// infra
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	receipts := cache.NewRedisReceiptStore(rdb, cfg.ExitPass.TTL)

	deliveryPub, err := queue.NewDeliveryPublisher(ch, cfg.Rabbit.Exchange)
	if err != nil {
		return nil, nil, err
	}

	producer, err := kafka.NewSyncProducer(cfg.Kafka.Brokers)
	if err != nil {
		return nil, nil, err
	}
	audit := kafka.NewAuditProducer(producer, cfg.Kafka.TopicAudit)

	// domain engines + registries
	engine := verify.New(cfg.Checkout.Tolerance, cfg.Checkout.VarianceBand, nil)
	clock := timeutil.Real{}

	chkObs := usecase.NewCheckoutObserver(audit, receipts, logging.New("checkout-events"))
	sessions := checkout.NewRegistry(checkout.Policy{
		TaxRate:     decimal.NewFromFloat(cfg.Checkout.TaxRate),
		CheckDelay:  cfg.Checkout.CheckDelay,
		SettleDelay: cfg.Checkout.SettleDelay,
	}, clock, engine, signer, chkObs, logging.New("checkout"))

	delObs := usecase.NewDeliveryObserver(deliveryPub, logging.New("fulfillment-events"))
	deliveries := fulfillment.NewRegistry(fulfillment.Dwell{
		Preparing: cfg.Fulfillment.PreparingDwell,
		PickedUp:  cfg.Fulfillment.PickedUpDwell,
		InTransit: cfg.Fulfillment.InTransitDwell,
		Tick:      cfg.Fulfillment.TickInterval,
	}, clock, delObs, logging.New("fulfillment"))

	// usecases
	startUC := usecase.NewStartCheckout(sessions, idem)
	verifyUC := usecase.NewVerifyExitPass(signer, receipts)

	// register queue-handler for gate scans
	if err := setupScanQueue(ch, cfg.Rabbit.ScanQueue, verifyUC); err != nil {
		return nil, nil, err
	}

	// init handlers + routers + middleware
	chH := http.NewCheckoutHandler(startUC, sessions)
	dhH := http.NewDeliveryHandler(deliveries)
	th := http.NewTokenHandler(cfg)
	auth := middleware.NewAuthz(cfg)
	router := http.NewRouter(chH, dhH, th, auth)

	cleanup := func() {
		_ = producer.Close()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func setupScanQueue(ch *amqp091.Channel, queueName string, verifier *usecase.VerifyExitPass) error {
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return err
	}

	h := queue.NewExitScanHandler(verifier, logging.New("exit-scan"))

	router := queue.NewRouter(ch, queue.WithPrefetch(50))
	router.Register(queueName, queue.JSONHandler[usecase.ExitScanMsg]{HandleFunc: h.HandleScan})
	return router.Start()
}

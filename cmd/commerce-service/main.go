// cmd/commerce-service/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"vernont/internal/locking"
	"vernont/internal/pkg/bootstrap"
	"vernont/internal/pkg/config"
	"vernont/internal/pkg/logging"
	cartapp "vernont/internal/service/cart/application"
	cartinfra "vernont/internal/service/cart/infrastructure"
	invapp "vernont/internal/service/inventory/application"
	invinfra "vernont/internal/service/inventory/infrastructure"
	orderapp "vernont/internal/service/order/application"
	"vernont/internal/service/order/application/saga"
	orderinfra "vernont/internal/service/order/infrastructure"
	"vernont/internal/workflow"
)

// application 是组装根产出的依赖容器，所有用例在这里完成接线。
type application struct {
	db *gorm.DB

	addToCart      *cartapp.AddToCart
	updateLineItem *cartapp.UpdateLineItem
	removeLineItem *cartapp.RemoveLineItem
	completeCart   *saga.CompleteCart
	payments       *orderapp.PaymentService
}

// registerRoutes 只挂运维端点，业务入口由外围的接入层负责。
func (app *application) registerRoutes(appCtx bootstrap.AppCtx) {
	appCtx.Mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := app.db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})
}

// main 是应用的组装根 (Composition Root)：创建并组装所有依赖项，然后启动应用。
func main() {
	configPath := flag.String("config", "", "配置文件路径，留空时使用默认值加环境变量")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("加载配置失败")
	}
	logging.Init(cfg.Service.Name)

	// 1. 基础设施连接
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("连接 MySQL 失败")
	}

	locker, closeLocker, err := buildLocker(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化分布式锁失败")
	}

	kafkaWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	// 2. saga 引擎
	engine := workflow.NewEngine(locker,
		workflow.WithLockWait(cfg.Lock.Wait.Std()),
		workflow.WithLockTTL(cfg.Lock.TTL.Std()),
	)

	// 3. 仓储与领域服务
	transactor := invinfra.NewGormTransactor(db)
	levels := invinfra.NewGormLevelRepository(db)
	reservations := invinfra.NewGormReservationRepository(db)
	ledger := invapp.NewLedger(transactor, levels, reservations)

	carts := cartinfra.NewGormCartRepository(db)
	catalog := cartinfra.NewGormCatalog(db)

	orders := orderinfra.NewGormOrderRepository(db)
	payments := orderinfra.NewGormPaymentRepository(db)
	gateway := orderinfra.NewManualGateway()
	events := orderinfra.NewKafkaEventPublisher(kafkaWriter, cfg.Service.Name)

	// 4. 用例组装
	app := &application{
		db:             db,
		addToCart:      cartapp.NewAddToCart(engine, carts, catalog),
		updateLineItem: cartapp.NewUpdateLineItem(engine, carts, catalog, ledger),
		removeLineItem: cartapp.NewRemoveLineItem(engine, carts, ledger),
		completeCart:   saga.NewCompleteCart(engine, carts, orders, payments, catalog, ledger, gateway, events),
		payments:       orderapp.NewPaymentService(payments, gateway),
	}

	bootstrap.StartService(bootstrap.AppInfo{
		Config:           cfg,
		RegisterHandlers: app.registerRoutes,
		OnShutdown: []func(ctx context.Context) error{
			func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
			func(ctx context.Context) error { return kafkaWriter.Close() },
			func(ctx context.Context) error { return closeLocker() },
		},
	})
}

// buildLocker 按配置选择锁后端，返回锁实现和对应的连接清理函数。
func buildLocker(cfg *config.Config) (locking.Locker, func() error, error) {
	switch cfg.Lock.Backend {
	case "zookeeper":
		conn, _, err := zk.Connect(cfg.Lock.ZkHosts, 10*time.Second)
		if err != nil {
			return nil, nil, err
		}
		return locking.NewZkLocker(conn), func() error {
			conn.Close()
			return nil
		}, nil
	default:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return locking.NewRedisLocker(client), client.Close, nil
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schedule-go/internal/auth"
	"schedule-go/internal/config"
	"schedule-go/internal/events"
	"schedule-go/internal/handlers/apiserver"
	"schedule-go/internal/health"
	appKafka "schedule-go/internal/kafka"
	"schedule-go/internal/middleware"
	appRedis "schedule-go/internal/redis"
	"schedule-go/internal/services"
	"schedule-go/internal/storage"
	"schedule-go/internal/storage/memory"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Println("API 服务器配置加载成功。")

	// 2. 初始化存储
	store, ready, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("无法初始化存储: %v", err)
	}
	defer closeStore()

	// 3. 初始化 TokenBlacklist
	var tokenBlacklist auth.TokenBlacklist
	if cfg.Redis.Enabled {
		redisClient, err := appRedis.NewClient(context.Background(), cfg.Redis)
		if err != nil {
			log.Fatalf("无法连接到 Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("成功连接到 Redis")
		tokenBlacklist = appRedis.NewRedisTokenBlacklist(redisClient)
	} else {
		log.Println("Redis 未启用，使用进程内 token 黑名单。")
		tokenBlacklist = auth.NewMemoryTokenBlacklist()
	}

	// 4. 初始化事件发布
	var publisher events.Publisher
	if cfg.Kafka.Enabled {
		kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
		if err != nil {
			log.Fatalf("无法创建 Kafka 生产者: %v", err)
		}
		defer kfkProducer.Close()
		log.Printf("Kafka 生产者初始化成功，好友事件 topic: %s", cfg.Kafka.FriendshipTopic)
		publisher = appKafka.NewEventPublisher(kfkProducer, cfg.Kafka.FriendshipTopic)
	} else {
		publisher = events.NewLogPublisher()
	}

	// 5. 初始化 Services
	svcs := apiserver.Services{
		Auth:        services.NewAuthService(store, cfg.Auth, tokenBlacklist),
		Users:       services.NewUserService(store),
		Locations:   services.NewLocationService(store),
		Schedules:   services.NewScheduleService(store),
		Friendships: services.NewFriendshipService(store, publisher),
	}

	// 6. 路由
	opts := apiserver.RouterOptions{Ready: ready}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Metrics = middleware.NewMetrics(reg)
		opts.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		opts.MetricsPath = cfg.Metrics.Path
	}
	router := apiserver.NewRouter(svcs, opts)

	// 7. 启动 HTTP 服务器并实现优雅关闭
	corsCfg := cfg.APIServer.CORS
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(corsCfg.AllowedOrigins),
		handlers.AllowedMethods(corsCfg.AllowedMethods),
		handlers.AllowedHeaders(corsCfg.AllowedHeaders),
		handlers.ExposedHeaders(corsCfg.ExposedHeaders),
		handlers.MaxAge(corsCfg.MaxAge),
	}
	if corsCfg.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	handler := handlers.CombinedLoggingHandler(os.Stdout, handlers.CORS(corsOptions...)(router))

	srv := &http.Server{
		Addr:         cfg.APIServer.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.APIServer.ReadTimeout,
		WriteTimeout: cfg.APIServer.WriteTimeout,
		IdleTimeout:  cfg.APIServer.IdleTimeout,
	}

	go func() {
		log.Printf("API 服务器启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API 服务器启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到关闭信号，正在关闭 API 服务器...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("API 服务器强制关闭: %v", err)
		return
	}
	log.Println("API 服务器已成功关闭")
}

// openStore returns the configured Store, a readiness probe (nil for the
// in-memory store) and a cleanup function.
func openStore(cfg config.Config) (storage.Store, health.Pinger, func(), error) {
	switch cfg.Database.Type {
	case "memory":
		log.Println("使用内存存储，数据不会持久化。")
		return memory.NewStore(), nil, func() {}, nil
	default:
		db, err := storage.InitDB(cfg.Database, cfg.LogLevel)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Println("API 服务器数据库连接成功。")

		if cfg.Database.AutoMigrate {
			if err := storage.RunMigrations(db); err != nil {
				_ = storage.Close(db)
				return nil, nil, nil, err
			}
		}

		sqlDB, err := db.DB()
		if err != nil {
			_ = storage.Close(db)
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := storage.Close(db); err != nil {
				log.Printf("关闭数据库连接失败: %v", err)
			}
		}
		return storage.NewGormStore(db), sqlDB, closeFn, nil
	}
}

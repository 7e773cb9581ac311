package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"schedule-go/internal/auth"
	"schedule-go/internal/config"
	"schedule-go/internal/handlers/notifyserver"
	"schedule-go/internal/health"
	appKafka "schedule-go/internal/kafka"
	kafkahandlers "schedule-go/internal/kafka/handlers"
	appRedis "schedule-go/internal/redis"
	"schedule-go/internal/services"
	"schedule-go/internal/storage"
	"schedule-go/internal/websocket"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Println("Notify 服务器配置加载成功。")
	if !cfg.Kafka.Enabled {
		log.Fatalf("Notify 服务器需要 Kafka (KAFKA_ENABLED=true)")
	}

	// 2. 初始化数据库连接，用于校验 token 对应的用户
	db, err := storage.InitDB(cfg.Database, cfg.LogLevel)
	if err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}
	defer storage.Close(db)
	store := storage.NewGormStore(db)

	// 3. 初始化 TokenBlacklist，被吊销的 token 不能建立连接
	var tokenBlacklist auth.TokenBlacklist
	if cfg.Redis.Enabled {
		redisClient, err := appRedis.NewClient(context.Background(), cfg.Redis)
		if err != nil {
			log.Fatalf("无法连接到 Redis: %v", err)
		}
		defer redisClient.Close()
		tokenBlacklist = appRedis.NewRedisTokenBlacklist(redisClient)
	}
	authService := services.NewAuthService(store, cfg.Auth, tokenBlacklist)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. 初始化 WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run(ctx)

	// 5. 初始化 Kafka 消费者，把好友事件推送给在线用户
	consumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("无法创建 Kafka 消费者: %v", err)
	}
	defer consumer.Close()

	eventHandler := kafkahandlers.NewFriendshipEventHandler(hub)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Kafka 消费者启动，监听 topic: %s, GroupID: %s", cfg.Kafka.FriendshipTopic, cfg.Kafka.ConsumerGroup)
		err := consumer.Consume(ctx, []string{cfg.Kafka.FriendshipTopic}, cfg.Kafka.ConsumerGroup, eventHandler.Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Kafka 消费者错误: %v", err)
		}
		log.Println("Kafka 消费者 goroutine 已停止。")
	}()

	// 6. 配置 HTTP 服务器路由
	wsHandler := notifyserver.NewWebSocketHandler(hub, authService, cfg.WebSocket, cfg.APIServer.CORS.AllowedOrigins)
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("无法获取数据库连接池: %v", err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.NotifyServer.WebSocketPath, wsHandler.ServeWS)
	mux.HandleFunc("/health", health.Handler)
	mux.HandleFunc("/ready", health.ReadyHandler(sqlDB))

	httpServer := &http.Server{Addr: cfg.NotifyServer.Addr(), Handler: mux}
	go func() {
		log.Printf("Notify 服务器启动于 %s, WebSocket 路径: %s", httpServer.Addr, cfg.NotifyServer.WebSocketPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Notify 服务器启动失败: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Notify 服务器准备关闭...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Printf("Notify 服务器关闭失败: %v", err)
	}

	cancel() // 停止 Hub 和 Kafka 消费者
	wg.Wait()
	log.Println("Notify 服务器已优雅关闭。")
}

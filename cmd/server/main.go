package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"checkout-service/internal/config"
	httpctrl "checkout-service/internal/controllers/http"
	"checkout-service/internal/infra"
	infrafs "checkout-service/internal/infra/firestore"
	"checkout-service/internal/infra/rabbitmq"
	"checkout-service/internal/logging"
	"checkout-service/internal/repository"
	fsrepo "checkout-service/internal/repository/firestore"
	"checkout-service/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, using environment variables")
	}

	cfg := config.Load()
	logging.InitLogger(cfg.App.Env)

	ctx := context.Background()

	// The store is optional at startup: without credentials the service
	// still serves requests, persistence just fails with a 500 on use.
	var repo repository.OrderRepository
	fsClient, err := infrafs.NewClientFromEnv(ctx, cfg.Firebase)
	if err != nil {
		logging.LogWarn("firestore disabled: "+err.Error(), nil)
	} else {
		repo = fsrepo.NewOrderRepository(fsClient)
		defer fsClient.Close()
	}

	payClient := infra.NewMercadoPagoClient(cfg.MercadoPago.BaseURL, cfg.MercadoPago.AccessToken, cfg.MercadoPago.Timeout)

	var publisher rabbitmq.PublisherInterface
	if cfg.Rabbit.URL != "" {
		p, err := rabbitmq.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			log.Fatalf("failed to init publisher: %v", err)
		}
		defer p.Close()
		publisher = p
	}

	s := services.NewOrderService(repo, payClient, publisher, cfg.BackendBaseURL)

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		})
		s.SetRedisClient(redisClient)
	}

	handler := httpctrl.NewHandler(s)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.HandleMethodNotAllowed = true
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	handler.RegisterRoutes(r)

	log.Printf("starting checkout service on port %s", cfg.App.Port)
	if err := r.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("server run: %v", err)
	}
}

package config

import (
	"os"
	"time"
)

type App struct {
	Env  string
	Port string
}

type MercadoPago struct {
	AccessToken string
	BaseURL     string
	Timeout     time.Duration
}

type Firebase struct {
	ProjectID   string
	ClientEmail string
	PrivateKey  string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type Rabbit struct {
	URL      string
	Exchange string
}

type Config struct {
	App            App
	BackendBaseURL string
	MercadoPago    MercadoPago
	Firebase       Firebase
	Redis          Redis
	Rabbit         Rabbit
}

func Load() Config {
	return Config{
		App: App{
			Env:  getenv("APP_ENV", "production"),
			Port: getenv("PORT", "8080"),
		},
		BackendBaseURL: getenv("BACKEND_BASE_URL", ""),
		MercadoPago: MercadoPago{
			AccessToken: getenv("MP_ACCESS_TOKEN", ""),
			BaseURL:     getenv("MP_BASE_URL", "https://api.mercadopago.com"),
			Timeout:     parseDuration(getenv("MP_TIMEOUT", "10s")),
		},
		Firebase: Firebase{
			ProjectID:   getenv("FIREBASE_PROJECT_ID", ""),
			ClientEmail: getenv("FIREBASE_CLIENT_EMAIL", ""),
			PrivateKey:  getenv("FIREBASE_PRIVATE_KEY", ""),
		},
		Redis: Redis{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       0,
			TTL:      parseDuration(getenv("REDIS_TTL", "10s")),
		},
		Rabbit: Rabbit{
			URL:      getenv("RABBITMQ_URL", ""),
			Exchange: getenv("RABBITMQ_EXCHANGE", "checkout.exchange"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

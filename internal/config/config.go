package config

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	HTTPAddr    string
	DatabaseURL string
	RedisAddr   string
	RedisPass   string
	JWTSecret   string

	PushGatewayAddr  string
	SmsGatewayAddr   string
	EmailGatewayAddr string
	PushRegistryAddr string

	SweepInterval   time.Duration
	DispatchTimeout time.Duration
}

func Load() AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("Alerts: No .env file found, relying on system env vars")
	}
	return AppConfig{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8023"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisAddr:        getEnv("REDIS_ADDR", "redis:6379"),
		RedisPass:        getEnv("REDIS_PASS", ""),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret"),
		PushGatewayAddr:  getEnv("PUSH_GATEWAY_ADDR", "http://push-gateway:8031"),
		SmsGatewayAddr:   getEnv("SMS_GATEWAY_ADDR", "http://sms-gateway:8032"),
		EmailGatewayAddr: getEnv("EMAIL_GATEWAY_ADDR", "http://email-gateway:8033"),
		PushRegistryAddr: getEnv("PUSH_REGISTRY_ADDR", "http://push-gateway:8031"),
		SweepInterval:    getDuration("SWEEP_INTERVAL", time.Minute),
		DispatchTimeout:  getDuration("DISPATCH_TIMEOUT", 15*time.Second),
	}
}

// ConnectDB opens a pgx pool against DATABASE_URL. An empty URL means the
// service runs on in-memory storage; callers decide whether that is fatal.
func ConnectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Alerts: invalid duration for %s, using default %s", key, fallback)
	}
	return fallback
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN       string
	Environment string
	HTTPAddr    string

	// RedisAddr пустой — кэш работает в памяти процесса
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Доступ к Shopify Admin API. Без креденшелов проверки инвентаря
	// деградируют в fail-closed.
	ShopifyShopDomain  string
	ShopifyAccessToken string
	ShopifyAPIVersion  string

	// Параметры circuit breaker'а для внешних вызовов
	BreakerThreshold uint32
	BreakerCooldown  time.Duration
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:              os.Getenv("DB_DSN"),
		Environment:        os.Getenv("ENV"),
		HTTPAddr:           os.Getenv("HTTP_ADDR"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		ShopifyShopDomain:  os.Getenv("SHOPIFY_SHOP_DOMAIN"),
		ShopifyAccessToken: os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		ShopifyAPIVersion:  os.Getenv("SHOPIFY_API_VERSION"),
	}

	// Дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.ShopifyAPIVersion == "" {
		cfg.ShopifyAPIVersion = "2024-10"
	}

	cfg.RedisDB = intFromEnv("REDIS_DB", 0)
	cfg.BreakerThreshold = uint32(intFromEnv("BREAKER_THRESHOLD", 5))
	cfg.BreakerCooldown = time.Duration(intFromEnv("BREAKER_COOLDOWN_SECONDS", 300)) * time.Second

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}

func intFromEnv(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return v
}

package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	XenditBaseURL       string
	XenditSecretKey     string
	XenditCallbackToken string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	cfg := &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:         os.Getenv("DATABASE_DSN"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		CORSOrigins:         getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		XenditBaseURL:       getEnv("XENDIT_BASE_URL", "https://api.xendit.co"),
		XenditSecretKey:     os.Getenv("XENDIT_SECRET_KEY"),
		XenditCallbackToken: os.Getenv("XENDIT_CALLBACK_TOKEN"),
	}

	if cfg.DatabaseDSN == "" {
		log.Fatal("[FATAL] DATABASE_DSN is not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.XenditSecretKey == "" {
		log.Fatal("[FATAL] XENDIT_SECRET_KEY is not set")
	}
	if cfg.XenditCallbackToken == "" {
		log.Println("[WARN] XENDIT_CALLBACK_TOKEN is not set, webhook callbacks are accepted without token verification")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	LogLevel string   `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTP     HTTP     `yaml:"http"`
	Database Database `yaml:"database"`
	JWT      JWT      `yaml:"jwt"`
	SMTP     SMTP     `yaml:"smtp"`
	Stripe   Stripe   `yaml:"stripe"`
	Limiter  Limiter  `yaml:"limiter"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Tracing  Tracing  `yaml:"tracing"`
}

type HTTP struct {
	Port        string `yaml:"port" env:"PORT" env-default:":3000"`
	BaseURL     string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:3000"`
	BodyLimit   int    `yaml:"body_limit" env:"BODY_LIMIT" env-default:"20480"`
	UploadLimit int    `yaml:"upload_limit" env:"UPLOAD_LIMIT" env-default:"10485760"`
	UploadsDir  string `yaml:"uploads_dir" env:"UPLOADS_DIR" env-default:"uploads"`
}

type Database struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"DB_URI" env-default:"database.db"`
}

type JWT struct {
	Secret    string        `yaml:"secret" env:"JWT_SECRET_KEY"`
	ExpiresIn time.Duration `yaml:"expires_in" env:"JWT_EXPIRE_TIME" env-default:"720h"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM" env-default:"E-shop <no-reply@eshop.local>"`
}

type Stripe struct {
	SecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	Currency      string `yaml:"currency" env:"STRIPE_CURRENCY" env-default:"egp"`
	// Success and cancel pages default to the orders and cart endpoints.
	SuccessURL string `yaml:"success_url" env:"STRIPE_SUCCESS_URL"`
	CancelURL  string `yaml:"cancel_url" env:"STRIPE_CANCEL_URL"`
}

type Limiter struct {
	Max    int           `yaml:"max" env:"RATE_LIMIT_MAX" env-default:"100"`
	Window time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"15m"`
}

// Redis is optional; an empty Addr keeps the rate limiter in memory.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_ORDERS_TOPIC" env-default:"orders"`
}

type Tracing struct {
	Endpoint    string `yaml:"endpoint" env:"OTEL_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"eshop"`
}

// Load reads the YAML file at path, falling back to environment variables
// alone when the file does not exist.
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error reading env config: %w", err)
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is not configured")
	}

	return &cfg, nil
}

func MustLoad() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/local.yaml"
	}

	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	return cfg
}

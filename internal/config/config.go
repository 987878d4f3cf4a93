// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	UploadDir               string `yaml:"upload_dir" env-default:"./uploads"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Telegram                `yaml:"telegram"`
	Provisioner             `yaml:"provisioner"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ структура для настройки подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"rabbitmq_url"`
	RabbitMQMaxRetries int           `yaml:"rabbitmq_max_retries" env-default:"10"`
	RabbitMQRetryDelay time.Duration `yaml:"rabbitmq_retry_delay" env-default:"3s"`
}

// JWTToken структура для работы с сессионным jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Telegram структура с настройками интеграции с Telegram: токен бота,
// идентификатор оператора, секрет webhook и окна свежести для двух потоков
// аутентификации. Окна различаются: у виджета и мини-приложения разные
// профили доверия и повторного использования данных.
type Telegram struct {
	BotToken          string        `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	OperatorChatID    int64         `yaml:"operator_chat_id"`
	WebhookSecret     string        `yaml:"webhook_secret" env:"TELEGRAM_WEBHOOK_SECRET"`
	WidgetAuthMaxAge  time.Duration `yaml:"widget_auth_max_age" env-default:"24h"`
	MiniAppAuthMaxAge time.Duration `yaml:"miniapp_auth_max_age" env-default:"2m"`
}

// Provisioner структура с настройками панели, выдающей VPN-аккаунты
type Provisioner struct {
	PanelURL      string        `yaml:"panel_url"`
	PanelAPIKey   string        `yaml:"panel_api_key" env:"PANEL_API_KEY"`
	ServerAddress string        `yaml:"server_address"`
	Timeout       time.Duration `yaml:"timeout" env-default:"15s"`
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// Package config определяет структуры для конфигурации всего приложения
// и предоставляет функцию для их загрузки из YAML-файла и переменных окружения.
// Использование библиотеки cleanenv позволяет гибко управлять конфигурацией,
// совмещая чтение из файла с переопределением через environment variables,
// что удобно для запуска как локально, так и в Docker-контейнерах.
//
// Ключи и секреты внешних систем (RetailCRM, YooKassa, Telegram) читаются
// один раз при старте процесса и дальше передаются клиентам явно —
// обработчики никогда не обращаются к окружению сами.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config - это корневая структура, объединяющая все конфигурационные
// параметры приложения. Она загружается при старте сервиса.
type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-required:"true"`
	SiteURL    string     `yaml:"site_url" env:"SITE_URL"`
	RetailCRM  RetailCRM  `yaml:"retail_crm" env-required:"true"`
	YooKassa   YooKassa   `yaml:"yookassa" env-required:"true"`
	Telegram   Telegram   `yaml:"telegram"`
	Redis      Redis      `yaml:"redis"`
	Client     Client     `yaml:"client"`
	HTTPServer HTTPServer `yaml:"http_server" env-required:"true"`
}

// RetailCRM содержит параметры доступа к CRM, в которой живут
// заказы и остатки товаров.
type RetailCRM struct {
	BaseURL string `yaml:"base_url" env:"RETAIL_CRM_BASE_URL" env-required:"true"`
	APIKey  string `yaml:"api_key" env:"RETAIL_CRM_API" env-required:"true"`
	Site    string `yaml:"site" env:"RETAIL_CRM_SITE"`
}

// YooKassa содержит учетные данные магазина в платежном шлюзе.
// TrustedNetworks позволяет переопределить встроенный список доверенных
// сетей шлюза (используется в тестовых стендах).
type YooKassa struct {
	BaseURL         string   `yaml:"base_url" env:"YOOKASSA_BASE_URL" env-default:"https://api.yookassa.ru/v3"`
	ShopID          string   `yaml:"shop_id" env:"YOOKASSA_SHOP_ID" env-required:"true"`
	SecretKey       string   `yaml:"secret_key" env:"YOOKASSA_SECRET_KEY" env-required:"true"`
	TrustedNetworks []string `yaml:"trusted_networks" env:"YOOKASSA_TRUSTED_NETWORKS"`
}

// Telegram содержит параметры бота, в который отправляется сводка
// по оплаченному заказу. Секция опциональна: без токена отправка
// уведомлений отключается.
type Telegram struct {
	BaseURL string `yaml:"base_url" env:"TELEGRAM_BASE_URL" env-default:"https://api.telegram.org"`
	Token   string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID  string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

// Redis содержит параметры подключения к Redis, на котором построен
// guard от повторной обработки одного и того же уведомления.
// Секция опциональна: без хоста guard отключается.
type Redis struct {
	Host     string        `yaml:"host" env:"REDIS_HOST"`
	Port     string        `yaml:"port" env:"REDIS_PORT"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	TTL      time.Duration `yaml:"ttl" env-default:"24h"`
}

// Client определяет таймаут на один исходящий вызов внешней системы.
// Каждый сетевой вызов обработчика ограничен этим таймаутом, чтобы
// webhook не блокировал шлюз бесконечно.
type Client struct {
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// HTTPServer содержит параметры для запуска встроенного HTTP-сервера.
type HTTPServer struct {
	Address     string        `yaml:"address" env-required:"true"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// MustLoad читает конфигурацию из файла, путь к которому указан в переменной
// окружения CONFIG_PATH, и переменных окружения.
//
// Функция имеет префикс "Must", так как она вызывает log.Fatalf (паникует)
// при любой ошибке во время загрузки или парсинга конфигурации. Такой подход
// используется при старте приложения, поскольку его дальнейшая работа без
// валидной конфигурации невозможна.
//
// Возвращает указатель на заполненную структуру Config.
func MustLoad() *Config {
	// Получаем путь к файлу конфигурации из переменной окружения.
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	// Проверяем, существует ли файл по указанному пути.
	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	// Читаем YAML-файл и переменные окружения в структуру Config.
	// cleanenv автоматически сопоставляет поля структуры с данными из источников.
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}

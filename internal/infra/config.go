package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации платформы.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера API.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr собирает адрес для http.Server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig описывает подключение к PostgreSQL (хранилище событий).
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (кэш производных представлений).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IngestConfig ограничивает входной поток батчей на границе сервиса.
type IngestConfig struct {
	RatePerSec float64 `mapstructure:"rate_per_sec"`
	Burst      int     `mapstructure:"burst"`
}

// CacheConfig задает TTL кэшируемых производных представлений.
// Корреляция и дифф считаются на чтении; кэш — чистая оптимизация,
// источник истины всегда в Postgres.
type CacheConfig struct {
	DiffTTL     time.Duration `mapstructure:"diff_ttl"`
	OverviewTTL time.Duration `mapstructure:"overview_ttl"`
}

// RelayConfig — настройки локального capture-агента (cmd/relay).
type RelayConfig struct {
	ListenAddr    string        `mapstructure:"listen_addr"`
	APIURL        string        `mapstructure:"api_url"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	MaxBatch      int           `mapstructure:"max_batch"`
	BufferSize    int           `mapstructure:"buffer_size"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")    // имя файла без расширения
	v.SetConfigType("yaml")      // формат
	v.AddConfigPath(".")         // ищем в корне
	v.AddConfigPath("./configs") // и в папке с конфигами

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("ingest.rate_per_sec", 50)
	v.SetDefault("ingest.burst", 20)
	v.SetDefault("cache.diff_ttl", 60*time.Second)
	v.SetDefault("cache.overview_ttl", 60*time.Second)
	v.SetDefault("relay.listen_addr", "127.0.0.1:4317")
	v.SetDefault("relay.api_url", "http://localhost:4000")
	v.SetDefault("relay.flush_interval", 1500*time.Millisecond)
	v.SetDefault("relay.max_batch", 100)
	v.SetDefault("relay.buffer_size", 10000)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

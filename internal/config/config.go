package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"VERBIS_ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
	Provider ProviderConfig `yaml:"provider"`
	Auth     AuthConfig     `yaml:"auth"`
	Relay    RelayConfig    `yaml:"relay"`
}

type HTTPConfig struct {
	Address     string   `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	CORSOrigins []string `yaml:"cors_origins" env:"HTTP_CORS_ORIGINS" env-separator:","`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" env:"DATABASE_URL"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig is optional. An empty Addr disables the redis cache driver and
// the asynq purge scheduler.
type RedisConfig struct {
	Addr      string `yaml:"addr" env:"REDIS_ADDR"`
	Password  string `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"REDIS_DB"`
	KeyPrefix string `yaml:"key_prefix"`
}

type CacheConfig struct {
	Driver        string        `yaml:"driver" env:"CACHE_DRIVER"`
	Retention     time.Duration `yaml:"retention"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

type ProviderConfig struct {
	APIKey    string        `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL   string        `yaml:"base_url" env:"OPENAI_BASE_URL"`
	ChatModel string        `yaml:"chat_model"`
	STTModel  string        `yaml:"stt_model"`
	TTSModel  string        `yaml:"tts_model"`
	Timeout   time.Duration `yaml:"timeout"`
	Breaker   BreakerConfig `yaml:"breaker"`
}

type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"JWT_EXPIRES_IN"`
}

type RelayConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
	SendBuffer    int `yaml:"send_buffer"`
	MaxTextLength int `yaml:"max_text_length"`
}

const (
	CacheDriverPostgres = "postgres"
	CacheDriverRedis    = "redis"
)

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":3000"
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}

	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}

	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "verbis:"
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheDriverPostgres
	}
	if c.Cache.Retention == 0 {
		c.Cache.Retention = 30 * 24 * time.Hour
	}
	if c.Cache.PurgeInterval == 0 {
		c.Cache.PurgeInterval = time.Hour
	}

	if c.Provider.ChatModel == "" {
		c.Provider.ChatModel = "gpt-3.5-turbo"
	}
	if c.Provider.STTModel == "" {
		c.Provider.STTModel = "whisper-1"
	}
	if c.Provider.TTSModel == "" {
		c.Provider.TTSModel = "tts-1"
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 15 * time.Second
	}
	if c.Provider.Breaker.MaxFailures == 0 {
		c.Provider.Breaker.MaxFailures = 5
	}
	if c.Provider.Breaker.OpenTimeout == 0 {
		c.Provider.Breaker.OpenTimeout = 30 * time.Second
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	if c.Relay.MaxConcurrent == 0 {
		c.Relay.MaxConcurrent = 4
	}
	if c.Relay.SendBuffer == 0 {
		c.Relay.SendBuffer = 32
	}
	if c.Relay.MaxTextLength == 0 {
		c.Relay.MaxTextLength = 4000
	}
}

package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Cron       CronConfig       `mapstructure:"cron"`
	PublicData PublicDataConfig `mapstructure:"public_data"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Directory  DirectoryConfig  `mapstructure:"directory"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
	// AuthDisabled opens the sync endpoints without a bearer token.
	AuthDisabled bool `mapstructure:"auth_disabled"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	PoolSync string `mapstructure:"pool_sync"`
}

// PublicDataConfig points at the data.go.kr open API gateway.
// A zero Timeout leaves outbound requests unbounded.
type PublicDataConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	ServiceKey        string        `mapstructure:"service_key"`
	LocalDataEndpoint string        `mapstructure:"local_data_endpoint"`
	PageSize          int           `mapstructure:"page_size"`
	PageDelay         time.Duration `mapstructure:"page_delay"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type SyncConfig struct {
	Source          string `mapstructure:"source"`
	NaturalKey      string `mapstructure:"natural_key"`
	MaxPages        int    `mapstructure:"max_pages"`
	MaxLoggedErrors int    `mapstructure:"max_logged_errors"`
	APIToken        string `mapstructure:"api_token"`
}

type DirectoryConfig struct {
	CountCacheTTL time.Duration `mapstructure:"count_cache_ttl"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	// Plain names used by existing deployments.
	_ = v.BindEnv("public_data.service_key", "POOL_PUBLIC_DATA_SERVICE_KEY", "PUBLIC_DATA_API_KEY")
	_ = v.BindEnv("db.dsn", "POOL_DB_DSN", "DATABASE_URL")
	_ = v.BindEnv("sync.api_token", "POOL_SYNC_API_TOKEN", "POOL_SYNC_TOKEN")
	_ = v.BindEnv("server.auth_disabled", "POOL_SERVER_AUTH_DISABLED", "POOL_AUTH_DISABLED")

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.auth_disabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", true)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.max_open_conns", 5)
	v.SetDefault("db.max_idle_conns", 1)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "Asia/Seoul")
	v.SetDefault("cron.enabled", false)
	v.SetDefault("cron.pool_sync", "0 0 4 * * *")
	v.SetDefault("public_data.base_url", "https://apis.data.go.kr")
	v.SetDefault("public_data.local_data_endpoint", "/1741000/swimming_pools/info")
	v.SetDefault("public_data.page_size", 1000)
	v.SetDefault("public_data.page_delay", "300ms")
	v.SetDefault("public_data.timeout", "0s")
	v.SetDefault("sync.source", "national_facility")
	v.SetDefault("sync.natural_key", "slug")
	v.SetDefault("sync.max_pages", 0)
	v.SetDefault("sync.max_logged_errors", 5)
	v.SetDefault("directory.count_cache_ttl", "5m")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadDotEnv loads the first-found dotenv files into the process environment.
// Variables that are already set are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env.local", ".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}

var (
	ErrMissingServiceKey = errors.New("public data service key is not configured (PUBLIC_DATA_API_KEY)")
	ErrMissingDSN        = errors.New("database dsn is not configured (DATABASE_URL)")
)

// Validate reports configuration the sync cannot run without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.PublicData.ServiceKey) == "" {
		errs = append(errs, ErrMissingServiceKey)
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		errs = append(errs, ErrMissingDSN)
	}
	return errors.Join(errs...)
}

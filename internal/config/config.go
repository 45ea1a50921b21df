package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"auction-platform/internal/schedule"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Leader   LeaderConfig   `mapstructure:"leader"`
	Instance InstanceConfig `mapstructure:"instance"`
	Auction  AuctionConfig  `mapstructure:"auction"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig selects the ledger backend: "mysql" in production, "memory"
// for local runs without a database.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

// AuctionConfig describes the weekly window and the per-role seat caps applied
// to newly provisioned windows. A cap of 0 means unbounded.
type AuctionConfig struct {
	Weekday    string `mapstructure:"weekday"`
	OpenHour   int    `mapstructure:"open_hour"`
	CloseHour  int    `mapstructure:"close_hour"`
	Timezone   string `mapstructure:"timezone"`
	MaxBuyers  int    `mapstructure:"max_buyers"`
	MaxSellers int    `mapstructure:"max_sellers"`
}

type CacheConfig struct {
	ServeStale bool `mapstructure:"serve_stale"`
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("storage.backend", "mysql")
	viper.SetDefault("leader.ttl", 30*time.Second)
	viper.SetDefault("instance.id", "auction-platform-1")
	viper.SetDefault("auction.weekday", "Friday")
	viper.SetDefault("auction.open_hour", 7)
	viper.SetDefault("auction.close_hour", 22)
	viper.SetDefault("auction.timezone", "Asia/Kuwait")
	viper.SetDefault("auction.max_buyers", 0)
	viper.SetDefault("auction.max_sellers", 0)
	viper.SetDefault("cache.serve_stale", true)

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/auction-platform/")

	// Environment variable support
	viper.AutomaticEnv()

	// Environment variable mappings
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("storage.backend", "STORAGE_BACKEND")
	viper.BindEnv("leader.ttl", "LEADER_TTL")
	viper.BindEnv("instance.id", "INSTANCE_ID")
	viper.BindEnv("auction.weekday", "AUCTION_WEEKDAY")
	viper.BindEnv("auction.open_hour", "AUCTION_OPEN_HOUR")
	viper.BindEnv("auction.close_hour", "AUCTION_CLOSE_HOUR")
	viper.BindEnv("auction.timezone", "AUCTION_TIMEZONE")
	viper.BindEnv("auction.max_buyers", "AUCTION_MAX_BUYERS")
	viper.BindEnv("auction.max_sellers", "AUCTION_MAX_SELLERS")
	viper.BindEnv("cache.serve_stale", "CACHE_SERVE_STALE")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, continue with defaults and environment variables
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// A malformed schedule is fatal: fail here rather than at the first tick.
	if _, err := config.Auction.Schedule(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Schedule builds the validated weekly schedule from the raw config values.
func (a AuctionConfig) Schedule() (schedule.WeeklySchedule, error) {
	return schedule.New(a.Weekday, a.OpenHour, a.CloseHour, a.Timezone)
}

// BuyerCap returns the configured buyer cap, nil when unbounded.
func (a AuctionConfig) BuyerCap() *int {
	return capOrNil(a.MaxBuyers)
}

// SellerCap returns the configured seller cap, nil when unbounded.
func (a AuctionConfig) SellerCap() *int {
	return capOrNil(a.MaxSellers)
}

func capOrNil(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Redis: %s, Storage: %s, Auction: %s %02d:00-%02d:00 %s, Instance: %s",
		c.Server.Host,
		c.Server.Port,
		c.Redis.Address,
		c.Storage.Backend,
		c.Auction.Weekday,
		c.Auction.OpenHour,
		c.Auction.CloseHour,
		c.Auction.Timezone,
		c.Instance.ID,
	)
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Channel  ChannelConfig  `mapstructure:"channel"`
	Store    StoreConfig    `mapstructure:"store"`
	Identity IdentityConfig `mapstructure:"identity"`
	View     ViewConfig     `mapstructure:"view"`
	Resync   ResyncConfig   `mapstructure:"resync"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Mock     MockConfig     `mapstructure:"mock"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig points at the voting backend.
type ServerConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	WSPath         string        `mapstructure:"ws_path"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type ChannelConfig struct {
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval"`
	HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout"`
}

type StoreConfig struct {
	NotificationTTL time.Duration `mapstructure:"notification_ttl"`
	ErrorTTL        time.Duration `mapstructure:"error_ttl"`
}

type IdentityConfig struct {
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
	UserAgent string `mapstructure:"user_agent"`
	Screen    string `mapstructure:"screen"`
}

type ViewConfig struct {
	Listen string `mapstructure:"listen"`
}

type ResyncConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Address     string        `mapstructure:"address"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	Channel     string        `mapstructure:"channel"`
	SnapshotKey string        `mapstructure:"snapshot_key"`
	LeaseKey    string        `mapstructure:"lease_key"`
	LeaseTTL    time.Duration `mapstructure:"lease_ttl"`
}

type MySQLConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type MockConfig struct {
	Host       string   `mapstructure:"host"`
	Port       int      `mapstructure:"port"`
	Candidates []string `mapstructure:"candidates"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.base_url", "http://localhost:8000")
	v.SetDefault("server.ws_path", "/ws")
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("channel.reconnect_interval", 5*time.Second)
	v.SetDefault("channel.handshake_timeout", 10*time.Second)
	v.SetDefault("store.notification_ttl", 3*time.Second)
	v.SetDefault("store.error_ttl", 5*time.Second)
	v.SetDefault("identity.path", "./livevote.db")
	v.SetDefault("identity.namespace", "easywahl_client_id")
	v.SetDefault("identity.user_agent", "livevote/1.0")
	v.SetDefault("identity.screen", "0x0")
	v.SetDefault("view.listen", "")
	v.SetDefault("resync.interval", 30*time.Second)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "live_votes")
	v.SetDefault("redis.snapshot_key", "live_votes:results")
	v.SetDefault("redis.lease_key", "live_votes:mirror_leader")
	v.SetDefault("redis.lease_ttl", 15*time.Second)
	v.SetDefault("mysql.enabled", false)
	v.SetDefault("mysql.dsn", "vote_user:vote_pass@tcp(localhost:3306)/vote_db?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 10)
	v.SetDefault("mysql.max_idle_conns", 5)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("mock.host", "0.0.0.0")
	v.SetDefault("mock.port", 8000)
	v.SetDefault("mock.candidates", []string{"Alice", "Bob", "Carol"})
	v.SetDefault("log.level", "info")
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("server.base_url", "SERVER_BASE_URL")
	v.BindEnv("server.ws_path", "SERVER_WS_PATH")
	v.BindEnv("server.request_timeout", "SERVER_REQUEST_TIMEOUT")
	v.BindEnv("channel.reconnect_interval", "CHANNEL_RECONNECT_INTERVAL")
	v.BindEnv("channel.handshake_timeout", "CHANNEL_HANDSHAKE_TIMEOUT")
	v.BindEnv("identity.path", "IDENTITY_PATH")
	v.BindEnv("view.listen", "VIEW_LISTEN")
	v.BindEnv("resync.interval", "RESYNC_INTERVAL")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("redis.lease_ttl", "REDIS_LEASE_TTL")
	v.BindEnv("mysql.enabled", "MYSQL_ENABLED")
	v.BindEnv("mysql.dsn", "MYSQL_DSN")
	v.BindEnv("mock.port", "MOCK_PORT")
	v.BindEnv("log.level", "LOG_LEVEL")
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Configuration file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/live-voting/")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path, on top of the defaults.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// WebSocketURL derives the push channel endpoint from the REST base URL.
func (c *Config) WebSocketURL() string {
	base := strings.TrimRight(c.Server.BaseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + c.Server.WSPath
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s, WS: %s, Reconnect: %s, View: %q, Redis: %t, MySQL: %t",
		c.Server.BaseURL,
		c.WebSocketURL(),
		c.Channel.ReconnectInterval,
		c.View.Listen,
		c.Redis.Enabled,
		c.MySQL.Enabled,
	)
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const devSecretKey = "un_secreto_por_defecto_si_no_hay_env"

// Config хранит все параметры приложения
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
	Session  SessionConfig
	Log      LogConfig
	Notify   NotifyConfig
	Realtime RealtimeConfig
	Orders   OrdersConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port int
}

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool
}

type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
	UseTLS   bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
	Store      string // memory | redis
	BcryptCost int
}

type LogConfig struct {
	Level  string
	Format string // json | console
}

type NotifyConfig struct {
	Broker       string // local | rabbitmq
	Exchange     string
	SharedSecret string
}

type RealtimeConfig struct {
	SendBuffer     int
	PingInterval   time.Duration
	SessionCheck   time.Duration
	AllowedOrigins []string
}

type OrdersConfig struct {
	PageSize    int
	MaxPageSize int
}

func (c *Config) IsDevelopment() bool { return c.App.Env == "development" }

// Load reads configuration from an optional YAML file and the environment.
// Priority: ADMIN_* env vars and the legacy DB_*/SECRET_KEY names, then the
// file, then built-in defaults. An empty path searches config.yaml in . and ./deploy.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./deploy")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("couldn't read the configuration file: %w", err)
		}
	}

	v.SetEnvPrefix("ADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetInt("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("database.host"),
			Port:        v.GetInt("database.port"),
			User:        v.GetString("database.user"),
			Password:    v.GetString("database.password"),
			Database:    v.GetString("database.database"),
			SSLMode:     v.GetString("database.sslmode"),
			MaxConns:    v.GetInt("database.max_conns"),
			AutoMigrate: v.GetBool("database.auto_migrate"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     v.GetString("rabbitmq.host"),
			Port:     v.GetInt("rabbitmq.port"),
			User:     v.GetString("rabbitmq.user"),
			Password: v.GetString("rabbitmq.password"),
			VHost:    v.GetString("rabbitmq.vhost"),
			UseTLS:   v.GetBool("rabbitmq.use_tls"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Session: SessionConfig{
			Secret:     v.GetString("session.secret"),
			TTL:        v.GetDuration("session.ttl"),
			CookieName: v.GetString("session.cookie_name"),
			Secure:     v.GetBool("session.secure"),
			Store:      v.GetString("session.store"),
			BcryptCost: v.GetInt("session.bcrypt_cost"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Notify: NotifyConfig{
			Broker:       v.GetString("notify.broker"),
			Exchange:     v.GetString("notify.exchange"),
			SharedSecret: v.GetString("notify.shared_secret"),
		},
		Realtime: RealtimeConfig{
			SendBuffer:     v.GetInt("realtime.send_buffer"),
			PingInterval:   v.GetDuration("realtime.ping_interval"),
			SessionCheck:   v.GetDuration("realtime.session_check"),
			AllowedOrigins: v.GetStringSlice("realtime.allowed_origins"),
		},
		Orders: OrdersConfig{
			PageSize:    v.GetInt("orders.page_size"),
			MaxPageSize: v.GetInt("orders.max_page_size"),
		},
	}

	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindLegacyEnv keeps the variable names the deployment already exports.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("app.env", "ADMIN_APP_ENV", "FLASK_ENV")
	_ = v.BindEnv("database.host", "ADMIN_DATABASE_HOST", "DB_HOST")
	_ = v.BindEnv("database.port", "ADMIN_DATABASE_PORT", "DB_PORT")
	_ = v.BindEnv("database.user", "ADMIN_DATABASE_USER", "DB_USER")
	_ = v.BindEnv("database.password", "ADMIN_DATABASE_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("database.database", "ADMIN_DATABASE_DATABASE", "DB_NAME")
	_ = v.BindEnv("session.secret", "ADMIN_SESSION_SECRET", "SECRET_KEY")
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "restaurant-admin"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == 0 {
		cfg.App.Port = 5001
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = "restaurant"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}
	if cfg.RabbitMQ.VHost == "" {
		cfg.RabbitMQ.VHost = "/"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Session.Secret == "" && cfg.IsDevelopment() {
		cfg.Session.Secret = devSecretKey
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 12 * time.Hour
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "admin_session"
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "memory"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.IsDevelopment() {
			cfg.Log.Format = "console"
		} else {
			cfg.Log.Format = "json"
		}
	}
	if cfg.Notify.Broker == "" {
		cfg.Notify.Broker = "local"
	}
	if cfg.Notify.Exchange == "" {
		cfg.Notify.Exchange = "admin_dashboard_fanout"
	}
	if cfg.Realtime.SendBuffer == 0 {
		cfg.Realtime.SendBuffer = 64
	}
	if cfg.Realtime.PingInterval == 0 {
		cfg.Realtime.PingInterval = 30 * time.Second
	}
	if cfg.Realtime.SessionCheck == 0 {
		cfg.Realtime.SessionCheck = time.Minute
	}
	if cfg.Orders.PageSize == 0 {
		cfg.Orders.PageSize = 50
	}
	if cfg.Orders.MaxPageSize == 0 {
		cfg.Orders.MaxPageSize = 200
	}
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		return errors.New("invalid config: session secret (SECRET_KEY) is required outside development")
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid config: unknown session store %q", c.Session.Store)
	}
	switch c.Notify.Broker {
	case "local", "rabbitmq":
	default:
		return fmt.Errorf("invalid config: unknown notify broker %q", c.Notify.Broker)
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid config: port %d out of range", c.App.Port)
	}
	return nil
}

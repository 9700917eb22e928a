package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	Admin     AdminConfig
	JWT       JWTConfig
	Mail      MailConfig
	RateLimit RateLimitConfig
	Persist   PersistConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// IsDevelopment reports whether the server runs outside production
func (s ServerConfig) IsDevelopment() bool {
	return s.Env != "production"
}

type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	Host       string
	Port       string
	User       string
	Password   string
	Database   string
	Schema     string
	SSLMode    string
	SQLitePath string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port for the redis client
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type SessionConfig struct {
	CookieName   string
	TTL          time.Duration
	SecureCookie bool
}

type AdminConfig struct {
	Username     string
	Password     string // plain text, hashed at startup when PasswordHash is empty
	PasswordHash string
}

type JWTConfig struct {
	Secret      string
	AdminExpiry int // in minutes
}

type MailConfig struct {
	Server     string
	Port       int
	Username   string
	Password   string
	From       string
	StoreName  string
	QueueSize  int
	MaxRetries int
}

// Enabled reports whether an SMTP server is configured
func (m MailConfig) Enabled() bool {
	return m.Server != ""
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type PersistConfig struct {
	MaxRetries int
}

func Load() *Config {
	// Populate the process environment first so everything reading os.Getenv agrees with viper
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not loaded: %v", err)
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "data/store.db")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SESSION_COOKIE_NAME", "sid")
	viper.SetDefault("SESSION_TTL_HOURS", 168)
	viper.SetDefault("SESSION_SECURE_COOKIE", false)
	viper.SetDefault("ADMIN_USERNAME", "admin")
	viper.SetDefault("JWT_ADMIN_EXPIRY", 720)
	viper.SetDefault("MAIL_PORT", 587)
	viper.SetDefault("STORE_NAME", "Jams Store")
	viper.SetDefault("MAIL_QUEUE_SIZE", 100)
	viper.SetDefault("MAIL_MAX_RETRIES", 3)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 60)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("PERSIST_MAX_RETRIES", 2)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	mailFrom := viper.GetString("MAIL_FROM")
	if mailFrom == "" {
		mailFrom = viper.GetString("MAIL_USERNAME")
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:     viper.GetString("DB_DRIVER"),
			Host:       viper.GetString("DB_HOST"),
			Port:       viper.GetString("DB_PORT"),
			User:       viper.GetString("DB_USER"),
			Password:   viper.GetString("DB_PASSWORD"),
			Database:   viper.GetString("DB_DATABASE"),
			Schema:     viper.GetString("DB_SCHEMA"),
			SSLMode:    viper.GetString("DB_SSLMODE"),
			SQLitePath: viper.GetString("SQLITE_PATH"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Session: SessionConfig{
			CookieName:   viper.GetString("SESSION_COOKIE_NAME"),
			TTL:          time.Duration(viper.GetInt("SESSION_TTL_HOURS")) * time.Hour,
			SecureCookie: viper.GetBool("SESSION_SECURE_COOKIE"),
		},
		Admin: AdminConfig{
			Username:     viper.GetString("ADMIN_USERNAME"),
			Password:     viper.GetString("ADMIN_PASSWORD"),
			PasswordHash: viper.GetString("ADMIN_PASSWORD_HASH"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			AdminExpiry: viper.GetInt("JWT_ADMIN_EXPIRY"),
		},
		Mail: MailConfig{
			Server:     viper.GetString("MAIL_SERVER"),
			Port:       viper.GetInt("MAIL_PORT"),
			Username:   viper.GetString("MAIL_USERNAME"),
			Password:   viper.GetString("MAIL_PASSWORD"),
			From:       mailFrom,
			StoreName:  viper.GetString("STORE_NAME"),
			QueueSize:  viper.GetInt("MAIL_QUEUE_SIZE"),
			MaxRetries: viper.GetInt("MAIL_MAX_RETRIES"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   time.Duration(viper.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		Persist: PersistConfig{
			MaxRetries: viper.GetInt("PERSIST_MAX_RETRIES"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

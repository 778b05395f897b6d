package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"learningsite/logger"
	"learningsite/models"
)

type Config struct {
	Env         string
	Port        string
	BindAddress string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	RedisEnabled bool
	RedisHost    string
	RedisPort    string

	JWTSecret string
	LoginURL  string

	SuggestionRecipient string
	SendGridAPIKey      string
	DefaultFromEmail    string
	AppName             string

	RollbarToken   string
	StaticDir      string
	AllowedOrigins []string
}

const defaultJWTSecret = "your-secret-key-change-in-production"

func (c *Config) IsProd() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	// a missing .env is fine: the environment may already be populated
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("BIND_ADDRESS", "localhost")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "learningsite")
	v.SetDefault("DB_PASSWORD", "learningsite")
	v.SetDefault("DB_NAME", "learningsite")
	v.SetDefault("DB_PATH", "learningsite.db")
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("LOGIN_URL", "/accounts/login/")
	v.SetDefault("SUGGESTION_RECIPIENT", "suggestions@localhost")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("DEFAULT_FROM_EMAIL", "noreply@localhost")
	v.SetDefault("APP_NAME", "Learning Site")
	v.SetDefault("ROLLBAR_TOKEN", "")
	v.SetDefault("STATIC_DIR", "static")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.AutomaticEnv()

	return &Config{
		Env:                 v.GetString("ENV"),
		Port:                v.GetString("PORT"),
		BindAddress:         v.GetString("BIND_ADDRESS"),
		DBDriver:            strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:              v.GetString("DB_HOST"),
		DBPort:              v.GetString("DB_PORT"),
		DBUser:              v.GetString("DB_USER"),
		DBPassword:          v.GetString("DB_PASSWORD"),
		DBName:              v.GetString("DB_NAME"),
		DBPath:              v.GetString("DB_PATH"),
		RedisEnabled:        v.GetBool("REDIS_ENABLED"),
		RedisHost:           v.GetString("REDIS_HOST"),
		RedisPort:           v.GetString("REDIS_PORT"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		LoginURL:            v.GetString("LOGIN_URL"),
		SuggestionRecipient: v.GetString("SUGGESTION_RECIPIENT"),
		SendGridAPIKey:      v.GetString("SENDGRID_API_KEY"),
		DefaultFromEmail:    v.GetString("DEFAULT_FROM_EMAIL"),
		AppName:             v.GetString("APP_NAME"),
		RollbarToken:        v.GetString("ROLLBAR_TOKEN"),
		StaticDir:           v.GetString("STATIC_DIR"),
		AllowedOrigins:      splitList(v.GetString("ALLOWED_ORIGINS")),
	}
}

// Validate rejects settings that must not reach production.
func (c *Config) Validate() error {
	if c.IsProd() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Dialector picks the gorm driver for the configured database.
func (c *Config) Dialector() (gorm.Dialector, error) {
	switch c.DBDriver {
	case "", "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(c.DBPath + "?_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
}

func InitDB(cfg *Config, log *logger.Logger) (*gorm.DB, error) {
	dialector, err := cfg.Dialector()
	if err != nil {
		return nil, err
	}

	level := gormlogger.Info
	if cfg.IsProd() {
		level = gormlogger.Warn
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.NewGormLogger(log, level)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Text{},
		&models.Quiz{},
		&models.Question{},
		&models.Answer{},
	)
}

func InitRedis(cfg *Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	return client
}

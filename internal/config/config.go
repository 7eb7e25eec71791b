package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	ServerPort     string
	JWTSecret      string
	JWTExpiry      time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisChannel   string
	CacheTTL       time.Duration
	LogLevel       logrus.Level
	MigrateOnStart bool
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5431"),
		DBUser:         getEnv("DB_USER", "workboard_user"),
		DBPassword:     getEnv("DB_PASSWORD", "workboard_pass"),
		DBName:         getEnv("DB_NAME", "workboard_db"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiry:      time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 72)) * time.Hour,
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisChannel:   getEnv("REDIS_CHANNEL", "board-changes"),
		CacheTTL:       time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second,
		LogLevel:       getEnvLevel("LOG_LEVEL", logrus.InfoLevel),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),
	}
}

// DSN is the postgres connection string for gorm.
func (c *Config) DSN() string {
	return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
		" password=" + c.DBPassword + " dbname=" + c.DBName + " sslmode=disable"
}

// MigrateURL is the same database as a pgx5:// URL for golang-migrate.
func (c *Config) MigrateURL() string {
	return "pgx5://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=disable"
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithField("key", key).Warnf("⚠️  invalid integer %q, using %d", value, defaultVal)
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		logrus.WithField("key", key).Warnf("⚠️  invalid boolean %q, using %t", value, defaultVal)
		return defaultVal
	}
	return b
}

func getEnvLevel(key string, defaultVal logrus.Level) logrus.Level {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	level, err := logrus.ParseLevel(value)
	if err != nil {
		logrus.WithField("key", key).Warnf("⚠️  invalid log level %q, using %s", value, defaultVal)
		return defaultVal
	}
	return level
}

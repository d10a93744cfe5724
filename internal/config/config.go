package config

import (
	"os"
	"strconv"
	"strings"
)

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	Host              string
	Port              string
	User              string
	Password          string
	Database          string
	AuthSource        string
	ReplicaSet        string
	MaxPoolSize       uint64
	MinPoolSize       uint64
	ConnectTimeoutSec int
}

// MinIOConfig holds object storage settings for MinIO (export sink).
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// APIConfig controls how collections are exposed as REST resources.
type APIConfig struct {
	// IDField is the client-facing name for Mongo's _id.
	IDField string
	// RegexSuffix marks filter args that should become case-insensitive
	// $regex queries (e.g. nameRegex=jo).
	RegexSuffix string
	// ExcludeFields are stripped from every serialized document.
	ExcludeFields []string
	// Collections is an allow-list of exposed collections; empty means
	// every collection in the database is exposed.
	Collections []string
	// DefaultPageSize applies when a list request carries no size arg.
	DefaultPageSize int64
	// ExportExpirySec bounds the lifetime of presigned export URLs.
	ExportExpirySec int
}

// LogConfig controls the zap logger and the optional rotating file sink.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost string
	Port    string
	Mongo   MongoConfig
	MinIO   MinIOConfig
	API     APIConfig
	Log     LogConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		Mongo: MongoConfig{
			Host:              getEnv("MONGO_HOST", ""),
			Port:              getEnv("MONGO_PORT", "27017"),
			User:              getEnv("MONGO_USER", ""),
			Password:          getEnv("MONGO_PASSWORD", ""),
			Database:          getEnv("MONGO_DATABASE", ""),
			AuthSource:        getEnv("MONGO_AUTH_SOURCE", "admin"),
			ReplicaSet:        getEnv("MONGO_REPLICA_SET", ""),
			MaxPoolSize:       uint64(getEnvInt("MONGO_MAX_POOL_SIZE", 100)),
			MinPoolSize:       uint64(getEnvInt("MONGO_MIN_POOL_SIZE", 0)),
			ConnectTimeoutSec: getEnvInt("MONGO_CONNECT_TIMEOUT_SEC", 10),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		API: APIConfig{
			IDField:         getEnv("API_ID_FIELD", "id"),
			RegexSuffix:     getEnv("API_REGEX_SUFFIX", "Regex"),
			ExcludeFields:   getEnvList("API_EXCLUDE_FIELDS"),
			Collections:     getEnvList("API_COLLECTIONS"),
			DefaultPageSize: int64(getEnvInt("API_DEFAULT_PAGE_SIZE", 10)),
			ExportExpirySec: getEnvInt("API_EXPORT_EXPIRY_SEC", 900),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port string

	DatabaseURL      string
	DBMaxOpenConns   int
	JWTSecret        string
	JWTExpiresIn     time.Duration
	ObjectStore      string // "s3" or "minio"
	AwsAccessKey     string
	AwsSecretKey     string
	AwsRegion        string
	BucketName       string
	S3Endpoint       string
	MinioEndpoint    string
	MinioUseSSL      bool
	PresignExpiry    time.Duration
	IngestionURL     string
	IngestionTimeout time.Duration

	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
	AuthRatePerMin int

	// Warnings lists values that could not be parsed and fell back to defaults.
	Warnings []string
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfig loads the environment variables and return config
func LoadConfig() (*Config, error) {

	_ = godotenv.Load()

	var warns []string
	cfg := &Config{
		Env:              getEnv("ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:   getEnvInt(&warns, "DB_MAX_OPEN_CONNS", 20),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTExpiresIn:     getEnvDuration(&warns, "JWT_EXPIRES_IN", 24*time.Hour),
		ObjectStore:      strings.ToLower(getEnv("OBJECT_STORE", "s3")),
		AwsAccessKey:     getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:     getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:        getEnv("AWS_REGION", "us-east-2"),
		BucketName:       getEnv("BUCKET_NAME", "docflow-docs"),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		MinioEndpoint:    getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioUseSSL:      getEnvBool(&warns, "MINIO_USE_SSL", false),
		PresignExpiry:    getEnvDuration(&warns, "PRESIGN_EXPIRY", time.Hour),
		IngestionURL:     getEnv("INGESTION_SERVICE_URL", ""),
		IngestionTimeout: getEnvDuration(&warns, "INGESTION_TIMEOUT", 30*time.Second),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		AllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		AuthRatePerMin:   getEnvInt(&warns, "AUTH_RATE_PER_MIN", 30),
	}
	cfg.Warnings = warns

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET not set")
	}
	if c.IsProduction() && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}
	if c.IngestionURL == "" {
		return fmt.Errorf("INGESTION_SERVICE_URL not set")
	}
	switch c.ObjectStore {
	case "s3", "minio":
	default:
		return fmt.Errorf("OBJECT_STORE must be s3 or minio, got %q", c.ObjectStore)
	}
	if c.BucketName == "" {
		return fmt.Errorf("BUCKET_NAME not set")
	}
	if c.PresignExpiry <= 0 {
		return fmt.Errorf("PRESIGN_EXPIRY must be positive")
	}
	return nil
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(warns *[]string, key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*warns = append(*warns, fmt.Sprintf("%s=%q not an int, using default %d", key, v, def))
		return def
	}
	return n
}

func getEnvBool(warns *[]string, key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*warns = append(*warns, fmt.Sprintf("%s=%q not a bool, using default %t", key, v, def))
		return def
	}
	return b
}

// getEnvDuration accepts Go durations ("90s", "24h") or a bare number of seconds.
func getEnvDuration(warns *[]string, key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*warns = append(*warns, fmt.Sprintf("%s=%q not a duration, using default %s", key, v, def))
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

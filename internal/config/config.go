package config

import (
	"os"
)

// Config holds environment-driven settings shared by the services
type Config struct {
	Env string `env:"ENV"`

	// PostgreSQL
	DBHost    string `env:"DB_HOST"`
	DBPort    string `env:"DB_PORT"`
	DBUser    string `env:"DB_USER"`
	DBPass    string `env:"DB_PASSWORD"`
	DBName    string `env:"DB_NAME"`
	DBSSLMode string `env:"DB_SSLMODE"`

	// Redis
	RedisHost string `env:"REDIS_HOST"`

	// MinIO
	MinIOEndpoint  string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY"`
	MinIOPublicURL string `env:"MINIO_PUBLIC_URL"`
	MinIOBucket    string `env:"MINIO_BUCKET"`

	// Auth
	JWTSecret string `env:"JWT_SECRET"`

	// External collaborators
	OpenWeatherAPIKey string `env:"OPENWEATHER_API_KEY"`
	SpeechSTTURL      string `env:"SPEECH_STT_URL"`
	SpeechTTSURL      string `env:"SPEECH_TTS_URL"`
}

// LoadConfig reads environment variables (from the OS or Docker)
func LoadConfig() *Config {
	return &Config{
		Env:               getEnv("ENV", "development"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPass:            getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "nammaraitha"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		RedisHost:         getEnv("REDIS_HOST", "localhost"),
		MinIOEndpoint:     getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey:    getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey:    getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOPublicURL:    getEnv("MINIO_PUBLIC_URL", "http://localhost:9000"),
		MinIOBucket:       getEnv("MINIO_BUCKET", "produce-images"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		OpenWeatherAPIKey: getEnv("OPENWEATHER_API_KEY", ""),
		SpeechSTTURL:      getEnv("SPEECH_STT_URL", "http://localhost:9100"),
		SpeechTTSURL:      getEnv("SPEECH_TTS_URL", "http://localhost:9101"),
	}
}

// GetDBConnectionString returns the PostgreSQL connection string
func (c *Config) GetDBConnectionString() string {
	connStr := "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
		" password=" + c.DBPass + " dbname=" + c.DBName + " sslmode=" + c.DBSSLMode
	return connStr
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":6379"
}

// helper to read an env var with a default
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

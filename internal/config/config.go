package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For durations and locations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort        string         // Application port
	DBDriver       string         // mysql or sqlite
	DBUser         string         // Database user
	DBPassword     string         // Database password
	DBHost         string         // Database host
	DBPort         string         // Database port
	DBName         string         // Database name (file path for sqlite)
	JWTSecret      string         // JWT secret key
	JWTExpiresIn   time.Duration  // Token lifetime
	RedisAddr      string         // Redis server address, empty disables cache and rate limit
	RedisPass      string         // Redis password
	RedisDB        int            // Redis database number
	CacheTTL       time.Duration  // Lifetime of cached wallet and history responses
	RateLimit      int            // Requests per user and path per RateWindow
	RateWindow     time.Duration  // Rate limit window
	ReportLocation *time.Location // Location used to interpret report dates
	CORSOrigins    []string       // Allowed browser origins
	IsProd         bool           // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:        getEnv("APP_PORT", "8080"),
		DBDriver:       getEnv("DB_DRIVER", "mysql"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBHost:         getEnv("DB_HOST", "127.0.0.1"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBName:         getEnv("DB_NAME", "rocketcoins"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiresIn:   getDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPass:      os.Getenv("REDIS_PASS"),
		RedisDB:        getInt("REDIS_DB", 0),
		CacheTTL:       getDuration("CACHE_TTL", 60*time.Second),
		RateLimit:      getInt("RATE_LIMIT", 100),
		RateWindow:     getDuration("RATE_WINDOW", time.Minute),
		ReportLocation: getLocation("REPORT_TIMEZONE", time.UTC),
		CORSOrigins:    []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		IsProd:         os.Getenv("IS_PROD") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go durations ("90s", "168h") and a day suffix ("7d").
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if n := len(v); n > 1 && v[n-1] == 'd' {
		if days, err := strconv.Atoi(v[:n-1]); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getLocation(key string, fallback *time.Location) *time.Location {
	name := os.Getenv(key)
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}

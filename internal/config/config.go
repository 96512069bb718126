package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/marketloom/socialconnect/internal/domain"
)

// PlatformCredentials holds the OAuth client pair for one platform.
type PlatformCredentials struct {
	ClientID     string
	ClientSecret string
}

// Config contains runtime configuration values.
type Config struct {
	Environment     string
	HTTPPort        string
	AppBaseURL      string
	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	SessionKey      []byte
	StateTTL        time.Duration
	ProviderTimeout time.Duration
	ServiceName     string
	RateLimitRPM    int

	TelemetryEndpoint string
	TelemetryInsecure bool

	// Credentials keyed by platform, sourced from {PLATFORM}_CLIENT_ID and
	// {PLATFORM}_CLIENT_SECRET. Secrets live here and nowhere else.
	Platforms map[domain.Platform]PlatformCredentials
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	appBaseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("APP_BASE_URL")), "/")
	if appBaseURL == "" {
		return Config{}, fmt.Errorf("APP_BASE_URL is required")
	}
	if _, err := url.Parse(appBaseURL); err != nil {
		return Config{}, fmt.Errorf("APP_BASE_URL must be a valid URL: %w", err)
	}
	sessionKey := strings.TrimSpace(os.Getenv("SESSION_SIGNING_KEY"))
	if sessionKey == "" {
		return Config{}, fmt.Errorf("SESSION_SIGNING_KEY is required")
	}
	if len(sessionKey) < 32 {
		return Config{}, fmt.Errorf("SESSION_SIGNING_KEY must be at least 32 bytes")
	}

	cfg := Config{
		Environment:       getEnv("APP_ENV", "development"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		AppBaseURL:        appBaseURL,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getInt("REDIS_DB", 0),
		SessionKey:        []byte(sessionKey),
		StateTTL:          getDuration("OAUTH_STATE_TTL", 10*time.Minute),
		ProviderTimeout:   getDuration("PROVIDER_TIMEOUT", 10*time.Second),
		ServiceName:       getEnv("SERVICE_NAME", "socialconnect"),
		RateLimitRPM:      getInt("RATE_LIMIT_RPM", 600),
		TelemetryEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		Platforms:         loadPlatformCredentials(),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// AppOrigin returns the scheme://host[:port] part of AppBaseURL. CORS allows
// only this origin.
func (c Config) AppOrigin() string {
	u, err := url.Parse(c.AppBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return c.AppBaseURL
	}
	return u.Scheme + "://" + u.Host
}

func loadPlatformCredentials() map[domain.Platform]PlatformCredentials {
	creds := make(map[domain.Platform]PlatformCredentials, len(domain.Platforms))
	for _, platform := range domain.Platforms {
		prefix := strings.ToUpper(string(platform))
		id := strings.TrimSpace(os.Getenv(prefix + "_CLIENT_ID"))
		secret := strings.TrimSpace(os.Getenv(prefix + "_CLIENT_SECRET"))
		if id == "" && secret == "" {
			continue
		}
		creds[platform] = PlatformCredentials{ClientID: id, ClientSecret: secret}
	}
	return creds
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

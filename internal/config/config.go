package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSecret is the development fallback for JWT_SECRET. Production
// refuses to start with it.
const DefaultJWTSecret = "your-secret-key-change-in-production"

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a non-default value in production")

type Config struct {
	MongoURI            string
	MongoDatabase       string
	RedisURI            string
	JWTSecret           string
	JWTExpiresIn        time.Duration
	CookieExpiresIn     time.Duration
	Port                string
	FrontendURL         string
	AllowedOrigins      []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	AllowedHost         string   // hostname for the production host check, from HOST
	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
	SMTPHost            string
	SMTPPort            int
	EmailUser           string
	EmailPassword       string
	EmailFrom           string
	LogLevel            string
	Environment         string // ENV: production, development, etc.
	TrustProxy          bool   // use X-Forwarded-For for client IPs
	RateLimitMax        int    // auth requests per window per IP
	RateLimitWindow     time.Duration
	ConversationTTL     time.Duration
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", getEnv("NODE_ENV", "development"))))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(allowedOrigins, u) {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	return &Config{
		MongoURI:            getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/pixora")),
		MongoDatabase:       getEnv("MONGODB_DATABASE", ""),
		RedisURI:            getEnv("REDIS_URI", "redis://localhost:6379/0"),
		JWTSecret:           getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTExpiresIn:        getDuration("JWT_EXPIRES_IN", 90*24*time.Hour),
		CookieExpiresIn:     time.Duration(getInt("COOKIE_EXPIRES_IN", 90)) * 24 * time.Hour,
		Port:                getEnv("PORT", "8000"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins:      allowedOrigins,
		AllowedHost:         hostname(getEnv("HOST", "")),
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "pixora"),
		SMTPHost:            getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:            getInt("SMTP_PORT", 587),
		EmailUser:           getEnv("EMAIL", ""),
		EmailPassword:       getEnv("EMAIL_PASS", ""),
		EmailFrom:           getEnv("EMAIL_FROM", getEnv("EMAIL", "")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Environment:         env,
		TrustProxy:          getBool("TRUST_PROXY", false),
		RateLimitMax:        getInt("RATE_LIMIT_MAX", 20),
		RateLimitWindow:     getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		ConversationTTL:     getDuration("CONVERSATION_CACHE_TTL", 30*time.Second),
	}
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// Validate rejects settings that are unsafe to run in production.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	secret := strings.TrimSpace(c.JWTSecret)
	if secret == "" || secret == DefaultJWTSecret {
		return ErrInsecureJWTSecret
	}
	return nil
}

// CloudinaryConfigured reports whether all Cloudinary credentials are set.
func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// hostname strips scheme, path and port from a HOST value such as
// https://api.pixora.app:443/.
func hostname(raw string) string {
	host := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://", "http://"} {
		host = strings.TrimPrefix(host, prefix)
	}
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return defaultValue
}

// getDuration accepts Go durations ("72h") and day counts ("90d").
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	if strings.HasSuffix(raw, "d") {
		if days, err := strconv.Atoi(strings.TrimSuffix(raw, "d")); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

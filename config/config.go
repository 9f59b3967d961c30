package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
	DriverMemory    = "memory"
)

type Config struct {
	Port    string
	GinMode string

	StoreDriver string

	FirebaseCredentialsFile string
	FirebaseProjectID       string

	MongoURI    string
	MongoDBName string

	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	CORSAllowedOrigins []string

	LogFile  string
	LogLevel string

	RecaptchaProjectID       string
	RecaptchaSiteKey         string
	RecaptchaCredentialsFile string
	RecaptchaMinScore        float32
}

// CaptchaEnabled reports whether sign-in must carry a reCAPTCHA token.
func (c *Config) CaptchaEnabled() bool {
	return c.RecaptchaProjectID != "" && c.RecaptchaSiteKey != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: No .env file found or failed to load")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can supply maps.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:                     get("PORT", "8080"),
		GinMode:                  get("GIN_MODE", "release"),
		StoreDriver:              strings.ToLower(get("STORE_DRIVER", DriverFirestore)),
		FirebaseCredentialsFile:  get("FIREBASE_CREDENTIALS_FILE", getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		FirebaseProjectID:        get("FIREBASE_PROJECT_ID", ""),
		MongoURI:                 get("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDBName:              get("MONGO_DB_NAME", "projectboard"),
		JWTSecret:                get("JWT_SECRET_KEY", ""),
		JWTRefreshSecret:         get("JWT_REFRESH_SECRET_KEY", ""),
		LogFile:                  get("LOG_FILE", ""),
		LogLevel:                 get("LOG_LEVEL", "info"),
		RecaptchaProjectID:       get("RECAPTCHA_PROJECT_ID", ""),
		RecaptchaSiteKey:         get("RECAPTCHA_SITE_KEY", ""),
		RecaptchaCredentialsFile: get("RECAPTCHA_CREDENTIALS_FILE", ""),
	}

	var err error
	if cfg.AccessTokenTTL, err = time.ParseDuration(get("ACCESS_TOKEN_TTL", "60m")); err != nil {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL: %w", err)
	}
	if cfg.RefreshTokenTTL, err = time.ParseDuration(get("REFRESH_TOKEN_TTL", "168h")); err != nil {
		return nil, fmt.Errorf("REFRESH_TOKEN_TTL: %w", err)
	}

	score, err := strconv.ParseFloat(get("RECAPTCHA_MIN_SCORE", "0.5"), 32)
	if err != nil {
		return nil, fmt.Errorf("RECAPTCHA_MIN_SCORE: %w", err)
	}
	cfg.RecaptchaMinScore = float32(score)

	for _, origin := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverFirestore:
		if c.FirebaseCredentialsFile == "" {
			errs = append(errs, errors.New("FIREBASE_CREDENTIALS_FILE is not set"))
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDBName == "" {
			errs = append(errs, errors.New("MONGO_URI and MONGO_DB_NAME are required for the mongo driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.JWTSecret == "" || c.JWTRefreshSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY and JWT_REFRESH_SECRET_KEY must be set"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	return errors.Join(errs...)
}

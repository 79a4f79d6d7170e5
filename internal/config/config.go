package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
)

const (
	defaultAppName         = "MedicineCart"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultAccessTokenTTL  = 3600 * time.Second
	defaultOTPTTL          = 300 * time.Second
	defaultDispatchWorkers = 4
	defaultDispatchQueue   = 256
	defaultDispatchTries   = 3
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"

	secretLength   = 32
	hmacSecretInfo = "medicine-cart/otp-hmac"
	jwtSecretInfo  = "medicine-cart/jwt-hs256"
)

// TwilioConfig holds SMS provider credentials. Empty credentials select the
// logging sender, which is only allowed in dev.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Enabled reports whether the Twilio sender can be used.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

// DispatchConfig sizes the outbound message dispatcher.
type DispatchConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts uint64
}

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	HMACSecret     []byte
	JWTSecret      []byte
	AccessTokenTTL time.Duration
	OTPTTL         time.Duration
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	Twilio         TwilioConfig
	Dispatch       DispatchConfig

	// EphemeralSecrets is set when no secret was configured and a random
	// one was generated for this process.
	EphemeralSecrets bool
}

// Load reads an optional .env file, then configuration values from the
// environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv populates a Config from the current environment.
func FromEnv() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber: os.Getenv("TWILIO_PHONE_NUMBER"),
		},
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_EXPIRE_SECONDS", "", defaultAccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPTTL, err = durationEnv("OTP_TTL_SECONDS", "", defaultOTPTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL <= 0 || cfg.OTPTTL <= 0 {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_EXPIRE_SECONDS and OTP_TTL_SECONDS must be positive")
	}

	workers, err := intEnv("DISPATCH_WORKERS", defaultDispatchWorkers)
	if err != nil {
		return Config{}, err
	}
	queue, err := intEnv("DISPATCH_QUEUE_SIZE", defaultDispatchQueue)
	if err != nil {
		return Config{}, err
	}
	attempts, err := intEnv("DISPATCH_MAX_ATTEMPTS", defaultDispatchTries)
	if err != nil {
		return Config{}, err
	}
	if workers <= 0 || queue <= 0 || attempts <= 0 {
		return Config{}, fmt.Errorf("DISPATCH_WORKERS, DISPATCH_QUEUE_SIZE and DISPATCH_MAX_ATTEMPTS must be positive")
	}
	cfg.Dispatch = DispatchConfig{Workers: workers, QueueSize: queue, MaxAttempts: uint64(attempts)}

	if err := cfg.loadSecrets(); err != nil {
		return Config{}, err
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
		if !cfg.Twilio.Enabled() {
			return Config{}, fmt.Errorf("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_PHONE_NUMBER must be set")
		}
	}

	return cfg, nil
}

// loadSecrets resolves the OTP HMAC key and the JWT signing key. Explicit
// values win; otherwise both are derived from APP_SECRET with HKDF.
func (c *Config) loadSecrets() error {
	hmacSecret := os.Getenv("HMAC_SECRET")
	jwtSecret := os.Getenv("JWT_SECRET")

	var master []byte
	if hmacSecret == "" || jwtSecret == "" {
		if v := os.Getenv("APP_SECRET"); v != "" {
			master = []byte(v)
		} else if c.IsDev() {
			master = make([]byte, secretLength)
			if _, err := rand.Read(master); err != nil {
				return fmt.Errorf("generate secret: %w", err)
			}
			c.EphemeralSecrets = true
		} else {
			return fmt.Errorf("HMAC_SECRET and JWT_SECRET, or APP_SECRET, must be set when APP_ENV=%s", c.AppEnv)
		}
	}

	if hmacSecret != "" {
		c.HMACSecret = []byte(hmacSecret)
	} else {
		derived, err := deriveSecret(master, hmacSecretInfo)
		if err != nil {
			return err
		}
		c.HMACSecret = derived
	}

	if jwtSecret != "" {
		if len(jwtSecret) < secretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d bytes", secretLength)
		}
		c.JWTSecret = []byte(jwtSecret)
	} else {
		derived, err := deriveSecret(master, jwtSecretInfo)
		if err != nil {
			return err
		}
		c.JWTSecret = derived
	}
	return nil
}

func deriveSecret(master []byte, info string) ([]byte, error) {
	out := make([]byte, secretLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(info)), out); err != nil {
		return nil, fmt.Errorf("derive %s: %w", info, err)
	}
	return []byte(hex.EncodeToString(out)), nil
}

// IsDev reports whether the process runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// durationEnv reads whole seconds from secondsKey, falling back to a Go
// duration string in durationKey.
func durationEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if durationKey != "" {
		if v := os.Getenv(durationKey); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
			}
			return d, nil
		}
	}
	return fallback, nil
}

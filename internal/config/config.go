package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time provides duration types for rate-limit windows
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Values that tune security behaviour at runtime
// (lockout thresholds, maintenance mode) are NOT here: those live in the
// system_settings table and are re-read per request.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name

	DBMaxConns     int           // connection pool size
	DBConnLifetime time.Duration // max lifetime of a pooled connection

	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password and reset-code hashing

	SMTPHost string // outbound mail server host (empty disables mail)
	SMTPPort int    // outbound mail server port
	SMTPUser string // SMTP username
	SMTPPass string // SMTP password
	MailFrom string // From address on outgoing mail

	ContactRecipient string // address that receives contact-form submissions

	ResetWindow      time.Duration // rate-limit window for reset-code requests
	ResetMaxRequests int           // max reset-code requests per key per window
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. Mail settings are
// optional; when SMTP_HOST is unset the reset and contact flows report the
// mail channel as unavailable instead of failing at startup.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),

		DBMaxConns:     envInt("DB_MAX_CONNS", 25),
		DBConnLifetime: envDur("DB_CONN_LIFETIME", 30*time.Minute),

		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   envInt("BCRYPT_COST", 10),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: envInt("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: envStr("MAIL_FROM", os.Getenv("SMTP_USER")),

		ContactRecipient: os.Getenv("CONTACT_EMAIL_RECIPIENT"),

		ResetWindow:      envDur("RESET_RATE_WINDOW", 10*time.Minute),
		ResetMaxRequests: envInt("RESET_RATE_MAX", 3),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

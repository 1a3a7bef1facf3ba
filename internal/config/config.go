package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	BackendSQL   = "sql"
	BackendRedis = "redis"
)

type Config struct {
	AppEnv   string
	AppPort  string
	LogLevel string

	StoreBackend string
	DBDriver     string
	SQLitePath   string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr   string
	RedisPass   string
	RedisDB     int
	RedisPrefix string

	IdempTTLSecs int

	JWTSecret string
	TokenTTL  time.Duration

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	// PaymentBackendURL points the investment flow at a remote payment API;
	// empty serves it in-process.
	PaymentBackendURL string
	CheckoutScriptURL string

	Currency           string
	FeeRate            float64
	ReturnHorizonYears int
	AttemptRetention   time.Duration
	CheckoutWindow     time.Duration

	ReconcileCron   string
	ReconcileRepair bool
	SeedOnStart     bool
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getfloat(k string, d float64) float64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return d
}

func getbool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

func getduration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := time.ParseDuration(v); err == nil {
			return n
		}
	}
	return d
}

// Load reads the environment, after merging in any .env files that exist.
// Variables already set win over the files.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	return &Config{
		AppEnv:   getenv("APP_ENV", "development"),
		AppPort:  getenv("APP_PORT", "5000"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		StoreBackend: getenv("STORE_BACKEND", BackendSQL),
		DBDriver:     getenv("DB_DRIVER", "sqlite"),
		SQLitePath:   getenv("SQLITE_PATH", "greenbonds.db"),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "greenbonds"),
		MySQLUser: getenv("MYSQL_USER", "greenbonds"),
		MySQLPass: getenv("MYSQL_PASS", "greenbonds"),

		RedisAddr:   getenv("REDIS_ADDR", "redis:6379"),
		RedisPass:   os.Getenv("REDIS_PASS"),
		RedisDB:     getint("REDIS_DB", 0),
		RedisPrefix: getenv("REDIS_PREFIX", "gb"),

		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  getduration("TOKEN_TTL", 24*time.Hour),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:   getenv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
		PaymentBackendURL: os.Getenv("PAYMENT_BACKEND_URL"),
		CheckoutScriptURL: getenv("CHECKOUT_SCRIPT_URL", "https://checkout.razorpay.com/v1/checkout.js"),

		Currency:           getenv("CURRENCY", "INR"),
		FeeRate:            getfloat("FEE_RATE", 0.005),
		ReturnHorizonYears: getint("RETURN_HORIZON_YEARS", 5),
		AttemptRetention:   getduration("ATTEMPT_RETENTION", 30*time.Minute),
		CheckoutWindow:     getduration("CHECKOUT_WINDOW", 15*time.Minute),

		ReconcileCron:   os.Getenv("RECONCILE_CRON"),
		ReconcileRepair: getbool("RECONCILE_REPAIR", false),
		SeedOnStart:     getbool("SEED_ON_START", false),
	}
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if _, err := strconv.Atoi(c.AppPort); err != nil {
		return fmt.Errorf("invalid APP_PORT %q: %w", c.AppPort, err)
	}
	switch c.StoreBackend {
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("missing REDIS_ADDR for redis store")
		}
	case BackendSQL:
		if err := c.validateSQL(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want sql or redis)", c.StoreBackend)
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.PaymentBackendURL == "" && (c.RazorpayKeyID == "" || c.RazorpayKeySecret == "") {
		return errors.New("missing RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET")
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		return fmt.Errorf("invalid FEE_RATE %v", c.FeeRate)
	}
	if c.ReturnHorizonYears <= 0 {
		return fmt.Errorf("invalid RETURN_HORIZON_YEARS %d", c.ReturnHorizonYears)
	}
	if c.ReconcileCron != "" {
		if _, err := cron.ParseStandard(c.ReconcileCron); err != nil {
			return fmt.Errorf("invalid RECONCILE_CRON %q: %w", c.ReconcileCron, err)
		}
	}
	return nil
}

func (c *Config) validateSQL() error {
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (want mysql or sqlite)", c.DBDriver)
	}
	return nil
}

// Port returns APP_PORT as a number; Validate guarantees it parses.
func (c *Config) Port() int {
	n, _ := strconv.Atoi(c.AppPort)
	return n
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

// DSN is the connection string for the configured SQL driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return c.MySQLDSN()
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

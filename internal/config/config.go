package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

const minJWTSecretLength = 32

var ErrWeakJWTSecret = fmt.Errorf("SANDBOX_JWT_SECRET must be at least %d characters long", minJWTSecretLength)

// Storefront configures the command-line storefront.
type Storefront struct {
	APIURL         string        `envconfig:"API_URL" default:"http://localhost:8000/api"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	SessionFile    string        `envconfig:"SESSION_FILE"`

	// Gateway selects the payment widget: "browser" or "sandbox".
	Gateway          string `envconfig:"GATEWAY" default:"browser"`
	GatewayScriptURL string `envconfig:"GATEWAY_SCRIPT_URL" default:"https://checkout.razorpay.com/v1/checkout.js"`
	SandboxURL       string `envconfig:"SANDBOX_URL" default:"http://localhost:8000"`

	MerchantName        string `envconfig:"MERCHANT_NAME" default:"LuxeJewel"`
	MerchantDescription string `envconfig:"MERCHANT_DESCRIPTION" default:"Premium Korean Jewelry"`
	ThemeColor          string `envconfig:"THEME_COLOR" default:"#E0C097"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"storefront-checkout"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"warn"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Sandbox configures the in-memory stand-in backend.
type Sandbox struct {
	Addr          string        `envconfig:"ADDR" default:":8000"`
	JWTSecret     string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"720h"`
	KeyID         string        `envconfig:"GATEWAY_KEY_ID" default:"rzp_test_sandbox"`
	KeySecret     string        `envconfig:"GATEWAY_KEY_SECRET" default:"sandbox-gateway-secret"`
	Currency      string        `envconfig:"CURRENCY" default:"INR"`
	AdminEmail    string        `envconfig:"ADMIN_EMAIL" default:"admin@luxejewel.com"`
	AdminPassword string        `envconfig:"ADMIN_PASSWORD" default:"admin123"`
	Seed          bool          `envconfig:"SEED" default:"true"`
	BcryptCost    int           `envconfig:"BCRYPT_COST" default:"12"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// LoadDotEnv reads an optional .env file into the process environment.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("Failed to read .env file")
	}
}

func LoadStorefront() (*Storefront, error) {
	var cfg Storefront
	if err := envconfig.Process("storefront", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config dir: %w", err)
		}
		cfg.SessionFile = filepath.Join(dir, "luxejewel", "session.json")
	}
	return &cfg, nil
}

func LoadSandbox() (*Sandbox, error) {
	var cfg Sandbox
	if err := envconfig.Process("sandbox", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.JWTSecret) < minJWTSecretLength {
		return nil, ErrWeakJWTSecret
	}
	return &cfg, nil
}

// NewLogger builds a logrus logger from a level name and "text" or "json".
func NewLogger(level, format string) (*log.Logger, error) {
	logger := log.New()
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lvl)
	switch format {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return logger, nil
}

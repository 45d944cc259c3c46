package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-intake/internal/domain/order"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (ORDER_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address" validate:"required"`
	MaxBodyBytes int64  `default:"1048576" usage:"Maximum accepted request body in bytes" flag:"max-body-bytes" validate:"gt=0"`
	Pipeline     PipelineConfig
	RateLimit    RateLimitConfig
	Graceful     GracefulConfig
}

// PipelineConfig holds the order validation rules.
type PipelineConfig struct {
	Currencies []string `default:"TWD:0,USD:2" usage:"Allowed currencies as CODE:decimal_places" validate:"min=1,dive,required"`
	MaxPrice   string   `default:"2000" usage:"Inclusive upper bound for order prices" flag:"max-price" validate:"required,numeric"`
	ConvertTo  string   `default:"" usage:"Settle accepted orders into this currency; empty disables conversion" flag:"convert-to"`
	Rates      []string `usage:"Conversion rates into ConvertTo as CODE:rate, e.g. USD:31" validate:"required_with=ConvertTo,dive,required"`
}

// RateLimitConfig controls the per-client token bucket. Max of zero disables it.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Requests a client may burst per window" validate:"gte=0"`
	Window time.Duration `default:"1m"  usage:"Time to refill a client's full burst" validate:"required_unless=Max 0"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, flags and YAML
// config files, then applies platform-specific defaults and validates it.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "ORDER",
		Files:     []string{"config.yaml", "/etc/order-intake/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(acfg aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, acfg).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the platform-provided PORT variable (Railway,
// Render, etc.) onto the listen address unless it was set explicitly.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// Order builds the pipeline configuration from the raw settings.
func (c *PipelineConfig) Order() (order.Config, error) {
	rules, err := order.ParseRules(c.Currencies)
	if err != nil {
		return order.Config{}, errors.Wrap(err, "currencies")
	}
	maxPrice, err := decimal.NewFromString(c.MaxPrice)
	if err != nil {
		return order.Config{}, errors.Wrap(err, "max price")
	}

	cfg := order.Config{Rules: rules, MaxPrice: maxPrice}
	if c.ConvertTo != "" {
		conv, err := order.NewConverter(rules, c.ConvertTo, c.Rates)
		if err != nil {
			return order.Config{}, errors.Wrap(err, "conversion")
		}
		cfg.Converter = conv
	}
	return cfg, nil
}

// Package config loads storefront settings from storefront.toml and
// STOREFRONT_ environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Backend  BackendConfig
	Storage  StorageConfig
	Catalog  CatalogConfig
	Checkout CheckoutConfig
	Events   EventsConfig
	Log      LogConfig
}

type AppConfig struct {
	Name string
	Env  string
}

type HTTPConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64
}

type BackendConfig struct {
	BaseURL         string
	Timeout         time.Duration
	MaxResponseSize int64
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// StorageConfig selects where cart snapshots live: memory, redis or mongo.
type StorageConfig struct {
	Driver  string
	CartTTL time.Duration
	Redis   RedisConfig
	Mongo   MongoConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type CatalogConfig struct {
	SearchTTL time.Duration
}

type ShippingMethodConfig struct {
	ID    string `mapstructure:"id"`
	Label string `mapstructure:"label"`
	Cost  string `mapstructure:"cost"`
}

// CheckoutConfig holds pricing inputs and the session store. Driver is
// memory or postgres.
type CheckoutConfig struct {
	TaxRate         decimal.Decimal
	PaymentTimeout  time.Duration
	ShippingMethods []ShippingMethodConfig
	Driver          string
	Database        DatabaseConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// EventsConfig configures the order event relay. No brokers means events
// are logged instead of published and nothing consumes them.
type EventsConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	RelayInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads configuration with this priority, highest first:
// STOREFRONT_ environment variables, storefront.toml, built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("storefront")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/storefront")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	taxRate, err := parseDecimal(v.GetString("checkout.tax_rate"))
	if err != nil {
		return nil, fmt.Errorf("checkout.tax_rate: %w", err)
	}

	var methods []ShippingMethodConfig
	if err := v.UnmarshalKey("checkout.shipping_methods", &methods); err != nil {
		return nil, fmt.Errorf("checkout.shipping_methods: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		HTTP: HTTPConfig{
			Port:            v.GetString("http.port"),
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			RequestTimeout:  v.GetDuration("http.request_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxBodySize:     v.GetInt64("http.max_body_size"),
		},
		Backend: BackendConfig{
			BaseURL:         v.GetString("backend.base_url"),
			Timeout:         v.GetDuration("backend.timeout"),
			MaxResponseSize: v.GetInt64("backend.max_response_size"),
			BreakerFailures: v.GetUint32("backend.breaker_failures"),
			BreakerCooldown: v.GetDuration("backend.breaker_cooldown"),
		},
		Storage: StorageConfig{
			Driver:  strings.ToLower(v.GetString("storage.driver")),
			CartTTL: v.GetDuration("storage.cart_ttl"),
			Redis: RedisConfig{
				Addr:     v.GetString("storage.redis.addr"),
				Password: v.GetString("storage.redis.password"),
				DB:       v.GetInt("storage.redis.db"),
				Prefix:   v.GetString("storage.redis.prefix"),
			},
			Mongo: MongoConfig{
				URI:        v.GetString("storage.mongo.uri"),
				Database:   v.GetString("storage.mongo.database"),
				Collection: v.GetString("storage.mongo.collection"),
			},
		},
		Catalog: CatalogConfig{
			SearchTTL: v.GetDuration("catalog.search_ttl"),
		},
		Checkout: CheckoutConfig{
			TaxRate:         taxRate,
			PaymentTimeout:  v.GetDuration("checkout.payment_timeout"),
			ShippingMethods: methods,
			Driver:          strings.ToLower(v.GetString("checkout.driver")),
			Database: DatabaseConfig{
				Host:     v.GetString("checkout.database.host"),
				Port:     v.GetInt("checkout.database.port"),
				User:     v.GetString("checkout.database.user"),
				Password: v.GetString("checkout.database.password"),
				DBName:   v.GetString("checkout.database.dbname"),
				SSLMode:  v.GetString("checkout.database.sslmode"),
			},
		},
		Events: EventsConfig{
			Brokers:       splitList(v.GetStringSlice("events.brokers")),
			Topic:         v.GetString("events.topic"),
			ConsumerGroup: v.GetString("events.consumer_group"),
			RelayInterval: v.GetDuration("events.relay_interval"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}

// splitList accepts both TOML arrays and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// defaultTaxRate is Ecuador's IVA.
var defaultTaxRate = decimal.RequireFromString("0.15")

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 45 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 40 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 15 * time.Second
	}
	if cfg.Backend.MaxResponseSize == 0 {
		cfg.Backend.MaxResponseSize = 5 << 20
	}
	if cfg.Backend.BreakerFailures == 0 {
		cfg.Backend.BreakerFailures = 5
	}
	if cfg.Backend.BreakerCooldown == 0 {
		cfg.Backend.BreakerCooldown = 30 * time.Second
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Storage.CartTTL == 0 {
		cfg.Storage.CartTTL = 7 * 24 * time.Hour
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = "localhost:6379"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "cart"
	}
	if cfg.Storage.Mongo.URI == "" {
		cfg.Storage.Mongo.URI = "mongodb://localhost:27017"
	}
	if cfg.Storage.Mongo.Database == "" {
		cfg.Storage.Mongo.Database = "storefront"
	}
	if cfg.Storage.Mongo.Collection == "" {
		cfg.Storage.Mongo.Collection = "carts"
	}
	if cfg.Catalog.SearchTTL == 0 {
		cfg.Catalog.SearchTTL = 30 * time.Second
	}
	if cfg.Checkout.TaxRate.IsZero() {
		cfg.Checkout.TaxRate = defaultTaxRate
	}
	if cfg.Checkout.PaymentTimeout == 0 {
		cfg.Checkout.PaymentTimeout = 30 * time.Second
	}
	if len(cfg.Checkout.ShippingMethods) == 0 {
		cfg.Checkout.ShippingMethods = []ShippingMethodConfig{
			{ID: "standard", Label: "Envío estándar (3-5 días)", Cost: "5.00"},
			{ID: "express", Label: "Envío express (24-48 horas)", Cost: "12.00"},
			{ID: "pickup", Label: "Retiro en tienda", Cost: "0"},
		}
	}
	if cfg.Checkout.Driver == "" {
		cfg.Checkout.Driver = "memory"
	}
	if cfg.Checkout.Database.Host == "" {
		cfg.Checkout.Database.Host = "localhost"
	}
	if cfg.Checkout.Database.Port == 0 {
		cfg.Checkout.Database.Port = 5432
	}
	if cfg.Checkout.Database.User == "" {
		cfg.Checkout.Database.User = "postgres"
	}
	if cfg.Checkout.Database.DBName == "" {
		cfg.Checkout.Database.DBName = "storefront"
	}
	if cfg.Checkout.Database.SSLMode == "" {
		cfg.Checkout.Database.SSLMode = "disable"
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = "storefront-orders"
	}
	if cfg.Events.ConsumerGroup == "" {
		cfg.Events.ConsumerGroup = "storefront-cart"
	}
	if cfg.Events.RelayInterval == 0 {
		cfg.Events.RelayInterval = 5 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url %q is not an absolute URL", c.Backend.BaseURL)
	}

	switch c.Storage.Driver {
	case "memory", "redis", "mongo":
	default:
		return fmt.Errorf("storage.driver %q must be memory, redis or mongo", c.Storage.Driver)
	}
	switch c.Checkout.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("checkout.driver %q must be memory or postgres", c.Checkout.Driver)
	}

	if c.Checkout.TaxRate.IsNegative() || c.Checkout.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("checkout.tax_rate %s must be in [0, 1)", c.Checkout.TaxRate)
	}

	seen := make(map[string]bool, len(c.Checkout.ShippingMethods))
	for _, m := range c.Checkout.ShippingMethods {
		if m.ID == "" {
			return errors.New("checkout.shipping_methods: id is required")
		}
		if seen[m.ID] {
			return fmt.Errorf("checkout.shipping_methods: duplicate id %q", m.ID)
		}
		seen[m.ID] = true
		cost, err := parseDecimal(m.Cost)
		if err != nil || cost.IsNegative() {
			return fmt.Errorf("checkout.shipping_methods: invalid cost %q for %q", m.Cost, m.ID)
		}
	}
	return nil
}

// ShippingCost parses the configured cost; validate has already rejected
// malformed values.
func (m ShippingMethodConfig) ShippingCost() decimal.Decimal {
	d, _ := parseDecimal(m.Cost)
	return d
}

// Addr is the listen address for the HTTP server.
func (c HTTPConfig) Addr() string {
	return ":" + c.Port
}

// IsProduction reports whether the service runs in production.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

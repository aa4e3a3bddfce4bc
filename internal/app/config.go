package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/xenking/merch-storefront/internal/shopify"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), a .env file, or YAML config
// files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Shopify   ShopifyConfig
	Catalog   CatalogConfig
	Redis     RedisConfig
	Cookie    CookieConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// ShopifyConfig addresses the Storefront API. Either token is enough: the
// private token switches the client to server mode.
type ShopifyConfig struct {
	Shop               string        `usage:"Shop domain, e.g. merch.myshopify.com" validate:"required_without=Endpoint"`
	APIVersion         string        `default:"2024-10" usage:"Storefront API version" validate:"required"`
	PublicAccessToken  string        `usage:"Public storefront access token" validate:"required_without=PrivateAccessToken"`
	PrivateAccessToken string        `usage:"Private storefront access token"`
	Timeout            time.Duration `default:"10s" usage:"Storefront API request timeout"`
	// Endpoint overrides the GraphQL URL derived from Shop and APIVersion.
	Endpoint string `usage:"Storefront GraphQL endpoint override" validate:"omitempty,url"`
}

// ServerMode returns the mode for server-originated calls: the private token
// when one is configured, the public token otherwise. Client-side callers
// always use shopify.ModePublic.
func (c ShopifyConfig) ServerMode() shopify.Mode {
	if c.PrivateAccessToken != "" {
		return shopify.ModeServer
	}
	return shopify.ModePublic
}

// CatalogConfig controls listing and product caching.
type CatalogConfig struct {
	PageSize int           `default:"10" usage:"Products per listing page" validate:"gte=1,lte=250"`
	CacheTTL time.Duration `default:"5m" usage:"Product cache TTL"`
}

// RedisConfig addresses the product cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string `usage:"Redis address for the product cache"`
	Password string `usage:"Redis password"`
	DB       int    `default:"0" usage:"Redis database" validate:"gte=0"`
}

// CookieConfig controls the cart ID cookie.
type CookieConfig struct {
	Name   string        `default:"cart_id" usage:"Cart ID cookie name" validate:"required"`
	MaxAge time.Duration `default:"336h" usage:"Cart ID cookie lifetime"`
	Secure bool          `default:"false" usage:"Send the cookie over HTTPS only"`
}

// RateLimitConfig limits cart mutations per client.
type RateLimitConfig struct {
	Max    int           `default:"30" usage:"Max cart mutations per window" validate:"gte=1"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration" validate:"gt=0"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow the cart cookie on cross-origin requests"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration"`
}

// LoadConfig loads configuration from .env, environment variables and YAML
// config files, then validates it. Extra files are read after the defaults.
func LoadConfig(files ...string) (*Config, error) {
	// A missing .env is the common case outside development.
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:          "STOREFRONT",
		SkipFlags:          true,
		AllowUnknownFields: true,
		Files:              append([]string{"config.yaml", "/etc/storefront/config.yaml"}, files...),
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings and ranges.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.Errorf("invalid config: %s failed %q", fe.Namespace(), fe.Tag())
		}
		return errors.Wrap(err, "validate config")
	}
	return nil
}

// applyPlatformDefaults maps the PORT variable set by hosting platforms
// (Railway, Render, etc.) onto Addr unless Addr was configured.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

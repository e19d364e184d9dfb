package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the full BFF configuration. It is constructed once at startup
// and handed to components explicitly; nothing reads the environment after Load.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Services  ServicesConfig
	Keys      ServiceKeys
	OAuth     OAuthConfig
	Redis     RedisConfig
	MongoDB   MongoDBConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig covers session and backend-token settings. The variable names
// come from the original deployment manifests and are kept verbatim.
type AuthConfig struct {
	PublicURL  string // NEXTAUTH_URL
	Secret     string // NEXTAUTH_SECRET, signs backend tokens
	Issuer     string
	Audience   string
	TokenTTL   time.Duration
	SessionTTL time.Duration
}

type ServicesConfig struct {
	GatewayURL   string // NEXT_PUBLIC_GATEWAY_URL
	UserURL      string // USER_SERVICE_URL
	ChatURL      string // CHAT_SERVICE_URL
	OfficeURL    string // OFFICE_SERVICE_URL
	ContactsURL  string // CONTACTS_SERVICE_URL
	MeetingsURL  string // MEETINGS_SERVICE_URL
	ShipmentsURL string // SHIPMENTS_SERVICE_URL
}

// ServiceKeys are the server-to-service API keys sent as X-API-Key when the
// BFF calls an upstream service directly, bypassing the gateway.
type ServiceKeys struct {
	User   string // API_FRONTEND_USER_KEY
	Chat   string // API_FRONTEND_CHAT_KEY
	Office string // API_FRONTEND_OFFICE_KEY
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	AzureClientID      string
	AzureClientSecret  string
	AzureTenantID      string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// Load reads configuration from environment variables and an optional .env
// file. Missing required secrets produce an error naming the variable;
// secrets are never silently defaulted.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("NEXT_PUBLIC_GATEWAY_URL", "http://localhost:8000")
	viper.SetDefault("JWT_ISSUER", "briefly-bff")
	viper.SetDefault("JWT_AUDIENCE", "briefly-services")
	viper.SetDefault("SESSION_TTL_HOURS", 168)
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			PublicURL:  viper.GetString("NEXTAUTH_URL"),
			Secret:     viper.GetString("NEXTAUTH_SECRET"),
			Issuer:     viper.GetString("JWT_ISSUER"),
			Audience:   viper.GetString("JWT_AUDIENCE"),
			TokenTTL:   time.Hour,
			SessionTTL: time.Duration(viper.GetInt("SESSION_TTL_HOURS")) * time.Hour,
		},
		Services: ServicesConfig{
			GatewayURL:   viper.GetString("NEXT_PUBLIC_GATEWAY_URL"),
			UserURL:      viper.GetString("USER_SERVICE_URL"),
			ChatURL:      viper.GetString("CHAT_SERVICE_URL"),
			OfficeURL:    viper.GetString("OFFICE_SERVICE_URL"),
			ContactsURL:  viper.GetString("CONTACTS_SERVICE_URL"),
			MeetingsURL:  viper.GetString("MEETINGS_SERVICE_URL"),
			ShipmentsURL: viper.GetString("SHIPMENTS_SERVICE_URL"),
		},
		Keys: ServiceKeys{
			User:   viper.GetString("API_FRONTEND_USER_KEY"),
			Chat:   viper.GetString("API_FRONTEND_CHAT_KEY"),
			Office: viper.GetString("API_FRONTEND_OFFICE_KEY"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     viper.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: viper.GetString("GOOGLE_CLIENT_SECRET"),
			AzureClientID:      viper.GetString("AZURE_AD_CLIENT_ID"),
			AzureClientSecret:  viper.GetString("AZURE_AD_CLIENT_SECRET"),
			AzureTenantID:      viper.GetString("AZURE_AD_TENANT_ID"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       0,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	required := []struct {
		name, value string
	}{
		{"NEXTAUTH_SECRET", c.Auth.Secret},
		{"USER_SERVICE_URL", c.Services.UserURL},
		{"API_FRONTEND_USER_KEY", c.Keys.User},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("environment variable %s is required", r.name)
		}
	}
	return nil
}

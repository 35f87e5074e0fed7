package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/datashare/database"
	datasharehttp "github.com/sagarc03/datashare/http"
	"github.com/sagarc03/datashare/storage"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DATASHARE"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for datashare.
type Config struct {
	Env      string                   `mapstructure:"env" validate:"required,oneof=dev prod"`
	Server   ServerConfig             `mapstructure:"server"`
	Service  ServiceConfig            `mapstructure:"service"`
	Database database.Config          `mapstructure:"database"`
	Storage  storage.Config           `mapstructure:"storage"`
	Auth     AuthConfig               `mapstructure:"auth"`
	CORS     datasharehttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig                `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	PublicURL       string        `mapstructure:"public_url" validate:"required,url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
	AccessLog       bool          `mapstructure:"access_log"`
}

// ServiceConfig holds file sharing limits and lifetimes.
type ServiceConfig struct {
	CleanupTimeout      time.Duration `mapstructure:"cleanup_timeout" validate:"gt=0"`
	MaxUploadSize       int64         `mapstructure:"max_upload_size" validate:"gt=0"`
	UploadURLTTL        time.Duration `mapstructure:"upload_url_ttl" validate:"gt=0"`
	DownloadURLTTL      time.Duration `mapstructure:"download_url_ttl" validate:"gt=0"`
	DefaultShareTTLDays int           `mapstructure:"default_share_ttl_days" validate:"min=1,max=365"`
}

// AuthConfig holds session credential and cookie settings. JWTSecret is
// checked for strength when the credential codec is built.
type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTIssuer    string        `mapstructure:"jwt_issuer" validate:"required"`
	JWTTTL       time.Duration `mapstructure:"jwt_ttl" validate:"gt=0"`
	CookieName   string        `mapstructure:"cookie_name" validate:"required"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	BcryptCost   int           `mapstructure:"bcrypt_cost" validate:"min=4,max=31"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":        "database.type",
	"db-dsn":         "database.dsn",
	"storage-driver": "storage.driver",
	"storage-path":   "storage.local.path",
	"port":           "server.port",
	"public-url":     "server.public_url",
	"log-level":      "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.access_log", false)

	v.SetDefault("service.cleanup_timeout", 30*time.Second)
	v.SetDefault("service.max_upload_size", 1_000_000_000)
	v.SetDefault("service.upload_url_ttl", 10*time.Minute)
	v.SetDefault("service.download_url_ttl", 10*time.Minute)
	v.SetDefault("service.default_share_ttl_days", 7)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "datashare.db")
	v.SetDefault("database.tables.users", "users")
	v.SetDefault("database.tables.files", "files")
	v.SetDefault("database.tables.tokens", "tokens")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.bucket", "datashare")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_path_style", false)
	v.SetDefault("storage.create_bucket", false)
	v.SetDefault("storage.local.path", "./data")
	v.SetDefault("storage.local.keys.file", "")

	v.SetDefault("auth.jwt_issuer", "datashare-api")
	v.SetDefault("auth.jwt_ttl", 7*24*time.Hour)
	v.SetDefault("auth.cookie_name", "AUTH-TOKEN")
	v.SetDefault("auth.cookie_secure", true)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
}

// bindEnvKeys registers every key that has no default so AutomaticEnv can
// supply it during Unmarshal.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"auth.jwt_secret",
		"storage.endpoint",
		"storage.access_key",
		"storage.secret_key",
		"cors.allowed_origins",
		"cors.exposed_headers",
	} {
		_ = v.BindEnv(key)
	}
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > .env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Load .env into the process environment; real env vars win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("error reading .env file", "err", err)
	}

	// 4. Bind environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	// 5. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 7. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.Database.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// ShareTTL returns the default share token lifetime.
func (c ServiceConfig) ShareTTL() time.Duration {
	return time.Duration(c.DefaultShareTTLDays) * 24 * time.Hour
}

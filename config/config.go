package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StorageLocal = "local"
	StorageR2    = "r2"

	defaultPort        = "8080"
	defaultAccessTTL   = 30 * time.Minute
	defaultRefreshTTL  = 7 * 24 * time.Hour
	defaultMediaDir    = "media"
	defaultNotifyQueue = 256
)

// AppConfig is the runtime configuration for the API server and CLI commands.
type AppConfig struct {
	Env  string `yaml:"env"`
	Port string `yaml:"port"`

	Database DatabaseConfig `yaml:"database"`
	RedisURL string         `yaml:"redis_url"`

	JWTSecret  string        `yaml:"jwt_secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`

	Storage StorageConfig `yaml:"storage"`
	Mail    MailConfig    `yaml:"mail"`
	Google  GoogleOAuth   `yaml:"google"`
	Notify  NotifyConfig  `yaml:"notify"`

	AllowedOrigins []string `yaml:"allowed_origins"`
	// Cron spec for purging expired refresh tokens; empty disables the job.
	TokenPurgeSchedule string `yaml:"token_purge_schedule"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type StorageConfig struct {
	Driver    string   `yaml:"driver"` // "local" | "r2"
	LocalDir  string   `yaml:"local_dir"`
	PublicURL string   `yaml:"public_url"`
	R2        R2Config `yaml:"r2"`
}

type R2Config struct {
	AccountID       string `yaml:"account_id"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	BucketName      string `yaml:"bucket_name"`
	Region          string `yaml:"region"`
}

type MailConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

// Enabled reports whether an SMTP relay is configured.
func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.Host) != ""
}

type GoogleOAuth struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type NotifyConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

func (c *AppConfig) IsDev() bool {
	return c.Env == EnvDevelopment
}

// Addr is the listen address for the HTTP server.
func (c *AppConfig) Addr() string {
	return ":" + c.Port
}

// ConnString builds the Postgres connection string, preferring an explicit DSN.
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, sslmode)
}

// Load resolves configuration from defaults, an optional YAML file, the .env
// file and the process environment, in that order.
func Load(path string) (*AppConfig, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	// Missing .env is fine, production injects the environment directly.
	_ = godotenv.Load()

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *AppConfig {
	return &AppConfig{
		Env:        EnvDevelopment,
		Port:       defaultPort,
		AccessTTL:  defaultAccessTTL,
		RefreshTTL: defaultRefreshTTL,
		Database: DatabaseConfig{
			Host: "localhost",
			Port: "5432",
			User: "postgres",
			Name: "roadrunner",
		},
		Storage: StorageConfig{
			Driver:    StorageLocal,
			LocalDir:  defaultMediaDir,
			PublicURL: "/media",
			R2:        R2Config{Region: "auto"},
		},
		Mail:               MailConfig{Port: 587},
		Notify:             NotifyConfig{Workers: 2, QueueSize: defaultNotifyQueue},
		TokenPurgeSchedule: "@hourly",
	}
}

func applyEnv(cfg *AppConfig) error {
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.Port, "PORT")

	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Name, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")
	setString(&cfg.RedisURL, "REDIS_URL")

	setString(&cfg.JWTSecret, "JWT_SECRET")
	if err := setDuration(&cfg.AccessTTL, "JWT_ACCESS_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RefreshTTL, "JWT_REFRESH_TTL"); err != nil {
		return err
	}

	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.LocalDir, "MEDIA_DIR")
	setString(&cfg.Storage.PublicURL, "MEDIA_PUBLIC_URL")
	setString(&cfg.Storage.R2.AccountID, "CLOUDFLARE_ACCOUNT_ID")
	setString(&cfg.Storage.R2.AccessKeyID, "CLOUDFLARE_ACCESS_KEY_ID")
	setString(&cfg.Storage.R2.SecretAccessKey, "CLOUDFLARE_SECRET_ACCESS_KEY")
	setString(&cfg.Storage.R2.BucketName, "CLOUDFLARE_BUCKET_NAME")
	if v := os.Getenv("CLOUDFLARE_PUBLIC_URL"); v != "" && cfg.Storage.Driver == StorageR2 {
		cfg.Storage.PublicURL = v
	}

	setString(&cfg.Mail.Host, "SMTP_HOST")
	if err := setInt(&cfg.Mail.Port, "SMTP_PORT"); err != nil {
		return err
	}
	setString(&cfg.Mail.User, "SMTP_USER")
	setString(&cfg.Mail.Pass, "SMTP_PASS")
	setString(&cfg.Mail.From, "SMTP_FROM")

	setString(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&cfg.Google.RedirectURL, "GOOGLE_REDIRECT_URL")

	if err := setInt(&cfg.Notify.Workers, "NOTIFY_WORKERS"); err != nil {
		return err
	}
	if err := setInt(&cfg.Notify.QueueSize, "NOTIFY_QUEUE_SIZE"); err != nil {
		return err
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("TOKEN_PURGE_SCHEDULE"); ok {
		cfg.TokenPurgeSchedule = strings.TrimSpace(v)
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *AppConfig) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("invalid env %q, expected %q or %q", c.Env, EnvDevelopment, EnvProduction)
	}
	if c.JWTSecret == "" {
		if !c.IsDev() {
			return errors.New("JWT_SECRET is required outside development")
		}
		c.JWTSecret = "roadrunner-dev-secret"
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.AccessTTL >= c.RefreshTTL {
		return errors.New("access token lifetime must be shorter than the refresh token lifetime")
	}
	switch c.Storage.Driver {
	case StorageLocal:
		if c.Storage.LocalDir == "" {
			return errors.New("MEDIA_DIR is required for local storage")
		}
	case StorageR2:
		r2 := c.Storage.R2
		if r2.AccountID == "" || r2.AccessKeyID == "" || r2.SecretAccessKey == "" || r2.BucketName == "" {
			return errors.New("r2 storage requires account id, access key, secret and bucket name")
		}
		// A path-only URL points at this server, which does not serve R2 objects.
		if strings.HasPrefix(c.Storage.PublicURL, "/") {
			c.Storage.PublicURL = ""
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Notify.Workers < 1 {
		c.Notify.Workers = 1
	}
	if c.Notify.QueueSize < 1 {
		c.Notify.QueueSize = defaultNotifyQueue
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

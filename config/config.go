package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the location of the optional YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/foodgram/config.yaml",
}

type Config struct {
	Env      string         `koanf:"env"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Password PasswordConfig `koanf:"password"`
	Storage  StorageConfig  `koanf:"storage"`
	MQ       MQConfig       `koanf:"mq"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// PublicBaseURL prefixes absolute links and image URLs. When empty the
	// scheme and host of the incoming request are used.
	PublicBaseURL  string        `koanf:"public_base_url"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type DatabaseConfig struct {
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	User           string `koanf:"user"`
	Password       string `koanf:"password"`
	DBName         string `koanf:"name"`
	UseSSL         bool   `koanf:"use_ssl"`
	MigrationsPath string `koanf:"migrations_path"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// PasswordConfig configures the strength policy applied to new passwords.
type PasswordConfig struct {
	MinLength                int  `koanf:"min_length"`
	RequireUppercase         bool `koanf:"require_uppercase"`
	RequireLowercase         bool `koanf:"require_lowercase"`
	RequireDigit             bool `koanf:"require_digit"`
	RequireLetter            bool `koanf:"require_letter"`
	RequireSpecial           bool `koanf:"require_special"`
	MaxConsecutiveRepeats    int  `koanf:"max_consecutive_repeats"`
	ForbidCommonPasswords    bool `koanf:"forbid_common"`
	ForbidUsernameSimilarity bool `koanf:"forbid_username_similarity"`
}

type StorageConfig struct {
	// Backend is one of local, minio, gcs or s3.
	Backend  string      `koanf:"backend"`
	LocalDir string      `koanf:"local_dir"`
	Minio    MinioConfig `koanf:"minio"`
	GCS      GCSConfig   `koanf:"gcs"`
	S3       S3Config    `koanf:"s3"`
}

type MinioConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	UseSSL    bool   `koanf:"use_ssl"`
}

type GCSConfig struct {
	Bucket          string `koanf:"bucket"`
	ProjectID       string `koanf:"project_id"`
	CredentialsFile string `koanf:"credentials_file"`
}

type S3Config struct {
	Region          string `koanf:"region"`
	Bucket          string `koanf:"bucket"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	UsePathStyle    bool   `koanf:"use_path_style"`
}

type MQConfig struct {
	// Backend is one of rabbitmq or pubsub. Empty disables domain events.
	Backend       string         `koanf:"backend"`
	EventsChannel string         `koanf:"events_channel"`
	RabbitMQ      RabbitMQConfig `koanf:"rabbitmq"`
	PubSub        PubSubConfig   `koanf:"pubsub"`
}

type RabbitMQConfig struct {
	URL             string `koanf:"url"`
	QueueDurable    bool   `koanf:"queue_durable"`
	QueueAutoDelete bool   `koanf:"queue_auto_delete"`
	PrefetchCount   int    `koanf:"prefetch_count"`
}

type PubSubConfig struct {
	ProjectID          string `koanf:"project_id"`
	CredentialsFile    string `koanf:"credentials_file"`
	SubscriptionSuffix string `koanf:"subscription_suffix"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

func defaultConfig() Config {
	return Config{
		Env: "prod",
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			RequestTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           "foodgram",
			Password:       "password",
			DBName:         "foodgram",
			MigrationsPath: "internal/db/migrations",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		API: APIConfig{
			DefaultPageSize: 6,
			MaxPageSize:     100,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Password: PasswordConfig{
			MinLength:                8,
			RequireDigit:             true,
			RequireLetter:            true,
			MaxConsecutiveRepeats:    4,
			ForbidCommonPasswords:    true,
			ForbidUsernameSimilarity: true,
		},
		Storage: StorageConfig{
			Backend:  "local",
			LocalDir: "./media",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		MQ: MQConfig{
			EventsChannel: "foodgram.events",
			RabbitMQ: RabbitMQConfig{
				QueueDurable:  true,
				PrefetchCount: 10,
			},
			PubSub: PubSubConfig{
				SubscriptionSuffix: "-sub",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig layers defaults, an optional YAML file and environment
// variables, in increasing priority. In dev a .env file is read first.
func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if err := splitListField(k, "security.cors_origins"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case "local", "minio", "gcs", "s3":
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	switch c.MQ.Backend {
	case "", "rabbitmq", "pubsub":
	default:
		errs = append(errs, fmt.Errorf("unknown mq backend %q", c.MQ.Backend))
	}

	if c.API.DefaultPageSize < 1 {
		errs = append(errs, errors.New("api default page size must be positive"))
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		errs = append(errs, errors.New("api max page size must not be below the default page size"))
	}
	if c.Password.MinLength < 1 {
		errs = append(errs, errors.New("password min length must be positive"))
	}
	if c.Server.PublicBaseURL != "" && !strings.HasPrefix(c.Server.PublicBaseURL, "http") {
		errs = append(errs, errors.New("public base url must start with http:// or https://"))
	}

	return errors.Join(errs...)
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// splitListField turns a comma-separated env value into a slice.
// Values coming from YAML are already lists and are left alone.
func splitListField(k *koanf.Koanf, path string) error {
	raw, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if err := k.Set(path, items); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

var envMappings = map[string]string{
	"env": "env",

	"server_port":            "server.port",
	"public_base_url":        "server.public_base_url",
	"server_read_timeout":    "server.read_timeout",
	"server_write_timeout":   "server.write_timeout",
	"server_idle_timeout":    "server.idle_timeout",
	"server_request_timeout": "server.request_timeout",

	"db_host":         "database.host",
	"db_port":         "database.port",
	"db_user":         "database.user",
	"db_password":     "database.password",
	"db_name":         "database.name",
	"db_use_ssl":      "database.use_ssl",
	"migrations_path": "database.migrations_path",

	"jwt_secret": "auth.jwt_secret",
	"jwt_ttl":    "auth.token_ttl",

	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"password_min_length":                 "password.min_length",
	"password_require_uppercase":          "password.require_uppercase",
	"password_require_lowercase":          "password.require_lowercase",
	"password_require_digit":              "password.require_digit",
	"password_require_letter":             "password.require_letter",
	"password_require_special":            "password.require_special",
	"password_max_consecutive_repeats":    "password.max_consecutive_repeats",
	"password_forbid_common":              "password.forbid_common",
	"password_forbid_username_similarity": "password.forbid_username_similarity",

	"storage_backend":   "storage.backend",
	"storage_local_dir": "storage.local_dir",

	"minio_endpoint":   "storage.minio.endpoint",
	"minio_access_key": "storage.minio.access_key",
	"minio_secret_key": "storage.minio.secret_key",
	"minio_bucket":     "storage.minio.bucket",
	"minio_use_ssl":    "storage.minio.use_ssl",

	"gcs_bucket":           "storage.gcs.bucket",
	"gcs_project_id":       "storage.gcs.project_id",
	"gcs_credentials_file": "storage.gcs.credentials_file",

	"s3_region":            "storage.s3.region",
	"s3_bucket":            "storage.s3.bucket",
	"s3_endpoint":          "storage.s3.endpoint",
	"s3_access_key_id":     "storage.s3.access_key_id",
	"s3_secret_access_key": "storage.s3.secret_access_key",
	"s3_use_path_style":    "storage.s3.use_path_style",

	"mq_backend":     "mq.backend",
	"events_channel": "mq.events_channel",

	"rabbitmq_url":               "mq.rabbitmq.url",
	"rabbitmq_queue_durable":     "mq.rabbitmq.queue_durable",
	"rabbitmq_queue_auto_delete": "mq.rabbitmq.queue_auto_delete",
	"rabbitmq_prefetch_count":    "mq.rabbitmq.prefetch_count",

	"pubsub_project_id":          "mq.pubsub.project_id",
	"pubsub_credentials_file":    "mq.pubsub.credentials_file",
	"pubsub_subscription_suffix": "mq.pubsub.subscription_suffix",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps known environment variables to config paths.
// Unknown variables map to "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

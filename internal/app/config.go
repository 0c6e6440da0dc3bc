package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/gma-backend/internal/data/db"
	"github.com/yungbote/gma-backend/internal/observability"
	"github.com/yungbote/gma-backend/internal/platform/envutil"
	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/platform/objstore"
	"github.com/yungbote/gma-backend/internal/services"
)

const (
	AuthModeFirebase = "firebase"
	AuthModeHS256    = "hs256"

	serviceName = "gma-backend"
)

type StorageConfig struct {
	Mode            string `yaml:"mode"`
	UploadsDir      string `yaml:"uploads_dir"`
	Bucket          string `yaml:"bucket"`
	EmulatorHost    string `yaml:"emulator_host"`
	CredentialsFile string `yaml:"credentials_file"`
	MinioEndpoint   string `yaml:"minio_endpoint"`
	MinioAccessKey  string `yaml:"minio_access_key"`
	MinioSecretKey  string `yaml:"minio_secret_key"`
	MinioBucket     string `yaml:"minio_bucket"`
	MinioUseSSL     bool   `yaml:"minio_use_ssl"`
}

type AuthConfig struct {
	Mode                    string `yaml:"mode"`
	FirebaseCredentialsPath string `yaml:"firebase_credentials_path"`
	FirebaseProjectID       string `yaml:"firebase_project_id"`
	SecretKey               string `yaml:"secret_key"`
}

type DatabaseConfig struct {
	Driver           string `yaml:"driver"`
	SQLitePath       string `yaml:"sqlite_path"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresName     string `yaml:"postgres_name"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`
}

// Config is built once at startup and threaded into constructors. Values
// come from defaults, then the optional YAML file, then the environment.
type Config struct {
	Port        string `yaml:"port"`
	LogMode     string `yaml:"log_mode"`
	Environment string `yaml:"environment"`
	APIVersion  string `yaml:"api_version"`

	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`

	MaxFileSize       int64    `yaml:"max_file_size"`
	UploadChunkSize   int      `yaml:"upload_chunk_size"`
	AllowedExtensions []string `yaml:"allowed_extensions"`

	RedisAddr      string        `yaml:"redis_addr"`
	DoctorCacheTTL time.Duration `yaml:"doctor_cache_ttl"`

	CORSOrigins         []string      `yaml:"cors_allowed_origins"`
	UploadsPublicStatic bool          `yaml:"uploads_public_static"`
	MetricsEnabled      bool          `yaml:"metrics_enabled"`
	ShutdownGrace       time.Duration `yaml:"shutdown_grace"`
	ScorerSeed          int64         `yaml:"scorer_seed"`

	Otel observability.OtelConfig `yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		Port:        "8000",
		LogMode:     "development",
		Environment: "development",
		APIVersion:  "1.0.0",
		Database: DatabaseConfig{
			Driver:       db.DriverSQLite,
			SQLitePath:   "./gma_classifier.db",
			PostgresPort: "5432",
		},
		Storage: StorageConfig{
			Mode:       string(objstore.ModeLocal),
			UploadsDir: "./uploads",
		},
		Auth: AuthConfig{
			Mode:                    AuthModeFirebase,
			FirebaseCredentialsPath: "./serviceAccountKey.json",
		},
		MaxFileSize:       services.DefaultMaxFileSize,
		UploadChunkSize:   services.DefaultChunkSize,
		AllowedExtensions: append([]string(nil), services.DefaultAllowedExtensions...),
		DoctorCacheTTL:    10 * time.Minute,
		MetricsEnabled:    true,
		ShutdownGrace:     30 * time.Second,
	}
}

// LoadConfig reads GMA_CONFIG_FILE when set, then lets environment variables
// override individual fields.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()

	if path := envutil.String("GMA_CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}

	applyEnv(&cfg)
	cfg.Otel = observability.OtelConfigFromEnv(serviceName, cfg.Environment, cfg.APIVersion)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.Environment = envutil.String("APP_ENV", cfg.Environment)

	d := &cfg.Database
	d.Driver = strings.ToLower(envutil.String("DB_DRIVER", d.Driver))
	d.SQLitePath = envutil.String("SQLITE_PATH", d.SQLitePath)
	d.PostgresHost = envutil.String("POSTGRES_HOST", d.PostgresHost)
	d.PostgresPort = envutil.String("POSTGRES_PORT", d.PostgresPort)
	d.PostgresUser = envutil.String("POSTGRES_USER", d.PostgresUser)
	d.PostgresPassword = envutil.String("POSTGRES_PASSWORD", d.PostgresPassword)
	d.PostgresName = envutil.String("POSTGRES_NAME", d.PostgresName)
	d.PostgresSSLMode = envutil.String("POSTGRES_SSLMODE", d.PostgresSSLMode)

	s := &cfg.Storage
	s.Mode = envutil.String("OBJECT_STORAGE_MODE", s.Mode)
	s.UploadsDir = envutil.String("UPLOADS_DIR", s.UploadsDir)
	s.Bucket = envutil.String("GCS_BUCKET_NAME", s.Bucket)
	s.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", s.EmulatorHost)
	s.CredentialsFile = envutil.String("GOOGLE_APPLICATION_CREDENTIALS", s.CredentialsFile)
	s.MinioEndpoint = envutil.String("MINIO_ENDPOINT", s.MinioEndpoint)
	s.MinioAccessKey = envutil.String("MINIO_ACCESS_KEY", s.MinioAccessKey)
	s.MinioSecretKey = envutil.String("MINIO_SECRET_KEY", s.MinioSecretKey)
	s.MinioBucket = envutil.String("MINIO_BUCKET", s.MinioBucket)
	s.MinioUseSSL = envutil.Bool("MINIO_USE_SSL", s.MinioUseSSL)

	a := &cfg.Auth
	a.Mode = strings.ToLower(envutil.String("AUTH_MODE", a.Mode))
	a.FirebaseCredentialsPath = envutil.String("FIREBASE_CREDENTIALS_PATH", a.FirebaseCredentialsPath)
	a.FirebaseProjectID = envutil.String("FIREBASE_PROJECT_ID", a.FirebaseProjectID)
	a.SecretKey = envutil.String("SECRET_KEY", a.SecretKey)

	cfg.MaxFileSize = envutil.Int64("MAX_FILE_SIZE", cfg.MaxFileSize)
	cfg.UploadChunkSize = envutil.Int("UPLOAD_CHUNK_SIZE", cfg.UploadChunkSize)
	cfg.AllowedExtensions = envutil.List("ALLOWED_EXTENSIONS", cfg.AllowedExtensions)

	cfg.RedisAddr = envutil.String("REDIS_ADDR", cfg.RedisAddr)
	cfg.DoctorCacheTTL = envutil.Duration("DOCTOR_CACHE_TTL", cfg.DoctorCacheTTL)

	cfg.CORSOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)
	cfg.UploadsPublicStatic = envutil.Bool("UPLOADS_PUBLIC_STATIC", cfg.UploadsPublicStatic)
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.ShutdownGrace = envutil.Duration("SHUTDOWN_GRACE", cfg.ShutdownGrace)
	cfg.ScorerSeed = envutil.Int64("SCORER_SEED", cfg.ScorerSeed)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.MaxFileSize)
	}
	if c.UploadChunkSize <= 0 {
		return fmt.Errorf("UPLOAD_CHUNK_SIZE must be positive, got %d", c.UploadChunkSize)
	}
	switch c.Database.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Auth.Mode {
	case AuthModeFirebase:
	case AuthModeHS256:
		if strings.TrimSpace(c.Auth.SecretKey) == "" {
			return fmt.Errorf("SECRET_KEY is required when AUTH_MODE=%s", AuthModeHS256)
		}
	default:
		return fmt.Errorf("unsupported AUTH_MODE %q (allowed: %q, %q)", c.Auth.Mode, AuthModeFirebase, AuthModeHS256)
	}
	return objstore.Validate(c.ObjectStore())
}

func (c Config) DB() db.Config {
	return db.Config{
		Driver:           c.Database.Driver,
		SQLitePath:       c.Database.SQLitePath,
		PostgresHost:     c.Database.PostgresHost,
		PostgresPort:     c.Database.PostgresPort,
		PostgresUser:     c.Database.PostgresUser,
		PostgresPassword: c.Database.PostgresPassword,
		PostgresName:     c.Database.PostgresName,
		PostgresSSLMode:  c.Database.PostgresSSLMode,
	}
}

func (c Config) ObjectStore() objstore.Config {
	s := c.Storage
	cfg := objstore.Config{
		Mode:            objstore.ParseMode(s.Mode),
		Root:            s.UploadsDir,
		Bucket:          s.Bucket,
		EmulatorHost:    s.EmulatorHost,
		CredentialsFile: s.CredentialsFile,
		Endpoint:        s.MinioEndpoint,
		AccessKey:       s.MinioAccessKey,
		SecretKey:       s.MinioSecretKey,
		UseSSL:          s.MinioUseSSL,
	}
	if cfg.Mode == objstore.ModeMinio {
		cfg.Bucket = s.MinioBucket
	}
	return cfg
}

func (c Config) Upload() services.UploadConfig {
	return services.UploadConfig{
		MaxFileSize:       c.MaxFileSize,
		ChunkSize:         c.UploadChunkSize,
		AllowedExtensions: c.AllowedExtensions,
	}
}

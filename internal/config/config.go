package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Upload      UploadConfig
	Acquisition AcquisitionConfig
	Classifier  ClassifierConfig
	Schema      SchemaConfig
	Extraction  ExtractionConfig
	Tracking    TrackingConfig
	S3          S3Config
	Cache       CacheConfig
	Auth        AuthConfig
	CORS        CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// UploadConfig holds the input policy applied before the pipeline runs.
type UploadConfig struct {
	MaxFileSizeMB     int64    `mapstructure:"max_file_size_mb"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	MaxFiles          int      `mapstructure:"max_files"`
}

// MaxBytes returns the size ceiling in bytes.
func (u *UploadConfig) MaxBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// AcquisitionConfig holds text acquisition settings.
type AcquisitionConfig struct {
	Fallback    string  `mapstructure:"fallback"`
	Threshold   float64 `mapstructure:"threshold"`
	OCRLanguage string  `mapstructure:"ocr_language"`
	MaxWidth    int     `mapstructure:"max_width"`
}

// ClassifierConfig holds classification model settings.
type ClassifierConfig struct {
	Backend      string `mapstructure:"backend"`
	ModelPath    string `mapstructure:"model_path"`
	Endpoint     string `mapstructure:"endpoint"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
	MaxLength    int    `mapstructure:"max_length"`
	Stride       int    `mapstructure:"stride"`
	Normalize    bool   `mapstructure:"normalize"`
	UnknownLabel string `mapstructure:"unknown_label"`
}

// SchemaConfig points at the field schema definition.
type SchemaConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// ProviderConfig holds settings for a single field-understanding provider.
type ProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	Endpoint     string `mapstructure:"endpoint"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ExtractionConfig holds field extraction settings with multi-provider support.
type ExtractionConfig struct {
	Mode       string `mapstructure:"mode"`
	Sentinel   string `mapstructure:"sentinel"`
	CharBudget int    `mapstructure:"char_budget"`
	MergeMode  bool   `mapstructure:"merge_mode"`

	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
	Tertiary  ProviderConfig `mapstructure:"tertiary"`
}

// PrimaryConfig returns the primary provider config, or nil if not configured.
func (e *ExtractionConfig) PrimaryConfig() *ProviderConfig {
	if e.Primary.Provider != "" {
		return &e.Primary
	}
	return nil
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (e *ExtractionConfig) SecondaryConfig() *ProviderConfig {
	if e.Secondary.Provider != "" {
		return &e.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (e *ExtractionConfig) TertiaryConfig() *ProviderConfig {
	if e.Tertiary.Provider != "" {
		return &e.Tertiary
	}
	return nil
}

// TrackingConfig holds experiment tracking settings.
type TrackingConfig struct {
	Sink        string `mapstructure:"sink"`
	URI         string `mapstructure:"uri"`
	Experiment  string `mapstructure:"experiment"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// S3Config holds settings for the artifact bucket.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// Enabled reports whether an artifact bucket is configured.
func (s *S3Config) Enabled() bool {
	return s.Bucket != ""
}

// CacheConfig holds acquisition cache settings.
type CacheConfig struct {
	Backend  string        `mapstructure:"backend"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// AuthConfig holds optional bearer-token settings for the upload routes.
type AuthConfig struct {
	Secret      string        `mapstructure:"secret"`
	Issuer      string        `mapstructure:"issuer"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

// Enabled reports whether upload routes require a token.
func (a *AuthConfig) Enabled() bool {
	return a.Secret != ""
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the DOCSENSE_ prefix.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("DOCSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 10)
	v.SetDefault("upload.allowed_extensions", "pdf,png,jpg,jpeg")
	v.SetDefault("upload.max_files", 20)

	// Acquisition defaults
	v.SetDefault("acquisition.fallback", "optical")
	v.SetDefault("acquisition.threshold", 0.5)
	v.SetDefault("acquisition.ocr_language", "fra+eng")
	v.SetDefault("acquisition.max_width", 2480)

	// Classifier defaults
	v.SetDefault("classifier.backend", "lexicon")
	v.SetDefault("classifier.model_path", "")
	v.SetDefault("classifier.endpoint", "")
	v.SetDefault("classifier.timeout_secs", 30)
	v.SetDefault("classifier.max_length", 512)
	v.SetDefault("classifier.stride", 256)
	v.SetDefault("classifier.normalize", true)
	v.SetDefault("classifier.unknown_label", "Unknown")

	// Schema defaults
	v.SetDefault("schema.path", "")
	v.SetDefault("schema.format", "auto")

	// Extraction defaults
	v.SetDefault("extraction.mode", "pattern")
	v.SetDefault("extraction.sentinel", "N/A")
	v.SetDefault("extraction.char_budget", 1000)
	v.SetDefault("extraction.merge_mode", false)
	v.SetDefault("extraction.primary.provider", "")
	v.SetDefault("extraction.primary.api_key", "")
	v.SetDefault("extraction.primary.default_model", "")
	v.SetDefault("extraction.primary.endpoint", "")
	v.SetDefault("extraction.primary.max_retries", 2)
	v.SetDefault("extraction.primary.timeout_secs", 60)
	v.SetDefault("extraction.secondary.provider", "")
	v.SetDefault("extraction.secondary.api_key", "")
	v.SetDefault("extraction.secondary.default_model", "")
	v.SetDefault("extraction.secondary.endpoint", "")
	v.SetDefault("extraction.secondary.max_retries", 2)
	v.SetDefault("extraction.secondary.timeout_secs", 60)
	v.SetDefault("extraction.tertiary.provider", "")
	v.SetDefault("extraction.tertiary.api_key", "")
	v.SetDefault("extraction.tertiary.default_model", "")
	v.SetDefault("extraction.tertiary.endpoint", "")
	v.SetDefault("extraction.tertiary.max_retries", 2)
	v.SetDefault("extraction.tertiary.timeout_secs", 60)

	// Tracking defaults
	v.SetDefault("tracking.sink", "log")
	v.SetDefault("tracking.uri", "http://localhost:5000")
	v.SetDefault("tracking.experiment", "Document_Extraction")
	v.SetDefault("tracking.timeout_secs", 10)

	// S3 defaults (artifacts disabled unless a bucket is set)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")

	// Cache defaults
	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.prefix", "docsense:")
	v.SetDefault("cache.ttl", "24h")

	// Auth defaults (disabled unless a secret is set)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "docsense")
	v.SetDefault("auth.token_expiry", "24h")

	// CORS defaults (frontend dev server)
	v.SetDefault("cors.allowed_origins", "http://localhost:5173,http://127.0.0.1:5173")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                        "DOCSENSE_SERVER_PORT",
		"server.read_timeout":                "DOCSENSE_SERVER_READ_TIMEOUT",
		"server.write_timeout":               "DOCSENSE_SERVER_WRITE_TIMEOUT",
		"server.environment":                 "DOCSENSE_SERVER_ENVIRONMENT",
		"log.level":                          "DOCSENSE_LOG_LEVEL",
		"log.format":                         "DOCSENSE_LOG_FORMAT",
		"upload.max_file_size_mb":            "DOCSENSE_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.allowed_extensions":          "DOCSENSE_UPLOAD_ALLOWED_EXTENSIONS",
		"upload.max_files":                   "DOCSENSE_UPLOAD_MAX_FILES",
		"acquisition.fallback":               "DOCSENSE_ACQUISITION_FALLBACK",
		"acquisition.threshold":              "DOCSENSE_ACQUISITION_THRESHOLD",
		"acquisition.ocr_language":           "DOCSENSE_ACQUISITION_OCR_LANGUAGE",
		"acquisition.max_width":              "DOCSENSE_ACQUISITION_MAX_WIDTH",
		"classifier.backend":                 "DOCSENSE_CLASSIFIER_BACKEND",
		"classifier.model_path":              "DOCSENSE_CLASSIFIER_MODEL_PATH",
		"classifier.endpoint":                "DOCSENSE_CLASSIFIER_ENDPOINT",
		"classifier.timeout_secs":            "DOCSENSE_CLASSIFIER_TIMEOUT_SECS",
		"classifier.max_length":              "DOCSENSE_CLASSIFIER_MAX_LENGTH",
		"classifier.stride":                  "DOCSENSE_CLASSIFIER_STRIDE",
		"classifier.normalize":               "DOCSENSE_CLASSIFIER_NORMALIZE",
		"classifier.unknown_label":           "DOCSENSE_CLASSIFIER_UNKNOWN_LABEL",
		"schema.path":                        "DOCSENSE_SCHEMA_PATH",
		"schema.format":                      "DOCSENSE_SCHEMA_FORMAT",
		"extraction.mode":                    "DOCSENSE_EXTRACTION_MODE",
		"extraction.sentinel":                "DOCSENSE_EXTRACTION_SENTINEL",
		"extraction.char_budget":             "DOCSENSE_EXTRACTION_CHAR_BUDGET",
		"extraction.merge_mode":              "DOCSENSE_EXTRACTION_MERGE_MODE",
		"extraction.primary.provider":        "DOCSENSE_EXTRACTION_PRIMARY_PROVIDER",
		"extraction.primary.api_key":         "DOCSENSE_EXTRACTION_PRIMARY_API_KEY",
		"extraction.primary.default_model":   "DOCSENSE_EXTRACTION_PRIMARY_DEFAULT_MODEL",
		"extraction.primary.endpoint":        "DOCSENSE_EXTRACTION_PRIMARY_ENDPOINT",
		"extraction.primary.max_retries":     "DOCSENSE_EXTRACTION_PRIMARY_MAX_RETRIES",
		"extraction.primary.timeout_secs":    "DOCSENSE_EXTRACTION_PRIMARY_TIMEOUT_SECS",
		"extraction.secondary.provider":      "DOCSENSE_EXTRACTION_SECONDARY_PROVIDER",
		"extraction.secondary.api_key":       "DOCSENSE_EXTRACTION_SECONDARY_API_KEY",
		"extraction.secondary.default_model": "DOCSENSE_EXTRACTION_SECONDARY_DEFAULT_MODEL",
		"extraction.secondary.endpoint":      "DOCSENSE_EXTRACTION_SECONDARY_ENDPOINT",
		"extraction.secondary.max_retries":   "DOCSENSE_EXTRACTION_SECONDARY_MAX_RETRIES",
		"extraction.secondary.timeout_secs":  "DOCSENSE_EXTRACTION_SECONDARY_TIMEOUT_SECS",
		"extraction.tertiary.provider":       "DOCSENSE_EXTRACTION_TERTIARY_PROVIDER",
		"extraction.tertiary.api_key":        "DOCSENSE_EXTRACTION_TERTIARY_API_KEY",
		"extraction.tertiary.default_model":  "DOCSENSE_EXTRACTION_TERTIARY_DEFAULT_MODEL",
		"extraction.tertiary.endpoint":       "DOCSENSE_EXTRACTION_TERTIARY_ENDPOINT",
		"extraction.tertiary.max_retries":    "DOCSENSE_EXTRACTION_TERTIARY_MAX_RETRIES",
		"extraction.tertiary.timeout_secs":   "DOCSENSE_EXTRACTION_TERTIARY_TIMEOUT_SECS",
		"tracking.sink":                      "DOCSENSE_TRACKING_SINK",
		"tracking.uri":                       "DOCSENSE_TRACKING_URI",
		"tracking.experiment":                "DOCSENSE_TRACKING_EXPERIMENT",
		"tracking.timeout_secs":              "DOCSENSE_TRACKING_TIMEOUT_SECS",
		"s3.region":                          "DOCSENSE_S3_REGION",
		"s3.bucket":                          "DOCSENSE_S3_BUCKET",
		"s3.endpoint":                        "DOCSENSE_S3_ENDPOINT",
		"s3.access_key":                      "DOCSENSE_S3_ACCESS_KEY",
		"s3.secret_key":                      "DOCSENSE_S3_SECRET_KEY",
		"cache.backend":                      "DOCSENSE_CACHE_BACKEND",
		"cache.addr":                         "DOCSENSE_CACHE_ADDR",
		"cache.password":                     "DOCSENSE_CACHE_PASSWORD",
		"cache.db":                           "DOCSENSE_CACHE_DB",
		"cache.prefix":                       "DOCSENSE_CACHE_PREFIX",
		"cache.ttl":                          "DOCSENSE_CACHE_TTL",
		"auth.secret":                        "DOCSENSE_AUTH_SECRET",
		"auth.issuer":                        "DOCSENSE_AUTH_ISSUER",
		"auth.token_expiry":                  "DOCSENSE_AUTH_TOKEN_EXPIRY",
		"cors.allowed_origins":               "DOCSENSE_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if DOCSENSE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCSENSE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB:     v.GetInt64("upload.max_file_size_mb"),
		AllowedExtensions: splitList(v.GetString("upload.allowed_extensions")),
		MaxFiles:          v.GetInt("upload.max_files"),
	}
	cfg.Acquisition = AcquisitionConfig{
		Fallback:    v.GetString("acquisition.fallback"),
		Threshold:   v.GetFloat64("acquisition.threshold"),
		OCRLanguage: v.GetString("acquisition.ocr_language"),
		MaxWidth:    v.GetInt("acquisition.max_width"),
	}
	cfg.Classifier = ClassifierConfig{
		Backend:      v.GetString("classifier.backend"),
		ModelPath:    v.GetString("classifier.model_path"),
		Endpoint:     v.GetString("classifier.endpoint"),
		TimeoutSecs:  v.GetInt("classifier.timeout_secs"),
		MaxLength:    v.GetInt("classifier.max_length"),
		Stride:       v.GetInt("classifier.stride"),
		Normalize:    v.GetBool("classifier.normalize"),
		UnknownLabel: v.GetString("classifier.unknown_label"),
	}
	cfg.Schema = SchemaConfig{
		Path:   v.GetString("schema.path"),
		Format: v.GetString("schema.format"),
	}
	cfg.Extraction = ExtractionConfig{
		Mode:       v.GetString("extraction.mode"),
		Sentinel:   v.GetString("extraction.sentinel"),
		CharBudget: v.GetInt("extraction.char_budget"),
		MergeMode:  v.GetBool("extraction.merge_mode"),
		Primary:    providerConfig(v, "extraction.primary"),
		Secondary:  providerConfig(v, "extraction.secondary"),
		Tertiary:   providerConfig(v, "extraction.tertiary"),
	}
	cfg.Tracking = TrackingConfig{
		Sink:        v.GetString("tracking.sink"),
		URI:         v.GetString("tracking.uri"),
		Experiment:  v.GetString("tracking.experiment"),
		TimeoutSecs: v.GetInt("tracking.timeout_secs"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Cache = CacheConfig{
		Backend:  v.GetString("cache.backend"),
		Addr:     v.GetString("cache.addr"),
		Password: v.GetString("cache.password"),
		DB:       v.GetInt("cache.db"),
		Prefix:   v.GetString("cache.prefix"),
		TTL:      v.GetDuration("cache.ttl"),
	}
	cfg.Auth = AuthConfig{
		Secret:      v.GetString("auth.secret"),
		Issuer:      v.GetString("auth.issuer"),
		TokenExpiry: v.GetDuration("auth.token_expiry"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	if !(c.Acquisition.Threshold >= 0 && c.Acquisition.Threshold <= 1) {
		return fmt.Errorf("acquisition.threshold must be within [0,1], got %v", c.Acquisition.Threshold)
	}
	switch c.Acquisition.Fallback {
	case "structure", "optical":
	default:
		return fmt.Errorf("acquisition.fallback must be structure or optical, got %q", c.Acquisition.Fallback)
	}
	if c.Classifier.MaxLength <= 0 {
		return fmt.Errorf("classifier.max_length must be positive")
	}
	if c.Classifier.Stride <= 0 || c.Classifier.Stride >= c.Classifier.MaxLength {
		return fmt.Errorf("classifier.stride must be in (0, max_length), got %d", c.Classifier.Stride)
	}
	switch c.Extraction.Mode {
	case "pattern":
	case "delegated":
		if c.Extraction.PrimaryConfig() == nil {
			return fmt.Errorf("extraction.mode delegated requires extraction.primary.provider")
		}
	default:
		return fmt.Errorf("extraction.mode must be pattern or delegated, got %q", c.Extraction.Mode)
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		return fmt.Errorf("upload.max_file_size_mb must be positive")
	}
	return nil
}

func providerConfig(v *viper.Viper, prefix string) ProviderConfig {
	return ProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		Endpoint:     v.GetString(prefix + ".endpoint"),
		MaxRetries:   v.GetInt(prefix + ".max_retries"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/openlearn-backend/internal/platform/envutil"
	"github.com/yungbote/openlearn-backend/internal/platform/llm"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
	"github.com/yungbote/openlearn-backend/internal/platform/objectstore"
	"github.com/yungbote/openlearn-backend/internal/platform/qdrant"
)

const defaultSecret = "change-me"

type DatabaseConfig struct {
	Driver string
	URL    string
}

type AuthConfig struct {
	SecretKey        string
	Algorithm        string
	RefreshSecretKey string
	RefreshAlgorithm string
	AccessMaxAge     time.Duration
	RefreshTTL       time.Duration
}

type LLMConfig struct {
	Provider        string
	OllamaBaseURL   string
	OllamaModel     string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	Timeout         time.Duration
}

type StorageConfig struct {
	Backend  string
	BasePath string
	S3       objectstore.S3Config
}

type OtelSettings struct {
	Enabled     bool
	Endpoint    string
	Headers     string
	Insecure    bool
	SampleRatio float64
}

// Config is built once at startup and passed down explicitly.
type Config struct {
	ProjectName  string
	APIV1Prefix  string
	Port         int
	LogMode      string
	CORSOrigins  []string

	Database DatabaseConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Storage  StorageConfig

	QdrantURL        string
	QdrantCollection string
	QdrantAPIKey     string

	RedisURL           string
	EnrichmentCacheTTL time.Duration
	WikipediaLanguage  string

	NATSURL    string
	NATSStream string

	MetricsEnabled bool
	Otel           OtelSettings
}

// Development reports whether insecure defaults are acceptable.
func (c Config) Development() bool {
	switch strings.ToLower(c.LogMode) {
	case "development", "dev", "test":
		return true
	}
	return false
}

// source resolves a key from the environment first, then the optional YAML
// file, then the default.
type source struct {
	file map[string]string
}

func (s source) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	if v, ok := s.file[strings.ToLower(key)]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	return "", false
}

func (s source) str(key, def string) string {
	if v, ok := s.lookup(key); ok {
		return v
	}
	return def
}

func (s source) integer(key string, def int) int {
	if _, ok := os.LookupEnv(key); ok {
		return envutil.Int(key, def)
	}
	if v, ok := s.lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (s source) boolean(key string, def bool) bool {
	if _, ok := os.LookupEnv(key); ok {
		return envutil.Bool(key, def)
	}
	if v, ok := s.lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (s source) duration(key string, def time.Duration) time.Duration {
	if _, ok := os.LookupEnv(key); ok {
		return envutil.Duration(key, def)
	}
	if v, ok := s.lookup(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func (s source) float(key string, def float64) float64 {
	if v, ok := s.lookup(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// readConfigFile loads flat YAML key/value pairs. Nested values are ignored.
func readConfigFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(doc))
	for k, v := range doc {
		switch t := v.(type) {
		case nil, map[string]any, []any:
			continue
		default:
			out[strings.ToLower(k)] = fmt.Sprint(t)
		}
	}
	return out, nil
}

func LoadConfig(log *logger.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("could not load .env", "error", err.Error())
	}

	src := source{}
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		file, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		src.file = file
		log.Info("config file loaded", "path", path, "keys", len(file))
	}

	secret := src.str("JWT_SECRET_KEY", "")
	algorithm := src.str("JWT_ALGORITHM", "HS256")

	cfg := Config{
		ProjectName: src.str("PROJECT_NAME", "openlearn"),
		APIV1Prefix: src.str("API_V1_PREFIX", "/api/v1"),
		Port:        src.integer("PORT", 8080),
		LogMode:     src.str("LOG_MODE", "development"),
		CORSOrigins: splitList(src.str("CORS_ALLOWED_ORIGINS", "")),

		Database: DatabaseConfig{
			Driver: strings.ToLower(src.str("DB_DRIVER", "postgres")),
		},
		Auth: AuthConfig{
			SecretKey:        secret,
			Algorithm:        algorithm,
			RefreshSecretKey: src.str("REFRESH_TOKEN_SECRET_KEY", secret),
			RefreshAlgorithm: src.str("REFRESH_TOKEN_ALGORITHM", algorithm),
			AccessMaxAge:     time.Duration(src.integer("ACCESS_TOKEN_EXPIRE_MINUTES", 60)) * time.Minute,
			RefreshTTL:       time.Duration(src.integer("REFRESH_TOKEN_EXPIRE_DAYS", 30)) * 24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:        strings.ToLower(src.str("LLM_PROVIDER", llm.ProviderOllama)),
			OllamaBaseURL:   src.str("OLLAMA_BASE_URL", "http://ollama:11434"),
			OllamaModel:     src.str("OLLAMA_MODEL", "llama3"),
			OpenAIAPIKey:    src.str("OPENAI_API_KEY", ""),
			OpenAIModel:     src.str("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL:   src.str("OPENAI_BASE_URL", ""),
			AnthropicAPIKey: src.str("ANTHROPIC_API_KEY", ""),
			AnthropicModel:  src.str("ANTHROPIC_MODEL", ""),
			GeminiAPIKey:    src.str("GEMINI_API_KEY", ""),
			GeminiModel:     src.str("GEMINI_MODEL", "gemini-2.0-flash"),
			GeminiBaseURL:   src.str("GEMINI_BASE_URL", ""),
			Timeout:         src.duration("LLM_TIMEOUT", 120*time.Second),
		},
		Storage: StorageConfig{
			Backend:  strings.ToLower(src.str("STORAGE_BACKEND", objectstore.BackendLocal)),
			BasePath: src.str("STORAGE_BASE_PATH", "./data/materials"),
			S3: objectstore.S3Config{
				Bucket:         src.str("S3_BUCKET", ""),
				Endpoint:       src.str("S3_ENDPOINT", ""),
				Region:         src.str("S3_REGION", "us-east-1"),
				AccessKey:      src.str("S3_ACCESS_KEY", ""),
				SecretKey:      src.str("S3_SECRET_KEY", ""),
				ForcePathStyle: src.boolean("S3_FORCE_PATH_STYLE", false),
			},
		},

		QdrantURL:        src.str("QDRANT_URL", ""),
		QdrantCollection: src.str("QDRANT_COLLECTION", qdrant.DefaultCollection),
		QdrantAPIKey:     src.str("QDRANT_API_KEY", ""),

		RedisURL:           src.str("REDIS_URL", ""),
		EnrichmentCacheTTL: src.duration("ENRICHMENT_CACHE_TTL", 24*time.Hour),
		WikipediaLanguage:  src.str("WIKIPEDIA_LANGUAGE", "en"),

		NATSURL:    src.str("NATS_URL", ""),
		NATSStream: src.str("NATS_STREAM", "MATERIALS"),

		MetricsEnabled: src.boolean("METRICS_ENABLED", true),
		Otel: OtelSettings{
			Enabled:     src.boolean("OTEL_ENABLED", false),
			Endpoint:    src.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     src.str("OTEL_EXPORTER_OTLP_HEADERS", ""),
			Insecure:    src.boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: src.float("OTEL_SAMPLER_RATIO", 1),
		},
	}
	cfg.Database.URL = databaseURL(src, cfg.Database.Driver)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = defaultSecret
		if cfg.Auth.RefreshSecretKey == "" {
			cfg.Auth.RefreshSecretKey = defaultSecret
		}
		log.Warn("JWT_SECRET_KEY not set; using an insecure development secret")
	}
	return cfg, nil
}

// databaseURL prefers DATABASE_URL and otherwise assembles a postgres DSN
// from the POSTGRES_* parts.
func databaseURL(src source, driver string) string {
	if v := src.str("DATABASE_URL", ""); v != "" {
		return v
	}
	if driver == "sqlite" {
		return "file:openlearn.db"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(src.str("POSTGRES_USER", "postgres"), src.str("POSTGRES_PASSWORD", "")),
		Host:     src.str("POSTGRES_HOST", "localhost") + ":" + src.str("POSTGRES_PORT", "5432"),
		Path:     "/" + src.str("POSTGRES_DB", "openlearn"),
		RawQuery: "sslmode=" + src.str("POSTGRES_SSLMODE", "disable"),
	}
	return u.String()
}

func (c Config) validate() error {
	if c.Auth.SecretKey == "" && !c.Development() {
		return errors.New("config: JWT_SECRET_KEY is required outside development")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.LLM.Provider {
	case llm.ProviderOllama:
	case llm.ProviderOpenAI:
		if c.LLM.OpenAIAPIKey == "" {
			return errors.New("config: OPENAI_API_KEY is required for LLM_PROVIDER=openai")
		}
	case llm.ProviderAnthropic:
		if c.LLM.AnthropicAPIKey == "" {
			return errors.New("config: ANTHROPIC_API_KEY is required for LLM_PROVIDER=anthropic")
		}
	case llm.ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return errors.New("config: GEMINI_API_KEY is required for LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("config: unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}
	switch c.Storage.Backend {
	case objectstore.BackendLocal:
	case objectstore.BackendS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("config: S3_BUCKET is required for STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("config: unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid PORT %d", c.Port)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vector store drivers.
const (
	DriverQdrant = "qdrant"
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config holds the catan API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	CORS        CORSConfig        `yaml:"cors"`
	Google      GoogleConfig      `yaml:"google"`
	Provider    ProviderConfig    `yaml:"provider"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port             int   `yaml:"port"`
	ReadTimeoutSec   int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec  int   `yaml:"write_timeout_sec"`
	ShutdownSec      int   `yaml:"shutdown_timeout_sec"`
	MaxContentLength int64 `yaml:"max_content_length"` // bytes, analyze request bodies
}

// CORSConfig holds the cross-origin allow-list.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GoogleConfig holds cloud project identifiers for the AI provider.
type GoogleConfig struct {
	Project         string `yaml:"project"`
	CredentialsFile string `yaml:"credentials_file"`
	Location        string `yaml:"location"`
}

// ProviderConfig holds the OpenAI-compatible endpoint shared by embeddings and chat.
type ProviderConfig struct {
	Name    string `yaml:"name"` // metrics label
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"` // 0 = provider default
}

// LLMConfig holds chat model settings. Sampling is fixed per process.
type LLMConfig struct {
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	TopP            float32 `yaml:"top_p"`
	TopK            int     `yaml:"top_k"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// VectorStoreConfig holds vector database connection settings.
type VectorStoreConfig struct {
	Driver           string `yaml:"driver"` // qdrant, valkey, redis, sqlite (default: qdrant)
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	APIKey           string `yaml:"api_key"`  // qdrant
	Password         string `yaml:"password"` // valkey/redis
	SQLitePath       string `yaml:"sqlite_path"`
	KeyPrefix        string `yaml:"key_prefix"`
	HNSWM            int    `yaml:"hnsw_m"`
	HNSWEFConstruct  int    `yaml:"hnsw_ef_construction"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// Addr returns host:port.
func (c VectorStoreConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// PostgresConfig holds relational database settings. Reserved; nothing connects to it yet.
type PostgresConfig struct {
	Server   string `yaml:"server"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DB       string `yaml:"db"`
	URI      string `yaml:"uri"`
}

// DatabaseURI returns the explicit URI or one assembled from the connection pieces.
func (c *Config) DatabaseURI() string {
	if c.Postgres.URI != "" {
		return c.Postgres.URI
	}
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(c.Postgres.User, c.Postgres.Password),
		Host:   c.Postgres.Server,
		Path:   "/" + c.Postgres.DB,
	}
	return u.String()
}

// RedactedDatabaseURI is DatabaseURI with the password masked, for logs.
func (c *Config) RedactedDatabaseURI() string {
	u, err := url.Parse(c.DatabaseURI())
	if err != nil {
		return "invalid"
	}
	return u.Redacted()
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, decodes it and applies defaults.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxContentLength <= 0 {
		c.HTTP.MaxContentLength = 16 * 1024 * 1024
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:8000"}
	}
	if c.Google.Location == "" {
		c.Google.Location = "us-central1"
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "gemini"
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-004"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.0-flash"
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.TopP <= 0 {
		c.LLM.TopP = 0.95
	}
	if c.LLM.TopK <= 0 {
		c.LLM.TopK = 40
	}
	if c.LLM.MaxOutputTokens <= 0 {
		c.LLM.MaxOutputTokens = 2048
	}
	if c.VectorStore.Driver == "" {
		c.VectorStore.Driver = DriverQdrant
	}
	if c.VectorStore.Host == "" {
		c.VectorStore.Host = "localhost"
	}
	if c.VectorStore.Port <= 0 {
		c.VectorStore.Port = 6333
	}
	if c.VectorStore.SQLitePath == "" {
		c.VectorStore.SQLitePath = filepath.Join("data", "vectors.db")
	}
	if c.VectorStore.KeyPrefix == "" {
		c.VectorStore.KeyPrefix = "catan:"
	}
	if c.VectorStore.HNSWM <= 0 {
		c.VectorStore.HNSWM = 16
	}
	if c.VectorStore.HNSWEFConstruct <= 0 {
		c.VectorStore.HNSWEFConstruct = 200
	}
	if c.VectorStore.ReadinessTimeout <= 0 {
		c.VectorStore.ReadinessTimeout = 10
	}
	if c.Postgres.Server == "" {
		c.Postgres.Server = "localhost"
	}
	if c.Postgres.User == "" {
		c.Postgres.User = "postgres"
	}
	if c.Postgres.Password == "" {
		c.Postgres.Password = "postgres"
	}
	if c.Postgres.DB == "" {
		c.Postgres.DB = "catan"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.VectorStore.Driver {
	case DriverQdrant, DriverValkey, DriverRedis:
		if c.VectorStore.Port <= 0 || c.VectorStore.Port > 65535 {
			return fmt.Errorf("vector_store.port must be between 1 and 65535, got %d", c.VectorStore.Port)
		}
	case DriverSQLite:
		// path only
	default:
		return fmt.Errorf(
			"vector_store.driver must be one of qdrant, valkey, redis, sqlite, got %q",
			c.VectorStore.Driver,
		)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be at most 2, got %g", c.LLM.Temperature)
	}
	if c.LLM.TopP > 1 {
		return fmt.Errorf("llm.top_p must be at most 1, got %g", c.LLM.TopP)
	}
	if c.Postgres.URI != "" {
		if _, err := url.Parse(c.Postgres.URI); err != nil {
			return fmt.Errorf("postgres.uri: %w", err)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

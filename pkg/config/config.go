package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultProvider   = "xai"
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 8082
	DefaultXAIBaseURL = "https://api.x.ai/v1"
	DefaultAuditCSV   = "mycontent.csv"
)

// DotenvCandidates are tried in order; the first file that exists is loaded.
var DotenvCandidates = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../docker/.env",
	"../../docker/.env",
	"../docker/.env",
	"docker/.env",
}

// keyEnv lists the environment variables holding each provider's credential,
// in lookup order.
var keyEnv = map[string][]string{
	"xai":        {"XAI_API_KEY", "GROK_API_KEY"},
	"openai":     {"OPENAI_API_KEY"},
	"gemini":     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"claude":     {"CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	"groq":       {"GROQ_API_KEY"},
	"together":   {"TOGETHER_API_KEY"},
	"fireworks":  {"FIREWORKS_API_KEY"},
	"mistral":    {"MISTRAL_API_KEY"},
	"perplexity": {"PERPLEXITY_API_KEY"},
	"deepseek":   {"DEEPSEEK_API_KEY"},
}

// providerAliases maps alternate provider names to their canonical name.
var providerAliases = map[string]string{
	"grok":      "xai",
	"google":    "gemini",
	"anthropic": "claude",
}

// CanonicalProvider trims and lowercases a provider name and resolves aliases.
func CanonicalProvider(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if target, ok := providerAliases[name]; ok {
		return target
	}
	return name
}

// Config holds the application configuration.
type Config struct {
	Provider   string
	ServerHost string
	ServerPort int
	XAI        XAIConfig
	APIKeys    map[string]string
	AuditCSV   string
	LogLevel   string
	ConfigDir  string
	// EnvFile is the .env file that was loaded, empty if none was found.
	EnvFile string
}

// XAIConfig holds settings specific to the default xAI provider.
type XAIConfig struct {
	BaseURL    string
	TextModel  string
	ImageModel string
	VideoModel string
}

// FileConfig represents the structure of ~/.mediagate/config.yaml
type FileConfig struct {
	Provider string            `yaml:"provider"`
	Server   ServerFileConfig  `yaml:"server"`
	XAI      XAIFileConfig     `yaml:"xai"`
	APIKeys  map[string]string `yaml:"api_keys"`
	AuditCSV string            `yaml:"audit_csv"`
	LogLevel string            `yaml:"log_level"`
}

// ServerFileConfig is the server section of the config file.
type ServerFileConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// XAIFileConfig is the xai section of the config file.
type XAIFileConfig struct {
	APIURL     string `yaml:"api_url"`
	TextModel  string `yaml:"text_model"`
	ImageModel string `yaml:"image_model"`
	VideoModel string `yaml:"video_model"`
}

// Load reads .env candidates, ~/.mediagate/config.yaml and environment variables.
// Environment variables take precedence over file configuration.
func Load() (*Config, error) {
	envFile := LoadDotenv(DotenvCandidates)

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig, err := loadFileConfig(filepath.Join(configDir, "config.yaml"), true)
	if err != nil {
		return nil, err
	}

	cfg := build(fileConfig)
	cfg.ConfigDir = configDir
	cfg.EnvFile = envFile
	return cfg, nil
}

// LoadFile loads configuration from an explicit YAML file. Unlike Load, a
// missing file is an error.
func LoadFile(path string) (*Config, error) {
	envFile := LoadDotenv(DotenvCandidates)

	fileConfig, err := loadFileConfig(path, false)
	if err != nil {
		return nil, err
	}

	cfg := build(fileConfig)
	cfg.ConfigDir = filepath.Dir(path)
	cfg.EnvFile = envFile
	return cfg, nil
}

// LoadDotenv loads the first existing file among candidates into the process
// environment without overriding variables that are already set. It returns
// the path that was loaded, or "" if none existed or it could not be parsed.
func LoadDotenv(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return ""
		}
		return path
	}
	return ""
}

// APIKey returns the credential configured for a provider, or "".
func (c *Config) APIKey(provider string) string {
	return c.APIKeys[CanonicalProvider(provider)]
}

// HasAdapter returns true if the API key for the given provider is configured.
func (c *Config) HasAdapter(name string) bool {
	return c.APIKey(name) != ""
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

func build(file *FileConfig) *Config {
	cfg := &Config{
		Provider:   strings.ToLower(getEnvOrDefault(firstNonEmpty(file.Provider, DefaultProvider), "GEN_MODEL_PROVIDER")),
		ServerHost: getEnvOrDefault(firstNonEmpty(file.Server.Host, DefaultHost), "ARTS_ENGINE_HOST", "SERVER_HOST"),
		ServerPort: getPortOrDefault(file.Server.Port, "ARTS_ENGINE_PORT", "SERVER_PORT"),
		XAI: XAIConfig{
			BaseURL:    getEnvOrDefault(firstNonEmpty(file.XAI.APIURL, DefaultXAIBaseURL), "XAI_API_URL"),
			TextModel:  getEnvOrDefault(file.XAI.TextModel, "XAI_TEXT_MODEL"),
			ImageModel: getEnvOrDefault(file.XAI.ImageModel, "XAI_IMAGE_MODEL"),
			VideoModel: getEnvOrDefault(file.XAI.VideoModel, "XAI_VIDEO_MODEL"),
		},
		APIKeys:  make(map[string]string, len(keyEnv)),
		AuditCSV: getEnvOrDefault(firstNonEmpty(file.AuditCSV, DefaultAuditCSV), "MEDIAGATE_AUDIT_CSV"),
		LogLevel: getEnvOrDefault(firstNonEmpty(file.LogLevel, "info"), "MEDIAGATE_LOG_LEVEL"),
	}

	// Keys filed under an alias are stored under the canonical name; an
	// entry using the canonical name itself takes precedence.
	for name, key := range file.APIKeys {
		raw := strings.ToLower(strings.TrimSpace(name))
		name = CanonicalProvider(raw)
		if key = strings.TrimSpace(key); name == "" || key == "" {
			continue
		}
		if _, set := cfg.APIKeys[name]; set && raw != name {
			continue
		}
		cfg.APIKeys[name] = key
	}
	for name, vars := range keyEnv {
		if key := getEnvOrDefault("", vars...); key != "" {
			cfg.APIKeys[name] = key
		}
	}
	return cfg
}

// loadFileConfig reads the config file. A missing file yields an empty config
// when optional is set; a malformed file is always an error.
func loadFileConfig(path string, optional bool) (*FileConfig, error) {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// getEnvOrDefault returns the first non-blank environment variable among
// envVars, trimmed, otherwise the default value.
func getEnvOrDefault(defaultValue string, envVars ...string) string {
	for _, envVar := range envVars {
		if val := strings.TrimSpace(os.Getenv(envVar)); val != "" {
			return val
		}
	}
	return defaultValue
}

func getPortOrDefault(filePort int, envVars ...string) int {
	for _, envVar := range envVars {
		val := strings.TrimSpace(os.Getenv(envVar))
		if val == "" {
			continue
		}
		if port, err := strconv.Atoi(val); err == nil && port > 0 && port <= 65535 {
			return port
		}
	}
	if filePort > 0 && filePort <= 65535 {
		return filePort
	}
	return DefaultPort
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mediagate"), nil
}

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

var envVars = []string{
	"GEN_MODEL_PROVIDER", "ARTS_ENGINE_HOST", "SERVER_HOST", "ARTS_ENGINE_PORT", "SERVER_PORT",
	"XAI_API_KEY", "GROK_API_KEY", "XAI_API_URL", "XAI_TEXT_MODEL", "XAI_IMAGE_MODEL", "XAI_VIDEO_MODEL",
	"OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "CLAUDE_API_KEY", "ANTHROPIC_API_KEY",
	"GROQ_API_KEY", "TOGETHER_API_KEY", "FIREWORKS_API_KEY", "MISTRAL_API_KEY", "PERPLEXITY_API_KEY",
	"DEEPSEEK_API_KEY", "MEDIAGATE_AUDIT_CSV", "MEDIAGATE_LOG_LEVEL",
}

// isolate points HOME at a temp dir, blanks every variable Load reads and
// disables .env discovery.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	setHomeEnv(t, home)
	for _, v := range envVars {
		t.Setenv(v, "")
	}
	saved := DotenvCandidates
	DotenvCandidates = nil
	t.Cleanup(func() { DotenvCandidates = saved })
	return home
}

func writeConfig(t *testing.T, home, body string) {
	t.Helper()
	configDir := filepath.Join(home, ".mediagate")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider != "xai" {
		t.Fatalf("expected default provider xai, got %q", cfg.Provider)
	}
	if cfg.Addr() != "127.0.0.1:8082" {
		t.Fatalf("expected default addr, got %q", cfg.Addr())
	}
	if cfg.XAI.BaseURL != DefaultXAIBaseURL {
		t.Fatalf("expected default xai url, got %q", cfg.XAI.BaseURL)
	}
	if cfg.AuditCSV != "mycontent.csv" {
		t.Fatalf("expected default audit csv, got %q", cfg.AuditCSV)
	}
	if len(cfg.APIKeys) != 0 {
		t.Fatalf("expected no api keys, got %v", cfg.APIKeys)
	}
	if cfg.EnvFile != "" {
		t.Fatalf("expected no env file, got %q", cfg.EnvFile)
	}
}

func TestConfigUsesFileValues(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `
provider: Gemini
server:
  host: 0.0.0.0
  port: 9000
xai:
  text_model: grok-file
api_keys:
  gemini: file-gemini
  Groq: file-groq
audit_csv: /tmp/audit.csv
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider != "gemini" {
		t.Fatalf("expected lowercased provider from file, got %q", cfg.Provider)
	}
	if cfg.Addr() != "0.0.0.0:9000" {
		t.Fatalf("expected file addr, got %q", cfg.Addr())
	}
	if cfg.XAI.TextModel != "grok-file" {
		t.Fatalf("expected file text model, got %q", cfg.XAI.TextModel)
	}
	if cfg.APIKey("gemini") != "file-gemini" || cfg.APIKey("groq") != "file-groq" {
		t.Fatalf("expected file api keys, got %v", cfg.APIKeys)
	}
	if cfg.AuditCSV != "/tmp/audit.csv" {
		t.Fatalf("expected file audit path, got %q", cfg.AuditCSV)
	}
}

func TestConfigEnvOverridesFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "provider: gemini\napi_keys:\n  xai: file-xai\n")

	t.Setenv("GEN_MODEL_PROVIDER", " CLAUDE ")
	t.Setenv("GROK_API_KEY", "env-grok")
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")
	t.Setenv("SERVER_HOST", "localhost")
	t.Setenv("ARTS_ENGINE_PORT", "9100")
	t.Setenv("SERVER_PORT", "9200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider != "claude" {
		t.Fatalf("expected env provider, got %q", cfg.Provider)
	}
	if cfg.APIKey("xai") != "env-grok" {
		t.Fatalf("expected GROK_API_KEY fallback to win over file, got %q", cfg.APIKey("xai"))
	}
	if !cfg.HasAdapter("claude") || cfg.APIKey("claude") != "env-anthropic" {
		t.Fatalf("expected ANTHROPIC_API_KEY fallback, got %q", cfg.APIKey("claude"))
	}
	if cfg.Addr() != "localhost:9100" {
		t.Fatalf("expected ARTS_ENGINE_PORT to win, got %q", cfg.Addr())
	}
}

func TestConfigPrimaryKeyWinsOverAlias(t *testing.T) {
	isolate(t)
	t.Setenv("XAI_API_KEY", "primary")
	t.Setenv("GROK_API_KEY", "secondary")
	t.Setenv("GEMINI_API_KEY", "  ")
	t.Setenv("GOOGLE_API_KEY", "google")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey("XAI") != "primary" {
		t.Fatalf("expected XAI_API_KEY, got %q", cfg.APIKey("xai"))
	}
	if cfg.APIKey("gemini") != "google" {
		t.Fatalf("expected blank GEMINI_API_KEY to be skipped, got %q", cfg.APIKey("gemini"))
	}
}

func TestConfigFileKeysUnderAliases(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `
provider: anthropic
api_keys:
  anthropic: file-anthropic
  Google: file-google
  grok: alias-grok
  xai: canonical-xai
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKeys["claude"] != "file-anthropic" || !cfg.HasAdapter("claude") {
		t.Fatalf("expected anthropic key stored under claude, got %v", cfg.APIKeys)
	}
	if cfg.APIKey("google") != "file-google" || cfg.APIKey("gemini") != "file-google" {
		t.Fatalf("expected google key reachable by both names, got %v", cfg.APIKeys)
	}
	if cfg.APIKey("xai") != "canonical-xai" {
		t.Fatalf("expected canonical xai entry to win over alias, got %q", cfg.APIKey("xai"))
	}
	if _, ok := cfg.APIKeys["anthropic"]; ok {
		t.Fatalf("expected no alias-named entries, got %v", cfg.APIKeys)
	}
}

func TestCanonicalProvider(t *testing.T) {
	tests := map[string]string{
		" Anthropic ": "claude",
		"GOOGLE":      "gemini",
		"grok":        "xai",
		"groq":        "groq",
		"":            "",
	}
	for in, want := range tests {
		if got := CanonicalProvider(in); got != want {
			t.Fatalf("CanonicalProvider(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfigInvalidPortFallsBack(t *testing.T) {
	isolate(t)
	t.Setenv("ARTS_ENGINE_PORT", "not-a-port")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != DefaultPort {
		t.Fatalf("expected default port, got %d", cfg.ServerPort)
	}
}

func TestConfigMalformedFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "provider: [unterminated\n")

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadFileRequiresFile(t *testing.T) {
	isolate(t)

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadDotenv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("XAI_API_KEY=from-dotenv\nOPENAI_API_KEY=dotenv-openai\n"), 0600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	// XAI_API_KEY is unset so the file fills it; OPENAI_API_KEY is already set.
	if err := os.Unsetenv("XAI_API_KEY"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "process-openai")

	loaded := LoadDotenv([]string{filepath.Join(dir, "missing.env"), envPath})
	if loaded != envPath {
		t.Fatalf("expected %s to be loaded, got %q", envPath, loaded)
	}
	if got := os.Getenv("XAI_API_KEY"); got != "from-dotenv" {
		t.Fatalf("expected dotenv value, got %q", got)
	}
	if got := os.Getenv("OPENAI_API_KEY"); got != "process-openai" {
		t.Fatalf("expected process env to win, got %q", got)
	}
}

func setHomeEnv(t *testing.T, home string) {
	t.Helper()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
}

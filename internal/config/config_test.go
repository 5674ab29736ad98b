package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.OCRProviders) == 0 {
		t.Error("expected default OCR providers")
	}
	if cfg.OCRProviders["mistral"].APIKey != "${MISTRAL_API_KEY}" {
		t.Error("expected mistral API key placeholder")
	}
	if cfg.TTSProviders["elevenlabs"].APIKey != "${ELEVENLABS_API_KEY}" {
		t.Error("expected elevenlabs API key placeholder")
	}
	if cfg.Defaults.OCRProvider != "mistral" || cfg.Defaults.TTSProvider != "elevenlabs" {
		t.Errorf("unexpected default provider selections: %+v", cfg.Defaults)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("expected local storage default, got %s", cfg.Storage.Backend)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestNewManager(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
owner: reader-7
storage:
  backend: s3
  s3:
    bucket: my-books
tts_providers:
  elevenlabs:
    type: elevenlabs
    api_key: "literal-key"
    enabled: true
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	cfg := mgr.Get()
	if cfg.Owner != "reader-7" {
		t.Errorf("expected owner reader-7, got %s", cfg.Owner)
	}
	if cfg.Storage.Backend != "s3" || cfg.Storage.S3.Bucket != "my-books" {
		t.Errorf("storage config not loaded: %+v", cfg.Storage)
	}
	if cfg.TTSProviders["elevenlabs"].APIKey != "literal-key" {
		t.Errorf("tts provider config not loaded: %+v", cfg.TTSProviders)
	}
}

func TestToProviderRegistryConfig(t *testing.T) {
	os.Setenv("TEST_MISTRAL_KEY", "mk-123")
	defer os.Unsetenv("TEST_MISTRAL_KEY")

	cfg := &Config{
		OCRProviders: map[string]OCRProviderCfg{
			"mistral": {Type: "mistral-ocr", APIKey: "${TEST_MISTRAL_KEY}", Enabled: true},
		},
		TTSProviders: map[string]TTSProviderCfg{
			"elevenlabs": {Type: "elevenlabs", APIKey: "direct", Format: "mp3_22050_32", Enabled: true},
		},
	}

	reg := cfg.ToProviderRegistryConfig()
	if reg.OCRProviders["mistral"].APIKey != "mk-123" {
		t.Errorf("env var not resolved: %+v", reg.OCRProviders["mistral"])
	}
	if reg.TTSProviders["elevenlabs"].APIKey != "direct" {
		t.Errorf("literal key changed: %+v", reg.TTSProviders["elevenlabs"])
	}
	if reg.TTSProviders["elevenlabs"].Format != "mp3_22050_32" {
		t.Errorf("format not carried: %+v", reg.TTSProviders["elevenlabs"])
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected config content")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	if got := ExpandPath("~/.pagevoice/x"); got != filepath.Join(home, ".pagevoice", "x") {
		t.Errorf("unexpected expansion: %s", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path changed: %s", got)
	}
}

package config

// Config holds pagevoice configuration.
// Stored at: ~/.pagevoice/config.yaml
type Config struct {
	Owner        string                    `mapstructure:"owner" yaml:"owner"`
	Storage      StorageCfg                `mapstructure:"storage" yaml:"storage"`
	Database     DatabaseCfg               `mapstructure:"database" yaml:"database"`
	WorkDir      string                    `mapstructure:"work_dir" yaml:"work_dir"`
	OCRProviders map[string]OCRProviderCfg `mapstructure:"ocr_providers" yaml:"ocr_providers"`
	TTSProviders map[string]TTSProviderCfg `mapstructure:"tts_providers" yaml:"tts_providers"`
	Titles       TitlesCfg                 `mapstructure:"titles" yaml:"titles"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
}

// StorageCfg selects and configures the artifact store backend.
type StorageCfg struct {
	Backend   string `mapstructure:"backend" yaml:"backend"` // "local" or "s3"
	LocalRoot string `mapstructure:"local_root" yaml:"local_root"`
	S3        S3Cfg  `mapstructure:"s3" yaml:"s3"`
}

// S3Cfg configures the S3 artifact store.
type S3Cfg struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix"`
	Region          string `mapstructure:"region" yaml:"region"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"` // optional, for S3-compatible stores
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`         // supports ${ENV_VAR} syntax
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"` // supports ${ENV_VAR} syntax
}

// DatabaseCfg configures the sqlite record store.
type DatabaseCfg struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// OCRProviderCfg configures an OCR provider.
type OCRProviderCfg struct {
	Type    string `mapstructure:"type" yaml:"type"` // "mistral-ocr"
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// TTSProviderCfg configures a TTS provider.
type TTSProviderCfg struct {
	Type    string `mapstructure:"type" yaml:"type"` // "elevenlabs"
	Model   string `mapstructure:"model" yaml:"model"`
	Format  string `mapstructure:"format" yaml:"format"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// TitlesCfg configures LLM title detection.
type TitlesCfg struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Model   string `mapstructure:"model" yaml:"model"`
}

// DefaultsCfg selects which configured providers operations use.
type DefaultsCfg struct {
	OCRProvider string `mapstructure:"ocr_provider" yaml:"ocr_provider"`
	TTSProvider string `mapstructure:"tts_provider" yaml:"tts_provider"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Owner: "default",
		Storage: StorageCfg{
			Backend:   "local",
			LocalRoot: "~/.pagevoice/artifacts",
		},
		Database: DatabaseCfg{
			Path: "~/.pagevoice/pagevoice.db",
		},
		WorkDir: "~/.pagevoice/work",
		OCRProviders: map[string]OCRProviderCfg{
			"mistral": {
				Type:    "mistral-ocr",
				APIKey:  "${MISTRAL_API_KEY}",
				Enabled: true,
			},
		},
		TTSProviders: map[string]TTSProviderCfg{
			"elevenlabs": {
				Type:    "elevenlabs",
				Model:   "eleven_turbo_v2_5",
				Format:  "mp3_44100_128",
				APIKey:  "${ELEVENLABS_API_KEY}",
				Enabled: true,
			},
		},
		Titles: TitlesCfg{
			Enabled: true,
			APIKey:  "${OPENAI_API_KEY}",
			Model:   "gpt-4o-mini",
		},
		Defaults: DefaultsCfg{
			OCRProvider: "mistral",
			TTSProvider: "elevenlabs",
		},
	}
}

// GetOCRProvider returns an OCR provider config by name.
func (c *Config) GetOCRProvider(name string) (OCRProviderCfg, bool) {
	cfg, ok := c.OCRProviders[name]
	return cfg, ok
}

// GetTTSProvider returns a TTS provider config by name.
func (c *Config) GetTTSProvider(name string) (TTSProviderCfg, bool) {
	cfg, ok := c.TTSProviders[name]
	return cfg, ok
}

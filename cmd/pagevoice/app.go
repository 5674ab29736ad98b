package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/pagevoice/internal/assembler"
	"github.com/jackzampolin/pagevoice/internal/assembly"
	"github.com/jackzampolin/pagevoice/internal/blob"
	"github.com/jackzampolin/pagevoice/internal/config"
	"github.com/jackzampolin/pagevoice/internal/extraction"
	"github.com/jackzampolin/pagevoice/internal/providers"
	"github.com/jackzampolin/pagevoice/internal/store"
	"github.com/jackzampolin/pagevoice/internal/synthesis"
	"github.com/jackzampolin/pagevoice/internal/titles"
)

// app bundles everything a command needs after config load.
type app struct {
	cfg    *config.Config
	owner  string
	store  *store.Store
	blobs  blob.Store
	orch   *assembly.Orchestrator
	logger *slog.Logger
}

// newApp loads config and wires the pipeline collaborators.
func newApp() (*app, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()

	owner := ownerFlag
	if owner == "" {
		owner = cfg.Owner
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	st, err := store.Open(config.ExpandPath(cfg.Database.Path))
	if err != nil {
		return nil, err
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	registry := providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig())
	registry.SetLogger(logger)

	ocr, err := registry.GetOCR(cfg.Defaults.OCRProvider)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("OCR provider %q not available (check api_key in config): %w", cfg.Defaults.OCRProvider, err)
	}
	tts, err := registry.GetTTS(cfg.Defaults.TTSProvider)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("TTS provider %q not available (check api_key in config): %w", cfg.Defaults.TTSProvider, err)
	}

	// Voice cloning is optional; commands that need it report the gap.
	cloner, _ := registry.GetCloner(cfg.Defaults.TTSProvider)

	asm, err := assembler.New(blobs, config.ExpandPath(cfg.WorkDir), logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	var detector assembly.TitleDetector
	if cfg.Titles.Enabled {
		if key := config.ResolveEnvVars(cfg.Titles.APIKey); key != "" {
			detector = titles.NewDetector(titles.Config{
				APIKey:  key,
				BaseURL: cfg.Titles.BaseURL,
				Model:   cfg.Titles.Model,
			})
		}
	}

	orch, err := assembly.New(assembly.Config{
		Store:     st,
		Blobs:     blobs,
		Extract:   extraction.NewStage(ocr, blobs, logger),
		Synth:     synthesis.NewStage(tts, blobs, asm, logger),
		Assembler: asm,
		Titles:    detector,
		Cloner:    cloner,
		Logger:    logger,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		owner:  owner,
		store:  st,
		blobs:  blobs,
		orch:   orch,
		logger: logger,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}

// newBlobStore builds the artifact store selected by config.
func newBlobStore(cfg *config.Config) (blob.Store, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return blob.NewLocal(config.ExpandPath(cfg.Storage.LocalRoot))
	case "s3":
		s3cfg := cfg.Storage.S3
		if s3cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires a bucket")
		}
		opts := s3.Options{Region: s3cfg.Region}
		if opts.Region == "" {
			opts.Region = "us-east-1"
		}
		if s3cfg.Endpoint != "" {
			opts.BaseEndpoint = aws.String(s3cfg.Endpoint)
			// S3-compatible stores generally want path-style addressing.
			opts.UsePathStyle = true
		}
		accessKey := config.ResolveEnvVars(s3cfg.AccessKeyID)
		secretKey := config.ResolveEnvVars(s3cfg.SecretAccessKey)
		if accessKey != "" {
			opts.Credentials = credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
		}
		return blob.NewS3(s3.New(opts), s3cfg.Bucket, s3cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want local or s3)", cfg.Storage.Backend)
	}
}

// printOutput renders a value in the format selected by --output.
func printOutput(v any) error {
	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	default:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Dispatch modes for the per-fragment loop.
const (
	// DispatchFirstFragment stops the fragment loop right after the answers
	// prompt has run on the first fragment.
	DispatchFirstFragment = "first-fragment"
	// DispatchAllFragments runs the shared prompts on every fragment and the
	// answers prompt once.
	DispatchAllFragments = "all-fragments"
)

// Completion providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

type Config struct {
	// Source and intermediate documents
	SourcePDF     string
	ExtractedPath string
	OutputDir     string

	// OCR
	OCRDPI                 int
	OCRLanguage            string
	TessdataPrefix         string
	RasterFallbackPdftoppm bool

	// Chunking
	ChunkSize        int
	SummaryChunkSize int

	// Dispatch
	DispatchMode string
	// FragmentLabel heads each entry as "{label} {n}:". The default omits
	// the magnifier emoji of the legacy output; set "🔍 Fragmento" to
	// reproduce those files byte for byte.
	FragmentLabel string

	// Completion service
	CompletionProvider string
	CompletionModel    string
	CompletionTimeout  time.Duration
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	AnthropicAPIKey    string
	GeminiAPIKey       string
	GeminiBaseURL      string

	// Volume catalog override
	VolumesFile string

	// Artifacts
	ReportFormats []string
	S3Bucket      string
	S3Prefix      string
	AWSRegion     string

	// Server
	Port         string
	APIKey       string
	MaxQueueSize int
	RunTTL       time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		SourcePDF:     envOr("SOURCE_PDF", "REGLAMENTO_CONJUNTO_2020.pdf"),
		ExtractedPath: envOr("EXTRACTED_PDF", "tomo_extraido.pdf"),
		OutputDir:     envOr("OUTPUT_DIR", "."),

		OCRDPI:                 envInt("OCR_DPI", 300),
		OCRLanguage:            envOr("OCR_LANGUAGE", "spa"),
		TessdataPrefix:         os.Getenv("TESSDATA_PREFIX"),
		RasterFallbackPdftoppm: envBool("RASTER_FALLBACK_PDFTOPPM", true),

		ChunkSize:        envInt("CHUNK_SIZE", 3500),
		SummaryChunkSize: envInt("SUMMARY_CHUNK_SIZE", 1500),

		DispatchMode:  envOr("DISPATCH_MODE", DispatchFirstFragment),
		FragmentLabel: envOr("FRAGMENT_LABEL", "Fragmento"),

		CompletionProvider: strings.ToLower(envOr("COMPLETION_PROVIDER", ProviderOpenAI)),
		CompletionModel:    os.Getenv("COMPLETION_MODEL"),
		CompletionTimeout:  envDuration("COMPLETION_TIMEOUT", 120*time.Second),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),

		VolumesFile: os.Getenv("VOLUMES_FILE"),

		ReportFormats: envList("REPORT_FORMATS", []string{"txt"}),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Prefix:      os.Getenv("S3_PREFIX"),
		AWSRegion:     envOr("AWS_REGION", "us-east-1"),

		Port:         envOr("PORT", "8090"),
		APIKey:       os.Getenv("REGDIGEST_API_KEY"),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 16),
		RunTTL:       envDuration("RUN_TTL", 24*time.Hour),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "json"),
	}

	if cfg.OCRDPI <= 0 {
		cfg.OCRDPI = 300
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 3500
	}
	if cfg.SummaryChunkSize <= 0 {
		cfg.SummaryChunkSize = 1500
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = 120 * time.Second
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 24 * time.Hour
	}
	if cfg.CompletionModel == "" {
		cfg.CompletionModel = DefaultModel(cfg.CompletionProvider)
	}

	return cfg
}

// DefaultModel returns the model used when COMPLETION_MODEL is unset.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "claude-sonnet-4-5-20250929"
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return "gpt-3.5-turbo"
	}
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	switch c.DispatchMode {
	case DispatchFirstFragment, DispatchAllFragments:
	default:
		return fmt.Errorf("DISPATCH_MODE must be %q or %q, got %q", DispatchFirstFragment, DispatchAllFragments, c.DispatchMode)
	}
	for _, f := range c.ReportFormats {
		switch f {
		case "txt", "html", "docx":
		default:
			return fmt.Errorf("unsupported report format %q", f)
		}
	}
	return nil
}

// ValidateCompletion checks that the selected provider has credentials.
func (c Config) ValidateCompletion() error {
	switch c.CompletionProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	default:
		return fmt.Errorf("unknown COMPLETION_PROVIDER %q", c.CompletionProvider)
	}
	return nil
}

// ValidateServer checks the settings the HTTP server needs.
func (c Config) ValidateServer() error {
	if c.APIKey == "" {
		return fmt.Errorf("REGDIGEST_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"serp-comparator/pkg/logging"
)

type Config struct {
	Port     string
	BasePath string
	Env      string // development, staging, production

	// SERP provider
	ValueSERPAPIKey  string
	ValueSERPBaseURL string
	SerpTimeout      time.Duration

	// Intent classifier (OpenAI-compatible endpoint, Gemini by default)
	GeminiAPIKey      string
	IntentBaseURL     string
	IntentModel       string
	IntentTimeout     time.Duration
	IntentTemperature float64
	IntentMaxTokens   int

	// Location geocoding
	GoogleMapsAPIKey string

	// Request handling
	SearchPresetsPath  string // empty = embedded presets
	PromptDir          string // empty = embedded prompt templates only
	CompareConcurrency int
	MaxKeywords        int

	// Monitoring and logging settings
	LogLevel          string
	LogFormat         string // "json" or "text"
	LogFile           string
	EnableFileLogging bool

	// Profiling/metrics
	ProfilingEnabled bool
	ProfilingPort    string // also used as admin port
	MetricsEnabled   bool
	MetricsPath      string
}

const (
	DefaultValueSERPBaseURL = "https://api.valueserp.com"
	DefaultIntentBaseURL    = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultIntentModel      = "gemini-2.0-flash"
)

// Load reads the configuration from the environment. Unparseable numbers fall
// back to zero and are reported by Validate.
func Load() *Config {
	env := strings.ToLower(getEnv("ENV", "development"))

	// Profiling and metrics default on outside production
	devDefault := env == "development" || env == "staging"
	profilingEnabled, _ := strconv.ParseBool(getEnv("PROFILING_ENABLED", strconv.FormatBool(devDefault)))
	metricsEnabled, _ := strconv.ParseBool(getEnv("METRICS_ENABLED", strconv.FormatBool(devDefault)))
	enableFileLogging, _ := strconv.ParseBool(getEnv("ENABLE_FILE_LOGGING", "false"))

	serpTO, _ := time.ParseDuration(getEnv("SERP_TIMEOUT", "30s"))
	intentTO, _ := time.ParseDuration(getEnv("INTENT_TIMEOUT", "30s"))
	intentTemp, _ := strconv.ParseFloat(getEnv("INTENT_TEMPERATURE", "0.2"), 64)
	intentMaxTokens, _ := strconv.Atoi(getEnv("INTENT_MAX_TOKENS", "1024"))

	concurrency, _ := strconv.Atoi(getEnv("COMPARE_CONCURRENCY", "4"))
	maxKeywords, _ := strconv.Atoi(getEnv("MAX_KEYWORDS", "4"))

	return &Config{
		Port:     getEnv("PORT", "8000"),
		BasePath: getEnv("BASE_PATH", "/"),
		Env:      env,

		ValueSERPAPIKey:  getEnv("VALUESERP_API_KEY", ""),
		ValueSERPBaseURL: getEnv("VALUESERP_BASE_URL", DefaultValueSERPBaseURL),
		SerpTimeout:      serpTO,

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		IntentBaseURL:     getEnv("INTENT_BASE_URL", DefaultIntentBaseURL),
		IntentModel:       getEnv("INTENT_MODEL", DefaultIntentModel),
		IntentTimeout:     intentTO,
		IntentTemperature: intentTemp,
		IntentMaxTokens:   intentMaxTokens,

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),

		SearchPresetsPath:  getEnv("SEARCH_PRESETS_PATH", ""),
		PromptDir:          getEnv("PROMPT_DIR", ""),
		CompareConcurrency: concurrency,
		MaxKeywords:        maxKeywords,

		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		LogFile:           getEnv("LOG_FILE", "logs/serp-comparator.log"),
		EnableFileLogging: enableFileLogging,

		ProfilingEnabled: profilingEnabled,
		ProfilingPort:    getEnv("PROFILING_PORT", "6060"),
		MetricsEnabled:   metricsEnabled,
		MetricsPath:      getEnv("METRICS_PATH", "/metrics"),
	}
}

// LogConfig maps the logging settings onto the logger's config.
func (c *Config) LogConfig() logging.LogConfig {
	lc := logging.DefaultLogConfig()
	lc.Level = logging.ParseLevel(c.LogLevel)
	if c.LogFormat != "" {
		lc.Format = c.LogFormat
	}
	lc.EnableFile = c.EnableFileLogging
	lc.FilePath = c.LogFile
	return lc
}

// Warnings lists missing optional credentials. The service runs without them
// with reduced output, so these are logged rather than fatal.
func (c *Config) Warnings() []string {
	var w []string
	if c.ValueSERPAPIKey == "" {
		w = append(w, "VALUESERP_API_KEY is not set: every SERP fetch will fail")
	}
	if c.GeminiAPIKey == "" {
		w = append(w, "GEMINI_API_KEY is not set: intent analysis disabled")
	}
	if c.GoogleMapsAPIKey == "" {
		w = append(w, "GOOGLE_MAPS_API_KEY is not set: locations are sent as typed")
	}
	return w
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

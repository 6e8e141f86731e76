package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	errs "serp-comparator/pkg/errors"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error for field '%s' with value '%s': %s", e.Field, e.Value, e.Message)
}

// ConfigValidator collects validation errors
type ConfigValidator struct {
	errors []ValidationError
}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

func (cv *ConfigValidator) AddError(field, value, message string) {
	cv.errors = append(cv.errors, ValidationError{Field: field, Value: value, Message: message})
}

func (cv *ConfigValidator) HasErrors() bool               { return len(cv.errors) > 0 }
func (cv *ConfigValidator) GetErrors() []ValidationError { return cv.errors }

func (cv *ConfigValidator) GetErrorsAsString() string {
	parts := make([]string, 0, len(cv.errors))
	for _, err := range cv.errors {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "\n")
}

// Validate checks formats and ranges. Missing API keys are not errors; see Warnings.
func (c *Config) Validate() error {
	v := NewConfigValidator()

	c.validateFormats(v)
	c.validateRanges(v)
	c.validateEnvironment(v)

	if v.HasErrors() {
		return errs.NewValidation("config.Validate", fmt.Sprintf("configuration validation failed:\n%s", v.GetErrorsAsString()), nil)
	}
	return nil
}

func (c *Config) validateFormats(v *ConfigValidator) {
	if !validPort(c.Port) {
		v.AddError("PORT", c.Port, "invalid port number (must be 1-65535)")
	}
	if c.ProfilingEnabled && !validPort(c.ProfilingPort) {
		v.AddError("PROFILING_PORT", c.ProfilingPort, "invalid port number (must be 1-65535)")
	}

	validLogLevels := []string{"trace", "debug", "info", "warn", "warning", "error", "fatal"}
	if c.LogLevel != "" && !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		v.AddError("LOG_LEVEL", c.LogLevel, "invalid log level (must be one of: trace, debug, info, warn, error, fatal)")
	}
	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "text" {
		v.AddError("LOG_FORMAT", c.LogFormat, "invalid log format (must be 'json' or 'text')")
	}

	if !strings.HasPrefix(c.BasePath, "/") {
		v.AddError("BASE_PATH", c.BasePath, "base path must start with '/'")
	}
	if c.MetricsEnabled && !strings.HasPrefix(c.MetricsPath, "/") {
		v.AddError("METRICS_PATH", c.MetricsPath, "metrics path must start with '/'")
	}
	if !strings.HasPrefix(c.ValueSERPBaseURL, "http://") && !strings.HasPrefix(c.ValueSERPBaseURL, "https://") {
		v.AddError("VALUESERP_BASE_URL", c.ValueSERPBaseURL, "must be an http(s) URL")
	}
	if !strings.HasPrefix(c.IntentBaseURL, "http://") && !strings.HasPrefix(c.IntentBaseURL, "https://") {
		v.AddError("INTENT_BASE_URL", c.IntentBaseURL, "must be an http(s) URL")
	}
}

func (c *Config) validateRanges(v *ConfigValidator) {
	if c.SerpTimeout <= 0 {
		v.AddError("SERP_TIMEOUT", c.SerpTimeout.String(), "timeout must be a positive duration")
	}
	if c.IntentTimeout <= 0 {
		v.AddError("INTENT_TIMEOUT", c.IntentTimeout.String(), "timeout must be a positive duration")
	}
	if c.IntentTemperature < 0 || c.IntentTemperature > 2 {
		v.AddError("INTENT_TEMPERATURE", strconv.FormatFloat(c.IntentTemperature, 'f', -1, 64), "temperature must be between 0 and 2")
	}
	if c.IntentMaxTokens < 1 {
		v.AddError("INTENT_MAX_TOKENS", strconv.Itoa(c.IntentMaxTokens), "max tokens must be positive")
	}
	if c.CompareConcurrency < 1 || c.CompareConcurrency > 16 {
		v.AddError("COMPARE_CONCURRENCY", strconv.Itoa(c.CompareConcurrency), "concurrency must be between 1 and 16")
	}
	if c.MaxKeywords < 1 || c.MaxKeywords > 4 {
		v.AddError("MAX_KEYWORDS", strconv.Itoa(c.MaxKeywords), "max keywords must be between 1 and 4")
	}
}

func (c *Config) validateEnvironment(v *ConfigValidator) {
	if c.EnableFileLogging && c.LogFile != "" {
		if err := checkDirectoryWritable(c.LogFile); err != nil {
			v.AddError("LOG_FILE", c.LogFile, fmt.Sprintf("log directory is not writable: %v", err))
		}
	}
	if c.ProfilingEnabled && c.ProfilingPort == c.Port {
		v.AddError("PROFILING_PORT", c.ProfilingPort, "port conflict with PORT")
	}
}

func validPort(s string) bool {
	p, err := strconv.Atoi(s)
	return err == nil && p >= 1 && p <= 65535
}

// checkDirectoryWritable checks that the directory holding filePath can be written
func checkDirectoryWritable(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errs.NewValidation("config.checkDirectoryWritable", "cannot create directory", err)
	}
	f, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		return errs.NewValidation("config.checkDirectoryWritable", "directory is not writable", err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// Summary returns the configuration with secrets masked, for startup logs.
func (c *Config) Summary() map[string]interface{} {
	return map[string]interface{}{
		"env":                 c.Env,
		"port":                c.Port,
		"base_path":           c.BasePath,
		"valueserp_api_key":   maskString(c.ValueSERPAPIKey, 4),
		"valueserp_base_url":  c.ValueSERPBaseURL,
		"serp_timeout":        c.SerpTimeout.String(),
		"gemini_api_key":      maskString(c.GeminiAPIKey, 4),
		"intent_base_url":     c.IntentBaseURL,
		"intent_model":        c.IntentModel,
		"google_maps_api_key": maskString(c.GoogleMapsAPIKey, 4),
		"search_presets_path": c.SearchPresetsPath,
		"compare_concurrency": c.CompareConcurrency,
		"max_keywords":        c.MaxKeywords,
		"log_level":           c.LogLevel,
		"log_format":          c.LogFormat,
		"metrics_enabled":     c.MetricsEnabled,
		"profiling_enabled":   c.ProfilingEnabled,
	}
}

// maskString masks sensitive strings for logging/display
func maskString(s string, keepFirst int) string {
	if s == "" {
		return ""
	}
	if len(s) <= keepFirst {
		return strings.Repeat("*", len(s))
	}
	return s[:keepFirst] + strings.Repeat("*", len(s)-keepFirst)
}

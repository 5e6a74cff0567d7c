package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}

	if cfg.Gateway.TLS.Enabled {
		if cfg.Gateway.TLS.CertPath == "" || cfg.Gateway.TLS.KeyPath == "" {
			issues = append(issues, ValidationIssue{
				Path:    "gateway.tls",
				Message: "certPath and keyPath are required when TLS is enabled",
			})
		}
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validStyles := []string{"pretty", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.Style),
		})
	}

	if cfg.Session.IdleSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "session.idleSeconds",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Session.IdleSeconds),
		})
	}

	if cfg.Speech.URL != "" && !strings.HasPrefix(cfg.Speech.URL, "wss://") && !strings.HasPrefix(cfg.Speech.URL, "ws://") {
		issues = append(issues, ValidationIssue{
			Path:    "speech.url",
			Message: "must be a ws:// or wss:// URL",
		})
	}

	if cfg.Speech.Temperature < 0 || cfg.Speech.Temperature > 2 {
		issues = append(issues, ValidationIssue{
			Path:    "speech.temperature",
			Message: fmt.Sprintf("must be 0-2, got %g", cfg.Speech.Temperature),
		})
	}

	if cfg.Appointment.WebhookURL != "" &&
		!strings.HasPrefix(cfg.Appointment.WebhookURL, "http://") &&
		!strings.HasPrefix(cfg.Appointment.WebhookURL, "https://") {
		issues = append(issues, ValidationIssue{
			Path:    "appointment.webhookUrl",
			Message: "must be an http:// or https:// URL",
		})
	}

	if cfg.Knowledge.TopK < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "knowledge.topK",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Knowledge.TopK),
		})
	}

	return issues
}

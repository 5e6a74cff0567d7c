package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so keys and tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Speech.APIKey = expandEnvVars(cfg.Speech.APIKey)
	cfg.Completion.APIKey = expandEnvVars(cfg.Completion.APIKey)
	cfg.Telephony.AccountSID = expandEnvVars(cfg.Telephony.AccountSID)
	cfg.Telephony.AuthToken = expandEnvVars(cfg.Telephony.AuthToken)
	cfg.Appointment.WebhookURL = expandEnvVars(cfg.Appointment.WebhookURL)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	def := Defaults()
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = def.Gateway.Port
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = def.Gateway.Bind
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Style == "" {
		cfg.Logging.Style = def.Logging.Style
	}
	if cfg.Session.IdleSeconds == 0 {
		cfg.Session.IdleSeconds = def.Session.IdleSeconds
	}
	if cfg.Speech.URL == "" {
		cfg.Speech.URL = def.Speech.URL
	}
	if cfg.Speech.Voice == "" {
		cfg.Speech.Voice = def.Speech.Voice
	}
	if cfg.Speech.Temperature == 0 {
		cfg.Speech.Temperature = def.Speech.Temperature
	}
	if cfg.Speech.Instructions == "" {
		cfg.Speech.Instructions = def.Speech.Instructions
	}
	if cfg.Speech.TranscriptionModel == "" {
		cfg.Speech.TranscriptionModel = def.Speech.TranscriptionModel
	}
	if cfg.Completion.BaseURL == "" {
		cfg.Completion.BaseURL = def.Completion.BaseURL
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = def.Completion.Model
	}
	if cfg.Knowledge.ProfilePath == "" {
		cfg.Knowledge.ProfilePath = def.Knowledge.ProfilePath
	}
	if cfg.Knowledge.ChunkSize == 0 {
		cfg.Knowledge.ChunkSize = def.Knowledge.ChunkSize
	}
	if cfg.Knowledge.TopK == 0 {
		cfg.Knowledge.TopK = def.Knowledge.TopK
	}
}

// applyEnvOverrides reads DONNA_* environment variables and overrides config
// values. Provider credentials also fall back to their conventional names.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DONNA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("DONNA_BIND"); v != "" {
		cfg.Gateway.Bind = v
	}
	if v := os.Getenv("DONNA_PUBLIC_HOST"); v != "" {
		cfg.Gateway.PublicHost = v
	}
	if v := os.Getenv("DONNA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.Speech.APIKey == "" {
			cfg.Speech.APIKey = v
		}
		if cfg.Completion.APIKey == "" {
			cfg.Completion.APIKey = v
		}
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" && cfg.Telephony.AccountSID == "" {
		cfg.Telephony.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" && cfg.Telephony.AuthToken == "" {
		cfg.Telephony.AuthToken = v
	}
	if v := os.Getenv("TWILIO_WHATSAPP_FROM"); v != "" && cfg.Telephony.WhatsAppFrom == "" {
		cfg.Telephony.WhatsAppFrom = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" && cfg.Appointment.WebhookURL == "" {
		cfg.Appointment.WebhookURL = v
	}
}

package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// DefaultInstructions is the receptionist persona sent to the speech backend
// when no instructions are configured.
const DefaultInstructions = "You are Donna, an AI receptionist. Your job is to politely engage " +
	"with the caller and obtain their name, availability, and the service or work required. " +
	"Ask one question at a time. Do not ask for other contact information, and do not check " +
	"availability, assume we are free. Keep the conversation friendly and professional, and " +
	"guide the caller to provide these details naturally. If necessary, ask follow-up " +
	"questions to gather the required information."

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: 5050,
			Bind: "loopback",
		},
		Logging: LoggingConfig{
			Level: "info",
			Style: "pretty",
		},
		Session: SessionConfig{
			IdleSeconds: 60,
		},
		Speech: SpeechConfig{
			URL:                "wss://api.openai.com/v1/realtime?model=gpt-4o-realtime-preview-2024-10-01",
			Voice:              "alloy",
			Temperature:        0.8,
			Instructions:       DefaultInstructions,
			TranscriptionModel: "whisper-1",
		},
		Completion: CompletionConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Knowledge: KnowledgeConfig{
			ProfilePath: "company_details.json",
			ChunkSize:   400,
			TopK:        10,
		},
	}
}

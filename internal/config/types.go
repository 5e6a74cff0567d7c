package config

// Config is the root configuration for Donna.
type Config struct {
	Gateway     GatewayConfig     `yaml:"gateway,omitempty"`
	Logging     LoggingConfig     `yaml:"logging,omitempty"`
	Session     SessionConfig     `yaml:"session,omitempty"`
	Speech      SpeechConfig      `yaml:"speech,omitempty"`
	Completion  CompletionConfig  `yaml:"completion,omitempty"`
	Telephony   TelephonyConfig   `yaml:"telephony,omitempty"`
	Appointment AppointmentConfig `yaml:"appointment,omitempty"`
	Knowledge   KnowledgeConfig   `yaml:"knowledge,omitempty"`
}

// GatewayConfig controls the HTTP server that fronts both channels.
type GatewayConfig struct {
	Port           int        `yaml:"port,omitempty"`
	Bind           string     `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string     `yaml:"customBindHost,omitempty"`
	PublicHost     string     `yaml:"publicHost,omitempty"` // host used in the media-stream TwiML URL
	TLS            GatewayTLS `yaml:"tls,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "error" | "warn" | "info" | "debug" | "trace"
	Style string `yaml:"style,omitempty"` // "pretty" | "json"
}

// SessionConfig defines conversation session behavior.
type SessionConfig struct {
	IdleSeconds int `yaml:"idleSeconds,omitempty"` // text-channel inactivity timeout
}

// SpeechConfig configures the realtime speech backend connection.
type SpeechConfig struct {
	URL                string  `yaml:"url,omitempty"` // realtime websocket endpoint, model included
	APIKey             string  `yaml:"apiKey,omitempty"`
	Voice              string  `yaml:"voice,omitempty"`
	Temperature        float64 `yaml:"temperature,omitempty"`
	Instructions       string  `yaml:"instructions,omitempty"`
	TranscriptionModel string  `yaml:"transcriptionModel,omitempty"`
}

// CompletionConfig configures the text completion backend used by the
// text-channel responder and the appointment extractor.
type CompletionConfig struct {
	BaseURL string `yaml:"baseUrl,omitempty"`
	APIKey  string `yaml:"apiKey,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// TelephonyConfig holds the telephony provider credentials and numbers.
type TelephonyConfig struct {
	AccountSID      string   `yaml:"accountSid,omitempty"`
	AuthToken       string   `yaml:"authToken,omitempty"`
	WhatsAppFrom    string   `yaml:"whatsappFrom,omitempty"`    // e.g. "+14155238886"
	ApprovedNumbers []string `yaml:"approvedNumbers,omitempty"` // broadcast allowlist
}

// AppointmentConfig configures transcript handoff.
type AppointmentConfig struct {
	WebhookURL string `yaml:"webhookUrl,omitempty"`
}

// KnowledgeConfig configures the knowledge base and company profile.
type KnowledgeConfig struct {
	ProfilePath string `yaml:"profilePath,omitempty"` // company profile JSON document
	ChunkSize   int    `yaml:"chunkSize,omitempty"`   // ingest chunk size in characters
	TopK        int    `yaml:"topK,omitempty"`        // passages returned per query
}

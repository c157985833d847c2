package types

import "time"

// SecretRef points at exactly one source for a sensitive value. The value
// itself is resolved at startup and held in a redacting holder; it never
// appears in logs or serialized output.
type SecretRef struct {
	Value             string `yaml:"value,omitempty"`
	Env               string `yaml:"env,omitempty"`
	File              string `yaml:"file,omitempty"`
	SecretsManagerARN string `yaml:"secretsManagerArn,omitempty"`
}

// IsZero reports whether no source is configured.
func (r SecretRef) IsZero() bool {
	return r.Value == "" && r.Env == "" && r.File == "" && r.SecretsManagerARN == ""
}

// APIConfig holds connection settings for the backup orchestration service.
type APIConfig struct {
	Endpoint           string    `yaml:"endpoint"`
	Username           string    `yaml:"username"`
	Secret             SecretRef `yaml:"secret"`
	Timeout            string    `yaml:"timeout,omitempty"`
	InsecureSkipVerify bool      `yaml:"insecureSkipVerify,omitempty"`
}

// TimeoutDuration returns the parsed request timeout, defaulting to 30s.
func (c APIConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// BreakerConfig tunes the circuit breaker around backup API calls.
type BreakerConfig struct {
	MaxFailures int    `yaml:"maxFailures,omitempty"`
	Cooldown    string `yaml:"cooldown,omitempty"`
}

// CooldownDuration returns the parsed breaker cooldown, defaulting to 30s.
func (c BreakerConfig) CooldownDuration() time.Duration {
	d, err := time.ParseDuration(c.Cooldown)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// NotifySinkType identifies a notification sink backend.
type NotifySinkType string

// NotifySinkType values enumerate the supported notification sinks.
const (
	NotifySMTP    NotifySinkType = "smtp"
	NotifyWebhook NotifySinkType = "webhook"
	NotifySNS     NotifySinkType = "sns"
	NotifyConsole NotifySinkType = "console"
	NotifyFile    NotifySinkType = "file"
)

// NotifyConfig configures one notification sink.
type NotifyConfig struct {
	Type NotifySinkType `yaml:"type"`

	// smtp
	Host     string    `yaml:"host,omitempty"`
	Port     int       `yaml:"port,omitempty"`
	From     string    `yaml:"from,omitempty"`
	To       []string  `yaml:"to,omitempty"`
	Username string    `yaml:"username,omitempty"`
	Secret   SecretRef `yaml:"secret,omitempty"`

	// webhook
	URL string `yaml:"url,omitempty"`

	// sns
	TopicARN string `yaml:"topicArn,omitempty"`

	// file
	Path string `yaml:"path,omitempty"`
}

// TelemetryConfig configures optional OpenTelemetry trace export.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlpEndpoint,omitempty"`
	ServiceName  string `yaml:"serviceName,omitempty"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text, json
}

// Config is the top-level backstop.yaml configuration. Constructed once at
// startup and treated as immutable.
type Config struct {
	API       APIConfig        `yaml:"api"`
	Breaker   *BreakerConfig   `yaml:"breaker,omitempty"`
	Notify    []NotifyConfig   `yaml:"notify,omitempty"`
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
	Log       *LogConfig       `yaml:"log,omitempty"`
}

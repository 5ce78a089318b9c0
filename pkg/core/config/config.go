package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Audio      AudioConfig      `toml:"audio"`
	Capture    CaptureConfig    `toml:"capture"`
	Recognizer RecognizerConfig `toml:"recognizer"`
	Telephony  TelephonyConfig  `toml:"telephony"`
	Agent      AgentConfig      `toml:"agent"`
	Survey     SurveyConfig     `toml:"survey"`
	Demo       DemoConfig       `toml:"demo"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	DataDir     string `toml:"data_dir"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int        `toml:"port"`
	Host         string     `toml:"host"`
	ReadTimeout  Duration   `toml:"read_timeout"`
	WriteTimeout Duration   `toml:"write_timeout"`
	PublicURL    string     `toml:"public_url"`
	CORS         CORSConfig `toml:"cors"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	Enabled        bool     `toml:"enabled"`
	AllowedOrigins []string `toml:"allowed_origins"`
	AllowedMethods []string `toml:"allowed_methods"`
}

// DatabaseConfig holds sqlite storage settings
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// AudioConfig holds microphone capture settings
type AudioConfig struct {
	InputDevice string `toml:"input_device"`
	SampleRate  int    `toml:"sample_rate"`
	BufferSize  int    `toml:"buffer_size"`
	VADMode     int    `toml:"vad_mode"`
}

// CaptureConfig holds the answer-capture timing parameters. The values
// are tunable but must keep their relative order: the interim settle
// delay stays below the first grace stage, which stays below the
// overall timeout.
type CaptureConfig struct {
	OverallTimeout Duration `toml:"overall_timeout"`
	GraceInitial   Duration `toml:"grace_initial"`
	GraceExtended  Duration `toml:"grace_extended"`
	InterimSettle  Duration `toml:"interim_settle"`
	ReadyFallback  Duration `toml:"ready_fallback"`
	RestartSettle  Duration `toml:"restart_settle"`
	SoundThreshold float64  `toml:"sound_threshold"`
}

// RecognizerConfig holds speech-to-text settings
type RecognizerConfig struct {
	Engine   string `toml:"engine"`
	URL      string `toml:"url"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	Language string `toml:"language"`
}

// TelephonyConfig holds Twilio settings for outbound calls
type TelephonyConfig struct {
	AccountSID string `toml:"account_sid"`
	AuthToken  string `toml:"auth_token"`
	FromNumber string `toml:"from_number"`
}

// AgentConfig holds ElevenLabs agent-platform settings
type AgentConfig struct {
	BaseURL       string `toml:"base_url"`
	APIKey        string `toml:"api_key"`
	AgentID       string `toml:"agent_id"`
	PhoneNumberID string `toml:"phone_number_id"`
}

// SurveyConfig holds survey content settings
type SurveyConfig struct {
	QuestionsFile      string   `toml:"questions_file"`
	SessionIdleTimeout Duration `toml:"session_idle_timeout"`
}

// DemoConfig holds simulated-call settings
type DemoConfig struct {
	Enabled     bool     `toml:"enabled"`
	AnswerDelay Duration `toml:"answer_delay"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	// Expand environment variables in sensitive fields
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from the VOICEAGENT_CONFIG environment
// variable, falling back to conventional paths and finally to pure
// defaults when no file exists anywhere.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("VOICEAGENT_CONFIG")
	if path == "" {
		// Try default locations
		defaultPaths := []string{
			"./configs/voiceagent.toml",
			"./voiceagent.toml",
			filepath.Join(os.Getenv("HOME"), ".config/voiceagent/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return Default(), nil
	}

	return Load(path)
}

// Default returns the configuration with all defaults applied and
// secrets taken from the environment
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.expandEnvVars()
	return cfg
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "VoiceAgent"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Server
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 120 * time.Second
	}

	// Database
	if c.Database.Path == "" {
		c.Database.Path = "./data/voiceagent.db"
	}

	// Audio
	if c.Audio.InputDevice == "" {
		c.Audio.InputDevice = "default"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.BufferSize == 0 {
		c.Audio.BufferSize = 512
	}

	// Capture timing
	if c.Capture.OverallTimeout.Duration == 0 {
		c.Capture.OverallTimeout.Duration = 15 * time.Second
	}
	if c.Capture.GraceInitial.Duration == 0 {
		c.Capture.GraceInitial.Duration = 2500 * time.Millisecond
	}
	if c.Capture.GraceExtended.Duration == 0 {
		c.Capture.GraceExtended.Duration = 4 * time.Second
	}
	if c.Capture.InterimSettle.Duration == 0 {
		c.Capture.InterimSettle.Duration = 2 * time.Second
	}
	if c.Capture.ReadyFallback.Duration == 0 {
		c.Capture.ReadyFallback.Duration = 1500 * time.Millisecond
	}
	if c.Capture.RestartSettle.Duration == 0 {
		c.Capture.RestartSettle.Duration = 300 * time.Millisecond
	}
	if c.Capture.SoundThreshold == 0 {
		c.Capture.SoundThreshold = 0.01
	}

	// Recognizer
	if c.Recognizer.Engine == "" {
		c.Recognizer.Engine = "deepgram"
	}
	if c.Recognizer.URL == "" {
		c.Recognizer.URL = "wss://api.deepgram.com/v1/listen"
	}
	if c.Recognizer.APIKey == "" {
		c.Recognizer.APIKey = "${DEEPGRAM_API_KEY}"
	}
	if c.Recognizer.Model == "" {
		c.Recognizer.Model = "nova-2"
	}
	if c.Recognizer.Language == "" {
		c.Recognizer.Language = "en"
	}

	// Telephony
	if c.Telephony.AccountSID == "" {
		c.Telephony.AccountSID = "${TWILIO_ACCOUNT_SID}"
	}
	if c.Telephony.AuthToken == "" {
		c.Telephony.AuthToken = "${TWILIO_AUTH_TOKEN}"
	}
	if c.Telephony.FromNumber == "" {
		c.Telephony.FromNumber = "${TWILIO_PHONE_NUMBER}"
	}

	// Agent
	if c.Agent.BaseURL == "" {
		c.Agent.BaseURL = "https://api.elevenlabs.io"
	}
	if c.Agent.APIKey == "" {
		c.Agent.APIKey = "${ELEVENLABS_API_KEY}"
	}

	// Survey
	if c.Survey.QuestionsFile == "" {
		c.Survey.QuestionsFile = "./configs/questions.yaml"
	}
	if c.Survey.SessionIdleTimeout.Duration == 0 {
		c.Survey.SessionIdleTimeout.Duration = 10 * time.Minute
	}

	// Demo
	if c.Demo.AnswerDelay.Duration == 0 {
		c.Demo.AnswerDelay.Duration = 2 * time.Second
	}
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.Recognizer.APIKey = os.ExpandEnv(c.Recognizer.APIKey)
	c.Telephony.AccountSID = os.ExpandEnv(c.Telephony.AccountSID)
	c.Telephony.AuthToken = os.ExpandEnv(c.Telephony.AuthToken)
	c.Telephony.FromNumber = os.ExpandEnv(c.Telephony.FromNumber)
	c.Agent.APIKey = os.ExpandEnv(c.Agent.APIKey)
	c.Survey.QuestionsFile = os.ExpandEnv(c.Survey.QuestionsFile)
	c.Server.PublicURL = os.ExpandEnv(c.Server.PublicURL)
}

// Validate checks value ranges and the capture timer ordering
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	ct := c.Capture
	if ct.InterimSettle.Duration >= ct.GraceInitial.Duration {
		return fmt.Errorf("capture interim_settle (%v) must be below grace_initial (%v)",
			ct.InterimSettle.Duration, ct.GraceInitial.Duration)
	}
	if ct.GraceInitial.Duration >= ct.GraceExtended.Duration {
		return fmt.Errorf("capture grace_initial (%v) must be below grace_extended (%v)",
			ct.GraceInitial.Duration, ct.GraceExtended.Duration)
	}
	if ct.GraceExtended.Duration >= ct.OverallTimeout.Duration {
		return fmt.Errorf("capture grace_extended (%v) must be below overall_timeout (%v)",
			ct.GraceExtended.Duration, ct.OverallTimeout.Duration)
	}

	switch c.Recognizer.Engine {
	case "deepgram", "none":
	default:
		return fmt.Errorf("unknown recognizer engine: %s", c.Recognizer.Engine)
	}

	if c.Audio.VADMode < 0 || c.Audio.VADMode > 3 {
		return fmt.Errorf("vad_mode must be 0-3, got %d", c.Audio.VADMode)
	}

	return nil
}

// TelephonyConfigured reports whether real outbound calls can be placed
func (c *Config) TelephonyConfigured() bool {
	return c.Telephony.AccountSID != "" && c.Telephony.AuthToken != "" && c.Telephony.FromNumber != ""
}

// ServerAddress returns the host:port string for the HTTP server
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

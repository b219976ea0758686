// Package config provides application-wide configuration.
// Precedence: defaults < YAML file (FINCHAT_CONFIG) < environment < secret store.
// All fields have safe defaults so the binary runs locally without any setup;
// a missing backend credential simply disables that backend.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for finchat.
type Config struct {
	// Conversational assistant (session backend)
	WatsonAPIKey      string `yaml:"watson_api_key"`      // WATSON_API_KEY
	WatsonURL         string `yaml:"watson_url"`          // WATSON_URL
	WatsonAssistantID string `yaml:"watson_assistant_id"` // WATSON_ASSISTANT_ID
	WatsonIAMURL      string `yaml:"watson_iam_url"`      // WATSON_IAM_URL (default IBM Cloud IAM)
	WatsonVersion     string `yaml:"watson_version"`      // WATSON_VERSION (default "2021-06-14")

	// HTTP generation backend
	GraniteAPIURL string `yaml:"granite_api_url"` // GRANITE_API_URL
	GraniteAPIKey string `yaml:"granite_api_key"` // GRANITE_API_KEY

	// Extractive backend
	QAEndpoint string `yaml:"qa_endpoint"` // QA_ENDPOINT (empty: offline reader)
	HFToken    string `yaml:"hf_token"`    // HF_TOKEN

	DBPath string `yaml:"db_path"` // DB_PATH (default "finance_chat.db")

	Host string `yaml:"host"` // FINCHAT_HOST (default "0.0.0.0")
	Port int    `yaml:"port"` // FINCHAT_PORT (default 8080)

	LogLevel  string `yaml:"log_level"`  // LOG_LEVEL (default "info")
	LogFormat string `yaml:"log_format"` // LOG_FORMAT (default "json")
}

const (
	envKeyWatsonAPIKey      = "WATSON_API_KEY"
	envKeyWatsonURL         = "WATSON_URL"
	envKeyWatsonAssistantID = "WATSON_ASSISTANT_ID"
	envKeyWatsonIAMURL      = "WATSON_IAM_URL"
	envKeyWatsonVersion     = "WATSON_VERSION"
	envKeyGraniteAPIURL     = "GRANITE_API_URL"
	envKeyGraniteAPIKey     = "GRANITE_API_KEY"
	envKeyQAEndpoint        = "QA_ENDPOINT"
	envKeyHFToken           = "HF_TOKEN"
	envKeyDBPath            = "DB_PATH"
	envKeyHost              = "FINCHAT_HOST"
	envKeyPort              = "FINCHAT_PORT"
	envKeyLogLevel          = "LOG_LEVEL"
	envKeyLogFormat         = "LOG_FORMAT"

	envKeyConfigFile = "FINCHAT_CONFIG"
	envKeyKeyring    = "FINCHAT_KEYRING"
)

// ErrInvalidPort is returned when FINCHAT_PORT or the file's port is not a valid TCP port.
var ErrInvalidPort = errors.New("config: invalid port")

// Options controls where Load looks beyond the environment.
type Options struct {
	// File is a YAML overlay applied before the environment. Empty = none.
	File string
	// Secrets fills credentials still empty after the environment. Nil = none.
	Secrets SecretStore
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		WatsonIAMURL:  "https://iam.cloud.ibm.com/identity/token",
		WatsonVersion: "2021-06-14",
		DBPath:        "finance_chat.db",
		Host:          "0.0.0.0",
		Port:          8080,
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// Load reads FINCHAT_CONFIG and FINCHAT_KEYRING from the environment and
// resolves the configuration with LoadWith.
func Load() (Config, error) {
	return LoadFrom(os.Getenv(envKeyConfigFile))
}

// LoadFrom is Load with an explicit YAML file instead of FINCHAT_CONFIG.
func LoadFrom(file string) (Config, error) {
	opts := Options{File: file}
	if envBool(envKeyKeyring) {
		store, err := OpenKeyring()
		if err != nil {
			return Config{}, err
		}
		opts.Secrets = store
	}
	return LoadWith(opts)
}

// LoadWith resolves the configuration from defaults, opts.File, the
// environment and opts.Secrets, in that order.
func LoadWith(opts Options) (Config, error) {
	cfg := Defaults()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.File, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", opts.File, err)
		}
	}

	cfg.WatsonAPIKey = envOr(envKeyWatsonAPIKey, cfg.WatsonAPIKey)
	cfg.WatsonURL = envOr(envKeyWatsonURL, cfg.WatsonURL)
	cfg.WatsonAssistantID = envOr(envKeyWatsonAssistantID, cfg.WatsonAssistantID)
	cfg.WatsonIAMURL = envOr(envKeyWatsonIAMURL, cfg.WatsonIAMURL)
	cfg.WatsonVersion = envOr(envKeyWatsonVersion, cfg.WatsonVersion)
	cfg.GraniteAPIURL = envOr(envKeyGraniteAPIURL, cfg.GraniteAPIURL)
	cfg.GraniteAPIKey = envOr(envKeyGraniteAPIKey, cfg.GraniteAPIKey)
	cfg.QAEndpoint = envOr(envKeyQAEndpoint, cfg.QAEndpoint)
	cfg.HFToken = envOr(envKeyHFToken, cfg.HFToken)
	cfg.DBPath = envOr(envKeyDBPath, cfg.DBPath)
	cfg.Host = envOr(envKeyHost, cfg.Host)
	cfg.LogLevel = envOr(envKeyLogLevel, cfg.LogLevel)
	cfg.LogFormat = envOr(envKeyLogFormat, cfg.LogFormat)

	if v := os.Getenv(envKeyPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalidPort, envKeyPort, v)
		}
		cfg.Port = port
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Port)
	}

	if opts.Secrets != nil {
		if err := fillSecrets(&cfg, opts.Secrets); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

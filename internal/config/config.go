// Package config handles loading and validation of backstop.yaml.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/backstop-systems/backstop/internal/secret"
	"github.com/backstop-systems/backstop/pkg/types"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "backstop.yaml"

// Load reads and parses the configuration file. Environment variables
// referenced as ${VAR} in the file are expanded before parsing.
func Load(path string) (*types.Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg types.Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *types.Config) {
	if cfg.API.Timeout == "" {
		cfg.API.Timeout = "30s"
	}
	if cfg.Log == nil {
		cfg.Log = &types.LogConfig{}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func validate(cfg *types.Config) error {
	if cfg.API.Endpoint == "" {
		return fmt.Errorf("api.endpoint is required")
	}
	if cfg.API.Username == "" {
		return fmt.Errorf("api.username is required")
	}
	if err := secret.ValidateRef(cfg.API.Secret); err != nil {
		return fmt.Errorf("api.secret: %w", err)
	}
	if _, err := time.ParseDuration(cfg.API.Timeout); err != nil {
		return fmt.Errorf("api.timeout: %w", err)
	}

	if cfg.Breaker != nil && cfg.Breaker.Cooldown != "" {
		if _, err := time.ParseDuration(cfg.Breaker.Cooldown); err != nil {
			return fmt.Errorf("breaker.cooldown: %w", err)
		}
	}

	for i, n := range cfg.Notify {
		if err := validateNotify(n); err != nil {
			return fmt.Errorf("notify[%d]: %w", i, err)
		}
	}

	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}

	return nil
}

func validateNotify(n types.NotifyConfig) error {
	switch n.Type {
	case types.NotifyConsole:
		return nil
	case types.NotifyFile:
		if n.Path == "" {
			return fmt.Errorf("path is required")
		}
	case types.NotifyWebhook:
		if n.URL == "" {
			return fmt.Errorf("url is required")
		}
	case types.NotifySNS:
		if n.TopicARN == "" {
			return fmt.Errorf("topicArn is required")
		}
	case types.NotifySMTP:
		if n.Host == "" {
			return fmt.Errorf("host is required")
		}
		if n.From == "" {
			return fmt.Errorf("from is required")
		}
		if len(n.To) == 0 {
			return fmt.Errorf("at least one recipient is required")
		}
		if n.Username != "" {
			if err := secret.ValidateRef(n.Secret); err != nil {
				return fmt.Errorf("secret: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown type %q", n.Type)
	}
	return nil
}

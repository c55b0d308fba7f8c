package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	twitter "github.com/anatolykoptev/go-twitter-api"
	"github.com/anatolykoptev/go-twitter-api/cache"
)

const credentialsEnv = "TWITTER_CREDENTIALS"

type cacheConfig struct {
	Users    int           `yaml:"users"`
	Tweets   int           `yaml:"tweets"`
	Messages int           `yaml:"messages"`
	TTL      time.Duration `yaml:"ttl"`
}

type fileConfig struct {
	// Credentials in ParseCredentials form. TWITTER_CREDENTIALS overrides it.
	Credentials      string        `yaml:"credentials"`
	Listen           string        `yaml:"listen"`
	WebhookPath      string        `yaml:"webhook_path"`
	Proxy            string        `yaml:"proxy"`
	Profile          int           `yaml:"profile"`
	Timeout          time.Duration `yaml:"timeout"`
	LogLevel         string        `yaml:"log_level"`
	PositionalFamily bool          `yaml:"positional_family"`
	Cache            cacheConfig   `yaml:"cache"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Listen:      ":8080",
		WebhookPath: "/webhook",
		LogLevel:    "info",
	}
}

// loadConfig reads path if it exists; a missing file leaves the defaults.
func loadConfig(path string) (fileConfig, error) {
	cfg := defaultFileConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if v := os.Getenv(credentialsEnv); v != "" {
		cfg.Credentials = v
	}
	return cfg, nil
}

// clientConfig maps the file config onto twitter.ClientConfig.
func (fc fileConfig) clientConfig() (twitter.ClientConfig, error) {
	creds, err := twitter.ParseCredentials(fc.Credentials)
	if err != nil {
		return twitter.ClientConfig{}, err
	}
	profile := twitter.BrowserProfileAt(fc.Profile)
	return twitter.ClientConfig{
		Credentials:      creds,
		Proxy:            fc.Proxy,
		Profile:          &profile,
		Timeout:          fc.Timeout,
		PositionalFamily: fc.PositionalFamily,
		UserCache:        cache.Policy{Capacity: fc.Cache.Users, TTL: fc.Cache.TTL},
		TweetCache:       cache.Policy{Capacity: fc.Cache.Tweets, TTL: fc.Cache.TTL},
		MessageCache:     cache.Policy{Capacity: fc.Cache.Messages, TTL: fc.Cache.TTL},
	}, nil
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Overlay is the optional YAML configuration file. It only carries the
// settings awkward to express as single environment variables; today
// that is the outbound webhook target list. Environment-configured
// values always win over overlay values.
type Overlay struct {
	Webhooks []WebhookTarget `yaml:"webhooks"`
}

// WebhookTarget is one outbound notification endpoint.
type WebhookTarget struct {
	URL    string   `yaml:"url"`
	Secret string   `yaml:"secret"`
	Events []string `yaml:"events"` // empty subscribes to every event
}

// LoadOverlay reads the overlay file. An empty path returns an empty
// overlay; a missing file at an explicit path is an error.
func LoadOverlay(path string) (Overlay, error) {
	var o Overlay
	if path == "" {
		return o, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("read config overlay: %w", err)
	}
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return o, fmt.Errorf("parse config overlay: %w", err)
	}
	return o, nil
}

// Targets merges the env-configured webhook (if any) with the overlay's
// target list.
func (c Config) Targets(o Overlay) []WebhookTarget {
	targets := make([]WebhookTarget, 0, len(o.Webhooks)+1)
	if c.WebhookURL != "" {
		targets = append(targets, WebhookTarget{URL: c.WebhookURL, Secret: c.WebhookSecret})
	}
	targets = append(targets, o.Webhooks...)
	return targets
}

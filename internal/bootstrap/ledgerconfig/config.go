// Package ledgerconfig loads the client configuration from YAML with
// environment overrides on top.
package ledgerconfig

import (
	"os"
	"strings"
	"time"

	"dinebook/go-client/internal/ledger"
	"dinebook/go-client/internal/submit"

	"gopkg.in/yaml.v3"
)

// ClientConfig is everything needed to wire one booking client.
type ClientConfig struct {
	Ledger             ledger.Config
	ProgramAddress     string
	ConfidenceEndpoint string
	ConfirmTimeout     time.Duration
}

func Default() ClientConfig {
	return ClientConfig{
		Ledger:         ledger.DefaultConfig(),
		ConfirmTimeout: submit.DefaultConfirmTimeout,
	}
}

type FileConfig struct {
	Ledger LedgerSection `yaml:"ledger"`
}

type LedgerSection struct {
	Endpoint           string        `yaml:"endpoint"`
	RequestTimeout     time.Duration `yaml:"requestTimeout"`
	RequestsPerSecond  float64       `yaml:"requestsPerSecond"`
	Burst              int           `yaml:"burst"`
	ProgramAddress     string        `yaml:"programAddress"`
	ConfidenceEndpoint string        `yaml:"confidenceEndpoint"`
	ConfirmTimeout     time.Duration `yaml:"confirmTimeout"`
}

func LoadFromPath(configPath string) ClientConfig {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates, "configs/config.yaml")
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}
		merged := cfg
		Merge(&merged, parsed.Ledger)
		ApplyEnvOverrides(&merged)
		return merged
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Merge(dst *ClientConfig, src LedgerSection) {
	if src.Endpoint != "" {
		dst.Ledger.Endpoint = src.Endpoint
	}
	if src.RequestTimeout != 0 {
		dst.Ledger.RequestTimeout = src.RequestTimeout
	}
	if src.RequestsPerSecond != 0 {
		dst.Ledger.RequestsPerSecond = src.RequestsPerSecond
	}
	if src.Burst != 0 {
		dst.Ledger.Burst = src.Burst
	}
	if src.ProgramAddress != "" {
		dst.ProgramAddress = src.ProgramAddress
	}
	if src.ConfidenceEndpoint != "" {
		dst.ConfidenceEndpoint = src.ConfidenceEndpoint
	}
	if src.ConfirmTimeout != 0 {
		dst.ConfirmTimeout = src.ConfirmTimeout
	}
}

func ApplyEnvOverrides(cfg *ClientConfig) {
	if endpoint := strings.TrimSpace(os.Getenv("DINEBOOK_LEDGER_ENDPOINT")); endpoint != "" {
		cfg.Ledger.Endpoint = endpoint
	}
	if program := strings.TrimSpace(os.Getenv("DINEBOOK_PROGRAM_ADDRESS")); program != "" {
		cfg.ProgramAddress = program
	}
	if confidence := strings.TrimSpace(os.Getenv("DINEBOOK_CONFIDENCE_ENDPOINT")); confidence != "" {
		cfg.ConfidenceEndpoint = confidence
	}
}

// Package oraclesim simulates a fleet of off-ledger reporters. Each reporter
// registers with the ledger, listens for confirmation requests and answers
// those that fall on one of its shard indexes.
package oraclesim

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"flightsurety/internal/ledger/models"
	"flightsurety/pkg/domain"
)

// Config is the simulator's YAML configuration. Ether amounts are decimal
// strings so fractional values survive the round trip.
type Config struct {
	Server string `yaml:"server"`
	// Client is the relaying application the ledger gate must allow.
	Client     string        `yaml:"client"`
	SigningKey string        `yaml:"signing_key"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	Reporters  int           `yaml:"reporters"`
	// Seed names reporter accounts: "<seed>-0", "<seed>-1", ...
	Seed   string       `yaml:"seed"`
	Fee    string       `yaml:"fee"`
	Policy PolicyConfig `yaml:"policy"`
	Redis  RedisConfig  `yaml:"redis"`
}

// PolicyConfig selects how reporters pick a status.
type PolicyConfig struct {
	// Mode is "fixed" or "random".
	Mode   string `yaml:"mode"`
	Status uint8  `yaml:"status"`
	// RandSeed makes random answers reproducible.
	RandSeed uint64 `yaml:"rand_seed"`
}

type RedisConfig struct {
	URL           string `yaml:"url"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

func DefaultConfig() Config {
	return Config{
		Server:     "http://localhost:8080",
		Client:     domain.AddressFromSeed("oracle-sim").String(),
		SigningKey: "dev-secret-key-change-in-production",
		TokenTTL:   time.Hour,
		Reporters:  20,
		Seed:       "oracle",
		Fee:        "1",
		Policy:     PolicyConfig{Mode: "random", RandSeed: 1},
		Redis:      RedisConfig{URL: "redis://localhost:6379/0", ChannelPrefix: "flightsurety:"},
	}
}

// LoadConfig reads path over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := ParseConfig(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig decodes YAML into cfg, rejecting unknown keys, and validates
// the result.
func ParseConfig(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Server == "" {
		errs = append(errs, errors.New("server is required"))
	}
	if _, err := domain.ParseAddress(c.Client); err != nil {
		errs = append(errs, fmt.Errorf("client: %w", err))
	}
	if c.SigningKey == "" {
		errs = append(errs, errors.New("signing_key is required"))
	}
	if c.Reporters <= 0 {
		errs = append(errs, errors.New("reporters must be positive"))
	}
	if fee, err := c.FeeAmount(); err != nil {
		errs = append(errs, fmt.Errorf("fee: %w", err))
	} else if fee < models.OracleRegistrationFee {
		errs = append(errs, fmt.Errorf("fee must be at least %s ether", models.OracleRegistrationFee.Ether()))
	}
	if _, err := c.Policy.Build(); err != nil {
		errs = append(errs, fmt.Errorf("policy: %w", err))
	}
	return errors.Join(errs...)
}

// FeeAmount parses Fee into gwei.
func (c Config) FeeAmount() (domain.Amount, error) {
	return domain.ParseEther(c.Fee)
}

// ClientAddress returns the validated client address.
func (c Config) ClientAddress() domain.Address {
	addr, _ := domain.ParseAddress(c.Client)
	return addr
}

// ReporterAddresses derives the configured reporter accounts.
func (c Config) ReporterAddresses() []domain.Address {
	out := make([]domain.Address, c.Reporters)
	for i := range out {
		out[i] = domain.AddressFromSeed(fmt.Sprintf("%s-%d", c.Seed, i))
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/kelseyhightower/envconfig"
	"github.com/rpggio/referydo/internal/domain/governance"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ESCROW_DB_PATH.
const EnvPrefix = "escrow"

// DefaultDeployer is the devnet deployer that becomes super-admin on first
// boot when none is set.
const DefaultDeployer = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"

const custodySuffix = ".referydo-escrow"

var (
	ErrInvalidDriver    = errors.New("invalid db driver")
	ErrInvalidMode      = errors.New("invalid transport mode")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidPort      = errors.New("invalid server port")
	ErrInvalidPrincipal = errors.New("invalid principal")
)

// Config defines server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	DB         DBConfig         `yaml:"db"`
	Log        LogConfig        `yaml:"log"`
	Transport  TransportConfig  `yaml:"transport"`
	Auth       AuthConfig       `yaml:"auth"`
	Governance GovernanceConfig `yaml:"governance"`
	Ledger     LedgerConfig     `yaml:"ledger"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	// Driver is sqlite or bolt.
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path redirects logs to a size-capped file.
	Path string `yaml:"path"`
}

type TransportConfig struct {
	// Mode is http or stdio.
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// DefaultCaller acts for every request when auth is disabled.
	DefaultCaller string `yaml:"default_caller" split_words:"true"`
}

type GovernanceConfig struct {
	Deployer       string `yaml:"deployer"`
	PlatformWallet string `yaml:"platform_wallet" split_words:"true"`
}

type LedgerConfig struct {
	Custody string `yaml:"custody"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Driver: "sqlite",
			Path:   "referydo.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		Governance: GovernanceConfig{
			Deployer:       DefaultDeployer,
			PlatformWallet: governance.DefaultPlatformWallet.String(),
		},
	}
}

// Load reads configuration from defaults, then an optional YAML file, then
// ESCROW_* environment variables. path falls back to ESCROW_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("ESCROW_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate rejects unknown enum values and malformed principals.
func (c Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite", "bolt":
	default:
		return fmt.Errorf("%w: %q (must be sqlite or bolt)", ErrInvalidDriver, c.DB.Driver)
	}
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("%w: %q (must be http or stdio)", ErrInvalidMode, c.Transport.Mode)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	if c.Transport.Mode == "http" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	principals := map[string]string{
		"governance.deployer":        c.Governance.Deployer,
		"governance.platform_wallet": c.Governance.PlatformWallet,
	}
	if c.Ledger.Custody != "" {
		principals["ledger.custody"] = c.Ledger.Custody
	}
	if c.Auth.DefaultCaller != "" {
		principals["auth.default_caller"] = c.Auth.DefaultCaller
	}
	for field, p := range principals {
		if !validPrincipal(p) {
			return fmt.Errorf("%w: %s = %q", ErrInvalidPrincipal, field, p)
		}
	}
	return nil
}

// Custody returns the principal that holds escrowed funds on a fresh store.
// Once bootstrapped, the store's recorded custody account takes precedence.
func (c Config) Custody() string {
	if c.Ledger.Custody != "" {
		return c.Ledger.Custody
	}
	return c.Governance.Deployer + custodySuffix
}

// DefaultCaller returns the identity used when requests carry none.
func (c Config) DefaultCaller() string {
	if c.Auth.DefaultCaller != "" {
		return c.Auth.DefaultCaller
	}
	return c.Governance.Deployer
}

func validPrincipal(p string) bool {
	return p != "" && !strings.ContainsFunc(p, unicode.IsSpace)
}

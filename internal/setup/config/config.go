// Package config loads the application configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrMissingToken          = errors.New("discord token is not set")
	ErrMissingCredentials    = errors.New("staff credentials are not set")
)

// CurrentVersion of the config file.
const CurrentVersion = 1

// ConfigFileName is the file looked up in each config path.
const ConfigFileName = "aura.toml"

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version int           `koanf:"version"`
	Discord DiscordConfig `koanf:"discord"`
	Filters FiltersConfig `koanf:"filters"`
	Storage StorageConfig `koanf:"storage"`
	Metrics MetricsConfig `koanf:"metrics"`
	Web     WebConfig     `koanf:"web"`
	Logging LoggingConfig `koanf:"logging"`
}

// DiscordConfig contains gateway and guild-specific settings.
type DiscordConfig struct {
	// Bot token. The DISCORD_BOT_TOKEN environment variable overrides it.
	Token string `koanf:"token"`
	// Prefix for moderator commands.
	CommandPrefix string `koanf:"command_prefix"`
	// Channel receiving staff alerts.
	AlertChannelID string `koanf:"alert_channel_id"`
	// Channel where reaction verification happens.
	VerificationChannelID string `koanf:"verification_channel_id"`
	// Emoji that triggers the role grant in the verification channel.
	VerificationEmoji string `koanf:"verification_emoji"`
	// Primary member role name.
	MemberRole string `koanf:"member_role"`
	// Mute role name.
	MutedRole string `koanf:"muted_role"`
	// Optional invite link shown on the public status page.
	InviteURL string `koanf:"invite_url"`
}

// FiltersConfig contains the content policy denylists, checked in order.
type FiltersConfig struct {
	// Link patterns removed from non-moderator messages.
	Links []string `koanf:"links"`
	// Prohibited phrases removed from non-moderator messages.
	Keywords []string `koanf:"keywords"`
}

// StorageConfig names the durable store files.
type StorageConfig struct {
	LedgerFile  string `koanf:"ledger_file"`
	MetricsFile string `koanf:"metrics_file"`
}

// MetricsConfig tunes the accumulator and reporter.
type MetricsConfig struct {
	// Seconds between periodic checkpoints.
	CheckpointIntervalSeconds int `koanf:"checkpoint_interval_seconds"`
	// Activity window for the active-chatter count, in seconds.
	ChatterWindowSeconds int `koanf:"chatter_window_seconds"`
}

// WebConfig configures the staff dashboard and public status page.
type WebConfig struct {
	// Listen address, e.g. ":8080".
	ListenAddr string `koanf:"listen_addr"`
	// Staff username for basic auth. ADMIN_USER overrides it.
	AdminUser string `koanf:"admin_user"`
	// bcrypt hash of the staff password. ADMIN_PASS_HASH overrides it.
	AdminPassHash string `koanf:"admin_pass_hash"`
}

// LoggingConfig controls the session log directories.
type LoggingConfig struct {
	Dir           string `koanf:"dir"`
	Level         string `koanf:"level"`
	MaxLogsToKeep int    `koanf:"max_logs_to_keep"`
}

// defaults mirror the original deployment's behavior where sensible.
func defaultConfig() Config {
	return Config{
		Version: CurrentVersion,
		Discord: DiscordConfig{
			CommandPrefix:     "!",
			VerificationEmoji: "✅",
			MemberRole:        "Agent",
			MutedRole:         "Muted",
		},
		Storage: StorageConfig{
			LedgerFile:  "permanent_record.json",
			MetricsFile: "operational_metrics.json",
		},
		Metrics: MetricsConfig{
			CheckpointIntervalSeconds: 60,
			ChatterWindowSeconds:      300,
		},
		Web: WebConfig{
			ListenAddr: ":8080",
		},
		Logging: LoggingConfig{
			Dir:           "logs",
			Level:         "info",
			MaxLogsToKeep: 10,
		},
	}
}

// LoadConfig finds and parses the config file, applies environment
// overrides for secrets, and validates the result. Returns the config and
// the directory it was loaded from.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Check config locations in order of precedence.
	home, _ := os.UserHomeDir()
	configPaths := []string{
		"config",
		".",
	}
	if home != "" {
		configPaths = append(configPaths, filepath.Join(home, ".aura"))
	}

	var configDir string
	for _, path := range configPaths {
		candidate := filepath.Join(path, ConfigFileName)
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := k.Load(file.Provider(candidate), toml.Parser()); err != nil {
			return nil, "", fmt.Errorf("parse %s: %w", candidate, err)
		}
		configDir = path
		break
	}
	if configDir == "" {
		return nil, "", ErrConfigFileNotFound
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, "", fmt.Errorf("%w: expected %d, got %d",
			ErrConfigVersionMismatch, CurrentVersion, cfg.Version)
	}

	// Secrets come from the environment when set.
	if token := os.Getenv("DISCORD_BOT_TOKEN"); token != "" {
		cfg.Discord.Token = token
	}
	if user := os.Getenv("ADMIN_USER"); user != "" {
		cfg.Web.AdminUser = user
	}
	if hash := os.Getenv("ADMIN_PASS_HASH"); hash != "" {
		cfg.Web.AdminPassHash = hash
	}

	if cfg.Discord.Token == "" {
		return nil, "", ErrMissingToken
	}

	return &cfg, configDir, nil
}

// CheckpointInterval returns the reporter interval as a duration.
func (c *MetricsConfig) CheckpointInterval() int {
	if c.CheckpointIntervalSeconds <= 0 {
		return 60
	}
	return c.CheckpointIntervalSeconds
}

// ChatterWindow returns the active-chatter window in seconds.
func (c *MetricsConfig) ChatterWindow() int {
	if c.ChatterWindowSeconds <= 0 {
		return 300
	}
	return c.ChatterWindowSeconds
}

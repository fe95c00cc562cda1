package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// =============================================================================
// Config - File and Environment Configuration
// =============================================================================

// Config is the splitkit configuration file (TOML). All fields are optional;
// zero values fall back to built-in defaults.
type Config struct {
	// CacheDir overrides the manifest cache directory.
	CacheDir string `toml:"cache_dir,omitempty"`

	// RedisURL switches the manifest cache to Redis when set.
	RedisURL string `toml:"redis_url,omitempty"`

	// MongoURI switches the run archive to MongoDB when set.
	MongoURI      string `toml:"mongo_uri,omitempty"`
	MongoDatabase string `toml:"mongo_database,omitempty"`

	Server ServerConfig `toml:"server,omitempty"`
	Output OutputConfig `toml:"output,omitempty"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr,omitempty"`
}

// OutputConfig sets default output options for the split command.
type OutputConfig struct {
	Dir           string `toml:"dir,omitempty"`
	EntryPattern  string `toml:"entry_pattern,omitempty"`
	SplitPattern  string `toml:"split_pattern,omitempty"`
	CommonPattern string `toml:"common_pattern,omitempty"`
	SourceMap     string `toml:"source_map,omitempty"`
}

// Environment variable overrides, applied on top of the config file.
const (
	envRedisURL  = "SPLITKIT_REDIS_URL"
	envMongoURI  = "SPLITKIT_MONGO_URI"
	envMongoDB   = "SPLITKIT_MONGO_DATABASE"
	envServeAddr = "SPLITKIT_ADDR"
)

// defaultServeAddr is used when neither config nor environment sets one.
const defaultServeAddr = ":8080"

// config loads the configuration once and memoizes it.
func (c *CLI) config() (*Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := loadConfig(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// loadConfig reads the config file and applies environment overrides.
// A missing file is not an error; env-only setups are common in containers.
func loadConfig(path string) (*Config, error) {
	// Optional .env file for local development.
	_ = godotenv.Load()

	var cfg Config
	resolved, explicit := resolveConfigPath(path)
	if resolved != "" {
		if _, err := toml.DecodeFile(resolved, &cfg); err != nil {
			if !os.IsNotExist(err) || explicit {
				return nil, fmt.Errorf("load config %s: %w", resolved, err)
			}
		}
	}

	if v := os.Getenv(envRedisURL); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv(envMongoURI); v != "" {
		cfg.MongoURI = v
	}
	if v := os.Getenv(envMongoDB); v != "" {
		cfg.MongoDatabase = v
	}
	if v := os.Getenv(envServeAddr); v != "" {
		cfg.Server.Addr = v
	}

	return &cfg, nil
}

// resolveConfigPath picks the config file to read. An explicit --config path
// must exist; otherwise the first existing default location is used.
func resolveConfigPath(path string) (resolved string, explicit bool) {
	if path != "" {
		return path, true
	}
	if _, err := os.Stat("splitkit.toml"); err == nil {
		return "splitkit.toml", false
	}
	if p, err := userConfigPath(); err == nil {
		if _, err := os.Stat(p); err == nil {
			return p, false
		}
	}
	return "", false
}

func userConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// =============================================================================
// Config Command
// =============================================================================

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the splitkit configuration file",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())

	return cmd
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter splitkit.toml to the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			const path = "splitkit.toml"
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			starter := Config{
				Output: OutputConfig{
					Dir:           "dist",
					EntryPattern:  "[name].js",
					SplitPattern:  "[name].[hash].js",
					CommonPattern: "[name].[hash].js",
					SourceMap:     "off",
				},
				Server: ServerConfig{Addr: defaultServeAddr},
			}
			data, err := encodeConfig(&starter)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			printSuccess("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			data, err := encodeConfig(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func encodeConfig(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

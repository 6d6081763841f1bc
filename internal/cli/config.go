package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/curatorhq/curator/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Curator configuration",
	Long: `Manage Curator configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (CURATOR_*)
3. Config file (~/.curator/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default configuration file",
	Long:  `Create a default configuration file at ~/.curator/config.yaml, including an example source of each kind.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}

		configDir := home + "/.curator"
		configPath := configDir + "/config.yaml"

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'curator config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		data, err := yaml.Marshal(exampleConfig())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}

		header := "# Curator configuration file\n" +
			"#\n" +
			"# Hierarchy (highest to lowest priority):\n" +
			"#   1. CLI flags\n" +
			"#   2. Environment variables (CURATOR_*)\n" +
			"#   3. This config file\n" +
			"#   4. Built-in defaults\n\n"

		if err := os.WriteFile(configPath, append([]byte(header), data...), 0644); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nEdit the sources list, then start ingesting:\n")
		fmt.Printf("  curator run -v\n")
		return nil
	},
}

// exampleConfig is what config init writes: the defaults plus one example
// source of each kind and a local snapshot path
func exampleConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Store.SnapshotPath = "curator-store.json"
	cfg.Sources = []model.Source{
		{
			Name:    "example-blog",
			Kind:    model.SourceKindWeb,
			Enabled: false,
			Targets: []string{"https://example.com/blog"},
			Every:   time.Hour,
		},
		{
			Name:    "example-feed",
			Kind:    model.SourceKindFeed,
			Enabled: false,
			Targets: []string{"https://example.com/rss.xml"},
			Every:   30 * time.Minute,
		},
		{
			Name:    "example-social",
			Kind:    model.SourceKindSocial,
			Enabled: false,
			Targets: []string{"https://api.example.com/posts"},
			Terms:   []string{"marketing", "advertising"},
			Every:   15 * time.Minute,
		},
	}
	return cfg
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

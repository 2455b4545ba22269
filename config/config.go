package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// TomlDirectory holds the member directory API settings used to refresh
// hacker profiles (name, avatar).
type TomlDirectory struct {
	BaseUrl string `toml:"base_url"`
	Token   string `toml:"token"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Hostname string `toml:"hostname"`
	Database string `toml:"database"`
	Port     int    `toml:"port"`

	// Maximum number of entries served in the aggregated Atom feed
	MaxFeedEntries int `toml:"max_feed_entries"`

	// Minutes between crawl passes over all registered blogs
	CrawlIntervalMinutes int `toml:"crawl_interval_minutes"`

	// Languages considered when tagging posts, as ISO 639-1 codes
	Languages []string `toml:"languages"`

	Directory TomlDirectory `toml:"directory"`
}

// Default returns the configuration used when no config file is given.
func Default() *TomlConfig {
	return &TomlConfig{
		Hostname:             "localhost",
		Database:             "blaggregator.db",
		Port:                 3000,
		MaxFeedEntries:       50,
		CrawlIntervalMinutes: 60,
		Languages:            []string{"en"},
	}
}

func LoadConfig(path string) (*TomlConfig, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

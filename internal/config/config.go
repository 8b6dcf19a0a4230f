package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultSocketPath    = "/tmp/lyricsync.sock"
	DefaultCheckInterval = 5 * time.Second
)

func getDefaultStorePath() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "lyricsync", "lyricsync.db")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "lyricsync.db"
	}
	return filepath.Join(homeDir, ".local", "share", "lyricsync", "lyricsync.db")
}

// TomlConfig mirrors the config file layout.
type TomlConfig struct {
	App struct {
		SocketPath    string `toml:"socket_path"`
		CheckInterval string `toml:"check_interval"`
		StorePath     string `toml:"store_path"`
		AutoOffline   bool   `toml:"auto_offline"`
	} `toml:"app"`

	Lrclib struct {
		BaseURL   string `toml:"base_url"`
		UserAgent string `toml:"user_agent"`
	} `toml:"lrclib"`

	Genius struct {
		BaseURL   string `toml:"base_url"`
		UserAgent string `toml:"user_agent"`
	} `toml:"genius"`

	Redis struct {
		Enabled  bool   `toml:"enabled"`
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`
}

// AppConfig holds daemon settings.
type AppConfig struct {
	SocketPath    string
	CheckInterval time.Duration
	StorePath     string
	// AutoOffline marks the currently playing song available offline as a
	// side effect of playback.
	AutoOffline bool
}

// SourceConfig holds settings for one external lyric service.
type SourceConfig struct {
	BaseURL   string
	UserAgent string
}

// RedisConfig holds audio cache backend settings. When disabled, the daemon
// keeps offline metadata only.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// Config is the assembled application configuration.
type Config struct {
	App    AppConfig
	Lrclib SourceConfig
	Genius SourceConfig
	Redis  RedisConfig
}

func getConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lyricsync", "config.toml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("WARN: Cannot get user home directory: %v", err)
		return "config.toml"
	}
	return filepath.Join(homeDir, ".config", "lyricsync", "config.toml")
}

func loadTomlConfig() (*TomlConfig, error) {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Printf("INFO: Config file not found at %s, using defaults", configPath)
		return &TomlConfig{}, nil
	}

	var config TomlConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, err
	}

	log.Printf("INFO: Loaded config from %s", configPath)
	return &config, nil
}

// Load reads the config file and fills defaults for anything unset.
func Load() *Config {
	tomlConfig, err := loadTomlConfig()
	if err != nil {
		log.Printf("ERROR: Failed to load config file: %v", err)
		log.Printf("INFO: Using default configuration")
		tomlConfig = &TomlConfig{}
	}

	config := &Config{
		App: AppConfig{
			SocketPath:    DefaultSocketPath,
			CheckInterval: DefaultCheckInterval,
			StorePath:     getDefaultStorePath(),
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}

	if tomlConfig.App.SocketPath != "" {
		config.App.SocketPath = tomlConfig.App.SocketPath
	}
	if tomlConfig.App.CheckInterval != "" {
		if duration, err := time.ParseDuration(tomlConfig.App.CheckInterval); err == nil {
			config.App.CheckInterval = duration
		} else {
			log.Printf("WARN: Invalid check_interval format '%s', using default", tomlConfig.App.CheckInterval)
		}
	}
	if tomlConfig.App.StorePath != "" {
		config.App.StorePath = tomlConfig.App.StorePath
	}
	config.App.AutoOffline = tomlConfig.App.AutoOffline

	config.Lrclib.BaseURL = tomlConfig.Lrclib.BaseURL
	config.Lrclib.UserAgent = tomlConfig.Lrclib.UserAgent
	config.Genius.BaseURL = tomlConfig.Genius.BaseURL
	config.Genius.UserAgent = tomlConfig.Genius.UserAgent

	config.Redis.Enabled = tomlConfig.Redis.Enabled
	if tomlConfig.Redis.Addr != "" {
		config.Redis.Addr = tomlConfig.Redis.Addr
	}
	if tomlConfig.Redis.Password != "" {
		config.Redis.Password = tomlConfig.Redis.Password
	}
	if tomlConfig.Redis.DB != 0 {
		config.Redis.DB = tomlConfig.Redis.DB
	}

	return config
}

// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/autobrr/pixlovarr/internal/buildinfo"
	"github.com/autobrr/pixlovarr/internal/domain"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const envPrefix = "PIXLOVARR__"

var configTemplate = `# config.toml

# Log level
#
# Default: "DEBUG"
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
#
logLevel = "INFO"

# Log path. Leave empty to log only to stdout.
#
#logPath = ""

# Data directory. Holds the sqlite member database.
#
#dataDir = ""

[bot]
# Chat bot API token.
token = ""
# Platform user id of the administrator.
adminUserId = ""
# Whether /signup is accepted at startup.
signUpIsOpen = true

[sonarr]
enabled = false
url = "http://localhost:8989"
apiKey = ""
seasonFolder = true
calendarPeriodDays = 7

[radarr]
enabled = false
url = "http://localhost:7878"
apiKey = ""
calendarPeriodDays = 30

[prune]
enabled = false
dryRun = true
removeAfterDays = 30
warnDaysInfront = 5
extendPeriodByDays = 7
# Run report file, rewritten on every run. Empty means
# pixlovarr_prune.log next to the database.
#logPath = ""

[push]
enabled = false
url = ""

[mail]
enabled = false
`

// AppConfig wraps the runtime configuration together with the viper
// instance that produced it.
type AppConfig struct {
	Config *domain.Config

	viper     *viper.Viper
	configDir string
}

// New loads configuration from configPath (a directory or a config.toml
// path). A default config file is written on first run.
func New(configPath string) (*AppConfig, error) {
	c := &AppConfig{
		viper: viper.New(),
	}

	c.defaults()

	if err := c.load(configPath); err != nil {
		return nil, err
	}

	c.loadFromEnv()

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	c.Config.Version = buildinfo.Version

	if c.Config.DataDir == "" {
		c.Config.DataDir = c.configDir
	}

	return c, nil
}

func (c *AppConfig) defaults() {
	c.Config = &domain.Config{
		LogLevel:      "INFO",
		LogMaxSize:    50,
		LogMaxBackups: 3,
		Bot: domain.BotConfig{
			SignUpIsOpen: true,
		},
		Sonarr: domain.ArrConfig{
			SeasonFolder:       true,
			CalendarPeriodDays: 7,
		},
		Radarr: domain.ArrConfig{
			CalendarPeriodDays: 30,
		},
		IMDB: domain.IMDBConfig{
			DefaultLimitRanking: 5,
			MinLimitRanking:     3,
			MaxLimitRanking:     100,
		},
		Prune: domain.PruneConfig{
			DryRun:          true,
			RemoveAfterDays: 30,
			WarnDaysInfront: 5,
			VideoExtensions: []string{".mkv", ".mp4", ".avi"},
		},
		Mail: domain.MailConfig{
			Port: 25,
		},
	}

	c.viper.SetDefault("logLevel", c.Config.LogLevel)
	c.viper.SetDefault("logMaxSize", c.Config.LogMaxSize)
	c.viper.SetDefault("logMaxBackups", c.Config.LogMaxBackups)
	c.viper.SetDefault("bot.signUpIsOpen", true)
	c.viper.SetDefault("sonarr.seasonFolder", true)
	c.viper.SetDefault("sonarr.calendarPeriodDays", 7)
	c.viper.SetDefault("radarr.calendarPeriodDays", 30)
	c.viper.SetDefault("imdb.defaultLimitRanking", 5)
	c.viper.SetDefault("imdb.minLimitRanking", 3)
	c.viper.SetDefault("imdb.maxLimitRanking", 100)
	c.viper.SetDefault("prune.dryRun", true)
	c.viper.SetDefault("prune.removeAfterDays", 30)
	c.viper.SetDefault("prune.warnDaysInfront", 5)
	c.viper.SetDefault("prune.videoExtensions", []string{".mkv", ".mp4", ".avi"})
	c.viper.SetDefault("mail.port", 25)
}

func (c *AppConfig) load(configPath string) error {
	c.viper.SetConfigType("toml")

	if configPath != "" {
		if filepath.Ext(configPath) == ".toml" {
			c.configDir = filepath.Dir(configPath)
		} else {
			c.configDir = configPath
			configPath = filepath.Join(configPath, "config.toml")
		}

		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := c.writeDefaultConfig(configPath); err != nil {
				return err
			}
		}

		c.viper.SetConfigFile(configPath)
	} else {
		c.configDir = getDefaultConfigDir()
		configFile := filepath.Join(c.configDir, "config.toml")

		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			if err := c.writeDefaultConfig(configFile); err != nil {
				return err
			}
		}

		c.viper.SetConfigFile(configFile)
	}

	if err := c.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("config read error: %w", err)
	}

	return nil
}

func (c *AppConfig) writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	log.Info().Msgf("wrote default config file: %s", path)
	return nil
}

// loadFromEnv maps PIXLOVARR__ environment variables onto config keys.
// Double underscores separate sections, e.g. PIXLOVARR__BOT_TOKEN.
func (c *AppConfig) loadFromEnv() {
	keys := []string{
		"logLevel", "logPath", "logMaxSize", "logMaxBackups", "dataDir",
		"bot.token", "bot.adminUserId", "bot.signUpIsOpen",
		"sonarr.url", "sonarr.apiKey", "sonarr.enabled",
		"radarr.url", "radarr.apiKey", "radarr.enabled",
		"prune.enabled", "prune.dryRun",
		"push.enabled", "push.url",
		"mail.enabled", "mail.host", "mail.port", "mail.username", "mail.password",
	}

	for _, key := range keys {
		env := envPrefix + envName(key)
		if v, ok := os.LookupEnv(env); ok && v != "" {
			c.viper.Set(key, v)
		}
	}
}

func envName(key string) string {
	key = strings.ReplaceAll(key, ".", "_")
	var out strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' && i > 0 && key[i-1] != '_' {
			out.WriteByte('_')
		}
		out.WriteRune(r)
	}
	return strings.ToUpper(out.String())
}

func getDefaultConfigDir() string {
	// Docker images set XDG_CONFIG_HOME=/config; use it directly.
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		if xdg == "/config" {
			return xdg
		}
		return filepath.Join(xdg, "pixlovarr")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "pixlovarr")
}

// GetDatabasePath returns the sqlite database location, next to the
// config file unless dataDir points elsewhere.
func (c *AppConfig) GetDatabasePath() string {
	if c.Config.DataDir != "" && c.Config.DataDir != c.configDir {
		return filepath.Join(c.Config.DataDir, "pixlovarr.db")
	}
	return filepath.Join(c.configDir, "pixlovarr.db")
}

// SetupLogger configures the global zerolog logger from the loaded
// config, optionally teeing to a rotated log file.
func (c *AppConfig) SetupLogger() {
	level := zerolog.InfoLevel
	switch strings.ToUpper(c.Config.LogLevel) {
	case "TRACE":
		level = zerolog.TraceLevel
	case "DEBUG":
		level = zerolog.DebugLevel
	case "INFO":
		level = zerolog.InfoLevel
	case "WARN":
		level = zerolog.WarnLevel
	case "ERROR":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"}

	if c.Config.LogPath != "" {
		rotator := &lumberjack.Logger{
			Filename:   c.Config.LogPath,
			MaxSize:    c.Config.LogMaxSize,
			MaxBackups: c.Config.LogMaxBackups,
			Compress:   true,
		}
		log.Logger = log.Output(zerolog.MultiLevelWriter(console, rotator))
		return
	}

	log.Logger = log.Output(console)
}

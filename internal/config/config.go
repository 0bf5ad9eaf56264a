// Package config provides configuration loading and management for task.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Output formats.
const (
	OutputPlain = "plain"
	OutputJSON  = "json"
)

// DefaultNotificationMessage is sent when no message is configured.
const DefaultNotificationMessage = "No tasks are currently in todo or in_progress."

// Config is the root configuration.
type Config struct {
	Database     Database     `json:"database"     mapstructure:"database"     yaml:"database"`
	Server       Server       `json:"server"       mapstructure:"server"       yaml:"server"`
	Notification Notification `json:"notification" mapstructure:"notification" yaml:"notification"`
	Output       Output       `json:"output"       mapstructure:"output"       yaml:"output"`
	Log          Log          `json:"log"          mapstructure:"log"          yaml:"log"`
}

// Database locates the task store.
type Database struct {
	Path string `json:"path" mapstructure:"path" yaml:"path"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string        `json:"addr"             mapstructure:"addr"             yaml:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout"     mapstructure:"read_timeout"     yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"    mapstructure:"write_timeout"    yaml:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Notification configures the empty-backlog notification.
type Notification struct {
	Enabled        bool          `json:"enabled"                   mapstructure:"enabled"         yaml:"enabled"`
	DefaultMessage string        `json:"default_message,omitempty" mapstructure:"default_message" yaml:"default_message,omitempty"`
	Timeout        time.Duration `json:"timeout"                   mapstructure:"timeout"         yaml:"timeout"`
	Telegram       Telegram      `json:"telegram"                  mapstructure:"telegram"        yaml:"telegram"`
}

// Message returns the configured message or the default one.
func (n Notification) Message() string {
	if n.DefaultMessage == "" {
		return DefaultNotificationMessage
	}
	return n.DefaultMessage
}

// Telegram holds bot credentials for the Telegram provider.
type Telegram struct {
	BotToken string `json:"bot_token,omitempty" mapstructure:"bot_token" yaml:"bot_token,omitempty"`
	ChatID   string `json:"chat_id,omitempty"   mapstructure:"chat_id"   yaml:"chat_id,omitempty"`
	APIURL   string `json:"api_url,omitempty"   mapstructure:"api_url"   yaml:"api_url,omitempty"`
}

// Configured reports whether both token and chat id are set.
func (t Telegram) Configured() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Output configures CLI rendering.
type Output struct {
	Format string `json:"format" mapstructure:"format" yaml:"format"`
}

// Log configures the global logger.
type Log struct {
	Debug  bool   `json:"debug"  mapstructure:"debug"  yaml:"debug"`
	Format string `json:"format" mapstructure:"format" yaml:"format"`
}

// Dir returns the per-user directory holding the config file and database.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".task"
	}
	return filepath.Join(home, ".task")
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: Database{Path: filepath.Join(Dir(), "tasks.db")},
		Server: Server{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Notification: Notification{
			DefaultMessage: DefaultNotificationMessage,
			Timeout:        5 * time.Second,
			Telegram:       Telegram{APIURL: "https://api.telegram.org"},
		},
		Output: Output{Format: OutputPlain},
		Log:    Log{Format: "console"},
	}
}

// Defaults flattens Default into viper keys. Durations are rendered as
// strings so the values validate against the schema.
func Defaults() map[string]any {
	d := Default()
	return map[string]any{
		"database.path":                   d.Database.Path,
		"server.addr":                     d.Server.Addr,
		"server.read_timeout":             d.Server.ReadTimeout.String(),
		"server.write_timeout":            d.Server.WriteTimeout.String(),
		"server.shutdown_timeout":         d.Server.ShutdownTimeout.String(),
		"notification.enabled":            d.Notification.Enabled,
		"notification.default_message":    d.Notification.DefaultMessage,
		"notification.timeout":            d.Notification.Timeout.String(),
		"notification.telegram.bot_token": d.Notification.Telegram.BotToken,
		"notification.telegram.chat_id":   d.Notification.Telegram.ChatID,
		"notification.telegram.api_url":   d.Notification.Telegram.APIURL,
		"output.format":                   d.Output.Format,
		"log.debug":                       d.Log.Debug,
		"log.format":                      d.Log.Format,
	}
}

// Validate checks cross-field rules the schema cannot express.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must be set")
	}
	if c.Output.Format != OutputPlain && c.Output.Format != OutputJSON {
		return fmt.Errorf("output.format must be %q or %q, got %q", OutputPlain, OutputJSON, c.Output.Format)
	}
	if c.Notification.Enabled && !c.Notification.Telegram.Configured() {
		return fmt.Errorf("notification.enabled requires notification.telegram.bot_token and chat_id")
	}
	if c.Notification.Timeout < 0 || c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

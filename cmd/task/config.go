package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/metalagman/tasks/internal/config"
	"github.com/metalagman/tasks/internal/task"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// loadConfig layers defaults, the config file at path and TASK_* environment
// variables. A missing file is not an error. The file's own settings are
// validated against the schema before they are merged.
func loadConfig(v *viper.Viper, path string) (config.Config, error) {
	for key, value := range config.Defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("TASK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err := validateFile(path); err != nil {
			return config.Config{}, err
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("stat config: %w", err)
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("%w: config: %v", task.ErrValidation, err)
	}
	return cfg, nil
}

func decodeConfig(v *viper.Viper) (config.Config, error) {
	var cfg config.Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func validateFile(path string) error {
	fv := viper.New()
	fv.SetConfigFile(path)
	if err := fv.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := config.ValidateSettings(fv.AllSettings()); err != nil {
		return fmt.Errorf("%w: %s: %v", task.ErrValidation, path, err)
	}
	return nil
}

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the task config file",
	}
	cmd.AddCommand(configInitCmd(a), configShowCmd(a), configSetCmd(a))
	return cmd
}

func configInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default config file",
		Args:        exactArgs(0),
		Annotations: map[string]string{annotationRawConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configFile()
			if _, err := os.Stat(path); err == nil && !force {
				log.Info().Str("path", path).Msg("config already exists, skipping")
				return nil
			}
			if err := writeSettings(path, config.Nest(config.Defaults())); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func configShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if cfg.Notification.Telegram.BotToken != "" {
				cfg.Notification.Telegram.BotToken = "***"
			}
			if a.jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			data, err := yaml.Marshal(configView(cfg))
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// configView renders durations as strings, matching the file format.
func configView(cfg config.Config) map[string]any {
	return config.Nest(map[string]any{
		"database.path":                   cfg.Database.Path,
		"server.addr":                     cfg.Server.Addr,
		"server.read_timeout":             cfg.Server.ReadTimeout.String(),
		"server.write_timeout":            cfg.Server.WriteTimeout.String(),
		"server.shutdown_timeout":         cfg.Server.ShutdownTimeout.String(),
		"notification.enabled":            cfg.Notification.Enabled,
		"notification.default_message":    cfg.Notification.DefaultMessage,
		"notification.timeout":            cfg.Notification.Timeout.String(),
		"notification.telegram.bot_token": cfg.Notification.Telegram.BotToken,
		"notification.telegram.chat_id":   cfg.Notification.Telegram.ChatID,
		"notification.telegram.api_url":   cfg.Notification.Telegram.APIURL,
		"output.format":                   cfg.Output.Format,
		"log.debug":                       cfg.Log.Debug,
		"log.format":                      cfg.Log.Format,
	})
}

func configSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "set <key> <value>",
		Short:       "Set one key in the config file",
		Args:        exactArgs(2),
		Annotations: map[string]string{annotationRawConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, raw := strings.ToLower(args[0]), args[1]
			defaults := config.Defaults()
			def, ok := defaults[key]
			if !ok {
				return fmt.Errorf("%w: unknown config key %q (known: %s)", task.ErrValidation, key, strings.Join(sortedKeys(defaults), ", "))
			}
			value, err := coerce(def, raw)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", task.ErrValidation, key, err)
			}

			path := a.configFile()
			settings, err := readSettings(path)
			if err != nil {
				return err
			}
			config.Set(settings, key, value)
			if err := config.ValidateSettings(settings); err != nil {
				return fmt.Errorf("%w: %v", task.ErrValidation, err)
			}
			if err := writeSettings(path, settings); err != nil {
				return err
			}
			log.Info().Str("key", key).Str("path", path).Msg("config updated")
			return nil
		},
	}
}

func coerce(def any, raw string) (any, error) {
	if _, ok := def.(bool); ok {
		return strconv.ParseBool(raw)
	}
	return raw, nil
}

// readSettings loads the config file as a nested map. A missing file starts
// from the defaults.
func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Nest(config.Defaults()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	settings := make(map[string]any)
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", task.ErrValidation, path, err)
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]any) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

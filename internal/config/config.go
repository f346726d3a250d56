/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the
// user scope. Environment variables are treated as read-only overrides at
// runtime. The Postgres DSN used by the publish command is not stored on disk;
// it lives in the OS keyring.

type ChunkingConfig struct {
	MaxWords int    `yaml:"max_words"`
	Play     string `yaml:"play"` // optional single-play filter
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type PublishConfig struct {
	Table string `yaml:"table"`
	// DSN is resolved at load time from env or keyring, never persisted here.
	DSN string `yaml:"-"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	Chunking      ChunkingConfig `yaml:"chunking"`
	Logging       LoggingConfig  `yaml:"logging"`
	Publish       PublishConfig  `yaml:"publish"`
}

// Defaults returns the application defaults. MaxWords follows the chunker
// default of 150 words per chunk.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Chunking:      ChunkingConfig{MaxWords: 150},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Publish:       PublishConfig{Table: "chunks"},
	}
}

// Env var names used as overrides.
const (
	EnvMaxWords  = "PLC_MAX_WORDS"
	EnvPlay      = "PLC_PLAY"
	EnvLogLevel  = "PLC_LOG_LEVEL"
	EnvLogFormat = "PLC_LOG_FORMAT"
	EnvLogFile   = "PLC_LOG_FILE"
	EnvPgDSN     = "PLC_PG_DSN"
	EnvPgTable   = "PLC_PG_TABLE"
)

// Service/keys for the OS keyring.
const (
	keyringService = "playchunk"
	keyringDSNKey  = "publish_dsn"
)

// SecretStore abstracts the OS keyring so tests can stub it.
type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// secretStore is swapped out in tests.
var secretStore SecretStore = osKeyring{}

type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// Path returns the per-user config file path.
func Path() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "playchunk")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "playchunk")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "playchunk")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, merges
// environment overrides, and resolves the publish DSN from env or keyring.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := Path()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	if cfg.Publish.DSN == "" {
		if dsn, err := secretStore.Get(keyringService, keyringDSNKey); err == nil {
			cfg.Publish.DSN = dsn
		}
	}
	return cfg, nil
}

// Save writes the user config YAML and persists the DSN into the OS keyring
// (if non-empty).
func Save(cfg AppConfig, dsn string) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if dsn != "" {
		return secretStore.Set(keyringService, keyringDSNKey, dsn)
	}
	return nil
}

func mergeInto(dst, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Chunking.MaxWords != 0 {
		dst.Chunking.MaxWords = src.Chunking.MaxWords
	}
	if strings.TrimSpace(src.Chunking.Play) != "" {
		dst.Chunking.Play = strings.TrimSpace(src.Chunking.Play)
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	if strings.TrimSpace(src.Publish.Table) != "" {
		dst.Publish.Table = strings.TrimSpace(src.Publish.Table)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvMaxWords)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chunking.MaxWords = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPlay)); v != "" {
		cfg.Chunking.Play = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPgDSN)); v != "" {
		cfg.Publish.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPgTable)); v != "" {
		cfg.Publish.Table = v
	}
}

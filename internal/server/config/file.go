package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk form of Config. Durations use timex.Duration so
// both "15m" and integer nanoseconds are accepted.
//
// Keys missing from the file keep their current value.
type FileConfig struct {
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	EndpointAddrHTTP string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	UserStore        string         `json:"user_store" yaml:"user_store"`
	DatabaseDSN      string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey        string         `json:"secret_key" yaml:"secret_key"`
	APIKeyEnabled    bool           `json:"api_key_enabled" yaml:"api_key_enabled"`
	PasswordCost     int            `json:"password_cost" yaml:"password_cost"`
	SignInPath       string         `json:"sign_in_path" yaml:"sign_in_path"`
	SessionStorage   string         `json:"session_storage" yaml:"session_storage"`
	SessionTTL       timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	SweepInterval    timex.Duration `json:"sweep_interval" yaml:"sweep_interval"`
	SQLitePath       string         `json:"sqlite_path" yaml:"sqlite_path"`
	RedisAddr        string         `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword    string         `json:"redis_password" yaml:"redis_password"`
	RedisDB          int            `json:"redis_db" yaml:"redis_db"`
	CookieSecure     bool           `json:"cookie_secure" yaml:"cookie_secure"`

	OAuthCallbackURL  string   `json:"oauth_callback_url" yaml:"oauth_callback_url"`
	OAuthGitHubID     string   `json:"oauth_github_id" yaml:"oauth_github_id"`
	OAuthGitHubSecret string   `json:"oauth_github_secret" yaml:"oauth_github_secret"`
	OAuthGoogleID     string   `json:"oauth_google_id" yaml:"oauth_google_id"`
	OAuthGoogleSecret string   `json:"oauth_google_secret" yaml:"oauth_google_secret"`
	ExtraProviders    []string `json:"extra_providers" yaml:"extra_providers"`

	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`
}

func fileConfigFrom(c *Config) *FileConfig {
	return &FileConfig{
		EndpointAddrGRPC:  c.EndpointAddrGRPC,
		EndpointAddrHTTP:  c.EndpointAddrHTTP,
		UserStore:         c.UserStore,
		DatabaseDSN:       c.DatabaseDSN,
		SecretKey:         c.SecretKey,
		APIKeyEnabled:     c.APIKeyEnabled,
		PasswordCost:      c.PasswordCost,
		SignInPath:        c.SignInPath,
		SessionStorage:    c.SessionStorage,
		SessionTTL:        timex.Duration{Duration: c.SessionTTL},
		SweepInterval:     timex.Duration{Duration: c.SweepInterval},
		SQLitePath:        c.SQLitePath,
		RedisAddr:         c.RedisAddr,
		RedisPassword:     c.RedisPassword,
		RedisDB:           c.RedisDB,
		CookieSecure:      c.CookieSecure,
		OAuthCallbackURL:  c.OAuthCallbackURL,
		OAuthGitHubID:     c.OAuthGitHubID,
		OAuthGitHubSecret: c.OAuthGitHubSecret,
		OAuthGoogleID:     c.OAuthGoogleID,
		OAuthGoogleSecret: c.OAuthGoogleSecret,
		ExtraProviders:    c.ExtraProviders,
		LogLevel:          c.LogLevel,
		LogFormat:         c.LogFormat,
	}
}

func (f *FileConfig) apply(c *Config) {
	c.EndpointAddrGRPC = f.EndpointAddrGRPC
	c.EndpointAddrHTTP = f.EndpointAddrHTTP
	c.UserStore = f.UserStore
	c.DatabaseDSN = f.DatabaseDSN
	c.SecretKey = f.SecretKey
	c.APIKeyEnabled = f.APIKeyEnabled
	c.PasswordCost = f.PasswordCost
	c.SignInPath = f.SignInPath
	c.SessionStorage = f.SessionStorage
	c.SessionTTL = f.SessionTTL.Duration
	c.SweepInterval = f.SweepInterval.Duration
	c.SQLitePath = f.SQLitePath
	c.RedisAddr = f.RedisAddr
	c.RedisPassword = f.RedisPassword
	c.RedisDB = f.RedisDB
	c.CookieSecure = f.CookieSecure
	c.OAuthCallbackURL = f.OAuthCallbackURL
	c.OAuthGitHubID = f.OAuthGitHubID
	c.OAuthGitHubSecret = f.OAuthGitHubSecret
	c.OAuthGoogleID = f.OAuthGoogleID
	c.OAuthGoogleSecret = f.OAuthGoogleSecret
	c.ExtraProviders = f.ExtraProviders
	c.LogLevel = f.LogLevel
	c.LogFormat = f.LogFormat
}

// parseFile overlays the file named by -c / -config onto config. The format
// follows the extension: .yaml and .yml are YAML, anything else is JSON.
// An unreadable or malformed file panics, like a bad flag does.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag(os.Args[1:])
	if path == "" {
		return
	}

	if err := loadFile(config, path); err != nil {
		panic(err)
	}
}

func loadFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	fc := fileConfigFrom(config)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", filepath.Base(path), err)
	}

	fc.apply(config)
	return nil
}

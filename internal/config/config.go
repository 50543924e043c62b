// Package config provides configuration management for rootredirect.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path"
	"strconv"
	"strings"
	"time"
)

var AppVersion = "-unset-" // will be set at build time

const (
	DefaultListenHost      = "127.0.0.1"
	DefaultListenPort      = 5000
	DefaultStaticDir       = "static"
	DefaultStaticURLPath   = "/static"
	DefaultIndexFile       = "index.html"
	DefaultShutdownSeconds = 30

	// environment overrides
	EnvListenHost = "ROOTREDIRECT_HOST"
	EnvListenPort = "ROOTREDIRECT_PORT"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// MainConfig holds the main configuration for rootredirect
type MainConfig struct {
	// Web interface settings
	Web *WebConfig `json:"web"`

	AppVersion string `json:"app_version"` // Application version, set at build time
}

// WebConfig holds web server configuration
type WebConfig struct {
	ListenHost string `json:"listen_host"`
	ListenPort int    `json:"listen_port"`
	StaticDir  string `json:"static_dir"`
	// URL prefix the static dir is served under
	StaticURLPath string `json:"static_url_path"`
	IndexFile     string `json:"index_file"`
	// prefix the app is mounted under behind a proxy, prepended to built URLs
	ScriptRoot string `json:"script_root"`
	// honour X-Forwarded-* headers from 127.0.0.1, ::1 and RFC1918 proxies
	TrustProxyHeaders bool `json:"trust_proxy_headers"`
	Debug             bool `json:"debug"`
	ShutdownSeconds   int  `json:"shutdown_seconds"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	return &MainConfig{
		AppVersion: AppVersion,
		Web: &WebConfig{
			ListenHost:      DefaultListenHost,
			ListenPort:      DefaultListenPort,
			StaticDir:       DefaultStaticDir,
			StaticURLPath:   DefaultStaticURLPath,
			IndexFile:       DefaultIndexFile,
			ShutdownSeconds: DefaultShutdownSeconds,
		},
	}
}

// LoadConfigFile reads a JSON config file on top of the defaults.
// An empty path returns the defaults.
func LoadConfigFile(path string) (*MainConfig, error) {
	cfg := NewDefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Web == nil {
		cfg.Web = NewDefaultConfig().Web
	}
	cfg.AppVersion = AppVersion
	log.Printf("[CONFIG]: Loaded config file %s", path)
	return cfg, nil
}

// ApplyEnv overrides listen settings from the environment
func (c *WebConfig) ApplyEnv() error {
	if host := os.Getenv(EnvListenHost); host != "" {
		c.ListenHost = host
		log.Printf("[CONFIG]: Listen host overridden by %s: %s", EnvListenHost, host)
	}
	if portEnv := os.Getenv(EnvListenPort); portEnv != "" {
		p, err := strconv.Atoi(portEnv)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvListenPort, portEnv)
		}
		c.ListenPort = p
		log.Printf("[CONFIG]: Listen port overridden by %s: %d", EnvListenPort, p)
	}
	return nil
}

// Validate normalises the URL paths and checks the remaining fields
func (c *WebConfig) Validate() error {
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("%w: port %d (must be between 1 and 65535)", ErrInvalidConfig, c.ListenPort)
	}
	if c.StaticDir == "" {
		return fmt.Errorf("%w: static_dir is empty", ErrInvalidConfig)
	}
	if c.IndexFile == "" {
		return fmt.Errorf("%w: index_file is empty", ErrInvalidConfig)
	}
	if c.ShutdownSeconds <= 0 {
		return fmt.Errorf("%w: shutdown_seconds must be positive", ErrInvalidConfig)
	}

	c.StaticURLPath = strings.TrimRight(c.StaticURLPath, "/")
	if !strings.HasPrefix(c.StaticURLPath, "/") {
		return fmt.Errorf("%w: static_url_path %q must start with '/' and not be the root", ErrInvalidConfig, c.StaticURLPath)
	}
	// "//x" would make the redirect protocol-relative
	c.StaticURLPath = path.Clean(c.StaticURLPath)
	if c.StaticURLPath == "/" {
		return fmt.Errorf("%w: static_url_path must not be the root", ErrInvalidConfig)
	}
	// ':' and '*' are router wildcards
	if strings.ContainsAny(c.StaticURLPath, ":*") {
		return fmt.Errorf("%w: static_url_path %q must not contain ':' or '*'", ErrInvalidConfig, c.StaticURLPath)
	}

	c.ScriptRoot = strings.TrimRight(c.ScriptRoot, "/")
	if c.ScriptRoot != "" {
		if !strings.HasPrefix(c.ScriptRoot, "/") {
			return fmt.Errorf("%w: script_root %q must start with '/'", ErrInvalidConfig, c.ScriptRoot)
		}
		c.ScriptRoot = path.Clean(c.ScriptRoot)
		// "/." and "/a/.." clean to the root, which is no prefix at all
		if c.ScriptRoot == "/" {
			c.ScriptRoot = ""
		}
	}
	return nil
}

// Addr returns the host:port the server listens on
func (c *WebConfig) Addr() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.ListenPort))
}

// ShutdownTimeout is how long a graceful shutdown may take
func (c *WebConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownSeconds) * time.Second
}

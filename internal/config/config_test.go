package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Web == nil {
		t.Fatal("Web config is nil")
	}
	if cfg.Web.Addr() != "127.0.0.1:5000" {
		t.Errorf("Addr() = %q, want %q", cfg.Web.Addr(), "127.0.0.1:5000")
	}
	if cfg.Web.StaticURLPath != "/static" || cfg.Web.IndexFile != "index.html" {
		t.Errorf("static defaults = %q %q", cfg.Web.StaticURLPath, cfg.Web.IndexFile)
	}
	if err := cfg.Web.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
	if cfg.Web.ShutdownTimeout() != 30*time.Second {
		t.Errorf("ShutdownTimeout() = %v, want 30s", cfg.Web.ShutdownTimeout())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(c *WebConfig)
		wantErr    bool
		wantStatic string
		wantRoot   string
	}{
		{"defaults", func(c *WebConfig) {}, false, "/static", ""},
		{"trailing slash trimmed", func(c *WebConfig) { c.StaticURLPath = "/assets/" }, false, "/assets", ""},
		{"script root trimmed", func(c *WebConfig) { c.ScriptRoot = "/app/" }, false, "/static", "/app"},
		{"script root slash only", func(c *WebConfig) { c.ScriptRoot = "/" }, false, "/static", ""},
		{"double slashes collapsed", func(c *WebConfig) { c.ScriptRoot = "//evil"; c.StaticURLPath = "//static" }, false, "/static", "/evil"},
		{"script root dot", func(c *WebConfig) { c.ScriptRoot = "/." }, false, "/static", ""},
		{"script root dot dot", func(c *WebConfig) { c.ScriptRoot = "/app/.." }, false, "/static", ""},
		{"static path wildcard", func(c *WebConfig) { c.StaticURLPath = "/*x" }, true, "", ""},
		{"static path param", func(c *WebConfig) { c.StaticURLPath = "/:lang" }, true, "", ""},
		{"port zero", func(c *WebConfig) { c.ListenPort = 0 }, true, "", ""},
		{"port too high", func(c *WebConfig) { c.ListenPort = 70000 }, true, "", ""},
		{"static path relative", func(c *WebConfig) { c.StaticURLPath = "static" }, true, "", ""},
		{"static path root", func(c *WebConfig) { c.StaticURLPath = "/" }, true, "", ""},
		{"script root relative", func(c *WebConfig) { c.ScriptRoot = "app" }, true, "", ""},
		{"empty index", func(c *WebConfig) { c.IndexFile = "" }, true, "", ""},
		{"empty static dir", func(c *WebConfig) { c.StaticDir = "" }, true, "", ""},
		{"no shutdown time", func(c *WebConfig) { c.ShutdownSeconds = 0 }, true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDefaultConfig().Web
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			if c.StaticURLPath != tt.wantStatic {
				t.Errorf("StaticURLPath = %q, want %q", c.StaticURLPath, tt.wantStatic)
			}
			if c.ScriptRoot != tt.wantRoot {
				t.Errorf("ScriptRoot = %q, want %q", c.ScriptRoot, tt.wantRoot)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		cfg, err := LoadConfigFile("")
		if err != nil {
			t.Fatalf("LoadConfigFile() = %v", err)
		}
		if cfg.Web.ListenPort != DefaultListenPort {
			t.Errorf("ListenPort = %d, want %d", cfg.Web.ListenPort, DefaultListenPort)
		}
	})

	t.Run("overlay", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		data := `{"web": {"listen_port": 8080, "script_root": "/app", "debug": true}}`
		if err := os.WriteFile(path, []byte(data), 0600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() = %v", err)
		}
		if cfg.Web.ListenPort != 8080 || cfg.Web.ScriptRoot != "/app" || !cfg.Web.Debug {
			t.Errorf("overlay not applied: %+v", cfg.Web)
		}
		// untouched keys keep their defaults
		if cfg.Web.ListenHost != DefaultListenHost || cfg.Web.IndexFile != DefaultIndexFile {
			t.Errorf("defaults lost: %+v", cfg.Web)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.json"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("LoadConfigFile() = %v, want os.ErrNotExist", err)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte(`{"web": {"listen-port": 8080}}`), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("LoadConfigFile() accepted a misspelled key")
		}
	})

	t.Run("bad json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte("{"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("LoadConfigFile() succeeded on broken json")
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		t.Setenv(EnvListenHost, "0.0.0.0")
		t.Setenv(EnvListenPort, "8081")
		c := NewDefaultConfig().Web
		if err := c.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv() = %v", err)
		}
		if c.Addr() != "0.0.0.0:8081" {
			t.Errorf("Addr() = %q, want %q", c.Addr(), "0.0.0.0:8081")
		}
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv(EnvListenPort, "http")
		c := NewDefaultConfig().Web
		if err := c.ApplyEnv(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ApplyEnv() = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestAddrIPv6(t *testing.T) {
	c := NewDefaultConfig().Web
	c.ListenHost = "::1"
	if c.Addr() != "[::1]:5000" {
		t.Errorf("Addr() = %q, want %q", c.Addr(), "[::1]:5000")
	}
}

// Package config loads and hot-reloads the JSON configuration for a Telnet
// server or client: plain encoding/json over a struct, reloadable in place
// under a mutex.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/stlalpha/gotelnet/internal/logging"
)

// ServerConfig is the on-disk shape of a telnetd server's configuration.
type ServerConfig struct {
	Addr             string `json:"addr"`
	Encoding         string `json:"encoding"`
	Limit            int    `json:"limit"`
	TimeoutSeconds   int    `json:"timeoutSeconds"`
	ConnectMinWaitMs int    `json:"connectMinWaitMs"`
	ConnectMaxWaitMs int    `json:"connectMaxWaitMs"`
	ServerWillEcho   bool   `json:"serverWillEcho"`
	ReapInterval     string `json:"reapIntervalCron"`
}

// Timeout returns TimeoutSeconds as a time.Duration.
func (c *ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ClientConfig is the on-disk shape of a telnetc client's configuration.
type ClientConfig struct {
	Addr             string `json:"addr"`
	Encoding         string `json:"encoding"`
	Term             string `json:"term"`
	XDisplayLocation string `json:"xDisplayLocation"`
	TerminalSpeed    string `json:"terminalSpeed"`
	Lang             string `json:"lang"`
}

// DefaultServerConfig is the configuration used when no config file exists,
// so a missing file still boots a usable server. Limit and ConnectMaxWaitMs
// match the engine's SessionOptions defaults; the 300s idle timeout, UTF-8
// encoding and server-side echo are this server's own choices (the engine
// defaults to no timeout, bytes mode and no echo).
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:             ":2323",
		Encoding:         "UTF-8",
		Limit:            65536,
		TimeoutSeconds:   300,
		ConnectMaxWaitMs: 2000,
		ServerWillEcho:   true,
		ReapInterval:     "@every 30s",
	}
}

// LoadServerConfig reads and unmarshals path, falling back to defaults on a
// missing file (a fresh checkout with no config is expected to still run).
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logging.Warn("config: %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadClientConfig reads and unmarshals path.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{Addr: "localhost:2323", Encoding: "UTF-8", Term: "ansi"}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logging.Warn("config: %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

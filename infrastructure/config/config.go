// Package config reads the INI configuration described in spec.md §6,
// using gopkg.in/ini.v1 (the INI library present across the wider
// example corpus). The resulting Config is read-only after construction
// except for the fields a SIGHUP reload is allowed to touch.
package config

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/ini.v1"

	"github.com/y5a9f2y/proxy/domain/mode"
)

// Config is the process's effective configuration, sourced from the
// [proxy], [auth], and [log] sections named in spec.md §6.
type Config struct {
	LocalHost  string
	LocalPort  int
	Mode       mode.Mode
	RemoteHost string
	RemotePort int

	ListenBacklog     int
	StatisticInterval time.Duration
	MaxIdleTime       time.Duration

	LogDir      string
	LogMaxSize  int
	LogFullStop bool

	AuthUsername string
	AuthPassword string

	path string
	mu   sync.RWMutex
}

// Load parses path into a Config, applying the documented defaults for
// any field INI leaves unset.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	c := &Config{path: path}
	if err := c.apply(f); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) apply(f *ini.File) error {
	proxySec := f.Section("proxy")
	authSec := f.Section("auth")
	logSec := f.Section("log")

	c.LocalHost = proxySec.Key("local_host").MustString("0.0.0.0")
	c.LocalPort = proxySec.Key("local_port").MustInt(0)
	if c.LocalPort <= 0 {
		return fmt.Errorf("config: proxy.local_port is required")
	}

	modeStr := proxySec.Key("mode").String()
	m, err := mode.Parse(modeStr)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Mode = m

	c.RemoteHost = proxySec.Key("remote_host").String()
	c.RemotePort = proxySec.Key("remote_port").MustInt(0)
	if m == mode.Encryption || m == mode.Transmission {
		if c.RemoteHost == "" || c.RemotePort <= 0 {
			return fmt.Errorf("config: proxy.remote_host/remote_port required in %s mode", m)
		}
	}

	c.ListenBacklog = proxySec.Key("listen_backlog").MustInt(128)
	c.StatisticInterval = time.Duration(proxySec.Key("statistic_interval").MustInt(2)) * time.Second
	c.MaxIdleTime = time.Duration(proxySec.Key("max_idle_time").MustInt(120)) * time.Second

	c.LogDir = logSec.Key("dir").MustString(".")
	c.LogMaxSize = logSec.Key("max_size").MustInt(512)
	c.LogFullStop = logSec.Key("full_stop").MustInt(0) != 0

	c.AuthUsername = authSec.Key("username").String()
	c.AuthPassword = authSec.Key("password").String()
	if (m == mode.Encryption || m == mode.Decryption) && c.AuthPassword == "" {
		return fmt.Errorf("config: auth.password is required in %s mode", m)
	}
	if len(c.AuthUsername) > 64 || len(c.AuthPassword) > 64 {
		return fmt.Errorf("config: auth.username/password must each be at most 64 bytes")
	}

	return nil
}

// ReloadableSnapshot is the subset of fields a SIGHUP reload is allowed
// to touch (spec.md §6: "On reload only statistic_interval,
// max_idle_time, and credentials are re-read").
type ReloadableSnapshot struct {
	StatisticInterval time.Duration
	MaxIdleTime       time.Duration
	AuthUsername      string
	AuthPassword      string
}

// Snapshot returns the current values of the reloadable fields under a
// read lock, for diffing against a freshly reloaded file.
func (c *Config) Snapshot() ReloadableSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ReloadableSnapshot{
		StatisticInterval: c.StatisticInterval,
		MaxIdleTime:       c.MaxIdleTime,
		AuthUsername:      c.AuthUsername,
		AuthPassword:      c.AuthPassword,
	}
}

// Reload re-reads only the reloadable fields from the file at c's
// original path and swaps them in atomically, returning the prior
// values for diff-logging (SPEC_FULL.md §3's config reload diffing).
func (c *Config) Reload() (before, after ReloadableSnapshot, err error) {
	f, err := ini.Load(c.path)
	if err != nil {
		return ReloadableSnapshot{}, ReloadableSnapshot{}, fmt.Errorf("config: reload %s: %w", c.path, err)
	}
	proxySec := f.Section("proxy")
	authSec := f.Section("auth")

	before = c.Snapshot()

	c.mu.Lock()
	c.StatisticInterval = time.Duration(proxySec.Key("statistic_interval").MustInt(2)) * time.Second
	c.MaxIdleTime = time.Duration(proxySec.Key("max_idle_time").MustInt(120)) * time.Second
	c.AuthUsername = authSec.Key("username").String()
	c.AuthPassword = authSec.Key("password").String()
	after = ReloadableSnapshot{
		StatisticInterval: c.StatisticInterval,
		MaxIdleTime:       c.MaxIdleTime,
		AuthUsername:      c.AuthUsername,
		AuthPassword:      c.AuthPassword,
	}
	c.mu.Unlock()

	return before, after, nil
}

// Dump renders the effective configuration as key=value lines, one per
// configured field except auth.password, which is left out, for the
// SIGUSR1/SIGUSR2 debug dump (SPEC_FULL.md §3).
func (c *Config) Dump() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return []string{
		fmt.Sprintf("proxy.local_host=%s", c.LocalHost),
		fmt.Sprintf("proxy.local_port=%d", c.LocalPort),
		fmt.Sprintf("proxy.mode=%s", c.Mode),
		fmt.Sprintf("proxy.remote_host=%s", c.RemoteHost),
		fmt.Sprintf("proxy.remote_port=%d", c.RemotePort),
		fmt.Sprintf("proxy.listen_backlog=%d", c.ListenBacklog),
		fmt.Sprintf("proxy.statistic_interval=%s", c.StatisticInterval),
		fmt.Sprintf("proxy.max_idle_time=%s", c.MaxIdleTime),
		fmt.Sprintf("log.dir=%s", c.LogDir),
		fmt.Sprintf("log.max_size=%d", c.LogMaxSize),
		fmt.Sprintf("log.full_stop=%t", c.LogFullStop),
		fmt.Sprintf("auth.username=%s", c.AuthUsername),
	}
}

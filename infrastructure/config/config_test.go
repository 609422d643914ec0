package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/y5a9f2y/proxy/domain/mode"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "proxy.ini")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const encryptionConfig = `
[proxy]
local_host = 0.0.0.0
local_port = 1080
mode = encryption
remote_host = 10.0.0.1
remote_port = 9443
listen_backlog = 256
statistic_interval = 5
max_idle_time = 60

[auth]
username = alice
password = s3cret

[log]
dir = /var/log/proxy
`

func TestLoadEncryptionConfig(t *testing.T) {
	path := writeTempConfig(t, encryptionConfig)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Mode != mode.Encryption {
		t.Errorf("Mode = %v, want Encryption", c.Mode)
	}
	if c.LocalPort != 1080 {
		t.Errorf("LocalPort = %d, want 1080", c.LocalPort)
	}
	if c.ListenBacklog != 256 {
		t.Errorf("ListenBacklog = %d, want 256", c.ListenBacklog)
	}
	if c.StatisticInterval != 5*time.Second {
		t.Errorf("StatisticInterval = %v, want 5s", c.StatisticInterval)
	}
	if c.AuthPassword != "s3cret" {
		t.Errorf("AuthPassword = %q, want s3cret", c.AuthPassword)
	}
}

func TestLoadRejectsMissingPasswordInEncryptionMode(t *testing.T) {
	path := writeTempConfig(t, `
[proxy]
local_port = 1080
mode = encryption
remote_host = 10.0.0.1
remote_port = 9443
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing auth.password")
	}
}

func TestLoadRejectsInvalidMode(t *testing.T) {
	path := writeTempConfig(t, `
[proxy]
local_port = 1080
mode = bogus
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
}

func TestLoadDefaultsApplyWhenUnset(t *testing.T) {
	path := writeTempConfig(t, `
[proxy]
local_port = 1080
mode = transmission
remote_host = 10.0.0.1
remote_port = 9443
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ListenBacklog != 128 {
		t.Errorf("ListenBacklog default = %d, want 128", c.ListenBacklog)
	}
	if c.StatisticInterval != 2*time.Second {
		t.Errorf("StatisticInterval default = %v, want 2s", c.StatisticInterval)
	}
	if c.MaxIdleTime != 120*time.Second {
		t.Errorf("MaxIdleTime default = %v, want 120s", c.MaxIdleTime)
	}
}

func TestReloadOnlyTouchesReloadableFields(t *testing.T) {
	path := writeTempConfig(t, encryptionConfig)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	updated := `
[proxy]
local_host = 0.0.0.0
local_port = 2080
mode = encryption
remote_host = 10.0.0.1
remote_port = 9443
listen_backlog = 256
statistic_interval = 30
max_idle_time = 600

[auth]
username = bob
password = newsecret

[log]
dir = /var/log/proxy
`
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	before, after, err := c.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if before.AuthUsername != "alice" || after.AuthUsername != "bob" {
		t.Errorf("username diff = %q -> %q, want alice -> bob", before.AuthUsername, after.AuthUsername)
	}
	if c.MaxIdleTime != 600*time.Second {
		t.Errorf("MaxIdleTime after reload = %v, want 600s", c.MaxIdleTime)
	}
	// local_port changed in the file, but it is not reloadable, so it must
	// keep the value loaded at startup.
	if c.LocalPort != 1080 {
		t.Errorf("LocalPort changed on reload: %d", c.LocalPort)
	}
}

func TestDumpIncludesEveryNonSecretField(t *testing.T) {
	path := writeTempConfig(t, encryptionConfig)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	lines := c.Dump()
	if len(lines) == 0 {
		t.Fatalf("expected non-empty dump")
	}
	keys := []string{
		"proxy.local_host=", "proxy.local_port=", "proxy.mode=",
		"proxy.remote_host=", "proxy.remote_port=", "proxy.listen_backlog=",
		"proxy.statistic_interval=", "proxy.max_idle_time=",
		"log.dir=", "log.max_size=", "log.full_stop=", "auth.username=",
	}
	for _, k := range keys {
		found := false
		for _, l := range lines {
			if strings.HasPrefix(l, k) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Dump() has no %q line", k)
		}
	}
	for _, l := range lines {
		if strings.HasPrefix(l, "auth.password=") {
			t.Errorf("Dump() must not include auth.password")
		}
	}
}

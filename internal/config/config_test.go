// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.ContainerName != "mt5" {
		t.Errorf("ContainerName = %q, want %q", cfg.ContainerName, "mt5")
	}
	if cfg.ImageRepository != "localhost/mt5-terminal" {
		t.Errorf("ImageRepository = %q, want %q", cfg.ImageRepository, "localhost/mt5-terminal")
	}
	if cfg.Ports.VNC != 5901 || cfg.Ports.Web != 6080 || cfg.Ports.RPC != 8001 {
		t.Errorf("Ports = %+v, want 5901/6080/8001", cfg.Ports)
	}
	if cfg.Machine.CPUs != 2 || cfg.Machine.MemoryMB != 2048 || cfg.Machine.DiskGB != 20 {
		t.Errorf("Machine = %+v, want 2/2048/20", cfg.Machine)
	}
	if cfg.Account.Login != "" {
		t.Errorf("Account.Login = %q, want empty", cfg.Account.Login)
	}
}

func TestImageRef(t *testing.T) {
	tests := []struct {
		goarch string
		want   string
	}{
		{"arm64", "localhost/mt5-terminal:latest-arm64"},
		{"amd64", "localhost/mt5-terminal:latest-amd64"},
	}

	cfg := Default()
	for _, tt := range tests {
		t.Run(tt.goarch, func(t *testing.T) {
			if got := cfg.ImageRef(tt.goarch); got != tt.want {
				t.Errorf("ImageRef(%q) = %q, want %q", tt.goarch, got, tt.want)
			}
		})
	}
}

func TestImageNameFragment(t *testing.T) {
	cfg := Default()
	if got := cfg.ImageNameFragment(); got != "mt5-terminal" {
		t.Errorf("ImageNameFragment() = %q, want %q", got, "mt5-terminal")
	}
}

func TestDescriptorWithoutAccount(t *testing.T) {
	cfg := Default()
	desc := cfg.Descriptor("arm64")

	if desc.Name != "mt5" {
		t.Errorf("Name = %q, want %q", desc.Name, "mt5")
	}
	if desc.Image != "localhost/mt5-terminal:latest-arm64" {
		t.Errorf("Image = %q", desc.Image)
	}
	if desc.Env["VNC_PASSWORD"] != "mt5vnc" {
		t.Errorf("VNC_PASSWORD = %q, want %q", desc.Env["VNC_PASSWORD"], "mt5vnc")
	}
	if desc.Env["BIND_ADDRESS"] != "0.0.0.0" {
		t.Errorf("BIND_ADDRESS = %q, want %q", desc.Env["BIND_ADDRESS"], "0.0.0.0")
	}
	for _, key := range []string{"MT5_LOGIN", "MT5_PASSWORD", "MT5_SERVER"} {
		if _, ok := desc.Env[key]; ok {
			t.Errorf("Env contains %s without account configured", key)
		}
	}

	if len(desc.Ports) != 3 {
		t.Fatalf("len(Ports) = %d, want 3", len(desc.Ports))
	}
	wantPorts := []struct{ host, container int }{
		{5901, 5901},
		{6080, 6080},
		{8001, 8001},
	}
	for i, want := range wantPorts {
		if desc.Ports[i].HostPort != want.host || desc.Ports[i].ContainerPort != want.container {
			t.Errorf("Ports[%d] = %+v, want %d:%d", i, desc.Ports[i], want.host, want.container)
		}
	}
}

func TestDescriptorWithAccount(t *testing.T) {
	cfg := Default()
	cfg.Account = AccountConfig{Login: "12345", Password: "secret", Server: "Broker-Demo"}

	desc := cfg.Descriptor("amd64")

	if desc.Env["MT5_LOGIN"] != "12345" {
		t.Errorf("MT5_LOGIN = %q, want %q", desc.Env["MT5_LOGIN"], "12345")
	}
	if desc.Env["MT5_PASSWORD"] != "secret" {
		t.Errorf("MT5_PASSWORD = %q, want %q", desc.Env["MT5_PASSWORD"], "secret")
	}
	if desc.Env["MT5_SERVER"] != "Broker-Demo" {
		t.Errorf("MT5_SERVER = %q, want %q", desc.Env["MT5_SERVER"], "Broker-Demo")
	}
}

func TestDescriptorCustomHostPorts(t *testing.T) {
	cfg := Default()
	cfg.Ports = PortsConfig{VNC: 15901, Web: 16080, RPC: 18001}

	desc := cfg.Descriptor("arm64")

	// Container-side ports stay fixed no matter the host ports.
	if desc.Ports[0].HostPort != 15901 || desc.Ports[0].ContainerPort != 5901 {
		t.Errorf("VNC mapping = %+v, want 15901:5901", desc.Ports[0])
	}
	if desc.Ports[1].HostPort != 16080 || desc.Ports[1].ContainerPort != 6080 {
		t.Errorf("Web mapping = %+v, want 16080:6080", desc.Ports[1])
	}
	if desc.Ports[2].HostPort != 18001 || desc.Ports[2].ContainerPort != 8001 {
		t.Errorf("RPC mapping = %+v, want 18001:8001", desc.Ports[2])
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `container_name: custom-mt5
vnc_password: hunter2
ports:
  vnc: 15901
machine:
  cpus: 4
account:
  login: "999"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ContainerName != "custom-mt5" {
		t.Errorf("ContainerName = %q, want %q", cfg.ContainerName, "custom-mt5")
	}
	if cfg.VNCPassword != "hunter2" {
		t.Errorf("VNCPassword = %q, want %q", cfg.VNCPassword, "hunter2")
	}
	if cfg.Ports.VNC != 15901 {
		t.Errorf("Ports.VNC = %d, want 15901", cfg.Ports.VNC)
	}
	// Unset keys fall back to defaults.
	if cfg.Ports.Web != 6080 {
		t.Errorf("Ports.Web = %d, want default 6080", cfg.Ports.Web)
	}
	if cfg.Machine.CPUs != 4 {
		t.Errorf("Machine.CPUs = %d, want 4", cfg.Machine.CPUs)
	}
	if cfg.Machine.MemoryMB != 2048 {
		t.Errorf("Machine.MemoryMB = %d, want default 2048", cfg.Machine.MemoryMB)
	}
	if cfg.Account.Login != "999" {
		t.Errorf("Account.Login = %q, want %q", cfg.Account.Login, "999")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() with missing explicit file should fail")
	}
}

func TestLoadNoFileUsesDefaults(t *testing.T) {
	// Point the config directory somewhere empty so no real user config
	// leaks into the test.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ContainerName != "mt5" {
		t.Errorf("ContainerName = %q, want default %q", cfg.ContainerName, "mt5")
	}
}

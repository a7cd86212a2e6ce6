// SPDX-License-Identifier: MPL-2.0

// Package config loads application configuration and materializes the
// container descriptor the lifecycle manager runs. Defaults are registered
// programmatically with viper, an optional config.yaml in the per-user config
// directory is merged on top, and MT5SERVER_* environment variables override
// both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Girish-SCM/mt5-server/internal/platform"
	"github.com/Girish-SCM/mt5-server/internal/podman"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for config and data directories.
	AppName = "mt5server"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yaml"
)

type (
	// PortsConfig holds the three published host ports. Container-side ports
	// are fixed by the image and always map 1:1.
	PortsConfig struct {
		// VNC is the remote-display port.
		VNC int `mapstructure:"vnc"`
		// Web is the browser-based display (noVNC) port.
		Web int `mapstructure:"web"`
		// RPC is the terminal API bridge port.
		RPC int `mapstructure:"rpc"`
	}

	// MachineConfig holds the resource defaults for the podman machine on
	// platforms that need one.
	MachineConfig struct {
		CPUs     int `mapstructure:"cpus"`
		MemoryMB int `mapstructure:"memory_mb"`
		DiskGB   int `mapstructure:"disk_gb"`
	}

	// AccountConfig is the optional trading account pass-through. The values
	// are handed to the container environment untouched; this application
	// never validates them.
	AccountConfig struct {
		Login    string `mapstructure:"login"`
		Password string `mapstructure:"password"`
		Server   string `mapstructure:"server"`
	}

	// Config is the full application configuration.
	Config struct {
		ContainerName   string        `mapstructure:"container_name"`
		ImageRepository string        `mapstructure:"image_repository"`
		ImageTag        string        `mapstructure:"image_tag"`
		VNCPassword     string        `mapstructure:"vnc_password"`
		BindAddress     string        `mapstructure:"bind_address"`
		Ports           PortsConfig   `mapstructure:"ports"`
		Machine         MachineConfig `mapstructure:"machine"`
		Account         AccountConfig `mapstructure:"account"`
	}

	// Descriptor is the ephemeral container description handed to the
	// lifecycle manager. It is recomputed from Config on every use and never
	// persisted.
	Descriptor struct {
		Name  string
		Image string
		Env   map[string]string
		Ports []podman.PortMapping
	}
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ContainerName:   "mt5",
		ImageRepository: "localhost/mt5-terminal",
		ImageTag:        "latest",
		VNCPassword:     "mt5vnc",
		BindAddress:     "0.0.0.0",
		Ports: PortsConfig{
			VNC: 5901,
			Web: 6080,
			RPC: 8001,
		},
		Machine: MachineConfig{
			CPUs:     2,
			MemoryMB: 2048,
			DiskGB:   20,
		},
	}
}

// Load reads configuration: defaults, then the config file (an explicit path,
// or config.yaml in the per-user config directory when it exists), then
// MT5SERVER_* environment variables.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("container_name", defaults.ContainerName)
	v.SetDefault("image_repository", defaults.ImageRepository)
	v.SetDefault("image_tag", defaults.ImageTag)
	v.SetDefault("vnc_password", defaults.VNCPassword)
	v.SetDefault("bind_address", defaults.BindAddress)
	v.SetDefault("ports.vnc", defaults.Ports.VNC)
	v.SetDefault("ports.web", defaults.Ports.Web)
	v.SetDefault("ports.rpc", defaults.Ports.RPC)
	v.SetDefault("machine.cpus", defaults.Machine.CPUs)
	v.SetDefault("machine.memory_mb", defaults.Machine.MemoryMB)
	v.SetDefault("machine.disk_gb", defaults.Machine.DiskGB)
	v.SetDefault("account.login", "")
	v.SetDefault("account.password", "")
	v.SetDefault("account.server", "")

	v.SetEnvPrefix("MT5SERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	} else {
		cfgDir, err := platform.ConfigDir(AppName)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(path) {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file %s: %w", path, err)
			}
		}
		// No config file is fine; defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// ImageRef returns the fully qualified, architecture-suffixed image
// reference. Two image variants exist, one per supported CPU architecture.
func (c *Config) ImageRef(goarch string) string {
	return fmt.Sprintf("%s:%s-%s", c.ImageRepository, c.ImageTag, goarch)
}

// ImageNameFragment returns the substring asserted against the image list
// during post-install verification.
func (c *Config) ImageNameFragment() string {
	return filepath.Base(c.ImageRepository)
}

// Descriptor materializes the container descriptor for the given
// architecture. Account credentials are included only when set.
func (c *Config) Descriptor(goarch string) Descriptor {
	env := map[string]string{
		"VNC_PASSWORD": c.VNCPassword,
		"BIND_ADDRESS": c.BindAddress,
	}
	if c.Account.Login != "" {
		env["MT5_LOGIN"] = c.Account.Login
	}
	if c.Account.Password != "" {
		env["MT5_PASSWORD"] = c.Account.Password
	}
	if c.Account.Server != "" {
		env["MT5_SERVER"] = c.Account.Server
	}

	return Descriptor{
		Name:  c.ContainerName,
		Image: c.ImageRef(goarch),
		Env:   env,
		Ports: []podman.PortMapping{
			{HostPort: c.Ports.VNC, ContainerPort: 5901},
			{HostPort: c.Ports.Web, ContainerPort: 6080},
			{HostPort: c.Ports.RPC, ContainerPort: 8001},
		},
	}
}

// DataDir returns the per-user data directory for this application.
func DataDir() (string, error) {
	return platform.DataDir(AppName)
}

// RuntimeDir returns the directory the bundled Podman runtime is extracted
// into.
func RuntimeDir() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "podman"), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

package server

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("server.api_token", "")
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "./data/camhub.db")

	// Module defaults
	v.SetDefault("plugins.fleet.enabled", true)
	v.SetDefault("plugins.fleet.storage", "sqlite")
	v.SetDefault("plugins.fleet.file_path", "./data/nodes.json")
	v.SetDefault("plugins.overview.enabled", true)
	v.SetDefault("plugins.overview.probe_timeout", "5s")
	v.SetDefault("plugins.overview.max_workers", 8)
	v.SetDefault("plugins.overview.allow_private_ips", false)
	v.SetDefault("plugins.overview.icmp_diagnostics", false)
	v.SetDefault("plugins.stream.enabled", true)
	v.SetDefault("plugins.stream.frame_rate", 10)
	v.SetDefault("plugins.stream.width", 640)
	v.SetDefault("plugins.stream.height", 480)
	v.SetDefault("plugins.webhook.enabled", true)
	v.SetDefault("plugins.webhook.url", "")
	v.SetDefault("plugins.webhook.timeout", "10s")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("camhub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/camhub")
	}

	// Environment variable support: CAMHUB_SERVER_PORT=9090
	v.SetEnvPrefix("CAMHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The SSRF private-range override keeps its historical bare name too.
	_ = v.BindEnv("plugins.overview.allow_private_ips", "ALLOW_PRIVATE_IPS", "CAMHUB_PLUGINS_OVERVIEW_ALLOW_PRIVATE_IPS")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}

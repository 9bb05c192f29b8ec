package server

import (
	"testing"
	"time"

	"github.com/camhub/camhub/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	v, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := v.GetString("server.host"); got != "0.0.0.0" {
		t.Errorf("server.host = %q, want 0.0.0.0", got)
	}
	if got := v.GetInt("plugins.overview.max_workers"); got != 8 {
		t.Errorf("max_workers = %d, want 8", got)
	}
}

func TestLoadConfig_AllowPrivateIPsReachesModuleSubtree(t *testing.T) {
	t.Setenv("ALLOW_PRIVATE_IPS", "true")

	v, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	// Same path the composition root hands to modules.
	sub := config.New(v).Sub("plugins.overview")
	if !sub.GetBool("allow_private_ips") {
		t.Error("allow_private_ips env override did not reach the module config subtree")
	}
	if got := sub.GetDuration("probe_timeout"); got != 5*time.Second {
		t.Errorf("probe_timeout = %s, want default 5s alongside the override", got)
	}
}

func TestLoadConfig_PrefixedEnvOverride(t *testing.T) {
	t.Setenv("CAMHUB_SERVER_PORT", "9090")

	v, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := v.GetString("server.port"); got != "9090" {
		t.Errorf("server.port = %q, want env override 9090", got)
	}
}

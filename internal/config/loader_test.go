package config_test

import (
	"strings"
	"testing"

	"github.com/mrwong99/adventure-engine/internal/config"
)

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
mcp:
  servers:
    - name: ""
      transport: stdio
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "world_pack.path") {
		t.Errorf("error should mention world_pack.path, got: %v", err)
	}
	if !strings.Contains(errStr, "name is required") {
		t.Errorf("error should mention the missing mcp server name, got: %v", err)
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	// Sanity-check that the map is populated.
	if len(config.ValidProviderNames) == 0 {
		t.Fatal("ValidProviderNames should not be empty")
	}
	llmNames := config.ValidProviderNames["llm"]
	if len(llmNames) == 0 {
		t.Fatal("ValidProviderNames[\"llm\"] should not be empty")
	}
	found := false
	for _, n := range llmNames {
		if n == "openai" {
			found = true
			break
		}
	}
	if !found {
		t.Error("ValidProviderNames[\"llm\"] should contain \"openai\"")
	}
}

func TestApplyEnv_OverridesYAMLValue(t *testing.T) {
	t.Setenv("ADVENTURE_SERVER_LISTEN_ADDR", ":9090")

	yaml := `
server:
  listen_addr: ":8080"
world_pack:
  path: pack.yaml
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("expected env override to win, got %q", cfg.Server.ListenAddr)
	}
}

func TestApplyEnv_LeavesYAMLValueWhenUnset(t *testing.T) {
	yaml := `
server:
  listen_addr: ":8080"
world_pack:
  path: pack.yaml
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("expected unset env var to leave YAML value intact, got %q", cfg.Server.ListenAddr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/path/to/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

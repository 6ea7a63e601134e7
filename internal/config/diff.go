package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; changing the
// world pack path or an LLM provider requires a restart and is not diffed.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     string

	TunablesChanged bool
	NewTunables     TunablesConfig

	MCPServersChanged bool
	MCPServerChanges  []MCPServerDiff
}

// MCPServerDiff describes what changed for a single MCP server entry
// between two configs.
type MCPServerDiff struct {
	Name    string
	Added   bool
	Removed bool
	Changed bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Tunables != new.Tunables {
		d.TunablesChanged = true
		d.NewTunables = new.Tunables
	}

	oldServers := make(map[string]MCPServerConfig, len(old.MCP.Servers))
	for _, s := range old.MCP.Servers {
		oldServers[s.Name] = s
	}
	newServers := make(map[string]MCPServerConfig, len(new.MCP.Servers))
	for _, s := range new.MCP.Servers {
		newServers[s.Name] = s
	}

	for name, oldSrv := range oldServers {
		newSrv, exists := newServers[name]
		if !exists {
			d.MCPServerChanges = append(d.MCPServerChanges, MCPServerDiff{Name: name, Removed: true})
			d.MCPServersChanged = true
			continue
		}
		if !mcpServerEqual(oldSrv, newSrv) {
			d.MCPServerChanges = append(d.MCPServerChanges, MCPServerDiff{Name: name, Changed: true})
			d.MCPServersChanged = true
		}
	}
	for name := range newServers {
		if _, exists := oldServers[name]; !exists {
			d.MCPServerChanges = append(d.MCPServerChanges, MCPServerDiff{Name: name, Added: true})
			d.MCPServersChanged = true
		}
	}

	return d
}

func mcpServerEqual(a, b MCPServerConfig) bool {
	if a.Transport != b.Transport || a.Command != b.Command || a.URL != b.URL || len(a.Env) != len(b.Env) {
		return false
	}
	for k, v := range a.Env {
		if b.Env[k] != v {
			return false
		}
	}
	return true
}

package config

import "testing"

func TestFromEnvLogConsole(t *testing.T) {
	t.Setenv("LOG_CONSOLE", "")
	if cfg := FromEnv(); cfg.LogConsole {
		t.Fatal("LogConsole should default to false")
	}

	t.Setenv("LOG_CONSOLE", "true")
	if cfg := FromEnv(); !cfg.LogConsole {
		t.Fatal("LOG_CONSOLE=true should enable console output")
	}

	t.Setenv("LOG_CONSOLE", "yes")
	if cfg := FromEnv(); !cfg.LogConsole {
		t.Fatal("LOG_CONSOLE=yes should enable console output")
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/schulamt-zurich/zurichmcp/pkg/config"
	"github.com/schulamt-zurich/zurichmcp/pkg/version"
)

func TestGenerateClientConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	tests := []struct {
		name     string
		path     string
		existing string
		wantErr  bool
	}{
		{name: "valid path", path: "config.json"},
		{name: "nested directory", path: filepath.Join("claude", "config.json")},
		{name: "empty path", path: "", wantErr: true},
		{name: "non-json extension", path: "config.txt", wantErr: true},
		{name: "path with ..", path: filepath.Join("..", "config.json"), wantErr: true},
		{
			name:     "merge with existing",
			path:     "merge.json",
			existing: `{"existing_key":"existing_value","mcpServers":{"other":{"command":"other"}}}`,
		},
		{name: "replace invalid json", path: "broken.json", existing: "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.existing != "" {
				if err := os.WriteFile(tt.path, []byte(tt.existing), 0o644); err != nil {
					t.Fatalf("write existing config: %v", err)
				}
			}

			err := generateClientConfig(tt.path, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("generateClientConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			info, err := os.Stat(tt.path)
			if err != nil {
				t.Fatalf("stat config file: %v", err)
			}
			if mode := info.Mode().Perm(); mode != 0o600 {
				t.Errorf("config file mode = %v, want 0600", mode)
			}

			data, err := os.ReadFile(tt.path)
			if err != nil {
				t.Fatalf("read config file: %v", err)
			}
			var cfg map[string]any
			if err := json.Unmarshal(data, &cfg); err != nil {
				t.Fatalf("parse config JSON: %v", err)
			}
			servers, ok := cfg["mcpServers"].(map[string]any)
			if !ok {
				t.Fatal("config missing mcpServers")
			}
			entry, ok := servers[clientServerName].(map[string]any)
			if !ok {
				t.Fatalf("mcpServers missing %q", clientServerName)
			}
			if cmd, _ := entry["command"].(string); !filepath.IsAbs(cmd) {
				t.Errorf("command %q is not absolute", cmd)
			}

			if tt.name == "merge with existing" {
				if cfg["existing_key"] != "existing_value" {
					t.Error("merge dropped existing content")
				}
				if _, ok := servers["other"]; !ok {
					t.Error("merge dropped other servers")
				}
			}
		})
	}
}

func TestGenerateClientConfigWithServerConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := generateClientConfig("client.json", "zurich.yaml"); err != nil {
		t.Fatalf("generateClientConfig() error = %v", err)
	}
	data, err := os.ReadFile("client.json")
	if err != nil {
		t.Fatal(err)
	}
	var cfg struct {
		MCPServers map[string]struct {
			Args []string `json:"args"`
		} `json:"mcpServers"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatal(err)
	}
	args := cfg.MCPServers[clientServerName].Args
	if len(args) != 2 || args[0] != "--config" || !filepath.IsAbs(args[1]) || filepath.Base(args[1]) != "zurich.yaml" {
		t.Errorf("args = %v", args)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.Contains(out.String(), version.BuildVersion) {
		t.Errorf("version output = %q", out.String())
	}
}

func TestLoadConfigFlags(t *testing.T) {
	for _, env := range []string{config.EnvConfigPath, config.EnvTransport, config.EnvHost, config.EnvPort, config.EnvLogLevel} {
		t.Setenv(env, "")
	}

	tests := []struct {
		name      string
		args      []string
		transport string
		port      int
		level     string
		wantErr   bool
	}{
		{name: "defaults", transport: config.TransportStdio, port: config.Default().Server.Port, level: config.Default().Log.Level},
		{name: "sse on port", args: []string{"--transport", "sse", "--port", "9000", "--debug"}, transport: config.TransportSSE, port: 9000, level: "debug"},
		{name: "bad transport", args: []string{"--transport", "pigeon"}, wantErr: true},
		{name: "bad port", args: []string{"--port", "70000"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f flags
			cmd := newRootCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}
			f.configPath, _ = cmd.Flags().GetString("config")
			f.debug, _ = cmd.Flags().GetBool("debug")
			f.transport, _ = cmd.Flags().GetString("transport")
			f.port, _ = cmd.Flags().GetInt("port")

			cfg, err := loadConfig(cmd, f)
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.Server.Transport != tt.transport || cfg.Server.Port != tt.port || cfg.Log.Level != tt.level {
				t.Errorf("got transport=%s port=%d level=%s", cfg.Server.Transport, cfg.Server.Port, cfg.Log.Level)
			}
		})
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schulamt-zurich/zurichmcp/pkg/config"
	"github.com/schulamt-zurich/zurichmcp/pkg/server"
	"github.com/schulamt-zurich/zurichmcp/pkg/version"
)

// clientServerName is the key of this server in the client's mcpServers map.
const clientServerName = "zurich-opendata"

// flags holds the command line overrides of the configuration.
type flags struct {
	configPath string
	debug      bool
	transport  string
	port       int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:   "zurichmcp",
		Short: "MCP server for the open data of the City of Zurich",
		Long: "zurichmcp serves the open data of the City of Zurich over the Model Context Protocol: " +
			"the CKAN catalog, live feeds, geoportal layers, the municipal parliament, Zurich Tourism and linked data.",
		Version:       version.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, f)
		},
	}
	root.SetVersionTemplate(version.String() + "\n")

	root.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "Path to a YAML config file (env "+config.EnvConfigPath+")")
	root.PersistentFlags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
	root.Flags().StringVarP(&f.transport, "transport", "t", "", "Transport: stdio or sse (env "+config.EnvTransport+")")
	root.Flags().IntVarP(&f.port, "port", "p", 0, "Port of the SSE listener (env "+config.EnvPort+")")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newGenerateConfigCmd(&f))
	return root
}

// loadConfig reads the configuration and applies the flags that were set.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.debug {
		cfg.Log.Level = "debug"
	}
	if cmd.Flags().Changed("transport") {
		cfg.Server.Transport = f.transport
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = f.port
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serve(cmd *cobra.Command, f flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	// stdout carries the stdio transport
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	logger.Info("starting Zurich open data MCP server",
		"version", version.BuildVersion,
		"transport", cfg.Server.Transport,
		"log_level", cfg.Log.Level)

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("server initialized, waiting for requests")
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newGenerateConfigCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "generate-config <path>",
		Short: "Add this server to an MCP client config file (e.g. claude_desktop_config.json)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := generateClientConfig(args[0], f.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "added %q to %s\n", clientServerName, args[0])
			return nil
		},
	}
}

// validateOutputPath rejects empty paths, non-JSON files and paths leaving the working tree.
func validateOutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("output path must not be empty")
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return fmt.Errorf("output path %q must end in .json", path)
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("output path %q must not contain ..", path)
		}
	}
	return nil
}

// generateClientConfig creates or updates an MCP client config file. Other
// entries of the file are kept; ours is added or replaced.
func generateClientConfig(outputPath, serverConfigPath string) error {
	logger := slog.Default()

	if err := validateOutputPath(outputPath); err != nil {
		return err
	}

	execPath, err := os.Executable()
	if err != nil {
		execPath = os.Args[0]
	}
	absExecPath, err := filepath.Abs(execPath)
	if err != nil {
		absExecPath = execPath
	}

	args := []string{}
	if serverConfigPath != "" {
		absConfig, err := filepath.Abs(serverConfigPath)
		if err != nil {
			absConfig = serverConfigPath
		}
		args = append(args, "--config", absConfig)
	}
	entry := map[string]any{
		"command": absExecPath,
		"args":    args,
	}

	cfg := make(map[string]any)
	data, err := os.ReadFile(outputPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil || cfg == nil {
			logger.Warn("existing config is not valid JSON, will create new", "path", outputPath, "error", err)
			cfg = make(map[string]any)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("failed to read existing config: %w", err)
	}

	servers, ok := cfg["mcpServers"].(map[string]any)
	if !ok {
		servers = make(map[string]any)
		cfg["mcpServers"] = servers
	}
	servers[clientServerName] = entry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	out = append(out, '\n')

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, out, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(outputPath, 0o600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}
	return nil
}

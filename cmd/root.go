package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/axnasim/mcp-server/internal/config"
	"github.com/axnasim/mcp-server/internal/logging"
)

// rootCmd represents the base command for the mcp-server application
var rootCmd = newRootCmd()

// version will be set by main
var version = "dev"

// globalFlags are the persistent flags shared by every command. Each one
// overrides its environment variable only when set explicitly.
type globalFlags struct {
	envFile         string
	tokenFile       string
	credentialsFile string
	chatterDB       string
	logLevel        string
	logFormat       string
}

var (
	flags  globalFlags
	cfg    config.Config
	logger = slog.Default()
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "MCP server for LinkedIn mail in Gmail and community chatter stats",
		Long: `mcp-server exposes two groups of read-only tools to AI assistants over the
Model Context Protocol:

  - LinkedIn Gmail lookup: list, read and categorize LinkedIn notification
    emails in the authorized Gmail mailbox
  - Community chatters: rank chat participants by message count from a
    local SQLite database

Settings come from the environment (optionally a .env file) and can be
overridden with flags.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", ".env", "Environment file loaded at startup (missing file is ignored)")
	pf.StringVar(&flags.tokenFile, "token-file", "", "Gmail OAuth token file (env: "+config.EnvTokenFile+")")
	pf.StringVar(&flags.credentialsFile, "credentials-file", "", "Google OAuth client file (env: "+config.EnvCredentialsFile+")")
	pf.StringVar(&flags.chatterDB, "chatter-db", "", "SQLite chatters database (env: "+config.EnvChatterDBPath+")")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (env: "+config.EnvLogLevel+")")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json (env: "+config.EnvLogFormat+")")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAuthCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newCallCmd())
	cmd.AddCommand(newChattersCmd())
	cmd.AddCommand(newGenerateDocsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig resolves cfg and logger for the running command. Logs always go
// to stderr since stdout carries the stdio transport and command output.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(flags.envFile); err != nil {
		return err
	}

	cfg = config.FromEnv()
	changed := func(name string) bool {
		f := cmd.Flag(name)
		return f != nil && f.Changed
	}
	if changed("token-file") {
		cfg.TokenFile = flags.tokenFile
	}
	if changed("credentials-file") {
		cfg.CredentialsFile = flags.credentialsFile
	}
	if changed("chatter-db") {
		cfg.ChatterDBPath = flags.chatterDB
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = logging.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return nil
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcp-server version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

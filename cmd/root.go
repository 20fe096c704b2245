// ABOUTME: Root command for the ticketdesk CLI
// ABOUTME: Handles global flags, configuration, and debug logging

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/markalston/ticketdesk/internal/config"
	"github.com/markalston/ticketdesk/internal/logger"
	"github.com/spf13/cobra"
)

var (
	apiURL     string
	configDir  string
	jsonOutput bool

	logFile io.Closer
)

// Exit codes
const (
	exitOK         = 0
	exitFailure    = 1
	exitConnection = 2
	exitSession    = 3
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "ticketdesk",
	Short: "CLI for the ticketdesk support backend",
	Long: `ticketdesk is a command-line client for the ticketdesk support backend.

Log in once; the session is kept in the config directory and renewed
automatically while the refresh token is valid.

Environment Variables:
  TICKETDESK_API_URL           Backend API URL (default: http://localhost:3000/api)
  TICKETDESK_CONFIG_DIR        Session and log directory (default: ~/.config/ticketdesk)
  TICKETDESK_HTTP_TIMEOUT      Per-request timeout (default: 30s)
  TICKETDESK_CACHE_TTL         How long list results stay fresh (default: 15s)
  TICKETDESK_POLL_INTERVAL     Polling interval for watch commands (default: 30s)
  TICKETDESK_BREAKER_FAILURES  Consecutive failures before backing off (default: 5)
  TICKETDESK_BREAKER_TIMEOUT   How long to back off (default: 30s)
  LOG_LEVEL                    debug, info, warn, error (default: info)
  LOG_FORMAT                   text, json (default: text)

Exit Codes:
  0  Success
  1  Command failed
  2  Backend unreachable
  3  Not logged in, session expired, or role not permitted`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			return
		}
		f, err := logger.OpenFile(cfg.ConfigDir)
		if err != nil {
			return
		}
		logFile = f
		logger.Init(cfg.LogLevel, cfg.LogFormat, f)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides TICKETDESK_API_URL)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Session and log directory (overrides TICKETDESK_CONFIG_DIR)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// loadConfig reads the environment and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	cfg.APIURL = GetAPIURL(cfg)
	return cfg, nil
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL(cfg *config.Config) string {
	if apiURL != "" {
		return config.NormalizeURL(apiURL)
	}
	return cfg.APIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// commandContext is cancelled on SIGINT or SIGTERM
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// exit terminates with code unless the command succeeded
func exit(code int) {
	if code != exitOK {
		closeLog()
		os.Exit(code)
	}
}

func closeLog() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func runAndExit(run func(ctx context.Context, w io.Writer) int) {
	ctx, cancel := commandContext()
	code := run(ctx, os.Stdout)
	cancel()
	exit(code)
}

func printJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

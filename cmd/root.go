// Package cmd wires the lumen CLI: cobra commands over the MCP bridge, the
// chat-completions client, and the local stdio tool host.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/lumen-ai/lumen-cli/api"
	"github.com/lumen-ai/lumen-cli/env"
	"github.com/lumen-ai/lumen-cli/logger"
	"github.com/lumen-ai/lumen-cli/mcp"
	"github.com/lumen-ai/lumen-cli/mcp/session"
	"github.com/lumen-ai/lumen-cli/mcp/transport"
	"github.com/lumen-ai/lumen-cli/mcp/transport/execpost"
	mcphttp "github.com/lumen-ai/lumen-cli/mcp/transport/http"
	"github.com/lumen-ai/lumen-cli/tui"
)

// Exit codes. Auth failures get their own code so agents can distinguish
// "fix your key" from transient failures.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
	ExitAuth  = 3
)

var (
	cfgFile      string
	flagAPIKey   string
	flagBaseURL  string
	flagLogLevel string
	flagTimeout  time.Duration
	flagJSON     bool
	flagCurl     bool

	cfg env.Config
	log logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "lumen",
	Short:         "CLI for the Lumen AI provider: search, read, repo, vision, and chat",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = env.Load(cfgFile)
		if err != nil {
			return err
		}
		if flagAPIKey != "" {
			cfg.APIKey = flagAPIKey
		}
		if flagBaseURL != "" {
			cfg.BaseURL = flagBaseURL
		}
		if flagLogLevel != "" {
			cfg.LogLevel = flagLogLevel
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Timeout = flagTimeout
		}
		if flagCurl {
			cfg.UseCurl = true
		}
		log = newLogger(cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default "+env.ConfigFile()+")")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key (overrides config and LUMEN_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "provider base URL")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", env.DefaultTimeout, "tool call timeout")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagCurl, "curl", false, "use the curl subprocess transport instead of the in-process one")
}

// usageError marks bad invocations so Execute can exit with the usage code.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exactArgs is cobra.ExactArgs with the error tagged as a usage problem.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func rangeArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(min, max)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, tui.Warning(err.Error()))
		var ue *usageError
		if errors.As(err, &ue) {
			return ExitUsage
		}
		if mcp.IsAuthError(err) || api.IsAuthError(err) {
			return ExitAuth
		}
		return ExitError
	}
	return ExitOK
}

func newLogger(cfg env.Config) logger.Logger {
	level := logger.ParseLevel(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		return logger.NewJSONLogger(level)
	}
	return logger.NewConsoleLogger(level)
}

func requireAPIKey() (string, error) {
	if cfg.APIKey == "" {
		return "", errors.New("no API key configured; run `lumen configure` or set LUMEN_API_KEY")
	}
	return cfg.APIKey, nil
}

func sessionFile() string {
	return filepath.Join(cfg.CacheDir, "sessions.json")
}

func newSessionStore() *session.Store {
	return session.NewStore(
		session.NewFileBackend(sessionFile()),
		session.NewSSEAcquirer(log),
		log,
		session.WithTTL(cfg.SessionTTL),
	)
}

func newInvoker() transport.ToolInvoker {
	store := newSessionStore()
	if cfg.UseCurl {
		return execpost.New(store, log, execpost.WithCallTimeout(cfg.Timeout))
	}
	return mcphttp.New(store, log, mcphttp.WithCallTimeout(cfg.Timeout))
}

// callTool runs one bridge tool call with a spinner on interactive terminals.
func callTool(cmd *cobra.Command, class mcp.EndpointClass, tool string, arguments map[string]any) (any, error) {
	credential, err := requireAPIKey()
	if err != nil {
		return nil, err
	}
	invoker := newInvoker()
	endpoint := class.Endpoint(cfg.BaseURL)

	var value any
	var callErr error
	tui.ShowSpinner("Calling "+tool+"...", func() {
		value, callErr = invoker.CallTool(cmd.Context(), endpoint, credential, tool, arguments)
	})
	return value, callErr
}

// printResult writes the normalized value to stdout: strings as-is unless
// --json was given, everything else as indented JSON.
func printResult(value any) error {
	if !flagJSON {
		if s, ok := value.(string); ok {
			fmt.Println(s)
			return nil
		}
	}
	buf, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding result")
	}
	fmt.Println(string(buf))
	return nil
}

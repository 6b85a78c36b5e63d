package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/lumen-ai/lumen-cli/cache"
	"github.com/lumen-ai/lumen-cli/mcp"
	"github.com/lumen-ai/lumen-cli/tui"
)

var toolsNoCache bool

// discoveryTTL bounds how long a tools/list result is reused. Endpoints add
// tools rarely, so an hour is plenty.
const discoveryTTL = time.Hour

var toolsCmd = &cobra.Command{
	Use:   "tools <endpoint>",
	Short: "List the tools an endpoint exposes (webSearch, webReader, or repoReader)",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		class := mcp.EndpointClass(args[0])
		if !class.Valid() {
			return &usageError{err: errors.Newf("unknown endpoint %q, expected one of %v", args[0], mcp.Classes())}
		}
		credential, err := requireAPIKey()
		if err != nil {
			return err
		}

		invoker := newInvoker()
		endpoint := class.Endpoint(cfg.BaseURL)
		list := func() (any, error) {
			var value any
			var listErr error
			tui.ShowSpinner("Discovering tools...", func() {
				value, listErr = invoker.ListTools(cmd.Context(), endpoint, credential)
			})
			return value, listErr
		}

		if toolsNoCache {
			value, err := list()
			if err != nil {
				return err
			}
			return printResult(value)
		}

		db, err := cache.NewSQLite(cmd.Context(), filepath.Join(cfg.CacheDir, "tools.db"))
		if err != nil {
			// A broken cache should not block discovery.
			log.Warn("discovery cache unavailable: %v", err)
			value, err := list()
			if err != nil {
				return err
			}
			return printResult(value)
		}
		defer db.Close()

		// The credential is hashed into the key so rotating keys invalidates
		// the cache without ever writing the key itself to disk.
		key := fmt.Sprintf("tools:%s:%x", class, xxhash.Sum64String(credential))
		_, value, err := cache.Exec(cmd.Context(), db, key, discoveryTTL, func(ctx context.Context) (any, bool, error) {
			v, err := list()
			return v, err == nil, err
		})
		if err != nil {
			return err
		}
		return printResult(value)
	},
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsNoCache, "no-cache", false, "skip the discovery cache")
	rootCmd.AddCommand(toolsCmd)
}

// portalctl is the operator CLI: probe a running server, inspect the local
// snapshot database, and pull admin stats.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourorg/affiliateportal/internal/infrastructure/logger"
	"github.com/yourorg/affiliateportal/internal/repository"
)

type rootOptions struct {
	ServerURL string
	Token     string
}

func main() {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Operator tooling for the affiliate portal",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.ServerURL, "server", "http://localhost:8080", "portal server base URL")
	root.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("PORTAL_TOKEN"), "admin bearer token")

	root.AddCommand(newHealthCommand(opts))
	root.AddCommand(newStatsCommand(opts))
	root.AddCommand(newSnapshotCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newHealthCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the server's liveness and readiness endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: 5 * time.Second}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, probe := range []string{"/healthz", "/readyz"} {
				resp, err := client.Get(opts.ServerURL + probe)
				if err != nil {
					fmt.Fprintf(w, "%s\tunreachable\t%v\n", probe, err)
					continue
				}
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				fmt.Fprintf(w, "%s\t%d\t%s\n", probe, resp.StatusCode, string(body))
			}
			return w.Flush()
		},
	}
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Fetch the admin dashboard aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Token == "" {
				return fmt.Errorf("admin token required: set --token or PORTAL_TOKEN")
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, opts.ServerURL+"/api/admin/stats", nil)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+opts.Token)

			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
			}
			_, err = cmd.OutOrStdout().Write(append(body, '\n'))
			return err
		},
	}
}

func newSnapshotCommand() *cobra.Command {
	var path string
	var dump bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect the local snapshot database",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewLogger("error")
			snapshots, err := repository.NewSQLiteSnapshotStore(path, log)
			if err != nil {
				return fmt.Errorf("open snapshot: %w", err)
			}
			defer snapshots.Close()

			st, ok := snapshots.Load()
			if !ok {
				return fmt.Errorf("no usable snapshot at %s", path)
			}

			if dump {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "users\t%d\n", len(st.Users))
			fmt.Fprintf(w, "withdrawals\t%d\n", len(st.Withdrawals))
			fmt.Fprintf(w, "referrals\t%d\n", len(st.Referrals))
			fmt.Fprintf(w, "complaints\t%d\n", len(st.Complaints))
			fmt.Fprintf(w, "session bound\t%t\n", st.CurrentUserID != "")
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&path, "path", "portal.db", "snapshot database path")
	cmd.Flags().BoolVar(&dump, "dump", false, "print the full document as JSON")
	return cmd
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fiscal-sentinel/pkg/client"
)

var serverURL string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sentinel-cli",
		Short: "Command-line client for the Fiscal Sentinel API",
		Long:  "Talks to a Fiscal Sentinel server: authentication, transaction import and the analysis chat.",
	}

	cmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "base URL of the Fiscal Sentinel server")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newTransactionsCmd())
	return cmd
}

func defaultServerURL() string {
	if url := os.Getenv("SENTINEL_SERVER_URL"); url != "" {
		return url
	}
	return "http://localhost:8000"
}

// newClient opens the API client backed by the per-user state file, so the
// token and conversation survive between invocations.
func newClient() (*client.Client, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot locate home directory: %w", err)
	}

	dir := filepath.Join(home, ".fiscal-sentinel")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("cannot create state directory: %w", err)
	}

	store, err := client.NewFileStore(filepath.Join(dir, "state.json"))
	if err != nil {
		return nil, fmt.Errorf("cannot open state file: %w", err)
	}

	return client.New(serverURL, store), nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}

package main

import (
	"context"
	"os"

	"github.com/sagarc03/datashare/clientcli"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <token> [token...]",
	Aliases: []string{"rm"},
	Short:   "Delete your shared files",
	Long: `Delete one or more of your files by share token. The tokens stop
working immediately.

Examples:
  datashare-cli delete aB3xZ9
  datashare-cli delete aB3xZ9 Qw8rT2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(_ *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(context.Background(), clientcli.DeleteOptions{Tokens: args})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}
	return nil
}

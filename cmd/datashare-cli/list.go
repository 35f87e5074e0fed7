package main

import (
	"context"
	"os"

	"github.com/sagarc03/datashare/clientcli"
	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listCursor string
	listAll    bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your shared files",
	Long: `List the files uploaded by the logged in account together with their
share tokens. Newest files come first.

Examples:
  datashare-cli list
  datashare-cli list --all --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 100, "max items per page (1-1000)")
	listCmd.Flags().StringVar(&listCursor, "cursor", "", "pagination cursor")
	listCmd.Flags().BoolVar(&listAll, "all", false, "fetch all pages")
}

func runList(_ *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(context.Background(), clientcli.ListOptions{
		Limit:  listLimit,
		Cursor: listCursor,
		All:    listAll,
	})
	if err != nil {
		return err
	}

	return getFormatter().FormatList(os.Stdout, result)
}

package main

import (
	"context"
	"os"

	"github.com/sagarc03/datashare/clientcli"
	"github.com/spf13/cobra"
)

var (
	uploadPublic      bool
	uploadDays        int
	uploadName        string
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path>",
	Short: "Upload a file and print its share token",
	Long: `Upload a file and print its share token.

Uploads are tied to the logged in account unless --public is given. Public
uploads work without logging in but cannot be listed or deleted later.

Examples:
  datashare-cli upload ./report.pdf
  datashare-cli upload --days 1 ./photo.jpg
  datashare-cli upload --public -q ./notes.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadPublic, "public", false, "upload without an owner")
	uploadCmd.Flags().IntVarP(&uploadDays, "days", "d", 0, "days until the share token expires (1-365, server default if unset)")
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "filename shown to downloaders (default: base name of the file)")
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	opts := clientcli.UploadOptions{
		LocalPath:   args[0],
		Filename:    uploadName,
		ContentType: uploadContentType,
		Public:      uploadPublic,
	}
	if cmd.Flags().Changed("days") {
		opts.ExpirationDays = &uploadDays
	}

	result, err := client.Upload(context.Background(), opts)
	if err != nil {
		return err
	}

	return getFormatter().FormatUpload(os.Stdout, result)
}

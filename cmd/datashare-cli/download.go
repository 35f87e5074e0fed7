package main

import (
	"context"
	"io"
	"os"

	"github.com/sagarc03/datashare/clientcli"
	"github.com/spf13/cobra"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <token> [local-path]",
	Short: "Download a shared file",
	Long: `Download the file behind a share token.

No login is needed. The file is saved under the name it was uploaded with
unless a local path is given.

Examples:
  datashare-cli download aB3xZ9
  datashare-cli download aB3xZ9 ./copy.pdf
  datashare-cli download --stdout aB3xZ9 | less`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(_ *cobra.Command, args []string) error {
	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Download(context.Background(), clientcli.DownloadOptions{
		Token:     args[0],
		LocalPath: localPath,
	})
	if err != nil {
		return err
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		if _, err := io.Copy(os.Stdout, reader); err != nil {
			return err
		}
		// Metadata goes to stderr so the content stays pipeable
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/datashare/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "datashare",
	Short:   "File sharing server with short share tokens",
	Long: `datashare hands out presigned upload URLs and short share tokens.
Anyone holding a token can download the file until the token expires.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			files = append(files, path)
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file path (default: ./config.yaml)")
	flags.String("db-type", "", "database type: sqlite, postgres (env: DATASHARE_DATABASE_TYPE)")
	flags.String("db-dsn", "", "database connection string (env: DATASHARE_DATABASE_DSN)")
	flags.String("storage-driver", "", "storage driver: s3, minio, local (env: DATASHARE_STORAGE_DRIVER)")
	flags.String("storage-path", "", "local storage directory (env: DATASHARE_STORAGE_LOCAL_PATH)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env: DATASHARE_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

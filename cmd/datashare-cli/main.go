package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sagarc03/datashare/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	endpoint    string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "datashare-cli",
	Version: version,
	Short:   "Client for the datashare file sharing service",
	Long: `datashare-cli - share files through a datashare server

Files are shared by a short token. Anyone holding a token can download the
file until it expires. Log in to keep track of your uploads:

  datashare-cli register alice@example.com
  datashare-cli login alice@example.com
  datashare-cli upload ./report.pdf
  datashare-cli download aB3xZ9`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.datashare/config.yaml, env: DATASHARE_CLI_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile to use (env: DATASHARE_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:8080, env: DATASHARE_ENDPOINT)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if !errors.As(err, &exitErr) {
			_ = getFormatter().FormatError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// getConfigPath resolves the config file from the flag, then the
// environment, then the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

func getProfileName() string {
	if profileName != "" {
		return profileName
	}
	return clientcli.ProfileFromEnv()
}

// loadProfile returns the selected profile together with its config file.
// Both are nil when no config file exists and no profile was asked for.
func loadProfile() (*clientcli.ConfigFile, *clientcli.Profile, error) {
	name := getProfileName()

	cf, err := clientcli.LoadConfigFile(getConfigPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && name == "" && cfgFile == "" {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	p, err := cf.GetProfile(name)
	if err != nil {
		if errors.Is(err, clientcli.ErrNoProfiles) && name == "" {
			return cf, nil, nil
		}
		return nil, nil, err
	}
	return cf, p, nil
}

// buildConfig merges the profile, env vars and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	_, p, err := loadProfile()
	if err != nil {
		return nil, err
	}

	return clientcli.MergeConfig(
		clientcli.ConfigFromProfile(p),
		clientcli.ConfigFromEnv(),
		&clientcli.Config{Endpoint: endpoint},
	), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// saveSession records the session on the selected profile. A profile named
// "default" is created when the config file has none.
func saveSession(w io.Writer, email, session string) error {
	path := getConfigPath()

	name := getProfileName()

	cf, err := clientcli.LoadConfigFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cf = &clientcli.ConfigFile{}
	}

	p, err := cf.GetProfile(name)
	if err != nil && (name != "" || !errors.Is(err, clientcli.ErrNoProfiles)) {
		return err
	}

	if p == nil {
		ep := endpoint
		if ep == "" {
			ep = clientcli.MergeConfig(clientcli.ConfigFromEnv()).WithDefaults().Endpoint
		}
		np := clientcli.Profile{Name: "default", Endpoint: ep, Default: true}
		if err := cf.AddProfile(np); err != nil {
			return err
		}
		p = &np
		if !quiet {
			_, _ = fmt.Fprintf(w, "Created profile '%s' for %s\n", np.Name, ep)
		}
	}

	if err := cf.SetSession(p.Name, email, session); err != nil {
		return err
	}
	if err := cf.Save(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// exitError is returned when we want to exit with a specific code
// but don't want to print an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

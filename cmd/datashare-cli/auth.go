package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/sagarc03/datashare/clientcli"
	"github.com/spf13/cobra"
)

var passwordStdin bool

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account",
	Long: `Create an account on the server.

Passwords need at least 8 characters with an upper case letter, a lower case
letter, a digit and one of @#$%^&+=!.

Examples:
  datashare-cli register alice@example.com
  echo "$PASSWORD" | datashare-cli register alice@example.com --password-stdin`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and save the session to the profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session of the profile",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account of the current session",
	Args:  cobra.NoArgs,
	RunE:  runWhoAmI,
}

func init() {
	registerCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	loginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
}

func readPassword(confirm bool) (string, error) {
	if passwordStdin {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	prompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("password is required")
			}
			return nil
		},
	}
	password, err := prompt.Run()
	if err != nil {
		return "", err
	}

	if confirm {
		again := promptui.Prompt{Label: "Repeat password", Mask: '*'}
		repeated, err := again.Run()
		if err != nil {
			return "", err
		}
		if repeated != password {
			return "", errors.New("passwords do not match")
		}
	}
	return password, nil
}

func runRegister(_ *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	password, err := readPassword(true)
	if err != nil {
		return handlePromptError(err)
	}

	acc, err := client.Register(context.Background(), args[0], password)
	if err != nil {
		return err
	}

	return getFormatter().FormatAccount(os.Stdout, acc)
}

func runLogin(_ *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	password, err := readPassword(false)
	if err != nil {
		return handlePromptError(err)
	}

	res, err := client.Login(context.Background(), args[0], password)
	if err != nil {
		return err
	}

	if err := saveSession(os.Stderr, res.Email, res.Session); err != nil {
		return err
	}

	return getFormatter().FormatAccount(os.Stdout, &res.Account)
}

func runLogout(_ *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	if client.Session() == "" {
		return clientcli.ErrNotLoggedIn
	}

	// The session is dropped locally even when the server is unreachable.
	logoutErr := client.Logout(context.Background())

	_, p, err := loadProfile()
	if err != nil {
		return err
	}
	if p != nil {
		if err := saveSession(os.Stderr, p.Email, ""); err != nil {
			return err
		}
	}

	if logoutErr != nil {
		return logoutErr
	}
	if !quiet && !jsonOutput {
		fmt.Println("Logged out.")
	}
	return nil
}

func runWhoAmI(_ *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	acc, err := client.WhoAmI(context.Background())
	if err != nil {
		return err
	}

	return getFormatter().FormatAccount(os.Stdout, acc)
}
